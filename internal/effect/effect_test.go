package effect

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/particle"
)

func testPresets() *config.Presets {
	return &config.Presets{
		Particles: config.ParticleSettings{MaxParticles: 500},
		Effects: map[string]config.Preset{
			"boom":  {Pattern: "radial", Count: 20, Speed: 30, LifetimeMS: 1000},
			"smoke": {Pattern: "spread", Rate: 25, Colors: []string{"#010101"}, LifetimeMS: 10000, Drag: 1},
			"glow":  {Pattern: "spread", Rate: 10, Colors: []string{"#020202"}, LifetimeMS: 10000, Drag: 1},
		},
	}
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	p := testPresets()
	opts := p.SystemOptions()
	opts.Rand = rand.New(rand.NewPCG(3, 4))
	sys, err := particle.NewSystem(opts)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	m, err := NewManager(sys, p, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestManager_Burst(t *testing.T) {
	m := newManager(t)

	n, err := m.Burst("boom", mgl64.Vec2{10, 10})
	if err != nil {
		t.Fatalf("Burst: %v", err)
	}
	if n != 20 || m.Stats().Active != 20 {
		t.Errorf("expected 20 particles, got n=%d active=%d", n, m.Stats().Active)
	}

	if _, err := m.Burst("nope", mgl64.Vec2{}); !errors.Is(err, config.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
	if _, err := m.BurstN("boom", mgl64.Vec2{}, -1); !errors.Is(err, particle.ErrInvalidEmission) {
		t.Errorf("expected ErrInvalidEmission, got %v", err)
	}
}

func TestNewManager_RejectsInvalidPreset(t *testing.T) {
	p := testPresets()
	p.Effects["bad"] = config.Preset{LifetimeMS: 0}
	sys, _ := particle.NewSystem(particle.Options{MaxParticles: 10})
	if _, err := NewManager(sys, p, nil); !errors.Is(err, config.ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset, got %v", err)
	}
}

func TestManager_EmitterCarriesFractions(t *testing.T) {
	m := newManager(t)
	if _, err := m.AddEmitter("smoke", mgl64.Vec2{}, 0); err != nil {
		t.Fatalf("AddEmitter: %v", err)
	}

	// 25/s over 100ms steps owes 2.5 particles per step.
	want := []uint64{2, 5, 7, 10}
	for i, w := range want {
		if err := m.Update(100 * time.Millisecond); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got := m.Stats().Emitted; got != w {
			t.Errorf("step %d: emitted %d, want %d", i, got, w)
		}
	}
}

func TestManager_EmittersRunInCreationOrder(t *testing.T) {
	m := newManager(t)
	_, _ = m.AddEmitter("smoke", mgl64.Vec2{}, 10)
	_, _ = m.AddEmitter("glow", mgl64.Vec2{}, 10)

	if err := m.Update(100 * time.Millisecond); err != nil {
		t.Fatalf("Update: %v", err)
	}
	var got []uint8
	m.sys.Each(func(p *particle.Particle) { got = append(got, p.Color().R) })
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestManager_EmitterLifecycle(t *testing.T) {
	m := newManager(t)
	id, err := m.AddEmitter("smoke", mgl64.Vec2{1, 1}, 10)
	if err != nil {
		t.Fatalf("AddEmitter: %v", err)
	}

	if err := m.MoveEmitter(id, mgl64.Vec2{50, 60}); err != nil {
		t.Fatalf("MoveEmitter: %v", err)
	}
	_ = m.Update(100 * time.Millisecond)
	m.sys.Each(func(p *particle.Particle) {
		if p.Position() != (mgl64.Vec2{50, 60}) {
			t.Errorf("particle spawned at %v, want the moved position", p.Position())
		}
	})

	if err := m.SetEmitterActive(id, false); err != nil {
		t.Fatalf("SetEmitterActive: %v", err)
	}
	before := m.Stats().Emitted
	_ = m.Update(time.Second)
	if m.Stats().Emitted != before {
		t.Error("paused emitter kept emitting")
	}
	if em, _ := m.Emitter(id); em.Active {
		t.Error("emitter still reported active")
	}

	if err := m.RemoveEmitter(id); err != nil {
		t.Fatalf("RemoveEmitter: %v", err)
	}
	if m.EmitterCount() != 0 {
		t.Errorf("expected no emitters, got %d", m.EmitterCount())
	}
	for _, err := range []error{
		m.RemoveEmitter(id),
		m.MoveEmitter(id, mgl64.Vec2{}),
		m.SetEmitterActive(uuid.New(), true),
	} {
		if !errors.Is(err, ErrUnknownEmitter) {
			t.Errorf("expected ErrUnknownEmitter, got %v", err)
		}
	}
}

func TestManager_AddEmitterValidates(t *testing.T) {
	m := newManager(t)
	if _, err := m.AddEmitter("smoke", mgl64.Vec2{}, -1); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := m.AddEmitter("missing", mgl64.Vec2{}, 1); !errors.Is(err, config.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
	if err := m.Update(-time.Millisecond); !errors.Is(err, particle.ErrInvalidDeltaTime) {
		t.Errorf("expected ErrInvalidDeltaTime, got %v", err)
	}
}

func TestManager_Clear(t *testing.T) {
	m := newManager(t)
	_, _ = m.AddEmitter("smoke", mgl64.Vec2{}, 100)
	_, _ = m.Burst("boom", mgl64.Vec2{})
	_ = m.Update(100 * time.Millisecond)

	m.Clear()
	if m.EmitterCount() != 0 || m.Stats().Active != 0 {
		t.Errorf("clear left emitters=%d active=%d", m.EmitterCount(), m.Stats().Active)
	}
}
