// Package effect layers named presets and continuous emitters over one
// shared particle system.
package effect

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/particle"
)

var (
	// ErrUnknownEmitter is returned for an id that is not registered.
	ErrUnknownEmitter = errors.New("unknown emitter")
	// ErrInvalidRate is returned for negative or non-finite emission rates.
	ErrInvalidRate = errors.New("invalid emission rate")
)

// Emitter emits a preset continuously at a fixed rate.
type Emitter struct {
	ID     uuid.UUID
	Effect string
	Pos    mgl64.Vec2
	Rate   float64 // Particles per second
	Active bool

	opts  particle.EmitOptions
	carry float64 // Fractional particles owed from previous steps
}

// Manager owns the shared particle system and the registered emitters.
type Manager struct {
	sys     *particle.System
	effects map[string]config.Preset
	opts    map[string]particle.EmitOptions
	logger  *log.Logger

	emitters map[uuid.UUID]*Emitter
	order    []uuid.UUID
}

// NewManager converts every preset up front so effect lookups cannot fail
// on validation later.
func NewManager(sys *particle.System, presets *config.Presets, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Manager{
		sys:      sys,
		effects:  make(map[string]config.Preset, len(presets.Effects)),
		opts:     make(map[string]particle.EmitOptions, len(presets.Effects)),
		logger:   logger,
		emitters: make(map[uuid.UUID]*Emitter),
	}
	for _, name := range presets.Names() {
		e := presets.Effects[name]
		opts, err := e.EmitOptions()
		if err != nil {
			return nil, fmt.Errorf("effect %q: %w", name, err)
		}
		m.effects[name] = e
		m.opts[name] = opts
	}
	return m, nil
}

func (m *Manager) lookup(name string) (config.Preset, particle.EmitOptions, error) {
	opts, ok := m.opts[name]
	if !ok {
		return config.Preset{}, particle.EmitOptions{}, fmt.Errorf("%w: %q", config.ErrUnknownPreset, name)
	}
	return m.effects[name], opts, nil
}

// Burst emits the preset's count of particles at pos.
func (m *Manager) Burst(name string, pos mgl64.Vec2) (int, error) {
	e, _, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	return m.BurstN(name, pos, e.Count)
}

// BurstN emits count particles of the named effect at pos.
func (m *Manager) BurstN(name string, pos mgl64.Vec2, count int) (int, error) {
	_, opts, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	n, err := m.sys.Emit(pos, count, opts)
	if err != nil {
		return n, fmt.Errorf("burst %q: %w", name, err)
	}
	if n < count {
		m.logger.Debug("burst truncated", "effect", name, "requested", count, "emitted", n)
	}
	return n, nil
}

// AddEmitter registers an active emitter. A zero rate uses the preset's rate.
func (m *Manager) AddEmitter(name string, pos mgl64.Vec2, rate float64) (uuid.UUID, error) {
	e, opts, err := m.lookup(name)
	if err != nil {
		return uuid.Nil, err
	}
	if rate == 0 {
		rate = e.Rate
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	em := &Emitter{
		ID:     uuid.New(),
		Effect: name,
		Pos:    pos,
		Rate:   rate,
		Active: true,
		opts:   opts,
	}
	m.emitters[em.ID] = em
	m.order = append(m.order, em.ID)
	return em.ID, nil
}

func (m *Manager) emitter(id uuid.UUID) (*Emitter, error) {
	em, ok := m.emitters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmitter, id)
	}
	return em, nil
}

// MoveEmitter sets an emitter's position.
func (m *Manager) MoveEmitter(id uuid.UUID, pos mgl64.Vec2) error {
	em, err := m.emitter(id)
	if err != nil {
		return err
	}
	em.Pos = pos
	return nil
}

// SetEmitterActive pauses or resumes an emitter. Pausing drops any
// fractional carry.
func (m *Manager) SetEmitterActive(id uuid.UUID, active bool) error {
	em, err := m.emitter(id)
	if err != nil {
		return err
	}
	if !active {
		em.carry = 0
	}
	em.Active = active
	return nil
}

// RemoveEmitter unregisters an emitter. Particles it already emitted live on.
func (m *Manager) RemoveEmitter(id uuid.UUID) error {
	if _, err := m.emitter(id); err != nil {
		return err
	}
	delete(m.emitters, id)
	m.order = slices.DeleteFunc(m.order, func(o uuid.UUID) bool { return o == id })
	return nil
}

// Emitter returns a copy of an emitter's public state.
func (m *Manager) Emitter(id uuid.UUID) (Emitter, error) {
	em, err := m.emitter(id)
	if err != nil {
		return Emitter{}, err
	}
	return *em, nil
}

// EmitterCount returns the number of registered emitters.
func (m *Manager) EmitterCount() int {
	return len(m.order)
}

// Update runs the emitters in creation order for dt, then steps the system.
func (m *Manager) Update(dt time.Duration) error {
	if dt < 0 {
		return fmt.Errorf("%w: %v", particle.ErrInvalidDeltaTime, dt)
	}
	secs := dt.Seconds()
	for _, id := range m.order {
		em := m.emitters[id]
		if !em.Active || em.Rate == 0 {
			continue
		}
		em.carry += em.Rate * secs
		n := int(em.carry)
		if n == 0 {
			continue
		}
		em.carry -= float64(n)
		if _, err := m.sys.Emit(em.Pos, n, em.opts); err != nil {
			return fmt.Errorf("emitter %s (%s): %w", id, em.Effect, err)
		}
	}
	return m.sys.Update(dt)
}

// Render draws the system as a complete frame on surface.
func (m *Manager) Render(surface draw.Surface, alpha float64) error {
	return m.sys.Render(surface, alpha)
}

// Draw draws the particles into a frame the caller manages.
func (m *Manager) Draw(r draw.Renderer, alpha float64) {
	m.sys.Draw(r, alpha)
}

// Throttle forwards the observed frame rate to the system's overload policy.
func (m *Manager) Throttle(fps float64) int {
	return m.sys.Throttle(fps)
}

// Clear removes every emitter and live particle.
func (m *Manager) Clear() {
	clear(m.emitters)
	m.order = m.order[:0]
	m.sys.Clear()
}

// Stats returns the system counters.
func (m *Manager) Stats() particle.Stats {
	return m.sys.Stats()
}
