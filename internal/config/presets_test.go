package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomz197/invaders-fx/internal/particle"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultPresets(t *testing.T) {
	p, err := DefaultPresets()
	if err != nil {
		t.Fatalf("DefaultPresets: %v", err)
	}
	for _, name := range []string{"explosion", "spark", "thrust", "trail", "ambient"} {
		if _, err := p.Effect(name); err != nil {
			t.Errorf("missing built-in effect %q: %v", name, err)
		}
	}
	if p.Particles.MaxParticles <= 0 {
		t.Errorf("expected a positive particle cap, got %d", p.Particles.MaxParticles)
	}
	if _, err := p.Effect("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestPreset_EmitOptions(t *testing.T) {
	e := Preset{
		Pattern:            "spread",
		Direction:          90,
		Spread:             180,
		Speed:              10,
		Colors:             []string{"#ff0000", "#00f"},
		LifetimeMS:         250,
		LifetimeVarianceMS: 50,
		Alpha:              0.5,
	}
	opts, err := e.EmitOptions()
	if err != nil {
		t.Fatalf("EmitOptions: %v", err)
	}
	if opts.Pattern != particle.PatternSpread {
		t.Errorf("pattern %v", opts.Pattern)
	}
	if math.Abs(opts.Direction-math.Pi/2) > 1e-12 || math.Abs(opts.Spread-math.Pi) > 1e-12 {
		t.Errorf("angles not converted to radians: %v %v", opts.Direction, opts.Spread)
	}
	if opts.Lifetime != 250*time.Millisecond || opts.LifetimeVariance != 50*time.Millisecond {
		t.Errorf("lifetimes %v %v", opts.Lifetime, opts.LifetimeVariance)
	}
	if len(opts.Colors) != 2 || opts.Colors[1].B != 255 {
		t.Errorf("colors %v", opts.Colors)
	}
}

func TestPreset_EmitOptionsRejects(t *testing.T) {
	base := Preset{LifetimeMS: 100}
	tests := []struct {
		name string
		edit func(*Preset)
	}{
		{"zero lifetime", func(p *Preset) { p.LifetimeMS = 0 }},
		{"bad pattern", func(p *Preset) { p.Pattern = "spiral" }},
		{"bad color", func(p *Preset) { p.Colors = []string{"#gg0000"} }},
		{"negative count", func(p *Preset) { p.Count = -1 }},
		{"drag above one", func(p *Preset) { p.Drag = 1.5 }},
		{"alpha above one", func(p *Preset) { p.Alpha = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.edit(&p)
			if _, err := p.EmitOptions(); !errors.Is(err, ErrInvalidPreset) {
				t.Errorf("expected ErrInvalidPreset, got %v", err)
			}
		})
	}
}

func TestLoadPresets_Overlay(t *testing.T) {
	path := writeFile(t, `
particles:
  max_particles: 300
effects:
  explosion:
    count: 5
    lifetime_ms: 100
  confetti:
    pattern: spread
    rate: 20
    lifetime_ms: 500
`)
	p, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if p.Particles.MaxParticles != 300 {
		t.Errorf("max_particles not overridden: %d", p.Particles.MaxParticles)
	}
	if p.Particles.PoolSize != 500 {
		t.Errorf("unset pool_size should keep the built-in value, got %d", p.Particles.PoolSize)
	}
	exp, _ := p.Effect("explosion")
	if exp.Count != 5 || len(exp.Colors) != 0 {
		t.Errorf("explosion should be replaced wholesale, got %+v", exp)
	}
	if _, err := p.Effect("confetti"); err != nil {
		t.Errorf("new effect missing: %v", err)
	}
	if _, err := p.Effect("thrust"); err != nil {
		t.Errorf("untouched built-in effect missing: %v", err)
	}
}

func TestLoadPresets_Errors(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	unknown := writeFile(t, "effects:\n  spark:\n    lifetime_ms: 10\n    sparkle: true\n")
	if _, err := LoadPresets(unknown); err == nil {
		t.Error("expected error for unknown field")
	}

	invalid := writeFile(t, "effects:\n  spark:\n    lifetime_ms: 0\n")
	if _, err := LoadPresets(invalid); !errors.Is(err, ErrInvalidPreset) {
		t.Errorf("expected ErrInvalidPreset, got %v", err)
	}

	empty := writeFile(t, "")
	if _, err := LoadPresets(empty); err != nil {
		t.Errorf("empty override should keep defaults: %v", err)
	}
}

func TestPresets_SystemOptions(t *testing.T) {
	p, err := DefaultPresets()
	if err != nil {
		t.Fatal(err)
	}
	opts := p.SystemOptions()
	if _, err := particle.NewSystem(opts); err != nil {
		t.Errorf("built-in system options rejected: %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FX_TEST_STR", "hello")
	t.Setenv("FX_TEST_INT", "42")
	t.Setenv("FX_TEST_BAD_INT", "x")
	t.Setenv("FX_TEST_BOOL", "false")

	if got := GetEnv("FX_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("FX_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv fallback = %q", got)
	}
	if got := GetEnvInt("FX_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("FX_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value = %d", got)
	}
	if got := GetEnvBool("FX_TEST_BOOL", true); got {
		t.Error("GetEnvBool = true")
	}
}
