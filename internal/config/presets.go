package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/particle"
)

//go:embed presets.yaml
var defaultPresets []byte

var (
	// ErrInvalidPreset is returned when a preset file fails validation.
	ErrInvalidPreset = errors.New("invalid preset")
	// ErrUnknownPreset is returned for an effect name that is not defined.
	ErrUnknownPreset = errors.New("unknown preset")
)

// Preset describes one named effect as written in YAML.
type Preset struct {
	Pattern            string   `yaml:"pattern"`
	Count              int      `yaml:"count"`     // Particles per burst
	Rate               float64  `yaml:"rate"`      // Particles per second for continuous emitters
	Direction          float64  `yaml:"direction"` // Degrees
	Spread             float64  `yaml:"spread"`    // Degrees
	Speed              float64  `yaml:"speed"`
	Colors             []string `yaml:"colors"`
	Size               float64  `yaml:"size"`
	SizeVariance       float64  `yaml:"size_variance"`
	LifetimeMS         int      `yaml:"lifetime_ms"`
	LifetimeVarianceMS int      `yaml:"lifetime_variance_ms"`
	Gravity            float64  `yaml:"gravity"`
	Drag               float64  `yaml:"drag"`
	Alpha              float64  `yaml:"alpha"`
}

// OverloadSettings mirrors particle.Overload.
type OverloadSettings struct {
	Enabled      bool    `yaml:"enabled"`
	MinFPS       float64 `yaml:"min_fps"`
	CullFraction float64 `yaml:"cull_fraction"`
}

// ParticleSettings sizes the shared particle system.
type ParticleSettings struct {
	MaxParticles int              `yaml:"max_particles"`
	PoolSize     int              `yaml:"pool_size"`
	Overload     OverloadSettings `yaml:"overload"`
}

// Presets is the full preset document.
type Presets struct {
	Particles ParticleSettings  `yaml:"particles"`
	Effects   map[string]Preset `yaml:"effects"`
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() (*Presets, error) {
	p := &Presets{}
	if err := decodeInto(p, defaultPresets); err != nil {
		return nil, fmt.Errorf("built-in presets: %w", err)
	}
	return p, p.Validate()
}

// LoadPresets returns the built-in presets overlaid with the YAML file at
// path. Particle settings override field by field; an effect defined in the
// file replaces the built-in effect of the same name. An empty path returns
// the built-in presets.
func LoadPresets(path string) (*Presets, error) {
	p, err := DefaultPresets()
	if err != nil || path == "" {
		return p, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	if err := decodeInto(p, data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func decodeInto(p *Presets, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the particle settings and every effect.
func (p *Presets) Validate() error {
	s := p.Particles
	if s.MaxParticles <= 0 {
		return fmt.Errorf("%w: max_particles %d must be positive", ErrInvalidPreset, s.MaxParticles)
	}
	if s.PoolSize < 0 {
		return fmt.Errorf("%w: pool_size %d is negative", ErrInvalidPreset, s.PoolSize)
	}
	if s.Overload.Enabled && (s.Overload.CullFraction <= 0 || s.Overload.CullFraction > 1) {
		return fmt.Errorf("%w: cull_fraction %v outside (0,1]", ErrInvalidPreset, s.Overload.CullFraction)
	}
	for _, name := range p.Names() {
		if _, err := p.Effects[name].EmitOptions(); err != nil {
			return fmt.Errorf("effect %q: %w", name, err)
		}
	}
	return nil
}

// Names returns the effect names in sorted order.
func (p *Presets) Names() []string {
	return slices.Sorted(maps.Keys(p.Effects))
}

// Effect looks up a named effect.
func (p *Presets) Effect(name string) (Preset, error) {
	e, ok := p.Effects[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return e, nil
}

// SystemOptions converts the particle settings. Logger and Rand are left
// for the caller.
func (p *Presets) SystemOptions() particle.Options {
	s := p.Particles
	return particle.Options{
		MaxParticles: s.MaxParticles,
		PoolSize:     s.PoolSize,
		Overload: particle.Overload{
			Enabled:      s.Overload.Enabled,
			MinFPS:       s.Overload.MinFPS,
			CullFraction: s.Overload.CullFraction,
		},
	}
}

// EmitOptions validates the preset and converts it for particle.System.Emit.
func (e Preset) EmitOptions() (particle.EmitOptions, error) {
	pattern, err := particle.ParsePattern(e.Pattern)
	if err != nil {
		return particle.EmitOptions{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	switch {
	case e.LifetimeMS <= 0:
		return particle.EmitOptions{}, fmt.Errorf("%w: lifetime_ms %d must be positive", ErrInvalidPreset, e.LifetimeMS)
	case e.LifetimeVarianceMS < 0:
		return particle.EmitOptions{}, fmt.Errorf("%w: negative lifetime_variance_ms", ErrInvalidPreset)
	case e.Count < 0 || e.Rate < 0:
		return particle.EmitOptions{}, fmt.Errorf("%w: negative count or rate", ErrInvalidPreset)
	case e.Size < 0 || e.SizeVariance < 0:
		return particle.EmitOptions{}, fmt.Errorf("%w: negative size", ErrInvalidPreset)
	case e.Drag < 0 || e.Drag > 1:
		return particle.EmitOptions{}, fmt.Errorf("%w: drag %v outside [0,1]", ErrInvalidPreset, e.Drag)
	case e.Alpha < 0 || e.Alpha > 1:
		return particle.EmitOptions{}, fmt.Errorf("%w: alpha %v outside [0,1]", ErrInvalidPreset, e.Alpha)
	}

	colors := make([]color.RGBA, 0, len(e.Colors))
	for _, s := range e.Colors {
		c, err := draw.ParseColor(s)
		if err != nil {
			return particle.EmitOptions{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
		}
		colors = append(colors, c)
	}

	return particle.EmitOptions{
		Pattern:          pattern,
		Direction:        mgl64.DegToRad(e.Direction),
		Spread:           mgl64.DegToRad(e.Spread),
		Speed:            e.Speed,
		Colors:           colors,
		Size:             e.Size,
		SizeVariance:     e.SizeVariance,
		Lifetime:         time.Duration(e.LifetimeMS) * time.Millisecond,
		LifetimeVariance: time.Duration(e.LifetimeVarianceMS) * time.Millisecond,
		Gravity:          e.Gravity,
		Drag:             e.Drag,
		Alpha:            e.Alpha,
	}, nil
}
