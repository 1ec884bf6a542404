package particle

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/invaders-fx/internal/pool"
)

// Pattern selects how emission angles are chosen.
type Pattern int

const (
	// PatternRadial spaces particles evenly around the full circle (explosions).
	PatternRadial Pattern = iota
	// PatternSpread picks uniform random angles inside a cone (trails, sparks).
	PatternSpread
)

func (p Pattern) String() string {
	switch p {
	case PatternRadial:
		return "radial"
	case PatternSpread:
		return "spread"
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// ParsePattern maps a name to a Pattern.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "radial", "":
		return PatternRadial, nil
	case "spread":
		return PatternSpread, nil
	}
	return 0, fmt.Errorf("unknown emission pattern %q", s)
}

var defaultColors = []color.RGBA{{R: 255, G: 255, B: 255, A: 255}}

// EmitOptions describes a batch of particles.
type EmitOptions struct {
	Pattern   Pattern
	Direction float64 // Radians; radial offset or cone center
	Spread    float64 // Full cone width in radians (PatternSpread)
	Speed     float64 // Base speed; each particle gets Speed × U[0.5,1.0]

	Colors       []color.RGBA // Picked uniformly; empty means white
	Size         float64
	SizeVariance float64

	Lifetime         time.Duration
	LifetimeVariance time.Duration

	Gravity float64
	Drag    float64 // 0 selects DefaultDrag
	Alpha   float64 // 0 selects 1
}

// DefaultEmitOptions returns a small white radial burst.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{
		Pattern:  PatternRadial,
		Speed:    30,
		Size:     0.5,
		Lifetime: time.Second,
	}
}

// Emit spawns up to count particles at pos and returns how many were
// created. Requests beyond the remaining capacity are dropped.
func (s *System) Emit(pos mgl64.Vec2, count int, opts EmitOptions) (int, error) {
	if !finiteVec(pos) {
		return 0, fmt.Errorf("%w: position %v is not finite", ErrInvalidEmission, pos)
	}
	if count < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrInvalidEmission, count)
	}
	if opts.Lifetime <= 0 {
		return 0, fmt.Errorf("%w: lifetime %v must be positive", ErrInvalidEmission, opts.Lifetime)
	}
	if !finite(opts.Speed) || !finite(opts.Direction) || !finite(opts.Spread) || !finite(opts.Gravity) {
		return 0, fmt.Errorf("%w: non-finite motion parameters", ErrInvalidEmission)
	}
	if !finite(opts.Size) || !finite(opts.SizeVariance) || opts.Size < 0 || opts.SizeVariance < 0 {
		return 0, fmt.Errorf("%w: size %v variance %v", ErrInvalidEmission, opts.Size, opts.SizeVariance)
	}
	if !(opts.Drag >= 0 && opts.Drag <= 1) {
		return 0, fmt.Errorf("%w: drag %v outside [0,1]", ErrInvalidEmission, opts.Drag)
	}

	n := min(count, s.max-len(s.active))
	if n < count {
		s.dropped += uint64(count - n)
	}

	colors := opts.Colors
	if len(colors) == 0 {
		colors = defaultColors
	}

	emitted := 0
	for i := 0; i < n; i++ {
		p, err := s.pool.Acquire()
		if errors.Is(err, pool.ErrExhausted) {
			s.dropped += uint64(n - i)
			break
		} else if err != nil {
			return emitted, err
		}

		var angle float64
		switch opts.Pattern {
		case PatternSpread:
			angle = opts.Direction + (s.rng.Float64()-0.5)*opts.Spread
		default:
			angle = opts.Direction + 2*math.Pi*float64(i)/float64(count)
		}

		cfg := Config{
			Position: pos,
			Angle:    angle,
			Speed:    opts.Speed * (0.5 + 0.5*s.rng.Float64()),
			Size:     math.Max(0, opts.Size+(s.rng.Float64()*2-1)*opts.SizeVariance),
			Color:    colors[s.rng.IntN(len(colors))],
			Lifetime: s.jitter(opts.Lifetime, opts.LifetimeVariance),
			Gravity:  opts.Gravity,
			Drag:     opts.Drag,
			Alpha:    opts.Alpha,
		}

		if err := p.Init(cfg); err != nil {
			_ = s.pool.Release(p)
			return emitted, err
		}
		s.active = append(s.active, p)
		emitted++
	}

	s.emitted += uint64(emitted)
	return emitted, nil
}

// jitter returns base ± variance, never below one millisecond.
func (s *System) jitter(base, variance time.Duration) time.Duration {
	if variance <= 0 {
		return base
	}
	d := base + time.Duration((s.rng.Float64()*2-1)*float64(variance))
	return max(d, time.Millisecond)
}
