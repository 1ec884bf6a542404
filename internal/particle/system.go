package particle

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/pool"
)

// Overload configures advisory self-throttling: when the observed frame
// rate drops below MinFPS, the oldest CullFraction of live particles is
// recycled early.
type Overload struct {
	Enabled      bool
	MinFPS       float64
	CullFraction float64 // (0,1]
}

// Options configures a System.
type Options struct {
	MaxParticles int         // Hard cap on live particles (required)
	PoolSize     int         // Particles built up front; 0 fills to MaxParticles
	Logger       *log.Logger // nil discards
	Rand         *rand.Rand  // nil seeds from the clock
	Overload     Overload
}

// Stats is a snapshot of System counters.
type Stats struct {
	Active    int
	Available int
	Capacity  int
	Emitted   uint64
	Recycled  uint64
	Culled    uint64
	Dropped   uint64 // Emission requests truncated by the cap
}

// System owns the live particle set and the pool it draws from. Particles
// are updated and drawn in emission order, which is stable across ticks.
//
// A System is not safe for concurrent use.
type System struct {
	pool     *pool.Pool[Particle]
	active   []*Particle
	max      int
	rng      *rand.Rand
	logger   *log.Logger
	overload Overload

	ages []time.Duration // scratch for CullOldest

	emitted  uint64
	recycled uint64
	culled   uint64
	dropped  uint64
}

// NewSystem creates a System and pre-fills its pool.
func NewSystem(opts Options) (*System, error) {
	if opts.MaxParticles <= 0 {
		return nil, fmt.Errorf("%w: max particles %d must be positive", ErrInvalidConfig, opts.MaxParticles)
	}
	if opts.Overload.Enabled && (opts.Overload.CullFraction <= 0 || opts.Overload.CullFraction > 1) {
		return nil, fmt.Errorf("%w: cull fraction %v outside (0,1]", ErrInvalidConfig, opts.Overload.CullFraction)
	}

	size := opts.PoolSize
	if size <= 0 || size > opts.MaxParticles {
		size = opts.MaxParticles
	}

	p, err := pool.New(pool.Config[Particle]{
		New:         New,
		Reset:       (*Particle).Reset,
		InitialSize: size,
		MaxSize:     opts.MaxParticles,
		AutoExpand:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("particle pool: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return &System{
		pool:     p,
		active:   make([]*Particle, 0, opts.MaxParticles),
		max:      opts.MaxParticles,
		rng:      rng,
		logger:   logger,
		overload: opts.Overload,
	}, nil
}

// Update steps every live particle by dt and recycles the ones that expired.
func (s *System) Update(dt time.Duration) error {
	if dt < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDeltaTime, dt)
	}

	kept := s.active[:0]
	for _, p := range s.active {
		if p.Update(dt) {
			kept = append(kept, p)
			continue
		}
		s.recycle(p)
	}
	clear(s.active[len(kept):])
	s.active = kept
	return nil
}

func (s *System) recycle(p *Particle) {
	if err := s.pool.Release(p); err != nil {
		s.logger.Error("recycle particle", "err", err)
		return
	}
	s.recycled++
}

// Render prepares the surface, draws every live particle and finishes the frame.
func (s *System) Render(surface draw.Surface, alpha float64) error {
	if err := surface.BeginDraw(); err != nil {
		return fmt.Errorf("begin draw: %w", err)
	}
	s.Draw(surface, alpha)
	if err := surface.EndDraw(); err != nil {
		return fmt.Errorf("end draw: %w", err)
	}
	return nil
}

// Draw issues one circle per live particle without touching frame
// boundaries, for callers that compose particles with other drawing.
// Individual draw failures are logged and skipped.
func (s *System) Draw(r draw.Renderer, alpha float64) {
	var failed int
	var firstErr error
	for _, p := range s.active {
		if err := p.Render(r, alpha); err != nil {
			if failed == 0 {
				firstErr = err
			}
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("particle draw failed", "count", failed, "err", firstErr)
	}
}

// Throttle applies the overload policy for the observed frame rate and
// returns the number of particles culled.
func (s *System) Throttle(fps float64) int {
	o := s.overload
	if !o.Enabled || fps <= 0 || fps >= o.MinFPS {
		return 0
	}
	n := s.CullOldest(o.CullFraction)
	if n > 0 {
		s.logger.Debug("overload cull", "fps", fps, "culled", n, "remaining", len(s.active))
	}
	return n
}

// CullOldest recycles the oldest fraction of live particles (by age,
// rounded up) and returns how many were removed. Survivors keep their order.
func (s *System) CullOldest(fraction float64) int {
	if len(s.active) == 0 || fraction <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(len(s.active)) * math.Min(fraction, 1)))

	s.ages = s.ages[:0]
	for _, p := range s.active {
		s.ages = append(s.ages, p.Age())
	}
	slices.SortFunc(s.ages, func(a, b time.Duration) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	cutoff := s.ages[n-1]
	atCutoff := 0
	for _, a := range s.ages[:n] {
		if a == cutoff {
			atCutoff++
		}
	}

	kept := s.active[:0]
	for _, p := range s.active {
		age := p.Age()
		if age > cutoff || (age == cutoff && atCutoff > 0) {
			if age == cutoff {
				atCutoff--
			}
			s.recycle(p)
			s.culled++
			continue
		}
		kept = append(kept, p)
	}
	clear(s.active[len(kept):])
	s.active = kept
	return n
}

// Clear recycles every live particle.
func (s *System) Clear() {
	for _, p := range s.active {
		s.recycle(p)
	}
	clear(s.active)
	s.active = s.active[:0]
}

// Dispose releases the pool. The System must not be used afterwards.
func (s *System) Dispose() {
	s.Clear()
	s.pool.Dispose()
	s.active = nil
}

// Each calls fn for every live particle in update order.
func (s *System) Each(fn func(*Particle)) {
	for _, p := range s.active {
		fn(p)
	}
}

// ActiveCount returns the number of live particles.
func (s *System) ActiveCount() int {
	return len(s.active)
}

// Available returns the number of idle particles in the pool.
func (s *System) Available() int {
	return s.pool.Available()
}

// Capacity returns the live particle cap.
func (s *System) Capacity() int {
	return s.max
}

// Stats returns a snapshot of the system's counters.
func (s *System) Stats() Stats {
	return Stats{
		Active:    len(s.active),
		Available: s.pool.Available(),
		Capacity:  s.max,
		Emitted:   s.emitted,
		Recycled:  s.recycled,
		Culled:    s.culled,
		Dropped:   s.dropped,
	}
}
