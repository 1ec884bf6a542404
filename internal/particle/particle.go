// Package particle implements the particle simulation: pooled particles,
// emission patterns, fixed-step physics and batched drawing.
package particle

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/invaders-fx/internal/draw"
)

var (
	// ErrInvalidConfig is returned by Init for non-finite positions or
	// non-positive lifetimes.
	ErrInvalidConfig = errors.New("invalid particle config")
	// ErrInvalidEmission is returned by Emit for bad positions or counts.
	ErrInvalidEmission = errors.New("invalid emission")
	// ErrInvalidDeltaTime is returned by System.Update for negative deltas.
	ErrInvalidDeltaTime = errors.New("invalid delta time")
)

// DefaultDrag is the per-reference-tick velocity multiplier used when a
// config leaves Drag at zero.
const DefaultDrag = 0.98

// ReferenceTickRate is the tick rate drag factors are expressed against.
// Drag is applied as drag^(dt*ReferenceTickRate), which equals one
// multiplication per tick at 60 Hz and stays consistent at other steps.
const ReferenceTickRate = 60

// Config (re)configures a pooled particle.
type Config struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2 // Used as-is when Speed is zero
	Angle    float64    // Radians; with Speed, replaces Velocity
	Speed    float64    // Units per second
	Size     float64    // Radius in logical units
	Color    color.RGBA
	Lifetime time.Duration
	Gravity  float64 // Downward acceleration, units per second²
	Drag     float64 // Velocity multiplier per reference tick; 0 selects DefaultDrag, 1 disables
	Alpha    float64 // Initial opacity; 0 selects 1
}

// Particle is one simulated point. It holds no reference to the pool or
// system that owns it; the owner decides when to recycle it.
type Particle struct {
	pos      mgl64.Vec2
	prevPos  mgl64.Vec2 // Position at the previous tick, for interpolation
	vel      mgl64.Vec2
	size     float64
	color    color.RGBA
	age      time.Duration
	lifetime time.Duration
	gravity  float64
	drag     float64
	baseA    float64
	alpha    float64
	active   bool
}

// New returns an inactive particle, suitable as a pool factory.
func New() *Particle {
	return &Particle{}
}

// Init configures the particle and activates it.
func (p *Particle) Init(cfg Config) error {
	if !finiteVec(cfg.Position) {
		return fmt.Errorf("%w: position %v is not finite", ErrInvalidConfig, cfg.Position)
	}
	if cfg.Lifetime <= 0 {
		return fmt.Errorf("%w: lifetime %v must be positive", ErrInvalidConfig, cfg.Lifetime)
	}
	if cfg.Size < 0 || !finite(cfg.Size) {
		return fmt.Errorf("%w: size %v", ErrInvalidConfig, cfg.Size)
	}

	if !finite(cfg.Gravity) {
		return fmt.Errorf("%w: gravity %v is not finite", ErrInvalidConfig, cfg.Gravity)
	}
	if !(cfg.Drag >= 0 && cfg.Drag <= 1) {
		return fmt.Errorf("%w: drag %v outside [0,1]", ErrInvalidConfig, cfg.Drag)
	}

	vel := cfg.Velocity
	if cfg.Speed != 0 {
		vel = Polar(cfg.Angle, cfg.Speed)
	}
	if !finiteVec(vel) {
		return fmt.Errorf("%w: velocity %v is not finite", ErrInvalidConfig, vel)
	}

	drag := cfg.Drag
	if drag == 0 {
		drag = DefaultDrag
	}
	alpha := cfg.Alpha
	if alpha == 0 {
		alpha = 1
	}

	p.pos = cfg.Position
	p.prevPos = cfg.Position
	p.vel = vel
	p.size = cfg.Size
	p.color = cfg.Color
	p.age = 0
	p.lifetime = cfg.Lifetime
	p.gravity = cfg.Gravity
	p.drag = drag
	p.baseA = clamp01(alpha)
	p.alpha = p.baseA
	p.active = true
	return nil
}

// Update advances the particle by dt and reports whether it is still alive.
// A negative dt is treated as an empty tick. Once expired, a particle stays
// inactive until re-initialized.
func (p *Particle) Update(dt time.Duration) bool {
	if !p.active {
		return false
	}
	if dt <= 0 {
		return true
	}

	p.age += dt
	if p.age >= p.lifetime {
		p.age = p.lifetime
		p.alpha = 0
		p.active = false
		return false
	}

	secs := dt.Seconds()
	p.prevPos = p.pos
	p.pos = p.pos.Add(p.vel.Mul(secs))
	p.vel[1] += p.gravity * secs
	if p.drag != 1 {
		p.vel = p.vel.Mul(math.Pow(p.drag, secs*ReferenceTickRate))
	}

	p.alpha = p.baseA * math.Max(0, 1-float64(p.age)/float64(p.lifetime))
	return true
}

// Render draws the particle at its position interpolated between the previous
// and current tick. interp is the loop's interpolation alpha in [0,1).
func (p *Particle) Render(r draw.Renderer, interp float64) error {
	if !p.active {
		return nil
	}
	at := p.prevPos.Add(p.pos.Sub(p.prevPos).Mul(clamp01(interp)))
	return r.DrawFilledCircle(at.X(), at.Y(), p.size, p.color, p.alpha)
}

// Reset restores every field to the zero state. Used as the pool's reset
// function so recycled particles carry nothing over.
func (p *Particle) Reset() {
	*p = Particle{}
}

// Active reports whether the particle is alive.
func (p *Particle) Active() bool { return p.active }

// Position returns the current position.
func (p *Particle) Position() mgl64.Vec2 { return p.pos }

// Velocity returns the current velocity.
func (p *Particle) Velocity() mgl64.Vec2 { return p.vel }

// Age returns the time the particle has been alive.
func (p *Particle) Age() time.Duration { return p.age }

// Lifetime returns the configured lifetime.
func (p *Particle) Lifetime() time.Duration { return p.lifetime }

// Alpha returns the current opacity in [0,1].
func (p *Particle) Alpha() float64 { return p.alpha }

// Size returns the radius.
func (p *Particle) Size() float64 { return p.size }

// Color returns the color token.
func (p *Particle) Color() color.RGBA { return p.color }

// Polar converts an angle and speed into a velocity vector.
func Polar(angle, speed float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(v mgl64.Vec2) bool {
	return finite(v[0]) && finite(v[1])
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
