package scene

import (
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/physics"
)

var projectileColor = color.RGBA{R: 255, G: 250, B: 200, A: 255}

// Projectile is a pooled shot travelling straight up.
type Projectile struct {
	Pos     mgl64.Vec2
	prevPos mgl64.Vec2
	Vel     mgl64.Vec2
	Life    time.Duration
	trail   uuid.UUID
	hit     bool
}

func newProjectile() *Projectile {
	return &Projectile{}
}

func resetProjectile(p *Projectile) {
	*p = Projectile{}
}

func (p *Projectile) launch(pos mgl64.Vec2, trail uuid.UUID) {
	p.Pos = pos
	p.prevPos = pos
	p.Vel = mgl64.Vec2{0, -config.ProjectileSpeed}
	p.Life = config.ProjectileLifetime
	p.trail = trail
}

// update moves the projectile and reports whether it is still in flight.
func (p *Projectile) update(dt time.Duration) bool {
	p.Life -= dt
	if p.hit || p.Life <= 0 {
		return false
	}
	p.prevPos = p.Pos
	p.Pos = p.Pos.Add(p.Vel.Mul(dt.Seconds()))
	return p.Pos.Y() >= -config.ProjectileRadius
}

func (p *Projectile) draw(r draw.Renderer, alpha float64) error {
	at := physics.Lerp(p.prevPos, p.Pos, alpha)
	return r.DrawFilledCircle(at.X(), at.Y(), config.ProjectileRadius, projectileColor, 1)
}
