package scene

import (
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/physics"
)

var (
	shipColor = color.RGBA{R: 120, G: 230, B: 140, A: 255}
	wingColor = color.RGBA{R: 60, G: 170, B: 90, A: 255}
)

// Ship is the player cannon. It only moves horizontally.
type Ship struct {
	Pos      mgl64.Vec2
	prevPos  mgl64.Vec2
	Vel      float64
	cooldown time.Duration
}

func newShip(width float64) Ship {
	pos := mgl64.Vec2{width / 2, config.ShipY}
	return Ship{Pos: pos, prevPos: pos}
}

// update moves the ship one step and keeps it inside [0, width].
func (s *Ship) update(dt time.Duration, left, right bool, width float64) {
	s.prevPos = s.Pos
	s.Vel = 0
	if left {
		s.Vel -= config.ShipSpeed
	}
	if right {
		s.Vel += config.ShipSpeed
	}
	x := s.Pos.X() + s.Vel*dt.Seconds()
	s.Pos[0] = physics.Clamp(x, config.ShipRadius*2, width-config.ShipRadius*2)
	s.cooldown = max(s.cooldown-dt, 0)
}

// Nose is where projectiles leave the ship.
func (s *Ship) Nose() mgl64.Vec2 {
	return s.Pos.Sub(mgl64.Vec2{0, config.ShipRadius + 1})
}

// Exhaust is where the thrust emitter sits.
func (s *Ship) Exhaust() mgl64.Vec2 {
	return s.Pos.Add(mgl64.Vec2{0, config.ShipRadius})
}

func (s *Ship) draw(r draw.Renderer, alpha float64) error {
	at := physics.Lerp(s.prevPos, s.Pos, alpha)
	if err := r.DrawFilledCircle(at.X(), at.Y(), config.ShipRadius, shipColor, 1); err != nil {
		return err
	}
	for _, dx := range []float64{-config.ShipRadius * 1.4, config.ShipRadius * 1.4} {
		if err := r.DrawFilledCircle(at.X()+dx, at.Y()+1, config.ShipRadius*0.6, wingColor, 1); err != nil {
			return err
		}
	}
	return r.DrawFilledCircle(at.X(), at.Y()-config.ShipRadius, 0.8, shipColor, 1)
}
