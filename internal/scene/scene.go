// Package scene is the demo driven by the game loop: a cannon, a marching
// invader formation and the particle effects their collisions produce.
package scene

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/effect"
	"github.com/tomz197/invaders-fx/internal/input"
	"github.com/tomz197/invaders-fx/internal/physics"
	"github.com/tomz197/invaders-fx/internal/pool"
	"github.com/tomz197/invaders-fx/internal/sfx"
)

// Effect names the scene relies on.
const (
	FXExplosion = "explosion"
	FXSpark     = "spark"
	FXThrust    = "thrust"
	FXTrail     = "trail"
	FXAmbient   = "ambient"
)

// Options configures a Scene.
type Options struct {
	Width, Height float64
	Effects       *effect.Manager // Required
	Sound         sfx.Player      // nil is silent
	Logger        *log.Logger     // nil discards
	Rand          *rand.Rand      // nil seeds from the clock
	AutoFire      bool
}

// Scene owns the demo entities. Its methods must be called from the loop
// goroutine.
type Scene struct {
	width, height float64
	fx            *effect.Manager
	snd           sfx.Player
	logger        *log.Logger
	rng           *rand.Rand

	ship      Ship
	thrust    uuid.UUID
	shots     []*Projectile
	shotPool  *pool.Pool[Projectile]
	formation *Formation
	grid      *physics.SpatialGrid

	held      input.Input // Level-triggered keys from the last frame
	bursts    []int       // Burst sizes requested since the last step; 0 uses the preset count
	autoFire  bool
	autoTimer time.Duration
	respawnIn time.Duration
	score     int
	wave      int
	elapsed   time.Duration
}

// New builds the scene and registers its long-lived emitters.
func New(opts Options) (*Scene, error) {
	if opts.Effects == nil {
		return nil, errors.New("scene: nil effect manager")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("scene: invalid size %vx%v", opts.Width, opts.Height)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	snd := opts.Sound
	if snd == nil {
		snd = sfx.Nop{}
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>3|1))
	}

	shots, err := pool.New(pool.Config[Projectile]{
		New:         newProjectile,
		Reset:       resetProjectile,
		InitialSize: 16,
		MaxSize:     64,
		AutoExpand:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("projectile pool: %w", err)
	}

	s := &Scene{
		width:     opts.Width,
		height:    opts.Height,
		fx:        opts.Effects,
		snd:       snd,
		logger:    logger,
		rng:       rng,
		ship:      newShip(opts.Width),
		shotPool:  shots,
		formation: newFormation(config.InvaderRows, config.InvaderCols, opts.Width),
		grid:      physics.NewSpatialGrid(opts.Width, opts.Height, 8),
		autoFire:  opts.AutoFire,
		wave:      1,
	}

	s.thrust, err = s.fx.AddEmitter(FXThrust, s.ship.Exhaust(), 0)
	if err != nil {
		return nil, fmt.Errorf("thrust emitter: %w", err)
	}
	if err := s.fx.SetEmitterActive(s.thrust, false); err != nil {
		return nil, err
	}
	if _, err := s.fx.AddEmitter(FXAmbient, mgl64.Vec2{opts.Width / 2, opts.Height}, 0); err != nil {
		return nil, fmt.Errorf("ambient emitter: %w", err)
	}
	return s, nil
}

// HandleInput records one host frame of input. Held keys apply to every
// step until the next frame; one-shot keys are queued for the next step.
func (s *Scene) HandleInput(in input.Input) {
	s.held = in
	if in.Burst {
		s.bursts = append(s.bursts, 0)
	}
	switch {
	case in.Number == 0:
		// 0 sits after 9 on the keyboard row.
		s.bursts = append(s.bursts, 100)
	case in.Number > 0:
		s.bursts = append(s.bursts, in.Number*10)
	}
	if in.AutoFire {
		s.autoFire = !s.autoFire
		s.logger.Debug("auto fire", "enabled", s.autoFire)
	}
}

// Update advances the scene by one fixed step.
func (s *Scene) Update(dt time.Duration) error {
	s.elapsed += dt

	for _, n := range s.bursts {
		pos := mgl64.Vec2{
			s.width * (0.2 + 0.6*s.rng.Float64()),
			s.height * (0.2 + 0.4*s.rng.Float64()),
		}
		var err error
		if n == 0 {
			_, err = s.fx.Burst(FXExplosion, pos)
		} else {
			_, err = s.fx.BurstN(FXExplosion, pos, n)
		}
		if err != nil {
			return err
		}
	}
	s.bursts = s.bursts[:0]

	left, right := s.held.Left, s.held.Right
	if s.autoFire && !left && !right {
		// Sweep the ship back and forth while demoing.
		phase := s.elapsed.Seconds() / 3
		left = int(phase)%2 == 1
		right = !left
	}
	s.ship.update(dt, left, right, s.width)
	if err := s.fx.MoveEmitter(s.thrust, s.ship.Exhaust()); err != nil {
		return err
	}
	if err := s.fx.SetEmitterActive(s.thrust, s.ship.Vel != 0); err != nil {
		return err
	}

	if err := s.fire(dt); err != nil {
		return err
	}
	if err := s.updateShots(dt); err != nil {
		return err
	}
	s.formation.update(dt)
	if err := s.collide(); err != nil {
		return err
	}
	if err := s.updateWave(dt); err != nil {
		return err
	}

	return s.fx.Update(dt)
}

func (s *Scene) fire(dt time.Duration) error {
	want := s.held.Fire
	if s.autoFire {
		s.autoTimer += dt
		if s.autoTimer >= config.AutoFireInterval {
			s.autoTimer -= config.AutoFireInterval
			want = true
		}
	}
	if !want || s.ship.cooldown > 0 {
		return nil
	}

	p, err := s.shotPool.Acquire()
	if errors.Is(err, pool.ErrExhausted) {
		s.logger.Debug("projectile pool exhausted", "active", s.shotPool.Active())
		return nil
	} else if err != nil {
		return err
	}
	trail, err := s.fx.AddEmitter(FXTrail, s.ship.Nose(), 0)
	if err != nil {
		_ = s.shotPool.Release(p)
		return err
	}
	p.launch(s.ship.Nose(), trail)
	s.shots = append(s.shots, p)
	s.ship.cooldown = config.FireCooldown

	if _, err := s.fx.Burst(FXSpark, s.ship.Nose()); err != nil {
		return err
	}
	s.snd.Play(sfx.Shot)
	return nil
}

func (s *Scene) updateShots(dt time.Duration) error {
	kept := s.shots[:0]
	for _, p := range s.shots {
		if p.update(dt) {
			if err := s.fx.MoveEmitter(p.trail, p.Pos); err != nil {
				return err
			}
			kept = append(kept, p)
			continue
		}
		if err := s.retire(p); err != nil {
			return err
		}
	}
	clear(s.shots[len(kept):])
	s.shots = kept
	return nil
}

func (s *Scene) retire(p *Projectile) error {
	if err := s.fx.RemoveEmitter(p.trail); err != nil {
		return err
	}
	return s.shotPool.Release(p)
}

func (s *Scene) collide() error {
	s.grid.Clear()
	for i, inv := range s.formation.Invaders {
		if inv.Alive {
			s.grid.Insert(s.formation.Pos(i), i)
		}
	}

	for _, p := range s.shots {
		if p.hit {
			continue
		}
		target := -1
		s.grid.QueryAround(p.Pos, func(i int) bool {
			if physics.CirclesOverlap(p.Pos, config.ProjectileRadius, s.formation.Pos(i), config.InvaderRadius) {
				target = i
				return true
			}
			return false
		})
		if target < 0 || !s.formation.Kill(target) {
			continue
		}

		p.hit = true
		s.score += config.ScoreInvader
		if _, err := s.fx.Burst(FXExplosion, s.formation.Pos(target)); err != nil {
			return err
		}
		s.snd.Play(sfx.Explosion)
	}
	return nil
}

func (s *Scene) updateWave(dt time.Duration) error {
	reached := s.formation.Alive() > 0 && s.formation.Bottom() >= config.ShipY-config.ShipRadius*2
	if reached {
		// The formation landed; clear it with a flourish and start over.
		for i, inv := range s.formation.Invaders {
			if inv.Alive {
				if _, err := s.fx.Burst(FXSpark, s.formation.Pos(i)); err != nil {
					return err
				}
			}
		}
		s.formation = newFormation(config.InvaderRows, config.InvaderCols, s.width)
		return nil
	}

	if s.formation.Alive() > 0 {
		return nil
	}
	if s.respawnIn == 0 {
		s.respawnIn = config.FormationRespawn
		return nil
	}
	s.respawnIn -= dt
	if s.respawnIn <= 0 {
		s.respawnIn = 0
		s.wave++
		s.formation = newFormation(config.InvaderRows, config.InvaderCols, s.width)
		s.logger.Info("new wave", "wave", s.wave, "score", s.score)
	}
	return nil
}

// Render draws a complete frame: particles behind, then invaders,
// projectiles and the ship.
func (s *Scene) Render(surface draw.Surface, alpha float64) error {
	if err := surface.BeginDraw(); err != nil {
		return fmt.Errorf("begin draw: %w", err)
	}
	s.fx.Draw(surface, alpha)
	if err := s.formation.draw(surface, alpha); err != nil {
		return fmt.Errorf("draw formation: %w", err)
	}
	for _, p := range s.shots {
		if err := p.draw(surface, alpha); err != nil {
			return fmt.Errorf("draw projectile: %w", err)
		}
	}
	if err := s.ship.draw(surface, alpha); err != nil {
		return fmt.Errorf("draw ship: %w", err)
	}
	return surface.EndDraw()
}

// Throttle feeds the observed frame rate to the particle overload policy.
func (s *Scene) Throttle(fps float64) int {
	return s.fx.Throttle(fps)
}

// Score returns the points scored so far.
func (s *Scene) Score() int { return s.score }

// Wave returns the current wave number, starting at 1.
func (s *Scene) Wave() int { return s.wave }

// AutoFire reports whether the demo fires on its own.
func (s *Scene) AutoFire() bool { return s.autoFire }

// Shots returns the number of projectiles in flight.
func (s *Scene) Shots() int { return len(s.shots) }

// Formation exposes the invader formation.
func (s *Scene) Formation() *Formation { return s.formation }

// Ship returns the player ship.
func (s *Scene) Ship() Ship { return s.ship }

// Effects returns the effect manager.
func (s *Scene) Effects() *effect.Manager { return s.fx }
