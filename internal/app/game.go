// Package app hosts the demo: it wires one independent particle system,
// effect manager, scene and loop per player and drives them from a
// terminal, an SSH session or a tcell screen.
package app

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/effect"
	"github.com/tomz197/invaders-fx/internal/input"
	"github.com/tomz197/invaders-fx/internal/loop"
	"github.com/tomz197/invaders-fx/internal/particle"
	"github.com/tomz197/invaders-fx/internal/scene"
	"github.com/tomz197/invaders-fx/internal/sfx"
)

// GameOptions configures a Game.
type GameOptions struct {
	Width, Height float64
	Presets       *config.Presets // nil uses the embedded defaults
	Sound         sfx.Player
	Logger        *log.Logger
	Seed          uint64 // 0 seeds from the clock
	AutoFire      bool
	// Clock feeds the frame source. nil measures time since creation.
	Clock func() time.Duration
}

// Game is one player's set of systems. Nothing in it is shared, so several
// games can run side by side in one process.
type Game struct {
	scene  *scene.Scene
	fx     *effect.Manager
	loop   *loop.GameLoop
	src    *loop.PumpSource
	vis    *loop.Visibility
	logger *log.Logger

	fpsSeen uint64 // Last FPS sample fed to the overload policy
}

// NewGame builds the particle system, effects, scene and loop.
func NewGame(opts GameOptions) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	presets := opts.Presets
	if presets == nil {
		var err error
		if presets, err = config.DefaultPresets(); err != nil {
			return nil, err
		}
	}
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = config.ViewWidth, config.ViewHeight
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	sysOpts := presets.SystemOptions()
	sysOpts.Logger = logger
	sysOpts.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	sys, err := particle.NewSystem(sysOpts)
	if err != nil {
		return nil, fmt.Errorf("particle system: %w", err)
	}
	fx, err := effect.NewManager(sys, presets, logger)
	if err != nil {
		return nil, fmt.Errorf("effects: %w", err)
	}
	sc, err := scene.New(scene.Options{
		Width:    opts.Width,
		Height:   opts.Height,
		Effects:  fx,
		Sound:    opts.Sound,
		Logger:   logger,
		Rand:     rand.New(rand.NewPCG(seed+1, seed)),
		AutoFire: opts.AutoFire,
	})
	if err != nil {
		return nil, err
	}

	src := loop.NewPumpSource(opts.Clock)
	gl, err := loop.New(src, loop.Config{
		Step:             config.Step,
		MaxFrameTime:     config.MaxFrameTime,
		MaxStepsPerFrame: config.MaxStepsPerFrame,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	vis := loop.NewVisibility()
	gl.Watch(vis)

	return &Game{scene: sc, fx: fx, loop: gl, src: src, vis: vis, logger: logger}, nil
}

// Start runs the loop, rendering the scene into surface. after runs once
// per rendered frame once the surface is complete, for HUDs and flushing.
func (g *Game) Start(surface draw.Surface, after func() error) error {
	render := func(alpha float64) error {
		if fps, seq := g.loop.FPSSample(); seq != g.fpsSeen {
			g.fpsSeen = seq
			g.scene.Throttle(fps)
		}
		if err := g.scene.Render(surface, alpha); err != nil {
			return err
		}
		if after != nil {
			return after()
		}
		return nil
	}
	return g.loop.Start(g.scene.Update, render)
}

// HandleInput applies one host frame of input. The pause key hides the game
// from the loop; other keys are ignored while paused.
func (g *Game) HandleInput(in input.Input) {
	if in.Pause {
		visible := g.vis.Toggle()
		g.logger.Debug("pause", "paused", !visible)
		g.scene.HandleInput(input.Input{Number: -1})
		return
	}
	if !g.vis.Visible() {
		return
	}
	g.scene.HandleInput(in)
}

// SetVisible reports the host display state, e.g. window focus.
func (g *Game) SetVisible(visible bool) {
	g.vis.Set(visible)
}

// Pump delivers one display frame to the loop and returns the error that
// stopped it, if any.
func (g *Game) Pump() error {
	g.src.PumpNow()
	return g.loop.Err()
}

// Paused reports whether the loop is held by the pause key or the host.
func (g *Game) Paused() bool {
	return !g.vis.Visible()
}

// Close stops the loop for good and drops every particle and emitter.
func (g *Game) Close() {
	g.loop.Destroy()
	g.fx.Clear()
}

// Status is the HUD snapshot.
type Status struct {
	Score     int
	Wave      int
	Particles particle.Stats
	FPS       float64
	AutoFire  bool
	Paused    bool
}

// Status returns the current HUD values.
func (g *Game) Status() Status {
	return Status{
		Score:     g.scene.Score(),
		Wave:      g.scene.Wave(),
		Particles: g.fx.Stats(),
		FPS:       g.loop.FPS(),
		AutoFire:  g.scene.AutoFire(),
		Paused:    g.Paused(),
	}
}

// String formats the status line.
func (s Status) String() string {
	line := fmt.Sprintf("SCORE %05d  WAVE %d  FX %d/%d  FPS %2.0f",
		s.Score, s.Wave, s.Particles.Active, s.Particles.Capacity, s.FPS)
	if s.AutoFire {
		line += "  AUTO"
	}
	if s.Paused {
		line += "  PAUSED"
	}
	return line
}
