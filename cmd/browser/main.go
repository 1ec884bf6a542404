// Command browser runs the demo in an ebiten window. Built with
// GOOS=js GOARCH=wasm it runs in the page served by cmd/web.
package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tomz197/invaders-fx/internal/app"
	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw/ebitendraw"
	"github.com/tomz197/invaders-fx/internal/input"
	"github.com/tomz197/invaders-fx/internal/sfx"
)

// pixelsPerUnit maps the logical view onto the window.
const pixelsPerUnit = 8

var numberKeys = []ebiten.Key{
	ebiten.Key0, ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

type browserGame struct {
	game    *app.Game
	surface *ebitendraw.Surface
	logger  *log.Logger
	err     error
}

func (g *browserGame) Update() error {
	if g.err != nil {
		return g.err
	}
	g.game.SetVisible(ebiten.IsFocused())

	in := readKeys()
	if in.Quit {
		return ebiten.Termination
	}
	g.game.HandleInput(in)
	return nil
}

func (g *browserGame) Draw(screen *ebiten.Image) {
	g.surface.SetTarget(screen)
	if g.game.Paused() {
		ebitenutil.DebugPrint(screen, g.game.Status().String())
		return
	}
	if err := g.game.Pump(); err != nil && g.err == nil {
		g.logger.Error("loop stopped", "err", err)
		g.err = err
	}
}

func (g *browserGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.ViewWidth * pixelsPerUnit, config.ViewHeight * pixelsPerUnit
}

// readKeys maps ebiten key state onto the terminal input model: movement is
// held, everything else fires on the frame the key goes down.
func readKeys() input.Input {
	pressed := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				return true
			}
		}
		return false
	}
	just := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if inpututil.IsKeyJustPressed(k) {
				return true
			}
		}
		return false
	}

	in := input.Input{
		Left:     pressed(ebiten.KeyArrowLeft, ebiten.KeyA, ebiten.KeyH),
		Right:    pressed(ebiten.KeyArrowRight, ebiten.KeyD, ebiten.KeyL),
		Fire:     pressed(ebiten.KeySpace),
		Quit:     just(ebiten.KeyQ, ebiten.KeyEscape),
		Pause:    just(ebiten.KeyP),
		Burst:    just(ebiten.KeyB),
		AutoFire: just(ebiten.KeyF),
		Number:   -1,
	}
	for n, k := range numberKeys {
		if inpututil.IsKeyJustPressed(k) {
			in.Number = n
		}
	}
	return in
}

func main() {
	logger := app.NewLogger(os.Stderr, "browser")
	if err := run(logger); err != nil {
		logger.Error("game error", "err", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	opts, err := app.GameOptionsFromEnv()
	if err != nil {
		return err
	}
	opts.Logger = logger
	sound := sfx.Open(config.GetEnvBool("FX_SOUND", true), 0.5, logger)
	defer sound.Close()
	opts.Sound = sound

	game, err := app.NewGame(opts)
	if err != nil {
		return err
	}
	defer game.Close()

	bg := &browserGame{
		game:    game,
		surface: ebitendraw.New(config.ViewWidth, config.ViewHeight),
		logger:  logger,
	}
	hud := func() error {
		ebitenutil.DebugPrint(bg.surface.Target(), game.Status().String())
		return nil
	}
	if err := game.Start(bg.surface, hud); err != nil {
		return err
	}

	ebiten.SetWindowSize(config.ViewWidth*pixelsPerUnit, config.ViewHeight*pixelsPerUnit)
	ebiten.SetWindowTitle("invaders-fx")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// Frames skipped while paused keep the last image on screen.
	ebiten.SetScreenClearedEveryFrame(false)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(bg); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
