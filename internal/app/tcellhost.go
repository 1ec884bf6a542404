package app

import (
	"context"
	"image/color"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw/tcelldraw"
	"github.com/tomz197/invaders-fx/internal/input"
)

// TcellHost runs a game on a tcell screen. tcell owns the terminal, so key
// events are translated back into the byte stream the input package reads.
type TcellHost struct {
	screen  tcell.Screen
	surface *tcelldraw.Surface
	game    *Game
	stream  *input.Stream
	logger  *log.Logger
}

// NewTcellHost creates a host on an initialized screen.
func NewTcellHost(screen tcell.Screen, opts GameOptions) (*TcellHost, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	game, err := NewGame(opts)
	if err != nil {
		return nil, err
	}
	return &TcellHost{
		screen:  screen,
		surface: tcelldraw.New(screen, config.ViewWidth, config.ViewHeight),
		game:    game,
		stream:  input.NewStream(),
		logger:  opts.Logger,
	}, nil
}

// Run polls screen events and pumps frames until quit or ctx ends. The
// caller still owns the screen and must Fini it.
func (h *TcellHost) Run(ctx context.Context) error {
	if err := h.game.Start(h.surface, h.present); err != nil {
		return err
	}
	defer h.game.Close()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(config.Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			h.handleEvent(ev)
			continue
		case <-ticker.C:
		}

		done, err := h.frame()
		if err != nil || done {
			return err
		}
	}
}

func (h *TcellHost) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		h.stream.Push(keyBytes(ev)...)
	case *tcell.EventResize:
		h.surface.Resize()
		h.screen.Sync()
	case *tcell.EventFocus:
		h.game.SetVisible(ev.Focused)
	}
}

func (h *TcellHost) frame() (bool, error) {
	in := input.ReadInput(h.stream)
	if in.Quit {
		return true, nil
	}
	h.game.HandleInput(in)
	if h.game.Paused() {
		h.drawStatus()
		h.surface.Show()
		return false, nil
	}
	return false, h.game.Pump()
}

func (h *TcellHost) present() error {
	h.drawStatus()
	h.surface.Show()
	return nil
}

func (h *TcellHost) drawStatus() {
	h.surface.Text(0, 0, h.game.Status().String(), color.RGBA{R: 200, G: 200, B: 220, A: 255})
}

// keyBytes maps a tcell key event to the bytes a raw terminal would send.
func keyBytes(ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyRune:
		return []byte(string(ev.Rune()))
	case tcell.KeyLeft:
		return []byte("\x1b[D")
	case tcell.KeyRight:
		return []byte("\x1b[C")
	case tcell.KeyCtrlC:
		return []byte{0x03}
	case tcell.KeyEscape:
		return []byte{'q'}
	}
	return nil
}
