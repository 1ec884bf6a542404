package app

import (
	"bufio"
	"context"
	"fmt"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
	"github.com/tomz197/invaders-fx/internal/input"
	"github.com/tomz197/invaders-fx/internal/sfx"
)

var hudColor = color.RGBA{R: 200, G: 200, B: 220, A: 255}

// SessionOptions configures a terminal session.
type SessionOptions struct {
	TermSizeFunc draw.TermSizeFunc
	User         string
	Logger       *log.Logger
	Game         GameOptions
}

// Session runs one game on an ANSI terminal: a local tty or an SSH
// channel. Each session owns its game; sessions share nothing.
type Session struct {
	ID uuid.UUID

	game        *Game
	canvas      *draw.Canvas
	chunkWriter *draw.ChunkWriter
	writer      io.Writer
	inputStream *input.Stream
	termSize    draw.TermSizeFunc
	logger      *log.Logger
	now         func() time.Time

	lastInput   time.Time
	inactive    bool
	overlay     overlay // What was drawn last frame
	shutdownCh  chan struct{}
	shutdownOne sync.Once
	shutdownAt  time.Time
}

type overlay int

const (
	overlayNone overlay = iota
	overlayPaused
	overlayInactive
	overlayShutdown
)

// NewSession creates a session reading keys from r and drawing to w.
func NewSession(r *bufio.Reader, w io.Writer, opts SessionOptions) (*Session, error) {
	termSize := opts.TermSizeFunc
	if termSize == nil {
		termSize = draw.DefaultTermSizeFunc
	}
	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("session", id.String()[:8])
	if opts.User != "" {
		logger = logger.With("user", opts.User)
	}

	gameOpts := opts.Game
	gameOpts.Logger = logger
	if gameOpts.Sound == nil {
		gameOpts.Sound = sfx.Nop{}
	}
	game, err := NewGame(gameOpts)
	if err != nil {
		return nil, err
	}

	termWidth, termHeight, err := termSize()
	if err != nil {
		termWidth, termHeight = config.ViewWidth, config.ViewHeight/2
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	return &Session{
		ID:          id,
		game:        game,
		canvas:      canvas,
		chunkWriter: draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:      w,
		inputStream: input.StartStream(r),
		termSize:    termSize,
		logger:      logger,
		now:         time.Now,
		lastInput:   time.Now(),
		shutdownCh:  make(chan struct{}),
	}, nil
}

// Run drives the session at the target frame rate until the player quits,
// goes idle, ctx ends or a shutdown notice runs out.
func (s *Session) Run(ctx context.Context) error {
	draw.HideCursor(s.writer)
	defer draw.ShowCursor(s.writer)
	draw.ClearScreen(s.writer)
	s.logger.Info("session started")

	if err := s.game.Start(s.canvas, s.present); err != nil {
		return err
	}
	defer s.game.Close()

	ticker := time.NewTicker(config.Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session cancelled")
			draw.ClearScreen(s.writer)
			return nil
		case <-ticker.C:
		}

		done, err := s.tick()
		if err != nil {
			s.logger.Error("session failed", "err", err)
			draw.ClearScreen(s.writer)
			return err
		}
		if done {
			break
		}
	}

	st := s.game.Status()
	s.logger.Info("session ended", "score", st.Score, "wave", st.Wave)
	draw.ClearScreen(s.writer)
	return nil
}

// Shutdown shows a notice and ends the session after config.ShutdownDisplay.
// It is safe to call from any goroutine.
func (s *Session) Shutdown() {
	s.shutdownOne.Do(func() { close(s.shutdownCh) })
}

// tick runs one host frame and reports whether the session is over.
func (s *Session) tick() (bool, error) {
	now := s.now()

	in := input.ReadInput(s.inputStream)
	if in.Quit {
		return true, nil
	}
	idle := now.Sub(s.lastInput)
	switch {
	case in.Any():
		s.lastInput = now
		s.inactive = false
	case idle > config.InactivityDisconnectUser:
		s.logger.Info("disconnecting idle session", "idle", idle.Round(time.Second))
		return true, nil
	case idle > config.InactivityWarnUser:
		s.inactive = true
	}

	select {
	case <-s.shutdownCh:
		if s.shutdownAt.IsZero() {
			s.shutdownAt = now.Add(config.ShutdownDisplay)
		}
	default:
	}
	if !s.shutdownAt.IsZero() && !now.Before(s.shutdownAt) {
		return true, nil
	}

	s.updateScreen()
	s.game.HandleInput(in)

	if s.game.Paused() {
		// The loop does not render while paused; draw the notice here.
		s.drawOverlay()
		return false, s.chunkWriter.Flush()
	}
	return false, s.game.Pump()
}

// present runs after the scene has been drawn into the canvas.
func (s *Session) present() error {
	s.drawOverlay()
	s.canvas.Render(s.chunkWriter)
	s.drawHUD()
	s.drawNotice()
	return s.chunkWriter.Flush()
}

// drawOverlay clears the terminal when the overlay changes so stale text
// does not linger under the diffed canvas.
func (s *Session) drawOverlay() {
	next := s.currentOverlay()
	if next != s.overlay {
		s.chunkWriter.WriteString("\033[H\033[2J")
		s.canvas.ForceRedraw()
		s.overlay = next
	}
	if next == overlayPaused {
		s.drawHUD()
		s.drawNotice()
	}
}

func (s *Session) currentOverlay() overlay {
	switch {
	case !s.shutdownAt.IsZero():
		return overlayShutdown
	case s.inactive:
		return overlayInactive
	case s.game.Paused():
		return overlayPaused
	}
	return overlayNone
}

func (s *Session) drawHUD() {
	line := s.game.Status().String()
	width := s.canvas.TerminalWidth()
	if len(line) < width {
		line = fmt.Sprintf("%-*s", width, line)
	} else {
		line = line[:width]
	}
	s.chunkWriter.WriteAtColor(1, 1, line, hudColor)
}

func (s *Session) drawNotice() {
	var lines []string
	switch s.overlay {
	case overlayShutdown:
		left := max(s.shutdownAt.Sub(s.now()), 0)
		lines = []string{
			"SERVER SHUTTING DOWN",
			fmt.Sprintf("Disconnecting in %d seconds", int(left.Seconds())),
		}
	case overlayInactive:
		left := config.InactivityDisconnectUser - s.now().Sub(s.lastInput)
		lines = []string{
			"INACTIVITY WARNING",
			fmt.Sprintf("You will be disconnected in %d seconds.", int(left.Seconds())),
			"Press any key to continue",
		}
	case overlayPaused:
		lines = []string{
			"PAUSED",
			"P resume  B burst  0-9 sized burst  F auto fire  Q quit",
		}
	default:
		return
	}

	centerX := s.canvas.TerminalWidth()/2 + 1
	centerY := s.canvas.TerminalHeight()/2 + 1
	for i, line := range lines {
		s.chunkWriter.WriteAt(centerX-len(line)/2, centerY-len(lines)+i*2, line)
	}
}

// updateScreen handles terminal resize, clamping to the max render area.
func (s *Session) updateScreen() {
	termWidth, termHeight, err := s.termSize()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != s.canvas.TerminalWidth() || renderHeight != s.canvas.TerminalHeight() ||
		offsetCol != s.canvas.OffsetCol() || offsetRow != s.canvas.OffsetRow() {
		draw.ClearScreen(s.writer)
		s.canvas.ForceRedraw()
	}

	s.canvas.Resize(renderWidth, renderHeight)
	s.canvas.SetOffset(offsetCol, offsetRow)
	s.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and
// computes the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(max(termWidth, 1), config.MaxTermWidth)
	renderHeight = min(max(termHeight, 1), config.MaxTermHeight)
	offsetCol = max(termWidth-renderWidth, 0) / 2
	offsetRow = max(termHeight-renderHeight, 0) / 2
	return
}
