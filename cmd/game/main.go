package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/tomz197/invaders-fx/internal/app"
	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/sfx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logOut, closeLog, err := app.OpenLogFile()
	if err != nil {
		return err
	}
	defer closeLog()
	logger := app.NewLogger(logOut, "game")

	opts, err := app.GameOptionsFromEnv()
	if err != nil {
		return err
	}
	opts.Logger = logger
	sound := sfx.Open(config.GetEnvBool("FX_SOUND", false), 0.5, logger)
	defer sound.Close()
	opts.Sound = sound

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch backend := config.GetEnv("FX_BACKEND", "ansi"); backend {
	case "ansi":
		return runANSI(ctx, opts)
	case "tcell":
		return runTcell(ctx, opts)
	default:
		return fmt.Errorf("unknown FX_BACKEND %q (want ansi or tcell)", backend)
	}
}

func runANSI(ctx context.Context, opts app.GameOptions) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	s, err := app.NewSession(bufio.NewReader(os.Stdin), os.Stdout, app.SessionOptions{
		Logger: opts.Logger,
		Game:   opts,
	})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

func runTcell(ctx context.Context, opts app.GameOptions) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableFocus()
	screen.HideCursor()

	h, err := app.NewTcellHost(screen, opts)
	if err != nil {
		return err
	}
	return h.Run(ctx)
}
