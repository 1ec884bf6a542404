package app

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/tomz197/invaders-fx/internal/config"
)

// NewLogger returns a logger writing to w at the level named by
// FX_LOG_LEVEL (info by default).
func NewLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if lvl, err := log.ParseLevel(config.GetEnv("FX_LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// OpenLogFile opens FX_LOG_FILE for appending. Without it the returned
// writer discards, which keeps log lines off a terminal the game draws on.
func OpenLogFile() (io.Writer, func() error, error) {
	path := config.GetEnv("FX_LOG_FILE", "")
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}

// PresetsFromEnv loads FX_PRESETS over the embedded defaults.
func PresetsFromEnv() (*config.Presets, error) {
	path := config.GetEnv("FX_PRESETS", "")
	if path == "" {
		return config.DefaultPresets()
	}
	return config.LoadPresets(path)
}

// GameOptionsFromEnv reads presets, FX_SEED and FX_AUTOFIRE.
func GameOptionsFromEnv() (GameOptions, error) {
	presets, err := PresetsFromEnv()
	if err != nil {
		return GameOptions{}, err
	}
	var seed uint64
	if s := config.GetEnv("FX_SEED", ""); s != "" {
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return GameOptions{}, fmt.Errorf("FX_SEED: %w", err)
		}
	}
	return GameOptions{
		Width:    config.ViewWidth,
		Height:   config.ViewHeight,
		Presets:  presets,
		Seed:     seed,
		AutoFire: config.GetEnvBool("FX_AUTOFIRE", false),
	}, nil
}
