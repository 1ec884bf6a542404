package app

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/invaders-fx/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	t.Setenv("FX_LOG_LEVEL", "warn")
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected log output %q", buf.String())
	}
	if logger.GetLevel() != log.WarnLevel {
		t.Errorf("expected warn level, got %v", logger.GetLevel())
	}
}

func TestOpenLogFile(t *testing.T) {
	t.Setenv("FX_LOG_FILE", "")
	w, closeFn, err := OpenLogFile()
	if err != nil || w != io.Discard {
		t.Fatalf("expected discard writer, got %v %v", w, err)
	}
	_ = closeFn()

	path := filepath.Join(t.TempDir(), "fx.log")
	t.Setenv("FX_LOG_FILE", path)
	w, closeFn, err = OpenLogFile()
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(w, "line\n")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "line\n" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestGameOptionsFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("effects:\n  explosion:\n    pattern: radial\n    count: 5\n    lifetime_ms: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FX_PRESETS", path)
	t.Setenv("FX_SEED", "99")
	t.Setenv("FX_AUTOFIRE", "true")

	opts, err := GameOptionsFromEnv()
	if err != nil {
		t.Fatalf("GameOptionsFromEnv: %v", err)
	}
	if opts.Seed != 99 || !opts.AutoFire {
		t.Errorf("unexpected options %+v", opts)
	}
	if e, _ := opts.Presets.Effect("explosion"); e.Count != 5 {
		t.Errorf("override not applied, count %d", e.Count)
	}
	if _, err := opts.Presets.Effect("thrust"); err != nil {
		t.Errorf("defaults lost: %v", err)
	}

	t.Setenv("FX_SEED", "nope")
	if _, err := GameOptionsFromEnv(); err == nil {
		t.Error("expected an error for a bad seed")
	}

	t.Setenv("FX_SEED", "")
	t.Setenv("FX_PRESETS", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := GameOptionsFromEnv(); err == nil || errors.Is(err, config.ErrInvalidPreset) {
		t.Errorf("expected a file error, got %v", err)
	}
}
