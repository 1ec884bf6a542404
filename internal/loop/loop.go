// Package loop provides a fixed-timestep game loop driven by a host frame
// source, with render interpolation and visibility-driven pausing.
package loop

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults used when Config leaves a field at zero.
const (
	DefaultStep         = time.Second / 60
	DefaultMaxFrameTime = 100 * time.Millisecond
)

var (
	// ErrMissingCallback is returned by Start when a callback is nil.
	ErrMissingCallback = errors.New("missing loop callback")
	// ErrInvalidConfig is returned by New for negative or inconsistent timing.
	ErrInvalidConfig = errors.New("invalid loop config")
	// ErrDestroyed is returned by Start after Destroy.
	ErrDestroyed = errors.New("loop destroyed")
	// ErrCallbackPanic wraps a panic recovered from a callback.
	ErrCallbackPanic = errors.New("loop callback panicked")
)

// UpdateFunc advances the simulation by one fixed step.
type UpdateFunc func(dt time.Duration) error

// RenderFunc draws a frame. alpha in [0,1) is the fraction of a step that
// has accumulated but not been simulated yet.
type RenderFunc func(alpha float64) error

// Config configures a GameLoop.
type Config struct {
	Step             time.Duration // Fixed simulation step
	MaxFrameTime     time.Duration // Clamp on real time consumed per frame
	MaxStepsPerFrame int           // 0 means no limit beyond MaxFrameTime
	Logger           *log.Logger   // nil discards
}

// GameLoop runs UpdateFunc at a fixed step and RenderFunc once per host
// frame. It is Stopped until Start and returns to Stopped on Stop, on
// Destroy, or when a callback fails.
//
// A GameLoop is not safe for concurrent use; drive it from the goroutine
// that pumps its FrameSource.
type GameLoop struct {
	src      FrameSource
	step     time.Duration
	maxFrame time.Duration
	maxSteps int
	logger   *log.Logger

	update UpdateFunc
	render RenderFunc
	cb     FrameCallback

	running   bool
	destroyed bool
	gen       uint64 // Bumped on every Start so stale frames can tell
	handle    FrameHandle
	last      time.Duration
	acc       time.Duration
	err       error

	unwatch    func()
	resumeShow bool // Stopped by a hide, restart on show

	frames    uint64
	ticks     uint64
	fps       float64
	fpsSeq    uint64
	fpsFrames int
	fpsStart  time.Duration
}

// New creates a stopped loop on src.
func New(src FrameSource, cfg Config) (*GameLoop, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil frame source", ErrInvalidConfig)
	}
	if cfg.Step < 0 || cfg.MaxFrameTime < 0 || cfg.MaxStepsPerFrame < 0 {
		return nil, fmt.Errorf("%w: negative timing %+v", ErrInvalidConfig, cfg)
	}
	if cfg.Step == 0 {
		cfg.Step = DefaultStep
	}
	if cfg.MaxFrameTime == 0 {
		cfg.MaxFrameTime = DefaultMaxFrameTime
	}
	if cfg.MaxFrameTime < cfg.Step {
		return nil, fmt.Errorf("%w: max frame time %v below step %v", ErrInvalidConfig, cfg.MaxFrameTime, cfg.Step)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &GameLoop{
		src:      src,
		step:     cfg.Step,
		maxFrame: cfg.MaxFrameTime,
		maxSteps: cfg.MaxStepsPerFrame,
		logger:   logger,
	}, nil
}

// Start arms the loop and requests the first frame. Starting a running loop
// does nothing.
func (l *GameLoop) Start(update UpdateFunc, render RenderFunc) error {
	if update == nil || render == nil {
		return ErrMissingCallback
	}
	if l.destroyed {
		return ErrDestroyed
	}
	if l.running {
		return nil
	}

	l.update = update
	l.render = render
	l.err = nil
	l.acc = 0
	l.last = l.src.Now()
	l.fpsStart = l.last
	l.fpsFrames = 0
	l.running = true
	l.gen++

	gen := l.gen
	l.cb = func(now time.Duration) { l.frame(gen, now) }
	l.handle = l.src.RequestFrame(l.cb)

	l.logger.Debug("loop started", "step", l.step, "maxFrame", l.maxFrame)
	return nil
}

// Stop clears the running flag. A frame already requested from the source
// observes the flag and returns without ticking.
func (l *GameLoop) Stop() {
	l.resumeShow = false
	l.halt()
}

func (l *GameLoop) halt() {
	if !l.running {
		return
	}
	l.running = false
	l.src.CancelFrame(l.handle)
	l.logger.Debug("loop stopped", "frames", l.frames, "ticks", l.ticks)
}

// Destroy stops the loop, detaches it from any visibility notifier and
// drops the callbacks. A destroyed loop cannot be started again.
func (l *GameLoop) Destroy() {
	l.Stop()
	if l.unwatch != nil {
		l.unwatch()
		l.unwatch = nil
	}
	l.update = nil
	l.render = nil
	l.cb = nil
	l.destroyed = true
}

func (l *GameLoop) frame(gen uint64, now time.Duration) {
	if !l.running || gen != l.gen {
		return
	}

	delta := max(now-l.last, 0)
	l.last = now
	delta = min(delta, l.maxFrame)
	l.acc += delta

	steps := 0
	for l.acc >= l.step {
		if l.maxSteps > 0 && steps == l.maxSteps {
			l.logger.Debug("catch-up limit reached", "steps", steps, "discarded", l.acc-l.acc%l.step)
			l.acc %= l.step
			break
		}
		if err := call(func() error { return l.update(l.step) }); err != nil {
			l.fail(fmt.Errorf("update: %w", err))
			return
		}
		l.acc -= l.step
		l.ticks++
		steps++
		if !l.running || gen != l.gen {
			return
		}
	}

	alpha := float64(l.acc) / float64(l.step)
	if err := call(func() error { return l.render(alpha) }); err != nil {
		l.fail(fmt.Errorf("render: %w", err))
		return
	}
	l.frames++
	l.sampleFPS(now)

	if l.running && gen == l.gen {
		l.handle = l.src.RequestFrame(l.cb)
	}
}

func (l *GameLoop) fail(err error) {
	l.err = err
	l.logger.Error("loop stopped after callback failure", "err", err)
	l.Stop()
}

func (l *GameLoop) sampleFPS(now time.Duration) {
	l.fpsFrames++
	if elapsed := now - l.fpsStart; elapsed >= time.Second {
		l.fps = float64(l.fpsFrames) / elapsed.Seconds()
		l.fpsSeq++
		l.fpsFrames = 0
		l.fpsStart = now
	}
}

// call runs fn and converts a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, r)
		}
	}()
	return fn()
}

// Running reports whether the loop is armed.
func (l *GameLoop) Running() bool { return l.running }

// Err returns the callback failure that stopped the loop, if any. It is
// cleared by the next Start.
func (l *GameLoop) Err() error { return l.err }

// Step returns the fixed simulation step.
func (l *GameLoop) Step() time.Duration { return l.step }

// Frames returns the number of rendered frames.
func (l *GameLoop) Frames() uint64 { return l.frames }

// Ticks returns the number of update calls.
func (l *GameLoop) Ticks() uint64 { return l.ticks }

// FPS returns the render rate measured over the last full second, or 0
// before one second has been observed.
func (l *GameLoop) FPS() float64 { return l.fps }

// FPSSample returns the current FPS reading with a sequence number that
// grows by one each time the reading is refreshed. Callers acting on a
// reading use seq to act on it only once.
func (l *GameLoop) FPSSample() (fps float64, seq uint64) { return l.fps, l.fpsSeq }

// Accumulated returns the unsimulated time carried into the next frame.
func (l *GameLoop) Accumulated() time.Duration { return l.acc }
