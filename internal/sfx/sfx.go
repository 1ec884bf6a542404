// Package sfx synthesizes the demo's sound effects and plays them through
// the system speaker.
package sfx

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is the output rate for every effect.
const SampleRate = beep.SampleRate(44100)

// Sound identifies an effect.
type Sound int

const (
	Shot Sound = iota
	Explosion
)

func (s Sound) String() string {
	switch s {
	case Shot:
		return "shot"
	case Explosion:
		return "explosion"
	}
	return fmt.Sprintf("Sound(%d)", int(s))
}

// Player plays sound effects. Play must not block.
type Player interface {
	Play(s Sound)
	Close() error
}

// Nop is a silent Player for hosts without audio.
type Nop struct{}

func (Nop) Play(Sound)   {}
func (Nop) Close() error { return nil }

// Synth builds effect streams.
type Synth struct {
	Rate   beep.SampleRate
	Volume float64 // Linear gain in [0,1]
	rng    *rand.Rand
}

// NewSynth returns a synth with a seeded noise source.
func NewSynth(volume float64, seed uint64) *Synth {
	return &Synth{
		Rate:   SampleRate,
		Volume: math.Max(0, math.Min(1, volume)),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Streamer returns a finite stream for s.
func (sy *Synth) Streamer(s Sound) beep.Streamer {
	var g beep.Streamer
	switch s {
	case Shot:
		g = beep.Take(sy.Rate.N(120*time.Millisecond), &chirp{rate: sy.Rate, from: 1400, to: 300, length: sy.Rate.N(120 * time.Millisecond)})
	default:
		g = beep.Take(sy.Rate.N(450*time.Millisecond), &rumble{rate: sy.Rate, length: sy.Rate.N(450 * time.Millisecond), rng: rand.New(rand.NewPCG(sy.rng.Uint64(), sy.rng.Uint64()))})
	}
	return gain(g, sy.Volume)
}

// gain applies a linear volume with effects.Volume, which works in log2.
func gain(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// chirp is a square wave sweeping from one frequency to another with a
// linear fade.
type chirp struct {
	rate     beep.SampleRate
	from, to float64
	length   int
	pos      int
	phase    float64
}

func (c *chirp) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if c.pos >= c.length {
			return i, i > 0
		}
		t := float64(c.pos) / float64(c.length)
		freq := c.from + (c.to-c.from)*t
		v := 0.25
		if c.phase >= 0.5 {
			v = -0.25
		}
		v *= 1 - t
		samples[i] = [2]float64{v, v}
		c.phase += freq / float64(c.rate)
		c.phase -= math.Floor(c.phase)
		c.pos++
	}
	return len(samples), true
}

func (c *chirp) Err() error { return nil }

// rumble is low-passed noise under a decaying sine, for explosions.
type rumble struct {
	rate   beep.SampleRate
	length int
	pos    int
	lp     float64
	rng    *rand.Rand
}

func (r *rumble) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if r.pos >= r.length {
			return i, i > 0
		}
		t := float64(r.pos) / float64(r.length)
		env := math.Exp(-5 * t)
		r.lp += 0.08 * (r.rng.Float64()*2 - 1 - r.lp)
		tone := math.Sin(2 * math.Pi * 55 * float64(r.pos) / float64(r.rate))
		v := env * (0.6*r.lp*3 + 0.2*tone)
		v = math.Max(-1, math.Min(1, v))
		samples[i] = [2]float64{v, v}
		r.pos++
	}
	return len(samples), true
}

func (r *rumble) Err() error { return nil }

// Speaker plays effects on the default audio device through one mixer.
type Speaker struct {
	mu     sync.Mutex
	synth  *Synth
	mixer  *beep.Mixer
	logger *log.Logger
	closed bool
}

// NewSpeaker opens the audio device.
func NewSpeaker(volume float64, logger *log.Logger) (*Speaker, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	s := &Speaker{
		synth:  NewSynth(volume, uint64(time.Now().UnixNano())),
		mixer:  &beep.Mixer{},
		logger: logger,
	}
	speaker.Play(s.mixer)
	logger.Debug("audio ready", "rate", SampleRate, "volume", volume)
	return s, nil
}

// Play mixes s into the output.
func (s *Speaker) Play(snd Sound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := s.synth.Streamer(snd)
	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// Close silences the mixer. Later Play calls are ignored.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	return nil
}

// Open returns a Speaker when enabled and the device opens, and Nop
// otherwise. Audio failures are logged, never fatal.
func Open(enabled bool, volume float64, logger *log.Logger) Player {
	if !enabled {
		return Nop{}
	}
	s, err := NewSpeaker(volume, logger)
	if err != nil {
		if logger != nil {
			logger.Warn("audio disabled", "err", err)
		}
		return Nop{}
	}
	return s
}
