// Package input turns raw terminal bytes into per-frame key state.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a movement key counts as held after its last
// byte. Terminals only report repeats, not releases.
const keyHoldDuration = 60 * time.Millisecond

// Input is one frame's input. Movement keys are level-triggered (held);
// the rest are edge-triggered and true only on the frame their byte arrived.
type Input struct {
	Left  bool
	Right bool
	Fire  bool

	Quit     bool
	Pause    bool
	Burst    bool
	AutoFire bool
	Number   int // Digit pressed this frame, or -1

	Pressed []byte // Raw bytes read this frame
	Closed  bool   // The underlying reader reached EOF or failed
}

// Any reports whether any byte arrived this frame.
func (in Input) Any() bool {
	return len(in.Pressed) > 0
}

// keyState tracks the last time each held key was seen.
type keyState struct {
	left  time.Time
	right time.Time
	fire  time.Time
}

// Stream delivers input bytes via a channel and tracks held keys.
type Stream struct {
	ch     chan byte
	state  keyState
	closed bool
	now    func() time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch:  make(chan byte, 128),
		now: time.Now,
	}
	go func() {
		defer close(s.ch)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// NewStream returns a stream fed with Push instead of a reader, for hosts
// that receive key events rather than bytes.
func NewStream() *Stream {
	return &Stream{
		ch:  make(chan byte, 128),
		now: time.Now,
	}
}

// Push queues bytes for the next ReadInput. Bytes that do not fit in the
// buffer are dropped.
func (s *Stream) Push(data ...byte) {
	for _, b := range data {
		select {
		case s.ch <- b:
		default:
			return
		}
	}
}

// ReadInput drains all available bytes from the stream without blocking.
func ReadInput(s *Stream) Input {
	now := s.now()
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := Input{Number: -1, Pressed: buf, Closed: s.closed}
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI arrow keys: ESC [ C / ESC [ D
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'C':
				s.state.right = now
				i += 2
				continue
			case 'D':
				s.state.left = now
				i += 2
				continue
			case 'A', 'B':
				i += 2
				continue
			}
		}
		applyByte(&s.state, &in, b, now)
	}

	in.Left = now.Sub(s.state.left) < keyHoldDuration
	in.Right = now.Sub(s.state.right) < keyHoldDuration
	in.Fire = now.Sub(s.state.fire) < keyHoldDuration
	if in.Closed {
		in.Quit = true
	}
	return in
}

// ResetKeyInput forgets held keys, so a key pressed on a previous screen
// does not carry into the next one.
func ResetKeyInput(s *Stream) {
	s.state = keyState{}
}

func applyByte(state *keyState, in *Input, b byte, now time.Time) {
	switch b {
	case 'q', 'Q', 0x03: // 0x03 is Ctrl-C in raw mode
		in.Quit = true
	case 'a', 'A', 'h', 'H':
		state.left = now
	case 'd', 'D', 'l', 'L':
		state.right = now
	case ' ':
		state.fire = now
	case 'p', 'P':
		in.Pause = true
	case 'b', 'B':
		in.Burst = true
	case 'f', 'F':
		in.AutoFire = true
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		in.Number = int(b - '0')
	}
}
