package loop

import (
	"sync"
	"time"
)

// FrameCallback receives the host timestamp of a display frame.
type FrameCallback func(now time.Duration)

// FrameHandle identifies a requested frame so it can be cancelled.
type FrameHandle uint64

// FrameSource is the host's frame scheduling primitive. A requested callback
// fires once, on the next frame; CancelFrame is best effort.
type FrameSource interface {
	RequestFrame(cb FrameCallback) FrameHandle
	CancelFrame(h FrameHandle)
	Now() time.Duration
}

type pendingFrame struct {
	handle FrameHandle
	cb     FrameCallback
}

// PumpSource is a FrameSource driven by its host: a terminal ticker, an
// ebiten Draw call or a test calls Pump once per display frame.
type PumpSource struct {
	mu      sync.Mutex
	next    FrameHandle
	pending []pendingFrame
	clock   func() time.Duration
}

// NewPumpSource returns a source whose Now reads clock. A nil clock measures
// monotonic time since creation.
func NewPumpSource(clock func() time.Duration) *PumpSource {
	if clock == nil {
		start := time.Now()
		clock = func() time.Duration { return time.Since(start) }
	}
	return &PumpSource{clock: clock}
}

// RequestFrame queues cb for the next Pump.
func (s *PumpSource) RequestFrame(cb FrameCallback) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending = append(s.pending, pendingFrame{handle: s.next, cb: cb})
	return s.next
}

// CancelFrame drops a queued callback. Unknown handles are ignored.
func (s *PumpSource) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.pending {
		if f.handle == h {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Now returns the source clock.
func (s *PumpSource) Now() time.Duration {
	return s.clock()
}

// Pump delivers every callback queued before the call with the given
// timestamp and returns how many ran. Callbacks requested while pumping
// wait for the next Pump.
func (s *PumpSource) Pump(now time.Duration) int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, f := range batch {
		f.cb(now)
	}
	return len(batch)
}

// PumpNow pumps with the current clock reading.
func (s *PumpSource) PumpNow() int {
	return s.Pump(s.Now())
}

// Pending returns the number of queued callbacks.
func (s *PumpSource) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
