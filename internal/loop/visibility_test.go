package loop

import (
	"testing"
	"time"
)

func TestVisibility_NotifiesOnChange(t *testing.T) {
	v := NewVisibility()
	var got []bool
	unsub := v.Subscribe(func(visible bool) { got = append(got, visible) })

	v.Set(true) // unchanged
	v.Set(false)
	v.Set(false)
	if !v.Toggle() {
		t.Error("toggle from hidden should report visible")
	}

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("expected [false true], got %v", got)
	}

	unsub()
	v.Set(false)
	if len(got) != 2 {
		t.Errorf("unsubscribed callback still called")
	}
	if v.Visible() {
		t.Error("expected hidden")
	}
}

func TestGameLoop_PausesWhileHidden(t *testing.T) {
	h := newHarness(t, Config{})
	vis := NewVisibility()
	h.loop.Watch(vis)
	h.start(t)
	h.advance(DefaultStep)
	h.reset()

	vis.Set(false)
	if h.loop.Running() {
		t.Fatal("loop kept running while hidden")
	}
	h.advance(5 * time.Second)
	if len(h.updates) != 0 {
		t.Fatalf("hidden loop ticked %d times", len(h.updates))
	}

	h.now += 5 * time.Second
	vis.Set(true)
	if !h.loop.Running() {
		t.Fatal("loop did not resume when shown")
	}
	h.advance(20 * time.Millisecond)
	if len(h.updates) != 1 {
		t.Errorf("hidden time was simulated: %d updates", len(h.updates))
	}
}

func TestGameLoop_ExplicitStopNotResumed(t *testing.T) {
	h := newHarness(t, Config{})
	vis := NewVisibility()
	h.loop.Watch(vis)
	h.start(t)

	vis.Set(false)
	h.loop.Stop()
	vis.Set(true)
	if h.loop.Running() {
		t.Error("explicitly stopped loop restarted on show")
	}

	// Hiding a stopped loop must not arm a resume either.
	vis.Set(false)
	vis.Set(true)
	if h.loop.Running() {
		t.Error("stopped loop started by visibility")
	}
}

func TestPumpSource_CancelAndOrder(t *testing.T) {
	src := NewPumpSource(nil)
	var order []int
	src.RequestFrame(func(time.Duration) { order = append(order, 1) })
	h := src.RequestFrame(func(time.Duration) { order = append(order, 2) })
	src.RequestFrame(func(time.Duration) {
		order = append(order, 3)
		src.RequestFrame(func(time.Duration) { order = append(order, 4) })
	})

	src.CancelFrame(h)
	src.CancelFrame(999)
	if n := src.Pump(0); n != 2 {
		t.Fatalf("expected 2 callbacks, got %d", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Fatalf("expected [1 3], got %v", order)
	}
	if src.Pending() != 1 {
		t.Fatalf("frame requested during pump should wait, pending=%d", src.Pending())
	}
	src.PumpNow()
	if len(order) != 3 || order[2] != 4 {
		t.Errorf("expected [1 3 4], got %v", order)
	}
}
