package main

import (
	"testing"
	"time"
)

func TestRegistry_ShutdownWithoutSessions(t *testing.T) {
	r := newRegistry()
	if !r.shutdown(10 * time.Millisecond) {
		t.Error("empty registry should shut down at once")
	}
}

func TestSizeTracker(t *testing.T) {
	s := newSizeTracker(80, 24)
	s.update(120, 40)
	w, h, err := s.getSize()
	if err != nil || w != 120 || h != 40 {
		t.Errorf("getSize() = %d, %d, %v", w, h, err)
	}
}
