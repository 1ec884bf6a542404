package loop

import "sync"

// VisibilityNotifier reports when the host display is hidden or shown.
// Subscribe returns a function that removes the subscription.
type VisibilityNotifier interface {
	Subscribe(fn func(visible bool)) (unsubscribe func())
}

// Visibility is an in-process VisibilityNotifier. Terminal hosts flip it
// from the pause key; the ebiten host flips it on focus changes.
type Visibility struct {
	mu      sync.Mutex
	visible bool
	next    int
	subs    []visibilitySub
}

type visibilitySub struct {
	id int
	fn func(bool)
}

// NewVisibility returns a notifier in the visible state.
func NewVisibility() *Visibility {
	return &Visibility{visible: true}
}

// Subscribe registers fn for future changes.
func (v *Visibility) Subscribe(fn func(visible bool)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.next++
	id := v.next
	v.subs = append(v.subs, visibilitySub{id: id, fn: fn})
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, s := range v.subs {
			if s.id == id {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				return
			}
		}
	}
}

// Set changes the state and notifies subscribers in subscription order.
// Setting the current state again does nothing.
func (v *Visibility) Set(visible bool) {
	v.mu.Lock()
	if v.visible == visible {
		v.mu.Unlock()
		return
	}
	v.visible = visible
	subs := make([]visibilitySub, len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(visible)
	}
}

// Toggle flips the state and returns the new one.
func (v *Visibility) Toggle() bool {
	v.mu.Lock()
	next := !v.visible
	v.mu.Unlock()
	v.Set(next)
	return next
}

// Visible reports the current state.
func (v *Visibility) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

// Watch stops the loop when n reports hidden and restarts it with the same
// callbacks when n reports visible again. Time spent hidden is not
// simulated. Watching a new notifier replaces the previous one.
func (l *GameLoop) Watch(n VisibilityNotifier) {
	if l.unwatch != nil {
		l.unwatch()
	}
	l.unwatch = n.Subscribe(l.visibilityChanged)
}

func (l *GameLoop) visibilityChanged(visible bool) {
	if !visible {
		if l.running {
			l.halt()
			l.resumeShow = true
			l.logger.Debug("loop paused while hidden")
		}
		return
	}
	if !l.resumeShow || l.destroyed {
		return
	}
	l.resumeShow = false
	if err := l.Start(l.update, l.render); err != nil {
		l.logger.Error("resume loop", "err", err)
	}
}
