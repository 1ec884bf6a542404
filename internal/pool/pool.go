// Package pool provides a generic object pool that separates construction
// from reuse, so hot paths recycle instances instead of allocating them.
package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by Acquire when no free instance exists and the
	// pool may not grow. Callers are expected to handle it routinely.
	ErrExhausted = errors.New("pool exhausted")

	// ErrNotOwned is returned by Release for an instance that is not checked out.
	ErrNotOwned = errors.New("instance not owned by pool")

	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid pool config")
)

// Config describes how a Pool builds and recycles its instances.
type Config[T any] struct {
	New         func() *T // Constructs a fresh instance (required)
	Reset       func(*T)  // Restores an instance to neutral defaults on release (optional)
	InitialSize int      // Instances built up front
	MaxSize     int      // Upper bound on Total; 0 means InitialSize
	AutoExpand  bool     // Allow lazy growth from InitialSize up to MaxSize
}

// Pool hands out reusable *T instances. Every instance is either free or
// active, never both. Instances are tracked by address, so New must return
// a distinct pointer on every call.
//
// A Pool is not safe for concurrent use.
type Pool[T any] struct {
	newFn      func() *T
	resetFn    func(*T)
	free       []*T
	active     map[*T]struct{}
	maxSize    int
	autoExpand bool
}

// New creates a pool and pre-fills its free list to InitialSize.
func New[T any](cfg Config[T]) (*Pool[T], error) {
	if cfg.New == nil {
		return nil, fmt.Errorf("%w: factory is required", ErrInvalidConfig)
	}
	if cfg.InitialSize < 0 || cfg.MaxSize < 0 {
		return nil, fmt.Errorf("%w: negative size (initial=%d max=%d)", ErrInvalidConfig, cfg.InitialSize, cfg.MaxSize)
	}

	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = cfg.InitialSize
	}
	if maxSize < cfg.InitialSize {
		return nil, fmt.Errorf("%w: max size %d below initial size %d", ErrInvalidConfig, maxSize, cfg.InitialSize)
	}
	if !cfg.AutoExpand {
		// A fixed pool never grows past what it was filled with.
		maxSize = cfg.InitialSize
	}

	p := &Pool[T]{
		newFn:      cfg.New,
		resetFn:    cfg.Reset,
		free:       make([]*T, 0, maxSize),
		active:     make(map[*T]struct{}, maxSize),
		maxSize:    maxSize,
		autoExpand: cfg.AutoExpand,
	}
	for i := 0; i < cfg.InitialSize; i++ {
		p.free = append(p.free, p.newFn())
	}
	return p, nil
}

// Acquire checks out a free instance, constructing one if the pool may grow.
func (p *Pool[T]) Acquire() (*T, error) {
	var obj *T

	if n := len(p.free); n > 0 {
		obj = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else if p.autoExpand && p.Total() < p.maxSize {
		obj = p.newFn()
	} else {
		return nil, ErrExhausted
	}

	p.active[obj] = struct{}{}
	return obj, nil
}

// Release resets obj and returns it to the free list.
func (p *Pool[T]) Release(obj *T) error {
	if _, ok := p.active[obj]; !ok {
		return ErrNotOwned
	}
	delete(p.active, obj)
	if p.resetFn != nil {
		p.resetFn(obj)
	}
	p.free = append(p.free, obj)
	return nil
}

// ReleaseAll returns every active instance to the free list.
func (p *Pool[T]) ReleaseAll() {
	for obj := range p.active {
		delete(p.active, obj)
		if p.resetFn != nil {
			p.resetFn(obj)
		}
		p.free = append(p.free, obj)
	}
}

// Owns reports whether obj is currently checked out.
func (p *Pool[T]) Owns(obj *T) bool {
	_, ok := p.active[obj]
	return ok
}

// Available returns the number of free instances.
func (p *Pool[T]) Available() int {
	return len(p.free)
}

// Active returns the number of checked-out instances.
func (p *Pool[T]) Active() int {
	return len(p.active)
}

// Total returns Available + Active.
func (p *Pool[T]) Total() int {
	return len(p.free) + len(p.active)
}

// Cap returns the maximum number of instances the pool will ever hold.
func (p *Pool[T]) Cap() int {
	return p.maxSize
}

// Dispose drops every reference held by the pool. The pool must not be used
// afterwards.
func (p *Pool[T]) Dispose() {
	clear(p.free)
	p.free = nil
	clear(p.active)
	p.active = nil
}
