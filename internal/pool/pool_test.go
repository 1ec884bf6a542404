package pool

import (
	"errors"
	"testing"
)

type item struct {
	id    int
	value int
	tag   string
}

func newItemPool(t *testing.T, initial, max int, expand bool) (*Pool[item], *int) {
	t.Helper()
	built := 0
	p, err := New(Config[item]{
		New: func() *item {
			built++
			return &item{id: built}
		},
		Reset: func(it *item) {
			it.value = 0
			it.tag = ""
		},
		InitialSize: initial,
		MaxSize:     max,
		AutoExpand:  expand,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, &built
}

func checkConservation(t *testing.T, p *Pool[item]) {
	t.Helper()
	if p.Active()+p.Available() != p.Total() {
		t.Fatalf("active %d + available %d != total %d", p.Active(), p.Available(), p.Total())
	}
}

func TestNew_Prefills(t *testing.T) {
	p, built := newItemPool(t, 5, 20, true)
	if *built != 5 {
		t.Errorf("expected 5 instances built up front, got %d", *built)
	}
	if p.Available() != 5 || p.Active() != 0 || p.Total() != 5 {
		t.Errorf("unexpected counts: available=%d active=%d total=%d", p.Available(), p.Active(), p.Total())
	}
	if p.Cap() != 20 {
		t.Errorf("expected cap 20, got %d", p.Cap())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config[item]
	}{
		{"missing factory", Config[item]{InitialSize: 1}},
		{"negative initial", Config[item]{New: func() *item { return &item{} }, InitialSize: -1}},
		{"max below initial", Config[item]{New: func() *item { return &item{} }, InitialSize: 10, MaxSize: 5, AutoExpand: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestAcquire_FixedPoolExhausts(t *testing.T) {
	p, _ := newItemPool(t, 10, 10, false)

	for i := 0; i < 10; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
		checkConservation(t, p)
	}

	if _, err := p.Acquire(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("11th acquire: expected ErrExhausted, got %v", err)
	}
	if p.Total() != 10 {
		t.Errorf("exhausted pool must not grow, total=%d", p.Total())
	}
}

func TestAcquire_AutoExpandStopsAtMax(t *testing.T) {
	p, built := newItemPool(t, 2, 4, true)

	for i := 0; i < 4; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if *built != 4 {
		t.Errorf("expected lazy growth to 4 instances, built %d", *built)
	}
	if _, err := p.Acquire(); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted at max size, got %v", err)
	}
}

func TestAcquire_NeverReturnsActiveInstance(t *testing.T) {
	p, _ := newItemPool(t, 3, 8, true)
	seen := make(map[*item]bool)

	for i := 0; i < 8; i++ {
		it, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if seen[it] {
			t.Fatalf("instance %d handed out twice", it.id)
		}
		seen[it] = true
	}
}

func TestRelease_NotOwned(t *testing.T) {
	p, _ := newItemPool(t, 1, 1, false)

	if err := p.Release(&item{}); !errors.Is(err, ErrNotOwned) {
		t.Errorf("foreign instance: expected ErrNotOwned, got %v", err)
	}

	it, _ := p.Acquire()
	if err := p.Release(it); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := p.Release(it); !errors.Is(err, ErrNotOwned) {
		t.Errorf("double release: expected ErrNotOwned, got %v", err)
	}
	checkConservation(t, p)
}

func TestRelease_ResetsState(t *testing.T) {
	p, _ := newItemPool(t, 1, 1, false)

	it, _ := p.Acquire()
	it.value = 42
	it.tag = "stale"
	if err := p.Release(it); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, _ := p.Acquire()
	if again != it {
		t.Fatalf("expected the single instance to be reused")
	}
	if again.value != 0 || again.tag != "" {
		t.Errorf("reacquired instance carries stale state: %+v", *again)
	}
}

func TestReleaseAll(t *testing.T) {
	p, _ := newItemPool(t, 4, 4, false)
	for i := 0; i < 3; i++ {
		it, _ := p.Acquire()
		it.value = i + 1
	}

	p.ReleaseAll()

	if p.Active() != 0 || p.Available() != 4 {
		t.Errorf("after ReleaseAll: active=%d available=%d", p.Active(), p.Available())
	}
	for i := 0; i < 4; i++ {
		it, _ := p.Acquire()
		if it.value != 0 {
			t.Errorf("instance %d not reset by ReleaseAll", it.id)
		}
	}
}

func TestConservation_MixedSequence(t *testing.T) {
	p, _ := newItemPool(t, 2, 16, true)
	var held []*item

	ops := "aaararaaarrraaaaarrrrrra"
	for _, op := range ops {
		switch op {
		case 'a':
			it, err := p.Acquire()
			if err != nil {
				t.Fatalf("acquire: %v", err)
			}
			held = append(held, it)
		case 'r':
			if len(held) == 0 {
				continue
			}
			if err := p.Release(held[0]); err != nil {
				t.Fatalf("release: %v", err)
			}
			held = held[1:]
		}
		checkConservation(t, p)
		if p.Active() != len(held) {
			t.Fatalf("active %d, held %d", p.Active(), len(held))
		}
	}
}

func TestOwns(t *testing.T) {
	p, _ := newItemPool(t, 1, 1, false)
	it, _ := p.Acquire()
	if !p.Owns(it) {
		t.Error("expected acquired instance to be owned")
	}
	_ = p.Release(it)
	if p.Owns(it) {
		t.Error("released instance must not be owned")
	}
}

func TestDispose(t *testing.T) {
	p, _ := newItemPool(t, 3, 3, false)
	_, _ = p.Acquire()

	p.Dispose()

	if p.Total() != 0 || p.Active() != 0 || p.Available() != 0 {
		t.Errorf("dispose left references: available=%d active=%d", p.Available(), p.Active())
	}
}

func BenchmarkAcquireRelease(b *testing.B) {
	p, err := New(Config[item]{
		New:         func() *item { return &item{} },
		Reset:       func(it *item) { *it = item{} },
		InitialSize: 1024,
	})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it, _ := p.Acquire()
		_ = p.Release(it)
	}
}

func TestPool_EqualValuesStayDistinct(t *testing.T) {
	p, err := New(Config[item]{
		New:         func() *item { return &item{} },
		InitialSize: 4,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out []*item
	for range 4 {
		it, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		out = append(out, it)
	}
	if p.Active() != 4 || p.Total() != 4 {
		t.Fatalf("equal instances collapsed: active=%d total=%d", p.Active(), p.Total())
	}
	for _, it := range out {
		if err := p.Release(it); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
	if p.Available() != 4 || p.Active() != 0 {
		t.Errorf("unexpected counts after release: available=%d active=%d", p.Available(), p.Active())
	}
}
