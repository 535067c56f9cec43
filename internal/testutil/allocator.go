package testutil

import (
	"errors"
	"sync"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

// ErrInjected is returned by a [FailingAllocator] once its budget runs
// out.
var ErrInjected = errors.New("testutil: injected allocation failure")

// Stats is a snapshot of allocator traffic.
type Stats struct {
	Allocs   int // Alloc calls that succeeded
	Reallocs int // Realloc calls that succeeded
	Frees    int // Free calls
	Live     int // blocks allocated and not yet freed
}

// TrackingAllocator wraps another allocator and counts traffic. Tests use
// it to assert "freed exactly once", "no growth call the second time",
// and the O(log n) reallocation bound.
type TrackingAllocator struct {
	mu    sync.Mutex
	inner cowdata.Allocator
	stats Stats
}

// NewTracking wraps inner (defaulting to [cowdata.Heap] when nil).
func NewTracking(inner cowdata.Allocator) *TrackingAllocator {
	if inner == nil {
		inner = cowdata.Heap{}
	}

	return &TrackingAllocator{inner: inner}
}

// Stats returns a consistent snapshot of the counters.
func (t *TrackingAllocator) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stats
}

// GrowthCalls returns Allocs+Reallocs, the number of operations that
// could have obtained new storage.
func (t *TrackingAllocator) GrowthCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stats.Allocs + t.stats.Reallocs
}

func (t *TrackingAllocator) Alloc(size int) ([]byte, error) {
	buf, err := t.inner.Alloc(size)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.stats.Allocs++
	t.stats.Live++
	t.mu.Unlock()

	return buf, nil
}

func (t *TrackingAllocator) Realloc(buf []byte, size int) ([]byte, error) {
	resized, err := t.inner.Realloc(buf, size)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.stats.Reallocs++
	t.mu.Unlock()

	return resized, nil
}

func (t *TrackingAllocator) Free(buf []byte) {
	t.inner.Free(buf)

	t.mu.Lock()
	t.stats.Frees++
	t.stats.Live--
	t.mu.Unlock()
}

// FailingAllocator delegates to an inner allocator until Budget
// successful Alloc/Realloc calls have happened, then fails every further
// one with [ErrInjected]. Free always works.
type FailingAllocator struct {
	mu     sync.Mutex
	inner  cowdata.Allocator
	budget int
}

// NewFailing returns an allocator that allows budget successful
// allocations (0 fails immediately).
func NewFailing(inner cowdata.Allocator, budget int) *FailingAllocator {
	if inner == nil {
		inner = cowdata.Heap{}
	}

	return &FailingAllocator{inner: inner, budget: budget}
}

func (f *FailingAllocator) spend() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.budget == 0 {
		return false
	}

	f.budget--

	return true
}

func (f *FailingAllocator) Alloc(size int) ([]byte, error) {
	if !f.spend() {
		return nil, ErrInjected
	}

	return f.inner.Alloc(size)
}

func (f *FailingAllocator) Realloc(buf []byte, size int) ([]byte, error) {
	if !f.spend() {
		return nil, ErrInjected
	}

	return f.inner.Realloc(buf, size)
}

func (f *FailingAllocator) Free(buf []byte) {
	f.inner.Free(buf)
}
