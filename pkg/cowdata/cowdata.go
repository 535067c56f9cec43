package cowdata

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// shared is one logically shared buffer: the reference count, the live
// element count, and the element block, allocated as a unit the moment a
// handle grows above size 0.
//
// refs is the only field safe to touch from multiple goroutines. size and
// elems are guarded by the copy-on-write discipline: they are only
// written while refs == 1.
type shared[T any] struct {
	refs  atomic.Uint64
	size  int
	elems []T // len(elems) is the element capacity; indices >= size are not live

	// raw is the allocator block elems aliases on the bit-copyable fast
	// path. Nil when elems is ordinary Go-heap storage (element types
	// with pointers or a non-trivial lifecycle).
	raw   []byte
	alloc Allocator // allocator that owns raw; frees it on the 1->0 transition
}

// Data is a handle: a single owning reference to a shared buffer, or to
// nothing. The zero value is a valid empty handle with trivial element
// semantics (searches need an Equal func; use [New] to get one).
//
// Copy handles with [Data.Copy] or [Data.Ref], never by struct
// assignment: assignment duplicates the reference without counting it.
// Release every handle exactly once.
type Data[T any] struct {
	s     *shared[T]
	ops   Ops[T]
	alloc Allocator // used for future allocations; nil means [Default]
}

// New returns an empty handle for a comparable element type, with Equal
// preset to ==.
func New[T comparable]() Data[T] {
	return NewWithOps(Ops[T]{Equal: func(a, b T) bool { return a == b }})
}

// NewIn is [New] with an explicit allocator.
func NewIn[T comparable](alloc Allocator) Data[T] {
	d := New[T]()
	d.alloc = alloc

	return d
}

// NewWithOps returns an empty handle whose element lifetime and equality
// follow the descriptor.
func NewWithOps[T any](ops Ops[T]) Data[T] {
	return Data[T]{ops: ops}
}

// NewWithOpsIn is [NewWithOps] with an explicit allocator.
func NewWithOpsIn[T any](ops Ops[T], alloc Allocator) Data[T] {
	return Data[T]{ops: ops, alloc: alloc}
}

// allocator resolves the allocator new blocks come from.
func (d *Data[T]) allocator() Allocator {
	if d.alloc != nil {
		return d.alloc
	}

	return Default
}

// Ref makes d reference from's buffer, releasing whatever d held.
//
// The increment is conditional: if it loses a race against the buffer's
// terminal release, d ends up empty instead of resurrecting a buffer
// mid-free. Referencing the buffer d already holds is a no-op.
func (d *Data[T]) Ref(from *Data[T]) {
	if d.s != nil && d.s == from.s {
		return // self-reference
	}

	d.unref()
	d.s = nil
	d.ops = from.ops
	d.alloc = from.alloc

	if from.s == nil {
		return
	}

	if conditionalIncrement(&from.s.refs) {
		d.s = from.s
	}
}

// Copy returns a new handle sharing d's buffer. O(1): one atomic
// increment, no element copies.
func (d *Data[T]) Copy() Data[T] {
	var out Data[T]
	out.Ref(d)

	return out
}

// Release drops d's reference. Whichever handle's release drives the
// count to zero destroys the live elements in index order and frees the
// block. Safe on an empty handle.
func (d *Data[T]) Release() {
	d.unref()
	d.s = nil
}

// unref decrements and, on the 1->0 transition, tears the buffer down.
// This is the only path that frees memory.
func (d *Data[T]) unref() {
	s := d.s
	if s == nil {
		return
	}

	if s.refs.Add(^uint64(0)) > 0 {
		return // still shared
	}

	if d.ops.Destroy != nil {
		for i := 0; i < s.size; i++ {
			d.ops.Destroy(&s.elems[i])
		}
	}

	if s.raw != nil {
		s.alloc.Free(s.raw)
		s.raw = nil
	}

	s.elems = nil
	s.size = 0
}

// conditionalIncrement increments refs unless it is zero. A zero count
// means a terminal release is underway; incrementing would hand out a
// reference to memory about to be freed.
func conditionalIncrement(refs *atomic.Uint64) bool {
	for {
		current := refs.Load()
		if current == 0 {
			return false
		}

		if refs.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// copyOnWrite is the mutation gate: every write path calls it first.
// Post-condition: d is empty, or d.s.refs == 1.
//
// When the buffer is shared it is forked: a new block sized for the
// current element count, populated in index order (bulk copy for trivial
// descriptors, Clone otherwise), then the old reference is dropped. The
// fork is a full O(size) copy; that is the price of O(1) handle copies.
// Returns the reference count the handle holds after the call.
func (d *Data[T]) copyOnWrite() (uint64, error) {
	s := d.s
	if s == nil {
		return 0, nil
	}

	count := s.refs.Load()
	if count <= 1 {
		return count, nil
	}

	fork, err := d.newShared(s.size)
	if err != nil {
		return count, err
	}

	fork.size = s.size

	if d.ops.Clone != nil {
		for i := 0; i < s.size; i++ {
			fork.elems[i] = d.ops.Clone(s.elems[i])
		}
	} else {
		copy(fork.elems[:s.size], s.elems[:s.size])
	}

	d.unref() // others still hold the old buffer; this only decrements
	d.s = fork

	return 1, nil
}

// newShared allocates a buffer header plus an element block sized for n
// elements under the power-of-two rounding policy, with refs == 1 and
// size == 0. The caller populates elements and commits size.
func (d *Data[T]) newShared(n int) (*shared[T], error) {
	elemSize := unsafe.Sizeof(*new(T))

	blockBytes, err := allocBytes(n, elemSize)
	if err != nil {
		return nil, err
	}

	s := &shared[T]{}
	s.refs.Store(1)

	switch {
	case elemSize == 0:
		// Zero-width elements need length bookkeeping only.
		s.elems = make([]T, n)
	case d.ops.trivial() && bitCopyable[T]():
		alloc := d.allocator()

		raw, allocErr := alloc.Alloc(blockBytes)
		if allocErr != nil {
			return nil, fmt.Errorf("allocating %d bytes: %w: %w", blockBytes, allocErr, ErrOutOfMemory)
		}

		s.raw = raw
		s.alloc = alloc
		s.elems = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), blockBytes/int(elemSize))
	default:
		s.elems = make([]T, blockBytes/int(elemSize))
	}

	return s, nil
}
