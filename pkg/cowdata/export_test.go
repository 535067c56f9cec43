package cowdata

// Export internal state for testing.
// This file is only compiled during tests.

// RefCountForTesting returns the shared buffer's reference count, or 0
// for an empty handle.
func (d *Data[T]) RefCountForTesting() uint64 {
	if d.s == nil {
		return 0
	}

	return d.s.refs.Load()
}

// BeginTerminalReleaseForTesting drives the reference count to zero, as
// if a terminal release on another goroutine had already started tearing
// the buffer down, without freeing it. The handle must not be used for
// anything but Ref/Copy races afterwards.
func (d *Data[T]) BeginTerminalReleaseForTesting() {
	if d.s != nil {
		d.s.refs.Store(0)
	}
}

// SharesBufferForTesting reports whether two handles reference the same
// shared buffer.
func (d *Data[T]) SharesBufferForTesting(other *Data[T]) bool {
	return d.s != nil && d.s == other.s
}

// UsesRawStorageForTesting reports whether the handle's buffer took the
// bit-copyable fast path (elements aliased on a raw allocator block).
func (d *Data[T]) UsesRawStorageForTesting() bool {
	return d.s != nil && d.s.raw != nil
}

// CapacityForTesting returns the element capacity of the current block.
func (d *Data[T]) CapacityForTesting() int {
	if d.s == nil {
		return 0
	}

	return len(d.s.elems)
}

// NextPow2ForTesting exposes the rounding policy.
func NextPow2ForTesting(x uint64) uint64 {
	return nextPow2(x)
}

// AllocBytesForTesting exposes the overflow-checked allocation sizing.
func AllocBytesForTesting(n int, elemSize uintptr) (int, error) {
	return allocBytes(n, elemSize)
}
