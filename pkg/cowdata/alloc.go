package cowdata

import (
	"fmt"
	"unsafe"
)

// Allocator is the heap collaborator cowdata allocates element blocks
// from. All methods operate on one raw block at a time. Alloc and Realloc
// may fail; cowdata surfaces failures as [ErrOutOfMemory] and never
// retries.
//
// Blocks handed out must be aligned to at least [BlockAlign] bytes so the
// bit-copyable fast path can alias them as typed element storage. The
// contents of a fresh or grown block are unspecified unless the
// implementation documents otherwise.
type Allocator interface {
	// Alloc returns a new block of exactly size bytes.
	Alloc(size int) ([]byte, error)

	// Realloc resizes a block previously returned by Alloc or Realloc,
	// preserving the leading min(len(buf), size) bytes. The returned block
	// may or may not share backing memory with buf; the caller must use
	// only the returned slice afterwards.
	Realloc(buf []byte, size int) ([]byte, error)

	// Free releases a block. Must accept any block previously returned by
	// Alloc or Realloc.
	Free(buf []byte)
}

// BlockAlign is the minimum alignment of allocator blocks. 8 bytes covers
// every alignment the Go ABI can require of an element type.
const BlockAlign = 8

// Heap is an [Allocator] backed by the Go runtime. Free is a no-op (the
// garbage collector reclaims blocks); Realloc reslices in place when the
// existing block is large enough, exposing whatever bytes the block held
// before it was shrunk.
type Heap struct{}

// Default is the allocator used by handles that were not given one
// explicitly.
var Default Allocator = Heap{}

// Alloc returns a zeroed block of exactly size bytes, shifted to
// [BlockAlign] alignment.
func (Heap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("alloc size %d is negative: %w", size, ErrInvalidParameter)
	}

	// Over-allocate and shift so the block start is aligned even when the
	// runtime hands back a tiny, byte-aligned allocation.
	buf := make([]byte, size+BlockAlign)

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	shift := 0
	if rem := addr % BlockAlign; rem != 0 {
		shift = int(BlockAlign - rem)
	}

	return buf[shift : shift+size : shift+size], nil
}

// Realloc grows or shrinks a block. Shrinking (and re-growing within the
// block's capacity) reslices without copying, so the tail bytes keep their
// previous contents.
func (h Heap) Realloc(buf []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("realloc size %d is negative: %w", size, ErrInvalidParameter)
	}

	if size <= cap(buf) {
		return buf[:size], nil
	}

	grown, err := h.Alloc(size)
	if err != nil {
		return nil, err
	}

	copy(grown, buf)

	return grown, nil
}

// Free is a no-op; the garbage collector owns Heap blocks.
func (Heap) Free([]byte) {}
