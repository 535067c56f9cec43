package cowdata

import (
	"fmt"
	"unsafe"
)

// Resize grows or shrinks the buffer to n live elements.
//
// New slots added by a grow are default-constructed when the descriptor
// has Construct; otherwise their contents are unspecified. Callers that
// need zeroed slots must use [Data.ResizeZeroed].
//
// Resizing to 0 releases the buffer entirely, whatever its reference
// count; the canonical empty form is "no allocation".
func (d *Data[T]) Resize(n int) error {
	return d.resize(n, false)
}

// ResizeZeroed is [Data.Resize] with the guarantee that slots added by a
// grow read as the element type's zero value.
func (d *Data[T]) ResizeZeroed(n int) error {
	return d.resize(n, true)
}

func (d *Data[T]) resize(n int, zeroFill bool) error {
	if n < 0 {
		return fmt.Errorf("resize to %d: %w", n, ErrInvalidParameter)
	}

	current := d.Len()
	if n == current {
		return nil
	}

	if n == 0 {
		// An empty result needs no exclusive copy, so this path skips the
		// mutation gate.
		d.unref()
		d.s = nil

		return nil
	}

	// Any other resize is a mutation.
	if _, err := d.copyOnWrite(); err != nil {
		return err
	}

	elemSize := unsafe.Sizeof(*new(T))

	currentAlloc, err := allocBytes(current, elemSize)
	if err != nil {
		return err
	}

	newAlloc, err := allocBytes(n, elemSize)
	if err != nil {
		return err
	}

	if n > current {
		return d.grow(n, newAlloc, currentAlloc, elemSize, zeroFill)
	}

	return d.shrink(n, newAlloc, currentAlloc, elemSize)
}

// grow extends storage to hold n elements, then initializes the added
// slots [current, n) and commits the new size last.
func (d *Data[T]) grow(n, newAlloc, currentAlloc int, elemSize uintptr, zeroFill bool) error {
	if d.s == nil {
		fresh, err := d.newShared(n)
		if err != nil {
			return err
		}

		d.s = fresh
	} else if newAlloc != currentAlloc || n > len(d.s.elems) {
		if err := d.s.reallocElems(newAlloc, elemSize, n); err != nil {
			return err
		}
	}

	s := d.s

	if d.ops.Construct != nil {
		for i := s.size; i < n; i++ {
			s.elems[i] = d.ops.Construct()
		}
	} else if zeroFill {
		clear(s.elems[s.size:n])
	}

	s.size = n

	return nil
}

// shrink destroys the elements leaving scope, releases storage down a
// power-of-two bucket when one is crossed, and commits the new size.
func (d *Data[T]) shrink(n, newAlloc, currentAlloc int, elemSize uintptr) error {
	s := d.s

	if d.ops.Destroy != nil {
		for i := n; i < s.size; i++ {
			d.ops.Destroy(&s.elems[i])
		}
	}

	if s.raw == nil {
		// Go-heap storage: clear vacated slots so the collector can
		// reclaim anything they referenced.
		clear(s.elems[n:s.size])
	}

	if newAlloc != currentAlloc {
		if err := s.reallocElems(newAlloc, elemSize, n); err != nil {
			return err
		}
	}

	s.size = n

	return nil
}

// reallocElems resizes the element block to blockBytes, preserving live
// elements. minElems guards zero-width element types, whose block size is
// always 0.
func (s *shared[T]) reallocElems(blockBytes int, elemSize uintptr, minElems int) error {
	if elemSize == 0 {
		if minElems > len(s.elems) {
			grown := make([]T, minElems)
			copy(grown, s.elems)
			s.elems = grown
		}

		return nil
	}

	if s.raw != nil {
		raw, err := s.alloc.Realloc(s.raw, blockBytes)
		if err != nil {
			return fmt.Errorf("reallocating to %d bytes: %w: %w", blockBytes, err, ErrOutOfMemory)
		}

		s.raw = raw
		s.elems = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), blockBytes/int(elemSize))

		return nil
	}

	resized := make([]T, blockBytes/int(elemSize))
	keep := min(s.size, len(resized))
	copy(resized, s.elems[:keep])
	s.elems = resized

	return nil
}
