// Package vector provides a growable array with copy-on-write value
// semantics, built on [cowdata.Data].
//
// Copying a Vector is O(1): both copies share one buffer until either is
// mutated. Like its underlying handle, a Vector must be copied with
// [Vector.Copy] (never struct assignment) and released with
// [Vector.Release] when done.
package vector

import (
	"fmt"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

// Vector is a growable array of comparable elements.
//
// The zero value is an empty vector, but its searches ([Vector.Find],
// [Vector.RFind], [Vector.Count], [Vector.Has]) have no equality func and
// panic; construct with [New] to get one.
type Vector[T comparable] struct {
	data cowdata.Data[T]
}

// New returns an empty vector.
func New[T comparable]() Vector[T] {
	return Vector[T]{data: cowdata.New[T]()}
}

// NewIn is [New] with an explicit allocator for element storage.
func NewIn[T comparable](alloc cowdata.Allocator) Vector[T] {
	return Vector[T]{data: cowdata.NewIn[T](alloc)}
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return v.data.Len()
}

// IsEmpty reports whether the vector holds no elements.
func (v *Vector[T]) IsEmpty() bool {
	return v.data.Len() == 0
}

// Append adds e at the end, growing by one.
func (v *Vector[T]) Append(e T) error {
	return v.data.Insert(v.data.Len(), e)
}

// At returns the element at index i. The index must be valid; out-of-range
// access panics.
func (v *Vector[T]) At(i int) T {
	return v.data.Get(i)
}

// Set stores e at index i. Out-of-range indices are reported as
// [cowdata.ErrInvalidParameter].
func (v *Vector[T]) Set(i int, e T) error {
	return v.data.Set(i, e)
}

// Insert places e at pos, shifting the tail right. pos == Len appends.
func (v *Vector[T]) Insert(pos int, e T) error {
	return v.data.Insert(pos, e)
}

// RemoveAt deletes the element at pos, shifting the tail left.
func (v *Vector[T]) RemoveAt(pos int) error {
	return v.data.RemoveAt(pos)
}

// Pop removes and returns the last element. Popping an empty vector is a
// recoverable caller error.
func (v *Vector[T]) Pop() (T, error) {
	n := v.data.Len()
	if n == 0 {
		var zero T

		return zero, fmt.Errorf("pop on empty vector: %w", cowdata.ErrInvalidParameter)
	}

	last := v.data.Get(n - 1)
	if err := v.data.Resize(n - 1); err != nil {
		var zero T

		return zero, err
	}

	return last, nil
}

// Resize grows or shrinks to n elements. Added slots read as the zero
// value.
func (v *Vector[T]) Resize(n int) error {
	return v.data.ResizeZeroed(n)
}

// Truncate shrinks to n elements. Growing via Truncate is a caller error.
func (v *Vector[T]) Truncate(n int) error {
	if n > v.data.Len() {
		return fmt.Errorf("truncate to %d exceeds length %d: %w", n, v.data.Len(), cowdata.ErrInvalidParameter)
	}

	return v.data.Resize(n)
}

// Clear releases the element storage; the vector stays usable and empty.
func (v *Vector[T]) Clear() {
	v.data.Clear()
}

// Find returns the index of the first element equal to e at or after
// from, or -1.
func (v *Vector[T]) Find(e T, from int) int {
	return v.data.Find(e, from)
}

// RFind returns the index of the last element equal to e at or before
// from, or -1. Negative from counts back from the end.
func (v *Vector[T]) RFind(e T, from int) int {
	return v.data.RFind(e, from)
}

// Count returns how many elements equal e.
func (v *Vector[T]) Count(e T) int {
	return v.data.Count(e)
}

// Has reports whether any element equals e.
func (v *Vector[T]) Has(e T) bool {
	return v.data.Find(e, 0) >= 0
}

// Slice returns a read-only view of the elements. The view aliases shared
// storage: callers must not write through it or retain it across a
// mutation or release.
func (v *Vector[T]) Slice() []T {
	return v.data.Ptr()
}

// SliceW returns a writable view, forking shared storage first.
func (v *Vector[T]) SliceW() ([]T, error) {
	return v.data.Ptrw()
}

// Copy returns a vector sharing this one's storage. O(1); the first
// mutation on either side forks.
func (v *Vector[T]) Copy() Vector[T] {
	return Vector[T]{data: v.data.Copy()}
}

// Release drops the vector's reference to its storage.
func (v *Vector[T]) Release() {
	v.data.Release()
}
