package cowdata

import "fmt"

// Len returns the number of live elements.
func (d *Data[T]) Len() int {
	if d.s == nil {
		return 0
	}

	return d.s.size
}

// IsEmpty reports whether the handle references no buffer.
func (d *Data[T]) IsEmpty() bool {
	return d.s == nil
}

// Clear releases the buffer; the handle stays usable and empty.
func (d *Data[T]) Clear() {
	d.unref()
	d.s = nil
}

// Ptr returns a read-only view of the live elements. The view aliases the
// shared buffer: callers must not write through it, and must not retain
// it across a mutation or release of any sharing handle.
func (d *Data[T]) Ptr() []T {
	if d.s == nil {
		return nil
	}

	return d.s.elems[:d.s.size:d.s.size]
}

// Ptrw returns a writable view of the live elements, forking the buffer
// first if it is shared. The lifetime caveats of [Data.Ptr] apply.
func (d *Data[T]) Ptrw() ([]T, error) {
	if _, err := d.copyOnWrite(); err != nil {
		return nil, err
	}

	if d.s == nil {
		return nil, nil
	}

	return d.s.elems[:d.s.size:d.s.size], nil
}

// Get returns the element at index i. The index must already be valid:
// out-of-range access is an internal invariant violation and panics.
// Read-only; never forks.
func (d *Data[T]) Get(i int) T {
	size := d.Len()
	if i < 0 || i >= size {
		panic(fmt.Sprintf("cowdata: index %d out of range [0, %d)", i, size))
	}

	return d.s.elems[i]
}

// Set stores v at index i, forking first if the buffer is shared. The
// index may come from untrusted input, so violations are reported as
// [ErrInvalidParameter] rather than panicking.
func (d *Data[T]) Set(i int, v T) error {
	size := d.Len()
	if i < 0 || i >= size {
		return fmt.Errorf("set index %d out of range [0, %d): %w", i, size, ErrInvalidParameter)
	}

	if _, err := d.copyOnWrite(); err != nil {
		return err
	}

	d.storeAt(i, v)

	return nil
}

// storeAt overwrites a live slot the way assignment does for the element
// type: destroy the old value, store an owned copy of the new one.
// Requires exclusivity (mutation gate already passed).
func (d *Data[T]) storeAt(i int, v T) {
	s := d.s

	if d.ops.Destroy != nil {
		d.ops.Destroy(&s.elems[i])
	}

	if d.ops.Clone != nil {
		v = d.ops.Clone(v)
	}

	s.elems[i] = v
}

// Find returns the index of the first element equal to v at or after
// from, or -1. A negative from or an empty buffer never matches.
func (d *Data[T]) Find(v T, from int) int {
	size := d.Len()
	if from < 0 || size == 0 {
		return -1
	}

	eq := d.mustEqual()
	for i := from; i < size; i++ {
		if eq(d.s.elems[i], v) {
			return i
		}
	}

	return -1
}

// RFind returns the index of the last element equal to v at or before
// from, or -1. A negative from counts back from the end (-1 is the last
// element); an out-of-range from clamps to the last element.
func (d *Data[T]) RFind(v T, from int) int {
	size := d.Len()
	if size == 0 {
		return -1
	}

	if from < 0 {
		from = size + from
	}

	if from < 0 || from >= size {
		from = size - 1
	}

	eq := d.mustEqual()
	for i := from; i >= 0; i-- {
		if eq(d.s.elems[i], v) {
			return i
		}
	}

	return -1
}

// Count returns how many elements equal v.
func (d *Data[T]) Count(v T) int {
	eq := d.mustEqual()

	total := 0
	for i := 0; i < d.Len(); i++ {
		if eq(d.s.elems[i], v) {
			total++
		}
	}

	return total
}

// Insert grows the buffer by one and places v at pos, shifting
// [pos, size) one slot right. pos == size appends.
func (d *Data[T]) Insert(pos int, v T) error {
	size := d.Len()
	if pos < 0 || pos > size {
		return fmt.Errorf("insert position %d out of range [0, %d]: %w", pos, size, ErrInvalidParameter)
	}

	if err := d.Resize(size + 1); err != nil {
		return err
	}

	for i := size; i > pos; i-- {
		d.storeAt(i, d.s.elems[i-1])
	}

	d.storeAt(pos, v)

	return nil
}

// RemoveAt deletes the element at pos, shifting [pos+1, size) one slot
// left and shrinking by one.
func (d *Data[T]) RemoveAt(pos int) error {
	size := d.Len()
	if pos < 0 || pos >= size {
		return fmt.Errorf("remove position %d out of range [0, %d): %w", pos, size, ErrInvalidParameter)
	}

	if _, err := d.copyOnWrite(); err != nil {
		return err
	}

	for i := pos; i < size-1; i++ {
		d.storeAt(i, d.s.elems[i+1])
	}

	return d.Resize(size - 1)
}

// mustEqual returns the descriptor's Equal func. Searching without one is
// a programmer error, the same severity as an unchecked bad index.
func (d *Data[T]) mustEqual() func(a, b T) bool {
	if d.ops.Equal == nil {
		panic("cowdata: Find/RFind/Count require Ops.Equal (use New for comparable element types)")
	}

	return d.ops.Equal
}
