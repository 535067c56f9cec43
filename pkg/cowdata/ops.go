package cowdata

import (
	"reflect"
	"sync"
)

// Ops describes element lifetime and comparison behavior for a buffer's
// element type. Every field is optional; a nil func selects the trivial
// (bit-copy) behavior for that concern:
//
//   - Construct: produces the value placed in slots added by a grow.
//     Nil means new slots are left unspecified unless zero-fill was
//     requested.
//   - Clone: deep-copies a value when the buffer takes ownership of it
//     (copy-on-write forks, Set, Insert). Nil means plain assignment.
//   - Destroy: tears down a live value before its slot is released
//     (shrink, final release, overwrite). Nil means no teardown.
//   - Equal: value equality for Find/RFind/Count. Nil makes searches a
//     programmer error (they panic). [New] fills it with == for
//     comparable element types.
//
// A descriptor with all lifecycle funcs nil and a bit-copyable element
// type (no pointers anywhere in the value) selects the fast path: element
// storage aliased onto one raw allocator block, bulk-copied and
// optionally zero-filled by byte operations.
type Ops[T any] struct {
	Construct func() T
	Clone     func(T) T
	Destroy   func(*T)
	Equal     func(a, b T) bool
}

// trivial reports whether the descriptor has no custom lifecycle, i.e.
// values may be duplicated and discarded by raw byte operations.
func (o Ops[T]) trivial() bool {
	return o.Construct == nil && o.Clone == nil && o.Destroy == nil
}

// bitCopyableCache memoizes the per-type classification; the reflect walk
// runs once per element type, never per operation.
var bitCopyableCache sync.Map // map[reflect.Type]bool

// bitCopyable reports whether values of T contain no pointers, so they
// can live in allocator-provided memory the garbage collector does not
// scan.
func bitCopyable[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()

	if cached, ok := bitCopyableCache.Load(t); ok {
		return cached.(bool)
	}

	ok := isBitCopyableType(t)
	bitCopyableCache.Store(t, ok)

	return ok
}

// isBitCopyableType walks a type the way an encoder classifies fixed-size
// primitives: scalars are bit-copyable, aggregates are bit-copyable when
// all their parts are, anything that can reference other memory is not.
func isBitCopyableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isBitCopyableType(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isBitCopyableType(t.Field(i).Type) {
				return false
			}
		}

		return true
	default:
		// Pointers, strings, slices, maps, chans, funcs, interfaces.
		return false
	}
}
