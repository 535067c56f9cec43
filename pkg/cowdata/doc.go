// Package cowdata provides a copy-on-write, reference-counted, contiguous
// growable buffer.
//
// cowdata is the storage primitive that higher-level containers (dynamic
// arrays, strings, ordered maps) build on. Many handles share one
// allocation while nobody writes; the first write through any handle forks
// the buffer into a private allocation, so no handle ever observes another
// handle's mutations.
//
// # Basic Usage
//
//	d := cowdata.New[int64]()
//	defer d.Release()
//
//	if err := d.Resize(3); err != nil {
//	    // handle [ErrOutOfMemory]/[ErrInvalidParameter]
//	}
//	_ = d.Set(0, 42)
//
//	// Cheap O(1) share; first write through either handle forks.
//	c := d.Copy()
//	defer c.Release()
//	_ = c.Set(0, 7) // d still observes 42
//
// Handles must be copied with [Data.Copy] or [Data.Ref], never by plain
// struct assignment, and every handle must be released exactly once.
//
// # Concurrency
//
// The reference count is the only field safe to touch from multiple
// goroutines without external synchronization:
//   - Copy/Ref/Release of handles over one shared buffer are safe
//   - Mutating the same buffer from multiple goroutines, even via
//     different handles, is a data race; callers must lock externally
//
// # Error Handling
//
// Errors fall into two categories:
//
// Recoverable ([ErrInvalidParameter], [ErrOutOfMemory]): the operation is
// rejected and the buffer is left unchanged. Check with [errors.Is].
//
// Fatal: indices that must already be valid (the unchecked [Data.Get]
// path) and searches without an Equal func panic, because a violation is a
// bug in the caller, not recoverable input.
package cowdata
