package cowdata

import "errors"

// Sentinel errors returned by cowdata operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, cowdata.ErrOutOfMemory) {
//	    // shed load, the buffer kept its previous contents
//	}
var (
	// ErrInvalidParameter indicates a caller-supplied index or size is out
	// of range (negative resize target, out-of-range Set/Insert/RemoveAt
	// position). The buffer is left unchanged.
	ErrInvalidParameter = errors.New("cowdata: invalid parameter")

	// ErrOutOfMemory indicates the allocator failed, or the requested size
	// would overflow allocation arithmetic. The operation aborts and the
	// previously held buffer, if any, remains valid and referenced.
	ErrOutOfMemory = errors.New("cowdata: out of memory")
)
