package cowdata

import (
	"fmt"
	"math"
	"math/bits"
)

// Hardcoded implementation limits.
//
// These limits are intentionally generous; they exist primarily to:
//   - keep allocation arithmetic safely away from overflow boundaries
//   - bound resource usage for element counts nothing in this project
//     fuzzes or tests
//   - avoid unsafe uint64/int conversions (slice lengths are ints)
const (
	// maxAllocBytes is the maximum byte size of a single element block.
	// A guardrail, not a RAM budget. Block sizes become slice lengths, so
	// the effective limit is also capped to the platform int range (which
	// only bites on 32-bit platforms).
	maxAllocBytes = min(uint64(1)<<40, uint64(math.MaxInt)) // 1 TiB
)

// nextPow2 rounds x up to the next power of two. nextPow2(0) is 0, which
// is how a size-0 buffer collapses to "no allocation".
func nextPow2(x uint64) uint64 {
	if x == 0 {
		return 0
	}

	return uint64(1) << bits.Len64(x-1)
}

// allocBytes computes the block size for n elements of elemSize bytes
// under the power-of-two rounding policy. Multiplication overflow and
// sizes beyond maxAllocBytes fail with [ErrOutOfMemory]; sizes are always
// checked, there is no unchecked fast path.
func allocBytes(n int, elemSize uintptr) (int, error) {
	if n == 0 || elemSize == 0 {
		return 0, nil
	}

	hi, raw := bits.Mul64(uint64(n), uint64(elemSize))
	if hi != 0 {
		return 0, fmt.Errorf("%d elements of %d bytes overflows: %w", n, elemSize, ErrOutOfMemory)
	}

	rounded := nextPow2(raw)
	if rounded < raw || rounded > maxAllocBytes {
		return 0, fmt.Errorf("allocation of %d bytes exceeds limit %d: %w", raw, maxAllocBytes, ErrOutOfMemory)
	}

	return int(rounded), nil
}
