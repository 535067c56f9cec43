// Resize semantics: bucket-granular reallocation, zero-fill on request,
// and state preservation when the allocator fails mid-operation.

package cowdata_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/cowdata/internal/testutil"
	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

func Test_Resize_Rejects_Negative_Size(t *testing.T) {
	t.Parallel()

	d := cowdata.New[int32]()
	if err := d.Resize(4); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	err := d.Resize(-1)
	if !errors.Is(err, cowdata.ErrInvalidParameter) {
		t.Fatalf("resize(-1) = %v, want ErrInvalidParameter", err)
	}

	if got := d.Len(); got != 4 {
		t.Fatalf("failed resize changed len to %d, want 4", got)
	}
}

func Test_Resize_To_Current_Size_Does_Not_Touch_The_Allocator(t *testing.T) {
	t.Parallel()

	track := testutil.NewTracking(nil)

	d := cowdata.NewIn[int32](track)
	if err := d.Resize(10); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	before := track.GrowthCalls()

	if err := d.Resize(10); err != nil {
		t.Fatalf("idempotent resize: %v", err)
	}

	if got := track.GrowthCalls(); got != before {
		t.Fatalf("resize to same size hit the allocator: %d -> %d calls", before, got)
	}
}

func Test_Resize_Within_Same_Bucket_Reuses_The_Block(t *testing.T) {
	t.Parallel()

	track := testutil.NewTracking(nil)

	d := cowdata.NewIn[byte](track)
	if err := d.Resize(5); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	before := track.Stats()

	// 5 and 7 land in the same power-of-two bucket. Realloc may be
	// called to reslice, but no fresh block may be mapped in.
	if err := d.Resize(7); err != nil {
		t.Fatalf("resize: %v", err)
	}

	after := track.Stats()
	if after.Allocs != before.Allocs {
		t.Fatalf("same-bucket grow allocated a new block: %d -> %d allocs", before.Allocs, after.Allocs)
	}

	if after.Live != before.Live {
		t.Fatalf("live blocks changed on same-bucket grow: %d -> %d", before.Live, after.Live)
	}
}

func Test_ResizeZeroed_Zeros_The_New_Tail(t *testing.T) {
	t.Parallel()

	d := cowdata.New[byte]()
	if err := d.Resize(4); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	for i := 0; i < 4; i++ {
		if err := d.Set(i, 0xFF); err != nil {
			t.Fatalf("set: %v", err)
		}
	}

	// Shrink then grow again inside the same bucket: the vacated bytes
	// are dirty, so only ResizeZeroed may expose them as zero.
	if err := d.Resize(1); err != nil {
		t.Fatalf("shrink: %v", err)
	}

	if err := d.ResizeZeroed(4); err != nil {
		t.Fatalf("grow: %v", err)
	}

	if got := d.Get(0); got != 0xFF {
		t.Fatalf("surviving element = %#x, want 0xFF", got)
	}

	for i := 1; i < 4; i++ {
		if got := d.Get(i); got != 0 {
			t.Fatalf("element %d = %#x after zeroed grow, want 0", i, got)
		}
	}
}

func Test_Resize_Failure_Leaves_The_Handle_Unchanged(t *testing.T) {
	t.Parallel()

	// One successful allocation, then the well runs dry.
	failing := testutil.NewFailing(nil, 1)

	d := cowdata.NewIn[int64](failing)
	if err := d.ResizeZeroed(2); err != nil {
		t.Fatalf("initial resize: %v", err)
	}
	defer d.Release()

	if err := d.Set(0, 42); err != nil {
		t.Fatalf("set: %v", err)
	}

	err := d.Resize(1024)
	if !errors.Is(err, cowdata.ErrOutOfMemory) {
		t.Fatalf("resize under failing allocator = %v, want ErrOutOfMemory", err)
	}

	if !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("allocator cause lost from %v", err)
	}

	if got := d.Len(); got != 2 {
		t.Fatalf("failed grow changed len to %d, want 2", got)
	}

	if got := d.Get(0); got != 42 {
		t.Fatalf("failed grow corrupted element: %d, want 42", got)
	}
}

func Test_Cow_Fork_Failure_Preserves_Both_Handles(t *testing.T) {
	t.Parallel()

	failing := testutil.NewFailing(nil, 1)

	d := cowdata.NewIn[int64](failing)
	if err := d.ResizeZeroed(3); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	if err := d.Set(1, 7); err != nil {
		t.Fatalf("set: %v", err)
	}

	c := d.Copy()
	defer c.Release()

	// Mutating a shared buffer needs a fork, which needs an allocation.
	err := c.Set(1, 99)
	if !errors.Is(err, cowdata.ErrOutOfMemory) {
		t.Fatalf("set on shared buffer = %v, want ErrOutOfMemory", err)
	}

	if !d.SharesBufferForTesting(&c) {
		t.Fatal("failed fork must leave the handles sharing")
	}

	if d.Get(1) != 7 || c.Get(1) != 7 {
		t.Fatalf("failed fork corrupted elements: %d / %d, want 7", d.Get(1), c.Get(1))
	}
}

func Test_Capacity_Tracks_Power_Of_Two_Buckets(t *testing.T) {
	t.Parallel()

	d := cowdata.New[byte]()
	defer d.Release()

	for _, tc := range []struct {
		size, capacity int
	}{
		{1, 1},
		{9, 16},
		{16, 16},
		{17, 32},
	} {
		if err := d.Resize(tc.size); err != nil {
			t.Fatalf("resize(%d): %v", tc.size, err)
		}

		if got := d.CapacityForTesting(); got != tc.capacity {
			t.Fatalf("capacity after resize(%d) = %d, want %d", tc.size, got, tc.capacity)
		}
	}
}
