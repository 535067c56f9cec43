// The reference count is the one field safe to hit from many goroutines.
// These tests hammer the copy/release paths under the race detector.

package cowdata_test

import (
	"sync"
	"testing"

	"github.com/calvinalkan/cowdata/internal/testutil"
	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

func Test_Concurrent_Copy_And_Release_Settle_To_One_Reference(t *testing.T) {
	t.Parallel()

	track := testutil.NewTracking(nil)

	d := cowdata.NewIn[uint64](track)
	if err := d.ResizeZeroed(64); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	const (
		goroutines = 8
		rounds     = 1000
	)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for r := 0; r < rounds; r++ {
				c := d.Copy()

				// Reads through a copy are always safe.
				if got := c.Get(0); got != 0 {
					panic("copied handle observed a torn element")
				}

				c.Release()
			}
		}()
	}

	wg.Wait()

	if got := d.RefCountForTesting(); got != 1 {
		t.Fatalf("refcount after churn = %d, want 1", got)
	}

	if got := track.Stats().Frees; got != 0 {
		t.Fatalf("buffer freed %d times while still referenced", got)
	}
}

func Test_Concurrent_Readers_Share_One_Allocation(t *testing.T) {
	t.Parallel()

	d := cowdata.New[int32]()
	if err := d.ResizeZeroed(16); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	if err := d.Set(7, 1234); err != nil {
		t.Fatalf("set: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			c := d.Copy()
			defer c.Release()

			view := c.Ptr()
			for r := 0; r < 500; r++ {
				if view[7] != 1234 {
					panic("reader observed a mutated element")
				}
			}
		}()
	}

	wg.Wait()
}
