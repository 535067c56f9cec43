// Element access boundaries: insert/remove shifting, forward and
// backward search, and the recoverable-vs-fatal split on bad indices.

package cowdata_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
)

// byteSeq builds a handle holding the given bytes via Insert appends.
func byteSeq(t *testing.T, elems ...byte) cowdata.Data[byte] {
	t.Helper()

	d := cowdata.New[byte]()
	for i, b := range elems {
		if err := d.Insert(i, b); err != nil {
			t.Fatalf("insert(%d, %q): %v", i, b, err)
		}
	}

	return d
}

func Test_Insert_Shifts_The_Tail_Right(t *testing.T) {
	t.Parallel()

	d := cowdata.New[byte]()
	defer d.Release()

	if err := d.Insert(0, 'a'); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := d.Insert(1, 'b'); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := d.Insert(0, 'c'); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if diff := cmp.Diff([]byte("cab"), d.Ptr()); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func Test_Insert_Rejects_Position_Past_The_End(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b')
	defer d.Release()

	err := d.Insert(4, 'x')
	if !errors.Is(err, cowdata.ErrInvalidParameter) {
		t.Fatalf("insert(4) on len 3 = %v, want ErrInvalidParameter", err)
	}

	if got := d.Len(); got != 3 {
		t.Fatalf("failed insert changed len to %d, want 3", got)
	}
}

func Test_RemoveAt_Shifts_The_Tail_Left(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b')
	defer d.Release()

	if err := d.RemoveAt(1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if diff := cmp.Diff([]byte("cb"), d.Ptr()); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}

	err := d.RemoveAt(2)
	if !errors.Is(err, cowdata.ErrInvalidParameter) {
		t.Fatalf("remove(2) on len 2 = %v, want ErrInvalidParameter", err)
	}
}

func Test_Find_Scans_Forward_From_Offset(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b', 'a')
	defer d.Release()

	if got := d.Find('a', 0); got != 1 {
		t.Fatalf("find('a', 0) = %d, want 1", got)
	}

	if got := d.Find('a', 2); got != 3 {
		t.Fatalf("find('a', 2) = %d, want 3", got)
	}

	if got := d.Find('z', 0); got != -1 {
		t.Fatalf("find('z', 0) = %d, want -1", got)
	}

	// A negative starting offset never matches.
	if got := d.Find('c', -1); got != -1 {
		t.Fatalf("find('c', -1) = %d, want -1", got)
	}
}

func Test_RFind_Counts_Negative_Offsets_From_The_End(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b')
	defer d.Release()

	if got := d.RFind('c', -1); got != 0 {
		t.Fatalf("rfind('c', -1) = %d, want 0", got)
	}

	if got := d.RFind('b', -1); got != 2 {
		t.Fatalf("rfind('b', -1) = %d, want 2", got)
	}

	// Out-of-range offsets clamp to the last element.
	if got := d.RFind('b', 50); got != 2 {
		t.Fatalf("rfind('b', 50) = %d, want 2", got)
	}

	if got := d.RFind('z', -1); got != -1 {
		t.Fatalf("rfind('z', -1) = %d, want -1", got)
	}
}

func Test_Count_Scans_The_Whole_Buffer(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'a', 'b', 'a', 'a')
	defer d.Release()

	if got := d.Count('a'); got != 3 {
		t.Fatalf("count('a') = %d, want 3", got)
	}

	if got := d.Count('z'); got != 0 {
		t.Fatalf("count('z') = %d, want 0", got)
	}

	var empty cowdata.Data[byte]
	if got := empty.Count('a'); got != 0 {
		t.Fatalf("count on empty = %d, want 0", got)
	}
}

func Test_Set_Out_Of_Range_Leaves_The_Sequence_Unchanged(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b')
	defer d.Release()

	err := d.Set(5, 'x')
	if !errors.Is(err, cowdata.ErrInvalidParameter) {
		t.Fatalf("set(5) on len 3 = %v, want ErrInvalidParameter", err)
	}

	if diff := cmp.Diff([]byte("cab"), d.Ptr()); diff != "" {
		t.Fatalf("failed set modified the sequence (-want +got):\n%s", diff)
	}
}

func Test_Get_Out_Of_Range_Panics(t *testing.T) {
	t.Parallel()

	d := byteSeq(t, 'c', 'a', 'b')
	defer d.Release()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("get(3) on len 3 must panic")
		}

		msg, ok := r.(string)
		if !ok || !strings.HasPrefix(msg, "cowdata:") {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()

	_ = d.Get(3)
}

func Test_Search_Without_Equal_Descriptor_Panics(t *testing.T) {
	t.Parallel()

	type opaque struct{ v int }

	d := cowdata.NewWithOps[opaque](cowdata.Ops[opaque]{})
	if err := d.Resize(1); err != nil {
		t.Fatalf("resize: %v", err)
	}
	defer d.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("find without Ops.Equal must panic")
		}
	}()

	_ = d.Find(opaque{v: 1}, 0)
}

func Test_Ptr_On_Empty_Handle_Is_Nil(t *testing.T) {
	t.Parallel()

	var d cowdata.Data[byte]

	if got := d.Ptr(); got != nil {
		t.Fatalf("ptr on empty = %v, want nil", got)
	}

	view, err := d.Ptrw()
	if err != nil {
		t.Fatalf("ptrw: %v", err)
	}

	if view != nil {
		t.Fatalf("ptrw on empty = %v, want nil", view)
	}
}
