package erased

import (
	"reflect"
	"sync/atomic"
	"testing"
	"unsafe"
)

type sparseTestData struct{ n int }

var sparseTestLive atomic.Int64

func newSparseTestData(n int) OwnedPtr {
	sparseTestLive.Add(1)
	d := sparseTestData{n: n}
	layout := LayoutOf(reflect.TypeOf(d))
	return NewOwned(unsafe.Pointer(&d), layout, dropSparseTestData)
}

func dropSparseTestData(unsafe.Pointer) { sparseTestLive.Add(-1) }

func TestSparseSetInsertGetRemove(t *testing.T) {
	sparseTestLive.Store(0)
	layout := LayoutOf(reflect.TypeOf(sparseTestData{}))
	s := NewSparseSet(layout, dropSparseTestData)

	s.Insert(0, newSparseTestData(314))
	s.Insert(5, newSparseTestData(159))
	s.Insert(12, newSparseTestData(69))
	s.Insert(20, newSparseTestData(420))

	if got := s.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
	for _, i := range []int{0, 5, 12, 20} {
		if !s.Contains(i) {
			t.Errorf("Contains(%d) = false, want true", i)
		}
	}
	for _, i := range []int{1, 6, 13, 25} {
		if s.Contains(i) {
			t.Errorf("Contains(%d) = true, want false", i)
		}
	}

	ptr, ok := s.Get(0)
	if !ok {
		t.Fatal("Get(0) missing")
	}
	if got := (*sparseTestData)(ptr.Addr()).n; got != 314 {
		t.Errorf("Get(0).n = %d, want 314", got)
	}

	prev, hadPrev := s.Insert(0, newSparseTestData(123))
	if !hadPrev {
		t.Fatal("Insert over existing slot reported hadPrev = false")
	}
	if got := (*sparseTestData)(prev.Take()).n; got != 314 {
		t.Errorf("previous occupant.n = %d, want 314", got)
	}
	prev.Drop()

	v, ok := s.Remove(12)
	if !ok {
		t.Fatal("Remove(12) missing")
	}
	if got := (*sparseTestData)(v.Take()).n; got != 69 {
		t.Errorf("removed.n = %d, want 69", got)
	}
	v.Drop()

	if s.Contains(12) {
		t.Error("Contains(12) = true after Remove")
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() after Remove = %d, want 3", got)
	}

	if _, ok := s.Remove(12); ok {
		t.Error("Remove(12) twice reported ok = true")
	}
}

func TestSparseSetShrinkToFit(t *testing.T) {
	layout := LayoutOf(reflect.TypeOf(sparseTestData{}))
	s := NewSparseSet(layout, nil)
	s.Insert(0, NewOwned(unsafe.Pointer(&sparseTestData{n: 1}), layout, nil))
	s.Insert(20, NewOwned(unsafe.Pointer(&sparseTestData{n: 2}), layout, nil))
	s.Remove(20)
	s.ShrinkToFit()

	if s.slots.Len() != 1 {
		t.Fatalf("slots.Len() after ShrinkToFit = %d, want 1", s.slots.Len())
	}
}
