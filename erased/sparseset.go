package erased

import "unsafe"

// SparseSet is a type-erased sparse set: a presence Bitset paired with an
// erased Vec of DropManual slots, indexed directly by the sparse index
// rather than a dense/sparse split — insertion and removal are O(1) and
// slots never change index (unlike Vec.SwapRemove). Addresses are not
// stable: an insert past the current end can reallocate the slot buffer.
type SparseSet struct {
	present Bitset
	slots   *Vec
	layout  Layout
	dropper DropFn
}

// NewSparseSet creates an empty sparse set over values with the given
// layout and optional destructor.
func NewSparseSet(layout Layout, dropper DropFn) *SparseSet {
	return &SparseSet{
		slots:   NewVec(layout, dropper, DropManual),
		layout:  layout,
		dropper: dropper,
	}
}

func (s *SparseSet) Len() int            { return s.present.Len() }
func (s *SparseSet) Contains(i int) bool { return s.present.Contains(i) }

// ensure grows the backing slot vector (with zeroed placeholders) until it
// has at least n elements.
func (s *SparseSet) ensure(n int) {
	for s.slots.Len() < n {
		var addr unsafe.Pointer
		if !s.slots.IsZST() {
			zero := make([]byte, s.layout.Size)
			addr = unsafe.Pointer(&zero[0])
		}
		s.slots.Push(NewOwned(addr, s.layout, nil))
	}
}

// Insert stores value at index i, consuming it, and returns the previous
// occupant (if any) as an owning pointer the caller must consume.
func (s *SparseSet) Insert(i int, value OwnedPtr) (prev OwnedPtr, hadPrev bool) {
	s.ensure(i + 1)
	slot := s.slots.GetMut(i)
	hadPrev = s.present.Contains(i)

	old := slot.Write(value)
	if hadPrev {
		prev = OwnedPtr{addr: old.Take(), layout: s.layout, dropper: s.dropper}
	}
	s.present.Set(i)
	return prev, hadPrev
}

// Remove takes the value at index i out of the set, if present.
func (s *SparseSet) Remove(i int) (value OwnedPtr, ok bool) {
	if !s.present.Contains(i) {
		return OwnedPtr{}, false
	}
	s.present.Clear(i)
	return s.slots.GetMut(i).Own(s.dropper), true
}

// Get returns a shared borrow of the value at i, if present.
func (s *SparseSet) Get(i int) (Ptr, bool) {
	if !s.present.Contains(i) {
		return Ptr{}, false
	}
	return s.slots.Get(i), true
}

// GetMut returns a mutable borrow of the value at i, if present.
func (s *SparseSet) GetMut(i int) (MutPtr, bool) {
	if !s.present.Contains(i) {
		return MutPtr{}, false
	}
	return s.slots.GetMut(i), true
}

// ShrinkToFit trims trailing unused slots back to the highest occupied
// index.
func (s *SparseSet) ShrinkToFit() {
	s.slots.Truncate(s.present.HighestSet() + 1)
	s.slots.ShrinkToFit()
}
