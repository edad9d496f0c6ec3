package loom

import (
	"unsafe"

	"github.com/TheBitDrifter/loom/erased"
)

// sparseStores holds one erased.SparseSet per sparse-set-storage component
// type, indexed by entity id directly — unlike table storage, a component
// stays in the same slot across archetype migrations of its owning entity.
type sparseStores struct {
	byComponent map[ComponentId]*erased.SparseSet
}

func newSparseStores() *sparseStores {
	return &sparseStores{byComponent: make(map[ComponentId]*erased.SparseSet)}
}

func (s *sparseStores) storeFor(w *World, id ComponentId) *erased.SparseSet {
	if store, ok := s.byComponent[id]; ok {
		return store
	}
	info := w.componentRegistry.info(id)
	store := erased.NewSparseSet(info.Layout, info.Drop)
	s.byComponent[id] = store
	return store
}

func (s *sparseStores) insert(w *World, id ComponentId, entity Entity, value erased.OwnedPtr) {
	if prev, had := s.storeFor(w, id).Insert(int(entity.ID()), value); had {
		prev.Drop()
	}
}

func (s *sparseStores) remove(w *World, id ComponentId, entity Entity) {
	if v, ok := s.storeFor(w, id).Remove(int(entity.ID())); ok {
		v.Drop()
	}
}

// take removes id's value for entity without dropping it, handing
// ownership to the caller — used by Extract, where the value is moved out
// rather than destroyed.
func (s *sparseStores) take(w *World, id ComponentId, entity Entity) (erased.OwnedPtr, bool) {
	return s.storeFor(w, id).Remove(int(entity.ID()))
}

func (s *sparseStores) get(id ComponentId, entity Entity) (erased.Ptr, bool) {
	store, ok := s.byComponent[id]
	if !ok {
		return erased.Ptr{}, false
	}
	return store.Get(int(entity.ID()))
}

func (s *sparseStores) getMut(id ComponentId, entity Entity) (erased.MutPtr, bool) {
	store, ok := s.byComponent[id]
	if !ok {
		return erased.MutPtr{}, false
	}
	return store.GetMut(int(entity.ID()))
}

// bitStore pairs one zero-sized component type's presence Bitset with its
// drop function. A ZST carries no data, so presence alone is the store —
// but a type can still declare a Drop method with observable side effects,
// which fires once per bit cleared by remove or overwritten by insert (on
// an already-set bit), exactly as a table column's destructor would for a
// non-zero-sized component. take clears the bit without running it.
type bitStore struct {
	bits *erased.Bitset
	drop erased.DropFn
}

// runDrop invokes store's drop function, if any, against store itself as
// the dangling-but-aligned address — any stable non-nil pointer works for
// a zero-sized value, the same trick erased.Vec's addr() uses for ZSTs.
func (b *bitStore) runDrop() {
	if b.drop != nil {
		b.drop(unsafe.Pointer(b))
	}
}

// bitStores holds one bitStore per zero-sized component type.
type bitStores struct {
	byComponent map[ComponentId]*bitStore
}

func newBitStores() *bitStores {
	return &bitStores{byComponent: make(map[ComponentId]*bitStore)}
}

func (s *bitStores) storeFor(w *World, id ComponentId) *bitStore {
	if store, ok := s.byComponent[id]; ok {
		return store
	}
	info := w.componentRegistry.info(id)
	store := &bitStore{bits: &erased.Bitset{}, drop: info.Drop}
	s.byComponent[id] = store
	return store
}

// insert marks entity as carrying id. If entity already carried it, this is
// an overwrite: the previous value's drop runs first, mirroring a table
// column's SetOwned.
func (s *bitStores) insert(w *World, id ComponentId, entity Entity) {
	store := s.storeFor(w, id)
	i := int(entity.ID())
	if store.bits.Contains(i) {
		store.runDrop()
	}
	store.bits.Set(i)
}

// remove clears id's bit for entity, running its drop function if the bit
// was set.
func (s *bitStores) remove(id ComponentId, entity Entity) {
	store, ok := s.byComponent[id]
	if !ok {
		return
	}
	i := int(entity.ID())
	if store.bits.Contains(i) {
		store.runDrop()
		store.bits.Clear(i)
	}
}

// take clears id's bit for entity without running its drop function,
// reporting whether it was set — used by Extract, where the value moves to
// the caller rather than being destroyed.
func (s *bitStores) take(id ComponentId, entity Entity) bool {
	store, ok := s.byComponent[id]
	if !ok {
		return false
	}
	i := int(entity.ID())
	present := store.bits.Contains(i)
	if present {
		store.bits.Clear(i)
	}
	return present
}

func (s *bitStores) contains(id ComponentId, entity Entity) bool {
	store, ok := s.byComponent[id]
	return ok && store.bits.Contains(int(entity.ID()))
}
