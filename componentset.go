package loom

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/loom/erased"
	"github.com/TheBitDrifter/mask"
)

// ComponentSetId identifies a distinct set of component types registered
// together — e.g. the set passed to Spawn — used to cache archetype-graph
// transitions (insertions/removals) keyed by "this set applied to that
// archetype".
type ComponentSetId int

func (id ComponentSetId) Index() int { return int(id) }

// ComponentSetInfo describes one registered component set: its sorted
// component ids, their byte offsets within the set's backing Go struct,
// and which of them use sparse-set or bitset (zero-sized) storage.
//
// Go's reflect.StructField.Offset gives field byte offsets directly, so
// unlike the upstream tuple-macro this needs no per-arity code generation
// and no alignment re-derivation — Go's compiler has already laid the
// struct out correctly, so the alignment check below never fires for a
// compiler-laid struct. It's retained for parity with the original's
// registration-time diagnostics. Offsets is kept
// in a sparse set keyed by ComponentId, not a map, for O(1) per-field
// access during structural operations.
type ComponentSetInfo struct {
	ID               ComponentSetId
	Components       []ComponentId
	Bits             mask.Mask
	Offsets          *erased.TypedSparseSet[ComponentId, uintptr]
	SparseComponents []ComponentId
	ZSTComponents    []ComponentId
}

// registerComponentSet registers every exported field of t as a component
// (reusing existing registrations) and builds a ComponentSetInfo. t must be
// a struct type; each field is a leaf component, not a nested set — Go's
// reflect walks an arbitrary-arity struct directly, so the set doesn't need
// the tuple-of-tuples nesting the original uses to work around Rust's lack
// of variadic generics.
func (w *World) registerComponentSet(t reflect.Type) *ComponentSetInfo {
	if info, ok := w.setsByType[t]; ok {
		return info
	}

	info := &ComponentSetInfo{Offsets: erased.NewTypedSparseSet[ComponentId, uintptr]()}
	seenOffset := map[ComponentId]bool{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}

		if field.Offset%uintptr(field.Type.Align()) != 0 {
			panic(bark.AddTrace(MisalignedFieldError{
				Set:   t.String(),
				Field: i,
				Type:  field.Type.String(),
			}))
		}

		id := w.componentRegistry.register(field.Type, StorageTable, dropperFor(field.Type))
		if seenOffset[id] {
			panic(bark.AddTrace(DuplicateComponentInSetError{
				Set:       t.String(),
				Component: field.Type.String(),
			}))
		}
		seenOffset[id] = true

		info.Components = append(info.Components, id)
		info.Offsets.Insert(id, field.Offset)
		info.Bits.Mark(uint32(id))

		componentInfo := w.componentRegistry.info(id)
		switch componentInfo.EffectiveStorage() {
		case KindSparseSet:
			info.SparseComponents = append(info.SparseComponents, id)
		case KindBitset:
			info.ZSTComponents = append(info.ZSTComponents, id)
		}
	}

	sortComponentIds(info.Components)
	sortComponentIds(info.SparseComponents)
	sortComponentIds(info.ZSTComponents)

	info.ID = ComponentSetId(len(w.setsByType))
	if w.setsByType == nil {
		w.setsByType = make(map[reflect.Type]*ComponentSetInfo)
	}
	w.setsByType[t] = info
	return info
}

func sortComponentIds(ids []ComponentId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func (id ComponentSetId) String() string { return fmt.Sprintf("ComponentSet(%d)", int(id)) }
