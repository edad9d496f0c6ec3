package loom

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/loom/erased"
)

// ComponentId is a dense, registration-order identifier for a component
// type, stable for the lifetime of the World that registered it.
type ComponentId int

func (id ComponentId) Index() int { return int(id) }

// ComponentStorage selects where a component's values live. Zero-sized
// types always end up in bitset storage regardless of this setting — see
// ComponentInfo.EffectiveStorage.
type ComponentStorage int

const (
	// StorageTable keeps the component as a column in its archetype's
	// table: faster iteration, cheaper memory, costlier structural churn.
	StorageTable ComponentStorage = iota
	// StorageSparseSet keeps the component in a per-type sparse set
	// indexed by entity id: faster add/remove, one indirection to read.
	StorageSparseSet
)

// Dropper is implemented by component types with non-trivial teardown.
// Drop is invoked exactly once, when a live value is removed from
// storage — by a structural remove, an entity despawn, or an overwrite.
type Dropper interface{ Drop() }

var dropperType = reflect.TypeOf((*Dropper)(nil)).Elem()

// dropperFor returns a DropFn that invokes t's Dropper.Drop method in
// place, or nil if t doesn't implement Dropper.
func dropperFor(t reflect.Type) erased.DropFn {
	if !reflect.PointerTo(t).Implements(dropperType) {
		return nil
	}
	return func(addr unsafe.Pointer) {
		reflect.NewAt(t, addr).Interface().(Dropper).Drop()
	}
}

// ComponentInfo describes a registered component type's layout, storage
// preference, and destructor.
type ComponentInfo struct {
	Type    reflect.Type
	Layout  erased.Layout
	Storage ComponentStorage
	Drop    erased.DropFn
}

// IsZST reports whether this component type is zero-sized.
func (ci ComponentInfo) IsZST() bool { return ci.Layout.Size == 0 }

// StorageKind is the storage a component actually ends up in, after the
// zero-sized-type override.
type StorageKind int

const (
	KindTable StorageKind = iota
	KindSparseSet
	KindBitset
)

// EffectiveStorage returns the storage kind actually used for this
// component: bitset for zero-sized types no matter what Storage requests.
func (ci ComponentInfo) EffectiveStorage() StorageKind {
	if ci.IsZST() {
		return KindBitset
	}
	if ci.Storage == StorageSparseSet {
		return KindSparseSet
	}
	return KindTable
}

// componentRegistry assigns and looks up dense ComponentIds by reflect.Type.
type componentRegistry struct {
	infos []ComponentInfo
	ids   map[reflect.Type]ComponentId
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{ids: make(map[reflect.Type]ComponentId)}
}

// register returns the existing id for t if already registered, otherwise
// registers it with the given storage preference and destructor.
func (r *componentRegistry) register(t reflect.Type, storage ComponentStorage, drop erased.DropFn) ComponentId {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := ComponentId(len(r.infos))
	r.infos = append(r.infos, ComponentInfo{
		Type:    t,
		Layout:  erased.LayoutOf(t),
		Storage: storage,
		Drop:    drop,
	})
	r.ids[t] = id
	return id
}

func (r *componentRegistry) info(id ComponentId) ComponentInfo { return r.infos[id] }

func (r *componentRegistry) idFor(t reflect.Type) (ComponentId, bool) {
	id, ok := r.ids[t]
	return id, ok
}

func (r *componentRegistry) count() int { return len(r.infos) }
