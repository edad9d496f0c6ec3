package loom

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/loom/erased"
)

// setInfoFor registers (or reuses) the ComponentSetInfo for the struct
// type T, treating each of T's exported fields as one component.
func setInfoFor[T any](w *World) (ComponentSetId, *ComponentSetInfo) {
	var zero T
	info := w.registerComponentSet(reflect.TypeOf(zero))
	return info.ID, info
}

// valuesFor decomposes value into one erased.OwnedPtr per field of T,
// addressed into a fresh heap copy so ownership of each field's bytes can
// move independently into its destination storage.
func valuesFor[T any](w *World, info *ComponentSetInfo, value T) *componentValues {
	boxed := new(T)
	*boxed = value
	base := unsafe.Pointer(boxed)

	cv := &componentValues{}
	for _, id := range info.Components {
		ci := w.componentRegistry.info(id)
		offset, _ := info.Offsets.Get(id)
		cv.ids = append(cv.ids, id)
		cv.vals = append(cv.vals, erased.NewOwned(unsafe.Add(base, offset), ci.Layout, ci.Drop))
	}
	return cv
}

// componentID returns T's ComponentId in w, registering T as a
// table-stored component on first use if it hasn't been seen as part of
// any set yet.
func componentID[T any](w *World) ComponentId {
	t := reflect.TypeOf(*new(T))
	if id, ok := w.componentRegistry.idFor(t); ok {
		return id
	}
	return w.componentRegistry.register(t, StorageTable, dropperFor(t))
}

// RegisterComponent declares T's storage kind ahead of first use. Calling
// it after T has already been registered (by an earlier Spawn/Insert/
// Get) has no effect — storage kind is fixed at first registration, same
// as the original's idempotent-per-type-identity registration.
func RegisterComponent[T any](w *World, storage ComponentStorage) ComponentId {
	t := reflect.TypeOf(*new(T))
	return w.componentRegistry.register(t, storage, dropperFor(t))
}

// Spawn creates a new entity carrying T's zero value as its initial
// component bundle.
func Spawn[T any](w *World) (Entity, error) { return SpawnWith(w, *new(T)) }

// SpawnWith creates a new entity carrying value's fields as its initial
// component bundle. T must be a struct type whose exported fields are the
// components to attach.
func SpawnWith[T any](w *World, value T) (Entity, error) {
	entity, err := w.entities.Spawn()
	if err != nil {
		return Entity{}, err
	}
	setID, info := setInfoFor[T](w)
	cv := valuesFor(w, info, value)
	w.structural(func() error {
		target := w.archetypes.startupArchetype(w, setID, info)
		w.placeFresh(entity, target, cv)
		return nil
	})
	return entity, nil
}

// Insert adds T's fields as components on entity. A field entity already
// carries is overwritten in place — the previous value is dropped and the
// new one takes its spot — rather than rejected, the same self-loop
// semantics a same-archetype Insert has in the underlying table migration.
func Insert[T any](w *World, entity Entity, value T) error {
	setID, info := setInfoFor[T](w)
	cv := valuesFor(w, info, value)
	return w.structural(func() error {
		return w.insertInto(entity, setID, info, cv)
	})
}

// Remove strips T's fields from entity. A no-op if entity carries none of
// them.
func Remove[T any](w *World, entity Entity) error {
	setID, info := setInfoFor[T](w)
	return w.structural(func() error {
		return w.removeFrom(entity, setID, info)
	})
}

// Despawn removes entity and every component it carries, freeing its slot
// for reuse by a later Spawn.
func Despawn(w *World, entity Entity) error {
	return w.structural(func() error { return w.despawn(entity) })
}

// Extract removes T's components from entity and returns their values,
// failing with ComponentNotFoundError if entity doesn't carry all of them.
// Unlike Spawn/Insert/Remove/Despawn, Extract always runs immediately even
// while a WorldCell is outstanding: its caller needs the extracted value
// synchronously, so there is nothing sensible to defer.
func Extract[T any](w *World, entity Entity) (T, error) {
	setID, info := setInfoFor[T](w)
	var result T
	err := w.extractFrom(entity, setID, info, unsafe.Pointer(&result))
	return result, err
}

// Get returns a shared borrow of entity's T component, or false if entity
// doesn't carry one.
func Get[T any](w *World, entity Entity) (*T, bool) {
	ptr, ok := w.getComponent(entity, componentID[T](w))
	if !ok {
		return nil, false
	}
	return (*T)(ptr.Addr()), true
}

// GetMut returns a mutable borrow of entity's T component, or false if
// entity doesn't carry one.
func GetMut[T any](w *World, entity Entity) (*T, bool) {
	ptr, ok := w.getComponentMut(entity, componentID[T](w))
	if !ok {
		return nil, false
	}
	return (*T)(ptr.Addr()), true
}

// Has reports whether entity carries a T component.
func Has[T any](w *World, entity Entity) bool {
	return w.hasComponent(entity, componentID[T](w))
}

// ViewGet is Get's WorldView counterpart: a shared borrow only, through
// the read-only handle.
func ViewGet[T any](v WorldView, entity Entity) (*T, bool) { return Get[T](v.world, entity) }

// ViewHas is Has's WorldView counterpart.
func ViewHas[T any](v WorldView, entity Entity) bool { return Has[T](v.world, entity) }

// InsertResource installs value as the World's singleton T resource,
// accessible from any WorldCell.
func InsertResource[T any](w *World, value T) ResourceId {
	boxed := new(T)
	*boxed = value
	w.tick.Advance()
	return w.resources.insert(w.tick.Tick(), reflect.TypeOf(*new(T)), boxed)
}

// Resource returns the World's singleton T resource, if one has been
// inserted.
func Resource[T any](w *World) (*T, bool) {
	id, ok := w.resources.idFor(reflect.TypeOf(*new(T)))
	if !ok {
		return nil, false
	}
	value, err := w.resources.get(id, nil)
	if err != nil {
		return nil, false
	}
	boxed, ok := value.(*T)
	return boxed, ok
}

// RemoveResource takes the World's singleton T resource out, returning its
// value and true if one was present.
func RemoveResource[T any](w *World) (T, bool) {
	v, ok := w.resources.remove(reflect.TypeOf(*new(T)))
	if !ok {
		var zero T
		return zero, false
	}
	return *(v.(*T)), true
}

// InsertLocalResource installs value as a non-send T resource bound to
// cell: only that same *WorldCell may access it afterward. Returns
// ThreadAffinityViolationError if a T resource already exists under a
// different WorldCell.
func InsertLocalResource[T any](cell *WorldCell, value T) (ResourceId, error) {
	boxed := new(T)
	*boxed = value
	w := cell.world
	w.tick.Advance()
	return w.resources.insertLocal(cell, w.tick.Tick(), reflect.TypeOf(*new(T)), boxed)
}

// LocalResource returns cell's non-send T resource. Returns
// ThreadAffinityViolationError if a T resource exists but was registered
// under a different WorldCell — affinity violations are returned, not
// panicked, since ordinary multi-threaded use can race two goroutines onto
// the same non-send resource.
func LocalResource[T any](cell *WorldCell) (*T, error) {
	w := cell.world
	id, ok := w.resources.idFor(reflect.TypeOf(*new(T)))
	if !ok {
		return nil, ResourceNotFoundError{Resource: id}
	}
	value, err := w.resources.get(id, cell)
	if err != nil {
		return nil, err
	}
	boxed, _ := value.(*T)
	return boxed, nil
}
