package loom

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/loom/erased"
	"github.com/TheBitDrifter/mask"
)

// World owns every entity, component, archetype, table, resource and tick
// belonging to one ECS instance. Worlds are independent: nothing is shared
// globally across two separate World values.
type World struct {
	entities entities

	componentRegistry *componentRegistry
	setsByType        map[reflect.Type]*ComponentSetInfo

	archetypes *archetypeGraph
	sparse     *sparseStores
	bits       *bitStores
	resources  *resourceTable
	tick       changeTick

	lock  lockCounter
	queue structuralQueue
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{
		componentRegistry: newComponentRegistry(),
		setsByType:        make(map[reflect.Type]*ComponentSetInfo),
		archetypes:        newArchetypeGraph(),
		sparse:            newSparseStores(),
		bits:              newBitStores(),
		resources:         newResourceTable(),
	}
}

// Flush catches up the entity allocator with any outstanding Reserve /
// ReserveMany calls. Spawn (the immediate, single-entity path) does not
// flush: it returns NotFlushedError if called while reservations are
// outstanding; batch-reserved entities only become valid World members
// once Flush runs.
func (w *World) Flush() { w.entities.Flush() }

// Tick advances the World's change-detection clock by one. Typically called
// once per update pass, after all of that pass's mutations have landed.
func (w *World) Tick() { w.tick.Advance() }

// LastTick snapshots the World's current tick, for later IsAddedSince /
// IsUpdatedSince comparisons against resource ChangeMarks. Component values
// carry no ChangeMarks.
func (w *World) LastTick() ChangeMark { return w.tick.Tick() }

// Contains reports whether entity refers to a currently live entity.
func (w *World) Contains(entity Entity) bool { return w.entities.Contains(entity) }

// WorldView is a read-only handle over a World: component reads and
// resource reads are available through it, but not Spawn, Insert, Remove,
// Despawn, or mutable component access — the "shared handle" side of the
// world façade, next to World's exclusive one.
type WorldView struct {
	world *World
}

// View returns a read-only WorldView over w.
func (w *World) View() WorldView { return WorldView{world: w} }

// Contains reports whether entity refers to a currently live entity.
func (v WorldView) Contains(entity Entity) bool { return v.world.Contains(entity) }

// lockCounter is the World's structural-mutation gate: Cell checks out a
// bit, Release returns it, and the World is considered locked for as long
// as any bit remains set. Backed by mask.Mask256 the way the original
// tracks its own outstanding-borrow count, just with an unbounded-looking
// bit index wrapped into 256 slots rather than a single saturating counter.
type lockCounter struct {
	bits mask.Mask256
	next uint32
}

func (l *lockCounter) acquire() uint32 {
	bit := l.next % 256
	l.next++
	l.bits.Mark(bit)
	return bit
}

func (l *lockCounter) release(bit uint32) { l.bits.Unmark(bit) }

func (l *lockCounter) locked() bool { return !l.bits.IsEmpty() }

// WorldCell is a narrowed view over a World, checked out via Cell. While
// any WorldCell is outstanding, structural mutations (Spawn, Insert,
// Remove, Despawn) are deferred onto the structural queue instead of
// applying immediately, and are flushed once the last outstanding cell is
// released. Component reads/writes and resource access are unaffected.
type WorldCell struct {
	world *World
	bit   uint32
}

// Cell checks out a WorldCell over w. Release must be called exactly once,
// typically via defer, or the World stays locked forever.
func (w *World) Cell() *WorldCell {
	return &WorldCell{world: w, bit: w.lock.acquire()}
}

// Release returns the cell's checkout. If it was the last outstanding cell,
// every structural mutation queued while the World was locked is applied
// now, in the order it was issued.
func (c *WorldCell) Release() {
	c.world.lock.release(c.bit)
	if !c.world.lock.locked() {
		c.world.queue.flush()
	}
}

// World gives the owning World back, for resource access that doesn't need
// narrowing.
func (c *WorldCell) World() *World { return c.world }

// structural runs op immediately, unless the World is currently locked by
// an outstanding WorldCell, in which case op is queued and runs once the
// last cell is released. A queued op's error is not observable by the
// caller that issued it — by the time it actually runs, that caller has
// already moved on, mirroring the original's fire-and-forget deferred
// queue.
func (w *World) structural(op structuralOp) error {
	if w.lock.locked() {
		w.queue.enqueue(op)
		return nil
	}
	return op()
}

// componentValues is a small unordered bag of erased.OwnedPtr keyed by
// ComponentId, consumed by take as the migration logic routes each value
// into its destination (a table column, a sparse store, or a bitset
// presence flag).
type componentValues struct {
	ids  []ComponentId
	vals []erased.OwnedPtr
}

func (cv *componentValues) take(id ComponentId) (erased.OwnedPtr, bool) {
	for i, cid := range cv.ids {
		if cid == id {
			v := cv.vals[i]
			cv.ids = append(cv.ids[:i], cv.ids[i+1:]...)
			cv.vals = append(cv.vals[:i], cv.vals[i+1:]...)
			return v, true
		}
	}
	return erased.OwnedPtr{}, false
}

// placeFresh lands entity — which has never held a single component — into
// target, pulling each of target's required values out of cv.
func (w *World) placeFresh(entity Entity, target *Archetype, cv *componentValues) {
	row := -1
	if len(target.tableComponents) > 0 {
		row = w.pushTableRow(entity, target, cv)
	}
	for _, id := range target.sparseComponents {
		if v, ok := cv.take(id); ok {
			w.sparse.insert(w, id, entity, v)
		}
	}
	for _, id := range target.zstComponents {
		if v, ok := cv.take(id); ok {
			v.Take()
			w.bits.insert(w, id, entity)
		}
	}
	w.entities.setLocation(entity, entityLocation{archetype: target.id, row: row, hasRow: row >= 0})
}

// pushTableRow builds target's table row for entity entirely from cv
// (used when entity had no prior row to carry values forward from) and
// appends it, returning the new row index.
func (w *World) pushTableRow(entity Entity, target *Archetype, cv *componentValues) int {
	values := make([]erased.OwnedPtr, len(target.tableComponents))
	for i, id := range target.tableComponents {
		v, ok := cv.take(id)
		if !ok {
			panic(bark.AddTrace(ComponentNotFoundError{Component: id}))
		}
		values[i] = v
	}
	return target.table.PushRow(entity, values)
}

// moveTableRow migrates entity's table row from from's table to target's
// table: columns present in both carry their existing value forward,
// columns only target needs are pulled from cv, and columns only from had
// are either dropped or, if extract is non-nil, handed to it instead
// (Extract's case: the value is moved out to the caller rather than
// destroyed). Handles both insert migrations (target is a superset) and
// remove/extract migrations (target is a subset, cv is empty) uniformly.
// If removing row from from's table swaps a different row into its place,
// that entity's location is fixed up in place. Returns the new row index,
// or -1 when target has no table-stored components (no row is kept).
func (w *World) moveTableRow(entity Entity, from, target *Archetype, row int, cv, extract *componentValues) int {
	values, movedEntity, moved := from.table.RemoveRow(row)
	if moved {
		movedLoc, _ := w.entities.location(movedEntity)
		movedLoc.row = row
		w.entities.setLocation(movedEntity, movedLoc)
	}

	oldByID := make(map[ComponentId]erased.OwnedPtr, len(values))
	for i, id := range from.table.componentIds {
		oldByID[id] = values[i]
	}

	// cv holds exactly the values the caller is writing (an insert's set
	// values, or nothing for a remove/extract migration), so it must be
	// checked before oldByID: a column present in both tables but also
	// named by cv is an overwrite, not a carry-forward, and the stale
	// oldByID entry for it is left to fall into the drop/extract loop
	// below.
	newValues := make([]erased.OwnedPtr, len(target.tableComponents))
	for i, id := range target.tableComponents {
		if v, ok := cv.take(id); ok {
			newValues[i] = v
			continue
		}
		v, ok := oldByID[id]
		if !ok {
			panic(bark.AddTrace(ComponentNotFoundError{Component: id}))
		}
		delete(oldByID, id)
		newValues[i] = v
	}
	for id, v := range oldByID {
		if extract != nil {
			extract.ids = append(extract.ids, id)
			extract.vals = append(extract.vals, v)
			continue
		}
		v.DropWith(from.table.droppers[from.table.colIndex[id]])
	}

	if len(target.tableComponents) == 0 {
		return -1
	}
	return target.table.PushRow(entity, newValues)
}

// insertInto adds set's components to entity, migrating its table row (if
// any) and routing sparse/bitset values into their global stores.
func (w *World) insertInto(entity Entity, setID ComponentSetId, set *ComponentSetInfo, cv *componentValues) error {
	loc, ok := w.entities.location(entity)
	if !ok {
		return NonexistentEntityError{Entity: entity}
	}

	if !w.hasAnyComponent(entity) {
		target := w.archetypes.startupArchetype(w, setID, set)
		w.placeFresh(entity, target, cv)
		return nil
	}

	from := w.archetypes.get(loc.archetype)
	target := w.archetypes.insertionTarget(w, from, setID, set)

	var newRow int
	switch {
	case from.table == target.table:
		// A self-loop: every component in set was already part of from's
		// archetype. Table-stored members overwrite their existing slot in
		// place (drop previous, write new); sparse/bitset members are
		// handled by the loops below, which already overwrite in place.
		newRow = loc.row
		for _, id := range set.Components {
			col, ok := target.table.column(id)
			if !ok {
				continue
			}
			v, ok := cv.take(id)
			if !ok {
				panic(bark.AddTrace(ComponentNotFoundError{Component: id}))
			}
			col.SetOwned(newRow, v)
		}
	case loc.hasRow:
		newRow = w.moveTableRow(entity, from, target, loc.row, cv, nil)
	default:
		newRow = -1
		if len(target.tableComponents) > 0 {
			newRow = w.pushTableRow(entity, target, cv)
		}
	}

	for _, id := range set.SparseComponents {
		if v, ok := cv.take(id); ok {
			w.sparse.insert(w, id, entity, v)
		}
	}
	for _, id := range set.ZSTComponents {
		if v, ok := cv.take(id); ok {
			v.Take()
			w.bits.insert(w, id, entity)
		}
	}

	w.entities.setLocation(entity, entityLocation{archetype: target.id, row: newRow, hasRow: newRow >= 0})
	return nil
}

// removeFrom strips set's components from entity, migrating its table row
// (if any) and clearing any sparse/bitset entries set owns.
func (w *World) removeFrom(entity Entity, setID ComponentSetId, set *ComponentSetInfo) error {
	loc, ok := w.entities.location(entity)
	if !ok {
		return NonexistentEntityError{Entity: entity}
	}
	if !w.hasAnyComponent(entity) {
		return nil
	}

	from := w.archetypes.get(loc.archetype)
	target, changed := w.archetypes.removalTarget(w, from, setID, set)
	if !changed {
		return nil
	}

	newRow := -1
	switch {
	case from.table == target.table:
		newRow = loc.row
	case loc.hasRow:
		newRow = w.moveTableRow(entity, from, target, loc.row, &componentValues{}, nil)
	}

	for _, id := range set.SparseComponents {
		w.sparse.remove(w, id, entity)
	}
	for _, id := range set.ZSTComponents {
		w.bits.remove(id, entity)
	}

	w.entities.setLocation(entity, entityLocation{archetype: target.id, row: newRow, hasRow: newRow >= 0})
	return nil
}

// extractFrom removes set's components from entity like removeFrom, but
// instead of dropping them, copies their bytes into dst (a pointer to a
// value of set's registered struct type) at each component's registered
// offset. Fails with ComponentNotFoundError if entity doesn't carry every
// one of set's components, leaving entity untouched.
func (w *World) extractFrom(entity Entity, setID ComponentSetId, set *ComponentSetInfo, dst unsafe.Pointer) error {
	loc, ok := w.entities.location(entity)
	if !ok {
		return NonexistentEntityError{Entity: entity}
	}
	if !w.hasAnyComponent(entity) {
		return ComponentNotFoundError{Component: set.Components[0]}
	}

	from := w.archetypes.get(loc.archetype)
	for _, id := range set.Components {
		if !from.Contains(id) {
			return ComponentNotFoundError{Component: id}
		}
	}

	target, changed := w.archetypes.removalTarget(w, from, setID, set)
	if !changed {
		return ComponentNotFoundError{Component: set.Components[0]}
	}

	extracted := &componentValues{}
	newRow := -1
	switch {
	case from.table == target.table:
		newRow = loc.row
	case loc.hasRow:
		newRow = w.moveTableRow(entity, from, target, loc.row, &componentValues{}, extracted)
	}

	for _, id := range set.SparseComponents {
		if v, ok := w.sparse.take(w, id, entity); ok {
			extracted.ids = append(extracted.ids, id)
			extracted.vals = append(extracted.vals, v)
		}
	}
	for _, id := range set.ZSTComponents {
		// take, not remove: the value is moving to the caller, not being
		// destroyed, so its Drop must not run.
		w.bits.take(id, entity)
	}

	w.entities.setLocation(entity, entityLocation{archetype: target.id, row: newRow, hasRow: newRow >= 0})

	for _, id := range set.Components {
		v, ok := extracted.take(id)
		if !ok {
			continue // a zero-sized component: nothing to copy
		}
		offset, _ := set.Offsets.Get(id)
		v.MoveTo(erased.NewMutPtr(unsafe.Add(dst, offset), v.Layout()))
	}
	return nil
}

// despawn removes entity and every component it carries, freeing its slot
// for reuse.
func (w *World) despawn(entity Entity) error {
	loc, ok := w.entities.location(entity)
	if !ok {
		return NonexistentEntityError{Entity: entity}
	}

	if w.hasAnyComponent(entity) {
		arch := w.archetypes.get(loc.archetype)
		if loc.hasRow {
			movedEntity, moved := arch.table.DropRow(loc.row)
			if moved {
				movedLoc, _ := w.entities.location(movedEntity)
				movedLoc.row = loc.row
				w.entities.setLocation(movedEntity, movedLoc)
			}
		}
		for _, id := range arch.sparseComponents {
			w.sparse.remove(w, id, entity)
		}
		for _, id := range arch.zstComponents {
			w.bits.remove(id, entity)
		}
	}

	w.entities.Free(entity)
	if hook := Config.events.OnEntityDespawned; hook != nil {
		hook(entity)
	}
	return nil
}

// hasAnyComponent is used to distinguish "never had a component, archetype
// 0 is just the zero value" from "archetype 0 really is this entity's
// archetype" for entities that legitimately landed in the first-created
// archetype.
func (w *World) hasAnyComponent(entity Entity) bool {
	loc, ok := w.entities.location(entity)
	if !ok || len(w.archetypes.archetypes) == 0 {
		return false
	}
	arch := w.archetypes.get(loc.archetype)
	return loc.hasRow || len(arch.sparseComponents) > 0 && w.anySparsePresent(arch, entity) ||
		len(arch.zstComponents) > 0 && w.anyBitsPresent(arch, entity)
}

func (w *World) anySparsePresent(arch *Archetype, entity Entity) bool {
	for _, id := range arch.sparseComponents {
		if _, ok := w.sparse.get(id, entity); ok {
			return true
		}
	}
	return false
}

func (w *World) anyBitsPresent(arch *Archetype, entity Entity) bool {
	for _, id := range arch.zstComponents {
		if w.bits.contains(id, entity) {
			return true
		}
	}
	return false
}

// getComponent returns a shared borrow of entity's component id, checking
// the table row first and falling back to the sparse store.
func (w *World) getComponent(entity Entity, id ComponentId) (erased.Ptr, bool) {
	loc, ok := w.entities.location(entity)
	if !ok {
		return erased.Ptr{}, false
	}
	if loc.hasRow {
		if ptr, ok := w.archetypes.get(loc.archetype).table.Get(id, loc.row); ok {
			return ptr, true
		}
	}
	return w.sparse.get(id, entity)
}

// getComponentMut returns a mutable borrow of entity's component id.
func (w *World) getComponentMut(entity Entity, id ComponentId) (erased.MutPtr, bool) {
	loc, ok := w.entities.location(entity)
	if !ok {
		return erased.MutPtr{}, false
	}
	if loc.hasRow {
		if ptr, ok := w.archetypes.get(loc.archetype).table.GetMut(id, loc.row); ok {
			return ptr, true
		}
	}
	return w.sparse.getMut(id, entity)
}

// hasComponent reports whether entity currently carries component id, in
// any storage kind.
func (w *World) hasComponent(entity Entity, id ComponentId) bool {
	loc, ok := w.entities.location(entity)
	if !ok {
		return false
	}
	if w.bits.contains(id, entity) {
		return true
	}
	if len(w.archetypes.archetypes) == 0 {
		return false
	}
	if w.archetypes.get(loc.archetype).Contains(id) {
		if loc.hasRow {
			return true
		}
		if _, ok := w.sparse.get(id, entity); ok {
			return true
		}
	}
	return false
}
