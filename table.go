package loom

import "github.com/TheBitDrifter/loom/erased"

// Table is one archetype's structure-of-arrays storage for its
// table-stored components: one erased.Vec column per component, with row
// indices shared across every column and with the entities slice
// (row -> Entity). This — not a delegated generic storage library — is the
// engine structural inserts and removes migrate rows through.
type Table struct {
	componentIds []ComponentId
	columns      []*erased.Vec
	droppers     []erased.DropFn
	colIndex     map[ComponentId]int
	entities     []Entity
}

func newTable(w *World, componentIds []ComponentId) *Table {
	t := &Table{
		componentIds: componentIds,
		colIndex:     make(map[ComponentId]int, len(componentIds)),
	}
	for i, id := range componentIds {
		info := w.componentRegistry.info(id)
		t.columns = append(t.columns, erased.NewVec(info.Layout, info.Drop, erased.DropAuto))
		t.droppers = append(t.droppers, info.Drop)
		t.colIndex[id] = i
	}
	return t
}

// Len reports the number of rows currently stored.
func (t *Table) Len() int { return len(t.entities) }

func (t *Table) column(id ComponentId) (*erased.Vec, bool) {
	i, ok := t.colIndex[id]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Get returns a shared borrow of component id's value at row.
func (t *Table) Get(id ComponentId, row int) (erased.Ptr, bool) {
	col, ok := t.column(id)
	if !ok {
		return erased.Ptr{}, false
	}
	return col.Get(row), true
}

// GetMut returns a mutable borrow of component id's value at row.
func (t *Table) GetMut(id ComponentId, row int) (erased.MutPtr, bool) {
	col, ok := t.column(id)
	if !ok {
		return erased.MutPtr{}, false
	}
	return col.GetMut(row), true
}

// EntityAt returns the entity occupying row.
func (t *Table) EntityAt(row int) Entity { return t.entities[row] }

// PushRow appends a new row with the given entity, consuming values (one
// per t.componentIds, in that order). Returns the new row index.
func (t *Table) PushRow(entity Entity, values []erased.OwnedPtr) int {
	for i, v := range values {
		t.columns[i].Push(v)
	}
	t.entities = append(t.entities, entity)
	return len(t.entities) - 1
}

// RemoveRow removes row, swap-moving the table's last row into its place.
// It returns the removed row's values (one per t.componentIds, in that
// order — the caller must consume each exactly once, by MoveTo into a
// destination table or by Drop) and, if a different row was swapped into
// the freed slot, that row's entity so the caller can fix its location.
func (t *Table) RemoveRow(row int) (values []erased.OwnedPtr, movedEntity Entity, moved bool) {
	last := len(t.entities) - 1
	values = make([]erased.OwnedPtr, len(t.columns))
	for i, col := range t.columns {
		values[i] = col.SwapRemove(row)
	}

	if row != last {
		movedEntity = t.entities[last]
		moved = true
	}
	t.entities[row] = t.entities[last]
	t.entities = t.entities[:last]
	return values, movedEntity, moved
}

// DropRow removes row and drops its values outright (used when an entity
// is despawned rather than migrated), returning the swap info as RemoveRow
// does.
func (t *Table) DropRow(row int) (movedEntity Entity, moved bool) {
	values, movedEntity, moved := t.RemoveRow(row)
	for i, v := range values {
		v.DropWith(t.droppers[i])
	}
	return movedEntity, moved
}
