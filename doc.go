/*
Package loom provides an archetype-based Entity-Component-System (ECS)
runtime.

Loom groups entities that carry the same component types into a shared
Archetype, storing each archetype's table-stored components together in a
structure-of-arrays Table for cache-friendly iteration. Components that
don't fit that mold — ones that change an entity's storage shape too often,
or carry no data at all — fall back to a global sparse set or a bare
presence bitset instead, transparently to the caller.

Core Concepts:

  - Entity: a generational handle (id + generation) identifying a row of
    component data somewhere in a World.
  - Component: a Go value type registered once per World; its storage kind
    (table, sparse set, or bitset for zero-sized types) is decided at
    registration.
  - Archetype: the equivalence class of every entity carrying exactly the
    same component types, each with its own Table.
  - Resource: a singleton value attached to the World itself rather than to
    any entity, with an optional non-send variant bound to one WorldCell.

Basic usage:

	type Position struct{ X, Y float64 }
	type Velocity struct{ X, Y float64 }

	// A set's exported fields are the components it carries.
	type Body struct{ Pos Position }
	type Motion struct{ Vel Velocity }

	w := loom.NewWorld()
	entity, _ := loom.SpawnWith(w, Body{})
	loom.Insert(w, entity, Motion{Vel: Velocity{X: 1}})

	if pos, ok := loom.GetMut[Position](w, entity); ok {
		vel, _ := loom.Get[Velocity](w, entity)
		pos.X += vel.X
		pos.Y += vel.Y
	}

Loom does not itself ship a query or scheduler layer — see the package's
Non-goals — it is the storage and structural-mutation engine underneath
one.
*/
package loom
