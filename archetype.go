package loom

import (
	"fmt"

	"github.com/TheBitDrifter/loom/erased"
	"github.com/TheBitDrifter/mask"
)

// ArchetypeId identifies one equivalence class of entities that all carry
// exactly the same set of component types.
type ArchetypeId int

func (id ArchetypeId) Index() int     { return int(id) }
func (id ArchetypeId) String() string { return fmt.Sprintf("Archetype(%d)", int(id)) }

// Archetype is the equivalence class of all entities carrying exactly the
// same component types, identified by a canonical sorted ComponentId set.
// Table-stored components live in the archetype's own Table; sparse-set
// and bitset (zero-sized) components live in the World's global per-type
// stores, indexed directly by entity id — Archetype only records that they
// belong to this class.
type Archetype struct {
	id         ArchetypeId
	bits       mask.Mask
	components []ComponentId // sorted, every component (table + sparse + zst)

	tableComponents  []ComponentId
	sparseComponents []ComponentId
	zstComponents    []ComponentId

	table *Table

	// insertions and removals cache archetype-graph transition edges keyed
	// by ComponentSetId, in sparse sets rather than maps — the same
	// keyed-by-dense-id shape the rest of the registry uses.
	insertions *erased.TypedSparseSet[ComponentSetId, ArchetypeId]
	removals   *erased.TypedSparseSet[ComponentSetId, removalEdge]
}

// removalEdge caches one removalTarget outcome: present && changed means
// "removing this set lands in archetype", present && !changed means
// "cached: this set has no effect on this archetype".
type removalEdge struct {
	archetype ArchetypeId
	changed   bool
}

func (a *Archetype) ID() ArchetypeId           { return a.id }
func (a *Archetype) Components() []ComponentId { return a.components }

func (a *Archetype) Contains(id ComponentId) bool {
	var m mask.Mask
	m.Mark(uint32(id))
	return a.bits.ContainsAll(m)
}

// archetypeGraph owns every Archetype in a World, canonicalizing them by
// component-id set and caching insert/remove transition edges between
// them, so repeated Insert/Remove of the same ComponentSet never
// re-derives the destination archetype.
type archetypeGraph struct {
	archetypes []*Archetype
	byKey      map[string]ArchetypeId
	startup    map[ComponentSetId]ArchetypeId
}

func newArchetypeGraph() *archetypeGraph {
	return &archetypeGraph{
		byKey:   make(map[string]ArchetypeId),
		startup: make(map[ComponentSetId]ArchetypeId),
	}
}

func (g *archetypeGraph) get(id ArchetypeId) *Archetype { return g.archetypes[id] }

func canonicalKey(ids []ComponentId) string {
	b := make([]byte, len(ids)*4)
	for i, id := range ids {
		b[i*4] = byte(id)
		b[i*4+1] = byte(id >> 8)
		b[i*4+2] = byte(id >> 16)
		b[i*4+3] = byte(id >> 24)
	}
	return string(b)
}

// getOrCreate returns the archetype for exactly this sorted component id
// set, creating it (and its Table) if it doesn't exist yet.
func (g *archetypeGraph) getOrCreate(w *World, ids []ComponentId) *Archetype {
	key := canonicalKey(ids)
	if id, ok := g.byKey[key]; ok {
		return g.archetypes[id]
	}

	arch := &Archetype{
		id:         ArchetypeId(len(g.archetypes)),
		components: append([]ComponentId(nil), ids...),
		insertions: erased.NewTypedSparseSet[ComponentSetId, ArchetypeId](),
		removals:   erased.NewTypedSparseSet[ComponentSetId, removalEdge](),
	}
	for _, id := range ids {
		arch.bits.Mark(uint32(id))
		switch w.componentRegistry.info(id).EffectiveStorage() {
		case KindTable:
			arch.tableComponents = append(arch.tableComponents, id)
		case KindSparseSet:
			arch.sparseComponents = append(arch.sparseComponents, id)
		case KindBitset:
			arch.zstComponents = append(arch.zstComponents, id)
		}
	}
	arch.table = newTable(w, arch.tableComponents)

	g.archetypes = append(g.archetypes, arch)
	g.byKey[key] = arch.id

	if hook := Config.events.OnArchetypeCreated; hook != nil {
		hook(arch.id, arch.components)
	}
	return arch
}

// insertionTarget returns the archetype reached by adding set's components
// to from, using and populating the cached edge.
func (g *archetypeGraph) insertionTarget(w *World, from *Archetype, setID ComponentSetId, set *ComponentSetInfo) *Archetype {
	if cached, ok := from.insertions.Get(setID); ok {
		return g.archetypes[cached]
	}
	target := g.getOrCreate(w, unionSorted(from.components, set.Components))
	from.insertions.Insert(setID, target.id)
	return target
}

// removalTarget returns the archetype reached by removing set's components
// from from. ok is false when from carries none of set's components.
func (g *archetypeGraph) removalTarget(w *World, from *Archetype, setID ComponentSetId, set *ComponentSetInfo) (*Archetype, bool) {
	if cached, ok := from.removals.Get(setID); ok {
		if !cached.changed {
			return nil, false
		}
		return g.archetypes[cached.archetype], true
	}

	remaining := subtractSorted(from.components, set.Components)
	if len(remaining) == len(from.components) {
		from.removals.Insert(setID, removalEdge{changed: false})
		return nil, false
	}

	target := g.getOrCreate(w, remaining)
	from.removals.Insert(setID, removalEdge{archetype: target.id, changed: true})
	return target, true
}

// startupArchetype returns the archetype a freshly-spawned entity with no
// prior location lands in for set, caching the result by ComponentSetId.
func (g *archetypeGraph) startupArchetype(w *World, setID ComponentSetId, set *ComponentSetInfo) *Archetype {
	if id, ok := g.startup[setID]; ok {
		return g.archetypes[id]
	}
	arch := g.getOrCreate(w, append([]ComponentId(nil), set.Components...))
	g.startup[setID] = arch.id
	return arch
}

func unionSorted(a, b []ComponentId) []ComponentId {
	seen := make(map[ComponentId]bool, len(a)+len(b))
	out := append([]ComponentId(nil), a...)
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	sortComponentIds(out)
	return out
}

func subtractSorted(a, b []ComponentId) []ComponentId {
	remove := make(map[ComponentId]bool, len(b))
	for _, id := range b {
		remove[id] = true
	}
	out := make([]ComponentId, 0, len(a))
	for _, id := range a {
		if !remove[id] {
			out = append(out, id)
		}
	}
	return out
}
