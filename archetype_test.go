package loom

import (
	"reflect"
	"testing"
)

type archTestPos struct{ X, Y float64 }
type archTestVel struct{ X, Y float64 }

func TestArchetypeGraphGetOrCreateCanonicalizes(t *testing.T) {
	w := NewWorld()
	posID := w.componentRegistry.register(reflect.TypeOf(archTestPos{}), StorageTable, nil)
	velID := w.componentRegistry.register(reflect.TypeOf(archTestVel{}), StorageTable, nil)

	a := w.archetypes.getOrCreate(w, []ComponentId{posID, velID})
	b := w.archetypes.getOrCreate(w, []ComponentId{posID, velID})
	if a != b {
		t.Fatalf("identical component sets should map to the same archetype")
	}

	c := w.archetypes.getOrCreate(w, []ComponentId{posID})
	if c == a {
		t.Fatalf("different component sets should map to different archetypes")
	}
}

func TestArchetypeContains(t *testing.T) {
	w := NewWorld()
	posID := w.componentRegistry.register(reflect.TypeOf(archTestPos{}), StorageTable, nil)
	velID := w.componentRegistry.register(reflect.TypeOf(archTestVel{}), StorageTable, nil)

	arch := w.archetypes.getOrCreate(w, []ComponentId{posID})
	if !arch.Contains(posID) {
		t.Fatalf("archetype should contain posID")
	}
	if arch.Contains(velID) {
		t.Fatalf("archetype should not contain velID")
	}
}

func TestArchetypeInsertionAndRemovalTargets(t *testing.T) {
	w := NewWorld()
	info := w.registerComponentSet(reflect.TypeOf(setTestBundle{}))

	empty := w.archetypes.getOrCreate(w, nil)
	target := w.archetypes.insertionTarget(w, empty, info.ID, info)
	if len(target.components) != len(info.Components) {
		t.Fatalf("insertion target should carry all of the set's components")
	}

	again := w.archetypes.insertionTarget(w, empty, info.ID, info)
	if again != target {
		t.Fatalf("insertionTarget should be cached per ComponentSetId")
	}

	back, changed := w.archetypes.removalTarget(w, target, info.ID, info)
	if !changed || back != empty {
		t.Fatalf("removing exactly what was inserted should return to the empty archetype")
	}

	_, changed = w.archetypes.removalTarget(w, empty, info.ID, info)
	if changed {
		t.Fatalf("removing a set not present should report no change")
	}
}
