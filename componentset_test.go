package loom

import (
	"reflect"
	"testing"
)

type setTestA struct{ N int }
type setTestB struct{ X, Y float64 }
type setTestTag struct{}

type setTestBundle struct {
	A setTestA
	B setTestB
	T setTestTag
}

func TestRegisterComponentSetLayout(t *testing.T) {
	w := NewWorld()
	info := w.registerComponentSet(reflect.TypeOf(setTestBundle{}))

	if len(info.Components) != 3 {
		t.Fatalf("got %d components, want 3", len(info.Components))
	}
	if len(info.ZSTComponents) != 1 {
		t.Fatalf("got %d zst components, want 1 (setTestTag)", len(info.ZSTComponents))
	}
	for i := 1; i < len(info.Components); i++ {
		if info.Components[i-1] > info.Components[i] {
			t.Fatalf("Components not sorted: %v", info.Components)
		}
	}
	for _, id := range info.Components {
		if _, ok := info.Offsets.Get(id); !ok {
			t.Fatalf("component %v missing an offset", id)
		}
	}
}

func TestRegisterComponentSetIsIdempotent(t *testing.T) {
	w := NewWorld()
	a := w.registerComponentSet(reflect.TypeOf(setTestBundle{}))
	b := w.registerComponentSet(reflect.TypeOf(setTestBundle{}))
	if a != b {
		t.Fatalf("registering the same type twice should return the same *ComponentSetInfo")
	}
}

func TestRegisterComponentSetAssignsDistinctIds(t *testing.T) {
	w := NewWorld()
	a := w.registerComponentSet(reflect.TypeOf(setTestBundle{}))

	type other struct{ N int }
	b := w.registerComponentSet(reflect.TypeOf(other{}))

	if a.ID == b.ID {
		t.Fatalf("distinct set types should get distinct ComponentSetIds")
	}
}

func TestRegisterComponentSetRejectsDuplicateComponent(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for a set with a duplicated component type")
		}
	}()

	type dup struct {
		A1 setTestA
		A2 setTestA
	}
	w := NewWorld()
	w.registerComponentSet(reflect.TypeOf(dup{}))
}
