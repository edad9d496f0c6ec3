package loom

import (
	"reflect"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/TheBitDrifter/loom/erased"
)

type tableTestLive atomic.Int64

var tableTestLiveCount tableTestLive

type tableTestComp struct{ N int }

func (c *tableTestComp) Drop() { (*atomic.Int64)(&tableTestLiveCount).Add(-1) }

func newTableTestComp(n int) tableTestComp {
	(*atomic.Int64)(&tableTestLiveCount).Add(1)
	return tableTestComp{N: n}
}

func ownedTableTestComp(v tableTestComp) erased.OwnedPtr {
	boxed := new(tableTestComp)
	*boxed = v
	info := dropperFor(reflect.TypeOf(v))
	return erased.NewOwned(unsafe.Pointer(boxed), erased.LayoutOf(reflect.TypeOf(v)), info)
}

func TestTablePushGetRemoveRow(t *testing.T) {
	w := NewWorld()
	id := w.componentRegistry.register(reflect.TypeOf(tableTestComp{}), StorageTable, dropperFor(reflect.TypeOf(tableTestComp{})))
	table := newTable(w, []ComponentId{id})

	e0 := Entity{id: 0}
	e1 := Entity{id: 1}
	e2 := Entity{id: 2}

	table.PushRow(e0, []erased.OwnedPtr{ownedTableTestComp(newTableTestComp(10))})
	table.PushRow(e1, []erased.OwnedPtr{ownedTableTestComp(newTableTestComp(20))})
	table.PushRow(e2, []erased.OwnedPtr{ownedTableTestComp(newTableTestComp(30))})

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}

	ptr, ok := table.Get(id, 1)
	if !ok {
		t.Fatalf("Get: row 1 should have component %v", id)
	}
	if (*tableTestComp)(ptr.Addr()).N != 20 {
		t.Fatalf("got %d, want 20", (*tableTestComp)(ptr.Addr()).N)
	}

	values, moved, didMove := table.RemoveRow(0)
	if !didMove {
		t.Fatalf("removing row 0 of 3 should swap the last row into its place")
	}
	if moved != e2 {
		t.Fatalf("moved entity = %v, want %v", moved, e2)
	}
	if (*tableTestComp)(values[0].Borrow().Addr()).N != 10 {
		t.Fatalf("RemoveRow should return row 0's original value")
	}
	values[0].Drop()

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after RemoveRow", table.Len())
	}
	if table.EntityAt(0) != e2 {
		t.Fatalf("EntityAt(0) = %v, want %v after swap", table.EntityAt(0), e2)
	}
}

func TestTableDropRowInvokesDestructor(t *testing.T) {
	w := NewWorld()
	typ := reflect.TypeOf(tableTestComp{})
	id := w.componentRegistry.register(typ, StorageTable, dropperFor(typ))
	table := newTable(w, []ComponentId{id})

	before := (*atomic.Int64)(&tableTestLiveCount).Load()
	table.PushRow(Entity{id: 0}, []erased.OwnedPtr{ownedTableTestComp(newTableTestComp(1))})
	table.DropRow(0)

	after := (*atomic.Int64)(&tableTestLiveCount).Load()
	if after != before {
		t.Fatalf("DropRow should invoke the component's destructor: before=%d after=%d", before, after)
	}
}
