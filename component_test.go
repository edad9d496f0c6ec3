package loom

import (
	"reflect"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/TheBitDrifter/loom/erased"
)

type componentTestLive atomic.Int64

var liveFoo componentTestLive

type fooComponent struct{ N int }

func (f *fooComponent) Drop() { liveFoo.dec() }

func (l *componentTestLive) dec() { (*atomic.Int64)(l).Add(-1) }
func (l *componentTestLive) inc() { (*atomic.Int64)(l).Add(1) }

type barComponent struct{ X, Y float64 }

type tagComponent struct{} // zero-sized

func TestComponentRegistryIdempotent(t *testing.T) {
	r := newComponentRegistry()

	id1 := r.register(reflect.TypeOf(fooComponent{}), StorageTable, nil)
	id2 := r.register(reflect.TypeOf(fooComponent{}), StorageTable, nil)
	if id1 != id2 {
		t.Fatalf("register should be idempotent per type: got %v and %v", id1, id2)
	}

	id3 := r.register(reflect.TypeOf(barComponent{}), StorageTable, nil)
	if id3 == id1 {
		t.Fatalf("distinct types should get distinct ids")
	}
	if r.count() != 2 {
		t.Fatalf("count() = %d, want 2", r.count())
	}
}

func TestComponentInfoZSTOverridesStorage(t *testing.T) {
	info := ComponentInfo{
		Type:    reflect.TypeOf(tagComponent{}),
		Layout:  erased.LayoutOf(reflect.TypeOf(tagComponent{})),
		Storage: StorageSparseSet,
	}
	if !info.IsZST() {
		t.Fatalf("tagComponent should be zero-sized")
	}
	if info.EffectiveStorage() != KindBitset {
		t.Fatalf("EffectiveStorage() = %v, want KindBitset for a ZST", info.EffectiveStorage())
	}
}

func TestComponentInfoNonZSTHonorsStorage(t *testing.T) {
	info := ComponentInfo{Type: reflect.TypeOf(barComponent{}), Layout: erased.LayoutOf(reflect.TypeOf(barComponent{})), Storage: StorageSparseSet}
	if info.EffectiveStorage() != KindSparseSet {
		t.Fatalf("EffectiveStorage() = %v, want KindSparseSet", info.EffectiveStorage())
	}

	info.Storage = StorageTable
	if info.EffectiveStorage() != KindTable {
		t.Fatalf("EffectiveStorage() = %v, want KindTable", info.EffectiveStorage())
	}
}

func TestDropperForInvokesDrop(t *testing.T) {
	liveFoo.inc()
	value := fooComponent{N: 1}
	drop := dropperFor(reflect.TypeOf(value))
	if drop == nil {
		t.Fatalf("dropperFor should find fooComponent's Drop method")
	}
	drop(unsafe.Pointer(&value))
	if (*atomic.Int64)(&liveFoo).Load() != 0 {
		t.Fatalf("Drop was not invoked")
	}
}

func TestDropperForNilWhenNoDropMethod(t *testing.T) {
	if dropperFor(reflect.TypeOf(barComponent{})) != nil {
		t.Fatalf("barComponent has no Drop method, dropperFor should return nil")
	}
}
