package loom

import (
	"errors"
	"testing"
)

type resourceTestConfig struct{ MaxPlayers int }
type resourceTestStats struct{ Frames int }

func TestResourceInsertGetRemove(t *testing.T) {
	w := NewWorld()

	InsertResource(w, resourceTestConfig{MaxPlayers: 4})

	cfg, ok := Resource[resourceTestConfig](w)
	if !ok {
		t.Fatalf("Resource should find the inserted config")
	}
	if cfg.MaxPlayers != 4 {
		t.Fatalf("got MaxPlayers=%d, want 4", cfg.MaxPlayers)
	}

	if _, ok := Resource[resourceTestStats](w); ok {
		t.Fatalf("Resource should not find a type that was never inserted")
	}

	got, ok := RemoveResource[resourceTestConfig](w)
	if !ok || got.MaxPlayers != 4 {
		t.Fatalf("RemoveResource = %+v, %v", got, ok)
	}
	if _, ok := Resource[resourceTestConfig](w); ok {
		t.Fatalf("Resource should no longer find a removed resource")
	}
}

func TestResourceOverwritePreservesId(t *testing.T) {
	w := NewWorld()
	id1 := InsertResource(w, resourceTestConfig{MaxPlayers: 2})
	id2 := InsertResource(w, resourceTestConfig{MaxPlayers: 8})
	if id1 != id2 {
		t.Fatalf("re-inserting the same type should reuse its ResourceId")
	}
	cfg, _ := Resource[resourceTestConfig](w)
	if cfg.MaxPlayers != 8 {
		t.Fatalf("got %d, want the overwritten value 8", cfg.MaxPlayers)
	}
}

func TestLocalResourceAffinity(t *testing.T) {
	w := NewWorld()
	cell := w.Cell()
	defer cell.Release()

	if _, err := InsertLocalResource(cell, resourceTestStats{Frames: 1}); err != nil {
		t.Fatalf("InsertLocalResource: %v", err)
	}

	stats, err := LocalResource[resourceTestStats](cell)
	if err != nil || stats.Frames != 1 {
		t.Fatalf("LocalResource should find the value inserted through the same cell, got %+v, %v", stats, err)
	}

	other := w.Cell()
	defer other.Release()

	if _, err := LocalResource[resourceTestStats](other); !errors.As(err, new(ThreadAffinityViolationError)) {
		t.Fatalf("expected ThreadAffinityViolationError accessing a non-send resource from a different WorldCell, got %v", err)
	}
}
