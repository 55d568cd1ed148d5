package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "aku-engine-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := storage.NewStorageAt(filepath.Join(tmpDir, "db"))
	if err != nil {
		t.Fatalf("NewStorageAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTranspositionTableSnapshotRestore(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(0x1234567890abcdef, 10, 55, TTExact, board.Move(777), false)

	snap := tt.Snapshot()

	fresh := NewTranspositionTable(1)
	if ok := fresh.Restore(snap); !ok {
		t.Fatal("Restore should succeed when sizes match")
	}

	entry, found := fresh.Probe(0x1234567890abcdef)
	if !found {
		t.Fatal("expected restored entry to be found")
	}
	if entry.BestMove != board.Move(777) || int(entry.Score) != 55 {
		t.Errorf("restored entry mismatch: %+v", entry)
	}

	// A table of a different size refuses the snapshot rather than
	// corrupting its own index space.
	bigger := NewTranspositionTable(64)
	if ok := bigger.Restore(snap); ok {
		t.Error("Restore should refuse a snapshot whose size doesn't match")
	}
}

func TestEngineTTSnapshotRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	e1 := NewEngine(1)
	pos := board.NewPosition()
	e1.SearchWithLimits(pos, SearchLimits{Depth: 3})

	if err := e1.SaveTTSnapshot(store); err != nil {
		t.Fatalf("SaveTTSnapshot: %v", err)
	}

	e2 := NewEngine(1)
	if err := e2.LoadTTSnapshot(store); err != nil {
		t.Fatalf("LoadTTSnapshot: %v", err)
	}

	if e2.tt.HashFull() == 0 {
		t.Error("expected a warm-started table to show some hash usage")
	}
}
