package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "aku-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := NewStorageAt(filepath.Join(tmpDir, "db"))
	if err != nil {
		t.Fatalf("NewStorageAt failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestTTSnapshotRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	entries, ok, err := s.LoadTTSnapshot()
	if err != nil {
		t.Fatalf("LoadTTSnapshot on empty db: %v", err)
	}
	if ok || entries != nil {
		t.Fatalf("expected no snapshot before any save, got ok=%v entries=%v", ok, entries)
	}

	want := []TTEntrySnapshot{
		{Key: 0xdeadbeef, BestMove: 42, Score: 150, Depth: 8, Flag: 0, Age: 3},
		{Key: 0x1, BestMove: 0, Score: -29000, Depth: 1, Flag: 2, Age: 3},
	}
	if err := s.SaveTTSnapshot(want); err != nil {
		t.Fatalf("SaveTTSnapshot: %v", err)
	}

	got, ok, err := s.LoadTTSnapshot()
	if err != nil {
		t.Fatalf("LoadTTSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after a save")
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	// A second save overwrites rather than appends.
	if err := s.SaveTTSnapshot(want[:1]); err != nil {
		t.Fatalf("SaveTTSnapshot (overwrite): %v", err)
	}
	got, _, err = s.LoadTTSnapshot()
	if err != nil {
		t.Fatalf("LoadTTSnapshot after overwrite: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected overwrite to shrink snapshot to 1 entry, got %d", len(got))
	}
}

func TestSyzygyProbeCache(t *testing.T) {
	s := newTestStorage(t)

	const hash uint64 = 0x0123456789abcdef

	if _, ok, err := s.LoadSyzygyProbe(hash); err != nil {
		t.Fatalf("LoadSyzygyProbe on empty db: %v", err)
	} else if ok {
		t.Fatal("expected cache miss before any save")
	}

	want := SyzygyCacheEntry{Found: true, WDL: 2, DTZ: 17}
	if err := s.SaveSyzygyProbe(hash, want); err != nil {
		t.Fatalf("SaveSyzygyProbe: %v", err)
	}

	got, ok, err := s.LoadSyzygyProbe(hash)
	if err != nil {
		t.Fatalf("LoadSyzygyProbe: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit after a save")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	hits, misses := s.SyzygyCacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got hits=%d misses=%d", hits, misses)
	}

	// A different hash is still a miss.
	if _, ok, err := s.LoadSyzygyProbe(hash + 1); err != nil {
		t.Fatalf("LoadSyzygyProbe (different hash): %v", err)
	} else if ok {
		t.Fatal("expected miss for an unrelated hash")
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("data directory was not created: %s", dataDir)
	}

	t.Logf("data directory: %s", dataDir)
}
