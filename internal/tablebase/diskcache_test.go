package tablebase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/storage"
)

// countingProber counts how many times Probe is actually invoked, so tests
// can tell a cache hit from a fresh probe.
type countingProber struct {
	calls  int
	result ProbeResult
}

func (c *countingProber) Probe(pos *board.Position) ProbeResult {
	c.calls++
	return c.result
}

func (c *countingProber) ProbeRoot(pos *board.Position) RootResult { return RootResult{} }
func (c *countingProber) MaxPieces() int                           { return 6 }
func (c *countingProber) Available() bool                          { return true }

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "aku-tb-test-*")
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

func TestDiskCachedProberMemoryHit(t *testing.T) {
	store := newTestStore(t)
	inner := &countingProber{result: ProbeResult{Found: true, WDL: WDLWin, DTZ: 5}}
	dp := NewDiskCachedProber(inner, store, 16)

	pos := board.NewPosition()

	first := dp.Probe(pos)
	second := dp.Probe(pos)

	if first != second {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
	if inner.calls != 1 {
		t.Errorf("expected exactly 1 inner probe (second hit memory), got %d", inner.calls)
	}
}

func TestDiskCachedProberSurvivesRestart(t *testing.T) {
	store := newTestStore(t)
	inner := &countingProber{result: ProbeResult{Found: true, WDL: WDLCursedWin, DTZ: 42}}

	pos := board.NewPosition()

	dp1 := NewDiskCachedProber(inner, store, 16)
	want := dp1.Probe(pos)
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner probe on cold cache, got %d", inner.calls)
	}

	// Simulate a process restart: fresh in-memory cache, same disk store.
	dp2 := NewDiskCachedProber(inner, store, 16)
	got := dp2.Probe(pos)

	if got != want {
		t.Errorf("expected disk-persisted result %+v, got %+v", want, got)
	}
	if inner.calls != 1 {
		t.Errorf("expected disk hit to avoid a second inner probe, got %d calls", inner.calls)
	}
}
