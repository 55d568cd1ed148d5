package tablebase

import (
	"sync"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/storage"
)

// DiskCachedProber adds a disk-persisted tier in front of another prober,
// adapting CachedProber's bounded in-memory cache to also survive process
// restarts: a position resolved in a previous session is still a cache hit
// the next time the engine starts, without a network round trip to the
// Lichess tablebase fallback.
type DiskCachedProber struct {
	inner Prober
	store *storage.Storage

	mu     sync.RWMutex
	memory map[uint64]ProbeResult
	maxMem int
}

// NewDiskCachedProber wraps inner with a bounded in-memory cache backed by
// store for cross-process persistence.
func NewDiskCachedProber(inner Prober, store *storage.Storage, memCacheSize int) *DiskCachedProber {
	return &DiskCachedProber{
		inner:  inner,
		store:  store,
		memory: make(map[uint64]ProbeResult, memCacheSize),
		maxMem: memCacheSize,
	}
}

func (dp *DiskCachedProber) Probe(pos *board.Position) ProbeResult {
	hash := pos.Hash

	dp.mu.RLock()
	if result, ok := dp.memory[hash]; ok {
		dp.mu.RUnlock()
		return result
	}
	dp.mu.RUnlock()

	if entry, ok, err := dp.store.LoadSyzygyProbe(hash); err == nil && ok {
		result := ProbeResult{Found: entry.Found, WDL: WDL(entry.WDL), DTZ: int(entry.DTZ)}
		dp.rememberInMemory(hash, result)
		return result
	}

	result := dp.inner.Probe(pos)
	dp.rememberInMemory(hash, result)

	// Persisting is best-effort: a disk write failure degrades back to
	// "probe again next time", never a search failure.
	_ = dp.store.SaveSyzygyProbe(hash, storage.SyzygyCacheEntry{
		Found: result.Found,
		WDL:   int8(result.WDL),
		DTZ:   int32(result.DTZ),
	})

	return result
}

func (dp *DiskCachedProber) rememberInMemory(hash uint64, result ProbeResult) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.memory) >= dp.maxMem {
		i := 0
		for k := range dp.memory {
			if i >= dp.maxMem/2 {
				break
			}
			delete(dp.memory, k)
			i++
		}
	}
	dp.memory[hash] = result
}

// ProbeRoot is not cached (it depends on the full legal move list, not just
// the position), same as CachedProber's root probing.
func (dp *DiskCachedProber) ProbeRoot(pos *board.Position) RootResult {
	return dp.inner.ProbeRoot(pos)
}

func (dp *DiskCachedProber) MaxPieces() int {
	return dp.inner.MaxPieces()
}

func (dp *DiskCachedProber) Available() bool {
	return dp.inner.Available()
}
