package engine

import (
	"sync"
	"sync/atomic"

	"github.com/hoavu/aku/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint32     // Upper 32 bits of Zobrist hash for verification
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
	Age      uint8      // Search generation that stored the entry (read by HashFull)
	IsPV     bool        // Whether this entry was produced by a PV node
}

// ttStripes is the number of mutexes guarding the table. Workers hash into
// one of these stripes rather than locking the whole table, so concurrent
// probes/stores from different root-move searches rarely contend.
const ttStripes = 4096

// TranspositionTable is a hash table for storing search results, shared
// read-write by every worker goroutine in the root driver. Each bucket is
// protected end-to-end (read-verify or write) by its stripe's mutex, so a
// probe never observes a half-written entry.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8

	locks [ttStripes]sync.Mutex

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	entrySize := uint64(12) // Approximate size of TTEntry
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize

	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries < ttStripes {
		numEntries = ttStripes
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// stripe returns the mutex guarding the bucket for hash.
func (tt *TranspositionTable) stripe(idx uint64) *sync.Mutex {
	return &tt.locks[idx%ttStripes]
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	idx := hash & tt.mask
	lock := tt.stripe(idx)

	lock.Lock()
	entry := tt.entries[idx]
	lock.Unlock()

	if entry.Key == uint32(hash>>32) && entry.Depth > 0 {
		tt.hits.Add(1)
		return entry, true
	}

	return TTEntry{}, false
}

// Store saves a position in the transposition table, always overwriting
// whatever was in the bucket. The decision of *whether* a node's result is
// worth storing (the PV/non-PV alpha0 gating) is made by the caller before
// it ever reaches Store; once called, Store unconditionally replaces the
// bucket after taking its lock.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	idx := hash & tt.mask
	lock := tt.stripe(idx)

	lock.Lock()
	defer lock.Unlock()

	entry := &tt.entries[idx]
	entry.Key = uint32(hash >> 32)
	entry.BestMove = bestMove
	entry.Score = int16(score)
	entry.Depth = int8(depth)
	entry.Flag = flag
	entry.Age = tt.age
	entry.IsPV = isPV
}

// NewSearch increments the age counter for a new search. Store overwrites
// regardless of age; HashFull counts only entries of the current age.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Snapshot copies every entry out of the table for persistence between
// engine restarts (internal/storage saves this to disk on "ucinewgame").
func (tt *TranspositionTable) Snapshot() []TTEntry {
	out := make([]TTEntry, len(tt.entries))
	for i := range tt.entries {
		lock := tt.stripe(uint64(i))
		lock.Lock()
		out[i] = tt.entries[i]
		lock.Unlock()
	}
	return out
}

// Restore loads a previously captured snapshot back into the table,
// reporting false (and changing nothing) if the snapshot's size doesn't
// match the table's current size -- which happens whenever the Hash UCI
// option was different in the run that produced the snapshot.
func (tt *TranspositionTable) Restore(snapshot []TTEntry) bool {
	if uint64(len(snapshot)) != tt.size {
		return false
	}
	for i := range snapshot {
		entry := snapshot[i]
		// Restored entries join the current generation; the age they carried
		// in the process that saved them means nothing here.
		entry.Age = tt.age
		lock := tt.stripe(uint64(i))
		lock.Lock()
		tt.entries[i] = entry
		lock.Unlock()
	}
	return true
}

// AdjustScoreFromTT adjusts a mate score read from the table for the
// current ply, since stored mate scores are relative to the position where
// they were found rather than to the root.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
