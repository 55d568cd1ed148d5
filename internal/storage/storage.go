package storage

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys. One key holds the whole TT snapshot blob; the Syzygy cache
// lives under a key prefix, one entry per cached position, since it grows
// unbounded across a long analysis session and we don't want a single
// multi-megabyte value badger has to rewrite on every insert.
const (
	keyTTSnapshot    = "tt:snapshot"
	prefixSyzygyHash = "tb:"
)

// TTEntrySnapshot mirrors engine.TTEntry's fields except IsPV, which is not
// persisted (restored entries come back with IsPV false). It is
// duplicated here rather than imported because internal/storage is a leaf
// package the engine depends on; importing internal/engine back would
// invert that and create a cycle.
type TTEntrySnapshot struct {
	Key      uint32
	BestMove uint16
	Score    int16
	Depth    int8
	Flag     uint8
	Age      uint8
}

// SyzygyCacheEntry is a single disk-persisted tablebase probe result, keyed
// by the Zobrist hash of the position it was probed at. Persisting this
// means a long-running analysis session (or a restarted engine process)
// doesn't have to re-hit the network tablebase fallback for positions it
// has already resolved.
type SyzygyCacheEntry struct {
	Found bool
	WDL   int8
	DTZ   int32
}

// Storage wraps BadgerDB for persistent storage local to this engine
// installation: transposition table snapshots between restarts and a
// durable Syzygy probe cache. Both are opportunistic -- a missing or
// corrupt value is treated as a cache miss, never a hard error.
type Storage struct {
	db *badger.DB

	mu         sync.Mutex
	syzygyHits uint64
	syzygyMiss uint64
}

// NewStorage opens (creating if necessary) the badger database under the
// platform-appropriate data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return NewStorageAt(dbDir)
}

// NewStorageAt opens the badger database at an explicit directory, bypassing
// the platform data-dir lookup. Exists mainly so tests can point at a
// temp directory instead of the real per-user database.
func NewStorageAt(dbDir string) (*Storage, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTTSnapshot persists a transposition table snapshot, overwriting any
// previous snapshot. Called on "ucinewgame" and on clean engine shutdown so
// the next process can warm-start its table instead of searching cold.
func (s *Storage) SaveTTSnapshot(entries []TTEntrySnapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyTTSnapshot), buf.Bytes())
	})
}

// LoadTTSnapshot loads a previously saved transposition table snapshot.
// Returns ok=false (not an error) if nothing has been saved yet, so callers
// can fall through to a cold-started table.
func (s *Storage) LoadTTSnapshot() (entries []TTEntrySnapshot, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get([]byte(keyTTSnapshot))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}

		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&entries)
		})
	})

	if err != nil {
		return nil, false, err
	}
	return entries, entries != nil, nil
}

// syzygyKey builds the per-position badger key for the probe cache.
func syzygyKey(hash uint64) []byte {
	key := make([]byte, len(prefixSyzygyHash)+8)
	n := copy(key, prefixSyzygyHash)
	for i := 0; i < 8; i++ {
		key[n+i] = byte(hash >> (8 * i))
	}
	return key
}

// SaveSyzygyProbe records a tablebase probe result for hash so a later
// session (or a later search at the same transposition) can skip the
// network round trip to the Lichess tablebase fallback.
func (s *Storage) SaveSyzygyProbe(hash uint64, entry SyzygyCacheEntry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(syzygyKey(hash), buf.Bytes())
	})
}

// LoadSyzygyProbe looks up a previously persisted probe result for hash.
func (s *Storage) LoadSyzygyProbe(hash uint64) (entry SyzygyCacheEntry, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(syzygyKey(hash))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&entry)
		})
	})

	s.mu.Lock()
	if ok {
		s.syzygyHits++
	} else {
		s.syzygyMiss++
	}
	s.mu.Unlock()

	return entry, ok, err
}

// SyzygyCacheStats returns the running hit/miss counts for the disk-backed
// probe cache, for reporting via "info string" during analysis.
func (s *Storage) SyzygyCacheStats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syzygyHits, s.syzygyMiss
}
