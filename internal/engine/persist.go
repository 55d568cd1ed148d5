package engine

import (
	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/storage"
)

// SaveTTSnapshot writes the current transposition table out to store, so a
// future process can warm-start instead of searching the opening moves of
// a new game cold. Called from "ucinewgame" and on clean shutdown.
func (e *Engine) SaveTTSnapshot(store *storage.Storage) error {
	raw := e.tt.Snapshot()
	out := make([]storage.TTEntrySnapshot, len(raw))
	for i, entry := range raw {
		out[i] = storage.TTEntrySnapshot{
			Key:      entry.Key,
			BestMove: uint16(entry.BestMove),
			Score:    entry.Score,
			Depth:    entry.Depth,
			Flag:     uint8(entry.Flag),
			Age:      entry.Age,
		}
	}
	return store.SaveTTSnapshot(out)
}

// LoadTTSnapshot restores a previously saved transposition table snapshot,
// if one exists and its size matches the table's current Hash setting. A
// missing snapshot or a size mismatch is silently ignored: the table is
// simply left as NewTranspositionTable allocated it, cold but valid.
func (e *Engine) LoadTTSnapshot(store *storage.Storage) error {
	snap, ok, err := store.LoadTTSnapshot()
	if err != nil || !ok {
		return err
	}

	entries := make([]TTEntry, len(snap))
	for i, s := range snap {
		entries[i] = TTEntry{
			Key:      s.Key,
			BestMove: board.Move(s.BestMove),
			Score:    s.Score,
			Depth:    s.Depth,
			Flag:     TTFlag(s.Flag),
			Age:      s.Age,
		}
	}
	e.tt.Restore(entries)
	return nil
}
