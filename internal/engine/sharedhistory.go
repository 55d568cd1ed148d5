package engine

import "sync/atomic"

// SharedHistory is a quiet-move history table shared across every search
// worker, so a beta cutoff one worker finds immediately biases every other
// worker's move ordering for that from/to pair, not just its own
// thread-local quiet-history table. Indexed by [from][to] only, not by side
// to move: the workers all search variations of the same root position, so
// pooling what they learn helps more than partitioning it.
type SharedHistory struct {
	scores [64][64]atomic.Int32
}

// NewSharedHistory creates an empty shared history table.
func NewSharedHistory() *SharedHistory {
	return &SharedHistory{}
}

// Get returns the current shared-history score for a from/to pair.
func (sh *SharedHistory) Get(from, to int) int {
	return int(sh.scores[from][to].Load())
}

// Update applies a cutoff bonus to a from/to pair, clamped to the same
// range as the per-worker quiet-history table.
func (sh *SharedHistory) Update(from, to, bonus int) {
	cell := &sh.scores[from][to]
	v := int(cell.Load()) + bonus
	if v > 400000 {
		v = 400000
	} else if v < -400000 {
		v = -400000
	}
	cell.Store(int32(v))
}

// Clear resets the shared history table between games.
func (sh *SharedHistory) Clear() {
	for i := range sh.scores {
		for j := range sh.scores[i] {
			sh.scores[i][j].Store(0)
		}
	}
}
