package engine

import (
	"github.com/hoavu/aku/internal/tablebase"
)

// maxQuiescencePly bounds the capture-only recursion so a pathological chain
// of captures and recaptures cannot overflow the per-worker scratch arrays.
const maxQuiescencePly = 32

// quiescence extends a leaf with a capture-only (plus promotion) search until
// the position is quiet, returning a score from the side-to-move perspective.
func (w *Worker) quiescence(ply int, alpha, beta int) int {
	return w.quiescenceAt(ply, 0, alpha, beta)
}

// quiescenceAt is quiescence with qPly tracking the number of capture plies
// played since entry, independent of the negamax ply the search descended
// from. It deliberately skips the machinery negamax uses at interior nodes:
// no TT probe or store (the positions visited here are usually one-off and
// the extra locking would outweigh the hit rate), no check evasions or
// extensions (a side in check at a quiescence node falls out through
// negamax's own check-extension instead), and a fail-hard stand-pat floor so
// the search never reports worse than "do nothing" when a capture isn't
// forced.
func (w *Worker) quiescenceAt(ply, qPly int, alpha, beta int) int {
	if w.stopFlag.Load() {
		return 0
	}
	w.nodes++
	if ply > w.selDepth {
		w.selDepth = ply
	}

	if ply >= MaxPly || qPly > maxQuiescencePly {
		return w.evaluate()
	}

	// step 1: syzygy probe, same scoring as negamax.
	if w.tbProber != nil {
		pieceCount := tablebase.CountPieces(w.pos)
		if pieceCount <= w.tbProber.MaxPieces() {
			if tbResult := w.tbProber.Probe(w.pos); tbResult.Found {
				return tablebase.WDLToScore(tbResult.WDL, ply)
			}
		}
	}

	// step 2: stand pat, fail-hard.
	standPat := w.evaluate()
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	// Big delta pruning: even winning a queen outright can't reach alpha.
	if standPat+QueenValue < alpha {
		return alpha
	}

	// step 3: generate and SEE-sort captures (promotions ride along as
	// GenerateCaptures already includes promoting pushes).
	moves := w.pos.GenerateCaptures()
	scores := make([]int, moves.Len())
	for i := range scores {
		scores[i] = SEE(w.pos, moves.Get(i))
	}

	// step 4: try each capture in descending SEE order.
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		seeValue := SEE(w.pos, move)
		if seeValue < 0 {
			continue
		}
		if standPat+seeValue+200 < alpha {
			continue
		}

		w.computeDirtyPieces(move)
		w.nnuePush()
		undo := w.pos.MakeMove(move)
		if !undo.Valid {
			w.pos.UnmakeMove(move, undo)
			w.nnuePop()
			continue
		}

		score := -w.quiescenceAt(ply+1, qPly+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)
		w.nnuePop()

		if score > alpha {
			alpha = score
			if alpha >= beta {
				return beta
			}
		}
	}

	return alpha
}
