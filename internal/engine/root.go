package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/tablebase"
)

// aspirationWindow is the initial half-width of the root aspiration bracket,
// doubled on every fail until the search result lands inside it.
const aspirationWindow = 50

// rootDriver holds the pieces the root search needs to report progress and
// decide when to stop.
type rootDriver struct {
	startTime time.Time
	tm        *TimeManager // nil when no UCI time control is active
	nodeLimit uint64
}

// rootBest is the shared best-so-far for one depth's parallel root-move
// loop. It is fail-soft (the true best score is kept even below the
// aspiration floor, so a fail-low is detectable) and raises the shared alpha
// as moves complete, so later moves are searched with the tightest window
// any worker has proven.
type rootBest struct {
	mu    sync.Mutex
	any   bool
	move  board.Move
	score int
	pv    []board.Move
	alpha int
}

func (rb *rootBest) currentAlpha() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.alpha
}

func (rb *rootBest) offer(move board.Move, score int, pv []board.Move) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if !rb.any || score > rb.score {
		rb.any = true
		rb.move, rb.score, rb.pv = move, score, pv
	}
	if score > rb.alpha {
		rb.alpha = score
	}
}

func (rb *rootBest) result() (board.Move, int, []board.Move, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.move, rb.score, rb.pv, rb.any
}

// SearchWithLimits finds the best move with a fixed depth/move-time budget
// (no UCI time control).
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	if move, ok := e.probeBookAndTablebase(pos); ok {
		return move
	}

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	for _, w := range e.workers {
		w.Reset()
	}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if limits.MoveTime > 0 {
		ctx, cancel = context.WithTimeout(ctx, limits.MoveTime)
		defer cancel()
	}

	drv := &rootDriver{startTime: time.Now(), nodeLimit: limits.Nodes}
	return e.runRootSearch(ctx, pos, maxDepth, drv)
}

// SearchWithUCILimits finds the best move honoring UCI tournament time
// controls (wtime/btime/winc/binc), stopping early once the best move has
// proven stable past the computed optimum.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	if move, ok := e.probeBookAndTablebase(pos); ok {
		return move
	}

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.stopFlag.Store(false)
	e.tt.NewSearch()
	for _, w := range e.workers {
		w.Reset()
	}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	ctx := context.Background()
	if d := tm.HardLimit(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	drv := &rootDriver{startTime: time.Now(), tm: tm, nodeLimit: limits.Nodes}
	return e.runRootSearch(ctx, pos, maxDepth, drv)
}

// probeBookAndTablebase tries the forced-move shortcut, the opening book,
// and then the tablebase before committing to a full search; all three are
// instantaneous relative to search time and shortcut the root driver
// entirely when they hit.
func (e *Engine) probeBookAndTablebase(pos *board.Position) (board.Move, bool) {
	// With a single legal move there is nothing to decide; searching it only
	// burns clock.
	if moves := pos.GenerateLegalMoves(); moves.Len() == 1 {
		return moves.Get(0), true
	}
	if e.book != nil {
		if move, ok := e.book.Probe(pos); ok {
			return move, true
		}
	}
	if e.tablebase != nil && e.tablebase.Available() {
		pieceCount := tablebase.CountPieces(pos)
		if pieceCount <= e.tablebase.MaxPieces() {
			if result := e.tablebase.ProbeRoot(pos); result.Found && result.Move != board.NoMove {
				return result.Move, true
			}
		}
	}
	return board.NoMove, false
}

// runRootSearch is the iterative-deepening driver. Each depth distributes
// the root moves dynamically across the worker pool (a shared claim counter,
// so a worker that finishes a cheap subtree immediately steals the next
// unclaimed move), with the previous depth's best move leading the list and
// an aspiration window around its score once deep enough.
func (e *Engine) runRootSearch(ctx context.Context, pos *board.Position, maxDepth int, drv *rootDriver) board.Move {
	legal := pos.GenerateLegalMoves()
	if legal.Len() == 0 {
		return board.NoMove
	}
	rootMoves := make([]board.Move, legal.Len())
	for i := range rootMoves {
		rootMoves[i] = legal.Get(i)
	}

	for _, w := range e.workers {
		w.InitSearch(pos)
	}

	// Workers poll the stop flag inside negamax but only consult the context
	// between root moves, so the deadline has to be translated into the flag
	// or a deep subtree would overrun it.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.stopFlag.Store(true)
		case <-watchDone:
		}
	}()
	defer close(watchDone)

	var (
		bestMove  board.Move
		bestScore int
		bestPV    []board.Move
		sameBest  int
	)

	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() || ctx.Err() != nil {
			break
		}

		// Prior depth's best move leads the list; the rest keep their order.
		if bestMove != board.NoMove {
			for i, m := range rootMoves {
				if m == bestMove {
					copy(rootMoves[1:i+1], rootMoves[:i])
					rootMoves[0] = bestMove
					break
				}
			}
		}
		for _, w := range e.workers {
			w.SetPreviousPV(bestPV)
		}

		move, score, pv, completed := e.searchDepthRoot(ctx, rootMoves, depth, bestScore)
		if !completed {
			break
		}

		if move == bestMove {
			sameBest++
		} else {
			sameBest = 0
		}
		bestMove, bestScore, bestPV = move, score, pv

		e.reportInfo(drv, WorkerResult{
			Depth:    depth,
			SelDepth: e.maxSelDepth(),
			Score:    score,
			Move:     move,
			PV:       pv,
			Nodes:    e.getTotalNodes(),
		})

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}
		if drv.tm != nil {
			if drv.tm.ShouldStop() {
				break
			}
			// Past the soft limit, a best move that repeated the previous
			// depth's verdict is good enough to commit to.
			if drv.tm.PastOptimum() && sameBest >= 1 {
				break
			}
		}
		if drv.nodeLimit > 0 && e.getTotalNodes() >= drv.nodeLimit {
			break
		}
	}

	e.stopFlag.Store(true)
	return bestMove
}

// searchDepthRoot runs one iterative-deepening step: an infinite window
// through depth 6, then an aspiration bracket around the previous score,
// doubling the exceeded side on every fail until the result lands inside.
func (e *Engine) searchDepthRoot(ctx context.Context, moves []board.Move, depth, prevScore int) (board.Move, int, []board.Move, bool) {
	alpha, beta := -Infinity, Infinity
	window := aspirationWindow
	if depth > 6 {
		alpha, beta = prevScore-window, prevScore+window
	}

	for {
		move, score, pv, ok := e.searchRootMovesParallel(ctx, moves, depth, alpha, beta)
		if !ok {
			return move, score, pv, false
		}

		switch {
		case score <= alpha && alpha > -Infinity:
			window *= 2
			alpha = score - window
			if alpha < -Infinity {
				alpha = -Infinity
			}
		case score >= beta && beta < Infinity:
			window *= 2
			beta = score + window
			if beta > Infinity {
				beta = Infinity
			}
		default:
			return move, score, pv, true
		}
	}
}

// searchRootMovesParallel fans the ordered root moves out over the worker
// pool. Distribution is dynamic: workers claim the next unclaimed index from
// a shared counter, so move cost imbalance self-balances. Each claimed move
// is searched with the tightest alpha proven so far; only the errgroup's
// context, the shared TT, and the rootBest mutex are shared between workers.
func (e *Engine) searchRootMovesParallel(ctx context.Context, moves []board.Move, depth, alpha, beta int) (board.Move, int, []board.Move, bool) {
	best := &rootBest{score: -Infinity, alpha: alpha}
	var next atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range e.workers {
		worker := w
		g.Go(func() error {
			for {
				if gctx.Err() != nil || e.stopFlag.Load() {
					return nil
				}
				i := int(next.Add(1)) - 1
				if i >= len(moves) {
					return nil
				}

				score, pv, ok := worker.SearchRootMove(moves[i], depth, best.currentAlpha(), beta, i == 0)
				if !ok {
					return nil
				}
				best.offer(moves[i], score, pv)
			}
		})
	}
	_ = g.Wait()

	move, score, pv, any := best.result()
	return move, score, pv, any && !e.stopFlag.Load()
}

// maxSelDepth returns the deepest ply any worker reached this search.
func (e *Engine) maxSelDepth() int {
	s := 0
	for _, w := range e.workers {
		if w.SelDepth() > s {
			s = w.SelDepth()
		}
	}
	return s
}

// getTotalNodes returns the total nodes searched by all root workers.
func (e *Engine) getTotalNodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}
