package engine

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/book"
	"github.com/hoavu/aku/internal/nnue"
	"github.com/hoavu/aku/internal/tablebase"
	"github.com/hoavu/aku/sfnnue"
)

// NumWorkers is the number of parallel search workers (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult contains the result of a single PV search.
type SearchResult struct {
	Move  board.Move
	Score int
	PV    []board.Move
	Depth int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // depth 7, 1s
	Hard                     // Maximum strength: depth 40, 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second}, // Max strength (time-limited)
}

// Engine is the chess AI engine.
type Engine struct {
	// Workers for parallel search
	workers       []*Worker
	pawnTable     *PawnTable
	tt            *TranspositionTable
	sharedHistory *SharedHistory // History pooled across all workers
	stopFlag      atomic.Bool

	// mpWorker drives the sequential Multi-PV search (SearchMultiPV): one
	// worker reused across a small number of excluded-move iterations,
	// since Multi-PV doesn't benefit from root-move parallelism the way a
	// single best-move search does.
	mpWorker *Worker

	difficulty       Difficulty
	book             *book.Book
	tablebase        tablebase.Prober
	syzygyProbeDepth int

	// Position history for repetition detection
	rootPosHashes []uint64

	// NNUE evaluation
	useNNUE        bool
	nnueNet        *sfnnue.Networks // Shared networks (immutable after load)
	simpleNNUEPath string           // Single-file HalfKP network, middle tier

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	sharedHistory := NewSharedHistory()

	e := &Engine{
		tt:            tt,
		pawnTable:     NewPawnTable(1), // Shared pawn table for the Multi-PV worker
		sharedHistory: sharedHistory,
		difficulty:    Medium,
		workers:       make([]*Worker, NumWorkers),
	}

	log.Printf("[Engine] Creating %d workers (GOMAXPROCS=%d)", NumWorkers, runtime.GOMAXPROCS(0))

	// Create workers, each with its own pawn table for thread safety
	for i := 0; i < NumWorkers; i++ {
		workerPawnTable := NewPawnTable(1) // 1MB per worker
		e.workers[i] = NewWorker(i, tt, workerPawnTable, sharedHistory, &e.stopFlag)
	}

	e.mpWorker = NewWorker(NumWorkers, tt, e.pawnTable, sharedHistory, &e.stopFlag)

	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// SetThreads rebuilds the worker pool with n workers, carrying over the
// shared state (TT, shared history, stop flag) and whatever per-worker wiring
// the engine has accumulated (NNUE networks, tablebase prober, root history).
// Like ResizeTT, it must only be called between games.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = make([]*Worker, n)
	for i := 0; i < n; i++ {
		w := NewWorker(i, e.tt, NewPawnTable(1), e.sharedHistory, &e.stopFlag)
		if e.nnueNet != nil {
			w.initNNUE(e.nnueNet)
		}
		w.useNNUE = e.useNNUE
		if e.tablebase != nil {
			w.SetTablebase(e.tablebase, e.syzygyProbeDepth)
		}
		if e.rootPosHashes != nil {
			w.SetRootHistory(e.rootPosHashes)
		}
		if e.simpleNNUEPath != "" {
			if ev, err := nnue.NewEvaluator(e.simpleNNUEPath); err == nil {
				w.simpleNNUE = ev
			}
		}
		e.workers[i] = w
	}
}

// Threads returns the current worker pool size.
func (e *Engine) Threads() int {
	return len(e.workers)
}

// ResizeTT replaces the transposition table with a freshly allocated one of
// the requested size and rebinds it into every worker. Per the data model,
// resizing only ever happens between games (on a UCI "Hash" option change),
// never while a search is in flight.
func (e *Engine) ResizeTT(sizeMB int) {
	tt := NewTranspositionTable(sizeMB)
	e.tt = tt
	for _, w := range e.workers {
		w.SetTT(tt)
	}
	if e.mpWorker != nil {
		e.mpWorker.SetTT(tt)
	}
}

// LoadBook loads an opening book from a Polyglot file.
func (e *Engine) LoadBook(filename string) error {
	b, err := book.LoadPolyglot(filename)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook sets the opening book.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// HasBook returns true if an opening book is loaded.
func (e *Engine) HasBook() bool {
	return e.book != nil
}

// SetTablebase sets the tablebase prober used both for root probing (an
// instant lookup before any search starts) and for in-search probing at
// interior nodes, which every worker needs its own reference to.
func (e *Engine) SetTablebase(tb tablebase.Prober) {
	e.tablebase = tb
	for _, w := range e.workers {
		w.SetTablebase(tb, e.syzygyProbeDepth)
	}
	e.mpWorker.SetTablebase(tb, e.syzygyProbeDepth)
}

// SetSyzygyProbeDepth sets the minimum remaining depth at which interior
// search nodes probe the tablebase; shallower nodes skip the probe since
// the lookup cost outweighs the cutoff it would buy so close to the leaf.
func (e *Engine) SetSyzygyProbeDepth(depth int) {
	e.syzygyProbeDepth = depth
	for _, w := range e.workers {
		w.SetTablebase(e.tablebase, depth)
	}
	e.mpWorker.SetTablebase(e.tablebase, depth)
}

// EnableLichessTablebase enables Lichess online tablebase lookups.
func (e *Engine) EnableLichessTablebase() {
	e.SetTablebase(tablebase.NewLichessProber())
}

// HasTablebase returns true if a tablebase is available.
func (e *Engine) HasTablebase() bool {
	return e.tablebase != nil && e.tablebase.Available()
}

// SetPositionHistory sets the position history for repetition detection.
// This should be called before Search() with hashes from the game's move history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)

	// Set for all workers
	for _, w := range e.workers {
		w.SetRootHistory(hashes)
	}

	// Set for the Multi-PV worker
	e.mpWorker.SetRootHistory(hashes)
}

// Search finds the best move for the given position.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// SearchWithLimits, SearchWithUCILimits, and the root worker loop that
// backs both live in root.go.

// SearchMultiPV finds multiple best moves (principal variations) for analysis.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		// Search excluding already-found best moves
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{
			Move:  move,
			Score: score,
			PV:    pv,
			Depth: depth,
		})
		excludedMoves = append(excludedMoves, move)
	}

	// Sort results by score (descending) to ensure best moves are first
	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}

	return results
}

// searchWithExclusions searches for best move excluding certain moves at the root.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	e.mpWorker.Reset()
	e.mpWorker.SetExcludedMoves(excluded)
	e.tt.NewSearch()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int
	var bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		e.mpWorker.InitSearch(pos)
		move, score := e.mpWorker.SearchDepth(depth, -Infinity, Infinity)

		if e.mpWorker.stopped() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			bestDepth = depth
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}

		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			remaining := limits.MoveTime - elapsed
			if remaining < elapsed {
				break
			}
		}
	}

	pv := e.mpWorker.GetPV()
	e.mpWorker.SetExcludedMoves(nil) // Clear exclusions

	return bestMove, bestScore, pv, bestDepth
}

// Stop stops the current search. The stop flag is shared by every worker,
// including the Multi-PV worker, so a single store is enough.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.sharedHistory.Clear()
	// Clear all worker orderers
	for _, w := range e.workers {
		w.orderer.Clear()
	}
	e.mpWorker.orderer.Clear()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// LoadNNUE loads NNUE network files.
func (e *Engine) LoadNNUE(bigPath, smallPath string) error {
	log.Printf("[Engine] Loading NNUE networks...")
	log.Printf("[Engine]   Big network: %s", bigPath)
	log.Printf("[Engine]   Small network: %s", smallPath)

	nets, err := sfnnue.LoadNetworks(bigPath, smallPath)
	if err != nil {
		log.Printf("[Engine] Failed to load NNUE: %v", err)
		return err
	}
	e.nnueNet = nets

	// Initialize NNUE evaluators for all workers
	for _, w := range e.workers {
		w.initNNUE(nets)
	}

	// Initialize for the Multi-PV worker
	e.mpWorker.initNNUE(nets)

	log.Printf("[Engine] NNUE networks loaded successfully")
	return nil
}

// LoadSimpleNNUE loads the single-file HalfKP network and hands each worker
// its own evaluator instance, since the accumulator stack inside is not safe
// to share across goroutines. This tier is only consulted when the dual
// Stockfish-format networks aren't loaded.
func (e *Engine) LoadSimpleNNUE(path string) error {
	for _, w := range e.workers {
		ev, err := nnue.NewEvaluator(path)
		if err != nil {
			return err
		}
		w.simpleNNUE = ev
	}
	ev, err := nnue.NewEvaluator(path)
	if err != nil {
		return err
	}
	e.mpWorker.simpleNNUE = ev
	e.simpleNNUEPath = path
	log.Printf("[Engine] Simple NNUE network loaded from %s", path)
	return nil
}

// SetUseNNUE enables or disables NNUE evaluation.
func (e *Engine) SetUseNNUE(use bool) {
	e.useNNUE = use
	for _, w := range e.workers {
		w.useNNUE = use
	}
	e.mpWorker.useNNUE = use

	if use {
		log.Printf("[Engine] Evaluation mode: NNUE")
	} else {
		log.Printf("[Engine] Evaluation mode: Classical")
	}
}

// UseNNUE returns whether NNUE evaluation is enabled.
func (e *Engine) UseNNUE() bool {
	return e.useNNUE
}

// HasNNUE returns whether NNUE networks are loaded.
func (e *Engine) HasNNUE() bool {
	return e.nnueNet != nil
}

