package engine

import (
	"testing"
	"time"

	"github.com/hoavu/aku/internal/board"
	"github.com/hoavu/aku/internal/tablebase"
)

// TestMateInOneMove checks that the search returns the mating move of a
// forced mate-in-1.
func TestMateInOneMove(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	eng := NewEngine(16)

	limits := SearchLimits{Depth: 6, MoveTime: 2 * time.Second}
	move := eng.SearchWithLimits(pos, limits)

	want, err := board.ParseMove("a1a8", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if move != want {
		t.Fatalf("expected mating move %s, got %s", want.String(), move.String())
	}
}

// TestPromotionToQueenPreferred checks that promoting a pawn to a queen is
// chosen over an under-promotion when it is clearly the stronger continuation.
func TestPromotionToQueenPreferred(t *testing.T) {
	pos, err := board.ParseFEN("8/P7/8/8/8/8/8/4k2K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	eng := NewEngine(16)

	limits := SearchLimits{Depth: 6, MoveTime: 2 * time.Second}
	move := eng.SearchWithLimits(pos, limits)

	want, err := board.ParseMove("a7a8q", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if move != want {
		t.Fatalf("expected queen promotion %s, got %s", want.String(), move.String())
	}
}

// fakeRootProber is a tablebase.Prober stand-in that reports every position
// as a found 5-piece root win for a fixed move, without needing real Syzygy
// files on disk. It exercises the root driver's probeBookAndTablebase
// shortcut in isolation from search correctness.
type fakeRootProber struct {
	move board.Move
}

func (f fakeRootProber) Probe(pos *board.Position) tablebase.ProbeResult {
	return tablebase.ProbeResult{Found: true, WDL: tablebase.WDLWin}
}

func (f fakeRootProber) ProbeRoot(pos *board.Position) tablebase.RootResult {
	return tablebase.RootResult{Found: true, Move: f.move, WDL: tablebase.WDLWin, DTZ: 1}
}

func (f fakeRootProber) MaxPieces() int { return 5 }
func (f fakeRootProber) Available() bool { return true }

// TestTablebaseRootMoveUsed checks that a root tablebase hit short-circuits
// the search entirely and returns the tablebase's move directly.
func TestTablebaseRootMoveUsed(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/4K3/1P6/8/8/8/8 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	want := board.NewMove(board.B5, board.B6)

	eng := NewEngine(16)
	eng.SetTablebase(fakeRootProber{move: want})

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 10, MoveTime: 2 * time.Second})
	if move != want {
		t.Fatalf("expected tablebase root move %s, got %s", want.String(), move.String())
	}
}

// TestAvoidsRepetitionWhenWinning checks that a won position avoids
// repeating a prior position rather than shuffling into a draw, given a
// position history registered via SetPositionHistory.
func TestAvoidsRepetitionWhenWinning(t *testing.T) {
	pos, err := board.ParseFEN("6k1/8/6K1/8/8/8/8/3Q4 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	repeatMove, err := board.ParseMove("d1d2", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	undo := pos.MakeMove(repeatMove)
	if !undo.Valid {
		t.Fatalf("expected d1d2 to be a legal move")
	}
	repeatedHash := pos.Hash
	pos.UnmakeMove(repeatMove, undo)

	eng := NewEngine(16)
	eng.SetPositionHistory([]uint64{repeatedHash})

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 8, MoveTime: 2 * time.Second})
	if move == board.NoMove {
		t.Fatalf("expected a move in a winning queen endgame")
	}
	if move == repeatMove {
		t.Errorf("engine repeated a previously visited position (%s) instead of making progress", move.String())
	}
}

// TestRespectsMoveTimeLimit checks that a short move-time budget is honored
// with a reasonable overshoot margin.
func TestRespectsMoveTimeLimit(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	start := time.Now()
	move := eng.SearchWithLimits(pos, SearchLimits{MoveTime: 200 * time.Millisecond})
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Fatalf("expected a move from the starting position")
	}
	if elapsed > 600*time.Millisecond {
		t.Errorf("search took %v, expected to respect a 200ms move time within a 600ms margin", elapsed)
	}
}

// TestDeterministicSingleThreadedSearch checks that, with a single worker,
// two searches of the same position to a fixed depth agree on both the best
// move and the node count.
func TestDeterministicSingleThreadedSearch(t *testing.T) {
	original := NumWorkers
	NumWorkers = 1
	defer func() { NumWorkers = original }()

	pos, err := board.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	limits := SearchLimits{Depth: 6}

	eng1 := NewEngine(16)
	move1 := eng1.SearchWithLimits(pos, limits)
	nodes1 := eng1.getTotalNodes()

	eng2 := NewEngine(16)
	move2 := eng2.SearchWithLimits(pos, limits)
	nodes2 := eng2.getTotalNodes()

	if move1 != move2 {
		t.Errorf("best move differs between runs: %s vs %s", move1.String(), move2.String())
	}
	if nodes1 != nodes2 {
		t.Errorf("node count differs between runs: %d vs %d", nodes1, nodes2)
	}
}
