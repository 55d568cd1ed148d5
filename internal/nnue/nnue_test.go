package nnue

import (
	"testing"

	"github.com/hoavu/aku/internal/board"
)

// TestIncrementalMatchesFullRebuild checks that applying a move's feature
// deltas to an accumulator produces the same values as rebuilding it from
// scratch on the resulting position.
func TestIncrementalMatchesFullRebuild(t *testing.T) {
	net := NewNetwork()
	net.InitRandom(42)

	moves := []struct {
		fen  string
		move string
	}{
		{board.StartFEN, "e2e4"},
		{board.StartFEN, "g1f3"},
		{"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "g1f3"},
		{"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3", "g8f6"},
	}

	for _, tc := range moves {
		pos, err := board.ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		m, err := board.ParseMove(tc.move, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", tc.move, err)
		}

		var incremental Accumulator
		incremental.ComputeFull(pos, net)

		captured := pos.PieceAt(m.To())
		pos.MakeMove(m)
		incremental.UpdateIncremental(pos, m, captured, net)

		var rebuilt Accumulator
		rebuilt.ComputeFull(pos, net)

		if incremental.White != rebuilt.White {
			t.Errorf("%s after %s: white accumulator diverges from full rebuild", tc.fen, tc.move)
		}
		if incremental.Black != rebuilt.Black {
			t.Errorf("%s after %s: black accumulator diverges from full rebuild", tc.fen, tc.move)
		}
	}
}

// TestHalfKPIndexBounds checks that every piece/square/king combination maps
// into the feature space.
func TestHalfKPIndexBounds(t *testing.T) {
	for _, perspective := range []board.Color{board.White, board.Black} {
		for ksq := board.Square(0); ksq < 64; ksq++ {
			for _, pt := range []board.PieceType{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen} {
				for _, c := range []board.Color{board.White, board.Black} {
					for sq := board.Square(0); sq < 64; sq++ {
						idx := HalfKPIndex(perspective, ksq, pt, c, sq)
						if idx < 0 || idx >= HalfKPSize {
							t.Fatalf("HalfKPIndex(%v, %v, %v, %v, %v) = %d, out of range [0, %d)",
								perspective, ksq, pt, c, sq, idx, HalfKPSize)
						}
					}
				}
			}
		}
	}
}
