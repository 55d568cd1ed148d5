package engine

import "github.com/hoavu/aku/internal/board"

// bnMateLightSquares and bnMateDarkSquares steer a lone king toward the
// corner that the winning side's bishop controls, the only corner a
// bishop+knight mate can actually be delivered in. Index by the losing
// king's square.
var bnMateLightSquares = [64]int{
	0, 10, 20, 30, 40, 50, 60, 70,
	10, 20, 30, 40, 50, 60, 70, 60,
	20, 30, 40, 50, 60, 70, 60, 50,
	30, 40, 50, 60, 70, 60, 50, 40,
	40, 50, 60, 70, 60, 50, 40, 30,
	50, 60, 70, 60, 50, 40, 30, 20,
	60, 70, 60, 50, 40, 30, 20, 10,
	70, 60, 50, 40, 30, 20, 10, 0,
}

var bnMateDarkSquares = [64]int{
	70, 60, 50, 40, 30, 20, 10, 0,
	60, 70, 60, 50, 40, 30, 20, 10,
	50, 60, 70, 60, 50, 40, 30, 20,
	40, 50, 60, 70, 60, 50, 40, 30,
	30, 40, 50, 60, 70, 60, 50, 40,
	20, 30, 40, 50, 60, 70, 60, 50,
	10, 20, 30, 40, 50, 60, 70, 60,
	0, 10, 20, 30, 40, 50, 60, 70,
}

// manhattanDistance returns the taxicab distance between two squares.
func manhattanDistance(a, b board.Square) int {
	return iabs(a.File()-b.File()) + iabs(a.Rank()-b.Rank())
}

func iabs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// mopUpMaterial returns a simple mop-up material count: pawn=1, minor=3, rook=5,
// queen=10. It is only meaningful once no pawns remain on the board.
func mopUpMaterial(pos *board.Position, c board.Color) int {
	return pos.Pieces[c][board.Pawn].PopCount() +
		pos.Pieces[c][board.Knight].PopCount()*3 +
		pos.Pieces[c][board.Bishop].PopCount()*3 +
		pos.Pieces[c][board.Rook].PopCount()*5 +
		pos.Pieces[c][board.Queen].PopCount()*10
}

// IsMopUpPhase reports whether the position has settled into a pawnless,
// clearly decided material imbalance where the winning side's only task is
// to drive the enemy king to the edge of the board (KQvK, KRvK, KBBvK, and
// similar). Syzygy tablebase probing normally resolves these positions
// exactly; this exists as a fallback for the rare case where the tablebase
// is unavailable or the piece count exceeds what is cached.
func IsMopUpPhase(pos *board.Position) bool {
	if pos.Pieces[board.White][board.Pawn] != 0 || pos.Pieces[board.Black][board.Pawn] != 0 {
		return false
	}

	whiteMaterial := mopUpMaterial(pos, board.White)
	blackMaterial := mopUpMaterial(pos, board.Black)
	return iabs(whiteMaterial-blackMaterial) > 4
}

// MopUpScore returns a White-relative score that rewards the winning side
// for confining the losing king, substituting for a tablebase-exact result
// when none is available.
func MopUpScore(pos *board.Position) int {
	whiteMaterial := mopUpMaterial(pos, board.White)
	blackMaterial := mopUpMaterial(pos, board.Black)

	winner := board.White
	if blackMaterial > whiteMaterial {
		winner = board.Black
	}
	loser := winner.Other()

	winningKingSq := pos.Pieces[winner][board.King].LSB()
	losingKingSq := pos.Pieces[loser][board.King].LSB()
	kingDist := manhattanDistance(winningKingSq, losingKingSq)

	winningMaterial := whiteMaterial
	losingMaterial := blackMaterial
	if winner == board.Black {
		winningMaterial, losingMaterial = blackMaterial, whiteMaterial
	}
	materialScore := 100 * (winningMaterial - losingMaterial)

	bnMate := pos.Pieces[winner][board.Queen] == 0 &&
		pos.Pieces[winner][board.Rook] == 0 &&
		pos.Pieces[winner][board.Bishop].PopCount() == 1 &&
		pos.Pieces[winner][board.Knight].PopCount() == 1

	var score int
	if bnMate {
		bishopSq := pos.Pieces[winner][board.Bishop].LSB()
		table := bnMateLightSquares
		if darkSquares.IsSet(bishopSq) {
			table = bnMateDarkSquares
		}
		score = 5000 + 2*materialScore + 150*(14-kingDist) + 100*table[losingKingSq]
	} else {
		score = 5000 + materialScore + 150*(14-kingDist) + 475*manhattanDistance(losingKingSq, board.E4)
	}

	if winner == board.Black {
		return -score
	}
	return score
}
