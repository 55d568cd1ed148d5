package engine

import (
	"github.com/hoavu/aku/internal/board"
)

// Move ordering priorities. Scores in one tier never overlap another tier's
// range, so tiers sort correctly under a single descending comparison.
const (
	PVMoveScore     = 20000000 // Previous-iteration PV move, leftmost path only
	TTExactScore    = 19000000 // TT move with an exact bound
	TTLowerScore    = 18000000 // TT move with a lower bound
	QueenPromoScore = 17000000 // Queen promotions
	CaptureBase     = 16000000 // Captures, scored by victim value + capture-history
	KillerScore1    = 15000000 // First killer move at this ply
	KillerScore2    = 14900000 // Second killer move at this ply
	// Quiet moves score by history alone, which is always below KillerScore2.
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = 10 * victim rank (P=1 .. Q=5) + 5 - attacker rank (P=0, N=B=1, R=2, Q=3, K=4)
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// Quiet-history heuristic (indexed by [sideToMove][from][to], since the
	// same from/to pair means different things for each color).
	history [2][64][64]int

	// Counter move heuristic (indexed by [piece][to])
	counterMoves [12][64]board.Move

	// Capture history (indexed by [attackerPiece][toSquare][capturedPieceType])
	captureHistory [12][64][6]int

	// Countermove history (indexed by [prevPiece][prevTo][movePiece][moveTo])
	countermoveHistory [12][64][12][64]int

	// Continuation history (indexed by [piece][to], itself a [piece][to]
	// table): generalizes countermove history to several plies back, so a
	// quiet move can be scored against what it followed two, three, or more
	// plies earlier, not only the immediately preceding move.
	continuationHistory [12][64]PieceToHistory
}

// PieceToHistory is a [piece][square] history table. The continuation
// history is a table of these: continuationHistory[piece][to] is itself a
// PieceToHistory, keyed by the *next* move's (piece, to).
type PieceToHistory [12][64]int

// continuationHistoryWeight scales the bonus applied to a continuation
// history update by how many plies back its parent move sits. A cutoff two
// plies after a move says much more about that move than one six plies
// after it, so the weight tapers with distance.
var continuationHistoryWeight = [7]int{0, 1024, 896, 640, 448, 320, 224}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}

	for c := range mo.history {
		for i := range mo.history[c] {
			for j := range mo.history[c][i] {
				mo.history[c][i][j] /= 2
			}
		}
	}

	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}

	for i := range mo.captureHistory {
		for j := range mo.captureHistory[i] {
			for k := range mo.captureHistory[i][j] {
				mo.captureHistory[i][j][k] /= 2
			}
		}
	}

	for i := range mo.countermoveHistory {
		for j := range mo.countermoveHistory[i] {
			for k := range mo.countermoveHistory[i][j] {
				for l := range mo.countermoveHistory[i][j][k] {
					mo.countermoveHistory[i][j][k][l] /= 2
				}
			}
		}
	}

	for i := range mo.continuationHistory {
		for j := range mo.continuationHistory[i] {
			table := &mo.continuationHistory[i][j]
			for k := range table {
				for l := range table[k] {
					table[k][l] /= 2
				}
			}
		}
	}
}

// ScoreMoves assigns scores to moves following the six-tier priority:
// PV move (when leftmost) > TT move (exact, then lower) > queen promotions >
// captures by victim value + capture-history > killers > quiet by history.
// This variant is for callers without a TT bound or PV move in hand
// (quiescence).
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove, TTUpperBound, board.NoMove)
	}
	return scores
}

// ScoreMovesWithCounter is the full scoring used by the main search: the
// six-tier priority of ScoreMoves plus counter-move and countermove-history
// bonuses. ttFlag ranks the TT move (exact above lower bound); pvMove is the
// previous iteration's PV move at this ply, or board.NoMove off the leftmost
// path.
func (mo *MoveOrderer) ScoreMovesWithCounter(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move, ttFlag TTFlag, pvMove board.Move) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)

	var prevPiece board.Piece = board.NoPiece
	if prevMove != board.NoMove {
		prevPiece = pos.PieceAt(prevMove.To())
	}

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		scores[i] = mo.scoreMove(pos, move, ply, ttMove, ttFlag, pvMove)

		if move == counterMove && scores[i] < KillerScore2 {
			scores[i] = KillerScore2 - 10000
		}

		if !move.IsCapture(pos) && !move.IsPromotion() && move != ttMove {
			movePiece := pos.PieceAt(move.From())
			cmhScore := mo.GetCountermoveHistoryScore(prevMove, prevPiece, movePiece, move.To())
			scores[i] += cmhScore / 2
		}
	}

	return scores
}

// scoreMove returns the ordering score for a single move, per the six-tier
// priority described on ScoreMoves.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move, ttFlag TTFlag, pvMove board.Move) int {
	if pvMove != board.NoMove && m == pvMove {
		return PVMoveScore
	}

	if m == ttMove {
		if ttFlag == TTExact {
			return TTExactScore
		}
		return TTLowerScore
	}

	if m.IsPromotion() && m.Promotion() == board.Queen {
		return QueenPromoScore
	}

	if m.IsCapture(pos) {
		from := m.From()
		to := m.To()
		attackerPiece := pos.PieceAt(from)
		if attackerPiece == board.NoPiece {
			return CaptureBase
		}
		attacker := attackerPiece.Type()

		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			capturedPiece := pos.PieceAt(to)
			if capturedPiece == board.NoPiece {
				return CaptureBase
			}
			victim = capturedPiece.Type()
		}

		if victim >= board.King || attacker > board.King {
			return CaptureBase
		}

		score := CaptureBase + mvvLva[victim][attacker]*1000
		score += mo.GetCaptureHistoryScore(attackerPiece, to, victim) / 4
		return score
	}

	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	return mo.history[pos.SideToMove][m.From()][m.To()]
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory updates the quiet-history score for a move by the side to
// move us. The bonus is tapered toward zero as the entry approaches the
// cap, keeping the table self-scaling.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int, isGood bool) {
	from := m.From()
	to := m.To()

	bonus := depth * depth
	current := mo.history[us][from][to]
	bonus -= bonus * iabs(current) / 400000
	if isGood {
		mo.history[us][from][to] += bonus
	} else {
		mo.history[us][from][to] -= bonus
	}

	if v := mo.history[us][from][to]; v > 400000 || v < -400000 {
		for c := range mo.history {
			for i := range mo.history[c] {
				for j := range mo.history[c][i] {
					mo.history[c][i][j] /= 2
				}
			}
		}
	}
}

// UpdateCounterMove updates the counter move table.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove board.Move, pos *board.Position) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the counter move for a previous move.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}

// GetHistoryScore returns the quiet-history score for a move by the side to
// move us.
func (mo *MoveOrderer) GetHistoryScore(us board.Color, m board.Move) int {
	return mo.history[us][m.From()][m.To()]
}

// UpdateCaptureHistory updates the capture history for a move, using the
// same taper as UpdateHistory.
func (mo *MoveOrderer) UpdateCaptureHistory(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType, depth int, isGood bool) {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return
	}

	bonus := depth * depth
	current := mo.captureHistory[attackerPiece][toSq][capturedType]
	bonus -= bonus * iabs(current) / 400000

	if isGood {
		mo.captureHistory[attackerPiece][toSq][capturedType] += bonus
	} else {
		mo.captureHistory[attackerPiece][toSq][capturedType] -= bonus
	}

	v := mo.captureHistory[attackerPiece][toSq][capturedType]
	if v > 400000 || v < -400000 {
		mo.scaleCaptureHistory()
	}
}

func (mo *MoveOrderer) scaleCaptureHistory() {
	for i := range mo.captureHistory {
		for j := range mo.captureHistory[i] {
			for k := range mo.captureHistory[i][j] {
				mo.captureHistory[i][j][k] /= 2
			}
		}
	}
}

// GetCaptureHistoryScore returns the capture history score for a capture move.
func (mo *MoveOrderer) GetCaptureHistoryScore(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType) int {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return 0
	}
	return mo.captureHistory[attackerPiece][toSq][capturedType]
}

// UpdateCountermoveHistory updates the countermove history for a quiet move.
func (mo *MoveOrderer) UpdateCountermoveHistory(prevMove, goodMove board.Move, prevPiece, movePiece board.Piece, depth int, isGood bool) {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return
	}

	prevTo := prevMove.To()
	moveTo := goodMove.To()
	bonus := depth * depth

	if isGood {
		mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] += bonus
		if mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] > 400000 {
			mo.scaleCountermoveHistory()
		}
	} else {
		mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] -= bonus
		if mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] < -400000 {
			mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo] = -400000
		}
	}
}

func (mo *MoveOrderer) scaleCountermoveHistory() {
	for i := range mo.countermoveHistory {
		for j := range mo.countermoveHistory[i] {
			for k := range mo.countermoveHistory[i][j] {
				for l := range mo.countermoveHistory[i][j][k] {
					mo.countermoveHistory[i][j][k][l] /= 2
				}
			}
		}
	}
}

// GetCountermoveHistoryScore returns the CMH score for a move given the previous move.
func (mo *MoveOrderer) GetCountermoveHistoryScore(prevMove board.Move, prevPiece, movePiece board.Piece, moveTo board.Square) int {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return 0
	}
	return mo.countermoveHistory[prevPiece][prevMove.To()][movePiece][moveTo]
}

// GetContinuationHistoryTable returns the continuation-history table keyed
// by the move just made (piece, to). The search stack holds onto the
// pointer so a move played several plies later can score itself against it
// without re-deriving which move was played that far back.
func (mo *MoveOrderer) GetContinuationHistoryTable(piece board.Piece, to board.Square) *PieceToHistory {
	if piece >= board.NoPiece {
		return nil
	}
	return &mo.continuationHistory[piece][to]
}

// UpdateContinuationHistory updates the continuation-history entry recorded
// against the move (prevPiece, prevTo) plyBack plies earlier, applying the
// same saturating taper as the other history tables, scaled by
// continuationHistoryWeight for the distance involved.
func (mo *MoveOrderer) UpdateContinuationHistory(prevPiece board.Piece, prevTo board.Square, piece board.Piece, to board.Square, depth, plyBack int, isGood bool) {
	if prevPiece >= board.NoPiece || piece >= board.NoPiece {
		return
	}
	if plyBack < 0 || plyBack >= len(continuationHistoryWeight) {
		return
	}
	weight := continuationHistoryWeight[plyBack]
	if weight == 0 {
		return
	}

	table := &mo.continuationHistory[prevPiece][prevTo]
	bonus := depth * depth * weight / 1024
	current := table[piece][to]
	bonus -= bonus * iabs(current) / 400000

	if isGood {
		table[piece][to] += bonus
	} else {
		table[piece][to] -= bonus
	}

	if v := table[piece][to]; v > 400000 || v < -400000 {
		for i := range mo.continuationHistory {
			for j := range mo.continuationHistory[i] {
				t := &mo.continuationHistory[i][j]
				for k := range t {
					for l := range t[k] {
						t[k][l] /= 2
					}
				}
			}
		}
	}
}
