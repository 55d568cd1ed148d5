package engine

import "math"

// lmrReductions[depth][moveCount] is the precomputed base late-move
// reduction, 21.46*ln(depth)*ln(moveCount)/1024 truncated to an int. For
// every index below 64 that product is under 1, so every entry is 0 and the
// reduction search.go applies comes from its own adjustments and its
// one-ply floor.
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(21.46 * math.Log(float64(d)) * math.Log(float64(m)) / 1024.0)
		}
	}
}

// baseLMR looks up the precomputed reduction for a depth/move-count pair,
// clamping both indices into the table's range.
func baseLMR(depth, moveCount int) int {
	d, m := depth, moveCount
	if d > 63 {
		d = 63
	}
	if m > 63 {
		m = 63
	}
	return lmrReductions[d][m]
}
