package engine

import "time"

// reportInfo pushes a completed root iteration out through Engine.OnInfo,
// the hook the UCI layer wires up to emit "info depth ... pv ..." lines.
// It is a no-op when no callback is registered (e.g. during Perft or tests).
func (e *Engine) reportInfo(drv *rootDriver, r WorkerResult) {
	if e.OnInfo == nil {
		return
	}
	e.OnInfo(SearchInfo{
		Depth:    r.Depth,
		SelDepth: r.SelDepth,
		Score:    r.Score,
		Nodes:    e.getTotalNodes(),
		Time:     time.Since(drv.startTime),
		PV:       r.PV,
		HashFull: e.tt.HashFull(),
	})
}

// ScoreToString renders a centipawn score as a human-readable string,
// switching to mate distance once the score crosses into mate-scoring
// range. Used by non-UCI front ends (CLI/analysis tooling) that want a
// score without reimplementing the mate-score convention.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// itoa is a small integer-to-string helper kept local to avoid pulling in
// fmt for a single call site.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
