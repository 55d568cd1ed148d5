package engine

// Search feature toggles. All on in normal play; individually switchable so
// a bench run can isolate the effect of one pruning idea at a time.
var (
	EnableRFP             = true // Reverse futility pruning
	EnableRazoring        = true
	EnableNMP             = true // Null move pruning
	EnableProbcut         = true
	EnableMulticut        = true
	EnableFutilityPruning = true
	EnableSingularExt     = true
	EnableSEEPruning      = true
	EnableLMP             = true // Late move pruning
	EnableHistoryPruning  = true
	EnableThreatExt       = true
	EnableHindsightDepth  = true
)

// Pruning and extension thresholds.
const (
	// Minimum remaining depth for probcut and multicut to fire.
	probcutDepth  = 5
	multicutDepth = 8

	// Multicut samples the first multicutMoves ordered moves at reduced
	// depth and prunes once multicutRequired of them fail high.
	multicutMoves    = 6
	multicutRequired = 3

	// Quiet moves below this history score get pruned at shallow depth.
	historyPruningThreshold = -2000

	// Threat extensions only trigger deep enough that the bitboard scan
	// pays for itself, and only for hanging pieces worth at least a rook.
	threatExtensionMinDepth  = 8
	threatExtensionThreshold = RookValue
)

// lmpThreshold[depth] is the move count after which quiet moves are skipped
// entirely at that remaining depth (cut to two thirds when not improving).
var lmpThreshold = [8]int{0, 5, 8, 12, 17, 23, 30, 38}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
