package ordering

import (
	"slices"

	"github.com/yourusername/ol-results/internal/models"
)

// RankingMode selects how equal positions are numbered. The comparators never
// decide this; callers pass the mode explicitly.
type RankingMode int

const (
	// RankingSequential numbers results 1..n by sorted index.
	RankingSequential RankingMode = iota
	// RankingFair gives results with identical position values the same rank
	// and skips the following numbers (1, 2, 2, 4).
	RankingFair
)

func (m RankingMode) String() string {
	switch m {
	case RankingSequential:
		return "sequential"
	case RankingFair:
		return "fair"
	default:
		return "unknown"
	}
}

// ParseRankingMode accepts "sequential" or "fair"
func ParseRankingMode(s string) (RankingMode, bool) {
	switch s {
	case "sequential", "":
		return RankingSequential, true
	case "fair":
		return RankingFair, true
	}
	return RankingSequential, false
}

// RankedResult pairs a result with its computed rank. Rank is 0 for results
// without a position value.
type RankedResult struct {
	Rank   int
	Result models.Result
}

// Rank sorts a copy of results with CompareResults and numbers them.
func Rank(results []models.Result, mode RankingMode) []RankedResult {
	sorted := slices.Clone(results)
	SortResults(sorted)

	ranked := make([]RankedResult, len(sorted))
	for i, r := range sorted {
		ranked[i].Result = r
		if !r.Position.IsSet() {
			continue
		}
		rank := i + 1
		if mode == RankingFair && i > 0 && ranked[i-1].Rank > 0 &&
			ComparePositions(sorted[i-1].Position, r.Position) == 0 {
			rank = ranked[i-1].Rank
		}
		ranked[i].Rank = rank
	}
	return ranked
}
