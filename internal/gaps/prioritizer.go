// Package gaps ranks missing keywords so the most valuable ones are added
// first.
package gaps

import (
	"slices"

	"atsoptimizer/internal/types"
)

// QuickWinLimit is the number of keywords returned as quick wins.
const QuickWinLimit = 3

// Prioritize counts missing keywords by importance and picks the top
// QuickWinLimit, ordered high, medium, low. Ties keep their input order.
// missing is not modified.
func Prioritize(missing []types.ExtractedKeyword) types.GapAnalysis {
	analysis := types.GapAnalysis{QuickWins: []types.ExtractedKeyword{}}

	for _, kw := range missing {
		switch kw.Importance {
		case types.ImportanceHigh:
			analysis.Counts.High++
		case types.ImportanceMedium:
			analysis.Counts.Medium++
		case types.ImportanceLow:
			analysis.Counts.Low++
		}
	}

	ranked := slices.Clone(missing)
	slices.SortStableFunc(ranked, func(a, b types.ExtractedKeyword) int {
		return a.Importance.Rank() - b.Importance.Rank()
	})
	if len(ranked) > QuickWinLimit {
		ranked = ranked[:QuickWinLimit]
	}
	analysis.QuickWins = append(analysis.QuickWins, ranked...)
	return analysis
}
