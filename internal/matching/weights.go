package matching

import (
	"math"

	"atsoptimizer/internal/types"
)

// Importance weights and match-type multipliers for the weighted keyword
// score.
const (
	highImportanceWeight   = 3.0
	mediumImportanceWeight = 2.0
	lowImportanceWeight    = 1.0

	exactMultiplier    = 1.0
	fuzzyMultiplier    = 0.8
	semanticMultiplier = 0.6
)

func importanceWeight(i types.Importance) float64 {
	switch i {
	case types.ImportanceHigh:
		return highImportanceWeight
	case types.ImportanceMedium:
		return mediumImportanceWeight
	default:
		return lowImportanceWeight
	}
}

// MatchMultiplier is the credit a match of type mt earns.
func MatchMultiplier(mt types.MatchType) float64 {
	switch mt {
	case types.MatchExact:
		return exactMultiplier
	case types.MatchFuzzy:
		return fuzzyMultiplier
	case types.MatchSemantic:
		return semanticMultiplier
	default:
		return 0
	}
}

// WeightedScore is round(100 * Σ weight·multiplier / Σ weight) over all
// keywords, matched and missing. Missing keywords earn nothing.
func WeightedScore(matched, missing []types.ExtractedKeyword) int {
	var earned, possible float64
	for _, kw := range matched {
		w := importanceWeight(kw.Importance)
		earned += w * MatchMultiplier(kw.MatchType)
		possible += w
	}
	for _, kw := range missing {
		possible += importanceWeight(kw.Importance)
	}
	if possible == 0 {
		return 0
	}
	return int(math.Round(100 * earned / possible))
}

// requirementCounts splits keywords into required (high importance) and
// preferred (medium and low).
func requirementCounts(matched, missing []types.ExtractedKeyword) (*types.MatchCount, *types.MatchCount) {
	required := &types.MatchCount{}
	preferred := &types.MatchCount{}
	for _, kw := range matched {
		if kw.Importance == types.ImportanceHigh {
			required.Matched++
			required.Total++
		} else {
			preferred.Matched++
			preferred.Total++
		}
	}
	for _, kw := range missing {
		if kw.Importance == types.ImportanceHigh {
			required.Total++
		} else {
			preferred.Total++
		}
	}
	return required, preferred
}
