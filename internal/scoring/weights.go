package scoring

import (
	"fmt"
	"math"

	"atsoptimizer/internal/types"
)

// ComponentWeight is the share of the overall score one component carries.
type ComponentWeight struct {
	Component string
	Weight    float64
}

// WeightTable lists component weights in breakdown order. Weights sum to 1.
type WeightTable []ComponentWeight

// Weight returns the weight for component, or 0.
func (t WeightTable) Weight(component string) float64 {
	for _, cw := range t {
		if cw.Component == component {
			return cw.Weight
		}
	}
	return 0
}

// Sum adds all weights.
func (t WeightTable) Sum() float64 {
	var sum float64
	for _, cw := range t {
		sum += cw.Weight
	}
	return sum
}

// WeightsV1 is keywords 40, skills 30, experience 20, format 10.
var WeightsV1 = WeightTable{
	{types.ComponentKeywords, 0.40},
	{types.ComponentSkills, 0.30},
	{types.ComponentExperience, 0.20},
	{types.ComponentFormat, 0.10},
}

var WeightsV2 = WeightTable{
	{types.ComponentKeywords, 0.40},
	{types.ComponentContentQuality, 0.25},
	{types.ComponentSections, 0.20},
	{types.ComponentFormat, 0.15},
}

var WeightsV21 = WeightTable{
	{types.ComponentKeywords, 0.35},
	{types.ComponentQualificationFit, 0.15},
	{types.ComponentContentQuality, 0.20},
	{types.ComponentSections, 0.15},
	{types.ComponentFormat, 0.15},
}

// WeightsFor returns the table for version.
func WeightsFor(version types.ScoreVersion) (WeightTable, error) {
	switch version {
	case types.ScoreV1:
		return WeightsV1, nil
	case types.ScoreV2:
		return WeightsV2, nil
	case types.ScoreV21:
		return WeightsV21, nil
	}
	return nil, fmt.Errorf("unknown score version %q", version)
}

// Overall is round(Σ weight·component) clamped to [0,100].
func Overall(table WeightTable, components []types.NamedScore) int {
	var total float64
	for _, c := range components {
		total += table.Weight(c.Name) * float64(c.Score)
	}
	return clamp(int(math.Round(total)), 0, 100)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
