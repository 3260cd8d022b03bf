package scoring

import (
	"math"

	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/types"
)

func keywordComponent(analysis types.KeywordAnalysisResult) types.KeywordComponent {
	total := analysis.Total()
	c := types.KeywordComponent{
		MatchRate: analysis.MatchRate,
		Matched:   len(analysis.Matched),
		Total:     total,
	}
	if total == 0 {
		return c
	}

	if analysis.KeywordScore != nil {
		c.Score = clamp(*analysis.KeywordScore, 0, 100)
	} else {
		c.Score = matching.WeightedScore(analysis.Matched, analysis.Missing)
	}

	required := requiredCount(analysis)
	c.RequiredMatched = required.Matched
	c.RequiredTotal = required.Total
	return c
}

func requiredCount(analysis types.KeywordAnalysisResult) types.MatchCount {
	if analysis.RequiredCount != nil {
		return *analysis.RequiredCount
	}
	var mc types.MatchCount
	for _, kw := range analysis.Matched {
		if kw.Importance == types.ImportanceHigh {
			mc.Matched++
			mc.Total++
		}
	}
	for _, kw := range analysis.Missing {
		if kw.Importance == types.ImportanceHigh {
			mc.Total++
		}
	}
	return mc
}

// sectionDepth is the minimum size for a section to earn full credit. A
// present but thinner section earns half.
var sectionDepth = []struct {
	name     types.SectionName
	minWords int
	minItems int
}{
	{types.SectionSummary, 15, 0},
	{types.SectionExperience, 40, 0},
	{types.SectionEducation, 5, 0},
	{types.SectionSkills, 0, 3},
}

func sectionsComponent(signals types.SectionSignals) types.SectionsComponent {
	c := types.SectionsComponent{
		Present: []types.SectionName{},
		Shallow: []types.SectionName{},
		Missing: []types.SectionName{},
	}

	var credit float64
	for _, req := range sectionDepth {
		sec, ok := signals.Get(req.name)
		switch {
		case !ok:
			c.Missing = append(c.Missing, req.name)
		case sec.WordCount >= req.minWords && sec.ItemCount >= req.minItems:
			c.Present = append(c.Present, req.name)
			credit++
		default:
			c.Shallow = append(c.Shallow, req.name)
			credit += 0.5
		}
	}

	c.Score = ratioScore(credit, float64(len(sectionDepth)))
	return c
}

// Content quality sub-weights and targets.
const (
	quantificationWeight = 0.40
	actionVerbWeight     = 0.35
	densityWeight        = 0.25

	targetQuantifiedShare = 0.5
	targetStrongVerbShare = 0.6

	// keyword occurrences per 100 words
	densityFloor   = 1.5
	densityCeiling = 4.0
)

func contentQualityComponent(signals types.ContentQualitySignals) types.ContentQualityComponent {
	var c types.ContentQualityComponent
	words := max(signals.WordCount, 0)
	if words == 0 {
		return c
	}

	bullets := max(signals.BulletCount, 0)
	var quant, verbs float64
	if bullets > 0 {
		quant = unit(float64(max(signals.QuantifiedBullets, 0)) / float64(bullets) / targetQuantifiedShare)
		net := float64(max(signals.StrongVerbBullets, 0)) - 0.5*float64(max(signals.WeakVerbBullets, 0))
		verbs = unit(net / float64(bullets) / targetStrongVerbShare)
	}

	density := 100 * float64(max(signals.KeywordOccurrences, 0)) / float64(words)
	var densityScore float64
	switch {
	case density < densityFloor:
		densityScore = density / densityFloor
	case density <= densityCeiling:
		densityScore = 1
	default:
		// stuffing
		densityScore = unit(1 - (density-densityCeiling)/densityCeiling)
	}

	c.Quantification = int(math.Round(100 * quant))
	c.ActionVerbs = int(math.Round(100 * verbs))
	c.KeywordDensity = int(math.Round(100 * densityScore))
	c.Score = clamp(int(math.Round(100*(quantificationWeight*quant+actionVerbWeight*verbs+densityWeight*densityScore))), 0, 100)
	return c
}

func qualificationFitComponent(analysis types.KeywordAnalysisResult) types.QualificationFitComponent {
	required := requiredCount(analysis)
	c := types.QualificationFitComponent{
		RequiredMatched: required.Matched,
		RequiredTotal:   required.Total,
	}

	for _, kw := range analysis.Matched {
		if isCredential(kw) {
			c.CredentialsMatched++
			c.CredentialsTotal++
		}
	}
	for _, kw := range analysis.Missing {
		if isCredential(kw) {
			c.CredentialsTotal++
		}
	}

	switch {
	case c.CredentialsTotal > 0 && c.RequiredTotal > 0:
		cred := float64(c.CredentialsMatched) / float64(c.CredentialsTotal)
		req := float64(c.RequiredMatched) / float64(c.RequiredTotal)
		c.Score = clamp(int(math.Round(100*(0.6*cred+0.4*req))), 0, 100)
	case c.RequiredTotal > 0:
		c.Score = ratioScore(float64(c.RequiredMatched), float64(c.RequiredTotal))
	}
	return c
}

// isCredential reports whether kw is a hard requirement about the candidate
// rather than a skill.
func isCredential(kw types.ExtractedKeyword) bool {
	if kw.Importance != types.ImportanceHigh {
		return false
	}
	switch kw.Category {
	case types.CategoryCertifications, types.CategoryQualifications, types.CategoryExperience:
		return true
	}
	return false
}

func ratioScore(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return clamp(int(math.Round(100*part/total)), 0, 100)
}

func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
