package scoring

import (
	"fmt"

	"atsoptimizer/internal/types"
)

var componentLabels = map[string]string{
	types.ComponentKeywords:         "Keyword Match",
	types.ComponentSkills:           "Skills & Sections",
	types.ComponentExperience:       "Experience Quality",
	types.ComponentContentQuality:   "Content Quality",
	types.ComponentSections:         "Section Coverage",
	types.ComponentFormat:           "ATS Format",
	types.ComponentQualificationFit: "Qualification Fit",
}

// ComponentExplanation describes one weighted component of a score.
type ComponentExplanation struct {
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	Score        int      `json:"score"`
	Weight       float64  `json:"weight"`
	Contribution float64  `json:"contribution"`
	Notes        []string `json:"notes,omitempty"`
}

// Explain lists each component with its weight, contribution and the facts
// that drove it.
func Explain(score types.ATSScore) []ComponentExplanation {
	if score.Breakdown == nil {
		return nil
	}
	table, err := WeightsFor(score.Version())
	if err != nil {
		return nil
	}

	notes := breakdownNotes(score.Breakdown)
	out := make([]ComponentExplanation, 0, len(table))
	for _, c := range score.Breakdown.Components() {
		w := table.Weight(c.Name)
		out = append(out, ComponentExplanation{
			Key:          c.Name,
			Label:        componentLabels[c.Name],
			Score:        c.Score,
			Weight:       w,
			Contribution: w * float64(c.Score),
			Notes:        notes[c.Name],
		})
	}
	return out
}

func breakdownNotes(b types.ScoreBreakdown) map[string][]string {
	notes := make(map[string][]string)
	switch v := b.(type) {
	case types.BreakdownV1:
		notes[types.ComponentKeywords] = keywordNotes(v.Keywords)
		notes[types.ComponentSkills] = sectionNotes(v.Skills)
		notes[types.ComponentExperience] = qualityNotes(v.Experience)
		notes[types.ComponentFormat] = formatNotes(v.Format)
	case types.BreakdownV2:
		notes[types.ComponentKeywords] = keywordNotes(v.Keywords)
		notes[types.ComponentContentQuality] = qualityNotes(v.ContentQuality)
		notes[types.ComponentSections] = sectionNotes(v.Sections)
		notes[types.ComponentFormat] = formatNotes(v.Format)
	case types.BreakdownV21:
		notes[types.ComponentKeywords] = keywordNotes(v.Keywords)
		notes[types.ComponentQualificationFit] = []string{
			fmt.Sprintf("%d of %d required keywords", v.QualificationFit.RequiredMatched, v.QualificationFit.RequiredTotal),
			fmt.Sprintf("%d of %d required credentials", v.QualificationFit.CredentialsMatched, v.QualificationFit.CredentialsTotal),
		}
		notes[types.ComponentContentQuality] = qualityNotes(v.ContentQuality)
		notes[types.ComponentSections] = sectionNotes(v.Sections)
		notes[types.ComponentFormat] = formatNotes(v.Format)
	}
	return notes
}

func keywordNotes(c types.KeywordComponent) []string {
	return []string{
		fmt.Sprintf("%d of %d keywords found (%d%%)", c.Matched, c.Total, c.MatchRate),
		fmt.Sprintf("%d of %d high-importance keywords found", c.RequiredMatched, c.RequiredTotal),
	}
}

func sectionNotes(c types.SectionsComponent) []string {
	var out []string
	for _, s := range c.Missing {
		out = append(out, fmt.Sprintf("missing %s section", s))
	}
	for _, s := range c.Shallow {
		out = append(out, fmt.Sprintf("%s section is thin", s))
	}
	return out
}

func qualityNotes(c types.ContentQualityComponent) []string {
	return []string{
		fmt.Sprintf("quantification %d/100", c.Quantification),
		fmt.Sprintf("action verbs %d/100", c.ActionVerbs),
		fmt.Sprintf("keyword density %d/100", c.KeywordDensity),
	}
}

func formatNotes(c types.FormatComponent) []string {
	out := make([]string, 0, len(c.Penalties))
	for _, p := range c.Penalties {
		out = append(out, fmt.Sprintf("-%d: %s", p.Points, p.Reason))
	}
	return out
}
