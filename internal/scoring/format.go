package scoring

import "atsoptimizer/internal/types"

const (
	maxWordCount = 1200
	minWordCount = 150
)

// formatRule deducts Points for each hit, up to MaxHits hits.
type formatRule struct {
	ID      string
	Reason  string
	Points  int
	MaxHits int
	hits    func(types.FormatSignals) int
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

var formatRules = []formatRule{
	{
		ID: "objective_section", Reason: "objective section instead of a professional summary",
		Points: 10, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(f.HasObjectiveSection) },
	},
	{
		ID: "missing_email", Reason: "no email address found",
		Points: 15, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(!f.HasEmail) },
	},
	{
		ID: "missing_phone", Reason: "no phone number found",
		Points: 10, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(!f.HasPhone) },
	},
	{
		ID: "unparseable_dates", Reason: "dates an ATS cannot parse",
		Points: 5, MaxHits: 3,
		hits: func(f types.FormatSignals) int { return max(f.UnparseableDates, 0) },
	},
	{
		ID: "multi_column_layout", Reason: "multi-column layout",
		Points: 15, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(f.MultiColumnLayout) },
	},
	{
		ID: "tables_or_graphics", Reason: "tables or graphics",
		Points: 10, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(f.HasTablesOrGraphics) },
	},
	{
		ID: "excessive_length", Reason: "longer than two pages of text",
		Points: 5, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(f.WordCount > maxWordCount) },
	},
	{
		ID: "too_short", Reason: "too little content to parse",
		Points: 10, MaxHits: 1,
		hits: func(f types.FormatSignals) int { return flag(f.WordCount > 0 && f.WordCount < minWordCount) },
	},
}

func formatComponent(signals types.FormatSignals) types.FormatComponent {
	c := types.FormatComponent{Score: 100, Penalties: []types.AppliedPenalty{}}
	if signals.WordCount == 0 {
		// nothing was parsed, so there is no format to credit
		c.Score = 0
		return c
	}
	for _, rule := range formatRules {
		hits := min(rule.hits(signals), rule.MaxHits)
		if hits <= 0 {
			continue
		}
		points := rule.Points * hits
		c.Penalties = append(c.Penalties, types.AppliedPenalty{Rule: rule.ID, Reason: rule.Reason, Points: points})
		c.Score -= points
	}
	c.Score = clamp(c.Score, 0, 100)
	return c
}
