package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/types"
)

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func newTestCalculator() *Calculator {
	return NewCalculator(WithClock(func() time.Time { return fixedNow }))
}

func sampleInputs(t *testing.T) (types.KeywordAnalysisResult, types.SectionSignals, types.FormatSignals, types.ContentQualitySignals) {
	t.Helper()
	analysis, err := matching.Match([]types.ExtractedKeyword{
		{Keyword: "Go", Importance: types.ImportanceHigh, Category: types.CategoryTechnologies},
		{Keyword: "Kubernetes", Importance: types.ImportanceMedium, Category: types.CategoryTools},
		{Keyword: "AWS Certified", Importance: types.ImportanceHigh, Category: types.CategoryCertifications},
		{Keyword: "Terraform", Importance: types.ImportanceLow, Category: types.CategoryTools},
	}, "Go engineer running k8s clusters")
	require.NoError(t, err)

	sections := types.SectionSignals{Sections: []types.SectionSignal{
		{Name: types.SectionSummary, WordCount: 30},
		{Name: types.SectionExperience, WordCount: 220, ItemCount: 9},
		{Name: types.SectionSkills, WordCount: 12, ItemCount: 8},
	}}
	format := types.FormatSignals{HasEmail: true, HasPhone: true, ParseableDates: 4, UnparseableDates: 1, WordCount: 480}
	content := types.ContentQualitySignals{BulletCount: 9, QuantifiedBullets: 3, StrongVerbBullets: 6, WeakVerbBullets: 1, KeywordOccurrences: 7, WordCount: 480}
	return analysis, sections, format, content
}

func TestWeightTables(t *testing.T) {
	for name, table := range map[string]WeightTable{"v1": WeightsV1, "v2": WeightsV2, "v2.1": WeightsV21} {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 1.0, table.Sum(), 1e-9)
		})
	}

	assert.Len(t, WeightsV2, 4)
	assert.Len(t, WeightsV21, 5)
	assert.Zero(t, WeightsV2.Weight(types.ComponentQualificationFit))
	assert.NotZero(t, WeightsV21.Weight(types.ComponentQualificationFit))
	assert.InDelta(t, 0.40, WeightsV1.Weight(types.ComponentKeywords), 1e-9)
	assert.InDelta(t, 0.30, WeightsV1.Weight(types.ComponentSkills), 1e-9)
	assert.InDelta(t, 0.20, WeightsV1.Weight(types.ComponentExperience), 1e-9)
	assert.InDelta(t, 0.10, WeightsV1.Weight(types.ComponentFormat), 1e-9)
}

func TestComputeOverallIsWeightedSum(t *testing.T) {
	analysis, sections, format, content := sampleInputs(t)
	calc := newTestCalculator()

	for _, version := range []types.ScoreVersion{types.ScoreV1, types.ScoreV2, types.ScoreV21} {
		t.Run(string(version), func(t *testing.T) {
			score, err := calc.Compute(analysis, sections, format, content, version)
			require.NoError(t, err)
			assert.Equal(t, version, score.Version())

			table, err := WeightsFor(version)
			require.NoError(t, err)
			var sum float64
			for _, c := range score.Breakdown.Components() {
				assert.GreaterOrEqual(t, c.Score, 0)
				assert.LessOrEqual(t, c.Score, 100)
				sum += table.Weight(c.Name) * float64(c.Score)
			}
			assert.Equal(t, int(math.Round(sum)), score.Overall)
			assert.GreaterOrEqual(t, score.Overall, 0)
			assert.LessOrEqual(t, score.Overall, 100)
			assert.Equal(t, fixedNow, score.CalculatedAt)
		})
	}
}

func TestComputeBreakdownShapes(t *testing.T) {
	analysis, sections, format, content := sampleInputs(t)
	calc := newTestCalculator()

	v1, err := calc.Compute(analysis, sections, format, content, types.ScoreV1)
	require.NoError(t, err)
	_, ok := v1.Breakdown.(types.BreakdownV1)
	assert.True(t, ok)

	v2, err := calc.Compute(analysis, sections, format, content, types.ScoreV2)
	require.NoError(t, err)
	assert.Len(t, v2.Breakdown.Components(), 4)

	v21, err := calc.Compute(analysis, sections, format, content, types.ScoreV21)
	require.NoError(t, err)
	b, ok := v21.Breakdown.(types.BreakdownV21)
	require.True(t, ok)
	assert.Equal(t, 1, b.QualificationFit.CredentialsTotal)
}

func TestComputeIsDeterministic(t *testing.T) {
	analysis, sections, format, content := sampleInputs(t)
	calc := newTestCalculator()

	first, err := calc.Compute(analysis, sections, format, content, types.ScoreV21)
	require.NoError(t, err)
	second, err := calc.Compute(analysis, sections, format, content, types.ScoreV21)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeRejectsUnknownVersion(t *testing.T) {
	_, err := ComputeScore(types.KeywordAnalysisResult{}, types.SectionSignals{}, types.FormatSignals{}, types.ContentQualitySignals{}, "v3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestComputeDegradesMissingData(t *testing.T) {
	score, err := newTestCalculator().Compute(types.KeywordAnalysisResult{}, types.SectionSignals{}, types.FormatSignals{}, types.ContentQualitySignals{}, types.ScoreV1)
	require.NoError(t, err)

	b := score.Breakdown.(types.BreakdownV1)
	assert.Equal(t, 0, b.Keywords.Score)
	assert.Equal(t, 0, b.Skills.Score)
	assert.Equal(t, 0, b.Experience.Score)
	assert.Equal(t, 0, b.Format.Score)
	assert.Empty(t, b.Format.Penalties)
	assert.Equal(t, 0, score.Overall)
}

func TestFormatPenalties(t *testing.T) {
	tests := []struct {
		name      string
		signals   types.FormatSignals
		wantScore int
		wantRules []string
	}{
		{
			name:      "clean",
			signals:   types.FormatSignals{HasEmail: true, HasPhone: true, WordCount: 500},
			wantScore: 100,
			wantRules: []string{},
		},
		{
			name:      "objective and capped bad dates",
			signals:   types.FormatSignals{HasEmail: true, HasPhone: true, HasObjectiveSection: true, UnparseableDates: 4, WordCount: 500},
			wantScore: 75,
			wantRules: []string{"objective_section", "unparseable_dates"},
		},
		{
			name:      "empty resume",
			signals:   types.FormatSignals{},
			wantScore: 0,
			wantRules: []string{},
		},
		{
			name:      "no contact info",
			signals:   types.FormatSignals{WordCount: 500},
			wantScore: 75,
			wantRules: []string{"missing_email", "missing_phone"},
		},
		{
			name: "everything wrong",
			signals: types.FormatSignals{
				HasObjectiveSection: true, UnparseableDates: 9, MultiColumnLayout: true,
				HasTablesOrGraphics: true, WordCount: 90,
			},
			wantScore: 15,
			wantRules: []string{"objective_section", "missing_email", "missing_phone", "unparseable_dates", "multi_column_layout", "tables_or_graphics", "too_short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := formatComponent(tt.signals)
			assert.Equal(t, tt.wantScore, c.Score)
			rules := []string{}
			for _, p := range c.Penalties {
				rules = append(rules, p.Rule)
			}
			assert.Equal(t, tt.wantRules, rules)
		})
	}
}

func TestSectionsComponent(t *testing.T) {
	c := sectionsComponent(types.SectionSignals{Sections: []types.SectionSignal{
		{Name: types.SectionSummary, WordCount: 20},
		{Name: types.SectionExperience, WordCount: 10},
		{Name: types.SectionSkills, ItemCount: 5},
	}})
	assert.Equal(t, 63, c.Score)
	assert.Equal(t, []types.SectionName{types.SectionSummary, types.SectionSkills}, c.Present)
	assert.Equal(t, []types.SectionName{types.SectionExperience}, c.Shallow)
	assert.Equal(t, []types.SectionName{types.SectionEducation}, c.Missing)
}

func TestContentQualityComponent(t *testing.T) {
	tests := []struct {
		name    string
		signals types.ContentQualitySignals
		want    int
	}{
		{"ideal", types.ContentQualitySignals{WordCount: 200, BulletCount: 10, QuantifiedBullets: 5, StrongVerbBullets: 6, KeywordOccurrences: 6}, 100},
		{"no bullets", types.ContentQualitySignals{WordCount: 200, KeywordOccurrences: 6}, 25},
		{"no text", types.ContentQualitySignals{}, 0},
		{"keyword stuffing", types.ContentQualitySignals{WordCount: 100, BulletCount: 10, QuantifiedBullets: 5, StrongVerbBullets: 6, KeywordOccurrences: 8}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentQualityComponent(tt.signals).Score)
		})
	}
}

func TestQualificationFitComponent(t *testing.T) {
	analysis := types.KeywordAnalysisResult{
		Matched: []types.ExtractedKeyword{
			{Keyword: "CKA", Importance: types.ImportanceHigh, Category: types.CategoryCertifications, MatchType: types.MatchExact},
			{Keyword: "Go", Importance: types.ImportanceHigh, Category: types.CategoryTechnologies, MatchType: types.MatchExact},
		},
		Missing: []types.ExtractedKeyword{
			{Keyword: "CISSP", Importance: types.ImportanceHigh, Category: types.CategoryCertifications},
		},
	}
	c := qualificationFitComponent(analysis)
	assert.Equal(t, 57, c.Score)
	assert.Equal(t, 2, c.RequiredMatched)
	assert.Equal(t, 3, c.RequiredTotal)

	assert.Equal(t, 0, qualificationFitComponent(types.KeywordAnalysisResult{}).Score)
}

func TestExplain(t *testing.T) {
	analysis, sections, format, content := sampleInputs(t)
	score, err := newTestCalculator().Compute(analysis, sections, format, content, types.ScoreV2)
	require.NoError(t, err)

	explained := Explain(score)
	require.Len(t, explained, 4)
	var total float64
	for _, e := range explained {
		assert.NotEmpty(t, e.Label)
		total += e.Contribution
	}
	assert.Equal(t, score.Overall, int(math.Round(total)))
	assert.Nil(t, Explain(types.ATSScore{}))
}
