package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateType(t *testing.T) {
	assert.Equal(t, JobTypeFulltime, CandidateType(nil))
	assert.Equal(t, JobTypeFulltime, CandidateType(&OptimizationPreferences{}))
	assert.Equal(t, JobTypeCoop, CandidateType(&OptimizationPreferences{JobType: JobTypeCoop}))
}

func TestImportanceRank(t *testing.T) {
	assert.Less(t, ImportanceHigh.Rank(), ImportanceMedium.Rank())
	assert.Less(t, ImportanceMedium.Rank(), ImportanceLow.Rank())
	assert.Less(t, ImportanceLow.Rank(), Importance("urgent").Rank())
}

func TestATSScoreJSONKeepsVersionedBreakdown(t *testing.T) {
	calculatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	score := ATSScore{
		Overall: 71,
		Breakdown: BreakdownV21{
			Keywords:         KeywordComponent{Score: 80},
			QualificationFit: QualificationFitComponent{Score: 50},
		},
		CalculatedAt: calculatedAt,
	}

	data, err := json.Marshal(score)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":"v2.1"`)

	var decoded ATSScore
	require.NoError(t, json.Unmarshal(data, &decoded))
	breakdown, ok := decoded.Breakdown.(BreakdownV21)
	require.True(t, ok, "expected BreakdownV21, got %T", decoded.Breakdown)
	assert.Equal(t, 50, breakdown.QualificationFit.Score)
	assert.Equal(t, ScoreV21, decoded.Version())
	assert.True(t, calculatedAt.Equal(decoded.CalculatedAt))
}

func TestATSScoreUnmarshalRejectsUnknownVersion(t *testing.T) {
	var s ATSScore
	err := json.Unmarshal([]byte(`{"version":"v9","overall":1,"breakdown":{}}`), &s)
	assert.Error(t, err)
}

func TestSuggestionSetPutGet(t *testing.T) {
	var set SuggestionSet
	set.Put(SkillsSuggestion{ExistingSkills: []string{"Go"}})
	set.Put(&SummarySuggestion{Suggested: "Backend engineer"})

	s, ok := set.Get(SuggestionSkills)
	require.True(t, ok)
	assert.Equal(t, SuggestionSkills, s.Section())

	_, ok = set.Get(SuggestionExperience)
	assert.False(t, ok)
	assert.False(t, set.Complete())

	set.Put(ExperienceSuggestion{})
	assert.True(t, set.Complete())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{
			name: "valid preferences",
			value: &OptimizationPreferences{
				Tone: ToneTechnical, Verbosity: VerbosityConcise, Emphasis: EmphasisKeywords,
				Industry: IndustryTech, ExperienceLevel: ExperienceSenior, JobType: JobTypeFulltime,
				ModificationLevel: ModificationModerate,
			},
		},
		{
			name: "impact emphasis",
			value: &OptimizationPreferences{
				Tone: ToneProfessional, Verbosity: VerbosityDetailed, Emphasis: EmphasisImpact,
				Industry: IndustryFinance, ExperienceLevel: ExperienceMid, JobType: JobTypeCoop,
				ModificationLevel: ModificationConservative,
			},
		},
		{
			name:    "unknown emphasis",
			value:   &OptimizationPreferences{Emphasis: "vibes"},
			wantErr: true,
		},
		{
			name:    "unknown tone",
			value:   &OptimizationPreferences{Tone: "snarky"},
			wantErr: true,
		},
		{
			name:    "keyword without importance",
			value:   &ExtractedKeyword{Keyword: "Go"},
			wantErr: true,
		},
		{
			name: "suggestion request with bad session id",
			value: &SuggestionRequest{
				SessionID:      "not-a-uuid",
				JobDescription: "Backend role",
			},
			wantErr: true,
		},
		{
			name: "suggestion request without preferences",
			value: &SuggestionRequest{
				JobDescription: "Backend role",
				Keywords:       []ExtractedKeyword{{Keyword: "Go", Importance: ImportanceHigh}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
