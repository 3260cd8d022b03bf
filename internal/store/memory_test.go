package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

func TestMemoryUpdateSessionMerges(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	ctx := context.Background()
	id := uuid.New()

	analysis := &types.KeywordAnalysisResult{
		Matched:   []types.ExtractedKeyword{{Keyword: "Go", Importance: types.ImportanceHigh, Found: true}},
		Missing:   []types.ExtractedKeyword{},
		MatchRate: 100,
	}
	require.NoError(t, m.UpdateSession(ctx, id, types.SessionUpdate{UserID: "u1", KeywordAnalysis: analysis}))

	clock = clock.Add(time.Minute)
	summary := &types.SummarySuggestion{Original: "old", Suggested: "new"}
	require.NoError(t, m.UpdateSession(ctx, id, types.SessionUpdate{Summary: summary}))

	got, err := m.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.KeywordAnalysis)
	assert.Equal(t, 100, got.KeywordAnalysis.MatchRate)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "new", got.Summary.Suggested)
	assert.Nil(t, got.Skills)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestMemoryGetSessionReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, m.UpdateSession(ctx, id, types.SessionUpdate{
		Skills: &types.SkillsSuggestion{Rationale: "original"},
	}))

	first, err := m.GetSession(ctx, id)
	require.NoError(t, err)
	first.Skills.Rationale = "mutated"

	second, err := m.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "original", second.Skills.Rationale)
}

func TestMemoryGetSessionNotFound(t *testing.T) {
	_, err := NewMemory().GetSession(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestMemoryUserContext(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	empty, err := m.GetUserContext(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	require.NoError(t, m.PutUserContext(ctx, "u1", types.UserContext{
		CareerGoal:       types.CareerGoalPromotion,
		TargetIndustries: []string{"fintech"},
	}))
	got, err := m.GetUserContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.CareerGoalPromotion, got.CareerGoal)
	got.TargetIndustries[0] = "changed"

	again, _ := m.GetUserContext(ctx, "u1")
	assert.Equal(t, []string{"fintech"}, again.TargetIndustries)
}
