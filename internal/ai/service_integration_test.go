//go:build integration

package ai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/types"
)

// Runs against the live Gemini API. Needs ATSOPTIMIZER_AI_APIKEY.
func TestGeminiLive(t *testing.T) {
	apiKey := os.Getenv("ATSOPTIMIZER_AI_APIKEY")
	if apiKey == "" {
		t.Skip("ATSOPTIMIZER_AI_APIKEY not set")
	}

	cfg := &config.Config{AI: config.AIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		APIKey:           apiKey,
		Timeout:          time.Minute,
		MaxRetries:       1,
		Temperature:      0.2,
		UseSystemPrompts: true,
	}}
	svc, err := NewService(context.Background(), cfg, testLogger)
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	jd := "Senior backend engineer. Must have Go and PostgreSQL. Kubernetes preferred."
	keywords, err := svc.ExtractKeywords(ctx, jd)
	require.NoError(t, err)
	assert.NotEmpty(t, keywords)

	got, err := svc.Generate(ctx, types.GenerationRequest{
		Section:        types.SuggestionSummary,
		SectionText:    "Backend engineer with six years building Go services on PostgreSQL.",
		JobDescription: jd,
		Keywords:       keywords,
		CandidateType:  types.JobTypeFulltime,
	})
	require.NoError(t, err)
	summary := got.(types.SummarySuggestion)
	assert.NotEmpty(t, summary.Suggested)

	info := svc.GetModelInfo(ctx)
	assert.True(t, info["summary"].Available)
}
