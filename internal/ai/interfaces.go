package ai

import (
	"context"
	"time"

	"atsoptimizer/internal/types"
)

// AIProvider generates structured output for one configured operation.
// Every method returns token usage; callers may ignore it.
type AIProvider interface {
	GenerateSuggestion(ctx context.Context, req types.GenerationRequest) (types.Suggestion, *TokenUsage, error)
	ExtractKeywords(ctx context.Context, jobDescription string) ([]types.ExtractedKeyword, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// UsageRecorder receives the outcome of every model call.
type UsageRecorder interface {
	RecordAIOperation(ctx context.Context, operation string, duration time.Duration, usage *TokenUsage, err error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
