package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atsoptimizer/internal/types"
)

func missing(pairs ...string) []types.ExtractedKeyword {
	out := make([]types.ExtractedKeyword, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.ExtractedKeyword{Keyword: pairs[i], Importance: types.Importance(pairs[i+1])})
	}
	return out
}

func names(list []types.ExtractedKeyword) []string {
	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.Keyword
	}
	return out
}

func TestPrioritize(t *testing.T) {
	tests := []struct {
		name       string
		input      []types.ExtractedKeyword
		wantCounts types.GapCounts
		wantWins   []string
	}{
		{
			name:       "orders by importance",
			input:      missing("Docker", "high", "Rust", "low", "Go", "medium"),
			wantCounts: types.GapCounts{High: 1, Medium: 1, Low: 1},
			wantWins:   []string{"Docker", "Go", "Rust"},
		},
		{
			name:       "caps at three and keeps ties stable",
			input:      missing("A", "medium", "B", "high", "C", "medium", "D", "high", "E", "low"),
			wantCounts: types.GapCounts{High: 2, Medium: 2, Low: 1},
			wantWins:   []string{"B", "D", "A"},
		},
		{
			name:       "fewer than three",
			input:      missing("Kafka", "low"),
			wantCounts: types.GapCounts{Low: 1},
			wantWins:   []string{"Kafka"},
		},
		{
			name:       "empty",
			input:      nil,
			wantCounts: types.GapCounts{},
			wantWins:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prioritize(tt.input)
			assert.Equal(t, tt.wantCounts, got.Counts)
			assert.Equal(t, tt.wantWins, names(got.QuickWins))
			assert.Equal(t, len(tt.input), got.Counts.High+got.Counts.Medium+got.Counts.Low)
		})
	}
}

func TestPrioritizeDoesNotMutateInput(t *testing.T) {
	input := missing("Rust", "low", "Docker", "high", "Go", "medium")
	before := names(input)

	Prioritize(input)

	assert.Equal(t, before, names(input))
}
