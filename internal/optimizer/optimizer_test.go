package optimizer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/scoring"
	"atsoptimizer/internal/store"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

const sampleResume = `Jane Doe
jane@example.com | (555) 123-4567

Summary
Backend engineer with six years building Go services on PostgreSQL.

Experience
Senior Engineer, Acme Corp, Jan 2020 - Present
- Built a Go billing service handling 2M requests per day
- Reduced PostgreSQL query latency by 40%

Education
B.S. Computer Science, 2016

Skills
Go, PostgreSQL, Docker, gRPC
`

var sampleKeywords = []types.ExtractedKeyword{
	{Keyword: "Go", Importance: types.ImportanceHigh, Category: types.CategoryTechnologies},
	{Keyword: "PostgreSQL", Importance: types.ImportanceHigh, Category: types.CategoryTechnologies},
	{Keyword: "Kubernetes", Importance: types.ImportanceMedium, Category: types.CategoryTools},
	{Keyword: "Terraform", Importance: types.ImportanceLow, Category: types.CategoryTools},
}

type fakeSuggester struct {
	mu       sync.Mutex
	set      *types.SuggestionSet
	err      error
	requests []types.SuggestionRequest
}

func (f *fakeSuggester) GenerateAll(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func (f *fakeSuggester) Regenerate(ctx context.Context, req types.SuggestionRequest, section types.SuggestionSection, current string) (types.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return types.SkillsSuggestion{Rationale: "regenerated from " + current}, nil
}

type fakeExtractor struct {
	keywords []types.ExtractedKeyword
	calls    int
}

func (f *fakeExtractor) ExtractKeywords(ctx context.Context, jd string) ([]types.ExtractedKeyword, error) {
	f.calls++
	return f.keywords, nil
}

type scoreLog struct {
	versions []types.ScoreVersion
	overall  []int
}

func (s *scoreLog) RecordScore(ctx context.Context, v types.ScoreVersion, overall int) {
	s.versions = append(s.versions, v)
	s.overall = append(s.overall, overall)
}

type failingSessions struct{ *store.Memory }

func (failingSessions) UpdateSession(ctx context.Context, id uuid.UUID, u types.SessionUpdate) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, "disk full", nil)
}

func fullSet() *types.SuggestionSet {
	return &types.SuggestionSet{
		Summary:    &types.SummarySuggestion{Original: "old", Suggested: "new"},
		Skills:     &types.SkillsSuggestion{Rationale: "skills"},
		Experience: &types.ExperienceSuggestion{Rationale: "experience"},
	}
}

func newService(t *testing.T, sug Suggester, opts ...Option) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(sug, mem, mem, errors.NewDiscardLogger(), opts...), mem
}

func TestAnalyzePersistsResults(t *testing.T) {
	scores := &scoreLog{}
	svc, mem := newService(t, nil, WithScoreRecorder(scores))

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		UserID:     "user-1",
		ResumeText: sampleResume,
		Keywords:   sampleKeywords,
		Version:    "2",
	})
	require.NoError(t, err)

	assert.Equal(t, len(sampleKeywords), len(res.Analysis.Matched)+len(res.Analysis.Missing))
	assert.Equal(t, types.ScoreV2, res.Score.Version())
	assert.GreaterOrEqual(t, res.Score.Overall, 0)
	assert.LessOrEqual(t, res.Score.Overall, 100)
	require.Len(t, res.Gaps.QuickWins, 2)
	assert.Equal(t, "Kubernetes", res.Gaps.QuickWins[0].Keyword)
	assert.Equal(t, "Terraform", res.Gaps.QuickWins[1].Keyword)
	assert.Contains(t, res.Sections.Skills, "Docker")
	assert.NotEmpty(t, res.Explanation)
	assert.True(t, res.Persisted)

	session, err := mem.GetSession(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	require.NotNil(t, session.Score)
	assert.Equal(t, res.Score.Overall, session.Score.Overall)
	require.NotNil(t, session.Gaps)

	assert.Equal(t, []types.ScoreVersion{types.ScoreV2}, scores.versions)
	assert.Equal(t, []int{res.Score.Overall}, scores.overall)
}

func TestAnalyzeEmptyKeywords(t *testing.T) {
	svc, _ := newService(t, nil)
	res, err := svc.Analyze(context.Background(), AnalysisRequest{ResumeText: sampleResume})
	require.NoError(t, err)
	assert.Empty(t, res.Analysis.Matched)
	assert.Empty(t, res.Analysis.Missing)
	assert.Equal(t, 0, res.Analysis.MatchRate)
	assert.Empty(t, res.Gaps.QuickWins)
}

func TestAnalyzeExtractsKeywordsFromHTML(t *testing.T) {
	extractor := &fakeExtractor{keywords: sampleKeywords[:2]}
	svc, _ := newService(t, nil, WithKeywordExtractor(extractor))

	res, err := svc.Analyze(context.Background(), AnalysisRequest{
		ResumeText:     sampleResume,
		JobDescription: "<div><h2>Backend</h2><ul><li>Go</li><li>PostgreSQL</li></ul></div>",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, extractor.calls)
	assert.Len(t, res.Analysis.Matched, 2)
	assert.Equal(t, 100, res.Analysis.MatchRate)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		req  AnalysisRequest
		code string
	}{
		{"missing resume", AnalysisRequest{}, errors.ErrCodeValidation},
		{"blank resume", AnalysisRequest{ResumeText: " \n\t\n "}, errors.ErrCodeValidation},
		{"bad session id", AnalysisRequest{ResumeText: "x", SessionID: "not-a-uuid"}, errors.ErrCodeValidation},
		{"bad version", AnalysisRequest{ResumeText: "x", Version: "v9"}, errors.ErrCodeValidation},
		{
			"bad keyword",
			AnalysisRequest{ResumeText: "x", Keywords: []types.ExtractedKeyword{{Keyword: " ", Importance: types.ImportanceHigh}}},
			errors.ErrCodeInvalidInput,
		},
	}
	svc, _ := newService(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestAnalyzeStorageFailureStillReturnsResult(t *testing.T) {
	mem := store.NewMemory()
	svc := New(nil, failingSessions{mem}, mem, errors.NewDiscardLogger())
	res, err := svc.Analyze(context.Background(), AnalysisRequest{ResumeText: sampleResume, Keywords: sampleKeywords})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
}

func TestSuggestUsesStoredAnalysis(t *testing.T) {
	sug := &fakeSuggester{set: fullSet()}
	svc, mem := newService(t, sug)
	ctx := context.Background()

	analysed, err := svc.Analyze(ctx, AnalysisRequest{ResumeText: sampleResume, Keywords: sampleKeywords})
	require.NoError(t, err)

	res, err := svc.Suggest(ctx, types.SuggestionRequest{
		SessionID:      analysed.SessionID.String(),
		JobDescription: "Go and PostgreSQL   engineer",
	})
	require.NoError(t, err)
	assert.True(t, res.Persisted)

	require.Len(t, sug.requests, 1)
	got := sug.requests[0]
	assert.Len(t, got.Keywords, len(sampleKeywords))
	assert.False(t, got.Keywords[0].Found)
	require.NotNil(t, got.ATSContext)
	assert.Equal(t, analysed.Score.Overall, got.ATSContext.Overall)
	assert.Contains(t, got.ATSContext.MissingKeywords, "Kubernetes")
	assert.Equal(t, "Go and PostgreSQL engineer", got.JobDescription)

	session, err := mem.GetSession(ctx, analysed.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session.Summary)
	assert.Equal(t, "new", session.Summary.Suggested)
	require.NotNil(t, session.Score)
}

func TestSuggestNewSessionExtractsKeywords(t *testing.T) {
	sug := &fakeSuggester{set: fullSet()}
	extractor := &fakeExtractor{keywords: sampleKeywords}
	svc, _ := newService(t, sug, WithKeywordExtractor(extractor))

	res, err := svc.Suggest(context.Background(), types.SuggestionRequest{JobDescription: "Go engineer"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.SessionID)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, res.SessionID.String(), sug.requests[0].SessionID)
}

func TestSuggestPartialPolicy(t *testing.T) {
	partial := &types.SuggestionSet{Summary: &types.SummarySuggestion{Suggested: "kept"}}
	genErr := &suggestions.GenerationError{
		Failures: []*suggestions.SectionError{{
			Section: types.SuggestionSkills,
			Code:    errors.ErrCodeLLMTimeout,
			Err:     errors.NewLLMTimeoutError("timed out", nil),
		}},
		Partial: partial,
	}
	yes, no := true, false

	tests := []struct {
		name          string
		defaultAccept bool
		override      *bool
		wantPersisted bool
	}{
		{"default rejects", false, nil, false},
		{"default accepts", true, nil, true},
		{"request accepts", false, &yes, true},
		{"request rejects", true, &no, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService(t, &fakeSuggester{err: genErr}, WithAcceptPartial(tt.defaultAccept))
			id := uuid.New()

			_, err := svc.Suggest(context.Background(), types.SuggestionRequest{
				SessionID:      id.String(),
				JobDescription: "jd",
				Keywords:       sampleKeywords,
				AcceptPartial:  tt.override,
			})
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeLLMTimeout, errors.CodeOf(err))

			session, getErr := mem.GetSession(context.Background(), id)
			if !tt.wantPersisted {
				assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(getErr))
				return
			}
			require.NoError(t, getErr)
			assert.Equal(t, "kept", session.Summary.Suggested)
			assert.Nil(t, session.Skills)
		})
	}
}

func TestSuggestWithoutSuggester(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Suggest(context.Background(), types.SuggestionRequest{JobDescription: "jd"})
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
}

func TestRegeneratePersistsSection(t *testing.T) {
	svc, mem := newService(t, &fakeSuggester{})
	id := uuid.New()

	res, err := svc.Regenerate(context.Background(), types.SuggestionRequest{
		SessionID:      id.String(),
		JobDescription: "jd",
		Keywords:       sampleKeywords,
	}, types.SuggestionSkills, "Go, SQL")
	require.NoError(t, err)
	assert.Equal(t, types.SuggestionSkills, res.Suggestion.Section())

	session, err := mem.GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, session.Skills)
	assert.Equal(t, "regenerated from Go, SQL", session.Skills.Rationale)
}

func TestRegenerateError(t *testing.T) {
	svc, _ := newService(t, &fakeSuggester{err: errors.NewRateLimitedError("slow down", nil)})
	_, err := svc.Regenerate(context.Background(), types.SuggestionRequest{
		JobDescription: "jd",
		Keywords:       sampleKeywords,
	}, types.SuggestionSummary, "")
	assert.Equal(t, errors.ErrCodeRateLimited, errors.CodeOf(err))
}

func TestSession(t *testing.T) {
	svc, mem := newService(t, nil)
	id := uuid.New()
	require.NoError(t, mem.UpdateSession(context.Background(), id, types.SessionUpdate{UserID: "u"}))

	got, err := svc.Session(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "u", got.UserID)

	_, err = svc.Session(context.Background(), "nope")
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestPreviewPrompt(t *testing.T) {
	svc, mem := newService(t, nil)
	require.NoError(t, mem.PutUserContext(context.Background(), "u1", types.UserContext{
		CareerGoal:       types.CareerGoalSwitchingCareers,
		TargetIndustries: []string{"fintech"},
	}))
	prefs := &types.OptimizationPreferences{
		Tone:              types.Tone("technical"),
		Verbosity:         types.Verbosity("concise"),
		Emphasis:          types.Emphasis("keywords"),
		Industry:          types.Industry("tech"),
		ExperienceLevel:   types.ExperienceLevel("senior"),
		JobType:           types.JobType("coop"),
		ModificationLevel: types.ModificationAggressive,
	}

	stored, err := svc.PreviewPrompt(context.Background(), prefs, nil, "u1")
	require.NoError(t, err)
	assert.Contains(t, stored, "Career Goal")
	assert.Contains(t, stored, "co-op/internship")
	assert.Contains(t, stored, "60-75%")

	explicit, err := svc.PreviewPrompt(context.Background(), prefs, &types.UserContext{}, "u1")
	require.NoError(t, err)
	assert.False(t, strings.Contains(explicit, "Career Goal"))

	_, err = svc.PreviewPrompt(context.Background(), &types.OptimizationPreferences{Tone: "loud"}, nil, "")
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestGaps(t *testing.T) {
	svc, _ := newService(t, nil)
	missing := []types.ExtractedKeyword{
		{Keyword: "Docker", Importance: types.ImportanceHigh},
		{Keyword: "Rust", Importance: types.ImportanceLow},
		{Keyword: "Go", Importance: types.ImportanceMedium},
	}
	got, err := svc.Gaps(missing)
	require.NoError(t, err)

	var names []string
	for _, kw := range got.QuickWins {
		names = append(names, kw.Keyword)
	}
	assert.Equal(t, []string{"Docker", "Go", "Rust"}, names)
	assert.Equal(t, "Rust", missing[1].Keyword)

	_, err = svc.Gaps([]types.ExtractedKeyword{{Keyword: "x", Importance: "urgent"}})
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestUserLookupFailureDegrades(t *testing.T) {
	svc := New(nil, store.NewMemory(), brokenUsers{}, errors.NewDiscardLogger())
	out, err := svc.PreviewPrompt(context.Background(), nil, nil, "u1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Target Industries")
}

type brokenUsers struct{}

func (brokenUsers) GetUserContext(ctx context.Context, userID string) (*types.UserContext, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestAnalyzeUsesInjectedCalculator(t *testing.T) {
	stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	calc := scoring.NewCalculator(scoring.WithClock(func() time.Time { return stamp }))
	svc, _ := newService(t, nil, WithCalculator(calc))

	req := AnalysisRequest{ResumeText: sampleResume, Keywords: sampleKeywords, Version: "v2.1"}
	first, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, stamp, first.Score.CalculatedAt)
	assert.Equal(t, first.Score, second.Score)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}
