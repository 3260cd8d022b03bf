package suggestions

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

type generateFunc func(ctx context.Context, req types.GenerationRequest) (types.Suggestion, error)

// fakeGenerator records every request and delegates to fn.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []types.GenerationRequest
	fn       generateFunc
}

func (f *fakeGenerator) Generate(ctx context.Context, req types.GenerationRequest) (types.Suggestion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return okSuggestion(req.Section), nil
}

func (f *fakeGenerator) request(section types.SuggestionSection) (types.GenerationRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Section == section {
			return r, true
		}
	}
	return types.GenerationRequest{}, false
}

func okSuggestion(section types.SuggestionSection) types.Suggestion {
	switch section {
	case types.SuggestionSummary:
		return types.SummarySuggestion{Suggested: "Backend engineer focused on Go."}
	case types.SuggestionSkills:
		return types.SkillsSuggestion{SkillsToAdd: []types.SkillAddition{{Skill: "Kubernetes"}}}
	default:
		return types.ExperienceSuggestion{Rationale: "quantified"}
	}
}

type fakeUsers struct {
	uc  *types.UserContext
	err error
}

func (f fakeUsers) GetUserContext(context.Context, string) (*types.UserContext, error) {
	return f.uc, f.err
}

type recorded struct {
	section types.SuggestionSection
	outcome string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *fakeRecorder) RecordSuggestion(_ context.Context, section types.SuggestionSection, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{section, outcome})
}

func baseRequest() types.SuggestionRequest {
	return types.SuggestionRequest{
		UserID: "user-1",
		Sections: types.ResumeSections{
			Summary:    "Engineer.",
			Skills:     "Go, SQL",
			Experience: "- Built things",
			Education:  "B.S. Computer Science",
		},
		JobDescription: "We need a Go engineer with Kubernetes experience.",
		Keywords: []types.ExtractedKeyword{
			{Keyword: "Go", Importance: types.ImportanceHigh},
			{Keyword: "Kubernetes", Importance: types.ImportanceMedium},
		},
	}
}

func TestGenerateAll_Success(t *testing.T) {
	gen := &fakeGenerator{}
	rec := &fakeRecorder{}
	o := New(gen, nil, errors.NewDiscardLogger(), WithRecorder(rec))

	set, err := o.GenerateAll(context.Background(), baseRequest())
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.True(t, set.Complete())
	assert.Equal(t, "Backend engineer focused on Go.", set.Summary.Suggested)
	assert.Len(t, gen.requests, 3)
	assert.Len(t, rec.events, 3)
	for _, ev := range rec.events {
		assert.Equal(t, "success", ev.outcome)
	}

	exp, ok := gen.request(types.SuggestionExperience)
	require.True(t, ok)
	assert.Equal(t, "- Built things", exp.SectionText)
	assert.Equal(t, "B.S. Computer Science", exp.Education)
}

func TestGenerateAll_NilPreferencesDefaultToFulltime(t *testing.T) {
	gen := &fakeGenerator{}
	o := New(gen, nil, errors.NewDiscardLogger())

	_, err := o.GenerateAll(context.Background(), baseRequest())
	require.NoError(t, err)

	for _, section := range types.SuggestionSections {
		req, ok := gen.request(section)
		require.True(t, ok, section)
		assert.Nil(t, req.Preferences, section)
		assert.Equal(t, types.JobTypeFulltime, req.CandidateType, section)
	}
}

func TestGenerateAll_PreferencesAreCopiedPerCall(t *testing.T) {
	gen := &fakeGenerator{fn: func(_ context.Context, req types.GenerationRequest) (types.Suggestion, error) {
		// A generator that scribbles on its inputs must not affect siblings.
		req.Preferences.Tone = types.ToneCasual
		req.Keywords[0].Keyword = "mutated"
		return okSuggestion(req.Section), nil
	}}
	o := New(gen, nil, errors.NewDiscardLogger())

	req := baseRequest()
	req.Preferences = &types.OptimizationPreferences{
		Tone:              types.ToneProfessional,
		Verbosity:         types.VerbosityDetailed,
		Emphasis:          types.EmphasisKeywords,
		Industry:          types.IndustryTech,
		ExperienceLevel:   types.ExperienceMid,
		JobType:           types.JobTypeCoop,
		ModificationLevel: types.ModificationModerate,
	}

	_, err := o.GenerateAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, types.ToneProfessional, req.Preferences.Tone)
	assert.Equal(t, "Go", req.Keywords[0].Keyword)

	summary, _ := gen.request(types.SuggestionSummary)
	assert.Equal(t, types.JobTypeCoop, summary.CandidateType)
}

func TestGenerateAll_UserContext(t *testing.T) {
	tests := []struct {
		name  string
		users UserContextLookup
		want  *types.UserContext
	}{
		{
			name:  "found",
			users: fakeUsers{uc: &types.UserContext{CareerGoal: types.CareerGoalSwitchingCareers, TargetIndustries: []string{"fintech"}}},
			want:  &types.UserContext{CareerGoal: types.CareerGoalSwitchingCareers, TargetIndustries: []string{"fintech"}},
		},
		{
			name:  "lookup failure",
			users: fakeUsers{err: stderrors.New("connection refused")},
			want:  &types.UserContext{},
		},
		{
			name:  "unknown user",
			users: fakeUsers{},
			want:  &types.UserContext{},
		},
		{
			name: "no lookup configured",
			want: &types.UserContext{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			o := New(gen, tt.users, errors.NewDiscardLogger())

			_, err := o.GenerateAll(context.Background(), baseRequest())
			require.NoError(t, err)

			for _, section := range types.SuggestionSections {
				req, _ := gen.request(section)
				require.NotNil(t, req.UserContext)
				assert.Equal(t, tt.want.CareerGoal, req.UserContext.CareerGoal)
				assert.ElementsMatch(t, tt.want.TargetIndustries, req.UserContext.TargetIndustries)
			}
		})
	}
}

func TestGenerateAll_RunsConcurrently(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(len(types.SuggestionSections))
	release := make(chan struct{})

	gen := &fakeGenerator{fn: func(ctx context.Context, req types.GenerationRequest) (types.Suggestion, error) {
		arrived.Done()
		select {
		case <-release:
			return okSuggestion(req.Section), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	o := New(gen, nil, errors.NewDiscardLogger(), WithCallTimeout(5*time.Second))

	go func() {
		// Only reachable if all three calls are in flight at once.
		arrived.Wait()
		close(release)
	}()

	set, err := o.GenerateAll(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.True(t, set.Complete())
}

func TestGenerateAll_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fail     types.SuggestionSection
		err      error
		wantCode string
	}{
		{
			name:     "rate limited",
			fail:     types.SuggestionSkills,
			err:      errors.NewRateLimitedError("quota exhausted", nil),
			wantCode: errors.ErrCodeRateLimited,
		},
		{
			name:     "provider error",
			fail:     types.SuggestionExperience,
			err:      stderrors.New("500 from upstream"),
			wantCode: errors.ErrCodeLLMError,
		},
		{
			name:     "deadline from provider",
			fail:     types.SuggestionSummary,
			err:      context.DeadlineExceeded,
			wantCode: errors.ErrCodeLLMTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{fn: func(_ context.Context, req types.GenerationRequest) (types.Suggestion, error) {
				if req.Section == tt.fail {
					return nil, tt.err
				}
				return okSuggestion(req.Section), nil
			}}
			rec := &fakeRecorder{}
			o := New(gen, nil, errors.NewDiscardLogger(), WithRecorder(rec))

			set, err := o.GenerateAll(context.Background(), baseRequest())
			assert.Nil(t, set)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.wantCode, genErr.Code())
			assert.Equal(t, []types.SuggestionSection{tt.fail}, genErr.FailedSections())
			assert.True(t, errors.IsCode(err, tt.wantCode))

			// The other two sections still completed.
			require.NotNil(t, genErr.Partial)
			for _, section := range types.SuggestionSections {
				_, ok := genErr.Partial.Get(section)
				assert.Equal(t, section != tt.fail, ok, section)
			}
			assert.Len(t, rec.events, 3)
		})
	}
}

func TestGenerateAll_TimeoutIgnoringGenerator(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	gen := &fakeGenerator{fn: func(_ context.Context, req types.GenerationRequest) (types.Suggestion, error) {
		if req.Section == types.SuggestionExperience {
			<-block
		}
		return okSuggestion(req.Section), nil
	}}
	o := New(gen, nil, errors.NewDiscardLogger(),
		WithCallTimeout(time.Second),
		WithSectionTimeout(types.SuggestionExperience, 20*time.Millisecond))

	start := time.Now()
	_, err := o.GenerateAll(context.Background(), baseRequest())
	assert.Less(t, time.Since(start), time.Second)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Len(t, genErr.Failures, 1)
	assert.Equal(t, types.SuggestionExperience, genErr.Failures[0].Section)
	assert.Equal(t, errors.ErrCodeLLMTimeout, genErr.Failures[0].Code)
	assert.NotNil(t, genErr.Partial.Summary)
	assert.NotNil(t, genErr.Partial.Skills)
}

func TestGenerateAll_FailuresSortedBySection(t *testing.T) {
	gen := &fakeGenerator{fn: func(_ context.Context, req types.GenerationRequest) (types.Suggestion, error) {
		if req.Section == types.SuggestionSummary {
			// Finish last so arrival order differs from section order.
			time.Sleep(20 * time.Millisecond)
		}
		return nil, stderrors.New("boom")
	}}
	o := New(gen, nil, errors.NewDiscardLogger())

	_, err := o.GenerateAll(context.Background(), baseRequest())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, types.SuggestionSections, genErr.FailedSections())
	assert.False(t, genErr.Partial.Complete())
}

func TestGenerateAll_WrongSectionIsAnError(t *testing.T) {
	gen := &fakeGenerator{fn: func(_ context.Context, req types.GenerationRequest) (types.Suggestion, error) {
		if req.Section == types.SuggestionSkills {
			return okSuggestion(types.SuggestionSummary), nil
		}
		return okSuggestion(req.Section), nil
	}}
	o := New(gen, nil, errors.NewDiscardLogger())

	_, err := o.GenerateAll(context.Background(), baseRequest())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, []types.SuggestionSection{types.SuggestionSkills}, genErr.FailedSections())
	assert.Equal(t, errors.ErrCodeLLMError, genErr.Code())
}

func TestGenerateAll_InvalidRequest(t *testing.T) {
	gen := &fakeGenerator{}
	o := New(gen, nil, errors.NewDiscardLogger())

	req := baseRequest()
	req.JobDescription = ""
	_, err := o.GenerateAll(context.Background(), req)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Empty(t, gen.requests)
}

func TestRegenerate(t *testing.T) {
	gen := &fakeGenerator{}
	o := New(gen, nil, errors.NewDiscardLogger())

	s, err := o.Regenerate(context.Background(), baseRequest(), types.SuggestionSkills, `{"skillsToAdd":[]}`)
	require.NoError(t, err)
	assert.Equal(t, types.SuggestionSkills, s.Section())

	require.Len(t, gen.requests, 1)
	assert.Equal(t, `{"skillsToAdd":[]}`, gen.requests[0].CurrentContent)
	assert.Equal(t, "Go, SQL", gen.requests[0].SectionText)

	_, err = o.Regenerate(context.Background(), baseRequest(), "education", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRegenerate_Failure(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, types.GenerationRequest) (types.Suggestion, error) {
		return nil, errors.NewRateLimitedError("slow down", nil)
	}}
	o := New(gen, nil, errors.NewDiscardLogger())

	_, err := o.Regenerate(context.Background(), baseRequest(), types.SuggestionSummary, "")
	var secErr *SectionError
	require.ErrorAs(t, err, &secErr)
	assert.Equal(t, errors.ErrCodeRateLimited, secErr.Code)
}

func TestClassify(t *testing.T) {
	shared := errors.NewLLMTimeoutError("upstream slow", nil)
	got := classify(types.SuggestionSummary, shared)
	assert.Same(t, shared, got.Err)
	assert.Nil(t, shared.Context)

	got = classify(types.SuggestionSkills, context.Canceled)
	assert.Equal(t, errors.ErrCodeLLMError, got.Code)
	assert.ErrorIs(t, got, context.Canceled)
}
