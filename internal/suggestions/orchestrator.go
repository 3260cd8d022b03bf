// Package suggestions fans a suggestion request out to one generator call
// per resume section and joins the results.
package suggestions

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

// DefaultCallTimeout bounds a single generator call.
const DefaultCallTimeout = 60 * time.Second

// Generator produces a suggestion for one section. Implementations should
// honor ctx cancellation; the orchestrator stops waiting at the deadline
// either way.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest) (types.Suggestion, error)
}

// UserContextLookup fetches stored background for a user.
type UserContextLookup interface {
	GetUserContext(ctx context.Context, userID string) (*types.UserContext, error)
}

// Recorder receives per-call outcomes. outcome is "success" or an error code.
type Recorder interface {
	RecordSuggestion(ctx context.Context, section types.SuggestionSection, outcome string, duration time.Duration)
}

// Orchestrator runs the section generators concurrently.
type Orchestrator struct {
	generator       Generator
	users           UserContextLookup
	logger          *errors.Logger
	timeout         time.Duration
	sectionTimeouts map[types.SuggestionSection]time.Duration
	recorder        Recorder
	tracer          trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCallTimeout sets the default per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithSectionTimeout overrides the timeout for one section.
func WithSectionTimeout(section types.SuggestionSection, d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sectionTimeouts[section] = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// New creates an Orchestrator. users may be nil, in which case every request
// gets an empty user context.
func New(generator Generator, users UserContextLookup, logger *errors.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator:       generator,
		users:           users,
		logger:          logger,
		timeout:         DefaultCallTimeout,
		sectionTimeouts: make(map[types.SuggestionSection]time.Duration),
		tracer:          otel.Tracer("atsoptimizer/suggestions"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateAll requests summary, skills and experience suggestions
// concurrently and waits for all three. If any call fails the returned error
// is a *GenerationError carrying the sections that did succeed.
func (o *Orchestrator) GenerateAll(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionSet, error) {
	if err := types.Validate(&req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid suggestion request", err)
	}

	ctx, span := o.tracer.Start(ctx, "suggestions.generate_all",
		trace.WithAttributes(attribute.String("candidate_type", string(types.CandidateType(req.Preferences)))))
	defer span.End()

	userCtx := o.userContext(ctx, req.UserID)
	candidate := types.CandidateType(req.Preferences)

	var (
		g        errgroup.Group
		mu       sync.Mutex
		set      types.SuggestionSet
		failures []*SectionError
	)
	for _, section := range types.SuggestionSections {
		greq := buildRequest(req, section, userCtx, candidate, "")
		g.Go(func() error {
			s, err := o.generateSection(ctx, greq)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return err
			}
			set.Put(s)
			return nil
		})
	}

	// Every branch reports its own failure, so the first error is not needed.
	_ = g.Wait()

	if len(failures) > 0 {
		slices.SortFunc(failures, func(a, b *SectionError) int {
			return slices.Index(types.SuggestionSections, a.Section) - slices.Index(types.SuggestionSections, b.Section)
		})
		genErr := &GenerationError{Failures: failures, Partial: &set}
		span.SetStatus(codes.Error, genErr.Error())
		return nil, genErr
	}
	return &set, nil
}

// Regenerate produces a fresh suggestion for one section. currentContent is
// the suggestion being replaced and is passed to the generator so it can
// improve on it.
func (o *Orchestrator) Regenerate(ctx context.Context, req types.SuggestionRequest, section types.SuggestionSection, currentContent string) (types.Suggestion, error) {
	if _, err := types.ParseSuggestionSection(string(section)); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid section", err)
	}
	if err := types.Validate(&req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid suggestion request", err)
	}

	ctx, span := o.tracer.Start(ctx, "suggestions.regenerate",
		trace.WithAttributes(attribute.String("section", string(section))))
	defer span.End()

	userCtx := o.userContext(ctx, req.UserID)
	greq := buildRequest(req, section, userCtx, types.CandidateType(req.Preferences), currentContent)

	s, err := o.generateSection(ctx, greq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s, nil
}

// generateSection runs one generator call under its own deadline.
func (o *Orchestrator) generateSection(ctx context.Context, greq types.GenerationRequest) (types.Suggestion, *SectionError) {
	section := greq.Section
	ctx, span := o.tracer.Start(ctx, "suggestions.section",
		trace.WithAttributes(attribute.String("section", string(section))))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.timeoutFor(section))
	defer cancel()

	type outcome struct {
		suggestion types.Suggestion
		err        error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		s, err := o.generator.Generate(callCtx, greq)
		done <- outcome{s, err}
	}()

	var s types.Suggestion
	var err error
	select {
	case out := <-done:
		s, err = out.suggestion, out.err
		if err == nil && (s == nil || s.Section() != section) {
			err = errors.NewLLMError(fmt.Sprintf("generator returned no %s suggestion", section), nil)
		}
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	duration := time.Since(start)

	if err != nil {
		secErr := classify(section, err)
		span.SetStatus(codes.Error, secErr.Error())
		span.SetAttributes(attribute.String("error_code", secErr.Code))
		o.record(ctx, section, secErr.Code, duration)
		o.logger.LogError(secErr.Err, "Suggestion generation failed",
			"section", section,
			"candidate_type", greq.CandidateType,
			"duration_ms", duration.Milliseconds())
		return nil, secErr
	}

	o.record(ctx, section, "success", duration)
	o.logger.Debug("Suggestion generated",
		"section", section,
		"candidate_type", greq.CandidateType,
		"duration_ms", duration.Milliseconds())
	return s, nil
}

func (o *Orchestrator) timeoutFor(section types.SuggestionSection) time.Duration {
	if d, ok := o.sectionTimeouts[section]; ok {
		return d
	}
	return o.timeout
}

func (o *Orchestrator) record(ctx context.Context, section types.SuggestionSection, outcome string, d time.Duration) {
	if o.recorder != nil {
		o.recorder.RecordSuggestion(ctx, section, outcome, d)
	}
}

// userContext never fails: lookup errors and unknown users yield an empty
// context.
func (o *Orchestrator) userContext(ctx context.Context, userID string) *types.UserContext {
	if o.users == nil || userID == "" {
		return &types.UserContext{}
	}
	uc, err := o.users.GetUserContext(ctx, userID)
	if err != nil {
		o.logger.Warn("User context lookup failed, continuing without it",
			"user_id", userID,
			"error", err.Error())
		return &types.UserContext{}
	}
	return uc.Clone()
}

// buildRequest gives each section call its own copy of the shared inputs.
// Nil preferences stay nil.
func buildRequest(req types.SuggestionRequest, section types.SuggestionSection, userCtx *types.UserContext, candidate types.JobType, currentContent string) types.GenerationRequest {
	var prefs *types.OptimizationPreferences
	if req.Preferences != nil {
		p := *req.Preferences
		prefs = &p
	}
	var ats *types.ATSContext
	if req.ATSContext != nil {
		a := *req.ATSContext
		a.Components = slices.Clone(a.Components)
		a.MissingKeywords = slices.Clone(a.MissingKeywords)
		a.QuickWins = slices.Clone(a.QuickWins)
		ats = &a
	}

	return types.GenerationRequest{
		Section:        section,
		SectionText:    req.Sections.Text(section),
		JobDescription: req.JobDescription,
		Keywords:       slices.Clone(req.Keywords),
		Preferences:    prefs,
		UserContext:    userCtx.Clone(),
		Education:      req.Sections.Education,
		ATSContext:     ats,
		CandidateType:  candidate,
		CurrentContent: currentContent,
	}
}
