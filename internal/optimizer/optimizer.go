// Package optimizer runs one optimisation session end to end: keyword
// matching, scoring and gap analysis, then suggestion generation, with every
// result merged into the session store.
package optimizer

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/gaps"
	"atsoptimizer/internal/jobdesc"
	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/prompts"
	"atsoptimizer/internal/resume"
	"atsoptimizer/internal/scoring"
	"atsoptimizer/internal/store"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

// KeywordExtractor pulls keywords out of a job description.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, jobDescription string) ([]types.ExtractedKeyword, error)
}

// Suggester generates section suggestions.
type Suggester interface {
	GenerateAll(ctx context.Context, req types.SuggestionRequest) (*types.SuggestionSet, error)
	Regenerate(ctx context.Context, req types.SuggestionRequest, section types.SuggestionSection, currentContent string) (types.Suggestion, error)
}

// ScoreRecorder receives every computed score.
type ScoreRecorder interface {
	RecordScore(ctx context.Context, version types.ScoreVersion, overall int)
}

// Service holds the collaborators of a session. It keeps no per-session
// state of its own.
type Service struct {
	suggester     Suggester
	sessions      store.SessionStore
	users         store.UserContextStore
	keywords      KeywordExtractor
	matcher       *matching.Matcher
	calculator    *scoring.Calculator
	version       types.ScoreVersion
	acceptPartial bool
	scores        ScoreRecorder
	logger        *errors.Logger
	tracer        trace.Tracer
	newID         func() uuid.UUID
}

// Option configures a Service.
type Option func(*Service)

func WithKeywordExtractor(k KeywordExtractor) Option {
	return func(s *Service) { s.keywords = k }
}

func WithMatcher(m *matching.Matcher) Option {
	return func(s *Service) { s.matcher = m }
}

func WithCalculator(c *scoring.Calculator) Option {
	return func(s *Service) { s.calculator = c }
}

// WithScoreVersion sets the version used when a request names none.
func WithScoreVersion(v types.ScoreVersion) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

// WithAcceptPartial sets the default partial acceptance policy.
func WithAcceptPartial(accept bool) Option {
	return func(s *Service) { s.acceptPartial = accept }
}

func WithScoreRecorder(r ScoreRecorder) Option {
	return func(s *Service) { s.scores = r }
}

// New creates a Service. suggester may be nil for analysis-only use, and
// users may be nil when no profiles are stored.
func New(suggester Suggester, sessions store.SessionStore, users store.UserContextStore, logger *errors.Logger, opts ...Option) *Service {
	s := &Service{
		suggester:  suggester,
		sessions:   sessions,
		users:      users,
		matcher:    matching.NewMatcher(),
		calculator: scoring.NewCalculator(),
		version:    types.ScoreV21,
		logger:     logger,
		tracer:     otel.Tracer("atsoptimizer/optimizer"),
		newID:      uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalysisRequest scores a resume against a job. Keywords are checked by the
// matcher, which reports INVALID_INPUT for malformed entries.
type AnalysisRequest struct {
	SessionID      string                   `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	UserID         string                   `json:"userId,omitempty"`
	ResumeText     string                   `json:"resumeText" validate:"required"`
	JobDescription string                   `json:"jobDescription,omitempty"`
	Keywords       []types.ExtractedKeyword `json:"keywords,omitempty"`
	Version        string                   `json:"version,omitempty"`
}

// AnalysisResult is everything Analyze computed. It is also persisted.
type AnalysisResult struct {
	SessionID   uuid.UUID                      `json:"sessionId"`
	Analysis    types.KeywordAnalysisResult    `json:"analysis"`
	Score       types.ATSScore                 `json:"score"`
	Gaps        types.GapAnalysis              `json:"gaps"`
	Sections    types.ResumeSections           `json:"sections"`
	Explanation []scoring.ComponentExplanation `json:"explanation,omitempty"`
	Persisted   bool                           `json:"persisted"`
}

// Analyze matches keywords, scores the resume and ranks the gaps. When the
// request has a job description but no keywords, keywords are extracted
// from the description first.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := types.Validate(&req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid analysis request", err)
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "resume text is blank", nil)
	}
	id, err := s.sessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	version := s.version
	if req.Version != "" {
		if version, err = types.ParseScoreVersion(req.Version); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid score version", err)
		}
	}

	ctx, span := s.tracer.Start(ctx, "optimizer.analyze",
		trace.WithAttributes(attribute.String("session_id", id.String())))
	defer span.End()

	keywords, err := s.resolveKeywords(ctx, req.JobDescription, req.Keywords)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	analysis, err := s.matcher.Match(keywords, req.ResumeText)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	signals := resume.Extract(req.ResumeText, analysis)
	score, err := s.calculator.Compute(analysis, signals.Sections, signals.Format, signals.Content, version)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	gapAnalysis := gaps.Prioritize(analysis.Missing)

	span.SetAttributes(
		attribute.Int("keywords.total", analysis.Total()),
		attribute.Int("keywords.match_rate", analysis.MatchRate),
		attribute.Int("score.overall", score.Overall),
		attribute.String("score.version", string(version)),
	)
	if s.scores != nil {
		s.scores.RecordScore(ctx, version, score.Overall)
	}

	result := &AnalysisResult{
		SessionID:   id,
		Analysis:    analysis,
		Score:       score,
		Gaps:        gapAnalysis,
		Sections:    resume.SectionTexts(req.ResumeText),
		Explanation: scoring.Explain(score),
	}
	result.Persisted = s.persist(ctx, id, types.SessionUpdate{
		UserID:          req.UserID,
		KeywordAnalysis: &result.Analysis,
		Score:           &result.Score,
		Gaps:            &result.Gaps,
	})

	s.logger.Info("Resume analyzed",
		"session_id", id.String(),
		"keywords", analysis.Total(),
		"match_rate", analysis.MatchRate,
		"overall", score.Overall,
		"version", string(version),
		"quick_wins", len(gapAnalysis.QuickWins))
	return result, nil
}

// SuggestResult holds a complete suggestion set.
type SuggestResult struct {
	SessionID   uuid.UUID            `json:"sessionId"`
	Suggestions *types.SuggestionSet `json:"suggestions"`
	Persisted   bool                 `json:"persisted"`
}

// Suggest generates suggestions for all three sections. A complete set is
// always persisted. When a section fails the *suggestions.GenerationError is
// returned, and the sections that succeeded are persisted only if partial
// acceptance is enabled by the request or by default.
func (s *Service) Suggest(ctx context.Context, req types.SuggestionRequest) (*SuggestResult, error) {
	if s.suggester == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "suggestion generation is not configured", nil)
	}
	if err := types.Validate(&req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid suggestion request", err)
	}
	id, err := s.sessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	req.SessionID = id.String()

	if err := s.prepare(ctx, id, &req); err != nil {
		return nil, err
	}

	set, err := s.suggester.GenerateAll(ctx, req)
	if err != nil {
		var genErr *suggestions.GenerationError
		if stderrors.As(err, &genErr) && genErr.Partial != nil && s.accepts(req.AcceptPartial) {
			persisted := s.persist(ctx, id, withUser(types.SessionUpdateFromSet(genErr.Partial), req.UserID))
			s.logger.Info("Persisted partial suggestions",
				"session_id", id.String(),
				"failed_sections", genErr.FailedSections(),
				"persisted", persisted)
		}
		return nil, err
	}

	return &SuggestResult{
		SessionID:   id,
		Suggestions: set,
		Persisted:   s.persist(ctx, id, withUser(types.SessionUpdateFromSet(set), req.UserID)),
	}, nil
}

// RegenerateResult holds a single regenerated suggestion.
type RegenerateResult struct {
	SessionID  uuid.UUID        `json:"sessionId"`
	Suggestion types.Suggestion `json:"suggestion"`
	Persisted  bool             `json:"persisted"`
}

// Regenerate replaces the suggestion for one section.
func (s *Service) Regenerate(ctx context.Context, req types.SuggestionRequest, section types.SuggestionSection, currentContent string) (*RegenerateResult, error) {
	if s.suggester == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "suggestion generation is not configured", nil)
	}
	if err := types.Validate(&req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid suggestion request", err)
	}
	id, err := s.sessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	req.SessionID = id.String()

	if err := s.prepare(ctx, id, &req); err != nil {
		return nil, err
	}

	suggestion, err := s.suggester.Regenerate(ctx, req, section, currentContent)
	if err != nil {
		return nil, err
	}

	var set types.SuggestionSet
	set.Put(suggestion)
	return &RegenerateResult{
		SessionID:  id,
		Suggestion: suggestion,
		Persisted:  s.persist(ctx, id, withUser(types.SessionUpdateFromSet(&set), req.UserID)),
	}, nil
}

// Session returns the stored session for id.
func (s *Service) Session(ctx context.Context, id string) (*types.Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid session id", err).
			WithContext("session_id", id)
	}
	return s.sessions.GetSession(ctx, parsed)
}

// PreviewPrompt renders the preference block. An explicit user context wins
// over the stored one for userID.
func (s *Service) PreviewPrompt(ctx context.Context, prefs *types.OptimizationPreferences, userCtx *types.UserContext, userID string) (string, error) {
	if prefs != nil {
		if err := types.Validate(prefs); err != nil {
			return "", errors.NewValidationError(errors.ErrCodeValidation, "invalid preferences", err)
		}
	}
	if userCtx == nil && userID != "" {
		userCtx = s.lookupUser(ctx, userID)
	}
	return prompts.BuildPreferencePrompt(prefs, userCtx), nil
}

// Gaps ranks missing keywords.
func (s *Service) Gaps(missing []types.ExtractedKeyword) (types.GapAnalysis, error) {
	for _, kw := range missing {
		if err := types.Validate(&kw); err != nil {
			return types.GapAnalysis{}, errors.NewValidationError(errors.ErrCodeValidation, "invalid keyword", err)
		}
	}
	return gaps.Prioritize(missing), nil
}

// prepare fills what the request leaves out from the stored session: the
// keyword list and the ATS context. The job description is normalised and,
// if still no keywords are known, keywords are extracted from it.
func (s *Service) prepare(ctx context.Context, id uuid.UUID, req *types.SuggestionRequest) error {
	jd, err := jobdesc.Normalize(req.JobDescription)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeValidation, "invalid job description", err)
	}
	req.JobDescription = jd

	if len(req.Keywords) == 0 || req.ATSContext == nil {
		if session, err := s.sessions.GetSession(ctx, id); err == nil {
			if len(req.Keywords) == 0 && session.KeywordAnalysis != nil {
				req.Keywords = analysedKeywords(session.KeywordAnalysis)
			}
			if req.ATSContext == nil && session.Score != nil && session.KeywordAnalysis != nil {
				req.ATSContext = types.NewATSContext(session.Score, session.Gaps, session.KeywordAnalysis.Missing)
			}
		} else if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
			s.logger.LogError(err, "Failed to load session, continuing without it", "session_id", id.String())
		}
	}

	if len(req.Keywords) == 0 {
		keywords, err := s.resolveKeywords(ctx, jd, nil)
		if err != nil {
			return err
		}
		req.Keywords = keywords
	}
	return nil
}

func (s *Service) resolveKeywords(ctx context.Context, jobDescription string, keywords []types.ExtractedKeyword) ([]types.ExtractedKeyword, error) {
	if len(keywords) > 0 || jobDescription == "" || s.keywords == nil {
		return keywords, nil
	}
	jd, err := jobdesc.Normalize(jobDescription)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid job description", err)
	}
	start := time.Now()
	extracted, err := s.keywords.ExtractKeywords(ctx, jd)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Keywords extracted from job description",
		"count", len(extracted),
		"duration", time.Since(start))
	return extracted, nil
}

func (s *Service) sessionID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return s.newID(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(errors.ErrCodeValidation, "invalid session id", err).
			WithContext("session_id", raw)
	}
	return id, nil
}

func (s *Service) accepts(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.acceptPartial
}

// persist merges update into the session. Storage failures are logged and
// reported as false; the computed result is still returned to the caller.
func (s *Service) persist(ctx context.Context, id uuid.UUID, update types.SessionUpdate) bool {
	if err := s.sessions.UpdateSession(ctx, id, update); err != nil {
		s.logger.LogError(err, "Failed to persist session", "session_id", id.String())
		return false
	}
	return true
}

func (s *Service) lookupUser(ctx context.Context, userID string) *types.UserContext {
	if s.users == nil {
		return &types.UserContext{}
	}
	uc, err := s.users.GetUserContext(ctx, userID)
	if err != nil {
		s.logger.Warn("User context lookup failed, using empty context", "user_id", userID, "error", err)
		return &types.UserContext{}
	}
	return uc
}

func withUser(u types.SessionUpdate, userID string) types.SessionUpdate {
	u.UserID = userID
	return u
}

// analysedKeywords recovers the original keyword list from a stored
// analysis, dropping the match annotations.
func analysedKeywords(a *types.KeywordAnalysisResult) []types.ExtractedKeyword {
	out := make([]types.ExtractedKeyword, 0, a.Total())
	for _, group := range [][]types.ExtractedKeyword{a.Matched, a.Missing} {
		for _, kw := range group {
			out = append(out, types.ExtractedKeyword{Keyword: kw.Keyword, Category: kw.Category, Importance: kw.Importance})
		}
	}
	return out
}
