package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.analyze")
	defer span.End()

	var req optimizer.AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	req.UserID = s.effectiveUser(ctx, req.UserID)

	s.recorder.RecordContentSize(ctx, "resume", len(req.ResumeText))
	if req.JobDescription != "" {
		s.recorder.RecordContentSize(ctx, "job_description", len(req.JobDescription))
	}
	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Int("request.keywords", len(req.Keywords)),
	)

	result, err := s.optimizer.Analyze(ctx, req)
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("session.id", result.SessionID.String()),
		attribute.Int("ats.score", result.Score.Overall),
		attribute.Bool("persisted", result.Persisted),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) gapsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.gaps")
	defer span.End()

	var req GapsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(ctx, w, span, err)
		return
	}

	result, err := s.optimizer.Gaps(req.Missing)
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("gaps.quick_wins", len(result.QuickWins)))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) promptPreviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.prompt_preview")
	defer span.End()

	var req PromptPreviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(ctx, w, span, err)
		return
	}

	prompt, err := s.optimizer.PreviewPrompt(ctx, req.Preferences, req.UserContext, s.effectiveUser(ctx, req.UserID))
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, PromptPreviewResponse{Prompt: prompt})
}

func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.suggestions")
	defer span.End()

	var req types.SuggestionRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	req.UserID = s.effectiveUser(ctx, req.UserID)
	s.recorder.RecordContentSize(ctx, "job_description", len(req.JobDescription))

	result, err := s.optimizer.Suggest(ctx, req)
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("session.id", result.SessionID.String()),
		attribute.Bool("persisted", result.Persisted),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) regenerateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.regenerate")
	defer span.End()

	section, err := types.ParseSuggestionSection(r.PathValue("section"))
	if err != nil {
		s.fail(ctx, w, span, errors.NewValidationError(errors.ErrCodeValidation, "unknown section", err))
		return
	}
	span.SetAttributes(attribute.String("section", string(section)))

	var req RegenerateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	req.UserID = s.effectiveUser(ctx, req.UserID)

	result, err := s.optimizer.Regenerate(ctx, req.SuggestionRequest, section, req.CurrentContent)
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.session")
	defer span.End()

	session, err := s.optimizer.Session(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(ctx, w, span, err)
		return
	}
	if user := userFromContext(ctx); user != "" && session.UserID != "" && session.UserID != user {
		s.fail(ctx, w, span, errors.NewStorageError(errors.ErrCodeSessionNotFound, "session not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// effectiveUser prefers the authenticated subject over the id in the body.
func (s *Server) effectiveUser(ctx context.Context, requested string) string {
	if user := userFromContext(ctx); user != "" {
		return user
	}
	return requested
}

// fail records err on the span and writes the matching error response.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	resp := ErrorResponse{Error: http.StatusText(http.StatusInternalServerError), Message: err.Error()}

	var genErr *suggestions.GenerationError
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &genErr):
		resp.Code = genErr.Code()
		resp.Failures = sectionFailures(genErr)
		resp.Partial = genErr.Partial
		resp.Message = "suggestion generation failed"
	case stderrors.As(err, &appErr):
		resp.Code = appErr.Code
	default:
		resp.Code = errors.ErrCodeInternalFailure
	}

	status := statusFor(resp.Code)
	resp.Error = http.StatusText(status)
	span.SetAttributes(attribute.String("error.code", resp.Code))
	if status >= http.StatusInternalServerError {
		s.logger.LogError(err, "Request failed", "code", resp.Code)
	} else {
		s.logger.Debug("Request rejected", "code", resp.Code, "error", err.Error())
	}
	writeErrorResponse(w, status, resp)
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeLLMError, errors.ErrCodeMalformedOutput:
		return http.StatusBadGateway
	case errors.ErrCodeCircuitOpen, errors.ErrCodeInvalidConfig, errors.ErrCodeMissingAPIKey:
		return http.StatusServiceUnavailable
	case errors.ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
