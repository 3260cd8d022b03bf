package server

import (
	"context"
	"time"

	"atsoptimizer/internal/ai"
	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/observability"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"

	"go.opentelemetry.io/otel/trace"
)

// GapsRequest represents the request body for the gaps endpoint
type GapsRequest struct {
	Missing []types.ExtractedKeyword `json:"missing"`
}

// PromptPreviewRequest represents the request body for the prompt preview endpoint
type PromptPreviewRequest struct {
	Preferences *types.OptimizationPreferences `json:"preferences,omitempty"`
	UserContext *types.UserContext             `json:"userContext,omitempty"`
	UserID      string                         `json:"userId,omitempty"`
}

// PromptPreviewResponse carries the rendered preference block
type PromptPreviewResponse struct {
	Prompt string `json:"prompt"`
}

// RegenerateRequest is a suggestion request for a single section plus the
// section's current content.
type RegenerateRequest struct {
	types.SuggestionRequest
	CurrentContent string `json:"currentContent,omitempty"`
}

// ErrorResponse represents an error response. Failures and Partial are set
// when a suggestion run failed for some sections.
type ErrorResponse struct {
	Error    string               `json:"error"`
	Message  string               `json:"message,omitempty"`
	Code     string               `json:"code,omitempty"`
	Failures []SectionFailure     `json:"failures,omitempty"`
	Partial  *types.SuggestionSet `json:"partial,omitempty"`
}

// SectionFailure describes one failed suggestion section
type SectionFailure struct {
	Section types.SuggestionSection `json:"section"`
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
}

// ModelInspector reports model availability and breaker state.
type ModelInspector interface {
	GetModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// Backend is the persistence surface the health and stats endpoints look at.
type Backend interface {
	Ping(ctx context.Context) error
	Stats() map[string]any
}

// Server serves the optimisation API over HTTP
type Server struct {
	cfg     config.ServerConfig
	health  config.HealthCheckConfig
	version string

	optimizer *optimizer.Service
	models    ModelInspector
	backend   Backend

	obs      *observability.Manager
	recorder *observability.Recorder
	tracer   trace.Tracer

	// API Authentication
	apiKeys map[string]bool
	auth    *tokenVerifier

	// Request size limit
	maxRequestSize int64

	rateLimiter *RateLimiter
	logger      *errors.Logger
}

// Option configures optional collaborators.
type Option func(*Server)

// WithModels enables model status on /health and breaker stats on /stats.
func WithModels(m ModelInspector) Option {
	return func(s *Server) { s.models = m }
}

// WithBackend enables store checks on /health and /stats.
func WithBackend(b Backend) Option {
	return func(s *Server) { s.backend = b }
}

// WithObservability installs tracing middleware and the metric recorder.
func WithObservability(m *observability.Manager) Option {
	return func(s *Server) { s.obs = m }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server from the application configuration.
func New(cfg *config.Config, svc *optimizer.Service, logger *errors.Logger, opts ...Option) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s := &Server{
		cfg:            cfg.Server,
		health:         cfg.Observability.HealthCheck,
		version:        "dev",
		optimizer:      svc,
		apiKeys:        apiKeyMap,
		maxRequestSize: requestSizeLimit(cfg.App.MaxFileSize),
		logger:         logger,
	}
	if cfg.Server.Auth.JWTSecret != "" {
		s.auth = newTokenVerifier(cfg.Server.Auth)
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.obs == nil {
		s.obs, _ = observability.NewManager(context.Background(), observability.Settings{ServiceName: "atsoptimizer"}, logger)
	}
	s.recorder = s.obs.Recorder()
	s.tracer = s.obs.Tracer("atsoptimizer/api")

	if cfg.Server.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}
	return s
}

// requestSizeLimit allows a resume and a job description of the maximum
// file size each, plus room for the JSON envelope.
func requestSizeLimit(maxFileSize int64) int64 {
	if maxFileSize <= 0 {
		return 0
	}
	return 2*maxFileSize + 64*1024
}

func sectionFailures(genErr *suggestions.GenerationError) []SectionFailure {
	out := make([]SectionFailure, len(genErr.Failures))
	for i, f := range genErr.Failures {
		out[i] = SectionFailure{Section: f.Section, Code: f.Code, Message: f.Err.Error()}
	}
	return out
}

// timeoutOr returns d, or fallback when d is unset.
func timeoutOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
