package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

// Service routes model calls to the provider configured for each operation.
type Service struct {
	providers map[config.Operation]AIProvider
	recorder  UsageRecorder
	logger    *errors.Logger
}

var _ suggestions.Generator = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithUsageRecorder reports every model call to r.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates one provider per operation from cfg.
func NewService(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...Option) (*Service, error) {
	providers := make(map[config.Operation]AIProvider, len(config.Operations))
	for _, op := range config.Operations {
		opCfg := cfg.OperationConfig(op)
		logger.Debug("Initializing AI provider",
			"provider", opCfg.Provider,
			"operation", op,
			"model", opCfg.Model,
			"temperature", *opCfg.Temperature,
			"timeout", *opCfg.Timeout,
			"max_retries", *opCfg.MaxRetries,
			"use_system_prompts", *opCfg.UseSystemPrompts)

		switch opCfg.Provider {
		case "gemini":
			p, err := NewGeminiProvider(ctx, op, opCfg, cfg.Prompts(), logger)
			if err != nil {
				return nil, err
			}
			p.SetModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout)
			providers[op] = p
		default:
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Unsupported AI provider for %s: %s", op, opCfg.Provider), nil)
		}
	}
	return NewServiceWithProviders(providers, logger, opts...), nil
}

// NewServiceWithProviders creates a Service over existing providers.
func NewServiceWithProviders(providers map[config.Operation]AIProvider, logger *errors.Logger, opts ...Option) *Service {
	s := &Service{providers: providers, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) provider(op config.Operation) (AIProvider, error) {
	p, ok := s.providers[op]
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("No AI provider configured for %s", op), nil)
	}
	return p, nil
}

// Generate implements suggestions.Generator.
func (s *Service) Generate(ctx context.Context, req types.GenerationRequest) (types.Suggestion, error) {
	op := config.Operation(req.Section)
	p, err := s.provider(op)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	suggestion, usage, err := p.GenerateSuggestion(ctx, req)
	s.record(ctx, op, time.Since(start), usage, err)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// ExtractKeywords pulls keywords out of a job description.
func (s *Service) ExtractKeywords(ctx context.Context, jobDescription string) ([]types.ExtractedKeyword, error) {
	p, err := s.provider(config.OperationKeywords)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	keywords, usage, err := p.ExtractKeywords(ctx, jobDescription)
	s.record(ctx, config.OperationKeywords, time.Since(start), usage, err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Keywords extracted", "count", len(keywords))
	return keywords, nil
}

func (s *Service) record(ctx context.Context, op config.Operation, d time.Duration, usage *TokenUsage, err error) {
	if s.recorder != nil {
		s.recorder.RecordAIOperation(ctx, string(op), d, usage, err)
	}
}

// GetModelInfo returns model availability per operation for health checks.
func (s *Service) GetModelInfo(ctx context.Context) map[string]*ModelInfo {
	out := make(map[string]*ModelInfo, len(s.providers))
	for op, p := range s.providers {
		out[string(op)] = p.GetModelInfo(ctx)
	}
	return out
}

// GetCircuitBreakerStats returns breaker statistics per operation.
func (s *Service) GetCircuitBreakerStats() map[string]any {
	out := make(map[string]any, len(s.providers))
	for op, p := range s.providers {
		out[string(op)] = p.GetCircuitBreakerStats()
	}
	return out
}

// Close closes every provider.
func (s *Service) Close() error {
	var errs []error
	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
