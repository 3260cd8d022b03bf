package cli

import (
	"context"
	"fmt"

	"atsoptimizer/internal/ai"
	"atsoptimizer/internal/common"
	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/observability"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/store"
	"atsoptimizer/internal/suggestions"
)

// services is the wired object graph behind every command.
type services struct {
	optimizer *optimizer.Service
	ai        *ai.Service
	store     store.Store
	logger    *errors.Logger
}

type buildOptions struct {
	// withAI creates the model-backed keyword extractor and suggester.
	withAI bool
	// recorder is set in serve mode; commands log token usage instead.
	recorder      *observability.Recorder
	acceptPartial *bool
}

func buildServices(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts buildOptions) (*services, error) {
	backend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if opts.recorder != nil {
		backend = store.NewInstrumented(backend, opts.recorder)
	}

	svc := &services{store: backend, logger: logger}

	optOpts := []optimizer.Option{
		optimizer.WithScoreVersion(cfg.ScoreVersion()),
		optimizer.WithAcceptPartial(cfg.Suggestions.AcceptPartial),
		optimizer.WithMatcher(matching.NewMatcher(matching.WithSynonyms(synonymGroups(cfg.Matching.Synonyms)))),
	}
	if opts.acceptPartial != nil {
		optOpts = append(optOpts, optimizer.WithAcceptPartial(*opts.acceptPartial))
	}
	if opts.recorder != nil {
		optOpts = append(optOpts, optimizer.WithScoreRecorder(opts.recorder))
	}

	if !opts.withAI {
		svc.optimizer = optimizer.New(nil, backend, backend, logger, optOpts...)
		return svc, nil
	}

	if err := cfg.RequireAIKey(); err != nil {
		_ = backend.Close()
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "AI API key is not configured", err)
	}

	var usage ai.UsageRecorder = common.NewUsageLogger(logger)
	if opts.recorder != nil {
		usage = opts.recorder
	}
	aiService, err := ai.NewService(ctx, cfg, logger, ai.WithUsageRecorder(usage))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}
	svc.ai = aiService

	orchOpts := []suggestions.Option{suggestions.WithCallTimeout(cfg.Suggestions.CallTimeout)}
	if opts.recorder != nil {
		orchOpts = append(orchOpts, suggestions.WithRecorder(opts.recorder))
	}
	orchestrator := suggestions.New(aiService, backend, logger, orchOpts...)

	optOpts = append(optOpts, optimizer.WithKeywordExtractor(aiService))
	svc.optimizer = optimizer.New(orchestrator, backend, backend, logger, optOpts...)
	return svc, nil
}

// Close releases the AI client and the store.
func (s *services) Close() {
	if s.ai != nil {
		if err := s.ai.Close(); err != nil {
			s.logger.Warn("Failed to close AI service", "error", err)
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("Failed to close store", "error", err)
	}
}

// synonymGroups turns configured groups into the matcher's form: the first
// term maps to the rest.
func synonymGroups(groups [][]string) map[string][]string {
	if len(groups) == 0 {
		return nil
	}
	out := make(map[string][]string, len(groups))
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		out[group[0]] = append(out[group[0]], group[1:]...)
	}
	return out
}
