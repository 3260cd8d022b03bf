package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/prompts"
	"atsoptimizer/internal/types"
)

const (
	defaultModelCheckTimeout = 10 * time.Second
	maxBackoff               = 30 * time.Second
)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type modelFunc func(ctx context.Context, model string) (*genai.Model, error)

// GeminiProvider implements AIProvider for Google Gemini. Each provider
// serves one operation with that operation's settings.
type GeminiProvider struct {
	client    *genai.Client
	operation config.Operation
	config    config.OperationAIConfig
	prompts   *config.PromptStore
	logger    *errors.Logger

	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]

	generate          generateFunc
	getModel          modelFunc
	retryBaseDelay    time.Duration
	modelCheckTimeout time.Duration
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for op. cfg must already have
// the global fallbacks applied.
func NewGeminiProvider(ctx context.Context, op config.Operation, cfg config.OperationAIConfig, promptStore *config.PromptStore, logger *errors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("Gemini API key is not configured for %s", op), nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, errors.NewLLMError("Failed to create Gemini client", err)
	}

	g := newGeminiProvider(op, cfg, promptStore, logger)
	g.client = client
	g.generate = client.Models.GenerateContent
	g.getModel = func(ctx context.Context, model string) (*genai.Model, error) {
		return client.Models.Get(ctx, model, &genai.GetModelConfig{})
	}
	return g, nil
}

// newGeminiProvider wires everything except the API client.
func newGeminiProvider(op config.Operation, cfg config.OperationAIConfig, promptStore *config.PromptStore, logger *errors.Logger) *GeminiProvider {
	if cfg.MaxRetries == nil {
		zero := 0
		cfg.MaxRetries = &zero
	}
	if cfg.Temperature == nil {
		var t float32
		cfg.Temperature = &t
	}
	if cfg.UseSystemPrompts == nil {
		use := true
		cfg.UseSystemPrompts = &use
	}
	return &GeminiProvider{
		operation:         op,
		config:            cfg,
		prompts:           promptStore,
		logger:            logger.With("operation", string(op), "model", cfg.Model),
		circuitBreaker:    newGenerationBreaker[*genai.GenerateContentResponse](op, cfg.CircuitBreaker, logger),
		modelBreaker:      newModelBreaker[*genai.Model](op, cfg.CircuitBreaker, logger),
		retryBaseDelay:    time.Second,
		modelCheckTimeout: defaultModelCheckTimeout,
	}
}

// SetModelCheckTimeout bounds GetModelInfo calls.
func (g *GeminiProvider) SetModelCheckTimeout(d time.Duration) {
	if d > 0 {
		g.modelCheckTimeout = d
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}
	if g.getModel == nil {
		modelInfo.Error = "model lookup not available"
		return modelInfo
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.getModel(checkCtx, g.config.Model)
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed", "error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	g.logger.Debug("Model availability check successful",
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)
	return modelInfo
}

// GenerateSuggestion produces the suggestion for the section of req.
func (g *GeminiProvider) GenerateSuggestion(ctx context.Context, req types.GenerationRequest) (types.Suggestion, *TokenUsage, error) {
	if config.Operation(req.Section) != g.operation {
		return nil, nil, errors.NewInvalidInputError(
			fmt.Sprintf("%s provider cannot generate %q suggestions", g.operation, req.Section), nil)
	}

	override := g.overrides()
	systemPrompt := resolvePrompt(override.System, DefaultSystemPrompts[g.operation])
	userPrompt := prompts.BuildSectionPrompt(req, override.Instructions)
	attrs := []attribute.KeyValue{
		attribute.String("suggestion.section", string(req.Section)),
		attribute.String("suggestion.candidate_type", string(req.CandidateType)),
		attribute.Int("input.section_length", len(req.SectionText)),
		attribute.Int("input.job_length", len(req.JobDescription)),
		attribute.Bool("input.regenerate", req.CurrentContent != ""),
	}

	switch req.Section {
	case types.SuggestionSummary:
		out, usage, err := executeAIOperation[types.SummarySuggestion](g, ctx, userPrompt, systemPrompt, attrs...)
		if err != nil {
			return nil, nil, err
		}
		if out.Original == "" {
			out.Original = req.SectionText
		}
		return out, usage, nil
	case types.SuggestionSkills:
		out, usage, err := executeAIOperation[types.SkillsSuggestion](g, ctx, userPrompt, systemPrompt, attrs...)
		if err != nil {
			return nil, nil, err
		}
		return out, usage, nil
	default:
		out, usage, err := executeAIOperation[types.ExperienceSuggestion](g, ctx, userPrompt, systemPrompt, attrs...)
		if err != nil {
			return nil, nil, err
		}
		return out, usage, nil
	}
}

type keywordExtraction struct {
	Keywords []types.ExtractedKeyword `json:"keywords"`
}

// ExtractKeywords asks the model for the keywords of a job description.
// Duplicates are dropped case-insensitively, keeping the first occurrence.
func (g *GeminiProvider) ExtractKeywords(ctx context.Context, jobDescription string) ([]types.ExtractedKeyword, *TokenUsage, error) {
	if g.operation != config.OperationKeywords {
		return nil, nil, errors.NewInvalidInputError(
			fmt.Sprintf("%s provider cannot extract keywords", g.operation), nil)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return nil, nil, errors.NewInvalidInputError("job description is empty", nil)
	}

	override := g.overrides()
	systemPrompt := resolvePrompt(override.System, DefaultSystemPrompts[g.operation])
	userPrompt := BuildKeywordPrompt(jobDescription, override.Instructions)

	out, usage, err := executeAIOperation[keywordExtraction](g, ctx, userPrompt, systemPrompt,
		attribute.Int("input.job_length", len(jobDescription)))
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(out.Keywords))
	keywords := make([]types.ExtractedKeyword, 0, len(out.Keywords))
	for _, kw := range out.Keywords {
		kw.Keyword = strings.TrimSpace(kw.Keyword)
		key := strings.ToLower(kw.Keyword)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !kw.Category.Valid() {
			kw.Category = ""
		}
		keywords = append(keywords, types.ExtractedKeyword{
			Keyword:    kw.Keyword,
			Category:   kw.Category,
			Importance: kw.Importance,
		})
	}
	return keywords, usage, nil
}

func (g *GeminiProvider) overrides() config.OperationPrompts {
	if g.prompts == nil {
		return config.OperationPrompts{}
	}
	return g.prompts.Get(g.operation)
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := *g.config.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry", "total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts", "error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"total_attempts", maxRetries+1)
	return nil, fmt.Errorf("%s failed after %d retries: %w", g.operation, maxRetries, lastErr)
}

// backoff is exponential with up to 10% jitter, capped at maxBackoff.
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * g.retryBaseDelay
	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, maxBackoff)
}

// executeAIOperation runs one model call with tracing, circuit breaking,
// retries, schema validation and decoding.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	ctx, span := otel.Tracer("atsoptimizer/ai").Start(ctx, "gemini."+string(g.operation))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(g.operation),
	}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	} else if systemPrompt != "" {
		userPrompt = systemPrompt + "\n\n" + userPrompt
	}

	fail := func(err *errors.AppError) (Out, *TokenUsage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Code)
		span.SetAttributes(attribute.Bool("success", false), attribute.String("error.code", err.Code))
		return output, nil, err
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.generate(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		return fail(classifyProviderError(g.operation, err))
	}

	text := result.Text()
	if err := validateOutput(g.operation, text); err != nil {
		return fail(errors.NewLLMError("Model returned malformed output for "+string(g.operation), err).
			WithContext("reason", errors.ErrCodeMalformedOutput).
			WithContext("operation", string(g.operation)))
	}
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return fail(errors.NewLLMError("Failed to parse model response for "+string(g.operation), err).
			WithContext("reason", errors.ErrCodeMalformedOutput).
			WithContext("operation", string(g.operation)))
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements AIProvider. The genai client holds no resources in
// single-shot mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
