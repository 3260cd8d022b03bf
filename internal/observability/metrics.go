package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"atsoptimizer/internal/ai"
	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

// Metrics holds all custom instruments.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	SuggestionCount    metric.Int64Counter
	SuggestionDuration metric.Float64Histogram
	ScoreOverall       metric.Int64Histogram
	ContentSize        metric.Int64Histogram

	// Infrastructure metrics
	RateLimitHits   metric.Int64Counter
	StorageOps      metric.Int64Counter
	StorageDuration metric.Float64Histogram
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram("atsoptimizer_ai_call_duration_seconds",
		metric.WithDescription("Time spent in model calls"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter("atsoptimizer_ai_requests_total",
		metric.WithDescription("Total number of model calls")); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter("atsoptimizer_ai_errors_total",
		metric.WithDescription("Total number of failed model calls by error code")); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram("atsoptimizer_ai_tokens",
		metric.WithDescription("Tokens used per model call (input, output, total)"), metric.WithUnit("{token}")); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.SuggestionCount, err = meter.Int64Counter("atsoptimizer_suggestions_total",
		metric.WithDescription("Suggestion calls by section and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create suggestion count metric: %w", err)
	}
	if m.SuggestionDuration, err = meter.Float64Histogram("atsoptimizer_suggestion_duration_seconds",
		metric.WithDescription("Wall time of a suggestion call including its timeout"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create suggestion duration metric: %w", err)
	}
	if m.ScoreOverall, err = meter.Int64Histogram("atsoptimizer_score_overall",
		metric.WithDescription("Overall ATS scores computed"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)); err != nil {
		return nil, fmt.Errorf("failed to create score metric: %w", err)
	}
	if m.ContentSize, err = meter.Int64Histogram("atsoptimizer_content_size_bytes",
		metric.WithDescription("Size of submitted resumes and job descriptions"), metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("failed to create content size metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter("atsoptimizer_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits")); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}
	if m.StorageOps, err = meter.Int64Counter("atsoptimizer_storage_operations_total",
		metric.WithDescription("Session store operations by operation and success")); err != nil {
		return nil, fmt.Errorf("failed to create storage operations metric: %w", err)
	}
	if m.StorageDuration, err = meter.Float64Histogram("atsoptimizer_storage_duration_seconds",
		metric.WithDescription("Session store latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create storage duration metric: %w", err)
	}
	return m, nil
}

// Recorder feeds the instruments, honoring the custom metric switches. A
// Recorder with nil metrics drops everything.
type Recorder struct {
	metrics *Metrics
	custom  config.CustomMetricsConfig
}

var (
	_ ai.UsageRecorder        = (*Recorder)(nil)
	_ suggestions.Recorder    = (*Recorder)(nil)
	_ optimizer.ScoreRecorder = (*Recorder)(nil)
)

func NewRecorder(metrics *Metrics, custom config.CustomMetricsConfig) *Recorder {
	return &Recorder{metrics: metrics, custom: custom}
}

// RecordAIOperation implements ai.UsageRecorder.
func (r *Recorder) RecordAIOperation(ctx context.Context, operation string, d time.Duration, usage *ai.TokenUsage, err error) {
	if r.metrics == nil || !r.custom.AIOperations.Enabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	r.metrics.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if r.custom.AIOperations.TrackDuration {
		r.metrics.AIProcessingTime.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = "UNKNOWN"
		}
		r.metrics.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("code", code)))
	}
	if usage != nil && r.custom.AIOperations.TrackTokenUsage {
		for _, tt := range []struct {
			kind  string
			value int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			r.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
				attribute.String("operation", operation),
				attribute.String("token_type", tt.kind)))
		}
	}
}

// RecordSuggestion implements suggestions.Recorder.
func (r *Recorder) RecordSuggestion(ctx context.Context, section types.SuggestionSection, outcome string, d time.Duration) {
	if !r.business() || !r.custom.BusinessMetrics.TrackSuggestions {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("section", string(section)),
		attribute.String("outcome", outcome))
	r.metrics.SuggestionCount.Add(ctx, 1, attrs)
	r.metrics.SuggestionDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordScore implements optimizer.ScoreRecorder.
func (r *Recorder) RecordScore(ctx context.Context, version types.ScoreVersion, overall int) {
	if !r.business() || !r.custom.BusinessMetrics.TrackScores {
		return
	}
	r.metrics.ScoreOverall.Record(ctx, int64(overall),
		metric.WithAttributes(attribute.String("version", string(version))))
}

// RecordContentSize records the size of a submitted document. kind is
// "resume" or "job_description".
func (r *Recorder) RecordContentSize(ctx context.Context, kind string, size int) {
	if !r.business() || !r.custom.BusinessMetrics.TrackContentSizes {
		return
	}
	r.metrics.ContentSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRateLimitHit counts a rejected request. keyType is "ip" or "api_key".
func (r *Recorder) RecordRateLimitHit(ctx context.Context, keyType string) {
	if !r.infra() || !r.custom.Infrastructure.TrackRateLimits {
		return
	}
	r.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordStorage records one session store call.
func (r *Recorder) RecordStorage(ctx context.Context, operation string, d time.Duration, err error) {
	if !r.infra() || !r.custom.Infrastructure.TrackStorage {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil))
	r.metrics.StorageOps.Add(ctx, 1, attrs)
	r.metrics.StorageDuration.Record(ctx, d.Seconds(), attrs)
}

func (r *Recorder) business() bool {
	return r.metrics != nil && r.custom.BusinessMetrics.Enabled
}

func (r *Recorder) infra() bool {
	return r.metrics != nil && r.custom.Infrastructure.Enabled
}
