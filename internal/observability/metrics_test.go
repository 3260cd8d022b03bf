package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"atsoptimizer/internal/ai"
	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/types"
)

func allMetricsOn() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackScores: true, TrackSuggestions: true, TrackContentSizes: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackStorage: true},
	}
}

func newTestRecorder(t *testing.T, custom config.CustomMetricsConfig) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return NewRecorder(metrics, custom), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecorderAIOperation(t *testing.T) {
	rec, reader := newTestRecorder(t, allMetricsOn())
	ctx := context.Background()

	rec.RecordAIOperation(ctx, "summary", 2*time.Second, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil)
	rec.RecordAIOperation(ctx, "skills", time.Second, nil, errors.NewRateLimitedError("slow down", nil))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["atsoptimizer_ai_requests_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["atsoptimizer_ai_errors_total"]))

	tokens, ok := got["atsoptimizer_ai_tokens"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3)
	_, ok = got["atsoptimizer_ai_call_duration_seconds"]
	assert.True(t, ok)
}

func TestRecorderBusinessAndInfrastructure(t *testing.T) {
	rec, reader := newTestRecorder(t, allMetricsOn())
	ctx := context.Background()

	rec.RecordSuggestion(ctx, types.SuggestionSkills, "success", time.Second)
	rec.RecordSuggestion(ctx, types.SuggestionSummary, errors.ErrCodeLLMTimeout, time.Minute)
	rec.RecordScore(ctx, types.ScoreV21, 72)
	rec.RecordContentSize(ctx, "resume", 2048)
	rec.RecordRateLimitHit(ctx, "ip")
	rec.RecordStorage(ctx, "update_session", time.Millisecond, nil)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["atsoptimizer_suggestions_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["atsoptimizer_rate_limit_hits_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["atsoptimizer_storage_operations_total"]))

	scores, ok := got["atsoptimizer_score_overall"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, scores.DataPoints, 1)
	assert.Equal(t, int64(72), scores.DataPoints[0].Sum)
}

func TestRecorderHonorsSwitches(t *testing.T) {
	custom := allMetricsOn()
	custom.AIOperations.Enabled = false
	custom.BusinessMetrics.TrackScores = false
	custom.Infrastructure.Enabled = false
	rec, reader := newTestRecorder(t, custom)
	ctx := context.Background()

	rec.RecordAIOperation(ctx, "summary", time.Second, nil, nil)
	rec.RecordScore(ctx, types.ScoreV1, 50)
	rec.RecordRateLimitHit(ctx, "api_key")
	rec.RecordSuggestion(ctx, types.SuggestionExperience, "success", time.Second)

	got := collect(t, reader)
	assert.NotContains(t, got, "atsoptimizer_ai_requests_total")
	assert.NotContains(t, got, "atsoptimizer_score_overall")
	assert.NotContains(t, got, "atsoptimizer_rate_limit_hits_total")
	assert.Equal(t, int64(1), sumOf(t, got["atsoptimizer_suggestions_total"]))
}

func TestNilMetricsRecorderIsSafe(t *testing.T) {
	rec := NewRecorder(nil, allMetricsOn())
	ctx := context.Background()
	rec.RecordAIOperation(ctx, "summary", time.Second, nil, nil)
	rec.RecordSuggestion(ctx, types.SuggestionSkills, "success", time.Second)
	rec.RecordScore(ctx, types.ScoreV2, 10)
	rec.RecordContentSize(ctx, "resume", 1)
	rec.RecordRateLimitHit(ctx, "ip")
	rec.RecordStorage(ctx, "get_session", time.Second, nil)
}

func TestDisabledManager(t *testing.T) {
	m, err := NewManager(context.Background(), Settings{ServiceName: "test"}, errors.NewDiscardLogger())
	require.NoError(t, err)
	assert.NotNil(t, m.Recorder())
	assert.NotNil(t, m.Tracer("x"))
	h := m.HTTPMiddleware()
	assert.NotNil(t, h)
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "atsoptimizer"
	cfg.Observability.Console.Enabled = true
	cfg.Observability.Prometheus.Port = "9191"

	s := SettingsFromConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", s.ServiceVersion)
	assert.True(t, s.ConsoleOutput)
	assert.Equal(t, 15*time.Second, s.CollectionInterval)
	assert.Equal(t, "9191", s.Prometheus.Port)

	fallback := SettingsFromConfig(nil, "dev")
	assert.Equal(t, "atsoptimizer", fallback.ServiceName)
	assert.True(t, fallback.Prometheus.Enabled)
}

func TestSetupPrometheusExporter(t *testing.T) {
	reader, mux, err := SetupPrometheusExporter(PrometheusConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, reader)
	assert.Nil(t, mux)

	reader, mux, err = SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/prom"})
	require.NoError(t, err)
	require.NotNil(t, reader)

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	counter, err := provider.Meter("test").Int64Counter("atsoptimizer_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prom", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "atsoptimizer_test_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
