// Package observe provides application-wide observability primitives for
// echodiff: OpenTelemetry metrics, tracing, and their SDK wiring.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all echodiff metrics.
const meterName = "github.com/MrWong99/echodiff"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscribeDuration tracks speech-to-text transcription latency.
	TranscribeDuration metric.Float64Histogram

	// NormalizeDuration tracks text normalization latency.
	NormalizeDuration metric.Float64Histogram

	// DiffDuration tracks per-pair diff latency, alignment and
	// back-projection included.
	DiffDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// HTTPRequestDuration tracks request latency on the metrics listener.
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// PairsDiffed counts diffed text pairs. Use with attribute:
	//   attribute.String("status", ...)
	PairsDiffed metric.Int64Counter

	// MismatchRegions counts mismatching regions found across all pairs.
	MismatchRegions metric.Int64Counter

	// ProviderRequests counts transcription provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts transcription provider errors. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Diffing
// is fast, transcription is not, so the range is wide.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscribeDuration, err = m.Float64Histogram("echodiff.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.NormalizeDuration, err = m.Float64Histogram("echodiff.normalize.duration",
		metric.WithDescription("Latency of text normalization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DiffDuration, err = m.Float64Histogram("echodiff.diff.duration",
		metric.WithDescription("Latency of diffing one text pair."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("echodiff.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("echodiff.http.request.duration",
		metric.WithDescription("Latency of HTTP requests by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.PairsDiffed, err = m.Int64Counter("echodiff.pairs.diffed",
		metric.WithDescription("Total diffed text pairs by status."),
	); err != nil {
		return nil, err
	}
	if met.MismatchRegions, err = m.Int64Counter("echodiff.regions.mismatched",
		metric.WithDescription("Total mismatching regions found."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("echodiff.provider.requests",
		metric.WithDescription("Total transcription provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("echodiff.provider.errors",
		metric.WithDescription("Total transcription provider errors by provider."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordPairDiffed records one diffed pair with the given status.
func (m *Metrics) RecordPairDiffed(ctx context.Context, status string) {
	m.PairsDiffed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordProviderRequest records a transcription provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a transcription provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
