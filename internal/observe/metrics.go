// Package observe provides application-wide observability primitives for
// maeum: OpenTelemetry metrics, tracing helpers, and structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
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

// meterName is the instrumentation scope name used for all maeum metrics.
const meterName = "github.com/maeumlabs/maeum"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// PhaseDuration tracks per-phase pipeline latency. Use with attribute:
	//   attribute.String("phase", ...)
	PhaseDuration metric.Float64Histogram

	// RunDuration tracks end-to-end analysis latency.
	RunDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// Runs counts completed analyses by terminal status. Use with attribute:
	//   attribute.String("status", ...)
	Runs metric.Int64Counter

	// ModalityOutcomes counts per-modality results. Use with attributes:
	//   attribute.String("modality", ...), attribute.String("status", ...)
	ModalityOutcomes metric.Int64Counter

	// ModelCacheEvents counts deep-model cache hits and misses. Use with
	// attributes:
	//   attribute.String("layer", "memory"|"disk"), attribute.String("outcome", "hit"|"miss")
	ModelCacheEvents metric.Int64Counter

	// --- Gauges ---

	// ActiveRuns tracks the number of analyses currently in flight.
	ActiveRuns metric.Int64UpDownCounter

	// LoadedModels tracks the number of deep models resident in memory.
	LoadedModels metric.Int64UpDownCounter
}

// phaseBuckets defines histogram bucket boundaries (in seconds) sized for
// batch analysis phases, which run from sub-second fusion up to multi-minute
// transcription waits.
var phaseBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.PhaseDuration, err = m.Float64Histogram("maeum.phase.duration",
		metric.WithDescription("Latency of each pipeline phase."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(phaseBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RunDuration, err = m.Float64Histogram("maeum.run.duration",
		metric.WithDescription("End-to-end analysis latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(phaseBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("maeum.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("maeum.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("maeum.runs",
		metric.WithDescription("Total completed analyses by terminal status."),
	); err != nil {
		return nil, err
	}
	if met.ModalityOutcomes, err = m.Int64Counter("maeum.modality.outcomes",
		metric.WithDescription("Per-modality analysis outcomes by modality and status."),
	); err != nil {
		return nil, err
	}
	if met.ModelCacheEvents, err = m.Int64Counter("maeum.model_cache.events",
		metric.WithDescription("Deep-model cache hits and misses by cache layer."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveRuns, err = m.Int64UpDownCounter("maeum.active_runs",
		metric.WithDescription("Number of analyses currently in flight."),
	); err != nil {
		return nil, err
	}
	if met.LoadedModels, err = m.Int64UpDownCounter("maeum.loaded_models",
		metric.WithDescription("Number of deep models resident in memory."),
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

// RecordPhase records one pipeline phase duration in seconds.
func (m *Metrics) RecordPhase(ctx context.Context, phase string, seconds float64) {
	m.PhaseDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("phase", phase)),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordModality records one modality outcome.
func (m *Metrics) RecordModality(ctx context.Context, modality, status string) {
	m.ModalityOutcomes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("modality", modality),
			attribute.String("status", status),
		),
	)
}

// RecordModelCacheEvent records one deep-model cache lookup outcome.
func (m *Metrics) RecordModelCacheEvent(ctx context.Context, layer, outcome string) {
	m.ModelCacheEvents.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("layer", layer),
			attribute.String("outcome", outcome),
		),
	)
}
