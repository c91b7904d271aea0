// Package observe provides the observability primitives for vocalrange:
// OpenTelemetry metrics with a Prometheus bridge and structured logging.
//
// Tests should use [NewMetrics] with their own [metric.MeterProvider] so
// recorded values do not leak between tests.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all vocalrange metrics.
const meterName = "github.com/0xlemi/vocalrange"

// Detection outcomes recorded by [Metrics.RecordDetection].
const (
	OutcomeDetected   = "detected"
	OutcomeSilent     = "silent"
	OutcomeNoPeriod   = "no_period"
	OutcomeOutOfRange = "out_of_range"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
type Metrics struct {
	// FramesProcessed counts audio frames handed to the pitch detector.
	FramesProcessed metric.Int64Counter

	// Detections counts detector results. Use with attribute:
	//   attribute.String("outcome", ...)
	Detections metric.Int64Counter

	// EstimationDuration tracks per-frame pitch estimation latency.
	EstimationDuration metric.Float64Histogram

	// Captures counts frozen range endpoints. Use with attribute:
	//   attribute.String("endpoint", "first"|"second")
	Captures metric.Int64Counter

	// AdvisorDuration tracks advisory request latency. Use with attribute:
	//   attribute.String("provider", ...)
	AdvisorDuration metric.Float64Histogram

	// AdvisorFailures counts failed advisory requests. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("reason", ...)
	AdvisorFailures metric.Int64Counter
}

// estimationBuckets are in seconds; one frame should take well under 10ms.
var estimationBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
}

// advisorBuckets are in seconds.
var advisorBuckets = []float64{
	0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesProcessed, err = m.Int64Counter("vocalrange.frames.processed",
		metric.WithDescription("Total audio frames analysed."),
	); err != nil {
		return nil, err
	}
	if met.Detections, err = m.Int64Counter("vocalrange.pitch.detections",
		metric.WithDescription("Pitch detection results by outcome."),
	); err != nil {
		return nil, err
	}
	if met.EstimationDuration, err = m.Float64Histogram("vocalrange.pitch.duration",
		metric.WithDescription("Latency of one pitch estimation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(estimationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Captures, err = m.Int64Counter("vocalrange.session.captures",
		metric.WithDescription("Captured range endpoints."),
	); err != nil {
		return nil, err
	}
	if met.AdvisorDuration, err = m.Float64Histogram("vocalrange.advisor.duration",
		metric.WithDescription("Latency of advisory requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(advisorBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AdvisorFailures, err = m.Int64Counter("vocalrange.advisor.failures",
		metric.WithDescription("Failed advisory requests by provider and reason."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider].
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

// RecordDetection counts one analysed frame and its outcome.
func (m *Metrics) RecordDetection(ctx context.Context, outcome string, elapsed time.Duration) {
	m.FramesProcessed.Add(ctx, 1)
	m.Detections.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.EstimationDuration.Record(ctx, elapsed.Seconds())
}

// RecordCapture counts a frozen endpoint.
func (m *Metrics) RecordCapture(ctx context.Context, endpoint string) {
	m.Captures.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordAdvisorRequest records the latency of an advisory request and, when
// reason is non-empty, a failure.
func (m *Metrics) RecordAdvisorRequest(ctx context.Context, provider, reason string, elapsed time.Duration) {
	m.AdvisorDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)),
	)
	if reason == "" {
		return
	}
	m.AdvisorFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("reason", reason),
		),
	)
}
