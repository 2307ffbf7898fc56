package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ariamap/ariamap/internal/pipeline"

// Metrics holds the OpenTelemetry instruments for the map pipeline.
type Metrics struct {
	mapsGenerated metric.Int64Counter
	scopeFailures metric.Int64Counter
	fitDuration   metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with initialized instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	mapsGenerated, err := meter.Int64Counter(
		"pipeline.maps.generated",
		metric.WithDescription("Total number of map artifacts produced"),
		metric.WithUnit("{map}"),
	)
	if err != nil {
		return nil, err
	}

	scopeFailures, err := meter.Int64Counter(
		"pipeline.scope.failures",
		metric.WithDescription("Total number of aborted scope runs"),
		metric.WithUnit("{scope}"),
	)
	if err != nil {
		return nil, err
	}

	fitDuration, err := meter.Float64Histogram(
		"pipeline.fit.duration",
		metric.WithDescription("Duration of one interpolation fit/predict in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		mapsGenerated: mapsGenerated,
		scopeFailures: scopeFailures,
		fitDuration:   fitDuration,
	}, nil
}

// RecordMap records one produced artifact. Nil-safe so the pipeline can
// run without telemetry.
func (m *Metrics) RecordMap(ctx context.Context, scope, label string) {
	if m == nil {
		return
	}
	m.mapsGenerated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline.scope", scope),
		attribute.String("pipeline.label", label),
	))
}

// RecordScopeFailure records one aborted scope.
func (m *Metrics) RecordScopeFailure(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.scopeFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline.scope", scope),
	))
}

// RecordFit records the duration of one interpolation call.
func (m *Metrics) RecordFit(ctx context.Context, scope, label string, d time.Duration) {
	if m == nil {
		return
	}
	m.fitDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("pipeline.scope", scope),
		attribute.String("pipeline.label", label),
	))
}
