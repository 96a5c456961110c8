package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"go.rexl.dev/pkg"
)

// MetricsRecorder records pipeline metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPhase records one parse, validate or evaluate call.
	RecordPhase(ctx context.Context, phase string, duration time.Duration, err error)
}

type otelMetrics struct {
	phaseRuns    metric.Int64Counter
	phaseErrors  metric.Int64Counter
	phaseLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("rexl"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	phaseRuns, err := meter.Int64Counter("rexl.phase.runs",
		metric.WithDescription("Number of pipeline phase runs"),
	)
	if err != nil {
		return nil, err
	}

	phaseErrors, err := meter.Int64Counter("rexl.phase.errors",
		metric.WithDescription("Number of failed pipeline phase runs"),
	)
	if err != nil {
		return nil, err
	}

	phaseLatency, err := meter.Float64Histogram("rexl.phase.latency_ms",
		metric.WithDescription("Pipeline phase latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		phaseRuns:    phaseRuns,
		phaseErrors:  phaseErrors,
		phaseLatency: phaseLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder on the global OTel meter
// provider. If metrics initialization fails, returns a no-op recorder.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithProvider returns a MetricsRecorder on provider
// instead of the global one.
func NewMetricsRecorderWithProvider(provider metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newOtelMetrics(provider.Meter("rexl"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordPhase(ctx context.Context, phase string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("phase", phase),
	}

	m.phaseRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.phaseLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))

	if err != nil {
		kind := "host"
		if e, ok := rexl.AsError(err); ok {
			kind = e.Kind.String()
		}
		m.phaseErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("kind", kind))...))
	}
}
