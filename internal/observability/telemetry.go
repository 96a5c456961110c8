package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Telemetry keeps the spans and metrics of a Runner in memory so a short
// lived process can print them once it is done. It does not touch the global
// providers.
type Telemetry struct {
	spans   *tracetest.SpanRecorder
	reader  *sdkmetric.ManualReader
	options []RunnerOption
}

// NewTelemetry enables the requested signals.
func NewTelemetry(tracing, metrics bool) (*Telemetry, error) {
	t := &Telemetry{}

	if tracing {
		t.spans = tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(t.spans))
		t.options = append(t.options, WithSpanManager(NewSpanManagerWithProvider(tp)))
	}

	if metrics {
		t.reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))

		m, err := NewMetricsRecorderWithProvider(mp)
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		t.options = append(t.options, WithMetrics(m))
	}

	return t, nil
}

// RunnerOptions wires the enabled signals into a Runner.
func (t *Telemetry) RunnerOptions() []RunnerOption {
	return t.options
}

// Report writes one line per ended span and per metric data point:
//
//	span rexl.parse Ok 41µs
//	metric rexl.phase.runs phase=parse 1
func (t *Telemetry) Report(ctx context.Context, w io.Writer) error {
	if t.spans != nil {
		for _, s := range t.spans.Ended() {
			fmt.Fprintf(w, "span %s %s %s\n", s.Name(), s.Status().Code, s.EndTime().Sub(s.StartTime()))
		}
	}

	if t.reader == nil {
		return nil
	}

	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "metric %s %s %d\n", m.Name, encodeAttrs(dp.Attributes), dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "metric %s %s count=%d sum=%g\n", m.Name, encodeAttrs(dp.Attributes), dp.Count, dp.Sum)
				}
			}
		}
	}

	return nil
}

func encodeAttrs(set attribute.Set) string {
	return set.Encoded(attribute.DefaultEncoder())
}
