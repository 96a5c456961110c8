package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"go.rexl.dev/pkg"
)

var tracer = otel.Tracer("rexl")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartPhaseSpan starts a span for one pipeline phase over source.
	StartPhaseSpan(ctx context.Context, phase, source string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager on the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// NewSpanManagerWithProvider returns a SpanManager on provider.
func NewSpanManagerWithProvider(provider trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: provider.Tracer("rexl")}
}

func (m *otelSpanManager) StartPhaseSpan(ctx context.Context, phase, source string) (context.Context, trace.Span) {
	t := m.tracer
	if t == nil {
		t = tracer
	}

	return t.Start(ctx, "rexl."+phase,
		trace.WithAttributes(
			attribute.String("rexl.phase", phase),
			attribute.String("rexl.expression", source),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span. Engine errors add their kind, code and
// span as attributes.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		if e, ok := rexl.AsError(err); ok {
			span.SetAttributes(
				attribute.String("rexl.error.kind", e.Kind.String()),
				attribute.String("rexl.error.code", string(e.Code())),
				attribute.Int("rexl.error.start", e.Start),
				attribute.Int("rexl.error.end", e.End),
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
