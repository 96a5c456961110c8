package observability

import (
	"context"
	"log/slog"
	"time"

	"go.rexl.dev/pkg"
)

const (
	PhaseParse    = "parse"
	PhaseValidate = "validate"
	PhaseEvaluate = "evaluate"
)

// Runner drives expressions through the pipeline, wrapping every phase in a
// span, metrics and log lines.
type Runner struct {
	logger  *slog.Logger
	metrics MetricsRecorder
	spans   SpanManager
	options []rexl.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger for phase and identifier logging.
// Default: nil (no logging)
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: NoopMetrics{}
func WithMetrics(m MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry tracing on the global tracer provider.
func WithTracing() RunnerOption {
	return func(r *Runner) {
		r.spans = NewSpanManager()
	}
}

// WithSpanManager sets the span manager, for example one from
// NewSpanManagerWithProvider.
// Default: NoopSpanManager{}
func WithSpanManager(s SpanManager) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.spans = s
		}
	}
}

// WithEngineOptions passes options through to every engine call.
func WithEngineOptions(opts ...rexl.Option) RunnerOption {
	return func(r *Runner) {
		r.options = append(r.options, opts...)
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		metrics: NoopMetrics{},
		spans:   NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runner) engineOptions(source string) []rexl.Option {
	opts := append([]rexl.Option{}, r.options...)
	if r.logger != nil {
		opts = append(opts, rexl.WithLogger(EnrichLogger(r.logger, source)))
	}

	return opts
}

func (r *Runner) Compile(ctx context.Context, source string) (*rexl.Expression, error) {
	var x *rexl.Expression
	err := r.phase(ctx, PhaseParse, source, func() error {
		var err error
		x, err = rexl.Compile(source, r.options...)
		return err
	})

	return x, err
}

func (r *Runner) Validate(ctx context.Context, x *rexl.Expression, resolve rexl.TypeResolver) (rexl.Type, error) {
	var t rexl.Type
	err := r.phase(ctx, PhaseValidate, x.Source(), func() error {
		var err error
		t, err = x.Validate(resolve, r.engineOptions(x.Source())...)
		return err
	})

	return t, err
}

func (r *Runner) Evaluate(ctx context.Context, x *rexl.Expression, resolve rexl.ValueResolver) (rexl.Value, error) {
	var v rexl.Value
	err := r.phase(ctx, PhaseEvaluate, x.Source(), func() error {
		var err error
		v, err = x.Evaluate(resolve, r.engineOptions(x.Source())...)
		return err
	})

	return v, err
}

// Run compiles, validates when types is not nil, and evaluates source,
// stopping at the first failing phase.
func (r *Runner) Run(ctx context.Context, source string, types rexl.TypeResolver, values rexl.ValueResolver) (rexl.Value, error) {
	x, err := r.Compile(ctx, source)
	if err != nil {
		return rexl.Value{}, err
	}

	if types != nil {
		if _, err := r.Validate(ctx, x, types); err != nil {
			return rexl.Value{}, err
		}
	}

	return r.Evaluate(ctx, x, values)
}

func (r *Runner) phase(ctx context.Context, name, source string, fn func() error) error {
	ctx, span := r.spans.StartPhaseSpan(ctx, name, source)
	logger := EnrichLogger(r.logger, source)
	LogPhaseStart(logger, name)

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	r.metrics.RecordPhase(ctx, name, elapsed, err)
	r.spans.EndSpanWithError(span, err)

	if err != nil {
		LogPhaseError(logger, name, err)
	} else {
		LogPhaseComplete(logger, name, float64(elapsed.Microseconds())/1000)
	}

	return err
}
