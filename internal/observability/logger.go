// Package observability wraps the REXL pipeline with structured logging,
// OpenTelemetry metrics and tracing.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"

	"go.rexl.dev/pkg"
)

// EnrichLogger adds the expression source to a logger.
func EnrichLogger(logger *slog.Logger, source string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("expression", source))
}

// LogPhaseStart logs the start of a pipeline phase.
func LogPhaseStart(logger *slog.Logger, phase string) {
	if logger == nil {
		return
	}
	logger.Debug("phase starting",
		slog.String("phase", phase),
	)
}

// LogPhaseComplete logs successful phase completion.
func LogPhaseComplete(logger *slog.Logger, phase string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("phase completed",
		slog.String("phase", phase),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPhaseError logs a phase failure. Engine errors also log their kind,
// issue code and span.
func LogPhaseError(logger *slog.Logger, phase string, err error) {
	if logger == nil {
		return
	}

	attrs := []any{
		slog.String("phase", phase),
		slog.String("error", err.Error()),
	}
	if e, ok := rexl.AsError(err); ok {
		attrs = append(attrs,
			slog.String("kind", e.Kind.String()),
			slog.String("code", string(e.Code())),
			slog.Int("start", e.Start),
			slog.Int("end", e.End),
		)
	}

	logger.Warn("phase failed", attrs...)
}
