package rexl

import (
	"log/slog"
	"strings"
)

func logResolved(logger *slog.Logger, stage ErrorKind, path []string, class TypeClass) {
	if logger == nil {
		return
	}
	logger.Debug("identifier resolved",
		slog.String("stage", stage.String()),
		slog.String("path", strings.Join(path, ".")),
		slog.String("class", class.String()),
	)
}

func logResolveFailed(logger *slog.Logger, stage ErrorKind, path []string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("identifier resolution failed",
		slog.String("stage", stage.String()),
		slog.String("path", strings.Join(path, ".")),
		slog.String("error", err.Error()),
	)
}
