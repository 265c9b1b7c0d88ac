package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, falling back to the
// process-wide logger installed via zap.ReplaceGlobals.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}

// WithRun returns a logger enriched with the run ID and supplier code, and a
// context carrying that logger for downstream retrieval via FromContext.
func WithRun(ctx context.Context, logger *zap.Logger, runID, supplierCode string) (context.Context, *zap.Logger) {
	enriched := logger.With(
		zap.String("run_id", runID),
		zap.String("supplier_code", supplierCode),
	)
	return WithContext(ctx, enriched), enriched
}
