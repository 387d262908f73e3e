package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateRunID creates a new unique identifier for a pipeline run.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID adds a freshly generated run ID to the context.
func ContextWithRunID(ctx context.Context) context.Context {
	return WithRunID(ctx, GenerateRunID())
}

// EnsureRunID makes sure the context carries a run ID, generating one
// if absent.
func EnsureRunID(ctx context.Context) context.Context {
	if GetRunID(ctx) == "" {
		return ContextWithRunID(ctx)
	}
	return ctx
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}

// WithError returns a logger with an error attribute attached.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	if err != nil {
		return logger.With(slog.String("error", err.Error()))
	}
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}
