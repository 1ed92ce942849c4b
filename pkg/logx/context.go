package logx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithCommand tags the context logger with the CLI command being run.
func WithCommand(ctx context.Context, command string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("command", command))
}
