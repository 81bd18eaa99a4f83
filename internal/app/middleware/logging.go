package middleware

import (
	"context"
	"log/slog"
	"time"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
)

// Logging writes one record per command. Failures are logged at warn level.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logMessage(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logMessage(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logMessage(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	attrs := []any{"key", key, "duration", time.Since(start), "request_id", reqctx.RequestID(ctx)}
	if p, ok := reqctx.PrincipalFrom(ctx); ok {
		attrs = append(attrs, "principal", p.ID)
	}
	if err != nil {
		logger.Warn(kind+" failed", append(attrs, "error", err)...)
		return
	}
	logger.Debug(kind+" handled", attrs...)
}
