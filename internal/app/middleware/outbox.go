package middleware

import (
	"context"
	"log/slog"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/reqctx"
)

// OutboxFlush hands the events staged by a successful command to the outbox. The
// command's writes are already committed at this point, so a delivery failure is
// logged and the command still succeeds.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if flushErr := box.Flush(ctx); flushErr != nil && logger != nil {
				logger.Error("outbox flush failed", "key", cmd.Key(), "request_id", reqctx.RequestID(ctx), "error", flushErr)
			}
			return res, nil
		})
	}
}
