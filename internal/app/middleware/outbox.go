package middleware

import (
	"context"
	"log/slog"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/outbox"
)

// OutboxFlush hands recorded events to the relay once a command returns.
// It flushes after failures too: a booking that charged the card but failed to persist
// records a persistence-inconsistent event that must still reach reconciliation.
// A flush error never replaces the command's own outcome; unsent records stay queued.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if ferr := box.Flush(context.WithoutCancel(ctx)); ferr != nil && logger != nil {
				logger.ErrorContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", ferr)
			}
			return res, err
		})
	}
}
