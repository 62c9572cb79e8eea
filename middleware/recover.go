package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/syncengine/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain, so the engine's stability never depends on handler correctness.
// Panics are logged with a stack trace and converted into retryable
// internal failures; the handler's own result contract is the only way to
// mark a fault fatal.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (res job.Result) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("sync handler panicked",
					slog.String("command", j.Request.Command),
					slog.String("job_id", j.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				res = job.Retry(fmt.Errorf("panic in command %s: %v", j.Request.Command, r))
			}
		}()
		return next(ctx)
	}
}
