package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/syncengine/job"
)

// Logging returns middleware that logs attempt start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) job.Result {
		logger.Info("sync attempt started",
			slog.String("command", j.Request.Command),
			slog.String("job_id", j.ID.String()),
			slog.Int("attempt", j.Attempts),
			slog.String("conversation_id", j.Request.ConversationID),
		)

		start := time.Now()
		res := next(ctx)
		elapsed := time.Since(start)

		switch {
		case res.OK():
			logger.Info("sync attempt succeeded",
				slog.String("command", j.Request.Command),
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		case res.Retryable:
			logger.Warn("sync attempt failed, retryable",
				slog.String("command", j.Request.Command),
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", res.Err.Error()),
			)
		default:
			logger.Error("sync attempt failed, fatal",
				slog.String("command", j.Request.Command),
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", res.Err.Error()),
			)
		}

		return res
	}
}
