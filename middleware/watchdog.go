package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/telemetry"
)

// Watchdog returns middleware that observes handler duration. If the
// handler has not completed within limit, a telemetry report naming the
// job and its command is emitted. Diagnostic only: the in-flight call is
// never cancelled or otherwise affected, and the report fires at most
// once per attempt.
func Watchdog(sink telemetry.Sink, limit time.Duration) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) job.Result {
		timer := time.AfterFunc(limit, func() {
			sink.Report(context.Background(),
				fmt.Errorf("sync attempt still running after %v", limit),
				telemetry.Context{
					"job_id":  j.ID.String(),
					"command": j.Request.Command,
					"reason":  "watchdog",
				},
			)
		})
		defer timer.Stop()

		return next(ctx)
	}
}
