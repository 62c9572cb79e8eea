// Package ext defines the extension system for syncengine.
// Extensions are notified of lifecycle events (job submitted, attempt
// started, completed, retrying, dropped, expired) and can react to them —
// logging, metrics, UI badges, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/syncengine/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// DropReason distinguishes why a job was terminally removed with an error.
type DropReason string

const (
	// DropFatal means the handler returned a non-retryable failure.
	DropFatal DropReason = "fatal"
	// DropExhausted means the retry ceiling was exceeded.
	DropExhausted DropReason = "exhausted"
	// DropTimedOut means the job's absolute deadline elapsed.
	DropTimedOut DropReason = "timed_out"
)

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobSubmitted is called after a job is persisted for execution.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, j *job.Job) error
}

// AttemptStarted is called when an execution attempt begins (after the
// attempt counter has been bumped).
type AttemptStarted interface {
	OnAttemptStarted(ctx context.Context, j *job.Job) error
}

// JobCompleted is called after a job finishes successfully and is removed.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobRetrying is called when an attempt fails but the job is rescheduled.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextAttemptAt time.Time) error
}

// JobDropped is called when a job is terminally removed with an error:
// fatal failure, retry exhaustion, or deadline timeout.
type JobDropped interface {
	OnJobDropped(ctx context.Context, j *job.Job, reason DropReason, err error) error
}

// JobExpired is called when an optional job is silently discarded because
// its deadline elapsed before execution.
type JobExpired interface {
	OnJobExpired(ctx context.Context, j *job.Job) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
