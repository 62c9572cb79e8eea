package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/syncengine/job"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobSubmittedEntry struct {
	name string
	hook JobSubmitted
}

type attemptStartedEntry struct {
	name string
	hook AttemptStarted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobRetryingEntry struct {
	name string
	hook JobRetrying
}

type jobDroppedEntry struct {
	name string
	hook JobDropped
}

type jobExpiredEntry struct {
	name string
	hook JobExpired
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobSubmitted   []jobSubmittedEntry
	attemptStarted []attemptStartedEntry
	jobCompleted   []jobCompletedEntry
	jobRetrying    []jobRetryingEntry
	jobDropped     []jobDroppedEntry
	jobExpired     []jobExpiredEntry
	shutdown       []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobSubmitted); ok {
		r.jobSubmitted = append(r.jobSubmitted, jobSubmittedEntry{name, h})
	}
	if h, ok := e.(AttemptStarted); ok {
		r.attemptStarted = append(r.attemptStarted, attemptStartedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(JobRetrying); ok {
		r.jobRetrying = append(r.jobRetrying, jobRetryingEntry{name, h})
	}
	if h, ok := e.(JobDropped); ok {
		r.jobDropped = append(r.jobDropped, jobDroppedEntry{name, h})
	}
	if h, ok := e.(JobExpired); ok {
		r.jobExpired = append(r.jobExpired, jobExpiredEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitJobSubmitted notifies all extensions that implement JobSubmitted.
func (r *Registry) EmitJobSubmitted(ctx context.Context, j *job.Job) {
	for _, e := range r.jobSubmitted {
		if err := e.hook.OnJobSubmitted(ctx, j); err != nil {
			r.logHookError("OnJobSubmitted", e.name, err)
		}
	}
}

// EmitAttemptStarted notifies all extensions that implement AttemptStarted.
func (r *Registry) EmitAttemptStarted(ctx context.Context, j *job.Job) {
	for _, e := range r.attemptStarted {
		if err := e.hook.OnAttemptStarted(ctx, j); err != nil {
			r.logHookError("OnAttemptStarted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, j, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobRetrying notifies all extensions that implement JobRetrying.
func (r *Registry) EmitJobRetrying(ctx context.Context, j *job.Job, attempt int, nextAttemptAt time.Time) {
	for _, e := range r.jobRetrying {
		if err := e.hook.OnJobRetrying(ctx, j, attempt, nextAttemptAt); err != nil {
			r.logHookError("OnJobRetrying", e.name, err)
		}
	}
}

// EmitJobDropped notifies all extensions that implement JobDropped.
func (r *Registry) EmitJobDropped(ctx context.Context, j *job.Job, reason DropReason, jobErr error) {
	for _, e := range r.jobDropped {
		if err := e.hook.OnJobDropped(ctx, j, reason, jobErr); err != nil {
			r.logHookError("OnJobDropped", e.name, err)
		}
	}
}

// EmitJobExpired notifies all extensions that implement JobExpired.
func (r *Registry) EmitJobExpired(ctx context.Context, j *job.Job) {
	for _, e := range r.jobExpired {
		if err := e.hook.OnJobExpired(ctx, j); err != nil {
			r.logHookError("OnJobExpired", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
