// Package worker provides the sync job execution engine — an Executor
// that drives a persisted job to completion through the scheduler's
// admission gates, invokes the registered handler through middleware,
// classifies the result, and updates or retires the job record.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/backoff"
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
	"github.com/xraph/syncengine/middleware"
	"github.com/xraph/syncengine/netstate"
	"github.com/xraph/syncengine/scheduler"
	"github.com/xraph/syncengine/telemetry"
)

// Executor drives one sync job at a time to a terminal outcome. Failures
// never escape Run: every fault is folded into the returned Result.
type Executor struct {
	registry   *job.Registry
	extensions *ext.Registry
	store      job.Store
	sched      *scheduler.Scheduler
	net        netstate.Provider
	sink       telemetry.Sink
	logger     *slog.Logger

	drops        *droplog.Service
	general      backoff.Strategy
	conversation backoff.Strategy
	maxAttempts  int
	mw           middleware.Middleware
}

// Option configures an Executor.
type Option func(*Executor)

// WithMiddleware sets the middleware chain wrapped around each handler
// invocation. The chain should normally include middleware.Recover so a
// handler panic cannot crash the engine.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Executor) { e.mw = middleware.Chain(mws...) }
}

// WithBackoff sets the retry policies: general for independent jobs,
// conversation for conversation-scoped jobs. Defaults are the named
// policies in the backoff package.
func WithBackoff(general, conversation backoff.Strategy) Option {
	return func(e *Executor) {
		e.general = general
		e.conversation = conversation
	}
}

// WithMaxAttempts sets the retry ceiling shared across jobs.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) { e.maxAttempts = n }
}

// WithDropLog records terminal drops in the given drop-log service.
func WithDropLog(svc *droplog.Service) Option {
	return func(e *Executor) { e.drops = svc }
}

// NewExecutor creates an Executor with the given collaborators.
func NewExecutor(
	registry *job.Registry,
	extensions *ext.Registry,
	store job.Store,
	sched *scheduler.Scheduler,
	net netstate.Provider,
	sink telemetry.Sink,
	logger *slog.Logger,
	opts ...Option,
) *Executor {
	e := &Executor{
		registry:     registry,
		extensions:   extensions,
		store:        store,
		sched:        sched,
		net:          net,
		sink:         sink,
		logger:       logger,
		general:      backoff.General(),
		conversation: backoff.Conversation(),
		maxAttempts:  syncengine.DefaultConfig().MaxAttempts,
		mw:           middleware.Chain(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives the job to a terminal outcome. Conversation-scoped jobs run
// under their conversation's exclusivity token; all others run directly.
// Run blocks (cooperatively) across backoff waits and returns only on
// success, a fatal outcome, exhaustion, timeout, or ctx cancellation.
func (e *Executor) Run(ctx context.Context, j *job.Job) job.Result {
	if j.Request.ConversationScoped() {
		res, err := e.sched.WithConversation(ctx, j.Request.ConversationID, func(ctx context.Context) job.Result {
			return e.runGated(ctx, j.ID)
		})
		if err != nil {
			return job.Fatal(fmt.Errorf("syncengine/worker: conversation admission: %w", err))
		}
		return res
	}
	return e.runGated(ctx, j.ID)
}

// runGated is the iterative retry loop. Each pass re-fetches the current
// record (picking up the backoff-computed NextAttemptAt), waits at the
// precondition gate, and executes one attempt. A retryable classified
// failure loops; everything else is final. The gate is the only thing
// keeping a job from running before its scheduled retry time — there is
// no sleep here.
func (e *Executor) runGated(ctx context.Context, jobID id.JobID) job.Result {
	for {
		current, err := e.store.GetJob(ctx, jobID)
		if err != nil {
			return job.Fatal(fmt.Errorf("syncengine/worker: fetch job %s: %w", jobID, err))
		}

		res, err := e.sched.AwaitReady(ctx, current, func(ctx context.Context) job.Result {
			return e.attempt(ctx, jobID)
		})
		if err != nil {
			return job.Fatal(fmt.Errorf("syncengine/worker: readiness wait for job %s: %w", jobID, err))
		}

		if res.Err != nil && res.Retryable {
			continue
		}
		return res
	}
}

// attempt is the gated body: one execution attempt plus classification.
func (e *Executor) attempt(ctx context.Context, jobID id.JobID) job.Result {
	now := time.Now().UTC()

	current, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return job.Fatal(fmt.Errorf("syncengine/worker: job %s vanished before attempt: %w", jobID, err))
	}

	// Optional work past its deadline is silently abandoned, not failed.
	if current.Optional && current.DeadlineElapsed(now) {
		e.remove(ctx, jobID)
		e.extensions.EmitJobExpired(ctx, current)
		e.logger.Info("optional job expired before execution",
			slog.String("job_id", jobID.String()),
			slog.String("command", current.Request.Command),
		)
		return job.Success()
	}

	online := e.net.Online()
	updated, err := e.store.UpdateJob(ctx, jobID, func(cur *job.Job) {
		cur.Attempts++
		cur.State = job.StateSyncing
		cur.LastError = ""
		cur.Offline = !online
		cur.Touch()
	})
	if err != nil {
		return job.Fatal(fmt.Errorf("syncengine/worker: job %s vanished at attempt start: %w", jobID, err))
	}

	e.extensions.EmitAttemptStarted(ctx, updated)

	start := time.Now()
	res := e.invoke(ctx, updated)
	elapsed := time.Since(start)

	return e.classify(ctx, updated, res, elapsed)
}

// invoke runs the registered handler through the middleware chain.
func (e *Executor) invoke(ctx context.Context, j *job.Job) job.Result {
	handler, ok := e.registry.Get(j.Request.Command)
	if !ok {
		return job.Fatal(fmt.Errorf("%w: %q", syncengine.ErrNoHandler, j.Request.Command)).WithReport()
	}

	terminal := func(ctx context.Context) job.Result {
		return handler(ctx, j.Request)
	}
	return e.mw(ctx, j, terminal)
}

// classify applies the state-transition table to the attempt outcome.
//
//	success                    → remove, terminal
//	fatal                      → remove (+ report if flagged), terminal
//	retryable, over ceiling    → remove + exhaustion report, terminal
//	retryable, past deadline   → remove + timeout report, terminal
//	retryable otherwise        → reschedule with backoff, loop continues
func (e *Executor) classify(ctx context.Context, j *job.Job, res job.Result, elapsed time.Duration) job.Result {
	now := time.Now().UTC()

	if res.OK() {
		e.remove(ctx, j.ID)
		e.extensions.EmitJobCompleted(ctx, j, elapsed)
		return res
	}

	if !res.Retryable {
		return e.drop(ctx, j, ext.DropFatal, res.Err, res.Report, res)
	}

	if j.Attempts > e.maxAttempts {
		err := fmt.Errorf("%w after %d attempts: %w", syncengine.ErrAttemptsExhausted, j.Attempts, res.Err)
		return e.drop(ctx, j, ext.DropExhausted, err, true, job.Fatal(err))
	}

	if j.DeadlineElapsed(now) {
		err := fmt.Errorf("%w: %w", syncengine.ErrDeadlineElapsed, res.Err)
		return e.drop(ctx, j, ext.DropTimedOut, err, true, job.Fatal(err))
	}

	delay := e.policyFor(j.Request).Delay(j.Attempts)
	next := now.Add(delay)

	online := e.net.Online()
	updated, err := e.store.UpdateJob(ctx, j.ID, func(cur *job.Job) {
		cur.State = job.StateFailed
		cur.NextAttemptAt = next
		cur.LastError = res.Err.Error()
		cur.Offline = cur.Offline || !online
		cur.Touch()
	})
	if err != nil {
		return job.Fatal(fmt.Errorf("syncengine/worker: job %s vanished at reschedule: %w", j.ID, err))
	}

	e.extensions.EmitJobRetrying(ctx, updated, updated.Attempts, next)
	e.logger.Info("sync job rescheduled",
		slog.String("job_id", j.ID.String()),
		slog.String("command", j.Request.Command),
		slog.Int("attempt", updated.Attempts),
		slog.Int("max_attempts", e.maxAttempts),
		slog.Duration("delay", delay),
		slog.String("error", res.Err.Error()),
	)

	return res
}

// drop retires a job with an error: remove, optionally report, record in
// the drop log, and emit the lifecycle event. Returns the terminal result.
func (e *Executor) drop(ctx context.Context, j *job.Job, reason ext.DropReason, dropErr error, report bool, res job.Result) job.Result {
	if report {
		e.sink.Report(ctx, dropErr, telemetry.Context{
			"job_id":   j.ID.String(),
			"command":  j.Request.Command,
			"attempts": fmt.Sprintf("%d", j.Attempts),
			"reason":   string(reason),
		})
	}

	e.remove(ctx, j.ID)

	if e.drops != nil {
		if recErr := e.drops.Record(ctx, j, string(reason), dropErr); recErr != nil {
			e.logger.Error("failed to record drop-log entry",
				slog.String("job_id", j.ID.String()),
				slog.String("error", recErr.Error()),
			)
		}
	}

	e.extensions.EmitJobDropped(ctx, j, reason, dropErr)
	e.logger.Warn("sync job dropped",
		slog.String("job_id", j.ID.String()),
		slog.String("command", j.Request.Command),
		slog.String("reason", string(reason)),
		slog.Int("attempts", j.Attempts),
		slog.String("error", dropErr.Error()),
	)

	return res
}

// remove deletes the record; a failure here is logged, not surfaced — the
// job is already terminally classified.
func (e *Executor) remove(ctx context.Context, jobID id.JobID) {
	if err := e.store.RemoveJob(ctx, jobID); err != nil {
		e.logger.Error("failed to remove job",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// policyFor selects the backoff policy by request variant.
func (e *Executor) policyFor(req job.Request) backoff.Strategy {
	if req.ConversationScoped() {
		return e.conversation
	}
	return e.general
}
