package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/syncengine/job"
)

// Body is a gated job body. The scheduler invokes it once admission is
// granted and passes its Result straight through.
type Body func(ctx context.Context) job.Result

// Scheduler gates job bodies on conversation exclusivity and execution
// preconditions.
type Scheduler struct {
	locks      *Locks
	conditions []Condition
	fallback   time.Duration
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCondition appends a readiness condition. Conditions are checked in
// registration order.
func WithCondition(c Condition) Option {
	return func(s *Scheduler) { s.conditions = append(s.conditions, c) }
}

// WithFallbackInterval sets the periodic re-check interval used when no
// wake signal arrives. Default 30s.
func WithFallbackInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.fallback = d }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		locks:    NewLocks(),
		fallback: 30 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locks exposes the conversation-lock table (for introspection and tests).
func (s *Scheduler) Locks() *Locks { return s.locks }

// WithConversation runs body while holding the exclusivity token for
// conversationID. Bodies for the same conversation run one at a time in
// admission order; different conversations proceed fully in parallel.
// The token is released on every exit path.
func (s *Scheduler) WithConversation(ctx context.Context, conversationID string, body Body) (job.Result, error) {
	release, err := s.locks.Acquire(ctx, conversationID)
	if err != nil {
		return job.Result{}, err
	}
	defer release()

	return body(ctx), nil
}

// AwaitReady suspends until the job's NextAttemptAt has passed and all
// conditions report ready, then invokes body. It wakes on condition change
// signals, on a timer armed for the retry time, and on the fallback tick;
// it never spins. The returned error is non-nil only when ctx ends before
// admission.
func (s *Scheduler) AwaitReady(ctx context.Context, j *job.Job, body Body) (job.Result, error) {
	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)

	for _, c := range s.conditions {
		ch, cancel := c.Subscribe()
		defer cancel()
		if ch == nil {
			continue
		}
		go forward(done, ch, wake)
	}

	for {
		now := time.Now().UTC()
		if j.Ready(now) && s.conditionsReady(ctx, j) {
			return body(ctx), nil
		}

		// Sleep until the retry time, a condition signal, or the
		// fallback tick, whichever comes first.
		wait := s.fallback
		if d := j.NextAttemptAt.Sub(now); d > 0 && d < wait {
			wait = d
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return job.Result{}, ctx.Err()
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// conditionsReady reports whether every condition holds, logging the first
// blocker at debug level.
func (s *Scheduler) conditionsReady(ctx context.Context, j *job.Job) bool {
	for _, c := range s.conditions {
		if !c.Ready(ctx) {
			s.logger.Debug("job waiting on condition",
				slog.String("job_id", j.ID.String()),
				slog.String("condition", c.Name()),
			)
			return false
		}
	}
	return true
}

// forward relays pulses from a condition channel into the shared wake
// channel without blocking, until done closes.
func forward(done <-chan struct{}, from <-chan struct{}, wake chan<- struct{}) {
	for {
		select {
		case <-done:
			return
		case <-from:
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
