package job

import "time"

// Options configures per-job behavior at submission time.
type Options struct {
	// ConversationID scopes the job to a conversation's serial execution.
	// Empty means the job runs independently.
	ConversationID string

	// Deadline is the absolute wall-clock instant past which the job must
	// not be retried. Zero means no deadline.
	Deadline time.Time

	// Optional marks the job as silently discardable once its deadline
	// passes, with no failure report.
	Optional bool

	// StartAt schedules the first attempt. Zero means immediate.
	StartAt time.Time
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{}
}

// Option is a functional option for configuring a submitted job.
type Option func(*Options)

// WithConversation scopes the job to a conversation.
func WithConversation(conversationID string) Option {
	return func(o *Options) {
		o.ConversationID = conversationID
	}
}

// WithDeadline sets the absolute retry deadline.
func WithDeadline(t time.Time) Option {
	return func(o *Options) {
		o.Deadline = t
	}
}

// WithOptional marks the job as discardable after its deadline.
func WithOptional() Option {
	return func(o *Options) {
		o.Optional = true
	}
}

// WithStartAt schedules the first attempt for a specific time.
func WithStartAt(t time.Time) Option {
	return func(o *Options) {
		o.StartAt = t
	}
}

// apply folds the options into a job record.
func (j *Job) apply(opts Options) {
	if opts.ConversationID != "" {
		j.Request.ConversationID = opts.ConversationID
	}
	if !opts.Deadline.IsZero() {
		j.Deadline = opts.Deadline
	}
	if opts.Optional {
		j.Optional = true
	}
	if !opts.StartAt.IsZero() {
		j.NextAttemptAt = opts.StartAt
	}
}

// NewWithOptions creates a pending job for the request with the given
// options applied.
func NewWithOptions(req Request, opts ...Option) *Job {
	jobOpts := DefaultOptions()
	for _, opt := range opts {
		opt(&jobOpts)
	}
	j := New(req)
	j.apply(jobOpts)
	return j
}
