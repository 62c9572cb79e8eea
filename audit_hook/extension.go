package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/syncengine/ext"
	"github.com/xraph/syncengine/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Extension)(nil)
	_ ext.JobSubmitted   = (*Extension)(nil)
	_ ext.AttemptStarted = (*Extension)(nil)
	_ ext.JobCompleted   = (*Extension)(nil)
	_ ext.JobRetrying    = (*Extension)(nil)
	_ ext.JobDropped     = (*Extension)(nil)
	_ ext.JobExpired     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so this package does not import any audit backend
// directly — callers inject the concrete recorder at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges sync job lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobSubmitted implements ext.JobSubmitted.
func (e *Extension) OnJobSubmitted(ctx context.Context, j *job.Job) error {
	return e.record(ctx, ActionJobSubmitted, SeverityInfo, OutcomeSuccess,
		j.ID.String(), nil,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
	)
}

// OnAttemptStarted implements ext.AttemptStarted.
func (e *Extension) OnAttemptStarted(ctx context.Context, j *job.Job) error {
	return e.record(ctx, ActionAttemptStarted, SeverityInfo, OutcomeSuccess,
		j.ID.String(), nil,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
		"attempt", j.Attempts,
		"offline", j.Offline,
	)
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	return e.record(ctx, ActionJobCompleted, SeverityInfo, OutcomeSuccess,
		j.ID.String(), nil,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
		"attempts", j.Attempts,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobRetrying implements ext.JobRetrying.
func (e *Extension) OnJobRetrying(ctx context.Context, j *job.Job, attempt int, nextAttemptAt time.Time) error {
	return e.record(ctx, ActionJobRetrying, SeverityWarning, OutcomeFailure,
		j.ID.String(), nil,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
		"attempt", attempt,
		"next_attempt_at", nextAttemptAt.Format(time.RFC3339),
		"last_error", j.LastError,
	)
}

// OnJobDropped implements ext.JobDropped.
func (e *Extension) OnJobDropped(ctx context.Context, j *job.Job, reason ext.DropReason, jobErr error) error {
	return e.record(ctx, ActionJobDropped, SeverityCritical, OutcomeFailure,
		j.ID.String(), jobErr,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
		"attempts", j.Attempts,
		"drop_reason", string(reason),
	)
}

// OnJobExpired implements ext.JobExpired.
func (e *Extension) OnJobExpired(ctx context.Context, j *job.Job) error {
	return e.record(ctx, ActionJobExpired, SeverityInfo, OutcomeSuccess,
		j.ID.String(), nil,
		"command", j.Request.Command,
		"conversation_id", j.Request.ConversationID,
		"deadline", j.Deadline.Format(time.RFC3339),
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceJob,
		Category:   CategoryJob,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
