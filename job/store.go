package job

import (
	"context"

	"github.com/xraph/syncengine/id"
)

// ListOpts controls filtering for job list queries.
type ListOpts struct {
	// State filters by job state. Empty means all states.
	State State
	// ConversationID filters by conversation. Empty means all.
	ConversationID string
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
}

// Store defines the persistence contract for sync jobs.
//
// All calls may be concurrent; the engine never assumes exclusive access
// beyond a single UpdateJob call's atomicity. Attempt counters and flags
// are mutated only through UpdateJob's transform, never read-modify-written
// against a stale copy.
type Store interface {
	// CreateJob persists a new job. Returns syncengine.ErrJobAlreadyExists
	// if a record with the same ID exists.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID. Returns syncengine.ErrJobNotFound if
	// the record has been removed.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob applies transform to the current record atomically,
	// persists it, and returns the new value. Returns
	// syncengine.ErrJobNotFound if the record has been removed.
	UpdateJob(ctx context.Context, jobID id.JobID, transform func(*Job)) (*Job, error)

	// RemoveJob deletes a job by ID. Removing an absent job is not an
	// error: terminal classification may race with external removal.
	RemoveJob(ctx context.Context, jobID id.JobID) error

	// ListJobs returns jobs matching the given options, ordered by
	// NextAttemptAt ascending. Used by the recovery sweep.
	ListJobs(ctx context.Context, opts ListOpts) ([]*Job, error)
}
