package job

import (
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/id"
)

// State represents the lifecycle state of a sync job.
type State string

const (
	// StatePending means the job is waiting for its first execution.
	StatePending State = "pending"
	// StateSyncing means an attempt is currently executing.
	StateSyncing State = "syncing"
	// StateFailed means the last attempt failed and the job is scheduled
	// for retry at NextAttemptAt.
	StateFailed State = "failed"
)

// Job represents a persisted unit of sync work. Completion is recorded by
// removing the record from the store, so there is no terminal state here.
type Job struct {
	syncengine.Entity

	ID            id.JobID  `json:"id"`
	Request       Request   `json:"request"`
	State         State     `json:"state"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
	Deadline      time.Time `json:"deadline,omitempty"`
	Optional      bool      `json:"optional,omitempty"`
	Offline       bool      `json:"offline,omitempty"`
}

// New creates a pending job for the given request, eligible to run
// immediately.
func New(req Request) *Job {
	j := &Job{
		ID:            id.NewJobID(),
		Request:       req,
		State:         StatePending,
		NextAttemptAt: time.Now().UTC(),
	}
	j.Touch()
	return j
}

// DeadlineElapsed reports whether the job has an absolute deadline and it
// has passed at the given instant.
func (j *Job) DeadlineElapsed(now time.Time) bool {
	return !j.Deadline.IsZero() && now.After(j.Deadline)
}

// Ready reports whether the job's scheduled attempt time has passed.
func (j *Job) Ready(now time.Time) bool {
	return !now.Before(j.NextAttemptAt)
}
