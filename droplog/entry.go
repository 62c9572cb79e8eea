package droplog

import (
	"time"

	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

// Entry represents a sync job that was terminally dropped with an error
// and preserved for inspection or replay.
type Entry struct {
	ID         id.DropID   `json:"id"`
	JobID      id.JobID    `json:"job_id"`
	Request    job.Request `json:"request"`
	Reason     string      `json:"reason"`
	Error      string      `json:"error"`
	Attempts   int         `json:"attempts"`
	Offline    bool        `json:"offline,omitempty"`
	DroppedAt  time.Time   `json:"dropped_at"`
	ReplayedAt *time.Time  `json:"replayed_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
