package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobSubmitted   = "sync.job.submitted"
	ActionAttemptStarted = "sync.job.attempt_started"
	ActionJobCompleted   = "sync.job.completed"
	ActionJobRetrying    = "sync.job.retrying"
	ActionJobDropped     = "sync.job.dropped"
	ActionJobExpired     = "sync.job.expired"
)

// CategoryJob groups all sync job actions.
const CategoryJob = "sync.job"

// ResourceJob is the Resource field used in audit events.
const ResourceJob = "sync_job"

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobSubmitted,
		ActionAttemptStarted,
		ActionJobCompleted,
		ActionJobRetrying,
		ActionJobDropped,
		ActionJobExpired,
	}
}
