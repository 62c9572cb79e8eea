package sqlite

// migrations are applied in order. Statements are idempotent so Migrate
// can run on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sync_jobs (
		id              TEXT PRIMARY KEY,
		command         TEXT NOT NULL,
		conversation_id TEXT NOT NULL DEFAULT '',
		payload         BLOB,
		idempotency_key TEXT NOT NULL DEFAULT '',
		state           TEXT NOT NULL,
		attempts        INTEGER NOT NULL DEFAULT 0,
		last_error      TEXT NOT NULL DEFAULT '',
		next_attempt_at TIMESTAMP NOT NULL,
		deadline        TIMESTAMP,
		optional        INTEGER NOT NULL DEFAULT 0,
		offline         INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sync_jobs_state_next
		ON sync_jobs (state, next_attempt_at)`,

	`CREATE INDEX IF NOT EXISTS idx_sync_jobs_conversation
		ON sync_jobs (conversation_id)
		WHERE conversation_id <> ''`,

	`CREATE TABLE IF NOT EXISTS sync_drops (
		id              TEXT PRIMARY KEY,
		job_id          TEXT NOT NULL,
		command         TEXT NOT NULL,
		conversation_id TEXT NOT NULL DEFAULT '',
		payload         BLOB,
		idempotency_key TEXT NOT NULL DEFAULT '',
		reason          TEXT NOT NULL,
		error           TEXT NOT NULL DEFAULT '',
		attempts        INTEGER NOT NULL DEFAULT 0,
		offline         INTEGER NOT NULL DEFAULT 0,
		dropped_at      TIMESTAMP NOT NULL,
		replayed_at     TIMESTAMP,
		created_at      TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sync_drops_dropped_at
		ON sync_drops (dropped_at)`,
}
