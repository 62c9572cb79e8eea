package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

const jobColumns = `id, command, conversation_id, payload, idempotency_key,
	state, attempts, last_error, next_attempt_at, deadline, optional,
	offline, created_at, updated_at`

// CreateJob persists a new job.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Request.Command, j.Request.ConversationID, j.Request.Payload,
		j.Request.IdempotencyKey, string(j.State), j.Attempts, j.LastError,
		j.NextAttemptAt, nullTime(j.Deadline), j.Optional, j.Offline,
		j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return syncengine.ErrJobAlreadyExists
		}
		return fmt.Errorf("syncengine/sqlite: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM sync_jobs WHERE id = ?`, jobID)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, syncengine.ErrJobNotFound
		}
		return nil, fmt.Errorf("syncengine/sqlite: get job: %w", err)
	}
	return j, nil
}

// UpdateJob applies transform to the current record inside an immediate
// transaction, so concurrent updates cannot interleave between the read
// and the write.
func (s *Store) UpdateJob(ctx context.Context, jobID id.JobID, transform func(*job.Job)) (*job.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	row := tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM sync_jobs WHERE id = ?`, jobID)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, syncengine.ErrJobNotFound
		}
		return nil, fmt.Errorf("syncengine/sqlite: read for update: %w", err)
	}

	transform(j)

	_, err = tx.ExecContext(ctx, `
		UPDATE sync_jobs SET
			command = ?, conversation_id = ?, payload = ?,
			idempotency_key = ?, state = ?, attempts = ?, last_error = ?,
			next_attempt_at = ?, deadline = ?, optional = ?, offline = ?,
			updated_at = ?
		WHERE id = ?`,
		j.Request.Command, j.Request.ConversationID, j.Request.Payload,
		j.Request.IdempotencyKey, string(j.State), j.Attempts, j.LastError,
		j.NextAttemptAt, nullTime(j.Deadline), j.Optional, j.Offline,
		j.UpdatedAt, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: update job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: commit update: %w", err)
	}
	return j, nil
}

// RemoveJob deletes a job by ID. Removing an absent job is a no-op.
func (s *Store) RemoveJob(ctx context.Context, jobID id.JobID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_jobs WHERE id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("syncengine/sqlite: remove job: %w", err)
	}
	return nil
}

// ListJobs returns jobs matching the given options, ordered by
// NextAttemptAt ascending.
func (s *Store) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs WHERE 1=1`
	args := make([]any, 0, 3)

	if opts.State != "" {
		query += ` AND state = ?`
		args = append(args, string(opts.State))
	}
	if opts.ConversationID != "" {
		query += ` AND conversation_id = ?`
		args = append(args, opts.ConversationID)
	}
	query += ` ORDER BY next_attempt_at ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("syncengine/sqlite: list jobs scan: %w", scanErr)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: list jobs rows: %w", err)
	}
	return jobs, nil
}

// ── row mapping ──────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*job.Job, error) {
	var (
		j        job.Job
		state    string
		deadline sql.NullTime
	)
	err := r.Scan(
		&j.ID, &j.Request.Command, &j.Request.ConversationID,
		&j.Request.Payload, &j.Request.IdempotencyKey, &state, &j.Attempts,
		&j.LastError, &j.NextAttemptAt, &deadline, &j.Optional, &j.Offline,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.State = job.State(state)
	if deadline.Valid {
		j.Deadline = deadline.Time
	}
	return &j, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
