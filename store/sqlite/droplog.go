package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/id"
)

const dropColumns = `id, job_id, command, conversation_id, payload,
	idempotency_key, reason, error, attempts, offline, dropped_at,
	replayed_at, created_at`

// PushDrop adds a dropped-job entry to the log.
func (s *Store) PushDrop(ctx context.Context, entry *droplog.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_drops (`+dropColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.JobID, entry.Request.Command,
		entry.Request.ConversationID, entry.Request.Payload,
		entry.Request.IdempotencyKey, entry.Reason, entry.Error,
		entry.Attempts, entry.Offline, entry.DroppedAt,
		nullTimePtr(entry.ReplayedAt), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("syncengine/sqlite: push drop: %w", err)
	}
	return nil
}

// GetDrop retrieves a drop-log entry by ID.
func (s *Store) GetDrop(ctx context.Context, entryID id.DropID) (*droplog.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+dropColumns+`
		FROM sync_drops WHERE id = ?`, entryID)

	e, err := scanDrop(row)
	if err != nil {
		if isNoRows(err) {
			return nil, syncengine.ErrDropNotFound
		}
		return nil, fmt.Errorf("syncengine/sqlite: get drop: %w", err)
	}
	return e, nil
}

// ListDrops returns drop-log entries matching the given options, newest
// first.
func (s *Store) ListDrops(ctx context.Context, opts droplog.ListOpts) ([]*droplog.Entry, error) {
	query := `SELECT ` + dropColumns + ` FROM sync_drops WHERE 1=1`
	args := make([]any, 0, 2)

	if opts.ConversationID != "" {
		query += ` AND conversation_id = ?`
		args = append(args, opts.ConversationID)
	}
	query += ` ORDER BY dropped_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: list drops: %w", err)
	}
	defer rows.Close()

	var entries []*droplog.Entry
	for rows.Next() {
		e, scanErr := scanDrop(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("syncengine/sqlite: list drops scan: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("syncengine/sqlite: list drops rows: %w", err)
	}
	return entries, nil
}

// MarkReplayed sets ReplayedAt on a drop-log entry.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.DropID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_drops SET replayed_at = ? WHERE id = ?`,
		time.Now().UTC(), entryID,
	)
	if err != nil {
		return fmt.Errorf("syncengine/sqlite: mark replayed: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return syncengine.ErrDropNotFound
	}
	return nil
}

// PurgeDrops removes drop-log entries with DroppedAt before the given time.
func (s *Store) PurgeDrops(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_drops WHERE dropped_at < ?`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("syncengine/sqlite: purge drops: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows, nil
}

// ── row mapping ──────────────────────────────────────────────────

func scanDrop(r rowScanner) (*droplog.Entry, error) {
	var (
		e        droplog.Entry
		replayed sql.NullTime
	)
	err := r.Scan(
		&e.ID, &e.JobID, &e.Request.Command, &e.Request.ConversationID,
		&e.Request.Payload, &e.Request.IdempotencyKey, &e.Reason, &e.Error,
		&e.Attempts, &e.Offline, &e.DroppedAt, &replayed, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if replayed.Valid {
		t := replayed.Time
		e.ReplayedAt = &t
	}
	return &e, nil
}

// nullTimePtr maps a nil pointer to SQL NULL.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
