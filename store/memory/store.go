package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ job.Store     = (*Store)(nil)
	_ droplog.Store = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu sync.RWMutex

	jobs   map[string]*job.Job
	drops  map[string]*droplog.Entry
	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:  make(map[string]*job.Job),
		drops: make(map[string]*droplog.Entry),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping succeeds while the store is open.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return syncengine.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Data is retained so late reads during
// shutdown still resolve, but Ping reports the store as unavailable.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// CreateJob persists a new job.
func (m *Store) CreateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return syncengine.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, syncengine.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob applies transform to the current record under the store lock
// and returns a copy of the new value.
func (m *Store) UpdateJob(_ context.Context, jobID id.JobID, transform func(*job.Job)) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, syncengine.ErrJobNotFound
	}
	transform(j)
	cp := *j
	return &cp, nil
}

// RemoveJob deletes a job by ID. Removing an absent job is a no-op.
func (m *Store) RemoveJob(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.jobs, jobID.String())
	return nil
}

// ListJobs returns jobs matching the given options, ordered by
// NextAttemptAt ascending.
func (m *Store) ListJobs(_ context.Context, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if opts.State != "" && j.State != opts.State {
			continue
		}
		if opts.ConversationID != "" && j.Request.ConversationID != opts.ConversationID {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].NextAttemptAt.Before(result[k].NextAttemptAt)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// ──────────────────────────────────────────────────
// Drop Log Store
// ──────────────────────────────────────────────────

// PushDrop adds a dropped-job entry to the log.
func (m *Store) PushDrop(_ context.Context, entry *droplog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	m.drops[entry.ID.String()] = &cp
	return nil
}

// GetDrop retrieves a drop-log entry by ID.
func (m *Store) GetDrop(_ context.Context, entryID id.DropID) (*droplog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.drops[entryID.String()]
	if !ok {
		return nil, syncengine.ErrDropNotFound
	}
	cp := *e
	return &cp, nil
}

// ListDrops returns drop-log entries matching the given options, newest
// first.
func (m *Store) ListDrops(_ context.Context, opts droplog.ListOpts) ([]*droplog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*droplog.Entry, 0, len(m.drops))
	for _, e := range m.drops {
		if opts.ConversationID != "" && e.Request.ConversationID != opts.ConversationID {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].DroppedAt.After(result[k].DroppedAt)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// MarkReplayed sets ReplayedAt on a drop-log entry.
func (m *Store) MarkReplayed(_ context.Context, entryID id.DropID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.drops[entryID.String()]
	if !ok {
		return syncengine.ErrDropNotFound
	}
	now := time.Now().UTC()
	e.ReplayedAt = &now
	return nil
}

// PurgeDrops removes drop-log entries with DroppedAt before the given time.
func (m *Store) PurgeDrops(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for key, e := range m.drops {
		if e.DroppedAt.Before(before) {
			delete(m.drops, key)
			count++
		}
	}
	return count, nil
}
