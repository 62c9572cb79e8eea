package droplog

import (
	"context"
	"time"

	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

// Service provides high-level drop-log operations over a Store.
type Service struct {
	store    Store
	jobStore job.Store
}

// NewService creates a drop-log service.
func NewService(store Store, jobStore job.Store) *Service {
	return &Service{store: store, jobStore: jobStore}
}

// Record builds an Entry from a terminally dropped job and persists it.
// The reason string distinguishes fatal failure, exhaustion, and timeout.
func (s *Service) Record(ctx context.Context, j *job.Job, reason string, jobErr error) error {
	now := time.Now().UTC()
	entry := &Entry{
		ID:        id.NewDropID(),
		JobID:     j.ID,
		Request:   j.Request,
		Reason:    reason,
		Error:     jobErr.Error(),
		Attempts:  j.Attempts,
		Offline:   j.Offline,
		DroppedAt: now,
		CreatedAt: now,
	}
	return s.store.PushDrop(ctx, entry)
}

// Replay resubmits a dropped entry's request as a fresh pending job and
// marks the entry as replayed. The new job gets a fresh ID, a zero attempt
// count, and is eligible immediately.
func (s *Service) Replay(ctx context.Context, entryID id.DropID) (*job.Job, error) {
	entry, err := s.store.GetDrop(ctx, entryID)
	if err != nil {
		return nil, err
	}

	j := job.New(entry.Request)
	if err := s.jobStore.CreateJob(ctx, j); err != nil {
		return nil, err
	}

	if err := s.store.MarkReplayed(ctx, entryID); err != nil {
		// The job is already persisted. Return it along with the error.
		return j, err
	}

	return j, nil
}

// Store returns the underlying drop-log store for direct access to
// List, Get, and Purge operations.
func (s *Service) Store() Store {
	return s.store
}
