package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/syncengine"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

// updateRetries bounds the optimistic WATCH loop in UpdateJob.
const updateRetries = 16

// CreateJob stores the job as a Hash and tracks its ID.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	// Check for duplicate.
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("syncengine/redis: create check exists: %w", err)
	}
	if exists > 0 {
		return syncengine.ErrJobAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	pipe.SAdd(ctx, jobIDsKey, jID)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("syncengine/redis: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	vals, err := s.client.HGetAll(ctx, jobKey(jobID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, syncengine.ErrJobNotFound
	}
	return mapToJob(vals)
}

// UpdateJob applies transform inside a WATCH-guarded optimistic
// transaction: if another writer touches the key between the read and the
// write, the cycle is retried against the fresh record.
func (s *Store) UpdateJob(ctx context.Context, jobID id.JobID, transform func(*job.Job)) (*job.Job, error) {
	key := jobKey(jobID.String())

	var updated *job.Job
	txn := func(tx *goredis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return syncengine.ErrJobNotFound
		}

		j, err := mapToJob(vals)
		if err != nil {
			return err
		}
		transform(j)
		updated = j

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, jobToMap(j))
			return nil
		})
		return err
	}

	for range updateRetries {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if errors.Is(err, syncengine.ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("syncengine/redis: update job: %w", err)
	}
	return nil, fmt.Errorf("syncengine/redis: update job %s: optimistic retries exhausted", jobID)
}

// RemoveJob deletes a job by ID. Removing an absent job is a no-op.
func (s *Store) RemoveJob(ctx context.Context, jobID id.JobID) error {
	jID := jobID.String()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, jobKey(jID))
	pipe.SRem(ctx, jobIDsKey, jID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("syncengine/redis: remove job: %w", err)
	}
	return nil
}

// ListJobs returns jobs matching the given options, ordered by
// NextAttemptAt ascending.
func (s *Store) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: list jobs: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		vals, getErr := s.client.HGetAll(ctx, jobKey(jID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		j, convErr := mapToJob(vals)
		if convErr != nil {
			continue
		}
		if opts.State != "" && j.State != opts.State {
			continue
		}
		if opts.ConversationID != "" && j.Request.ConversationID != opts.ConversationID {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].NextAttemptAt.Before(jobs[k].NextAttemptAt)
	})

	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// ── helpers ──

func jobToMap(j *job.Job) map[string]interface{} {
	m := map[string]interface{}{
		"id":              j.ID.String(),
		"command":         j.Request.Command,
		"conversation_id": j.Request.ConversationID,
		"payload":         string(j.Request.Payload),
		"idempotency_key": j.Request.IdempotencyKey,
		"state":           string(j.State),
		"attempts":        strconv.Itoa(j.Attempts),
		"last_error":      j.LastError,
		"next_attempt_at": j.NextAttemptAt.Format(time.RFC3339Nano),
		"optional":        strconv.FormatBool(j.Optional),
		"offline":         strconv.FormatBool(j.Offline),
		"created_at":      j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":      j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if !j.Deadline.IsZero() {
		m["deadline"] = j.Deadline.Format(time.RFC3339Nano)
	}
	return m
}

func mapToJob(m map[string]string) (*job.Job, error) {
	jID, err := id.ParseJobID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: parse job id: %w", err)
	}
	attempts, _ := strconv.Atoi(m["attempts"])                          //nolint:errcheck // best-effort parse from trusted Redis data
	optional, _ := strconv.ParseBool(m["optional"])                     //nolint:errcheck // best-effort parse from trusted Redis data
	offline, _ := strconv.ParseBool(m["offline"])                       //nolint:errcheck // best-effort parse from trusted Redis data
	nextAt, _ := time.Parse(time.RFC3339Nano, m["next_attempt_at"])     //nolint:errcheck // best-effort parse from trusted Redis data
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])       //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])       //nolint:errcheck // best-effort parse from trusted Redis data

	j := &job.Job{
		ID: jID,
		Request: job.Request{
			Command:        m["command"],
			ConversationID: m["conversation_id"],
			Payload:        []byte(m["payload"]),
			IdempotencyKey: m["idempotency_key"],
		},
		State:         job.State(m["state"]),
		Attempts:      attempts,
		LastError:     m["last_error"],
		NextAttemptAt: nextAt,
		Optional:      optional,
		Offline:       offline,
	}
	j.CreatedAt = createdAt
	j.UpdatedAt = updatedAt

	if v := m["deadline"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		j.Deadline = t
	}
	if len(j.Request.Payload) == 0 {
		j.Request.Payload = nil
	}
	return j, nil
}
