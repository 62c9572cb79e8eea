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
	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/id"
	"github.com/xraph/syncengine/job"
)

// PushDrop adds a dropped-job entry to the log.
func (s *Store) PushDrop(ctx context.Context, entry *droplog.Entry) error {
	eID := entry.ID.String()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, dropKey(eID), dropToMap(entry))
	pipe.SAdd(ctx, dropIDsKey, eID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("syncengine/redis: push drop: %w", err)
	}
	return nil
}

// GetDrop retrieves a drop-log entry by ID.
func (s *Store) GetDrop(ctx context.Context, entryID id.DropID) (*droplog.Entry, error) {
	vals, err := s.client.HGetAll(ctx, dropKey(entryID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: get drop: %w", err)
	}
	if len(vals) == 0 {
		return nil, syncengine.ErrDropNotFound
	}
	return mapToDrop(vals)
}

// ListDrops returns drop-log entries matching the given options, newest
// first.
func (s *Store) ListDrops(ctx context.Context, opts droplog.ListOpts) ([]*droplog.Entry, error) {
	ids, err := s.client.SMembers(ctx, dropIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: list drops: %w", err)
	}

	entries := make([]*droplog.Entry, 0, len(ids))
	for _, eID := range ids {
		vals, getErr := s.client.HGetAll(ctx, dropKey(eID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		e, convErr := mapToDrop(vals)
		if convErr != nil {
			continue
		}
		if opts.ConversationID != "" && e.Request.ConversationID != opts.ConversationID {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, k int) bool {
		return entries[i].DroppedAt.After(entries[k].DroppedAt)
	})

	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

// MarkReplayed sets ReplayedAt on a drop-log entry.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.DropID) error {
	key := dropKey(entryID.String())

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("syncengine/redis: mark replayed exists: %w", err)
	}
	if exists == 0 {
		return syncengine.ErrDropNotFound
	}

	_, err = s.client.HSet(ctx, key,
		"replayed_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Result()
	if err != nil {
		return fmt.Errorf("syncengine/redis: mark replayed: %w", err)
	}
	return nil
}

// PurgeDrops removes drop-log entries with DroppedAt before the given time.
func (s *Store) PurgeDrops(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.client.SMembers(ctx, dropIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("syncengine/redis: purge drops smembers: %w", err)
	}

	var purged int64
	for _, eID := range ids {
		key := dropKey(eID)
		droppedAtStr, getErr := s.client.HGet(ctx, key, "dropped_at").Result()
		if getErr != nil {
			if errors.Is(getErr, goredis.Nil) {
				continue
			}
			return purged, fmt.Errorf("syncengine/redis: purge drops get: %w", getErr)
		}

		droppedAt, _ := time.Parse(time.RFC3339Nano, droppedAtStr) //nolint:errcheck // best-effort parse from trusted Redis data
		if droppedAt.Before(before) {
			pipe := s.client.TxPipeline()
			pipe.Del(ctx, key)
			pipe.SRem(ctx, dropIDsKey, eID)
			if _, pErr := pipe.Exec(ctx); pErr != nil {
				return purged, fmt.Errorf("syncengine/redis: purge drops del: %w", pErr)
			}
			purged++
		}
	}
	return purged, nil
}

// ── helpers ──

func dropToMap(e *droplog.Entry) map[string]interface{} {
	m := map[string]interface{}{
		"id":              e.ID.String(),
		"job_id":          e.JobID.String(),
		"command":         e.Request.Command,
		"conversation_id": e.Request.ConversationID,
		"payload":         string(e.Request.Payload),
		"idempotency_key": e.Request.IdempotencyKey,
		"reason":          e.Reason,
		"error":           e.Error,
		"attempts":        strconv.Itoa(e.Attempts),
		"offline":         strconv.FormatBool(e.Offline),
		"dropped_at":      e.DroppedAt.Format(time.RFC3339Nano),
		"created_at":      e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.ReplayedAt != nil {
		m["replayed_at"] = e.ReplayedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToDrop(m map[string]string) (*droplog.Entry, error) {
	eID, err := id.ParseDropID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("syncengine/redis: parse drop id: %w", err)
	}
	jobID, _ := id.ParseJobID(m["job_id"])                          //nolint:errcheck // best-effort parse from trusted Redis data
	attempts, _ := strconv.Atoi(m["attempts"])                      //nolint:errcheck // best-effort parse from trusted Redis data
	offline, _ := strconv.ParseBool(m["offline"])                   //nolint:errcheck // best-effort parse from trusted Redis data
	droppedAt, _ := time.Parse(time.RFC3339Nano, m["dropped_at"])   //nolint:errcheck // best-effort parse from trusted Redis data
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])   //nolint:errcheck // best-effort parse from trusted Redis data

	e := &droplog.Entry{
		ID:    eID,
		JobID: jobID,
		Request: job.Request{
			Command:        m["command"],
			ConversationID: m["conversation_id"],
			Payload:        []byte(m["payload"]),
			IdempotencyKey: m["idempotency_key"],
		},
		Reason:    m["reason"],
		Error:     m["error"],
		Attempts:  attempts,
		Offline:   offline,
		DroppedAt: droppedAt,
		CreatedAt: createdAt,
	}
	if len(e.Request.Payload) == 0 {
		e.Request.Payload = nil
	}

	if v := m["replayed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		e.ReplayedAt = &t
	}
	return e, nil
}
