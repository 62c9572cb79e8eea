package droplog

import (
	"context"
	"time"

	"github.com/xraph/syncengine/id"
)

// ListOpts controls pagination and filtering for drop-log list queries.
type ListOpts struct {
	// Limit is the maximum number of entries to return. Zero means no limit.
	Limit int
	// ConversationID filters by conversation. Empty means all.
	ConversationID string
}

// Store defines the persistence contract for the drop log.
type Store interface {
	// PushDrop adds a dropped-job entry to the log.
	PushDrop(ctx context.Context, entry *Entry) error

	// GetDrop retrieves an entry by ID.
	GetDrop(ctx context.Context, entryID id.DropID) (*Entry, error)

	// ListDrops returns entries matching the given options, newest first.
	ListDrops(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// MarkReplayed sets ReplayedAt on an entry. The actual resubmission
	// is handled at the service layer.
	MarkReplayed(ctx context.Context, entryID id.DropID) error

	// PurgeDrops removes entries with DroppedAt before the given time.
	// Returns the number of entries removed.
	PurgeDrops(ctx context.Context, before time.Time) (int64, error)
}
