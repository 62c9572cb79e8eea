package store

import (
	"context"

	"github.com/xraph/syncengine/droplog"
	"github.com/xraph/syncengine/job"
)

// Store is the aggregate persistence interface. A single backend
// implements both subsystem contracts plus lifecycle.
type Store interface {
	job.Store
	droplog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
