// Package store defines the aggregate persistence interface.
//
// Each subsystem (job, droplog) defines its own store interface. The
// composite [Store] composes them both. A single backend need only
// implement Store to satisfy every subsystem's persistence contract.
//
// # Available Backends
//
//   - store/memory — in-memory store for development and testing
//   - store/sqlite — SQLite backend for on-device persistence
//   - store/redis — Redis backend for shared deployments
//
// # Usage
//
//	import "github.com/xraph/syncengine/store/sqlite"
//
//	s, err := sqlite.Open(ctx, "file:sync.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
// # Migrations
//
// Call Migrate once at startup to create or update the schema:
//
//	if err := s.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package store
