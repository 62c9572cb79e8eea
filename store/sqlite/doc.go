// Package sqlite implements store.Store over database/sql with the
// modernc.org/sqlite driver. Suitable for on-device persistence in
// offline-capable clients, CLI tools, and standalone applications.
//
// The caller owns the *sql.DB lifecycle when passing one through New;
// Open creates and owns its own handle:
//
//	s, err := sqlite.Open(ctx, "file:sync.db")
//	if err != nil { ... }
//	defer s.Close()
//
//	if err := s.Migrate(ctx); err != nil { ... }
package sqlite
