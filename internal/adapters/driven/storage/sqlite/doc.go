// Package sqlite provides the SQLite-backed result cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements the
// driven.ResultCache port: a content-addressed, append-only store mapping
// chunk fingerprints to accepted structured results.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.chatclean/data/cache.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode, and the insert-then-verify write path keeps
// the first-write-wins conflict rule correct across processes.
package sqlite
