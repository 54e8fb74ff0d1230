// Package sqlite provides a SQLite-backed implementation of the session
// and report stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// both store interfaces through a single database connection:
//
//   - SessionStore: conversation session persistence
//   - ReportStore: ingestion report persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Each migration is a pair of .up.sql and
// .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.bookchat/data/bookchat.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
