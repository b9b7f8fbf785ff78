// Package sqlite provides SQLite implementations of the store interfaces
// defined in internal/store, backed by the pure-Go modernc.org/sqlite driver.
// It is used for local development and as the real-SQL backend in tests.
package sqlite
