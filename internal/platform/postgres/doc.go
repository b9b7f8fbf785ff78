// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, along with the embedded schema
// migrations for that backend. Queries go through database/sql using the
// pgx stdlib driver.
package postgres
