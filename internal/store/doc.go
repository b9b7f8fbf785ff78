// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic: the credential store (users) and the
// listing store (dogs), plus the shared error vocabulary and transaction helper.
package store
