package testdb

import "os"

// PostgresURLEnv enables the postgres integration tests when set.
const PostgresURLEnv = "DOGADOPT_TEST_DATABASE_URL"

// PostgresURL returns the integration database URL, or "" when unset.
func PostgresURL() string {
	return os.Getenv(PostgresURLEnv)
}

// ShouldSkipDatabaseTest reports whether postgres integration tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return PostgresURL() == ""
}
