// Package testdb opens migrated databases for tests.
//
// NewSQLite always works: it returns a private in-memory SQLite database with
// the schema applied. NewPostgres connects to the server named by
// DOGADOPT_TEST_DATABASE_URL and skips the test when that variable is unset.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.NewSQLite(t)
//	    users := sqlite.NewSQLiteUserStore(db, nil)
//	    ...
//	}
package testdb
