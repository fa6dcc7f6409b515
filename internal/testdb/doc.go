//go:build integration

// Package testdb gives integration tests a migrated Postgres database and
// transaction isolation.
//
// Each test runs inside a transaction that is rolled back when the test
// finishes, so tests can share one database and run with t.Parallel():
//
//	func TestUserStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx)
//	        ...
//	    })
//	}
//
// Tests are skipped unless FOLIO_TEST_DATABASE_URL or DATABASE_URL is set.
package testdb
