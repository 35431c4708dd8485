package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDatabaseURLEnv names the DSN used by integration tests
const TestDatabaseURLEnv = "OL_RESULTS_TEST_DATABASE_URL"

// SetupTestDB connects to the integration database and applies the schema.
// The test is skipped when no database is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("Integration test - set %s to run", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := Initialize(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	if _, err := db.pool.Exec(ctx, "TRUNCATE events RESTART IDENTITY CASCADE"); err != nil {
		db.Close()
		t.Fatalf("failed to truncate test tables: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}
