//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	pgdb "github.com/alanyang/shiftdesk/internal/adapter/postgres"
	portlocker "github.com/alanyang/shiftdesk/internal/port/locker"
)

// testLockKey serialises integration tests across packages; they share one
// database and every test starts from empty tables.
var testLockKey = portlocker.Key("shiftdesk:integration-tests")

// SetupTestDB connects to the test database, applies the migrations and empties
// every table. It skips the test if TEST_DATABASE_URL is not set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgdb.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect to test DB: %v", err)
	}

	guard, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		t.Fatalf("acquire guard connection: %v", err)
	}
	if _, err := guard.Exec(ctx, "SELECT pg_advisory_lock($1)", testLockKey); err != nil {
		guard.Release()
		pool.Close()
		t.Fatalf("lock test DB: %v", err)
	}

	t.Cleanup(func() {
		_, _ = guard.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", testLockKey)
		guard.Release()
		pool.Close()
	})

	if err := pgdb.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate test DB: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE tasks, agents, processed_operations RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate test DB: %v", err)
	}
	return pool
}
