package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wecare-ems/wecare-api/internal/adapters/migrations"
	postgres "github.com/wecare-ems/wecare-api/internal/adapters/postgres"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
)

// OpenMigratedPool connects to TEST_DATABASE_URL, applies migrations and truncates every table.
// The test is skipped when the variable is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Up(postgres.OpenDB(pool), sqldb.Postgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(migrations.Tables, ", ")+" RESTART IDENTITY"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
