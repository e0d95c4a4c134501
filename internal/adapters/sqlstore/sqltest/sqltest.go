// Package sqltest opens migrated databases for repository tests.
package sqltest

import (
	"os"
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/migrations"
	postgres "github.com/wecare-ems/wecare-api/internal/adapters/postgres"
	"github.com/wecare-ems/wecare-api/internal/adapters/postgres/testutil"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlite"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
)

type Backend struct {
	Name string
	Open func(t *testing.T) *sqldb.DB
}

// Backends returns sqlite always and postgres when TEST_DATABASE_URL is set.
func Backends() []Backend {
	out := []Backend{{Name: "sqlite", Open: OpenSQLite}}
	if os.Getenv("TEST_DATABASE_URL") != "" {
		out = append(out, Backend{Name: "postgres", Open: OpenPostgres})
	}
	return out
}

// OpenSQLite returns a private, migrated in-memory database.
func OpenSQLite(t *testing.T) *sqldb.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Up(db, sqldb.SQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return sqldb.New(db, sqldb.SQLite)
}

// OpenPostgres returns a migrated, truncated postgres database. Skips without TEST_DATABASE_URL.
func OpenPostgres(t *testing.T) *sqldb.DB {
	t.Helper()
	pool := testutil.OpenMigratedPool(t)
	return sqldb.New(postgres.OpenDB(pool), sqldb.Postgres)
}
