package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Tables lists every application table, children before parents.
var Tables = []string{
	"map_shapes",
	"facilities",
	"idempotency_keys",
	"sequences",
	"revoked_tokens",
	"settings",
	"ride_events",
	"driver_locations",
	"audit_logs",
	"news",
	"driver_shifts",
	"team_shifts",
	"teams",
	"vehicles",
	"vehicle_types",
	"drivers",
	"rides",
	"patients",
	"users",
}

// Up applies all pending migrations for dialect. An up-to-date schema is not an error.
//
// The migrate instance is not closed: closing it would close db.
func Up(db *sql.DB, dialect sqldb.Dialect) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up (%s): %w", dialect, err)
	}
	return nil
}

// Version reports the applied schema version.
func Version(db *sql.DB, dialect sqldb.Dialect) (uint, bool, error) {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrate(db *sql.DB, dialect sqldb.Dialect) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case sqldb.SQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case sqldb.Postgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate driver (%s): %w", dialect, err)
	}

	src, err := iofs.New(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("migrate source (%s): %w", dialect, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("migrate init (%s): %w", dialect, err)
	}
	return m, nil
}
