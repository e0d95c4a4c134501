package migrations

import (
	"testing"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlite"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
)

func TestUp_SQLiteIsIdempotent(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := Up(db, sqldb.SQLite); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := Up(db, sqldb.SQLite); err != nil {
		t.Fatalf("second Up: %v", err)
	}
	v, dirty, err := Version(db, sqldb.SQLite)
	if err != nil || dirty || v != 2 {
		t.Fatalf("Version: v=%d dirty=%v err=%v", v, dirty, err)
	}

	for _, table := range Tables {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestUp_UnknownDialect(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := Up(db, sqldb.Dialect("oracle")); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
