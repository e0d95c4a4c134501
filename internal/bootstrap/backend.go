// Package bootstrap assembles storage, services and the HTTP handler from a config.Config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory"
	"github.com/wecare-ems/wecare-api/internal/adapters/migrations"
	postgres "github.com/wecare-ems/wecare-api/internal/adapters/postgres"
	pgidempotency "github.com/wecare-ems/wecare-api/internal/adapters/postgres/idempotency"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlite"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
	"github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/newsrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/shiftrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/storage"
	"github.com/wecare-ems/wecare-api/internal/ports/out/teamrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/tokenrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

// Repos is every outbound storage port the services need.
type Repos struct {
	Users       userrepo.Repository
	Patients    patientrepo.Repository
	Rides       riderepo.Repository
	Drivers     driverrepo.Repository
	Vehicles    vehiclerepo.Repository
	Teams       teamrepo.Repository
	Shifts      shiftrepo.Repository
	News        newsrepo.Repository
	Audit       auditrepo.Repository
	Locations   locationrepo.Repository
	RideEvents  rideeventrepo.Repository
	Settings    settingsrepo.Repository
	Facilities  facilityrepo.Repository
	MapShapes   mapshaperepo.Repository
	Tokens      tokenrepo.Repository
	Sequences   sequence.Generator
	Idempotency idempotency.Store

	Resetter storage.Resetter
	Pinger   storage.Pinger
}

// Backend is an opened storage backend.
type Backend struct {
	Name  string
	Repos Repos
	// SQL is nil for the memory backend.
	SQL   *sqldb.DB
	close func()
}

// Close releases connections. Safe to call on the memory backend.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

func MemoryRepos(s *memory.Store) Repos {
	return Repos{
		Users:       s.Users,
		Patients:    s.Patients,
		Rides:       s.Rides,
		Drivers:     s.Drivers,
		Vehicles:    s.Vehicles,
		Teams:       s.Teams,
		Shifts:      s.Shifts,
		News:        s.News,
		Audit:       s.Audit,
		Locations:   s.Locations,
		RideEvents:  s.RideEvents,
		Settings:    s.Settings,
		Facilities:  s.Facilities,
		MapShapes:   s.MapShapes,
		Tokens:      s.Tokens,
		Sequences:   s.Sequences,
		Idempotency: s.Idempotency,
		Resetter:    s,
		Pinger:      s,
	}
}

func SQLRepos(s *sqlstore.Store) Repos {
	return Repos{
		Users:       s.Users,
		Patients:    s.Patients,
		Rides:       s.Rides,
		Drivers:     s.Drivers,
		Vehicles:    s.Vehicles,
		Teams:       s.Teams,
		Shifts:      s.Shifts,
		News:        s.News,
		Audit:       s.Audit,
		Locations:   s.Locations,
		RideEvents:  s.RideEvents,
		Settings:    s.Settings,
		Facilities:  s.Facilities,
		MapShapes:   s.MapShapes,
		Tokens:      s.Tokens,
		Sequences:   s.Sequences,
		Idempotency: s.Idempotency,
		Resetter:    s,
		Pinger:      s,
	}
}

// NewMemoryBackend returns a fresh in-memory backend.
func NewMemoryBackend() *Backend {
	return &Backend{Name: "memory", Repos: MemoryRepos(memory.NewStore())}
}

// OpenBackend opens the backend named by cfg.StorageBackend. SQL backends are migrated to
// the latest schema before use.
func OpenBackend(ctx context.Context, cfg config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.StorageBackend {
	case "", "memory":
		log.Info("using in-memory storage")
		return NewMemoryBackend(), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(db, sqldb.SQLite); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("using sqlite storage", logger.String("path", cfg.SQLitePath))
		st := sqlstore.New(sqldb.New(db, sqldb.SQLite))
		return &Backend{Name: "sqlite", Repos: SQLRepos(st), SQL: st.DB, close: func() { _ = db.Close() }}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, err
		}
		db := postgres.OpenDB(pool)
		if err := migrations.Up(db, sqldb.Postgres); err != nil {
			_ = db.Close()
			pool.Close()
			return nil, err
		}
		log.Info("using postgres storage")
		st := sqlstore.New(sqldb.New(db, sqldb.Postgres))
		st.Idempotency = pgidempotency.NewStore(pool)
		return &Backend{
			Name:  "postgres",
			Repos: SQLRepos(st),
			SQL:   st.DB,
			close: func() {
				_ = db.Close()
				pool.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// NewSQLBackend wraps an already migrated database. The caller owns db.
func NewSQLBackend(db *sqldb.DB) *Backend {
	st := sqlstore.New(db)
	return &Backend{Name: string(db.Dialect()), Repos: SQLRepos(st), SQL: db}
}
