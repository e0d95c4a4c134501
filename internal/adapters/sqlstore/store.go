// Package sqlstore bundles the database/sql repositories that back the API on sqlite or postgres.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/migrations"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/auditrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/facilityrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/idempotency"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/locationrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/mapshaperepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/newsrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/rideeventrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/riderepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sequence"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/settingsrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/shiftrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/teamrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/tokenrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/userrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/vehiclerepo"
	idempotencyport "github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
)

// Store bundles one instance of every SQL repository over a shared handle.
type Store struct {
	DB *sqldb.DB

	Users      *userrepo.Repo
	Patients   *patientrepo.Repo
	Rides      *riderepo.Repo
	Drivers    *driverrepo.Repo
	Vehicles   *vehiclerepo.Repo
	Teams      *teamrepo.Repo
	Shifts     *shiftrepo.Repo
	News       *newsrepo.Repo
	Audit      *auditrepo.Repo
	Locations  *locationrepo.Repo
	RideEvents *rideeventrepo.Repo
	Settings   *settingsrepo.Repo
	Facilities *facilityrepo.Repo
	MapShapes  *mapshaperepo.Repo
	Tokens     *tokenrepo.Repo
	Sequences  *sequence.Generator

	// Idempotency defaults to the database/sql store; postgres deployments may swap in the pool-backed one.
	Idempotency idempotencyport.Store
}

func New(db *sqldb.DB) *Store {
	return &Store{
		DB:          db,
		Users:       userrepo.NewRepo(db),
		Patients:    patientrepo.NewRepo(db),
		Rides:       riderepo.NewRepo(db),
		Drivers:     driverrepo.NewRepo(db),
		Vehicles:    vehiclerepo.NewRepo(db),
		Teams:       teamrepo.NewRepo(db),
		Shifts:      shiftrepo.NewRepo(db),
		News:        newsrepo.NewRepo(db),
		Audit:       auditrepo.NewRepo(db),
		Locations:   locationrepo.NewRepo(db),
		RideEvents:  rideeventrepo.NewRepo(db),
		Settings:    settingsrepo.NewRepo(db),
		Facilities:  facilityrepo.NewRepo(db),
		MapShapes:   mapshaperepo.NewRepo(db),
		Tokens:      tokenrepo.NewRepo(db),
		Sequences:   sequence.NewGenerator(db),
		Idempotency: idempotency.NewStore(db),
	}
}

// Reset deletes every row of every application table. Sequences restart at 1.
func (s *Store) Reset(ctx context.Context) error {
	if s.DB.Dialect() == sqldb.Postgres {
		if _, err := s.DB.ExecContext(ctx, "TRUNCATE "+strings.Join(migrations.Tables, ", ")+" RESTART IDENTITY"); err != nil {
			return fmt.Errorf("truncate tables: %w", err)
		}
		return nil
	}
	return sqldb.WithTx(ctx, s.DB, func(tx *sqldb.Tx) error {
		for _, table := range migrations.Tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
			return fmt.Errorf("clear sqlite_sequence: %w", err)
		}
		return nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
