package memory

import (
	"context"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/auditrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/facilityrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/idempotency"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/locationrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/mapshaperepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/newsrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/rideeventrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/riderepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/sequence"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/settingsrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/shiftrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/teamrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/tokenrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/userrepo"
	"github.com/wecare-ems/wecare-api/internal/adapters/memory/vehiclerepo"
)

// Store bundles one instance of every in-memory adapter.
type Store struct {
	Users       *userrepo.Repo
	Patients    *patientrepo.Repo
	Rides       *riderepo.Repo
	Drivers     *driverrepo.Repo
	Vehicles    *vehiclerepo.Repo
	Teams       *teamrepo.Repo
	Shifts      *shiftrepo.Repo
	News        *newsrepo.Repo
	Audit       *auditrepo.Repo
	Locations   *locationrepo.Repo
	RideEvents  *rideeventrepo.Repo
	Settings    *settingsrepo.Repo
	Facilities  *facilityrepo.Repo
	MapShapes   *mapshaperepo.Repo
	Tokens      *tokenrepo.Repo
	Sequences   *sequence.Generator
	Idempotency *idempotency.Store
}

func NewStore() *Store {
	return &Store{
		Users:       userrepo.NewRepo(),
		Patients:    patientrepo.NewRepo(),
		Rides:       riderepo.NewRepo(),
		Drivers:     driverrepo.NewRepo(),
		Vehicles:    vehiclerepo.NewRepo(),
		Teams:       teamrepo.NewRepo(),
		Shifts:      shiftrepo.NewRepo(),
		News:        newsrepo.NewRepo(),
		Audit:       auditrepo.NewRepo(),
		Locations:   locationrepo.NewRepo(),
		RideEvents:  rideeventrepo.NewRepo(),
		Settings:    settingsrepo.NewRepo(),
		Facilities:  facilityrepo.NewRepo(),
		MapShapes:   mapshaperepo.NewRepo(),
		Tokens:      tokenrepo.NewRepo(),
		Sequences:   sequence.NewGenerator(),
		Idempotency: idempotency.NewStore(),
	}
}

// Reset wipes every repository. Sequences restart at 1.
func (s *Store) Reset(ctx context.Context) error {
	_ = ctx
	s.Users.Reset()
	s.Patients.Reset()
	s.Rides.Reset()
	s.Drivers.Reset()
	s.Vehicles.Reset()
	s.Teams.Reset()
	s.Shifts.Reset()
	s.News.Reset()
	s.Audit.Reset()
	s.Locations.Reset()
	s.RideEvents.Reset()
	s.Settings.Reset()
	s.Facilities.Reset()
	s.MapShapes.Reset()
	s.Tokens.Reset()
	s.Sequences.Reset()
	s.Idempotency.Reset()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_ = ctx
	return nil
}
