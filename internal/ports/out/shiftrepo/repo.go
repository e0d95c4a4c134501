package shiftrepo

import (
	"context"
	"errors"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var ErrNotFound = errors.New("shift not found")

// Range selects shifts with From <= date < To.
type Range struct {
	From time.Time
	To   time.Time
}

// Repository stores team and driver schedule cells.
//
// Upserts are keyed by (team, date) and (driver, date): an existing cell keeps its ID and
// the returned value is what was stored. Lists order by date then owner ID.
type Repository interface {
	UpsertTeamShift(ctx context.Context, s domain.TeamShift) (domain.TeamShift, error)
	DeleteTeamShift(ctx context.Context, id domain.ShiftID) error
	ListTeamShifts(ctx context.Context, r Range, teamID *domain.TeamID) ([]domain.TeamShift, error)

	UpsertDriverShift(ctx context.Context, s domain.DriverShift) (domain.DriverShift, error)
	DeleteDriverShift(ctx context.Context, id domain.ShiftID) error
	ListDriverShifts(ctx context.Context, r Range, driverID *domain.DriverID) ([]domain.DriverShift, error)
}
