// Package schedules manages teams and the team and driver duty rosters.
package schedules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/shiftrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/teamrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

type Deps struct {
	Teams    teamrepo.Repository
	Shifts   shiftrepo.Repository
	Drivers  driverrepo.Repository
	Vehicles vehiclerepo.Repository
	Seq      sequence.Generator
	Clock    clockport.Clock
}

type Service struct {
	teams    teamrepo.Repository
	shifts   shiftrepo.Repository
	drivers  driverrepo.Repository
	vehicles vehiclerepo.Repository
	seq      sequence.Generator
	clk      clockport.Clock
}

func NewService(d Deps) *Service {
	return &Service{
		teams:    d.Teams,
		shifts:   d.Shifts,
		drivers:  d.Drivers,
		vehicles: d.Vehicles,
		seq:      d.Seq,
		clk:      d.Clock,
	}
}

func teamNotFound() *apperr.Error { return apperr.NotFound("Team not found") }

func (s *Service) ListTeams(ctx context.Context) ([]domain.Team, error) {
	ts, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return ts, nil
}

func (s *Service) GetTeam(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return domain.Team{}, teamNotFound()
		}
		return domain.Team{}, err
	}
	return t, nil
}

func (s *Service) CreateTeam(ctx context.Context, in TeamInput) (domain.Team, error) {
	t := domain.Team{}
	if err := s.applyTeam(ctx, &t, in); err != nil {
		return domain.Team{}, err
	}
	n, err := s.seq.Next(ctx, domain.PrefixTeam)
	if err != nil {
		return domain.Team{}, fmt.Errorf("next team id: %w", err)
	}
	t.ID = domain.TeamID(domain.FormatID(domain.PrefixTeam, n))
	t.CreatedAt = s.clk.Now()
	t.UpdatedAt = t.CreatedAt
	if err := s.teams.Create(ctx, t); err != nil {
		if errors.Is(err, teamrepo.ErrAlreadyExists) {
			return domain.Team{}, apperr.Conflict(apperr.CodeConflict, "Team already exists")
		}
		return domain.Team{}, err
	}
	return t, nil
}

// UpdateTeam replaces the team's name, driver, staff and vehicle.
func (s *Service) UpdateTeam(ctx context.Context, id domain.TeamID, in TeamInput) (domain.Team, error) {
	t, err := s.GetTeam(ctx, id)
	if err != nil {
		return domain.Team{}, err
	}
	if err := s.applyTeam(ctx, &t, in); err != nil {
		return domain.Team{}, err
	}
	t.UpdatedAt = s.clk.Now()
	if err := s.teams.Update(ctx, t); err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return domain.Team{}, teamNotFound()
		}
		return domain.Team{}, err
	}
	return t, nil
}

func (s *Service) DeleteTeam(ctx context.Context, id domain.TeamID) error {
	if err := s.teams.Delete(ctx, id); err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return teamNotFound()
		}
		return err
	}
	return nil
}

func (s *Service) applyTeam(ctx context.Context, t *domain.Team, in TeamInput) error {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return apperr.Validation("invalid team", map[string]any{"name": "must be non-empty"})
	}
	driverID, err := s.checkDriver(ctx, in.DriverID)
	if err != nil {
		return err
	}
	vehicleID, err := s.checkVehicle(ctx, in.VehicleID)
	if err != nil {
		return err
	}
	staff := make([]domain.UserID, 0, len(in.StaffIDs))
	seen := make(map[string]struct{}, len(in.StaffIDs))
	for _, id := range in.StaffIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; id == "" || dup {
			continue
		}
		seen[id] = struct{}{}
		staff = append(staff, domain.UserID(id))
	}
	t.Name = name
	t.DriverID = driverID
	t.StaffIDs = staff
	t.VehicleID = vehicleID
	return nil
}

func (s *Service) checkDriver(ctx context.Context, raw *string) (*domain.DriverID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := s.drivers.GetByID(ctx, domain.DriverID(strings.TrimSpace(*raw)))
	if err != nil {
		if errors.Is(err, driverrepo.ErrNotFound) {
			return nil, apperr.Validation("invalid driver_id", map[string]any{"driver_id": "driver not found"})
		}
		return nil, err
	}
	return &d.ID, nil
}

func (s *Service) checkVehicle(ctx context.Context, raw *string) (*domain.VehicleID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := s.vehicles.GetVehicle(ctx, domain.VehicleID(strings.TrimSpace(*raw)))
	if err != nil {
		if errors.Is(err, vehiclerepo.ErrNotFound) {
			return nil, apperr.Validation("invalid vehicle_id", map[string]any{"vehicle_id": "vehicle not found"})
		}
		return nil, err
	}
	return &v.ID, nil
}

func dateRange(in RangeInput) (shiftrepo.Range, error) {
	if in.From == nil || in.To == nil {
		return shiftrepo.Range{}, apperr.BadRequest("from and to are required")
	}
	from := domain.DateOnly(*in.From)
	to := domain.DateOnly(*in.To)
	if to.Before(from) {
		return shiftrepo.Range{}, apperr.BadRequest("to must not be before from")
	}
	return shiftrepo.Range{From: from, To: to.AddDate(0, 0, 1)}, nil
}

func (s *Service) ListTeamShifts(ctx context.Context, in RangeInput) ([]domain.TeamShift, error) {
	rg, err := dateRange(in)
	if err != nil {
		return nil, err
	}
	var teamID *domain.TeamID
	if id := strings.TrimSpace(in.TeamID); id != "" {
		teamID = domain.Ptr(domain.TeamID(id))
	}
	out, err := s.shifts.ListTeamShifts(ctx, rg, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team shifts: %w", err)
	}
	return out, nil
}

// PutTeamShift creates or replaces the cell for (team, date).
func (s *Service) PutTeamShift(ctx context.Context, in TeamShiftInput) (domain.TeamShift, error) {
	details := map[string]any{}
	if in.Date == nil {
		details["date"] = "required"
	}
	status := domain.TeamShiftOnDuty
	if in.Status != "" {
		switch st := domain.TeamShiftStatus(strings.ToUpper(strings.TrimSpace(in.Status))); st {
		case domain.TeamShiftOnDuty, domain.TeamShiftRestDay:
			status = st
		default:
			details["status"] = "must be ON_DUTY or REST_DAY"
		}
	}
	if len(details) > 0 {
		return domain.TeamShift{}, apperr.Validation("invalid team shift", details)
	}
	team, err := s.teams.GetByID(ctx, domain.TeamID(strings.TrimSpace(in.TeamID)))
	if err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return domain.TeamShift{}, apperr.Validation("invalid team_id", map[string]any{"team_id": "team not found"})
		}
		return domain.TeamShift{}, err
	}
	vehicleID, err := s.checkVehicle(ctx, in.VehicleID)
	if err != nil {
		return domain.TeamShift{}, err
	}

	n, err := s.seq.Next(ctx, domain.PrefixTeamShift)
	if err != nil {
		return domain.TeamShift{}, fmt.Errorf("next team shift id: %w", err)
	}
	stored, err := s.shifts.UpsertTeamShift(ctx, domain.TeamShift{
		ID:        domain.ShiftID(domain.FormatID(domain.PrefixTeamShift, n)),
		TeamID:    team.ID,
		Date:      domain.DateOnly(*in.Date),
		Status:    status,
		VehicleID: vehicleID,
		UpdatedAt: s.clk.Now(),
	})
	if err != nil {
		return domain.TeamShift{}, fmt.Errorf("upsert team shift: %w", err)
	}
	return stored, nil
}

func (s *Service) DeleteTeamShift(ctx context.Context, id domain.ShiftID) error {
	if err := s.shifts.DeleteTeamShift(ctx, id); err != nil {
		if errors.Is(err, shiftrepo.ErrNotFound) {
			return apperr.NotFound("Shift not found")
		}
		return err
	}
	return nil
}

func (s *Service) ListDriverShifts(ctx context.Context, in RangeInput) ([]domain.DriverShift, error) {
	rg, err := dateRange(in)
	if err != nil {
		return nil, err
	}
	var driverID *domain.DriverID
	if id := strings.TrimSpace(in.DriverID); id != "" {
		driverID = domain.Ptr(domain.DriverID(id))
	}
	out, err := s.shifts.ListDriverShifts(ctx, rg, driverID)
	if err != nil {
		return nil, fmt.Errorf("list driver shifts: %w", err)
	}
	return out, nil
}

// PutDriverShift creates or replaces the cell for (driver, date).
func (s *Service) PutDriverShift(ctx context.Context, in DriverShiftInput) (domain.DriverShift, error) {
	details := map[string]any{}
	if in.Date == nil {
		details["date"] = "required"
	}
	shift, ok := domain.ParseShiftType(strings.ToUpper(strings.TrimSpace(in.Shift)))
	if !ok {
		details["shift"] = "must be one of MORNING, AFTERNOON, NIGHT, DAY_OFF, ON_LEAVE"
	}
	if len(details) > 0 {
		return domain.DriverShift{}, apperr.Validation("invalid driver shift", details)
	}
	driverID, err := s.checkDriver(ctx, &in.DriverID)
	if err != nil {
		return domain.DriverShift{}, err
	}
	if driverID == nil {
		return domain.DriverShift{}, apperr.Validation("invalid driver_id", map[string]any{"driver_id": "required"})
	}

	n, err := s.seq.Next(ctx, domain.PrefixDriverShift)
	if err != nil {
		return domain.DriverShift{}, fmt.Errorf("next driver shift id: %w", err)
	}
	stored, err := s.shifts.UpsertDriverShift(ctx, domain.DriverShift{
		ID:        domain.ShiftID(domain.FormatID(domain.PrefixDriverShift, n)),
		DriverID:  *driverID,
		Date:      domain.DateOnly(*in.Date),
		Shift:     shift,
		UpdatedAt: s.clk.Now(),
	})
	if err != nil {
		return domain.DriverShift{}, fmt.Errorf("upsert driver shift: %w", err)
	}
	return stored, nil
}

func (s *Service) DeleteDriverShift(ctx context.Context, id domain.ShiftID) error {
	if err := s.shifts.DeleteDriverShift(ctx, id); err != nil {
		if errors.Is(err, shiftrepo.ErrNotFound) {
			return apperr.NotFound("Shift not found")
		}
		return err
	}
	return nil
}
