package shiftrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/shiftrepo"
)

// Repo is a database/sql implementation of shiftrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) UpsertTeamShift(ctx context.Context, s domain.TeamShift) (domain.TeamShift, error) {
	s.Date = domain.DateOnly(s.Date)
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO team_shifts (id, team_id, shift_date, status, vehicle_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (team_id, shift_date) DO UPDATE
		SET status = excluded.status, vehicle_id = excluded.vehicle_id, updated_at = excluded.updated_at
		RETURNING id
	`,
		string(s.ID),
		string(s.TeamID),
		sqldb.FormatTime(s.Date),
		string(s.Status),
		sqldb.NullString(s.VehicleID),
		sqldb.FormatTime(s.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return domain.TeamShift{}, fmt.Errorf("upsert team shift: %w", err)
	}
	s.ID = domain.ShiftID(id)
	return s, nil
}

func (r *Repo) DeleteTeamShift(ctx context.Context, id domain.ShiftID) error {
	return r.delete(ctx, "team_shifts", id)
}

func (r *Repo) ListTeamShifts(ctx context.Context, rg shiftrepo.Range, teamID *domain.TeamID) ([]domain.TeamShift, error) {
	query := `
		SELECT id, team_id, shift_date, status, vehicle_id, updated_at
		FROM team_shifts
		WHERE shift_date >= ? AND shift_date < ?`
	args := []any{sqldb.FormatTime(rg.From), sqldb.FormatTime(rg.To)}
	if teamID != nil {
		query += ` AND team_id = ?`
		args = append(args, string(*teamID))
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY shift_date ASC, team_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list team shifts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TeamShift, 0)
	for rows.Next() {
		var (
			s                      domain.TeamShift
			id, team, date, status string
			vehicle                sql.NullString
			updatedAt              string
		)
		if err := rows.Scan(&id, &team, &date, &status, &vehicle, &updatedAt); err != nil {
			return nil, err
		}
		s.ID = domain.ShiftID(id)
		s.TeamID = domain.TeamID(team)
		s.Status = domain.TeamShiftStatus(status)
		s.VehicleID = sqldb.StringPtr[domain.VehicleID](vehicle)
		if s.Date, err = sqldb.ParseTime(date); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertDriverShift(ctx context.Context, s domain.DriverShift) (domain.DriverShift, error) {
	s.Date = domain.DateOnly(s.Date)
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO driver_shifts (id, driver_id, shift_date, shift, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (driver_id, shift_date) DO UPDATE
		SET shift = excluded.shift, updated_at = excluded.updated_at
		RETURNING id
	`,
		string(s.ID),
		string(s.DriverID),
		sqldb.FormatTime(s.Date),
		string(s.Shift),
		sqldb.FormatTime(s.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return domain.DriverShift{}, fmt.Errorf("upsert driver shift: %w", err)
	}
	s.ID = domain.ShiftID(id)
	return s, nil
}

func (r *Repo) DeleteDriverShift(ctx context.Context, id domain.ShiftID) error {
	return r.delete(ctx, "driver_shifts", id)
}

func (r *Repo) ListDriverShifts(ctx context.Context, rg shiftrepo.Range, driverID *domain.DriverID) ([]domain.DriverShift, error) {
	query := `
		SELECT id, driver_id, shift_date, shift, updated_at
		FROM driver_shifts
		WHERE shift_date >= ? AND shift_date < ?`
	args := []any{sqldb.FormatTime(rg.From), sqldb.FormatTime(rg.To)}
	if driverID != nil {
		query += ` AND driver_id = ?`
		args = append(args, string(*driverID))
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY shift_date ASC, driver_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list driver shifts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DriverShift, 0)
	for rows.Next() {
		var (
			s                                  domain.DriverShift
			id, driver, date, shift, updatedAt string
		)
		if err := rows.Scan(&id, &driver, &date, &shift, &updatedAt); err != nil {
			return nil, err
		}
		s.ID = domain.ShiftID(id)
		s.DriverID = domain.DriverID(driver)
		s.Shift = domain.ShiftType(shift)
		if s.Date, err = sqldb.ParseTime(date); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) delete(ctx context.Context, table string, id domain.ShiftID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return shiftrepo.ErrNotFound
	}
	return nil
}
