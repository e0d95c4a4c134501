package vehiclerepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

const (
	vehicleColumns = `id, license_plate, brand, model, type_id, capacity, status, assigned_team_id,
	next_maintenance_date, created_at, updated_at`
	typeColumns = `id, name, capacity, description, created_at, updated_at`
)

// Repo is a database/sql implementation of vehiclerepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateVehicle(ctx context.Context, v domain.Vehicle) error {
	if v.ID == "" {
		return vehiclerepo.ErrAlreadyExists
	}
	args := vehicleValues(v)
	_, err := r.db.ExecContext(ctx, `INSERT INTO vehicles (`+vehicleColumns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return vehiclerepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) UpdateVehicle(ctx context.Context, v domain.Vehicle) error {
	args := vehicleValues(v)
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicles
		SET license_plate = ?, brand = ?, model = ?, type_id = ?, capacity = ?, status = ?,
		    assigned_team_id = ?, next_maintenance_date = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return vehiclerepo.ErrAlreadyExists
		}
		return err
	}
	return affected(res, vehiclerepo.ErrNotFound)
}

func (r *Repo) DeleteVehicle(ctx context.Context, id domain.VehicleID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	return affected(res, vehiclerepo.ErrNotFound)
}

func (r *Repo) GetVehicle(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Vehicle{}, vehiclerepo.ErrNotFound
	}
	return v, err
}

func (r *Repo) ListVehicles(ctx context.Context, f vehiclerepo.Filter) ([]domain.Vehicle, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.TypeID != nil {
		where = append(where, "type_id = ?")
		args = append(args, string(*f.TypeID))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles`+cond+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) CreateType(ctx context.Context, t domain.VehicleType) error {
	if t.ID == "" {
		return vehiclerepo.ErrTypeAlreadyExists
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO vehicle_types (`+typeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		string(t.ID), t.Name, t.Capacity, sqldb.NullString(t.Description),
		sqldb.FormatTime(t.CreatedAt), sqldb.FormatTime(t.UpdatedAt),
	)
	if sqldb.IsUniqueViolation(err) {
		return vehiclerepo.ErrTypeAlreadyExists
	}
	return err
}

func (r *Repo) UpdateType(ctx context.Context, t domain.VehicleType) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicle_types
		SET name = ?, capacity = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Capacity, sqldb.NullString(t.Description), sqldb.FormatTime(t.UpdatedAt), string(t.ID))
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return vehiclerepo.ErrTypeAlreadyExists
		}
		return err
	}
	return affected(res, vehiclerepo.ErrTypeNotFound)
}

func (r *Repo) DeleteType(ctx context.Context, id domain.VehicleTypeID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicle_types WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	return affected(res, vehiclerepo.ErrTypeNotFound)
}

func (r *Repo) GetType(ctx context.Context, id domain.VehicleTypeID) (domain.VehicleType, error) {
	t, err := scanType(r.db.QueryRowContext(ctx, `SELECT `+typeColumns+` FROM vehicle_types WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VehicleType{}, vehiclerepo.ErrTypeNotFound
	}
	return t, err
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.VehicleType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+typeColumns+` FROM vehicle_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list vehicle types: %w", err)
	}
	defer rows.Close()

	out := make([]domain.VehicleType, 0)
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func affected(res sql.Result, notFound error) error {
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}

func vehicleValues(v domain.Vehicle) []any {
	return []any{
		string(v.ID),
		v.LicensePlate,
		sqldb.NullString(v.Brand),
		sqldb.NullString(v.Model),
		sqldb.NullString(v.TypeID),
		v.Capacity,
		string(v.Status),
		sqldb.NullString(v.AssignedTeamID),
		sqldb.NullTime(v.NextMaintenanceDate),
		sqldb.FormatTime(v.CreatedAt),
		sqldb.FormatTime(v.UpdatedAt),
	}
}

func scanVehicle(s sqldb.Scanner) (domain.Vehicle, error) {
	var (
		v                                domain.Vehicle
		id, status, createdAt, updatedAt string
		brand, model, typeID, team, next sql.NullString
	)
	if err := s.Scan(&id, &v.LicensePlate, &brand, &model, &typeID, &v.Capacity, &status, &team, &next, &createdAt, &updatedAt); err != nil {
		return domain.Vehicle{}, err
	}
	v.ID = domain.VehicleID(id)
	v.Status = domain.VehicleStatus(status)
	v.Brand = sqldb.StringPtr[string](brand)
	v.Model = sqldb.StringPtr[string](model)
	v.TypeID = sqldb.StringPtr[domain.VehicleTypeID](typeID)
	v.AssignedTeamID = sqldb.StringPtr[domain.TeamID](team)

	var err error
	if v.NextMaintenanceDate, err = sqldb.ParseNullTime(next); err != nil {
		return domain.Vehicle{}, err
	}
	if v.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Vehicle{}, err
	}
	if v.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Vehicle{}, err
	}
	return v, nil
}

func scanType(s sqldb.Scanner) (domain.VehicleType, error) {
	var (
		t                    domain.VehicleType
		id                   string
		description          sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &t.Name, &t.Capacity, &description, &createdAt, &updatedAt); err != nil {
		return domain.VehicleType{}, err
	}
	t.ID = domain.VehicleTypeID(id)
	t.Description = sqldb.StringPtr[string](description)

	var err error
	if t.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.VehicleType{}, err
	}
	if t.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.VehicleType{}, err
	}
	return t, nil
}
