package driverrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
)

const columns = `id, user_id, full_name, phone, email, license_number, license_plate, vehicle_brand,
	vehicle_model, vehicle_color, vehicle_type, address, status, profile_image_url, created_at, updated_at`

// Repo is a database/sql implementation of driverrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, d domain.Driver) error {
	if d.ID == "" {
		return driverrepo.ErrAlreadyExists
	}
	args := values(normalize(d))
	_, err := r.db.ExecContext(ctx, `INSERT INTO drivers (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return driverrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, d domain.Driver) error {
	args := values(normalize(d))
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE drivers
		SET user_id = ?, full_name = ?, phone = ?, email = ?, license_number = ?, license_plate = ?,
		    vehicle_brand = ?, vehicle_model = ?, vehicle_color = ?, vehicle_type = ?, address = ?,
		    status = ?, profile_image_url = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return driverrepo.ErrAlreadyExists
		}
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return driverrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.DriverID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return driverrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	return r.getBy(ctx, "id", string(id))
}

func (r *Repo) GetByUserID(ctx context.Context, id domain.UserID) (domain.Driver, error) {
	return r.getBy(ctx, "user_id", string(id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Driver, error) {
	return r.getBy(ctx, "email", domain.NormalizeEmail(email))
}

func (r *Repo) List(ctx context.Context, f driverrepo.Filter) ([]domain.Driver, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where = append(where, "(lower(full_name) LIKE ? OR phone LIKE ? OR lower(COALESCE(license_plate, '')) LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%", "%"+q+"%")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drivers`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drivers: %w", err)
	}
	query, args := sqldb.Paginate(`SELECT `+columns+` FROM drivers`+cond+` ORDER BY lower(full_name) ASC, id ASC`, args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Driver, 0)
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *Repo) getBy(ctx context.Context, column, value string) (domain.Driver, error) {
	d, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM drivers WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Driver{}, driverrepo.ErrNotFound
	}
	return d, err
}

func normalize(d domain.Driver) domain.Driver {
	if d.Email != nil {
		e := domain.NormalizeEmail(*d.Email)
		d.Email = &e
	}
	return d
}

func values(d domain.Driver) []any {
	return []any{
		string(d.ID),
		sqldb.NullString(d.UserID),
		d.FullName,
		d.Phone,
		sqldb.NullString(d.Email),
		sqldb.NullString(d.LicenseNumber),
		sqldb.NullString(d.LicensePlate),
		sqldb.NullString(d.VehicleBrand),
		sqldb.NullString(d.VehicleModel),
		sqldb.NullString(d.VehicleColor),
		sqldb.NullString(d.VehicleType),
		sqldb.NullString(d.Address),
		string(d.Status),
		sqldb.NullString(d.ProfileImageURL),
		sqldb.FormatTime(d.CreatedAt),
		sqldb.FormatTime(d.UpdatedAt),
	}
}

func scan(s sqldb.Scanner) (domain.Driver, error) {
	var (
		d                                domain.Driver
		id, status, createdAt, updatedAt string
		userID, email, licenseNo, plate  sql.NullString
		brand, model, color, vtype, addr sql.NullString
		image                            sql.NullString
	)
	if err := s.Scan(
		&id, &userID, &d.FullName, &d.Phone, &email, &licenseNo, &plate, &brand,
		&model, &color, &vtype, &addr, &status, &image, &createdAt, &updatedAt,
	); err != nil {
		return domain.Driver{}, err
	}
	d.ID = domain.DriverID(id)
	d.Status = domain.DriverStatus(status)
	d.UserID = sqldb.StringPtr[domain.UserID](userID)
	d.Email = sqldb.StringPtr[string](email)
	d.LicenseNumber = sqldb.StringPtr[string](licenseNo)
	d.LicensePlate = sqldb.StringPtr[string](plate)
	d.VehicleBrand = sqldb.StringPtr[string](brand)
	d.VehicleModel = sqldb.StringPtr[string](model)
	d.VehicleColor = sqldb.StringPtr[string](color)
	d.VehicleType = sqldb.StringPtr[string](vtype)
	d.Address = sqldb.StringPtr[string](addr)
	d.ProfileImageURL = sqldb.StringPtr[string](image)

	var err error
	if d.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Driver{}, err
	}
	if d.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Driver{}, err
	}
	return d, nil
}
