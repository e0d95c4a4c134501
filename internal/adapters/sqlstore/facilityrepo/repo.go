package facilityrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
)

const columns = `id, name, lat, lng, facility_type, is_active, created_by, created_at, updated_at`

// Repo is a database/sql implementation of facilityrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, f domain.Facility) error {
	if f.ID == "" {
		return facilityrepo.ErrAlreadyExists
	}
	args := values(f)
	_, err := r.db.ExecContext(ctx, `INSERT INTO facilities (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return facilityrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, f domain.Facility) error {
	args := values(f)
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE facilities
		SET name = ?, lat = ?, lng = ?, facility_type = ?, is_active = ?, created_by = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return facilityrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FacilityID) (domain.Facility, error) {
	f, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM facilities WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Facility{}, facilityrepo.ErrNotFound
	}
	return f, err
}

func (r *Repo) List(ctx context.Context, filter facilityrepo.Filter) ([]domain.Facility, error) {
	query := `SELECT ` + columns + ` FROM facilities`
	if !filter.IncludeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Facility, 0)
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func values(f domain.Facility) []any {
	return []any{
		string(f.ID),
		f.Name,
		f.Location.Lat,
		f.Location.Lng,
		sqldb.NullString(f.FacilityType),
		sqldb.Bool(f.IsActive),
		string(f.CreatedBy),
		sqldb.FormatTime(f.CreatedAt),
		sqldb.FormatTime(f.UpdatedAt),
	}
}

func scan(s sqldb.Scanner) (domain.Facility, error) {
	var (
		f                                   domain.Facility
		id, createdBy, createdAt, updatedAt string
		facilityType                        sql.NullString
		active                              int64
	)
	if err := s.Scan(&id, &f.Name, &f.Location.Lat, &f.Location.Lng, &facilityType, &active, &createdBy, &createdAt, &updatedAt); err != nil {
		return domain.Facility{}, err
	}
	f.ID = domain.FacilityID(id)
	f.FacilityType = sqldb.StringPtr[string](facilityType)
	f.IsActive = active != 0
	f.CreatedBy = domain.UserID(createdBy)

	var err error
	if f.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Facility{}, err
	}
	if f.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Facility{}, err
	}
	return f, nil
}
