package teamrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/teamrepo"
)

const columns = `id, name, driver_id, staff_ids, vehicle_id, created_at, updated_at`

// Repo is a database/sql implementation of teamrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, t domain.Team) error {
	if t.ID == "" {
		return teamrepo.ErrAlreadyExists
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO teams (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.ID),
		t.Name,
		sqldb.NullString(t.DriverID),
		sqldb.EncodeList(t.StaffIDs),
		sqldb.NullString(t.VehicleID),
		sqldb.FormatTime(t.CreatedAt),
		sqldb.FormatTime(t.UpdatedAt),
	)
	if sqldb.IsUniqueViolation(err) {
		return teamrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, t domain.Team) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teams
		SET name = ?, driver_id = ?, staff_ids = ?, vehicle_id = ?, updated_at = ?
		WHERE id = ?
	`,
		t.Name,
		sqldb.NullString(t.DriverID),
		sqldb.EncodeList(t.StaffIDs),
		sqldb.NullString(t.VehicleID),
		sqldb.FormatTime(t.UpdatedAt),
		string(t.ID),
	)
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return teamrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TeamID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return teamrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	t, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM teams WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Team{}, teamrepo.ErrNotFound
	}
	return t, err
}

func (r *Repo) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM teams ORDER BY lower(name) ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Team, 0)
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scan(s sqldb.Scanner) (domain.Team, error) {
	var (
		t                    domain.Team
		id, staff            string
		driverID, vehicleID  sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &t.Name, &driverID, &staff, &vehicleID, &createdAt, &updatedAt); err != nil {
		return domain.Team{}, err
	}
	t.ID = domain.TeamID(id)
	t.DriverID = sqldb.StringPtr[domain.DriverID](driverID)
	t.VehicleID = sqldb.StringPtr[domain.VehicleID](vehicleID)

	var err error
	if t.StaffIDs, err = sqldb.DecodeList[domain.UserID](staff); err != nil {
		return domain.Team{}, err
	}
	if t.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Team{}, err
	}
	if t.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Team{}, err
	}
	return t, nil
}
