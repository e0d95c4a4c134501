package locationrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
)

const columns = `driver_id, latitude, longitude, heading, speed, accuracy, updated_at`

// Repo is a database/sql implementation of locationrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Upsert(ctx context.Context, l domain.DriverLocation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO driver_locations (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (driver_id) DO UPDATE
		SET latitude = excluded.latitude, longitude = excluded.longitude, heading = excluded.heading,
		    speed = excluded.speed, accuracy = excluded.accuracy, updated_at = excluded.updated_at
	`,
		string(l.DriverID),
		l.Latitude,
		l.Longitude,
		sqldb.NullFloat(l.Heading),
		sqldb.NullFloat(l.Speed),
		sqldb.NullFloat(l.Accuracy),
		sqldb.FormatTime(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert driver location: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.DriverID) (domain.DriverLocation, error) {
	l, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM driver_locations WHERE driver_id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DriverLocation{}, locationrepo.ErrNotFound
	}
	return l, err
}

func (r *Repo) List(ctx context.Context) ([]domain.DriverLocation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM driver_locations ORDER BY driver_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list driver locations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DriverLocation, 0)
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scan(s sqldb.Scanner) (domain.DriverLocation, error) {
	var (
		l                        domain.DriverLocation
		id, updatedAt            string
		heading, speed, accuracy sql.NullFloat64
	)
	if err := s.Scan(&id, &l.Latitude, &l.Longitude, &heading, &speed, &accuracy, &updatedAt); err != nil {
		return domain.DriverLocation{}, err
	}
	l.DriverID = domain.DriverID(id)
	l.Heading = sqldb.FloatPtr(heading)
	l.Speed = sqldb.FloatPtr(speed)
	l.Accuracy = sqldb.FloatPtr(accuracy)

	var err error
	if l.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.DriverLocation{}, err
	}
	return l, nil
}
