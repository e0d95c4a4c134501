package mapshaperepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
)

const columns = `id, type, name, description, points, properties, created_by, created_at, updated_at`

// Repo is a database/sql implementation of mapshaperepo.Repository.
// Points are stored as a JSON array of {lat, lng}.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (r *Repo) Create(ctx context.Context, m domain.MapShape) error {
	if m.ID == "" {
		return mapshaperepo.ErrAlreadyExists
	}
	args, err := values(m)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO map_shapes (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return mapshaperepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, m domain.MapShape) error {
	args, err := values(m)
	if err != nil {
		return err
	}
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE map_shapes
		SET type = ?, name = ?, description = ?, points = ?, properties = ?, created_by = ?, created_at = ?, updated_at = ?
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
		return mapshaperepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MapShapeID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM map_shapes WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return mapshaperepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MapShapeID) (domain.MapShape, error) {
	m, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM map_shapes WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MapShape{}, mapshaperepo.ErrNotFound
	}
	return m, err
}

func (r *Repo) List(ctx context.Context, f mapshaperepo.Filter) ([]domain.MapShape, error) {
	query := `SELECT ` + columns + ` FROM map_shapes`
	var args []any
	if f.Type != nil {
		query += ` WHERE type = ?`
		args = append(args, string(*f.Type))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list map shapes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MapShape, 0)
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func values(m domain.MapShape) ([]any, error) {
	pts := make([]point, 0, len(m.Points))
	for _, p := range m.Points {
		pts = append(pts, point{Lat: p.Lat, Lng: p.Lng})
	}
	encoded, err := sqldb.EncodeJSON(pts)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}
	return []any{
		string(m.ID),
		string(m.Type),
		m.Name,
		m.Description,
		encoded,
		sqldb.NullRaw(m.Properties),
		string(m.CreatedBy),
		sqldb.FormatTime(m.CreatedAt),
		sqldb.FormatTime(m.UpdatedAt),
	}, nil
}

func scan(s sqldb.Scanner) (domain.MapShape, error) {
	var (
		m                          domain.MapShape
		id, typ, points, createdBy string
		createdAt, updatedAt       string
		properties                 sql.NullString
	)
	if err := s.Scan(&id, &typ, &m.Name, &m.Description, &points, &properties, &createdBy, &createdAt, &updatedAt); err != nil {
		return domain.MapShape{}, err
	}
	m.ID = domain.MapShapeID(id)
	m.Type = domain.MapShapeType(typ)
	m.Properties = sqldb.RawPtr(properties)
	m.CreatedBy = domain.UserID(createdBy)

	var pts []point
	if err := sqldb.DecodeJSON(points, &pts); err != nil {
		return domain.MapShape{}, err
	}
	m.Points = make([]domain.Coordinates, 0, len(pts))
	for _, p := range pts {
		m.Points = append(m.Points, domain.Coordinates{Lat: p.Lat, Lng: p.Lng})
	}

	var err error
	if m.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.MapShape{}, err
	}
	if m.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.MapShape{}, err
	}
	return m, nil
}
