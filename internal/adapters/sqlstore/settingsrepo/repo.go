package settingsrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
)

// Repo stores the single settings document as JSON in row 1.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Get(ctx context.Context) (domain.Settings, error) {
	var data, updatedAt string
	err := r.db.QueryRowContext(ctx, `SELECT data, updated_at FROM settings WHERE id = 1`).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, settingsrepo.ErrNotFound
	}
	if err != nil {
		return domain.Settings{}, err
	}

	var s domain.Settings
	if err := sqldb.DecodeJSON(data, &s); err != nil {
		return domain.Settings{}, err
	}
	if s.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

func (r *Repo) Put(ctx context.Context, s domain.Settings) error {
	data, err := sqldb.EncodeJSON(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, data, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, data, sqldb.FormatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}
