package idempotency

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
)

// Store is a database/sql implementation of idempotency.Store.
type Store struct {
	db *sqldb.DB
}

func NewStore(db *sqldb.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	var (
		rec       idempotency.Record
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status_code, content_type, body, created_at
		FROM idempotency_keys
		WHERE idempotency_key = ? AND subject = ? AND method = ? AND route = ? AND body_hash = ?
	`,
		string(fp.Key), string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
	).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	if rec.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return idempotency.Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (
			idempotency_key, subject, method, route, body_hash,
			status_code, content_type, body, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (idempotency_key, subject, method, route, body_hash)
		DO UPDATE SET
			status_code = excluded.status_code,
			content_type = excluded.content_type,
			body = excluded.body,
			created_at = excluded.created_at
	`,
		string(fp.Key), string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
		rec.StatusCode, rec.ContentType, rec.Body, sqldb.FormatTime(rec.CreatedAt),
	)
	return err
}
