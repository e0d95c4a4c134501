package auditrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
)

const columns = `sequence_number, id, logged_at, user_email, user_role, action, target_id, ip_address,
	data_payload, previous_hash, hash`

// Repo is a database/sql implementation of auditrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Append(ctx context.Context, l domain.AuditLog) error {
	return insert(ctx, r.db, l)
}

func (r *Repo) Last(ctx context.Context) (domain.AuditLog, error) {
	l, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM audit_logs ORDER BY sequence_number DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AuditLog{}, auditrepo.ErrNotFound
	}
	return l, err
}

func (r *Repo) List(ctx context.Context, f auditrepo.Filter) ([]domain.AuditLog, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != nil {
		where = append(where, "action = ?")
		args = append(args, string(*f.Action))
	}
	if f.UserEmail != "" {
		where = append(where, "user_email = ?")
		args = append(args, f.UserEmail)
	}
	if f.TargetID != "" {
		where = append(where, "target_id = ?")
		args = append(args, f.TargetID)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	query, args := sqldb.Paginate(`SELECT `+columns+` FROM audit_logs`+cond+` ORDER BY sequence_number DESC`, args, f.Limit, f.Offset)
	out, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) All(ctx context.Context) ([]domain.AuditLog, error) {
	return r.query(ctx, `SELECT `+columns+` FROM audit_logs ORDER BY sequence_number ASC`)
}

func (r *Repo) ReplaceAll(ctx context.Context, logs []domain.AuditLog) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqldb.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM audit_logs`); err != nil {
			return fmt.Errorf("clear audit logs: %w", err)
		}
		for _, l := range logs {
			if err := insert(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AuditLog, 0)
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func insert(ctx context.Context, q sqldb.Querier, l domain.AuditLog) error {
	_, err := q.ExecContext(ctx, `INSERT INTO audit_logs (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SequenceNumber,
		l.ID,
		sqldb.FormatTime(l.Timestamp),
		l.UserEmail,
		string(l.UserRole),
		string(l.Action),
		sqldb.NullString(l.TargetID),
		l.IPAddress,
		sqldb.NullRaw(l.DataPayload),
		l.PreviousHash,
		l.Hash,
	)
	if sqldb.IsUniqueViolation(err) {
		return auditrepo.ErrAlreadyExists
	}
	return err
}

func scan(s sqldb.Scanner) (domain.AuditLog, error) {
	var (
		l                   domain.AuditLog
		loggedAt, role, act string
		target, payload     sql.NullString
	)
	if err := s.Scan(
		&l.SequenceNumber, &l.ID, &loggedAt, &l.UserEmail, &role, &act, &target, &l.IPAddress,
		&payload, &l.PreviousHash, &l.Hash,
	); err != nil {
		return domain.AuditLog{}, err
	}
	l.UserRole = domain.Role(role)
	l.Action = domain.AuditAction(act)
	l.TargetID = sqldb.StringPtr[string](target)
	l.DataPayload = sqldb.RawPtr(payload)

	var err error
	if l.Timestamp, err = sqldb.ParseTime(loggedAt); err != nil {
		return domain.AuditLog{}, err
	}
	return l, nil
}
