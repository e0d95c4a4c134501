package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

const columns = `id, email, full_name, phone, role, status, password_hash, profile_image_url, created_at, updated_at`

// Repo is a database/sql implementation of userrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	if u.ID == "" {
		return userrepo.ErrAlreadyExists
	}
	u.Email = domain.NormalizeEmail(u.Email)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(u.ID),
		u.Email,
		u.FullName,
		sqldb.NullString(u.Phone),
		string(u.Role),
		string(u.Status),
		u.PasswordHash,
		sqldb.NullString(u.ProfileImageURL),
		sqldb.FormatTime(u.CreatedAt),
		sqldb.FormatTime(u.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, full_name = ?, phone = ?, role = ?, status = ?,
		    password_hash = ?, profile_image_url = ?, updated_at = ?
		WHERE id = ?
	`,
		u.Email,
		u.FullName,
		sqldb.NullString(u.Phone),
		string(u.Role),
		string(u.Status),
		u.PasswordHash,
		sqldb.NullString(u.ProfileImageURL),
		sqldb.FormatTime(u.UpdatedAt),
		string(u.ID),
	)
	if err != nil {
		return mapWriteErr(err)
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return userrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.UserID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return userrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM users WHERE id = ?`, string(id))
	return scanOne(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	return scanOne(row)
}

func (r *Repo) List(ctx context.Context, f userrepo.Filter) ([]domain.User, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Role != nil {
		where = append(where, "role = ?")
		args = append(args, string(*f.Role))
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where = append(where, "(lower(full_name) LIKE ? OR email LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + columns + ` FROM users` + cond + ` ORDER BY created_at ASC, id ASC`
	query, args = sqldb.Paginate(query, args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func scanOne(row *sql.Row) (domain.User, error) {
	u, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u, err
}

func scan(s sqldb.Scanner) (domain.User, error) {
	var (
		u                    domain.User
		id, role, status     string
		phone, image         sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&id, &u.Email, &u.FullName, &phone, &role, &status, &u.PasswordHash, &image, &createdAt, &updatedAt); err != nil {
		return domain.User{}, err
	}
	u.ID = domain.UserID(id)
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.Phone = sqldb.StringPtr[string](phone)
	u.ProfileImageURL = sqldb.StringPtr[string](image)

	var err error
	if u.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.User{}, err
	}
	if u.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if sqldb.IsUniqueViolation(err) {
		if strings.Contains(sqldb.ConstraintName(err), "email") {
			return userrepo.ErrEmailTaken
		}
		return userrepo.ErrAlreadyExists
	}
	return err
}
