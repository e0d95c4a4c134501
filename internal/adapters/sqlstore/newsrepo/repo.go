package newsrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/newsrepo"
)

const columns = `id, title, content, author, status, published_date, scheduled_date, featured_image_url, created_at, updated_at`

// Repo is a database/sql implementation of newsrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, n domain.NewsArticle) error {
	if n.ID == "" {
		return newsrepo.ErrAlreadyExists
	}
	args := values(n)
	_, err := r.db.ExecContext(ctx, `INSERT INTO news (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return newsrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, n domain.NewsArticle) error {
	args := values(n)
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE news
		SET title = ?, content = ?, author = ?, status = ?, published_date = ?, scheduled_date = ?,
		    featured_image_url = ?, created_at = ?, updated_at = ?
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
		return newsrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.NewsID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return newsrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.NewsID) (domain.NewsArticle, error) {
	n, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM news WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewsArticle{}, newsrepo.ErrNotFound
	}
	return n, err
}

func (r *Repo) List(ctx context.Context, status *domain.NewsStatus) ([]domain.NewsArticle, error) {
	query := `SELECT ` + columns + ` FROM news`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY COALESCE(published_date, created_at) DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	out := make([]domain.NewsArticle, 0)
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func values(n domain.NewsArticle) []any {
	return []any{
		string(n.ID),
		n.Title,
		n.Content,
		n.Author,
		string(n.Status),
		sqldb.NullTime(n.PublishedDate),
		sqldb.NullTime(n.ScheduledDate),
		sqldb.NullString(n.FeaturedImageURL),
		sqldb.FormatTime(n.CreatedAt),
		sqldb.FormatTime(n.UpdatedAt),
	}
}

func scan(s sqldb.Scanner) (domain.NewsArticle, error) {
	var (
		n                                domain.NewsArticle
		id, status, createdAt, updatedAt string
		published, scheduled, image      sql.NullString
	)
	if err := s.Scan(&id, &n.Title, &n.Content, &n.Author, &status, &published, &scheduled, &image, &createdAt, &updatedAt); err != nil {
		return domain.NewsArticle{}, err
	}
	n.ID = domain.NewsID(id)
	n.Status = domain.NewsStatus(status)
	n.FeaturedImageURL = sqldb.StringPtr[string](image)

	var err error
	if n.PublishedDate, err = sqldb.ParseNullTime(published); err != nil {
		return domain.NewsArticle{}, err
	}
	if n.ScheduledDate, err = sqldb.ParseNullTime(scheduled); err != nil {
		return domain.NewsArticle{}, err
	}
	if n.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.NewsArticle{}, err
	}
	if n.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.NewsArticle{}, err
	}
	return n, nil
}
