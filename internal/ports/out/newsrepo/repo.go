package newsrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("news article not found")
	ErrAlreadyExists = errors.New("news article already exists")
)

// Repository provides access to news articles. List orders newest first.
type Repository interface {
	Create(ctx context.Context, n domain.NewsArticle) error
	Update(ctx context.Context, n domain.NewsArticle) error
	Delete(ctx context.Context, id domain.NewsID) error
	GetByID(ctx context.Context, id domain.NewsID) (domain.NewsArticle, error)
	List(ctx context.Context, status *domain.NewsStatus) ([]domain.NewsArticle, error)
}
