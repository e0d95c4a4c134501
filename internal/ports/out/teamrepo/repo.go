package teamrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("team not found")
	ErrAlreadyExists = errors.New("team already exists")
)

// Repository provides access to teams. List orders by name.
type Repository interface {
	Create(ctx context.Context, t domain.Team) error
	Update(ctx context.Context, t domain.Team) error
	Delete(ctx context.Context, id domain.TeamID) error
	GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
}
