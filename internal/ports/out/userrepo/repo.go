package userrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists indicates a user already exists with the provided ID.
	ErrAlreadyExists = errors.New("user already exists")

	// ErrEmailTaken indicates another user already owns the (normalized) email.
	ErrEmailTaken = errors.New("user email already in use")
)

type Filter struct {
	Role  *domain.Role
	Query string // case-insensitive match on name or email

	Limit  int // 0 means no limit
	Offset int
}

// Repository provides access to persisted users.
//
// Emails are stored normalized (see domain.NormalizeEmail); List orders by CreatedAt then ID.
type Repository interface {
	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id domain.UserID) error

	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// List returns one page of users and the total number matching the filter.
	List(ctx context.Context, f Filter) ([]domain.User, int, error)
}
