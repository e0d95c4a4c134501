package driverrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound = errors.New("driver not found")

	// ErrAlreadyExists covers ID, email and license plate uniqueness.
	ErrAlreadyExists = errors.New("driver already exists")
)

type Filter struct {
	Status *domain.DriverStatus
	Query  string

	Limit  int
	Offset int
}

// Repository provides access to driver profiles. List orders by full name.
type Repository interface {
	Create(ctx context.Context, d domain.Driver) error
	Update(ctx context.Context, d domain.Driver) error
	Delete(ctx context.Context, id domain.DriverID) error

	GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error)
	GetByUserID(ctx context.Context, id domain.UserID) (domain.Driver, error)
	GetByEmail(ctx context.Context, email string) (domain.Driver, error)

	List(ctx context.Context, f Filter) ([]domain.Driver, int, error)
}
