package mapshaperepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("map shape not found")
	ErrAlreadyExists = errors.New("map shape already exists")
)

type Filter struct {
	Type *domain.MapShapeType
}

// Repository provides access to map shapes. List orders newest first.
type Repository interface {
	Create(ctx context.Context, m domain.MapShape) error
	Update(ctx context.Context, m domain.MapShape) error
	Delete(ctx context.Context, id domain.MapShapeID) error
	GetByID(ctx context.Context, id domain.MapShapeID) (domain.MapShape, error)
	List(ctx context.Context, f Filter) ([]domain.MapShape, error)
}
