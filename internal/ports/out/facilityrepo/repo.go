package facilityrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("facility not found")
	ErrAlreadyExists = errors.New("facility already exists")
)

type Filter struct {
	// IncludeInactive also returns facilities that were deleted.
	IncludeInactive bool
}

// Repository provides access to facilities. List orders by name, then id.
// Facilities are never removed, only deactivated through Update.
type Repository interface {
	Create(ctx context.Context, f domain.Facility) error
	Update(ctx context.Context, f domain.Facility) error
	GetByID(ctx context.Context, id domain.FacilityID) (domain.Facility, error)
	List(ctx context.Context, f Filter) ([]domain.Facility, error)
}
