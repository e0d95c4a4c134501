package locationrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var ErrNotFound = errors.New("driver location not found")

// Repository keeps the latest known location per driver.
type Repository interface {
	Upsert(ctx context.Context, l domain.DriverLocation) error
	Get(ctx context.Context, id domain.DriverID) (domain.DriverLocation, error)
	// List orders by driver ID.
	List(ctx context.Context) ([]domain.DriverLocation, error)
}
