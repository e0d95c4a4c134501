package rideeventrepo

import (
	"context"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

type Filter struct {
	// RideIDs restricts results when non-nil (an empty non-nil slice matches nothing).
	RideIDs []domain.RideID
	Limit   int
}

// Repository is the append-only ride history.
type Repository interface {
	Append(ctx context.Context, ev domain.RideEvent) error
	// ListByRide returns the history of one ride, oldest first.
	ListByRide(ctx context.Context, id domain.RideID) ([]domain.RideEvent, error)
	// ListRecent returns events newest first.
	ListRecent(ctx context.Context, f Filter) ([]domain.RideEvent, error)
}
