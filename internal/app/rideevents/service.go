// Package rideevents reads the ride history written by the ride service.
package rideevents

import (
	"context"
	"errors"
	"fmt"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	events rideeventrepo.Repository
	rides  riderepo.Repository
}

func NewService(events rideeventrepo.Repository, rides riderepo.Repository) *Service {
	return &Service{events: events, rides: rides}
}

// Recent returns the newest events. Drivers only see events of rides assigned to them.
func (s *Service) Recent(ctx context.Context, p domain.Principal, limit int) ([]domain.RideEvent, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	f := rideeventrepo.Filter{Limit: limit}
	if p.Role == domain.RoleDriver {
		ids, err := s.driverRides(ctx, p)
		if err != nil {
			return nil, err
		}
		f.RideIDs = ids
	}
	out, err := s.events.ListRecent(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list ride events: %w", err)
	}
	return out, nil
}

func (s *Service) driverRides(ctx context.Context, p domain.Principal) ([]domain.RideID, error) {
	ids := []domain.RideID{}
	if p.DriverID == nil {
		return ids, nil
	}
	rs, _, err := s.rides.List(ctx, riderepo.Filter{DriverID: p.DriverID})
	if err != nil {
		return nil, fmt.Errorf("list driver rides: %w", err)
	}
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ForRide returns one ride's history, oldest first.
func (s *Service) ForRide(ctx context.Context, p domain.Principal, id domain.RideID) ([]domain.RideEvent, error) {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return nil, apperr.NotFound("Ride not found")
		}
		return nil, err
	}
	if p.Role == domain.RoleDriver && (p.DriverID == nil || r.DriverID == nil || *p.DriverID != *r.DriverID) {
		return nil, apperr.Forbidden("Access denied: ride is not assigned to you")
	}
	out, err := s.events.ListByRide(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list ride history: %w", err)
	}
	return out, nil
}
