// Package locations keeps the last reported position of each driver.
package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
)

type ReportInput struct {
	// DriverID is required for staff. A driver may omit it or pass its own.
	DriverID  string
	Latitude  *float64
	Longitude *float64
	Heading   *float64
	Speed     *float64
	Accuracy  *float64
}

type Service struct {
	repo    locationrepo.Repository
	drivers driverrepo.Repository
	clk     clockport.Clock
}

func NewService(repo locationrepo.Repository, drivers driverrepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, drivers: drivers, clk: clk}
}

// Report stores the caller's position. Drivers report for themselves; staff name the driver.
func (s *Service) Report(ctx context.Context, p domain.Principal, in ReportInput) (domain.DriverLocation, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return domain.DriverLocation{}, apperr.BadRequest("latitude and longitude are required")
	}
	if !domain.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return domain.DriverLocation{}, apperr.Validation("invalid coordinates", map[string]any{
			"latitude":  "must be between -90 and 90",
			"longitude": "must be between -180 and 180",
		})
	}

	requested := domain.DriverID(strings.TrimSpace(in.DriverID))
	var driverID domain.DriverID
	if p.Role == domain.RoleDriver {
		if p.DriverID == nil {
			return domain.DriverLocation{}, apperr.Forbidden("No driver profile is linked to this account")
		}
		if requested != "" && requested != *p.DriverID {
			return domain.DriverLocation{}, apperr.Forbidden("Drivers can only report their own location")
		}
		driverID = *p.DriverID
	} else {
		if requested == "" {
			return domain.DriverLocation{}, apperr.BadRequest("driverId is required")
		}
		if _, err := s.drivers.GetByID(ctx, requested); err != nil {
			if errors.Is(err, driverrepo.ErrNotFound) {
				return domain.DriverLocation{}, apperr.NotFound("Driver not found")
			}
			return domain.DriverLocation{}, err
		}
		driverID = requested
	}

	l := domain.DriverLocation{
		DriverID:  driverID,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Heading:   in.Heading,
		Speed:     in.Speed,
		Accuracy:  in.Accuracy,
		UpdatedAt: s.clk.Now(),
	}
	if err := s.repo.Upsert(ctx, l); err != nil {
		return domain.DriverLocation{}, fmt.Errorf("store location: %w", err)
	}
	return l, nil
}

func (s *Service) List(ctx context.Context) ([]domain.DriverLocation, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.DriverID) (domain.DriverLocation, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, locationrepo.ErrNotFound) {
			return domain.DriverLocation{}, apperr.NotFound("No location reported for this driver")
		}
		return domain.DriverLocation{}, err
	}
	return l, nil
}
