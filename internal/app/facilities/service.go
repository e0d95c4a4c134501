// Package facilities manages the hospitals and health stations rides can be booked to.
// Every role may read the active list; only staff write it.
package facilities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

type Service struct {
	repo  facilityrepo.Repository
	seq   sequence.Generator
	audit *audit.Service
	clk   clockport.Clock
}

func NewService(repo facilityrepo.Repository, seq sequence.Generator, auditSvc *audit.Service, clk clockport.Clock) *Service {
	return &Service{repo: repo, seq: seq, audit: auditSvc, clk: clk}
}

func facilityNotFound() *apperr.Error { return apperr.NotFound("Facility not found") }

func requireStaff(p domain.Principal) error {
	if !p.Role.IsStaff() {
		return apperr.Forbidden("Only dispatch staff may manage facilities")
	}
	return nil
}

func (s *Service) List(ctx context.Context, p domain.Principal, in ListInput) ([]domain.Facility, error) {
	out, err := s.repo.List(ctx, facilityrepo.Filter{IncludeInactive: in.IncludeInactive && p.Role.IsStaff()})
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return out, nil
}

// Get hides deactivated facilities from non-staff callers.
func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.FacilityID) (domain.Facility, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return domain.Facility{}, err
	}
	if !f.IsActive && !p.Role.IsStaff() {
		return domain.Facility{}, facilityNotFound()
	}
	return f, nil
}

func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domain.Facility, error) {
	if err := requireStaff(p); err != nil {
		return domain.Facility{}, err
	}
	details := map[string]any{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		details["name"] = "must be non-empty"
	}
	if in.Lat == nil || in.Lng == nil {
		details["location"] = "lat and lng are required"
	} else if !domain.ValidCoordinates(*in.Lat, *in.Lng) {
		details["location"] = "out of range"
	}
	if len(details) > 0 {
		return domain.Facility{}, apperr.Validation("invalid facility", details)
	}

	n, err := s.seq.Next(ctx, domain.PrefixFacility)
	if err != nil {
		return domain.Facility{}, fmt.Errorf("next facility id: %w", err)
	}
	now := s.clk.Now()
	f := domain.Facility{
		ID:           domain.FacilityID(domain.FormatID(domain.PrefixFacility, n)),
		Name:         name,
		Location:     domain.Coordinates{Lat: *in.Lat, Lng: *in.Lng},
		FacilityType: trimPtr(in.FacilityType),
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedBy:    p.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, facilityrepo.ErrAlreadyExists) {
			return domain.Facility{}, apperr.Conflict(apperr.CodeConflict, "Facility already exists")
		}
		return domain.Facility{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionCreateFacility, string(f.ID), map[string]any{
		"name": f.Name,
	}))
	return f, nil
}

func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.FacilityID, in UpdateInput) (domain.Facility, error) {
	if err := requireStaff(p); err != nil {
		return domain.Facility{}, err
	}
	f, err := s.load(ctx, id)
	if err != nil {
		return domain.Facility{}, err
	}

	details := map[string]any{}
	if in.Name.IsSpecified() {
		v := strings.TrimSpace(in.Name.Value())
		if in.Name.IsNull() || v == "" {
			details["name"] = "must be non-empty"
		}
		f.Name = v
	}
	loc := f.Location
	if in.Lat.IsSpecified() {
		if in.Lat.IsNull() {
			details["location"] = "lat and lng are required"
		}
		loc.Lat = in.Lat.Value()
	}
	if in.Lng.IsSpecified() {
		if in.Lng.IsNull() {
			details["location"] = "lat and lng are required"
		}
		loc.Lng = in.Lng.Value()
	}
	if _, bad := details["location"]; !bad && !domain.ValidCoordinates(loc.Lat, loc.Lng) {
		details["location"] = "out of range"
	}
	if in.IsActive.IsNull() {
		details["isActive"] = "must be true or false"
	}
	if len(details) > 0 {
		return domain.Facility{}, apperr.Validation("invalid facility", details)
	}
	f.Location = loc
	if in.FacilityType.IsSpecified() {
		f.FacilityType = nil
		if in.FacilityType.HasValue() {
			f.FacilityType = trimPtr(domain.Ptr(in.FacilityType.Value()))
		}
	}
	if in.IsActive.HasValue() {
		f.IsActive = in.IsActive.Value()
	}

	f.UpdatedAt = s.clk.Now()
	if err := s.save(ctx, f); err != nil {
		return domain.Facility{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdateFacility, string(f.ID), map[string]any{
		"name":     f.Name,
		"isActive": f.IsActive,
	}))
	return f, nil
}

// Delete deactivates the facility. Rides that already name it keep their destination text.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.FacilityID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	f, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !f.IsActive {
		return facilityNotFound()
	}
	f.IsActive = false
	f.UpdatedAt = s.clk.Now()
	if err := s.save(ctx, f); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionDeleteFacility, string(f.ID), map[string]any{
		"name": f.Name,
	}))
	return nil
}

func (s *Service) load(ctx context.Context, id domain.FacilityID) (domain.Facility, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, facilityrepo.ErrNotFound) {
			return domain.Facility{}, facilityNotFound()
		}
		return domain.Facility{}, fmt.Errorf("load facility: %w", err)
	}
	return f, nil
}

func (s *Service) save(ctx context.Context, f domain.Facility) error {
	if err := s.repo.Update(ctx, f); err != nil {
		if errors.Is(err, facilityrepo.ErrNotFound) {
			return facilityNotFound()
		}
		return fmt.Errorf("update facility: %w", err)
	}
	return nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
