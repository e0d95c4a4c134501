// Package vehicles manages the fleet and the vehicle type catalogue.
package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

type Service struct {
	repo vehiclerepo.Repository
	seq  sequence.Generator
	clk  clockport.Clock
}

func NewService(repo vehiclerepo.Repository, seq sequence.Generator, clk clockport.Clock) *Service {
	return &Service{repo: repo, seq: seq, clk: clk}
}

func vehicleNotFound() *apperr.Error { return apperr.NotFound("Vehicle not found") }
func typeNotFound() *apperr.Error    { return apperr.NotFound("Vehicle type not found") }

func (s *Service) ListVehicles(ctx context.Context, in ListInput) ([]domain.Vehicle, error) {
	var f vehiclerepo.Filter
	if in.Status != "" {
		st, ok := domain.ParseVehicleStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !ok {
			return nil, apperr.Validation("invalid status", map[string]any{"status": "unknown vehicle status"})
		}
		f.Status = &st
	}
	if id := strings.TrimSpace(in.TypeID); id != "" {
		f.TypeID = domain.Ptr(domain.VehicleTypeID(id))
	}
	vs, err := s.repo.ListVehicles(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vs, nil
}

func (s *Service) GetVehicle(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		if errors.Is(err, vehiclerepo.ErrNotFound) {
			return domain.Vehicle{}, vehicleNotFound()
		}
		return domain.Vehicle{}, err
	}
	return v, nil
}

func (s *Service) CreateVehicle(ctx context.Context, in VehicleInput) (domain.Vehicle, error) {
	details := map[string]any{}
	plate := strings.TrimSpace(in.LicensePlate)
	if plate == "" {
		details["license_plate"] = "must be non-empty"
	}
	if in.Capacity < 0 {
		details["capacity"] = "must be >= 0"
	}
	status := domain.VehicleStatusAvailable
	if in.Status != "" {
		st, ok := domain.ParseVehicleStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !ok {
			details["status"] = "unknown vehicle status"
		}
		status = st
	}
	if len(details) > 0 {
		return domain.Vehicle{}, apperr.Validation("invalid vehicle", details)
	}
	typeID, err := s.checkType(ctx, trimPtr(in.TypeID))
	if err != nil {
		return domain.Vehicle{}, err
	}

	n, err := s.seq.Next(ctx, domain.PrefixVehicle)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("next vehicle id: %w", err)
	}
	now := s.clk.Now()
	v := domain.Vehicle{
		ID:           domain.VehicleID(domain.FormatID(domain.PrefixVehicle, n)),
		LicensePlate: plate,
		Brand:        trimPtr(in.Brand),
		Model:        trimPtr(in.Model),
		TypeID:       typeID,
		Capacity:     in.Capacity,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t := trimPtr(in.AssignedTeamID); t != nil {
		v.AssignedTeamID = domain.Ptr(domain.TeamID(*t))
	}
	if in.NextMaintenanceDate != nil {
		v.NextMaintenanceDate = domain.Ptr(domain.DateOnly(*in.NextMaintenanceDate))
	}
	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		if errors.Is(err, vehiclerepo.ErrAlreadyExists) {
			return domain.Vehicle{}, apperr.Conflict(apperr.CodeConflict, "License plate already exists")
		}
		return domain.Vehicle{}, err
	}
	return v, nil
}

func (s *Service) UpdateVehicle(ctx context.Context, id domain.VehicleID, in VehicleUpdate) (domain.Vehicle, error) {
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return domain.Vehicle{}, err
	}
	details := map[string]any{}
	if in.LicensePlate.IsSpecified() {
		plate := strings.TrimSpace(in.LicensePlate.Value())
		if in.LicensePlate.IsNull() || plate == "" {
			details["license_plate"] = "must be non-empty"
		}
		v.LicensePlate = plate
	}
	if in.Capacity.IsSpecified() {
		if in.Capacity.Value() < 0 {
			details["capacity"] = "must be >= 0"
		}
		v.Capacity = in.Capacity.Value()
	}
	if in.Status.IsSpecified() {
		st, ok := domain.ParseVehicleStatus(strings.ToUpper(strings.TrimSpace(in.Status.Value())))
		if in.Status.IsNull() || !ok {
			details["status"] = "unknown vehicle status"
		}
		v.Status = st
	}
	if len(details) > 0 {
		return domain.Vehicle{}, apperr.Validation("invalid vehicle", details)
	}
	if in.TypeID.IsSpecified() {
		var raw *string
		if in.TypeID.HasValue() {
			raw = trimPtr(domain.Ptr(in.TypeID.Value()))
		}
		if v.TypeID, err = s.checkType(ctx, raw); err != nil {
			return domain.Vehicle{}, err
		}
	}
	patch.ApplyPtr(&v.Brand, in.Brand)
	patch.ApplyPtr(&v.Model, in.Model)
	if in.AssignedTeamID.IsSpecified() {
		v.AssignedTeamID = nil
		if t := strings.TrimSpace(in.AssignedTeamID.Value()); in.AssignedTeamID.HasValue() && t != "" {
			v.AssignedTeamID = domain.Ptr(domain.TeamID(t))
		}
	}
	if in.NextMaintenanceDate.IsSpecified() {
		v.NextMaintenanceDate = nil
		if in.NextMaintenanceDate.HasValue() {
			v.NextMaintenanceDate = domain.Ptr(domain.DateOnly(in.NextMaintenanceDate.Value()))
		}
	}

	v.UpdatedAt = s.clk.Now()
	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		switch {
		case errors.Is(err, vehiclerepo.ErrAlreadyExists):
			return domain.Vehicle{}, apperr.Conflict(apperr.CodeConflict, "License plate already exists")
		case errors.Is(err, vehiclerepo.ErrNotFound):
			return domain.Vehicle{}, vehicleNotFound()
		}
		return domain.Vehicle{}, err
	}
	return v, nil
}

func (s *Service) DeleteVehicle(ctx context.Context, id domain.VehicleID) error {
	if err := s.repo.DeleteVehicle(ctx, id); err != nil {
		if errors.Is(err, vehiclerepo.ErrNotFound) {
			return vehicleNotFound()
		}
		return err
	}
	return nil
}

func (s *Service) checkType(ctx context.Context, raw *string) (*domain.VehicleTypeID, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := s.repo.GetType(ctx, domain.VehicleTypeID(*raw))
	if err != nil {
		if errors.Is(err, vehiclerepo.ErrTypeNotFound) {
			return nil, apperr.Validation("invalid type_id", map[string]any{"type_id": "vehicle type not found"})
		}
		return nil, err
	}
	return &t.ID, nil
}

func (s *Service) ListTypes(ctx context.Context) ([]domain.VehicleType, error) {
	ts, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicle types: %w", err)
	}
	return ts, nil
}

func (s *Service) GetType(ctx context.Context, id domain.VehicleTypeID) (domain.VehicleType, error) {
	t, err := s.repo.GetType(ctx, id)
	if err != nil {
		if errors.Is(err, vehiclerepo.ErrTypeNotFound) {
			return domain.VehicleType{}, typeNotFound()
		}
		return domain.VehicleType{}, err
	}
	return t, nil
}

func (s *Service) CreateType(ctx context.Context, in TypeInput) (domain.VehicleType, error) {
	name, err := validateType(in)
	if err != nil {
		return domain.VehicleType{}, err
	}
	n, err := s.seq.Next(ctx, domain.PrefixVehicleType)
	if err != nil {
		return domain.VehicleType{}, fmt.Errorf("next vehicle type id: %w", err)
	}
	now := s.clk.Now()
	t := domain.VehicleType{
		ID:          domain.VehicleTypeID(domain.FormatID(domain.PrefixVehicleType, n)),
		Name:        name,
		Capacity:    in.Capacity,
		Description: trimPtr(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateType(ctx, t); err != nil {
		if errors.Is(err, vehiclerepo.ErrTypeAlreadyExists) {
			return domain.VehicleType{}, apperr.Conflict(apperr.CodeConflict, "Vehicle type already exists")
		}
		return domain.VehicleType{}, err
	}
	return t, nil
}

// UpdateType replaces the type's fields.
func (s *Service) UpdateType(ctx context.Context, id domain.VehicleTypeID, in TypeInput) (domain.VehicleType, error) {
	t, err := s.GetType(ctx, id)
	if err != nil {
		return domain.VehicleType{}, err
	}
	name, err := validateType(in)
	if err != nil {
		return domain.VehicleType{}, err
	}
	t.Name = name
	t.Capacity = in.Capacity
	t.Description = trimPtr(in.Description)
	t.UpdatedAt = s.clk.Now()
	if err := s.repo.UpdateType(ctx, t); err != nil {
		switch {
		case errors.Is(err, vehiclerepo.ErrTypeAlreadyExists):
			return domain.VehicleType{}, apperr.Conflict(apperr.CodeConflict, "Vehicle type already exists")
		case errors.Is(err, vehiclerepo.ErrTypeNotFound):
			return domain.VehicleType{}, typeNotFound()
		}
		return domain.VehicleType{}, err
	}
	return t, nil
}

// DeleteType refuses to remove a type that vehicles still reference.
func (s *Service) DeleteType(ctx context.Context, id domain.VehicleTypeID) error {
	if _, err := s.GetType(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.ListVehicles(ctx, vehiclerepo.Filter{TypeID: &id})
	if err != nil {
		return fmt.Errorf("vehicles by type: %w", err)
	}
	if len(inUse) > 0 {
		return apperr.Conflict(apperr.CodeConflict, "Vehicle type is in use").
			WithDetails(map[string]any{"vehicleCount": len(inUse)})
	}
	if err := s.repo.DeleteType(ctx, id); err != nil {
		if errors.Is(err, vehiclerepo.ErrTypeNotFound) {
			return typeNotFound()
		}
		return err
	}
	return nil
}

func validateType(in TypeInput) (string, error) {
	details := map[string]any{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		details["name"] = "must be non-empty"
	}
	if in.Capacity < 0 {
		details["capacity"] = "must be >= 0"
	}
	if len(details) > 0 {
		return "", apperr.Validation("invalid vehicle type", details)
	}
	return name, nil
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
