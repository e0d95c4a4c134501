// Package drivers manages driver profiles and the driver self-service views.
package drivers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

type Service struct {
	repo  driverrepo.Repository
	users userrepo.Repository
	rides riderepo.Repository
	seq   sequence.Generator
	clk   clockport.Clock
}

func NewService(repo driverrepo.Repository, users userrepo.Repository, rides riderepo.Repository, seq sequence.Generator, clk clockport.Clock) *Service {
	return &Service{repo: repo, users: users, rides: rides, seq: seq, clk: clk}
}

func driverNotFound() *apperr.Error { return apperr.NotFound("Driver not found") }

func duplicateDriver() *apperr.Error {
	return apperr.Conflict(apperr.CodeConflict, "A driver with this email, license plate or user already exists")
}

func (s *Service) List(ctx context.Context, in ListInput) (pagination.Page[domain.Driver], error) {
	f := driverrepo.Filter{
		Query:  strings.TrimSpace(in.Query),
		Limit:  in.Normalize().Limit,
		Offset: in.Offset(),
	}
	if in.Status != "" {
		st, ok := domain.ParseDriverStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !ok {
			return pagination.Page[domain.Driver]{}, apperr.Validation("invalid status", map[string]any{"status": "unknown driver status"})
		}
		f.Status = &st
	}
	ds, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[domain.Driver]{}, fmt.Errorf("list drivers: %w", err)
	}
	return pagination.New(ds, in.Params, total), nil
}

func (s *Service) Get(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, driverrepo.ErrNotFound) {
			return domain.Driver{}, driverNotFound()
		}
		return domain.Driver{}, err
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Driver, error) {
	details := map[string]any{}
	name := domain.NormalizeHumanName(in.FullName)
	if name == "" {
		details["full_name"] = "must be non-empty"
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		details["phone"] = "must be non-empty"
	}
	email := normalizeEmailPtr(in.Email)
	if email != nil {
		if err := domain.ValidateEmail(*email); err != nil {
			details["email"] = err.Error()
		}
	}
	status := domain.DriverStatusAvailable
	if in.Status != "" {
		st, ok := domain.ParseDriverStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !ok {
			details["status"] = "unknown driver status"
		}
		status = st
	}
	if len(details) > 0 {
		return domain.Driver{}, apperr.Validation("invalid driver", details)
	}
	userID, err := s.linkedUser(ctx, trimPtr(in.UserID))
	if err != nil {
		return domain.Driver{}, err
	}

	n, err := s.seq.Next(ctx, domain.PrefixDriver)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("next driver id: %w", err)
	}
	now := s.clk.Now()
	d := domain.Driver{
		ID:              domain.DriverID(domain.FormatID(domain.PrefixDriver, n)),
		UserID:          userID,
		FullName:        name,
		Phone:           phone,
		Email:           email,
		LicenseNumber:   trimPtr(in.LicenseNumber),
		LicensePlate:    trimPtr(in.LicensePlate),
		VehicleBrand:    trimPtr(in.VehicleBrand),
		VehicleModel:    trimPtr(in.VehicleModel),
		VehicleColor:    trimPtr(in.VehicleColor),
		VehicleType:     trimPtr(in.VehicleType),
		Address:         trimPtr(in.Address),
		Status:          status,
		ProfileImageURL: trimPtr(in.ProfileImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, driverrepo.ErrAlreadyExists) {
			return domain.Driver{}, duplicateDriver()
		}
		return domain.Driver{}, err
	}
	return d, nil
}

// Update applies a partial update. A driver may only edit its own profile and cannot relink it.
func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.DriverID, in UpdateInput) (domain.Driver, error) {
	if p.Role == domain.RoleDriver {
		if p.DriverID == nil || *p.DriverID != id {
			return domain.Driver{}, apperr.Forbidden("Drivers can only update their own profile")
		}
		if in.UserID.IsSpecified() {
			return domain.Driver{}, apperr.Forbidden("Drivers cannot change the linked account")
		}
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return domain.Driver{}, err
	}

	details := map[string]any{}
	if in.FullName.IsSpecified() {
		name := domain.NormalizeHumanName(in.FullName.Value())
		if in.FullName.IsNull() || name == "" {
			details["full_name"] = "must be non-empty"
		}
		d.FullName = name
	}
	if in.Phone.IsSpecified() {
		phone := strings.TrimSpace(in.Phone.Value())
		if in.Phone.IsNull() || phone == "" {
			details["phone"] = "must be non-empty"
		}
		d.Phone = phone
	}
	if in.Email.IsSpecified() {
		d.Email = nil
		if in.Email.HasValue() {
			d.Email = normalizeEmailPtr(domain.Ptr(in.Email.Value()))
		}
		if d.Email != nil {
			if err := domain.ValidateEmail(*d.Email); err != nil {
				details["email"] = err.Error()
			}
		}
	}
	if in.Status.IsSpecified() {
		st, ok := domain.ParseDriverStatus(strings.ToUpper(strings.TrimSpace(in.Status.Value())))
		if in.Status.IsNull() || !ok {
			details["status"] = "unknown driver status"
		}
		d.Status = st
	}
	if len(details) > 0 {
		return domain.Driver{}, apperr.Validation("invalid driver", details)
	}
	if in.UserID.IsSpecified() {
		var raw *string
		if in.UserID.HasValue() {
			raw = trimPtr(domain.Ptr(in.UserID.Value()))
		}
		if d.UserID, err = s.linkedUser(ctx, raw); err != nil {
			return domain.Driver{}, err
		}
	}
	applyText(&d.LicenseNumber, in.LicenseNumber)
	applyText(&d.LicensePlate, in.LicensePlate)
	applyText(&d.VehicleBrand, in.VehicleBrand)
	applyText(&d.VehicleModel, in.VehicleModel)
	applyText(&d.VehicleColor, in.VehicleColor)
	applyText(&d.VehicleType, in.VehicleType)
	applyText(&d.Address, in.Address)
	applyText(&d.ProfileImageURL, in.ProfileImageURL)

	d.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, driverrepo.ErrAlreadyExists):
			return domain.Driver{}, duplicateDriver()
		case errors.Is(err, driverrepo.ErrNotFound):
			return domain.Driver{}, driverNotFound()
		}
		return domain.Driver{}, err
	}
	return d, nil
}

// UpdateStatus changes availability. Drivers may only change their own.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, id domain.DriverID, status string) (domain.Driver, error) {
	return s.Update(ctx, p, id, UpdateInput{Status: patch.Some(status)})
}

func (s *Service) Delete(ctx context.Context, id domain.DriverID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, driverrepo.ErrNotFound) {
			return driverNotFound()
		}
		return err
	}
	return nil
}

// Me returns the caller's driver profile, matched by linked user and then by email.
func (s *Service) Me(ctx context.Context, p domain.Principal) (domain.Driver, error) {
	if p.DriverID != nil {
		return s.Get(ctx, *p.DriverID)
	}
	d, err := s.repo.GetByUserID(ctx, p.UserID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, driverrepo.ErrNotFound) {
		return domain.Driver{}, err
	}
	if p.Email != "" {
		d, err = s.repo.GetByEmail(ctx, p.Email)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, driverrepo.ErrNotFound) {
			return domain.Driver{}, err
		}
	}
	return domain.Driver{}, apperr.NotFound("No driver profile is linked to this account")
}

// MyRides lists rides assigned to the caller's driver profile.
func (s *Service) MyRides(ctx context.Context, p domain.Principal, in MyRidesInput) (pagination.Page[domain.Ride], error) {
	d, err := s.Me(ctx, p)
	if err != nil {
		return pagination.Page[domain.Ride]{}, err
	}
	f := riderepo.Filter{
		DriverID: &d.ID,
		Limit:    in.Normalize().Limit,
		Offset:   in.Offset(),
	}
	if in.Date != nil {
		from := domain.DateOnly(*in.Date)
		to := from.AddDate(0, 0, 1)
		f.From, f.To = &from, &to
	}
	if in.Status != "" {
		st, ok := domain.ParseRideStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !ok {
			return pagination.Page[domain.Ride]{}, apperr.Validation("invalid status", map[string]any{"status": "unknown ride status"})
		}
		f.Statuses = []domain.RideStatus{st}
	}
	rs, total, err := s.rides.List(ctx, f)
	if err != nil {
		return pagination.Page[domain.Ride]{}, fmt.Errorf("list driver rides: %w", err)
	}
	return pagination.New(rs, in.Params, total), nil
}

func (s *Service) linkedUser(ctx context.Context, raw *string) (*domain.UserID, error) {
	if raw == nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, domain.UserID(*raw))
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, apperr.Validation("invalid user_id", map[string]any{"user_id": "user not found"})
		}
		return nil, err
	}
	if u.Role != domain.RoleDriver {
		return nil, apperr.Validation("invalid user_id", map[string]any{"user_id": "user does not have the driver role"})
	}
	return &u.ID, nil
}

func applyText(dst **string, o patch.Optional[string]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = nil
		return
	}
	*dst = trimPtr(domain.Ptr(o.Value()))
}

func normalizeEmailPtr(p *string) *string {
	if p == nil {
		return nil
	}
	e := domain.NormalizeEmail(*p)
	if e == "" {
		return nil
	}
	return &e
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
