package system

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/password"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/platform/seed"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

type SeedDeps struct {
	Users    userrepo.Repository
	Vehicles vehiclerepo.Repository
	Drivers  driverrepo.Repository
	Settings settingsrepo.Repository
	Seq      sequence.Generator
	Clock    clockport.Clock
	Logger   logger.Logger
}

// Seeder inserts fixtures that are not present yet. Running it twice is a no-op.
type Seeder struct {
	users    userrepo.Repository
	vehicles vehiclerepo.Repository
	drivers  driverrepo.Repository
	settings settingsrepo.Repository
	seq      sequence.Generator
	clk      clockport.Clock
	log      logger.Logger
}

func NewSeeder(d SeedDeps) *Seeder {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Seeder{
		users:    d.Users,
		vehicles: d.Vehicles,
		drivers:  d.Drivers,
		settings: d.Settings,
		seq:      d.Seq,
		clk:      d.Clock,
		log:      log,
	}
}

type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type ApplyResult struct {
	Users        SeedResult `json:"users"`
	VehicleTypes SeedResult `json:"vehicleTypes"`
	Vehicles     SeedResult `json:"vehicles"`
	Drivers      SeedResult `json:"drivers"`
	Settings     bool       `json:"settings"`
}

// Apply seeds users first so drivers can link to them by email.
func (s *Seeder) Apply(ctx context.Context, f seed.Fixtures) (ApplyResult, error) {
	var (
		out ApplyResult
		err error
	)
	if out.Users, err = s.SeedUsers(ctx, f.Users); err != nil {
		return out, err
	}
	types, res, err := s.seedVehicleTypes(ctx, f.VehicleTypes)
	if err != nil {
		return out, err
	}
	out.VehicleTypes = res
	if out.Vehicles, err = s.seedVehicles(ctx, f.Vehicles, types); err != nil {
		return out, err
	}
	if out.Drivers, err = s.seedDrivers(ctx, f.Drivers); err != nil {
		return out, err
	}
	if f.Settings != nil {
		if out.Settings, err = s.seedSettings(ctx, *f.Settings); err != nil {
			return out, err
		}
	}
	s.log.Info("seed fixtures applied",
		logger.Int("users", out.Users.Created),
		logger.Int("vehicleTypes", out.VehicleTypes.Created),
		logger.Int("vehicles", out.Vehicles.Created),
		logger.Int("drivers", out.Drivers.Created),
	)
	return out, nil
}

// SeedUsers creates the users whose email is not taken.
func (s *Seeder) SeedUsers(ctx context.Context, users []seed.User) (SeedResult, error) {
	var res SeedResult
	for _, fu := range users {
		email := domain.NormalizeEmail(fu.Email)
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return res, fmt.Errorf("seed user %s: %w", email, err)
		}
		role, ok := domain.ParseRole(fu.Role)
		if !ok {
			return res, fmt.Errorf("seed user %s: unknown role %q", email, fu.Role)
		}
		hash, err := password.Hash(fu.Password)
		if err != nil {
			return res, err
		}
		n, err := s.seq.Next(ctx, domain.PrefixUser)
		if err != nil {
			return res, fmt.Errorf("next user id: %w", err)
		}
		now := s.clk.Now()
		u := domain.User{
			ID:           domain.UserID(domain.FormatID(domain.PrefixUser, n)),
			Email:        email,
			FullName:     fu.FullName,
			Phone:        optional(fu.Phone),
			Role:         role,
			Status:       domain.UserStatusActive,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, userrepo.ErrEmailTaken) || errors.Is(err, userrepo.ErrAlreadyExists) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed user %s: %w", email, err)
		}
		res.Created++
	}
	return res, nil
}

func (s *Seeder) seedVehicleTypes(ctx context.Context, in []seed.VehicleType) (map[string]domain.VehicleTypeID, SeedResult, error) {
	var res SeedResult
	existing, err := s.vehicles.ListTypes(ctx)
	if err != nil {
		return nil, res, fmt.Errorf("list vehicle types: %w", err)
	}
	byName := make(map[string]domain.VehicleTypeID, len(existing)+len(in))
	for _, t := range existing {
		byName[strings.ToLower(t.Name)] = t.ID
	}
	for _, ft := range in {
		key := strings.ToLower(ft.Name)
		if _, ok := byName[key]; ok {
			res.Skipped++
			continue
		}
		n, err := s.seq.Next(ctx, domain.PrefixVehicleType)
		if err != nil {
			return nil, res, fmt.Errorf("next vehicle type id: %w", err)
		}
		now := s.clk.Now()
		t := domain.VehicleType{
			ID:          domain.VehicleTypeID(domain.FormatID(domain.PrefixVehicleType, n)),
			Name:        ft.Name,
			Capacity:    ft.Capacity,
			Description: optional(ft.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.vehicles.CreateType(ctx, t); err != nil {
			return nil, res, fmt.Errorf("seed vehicle type %s: %w", ft.Name, err)
		}
		byName[key] = t.ID
		res.Created++
	}
	return byName, res, nil
}

func (s *Seeder) seedVehicles(ctx context.Context, in []seed.Vehicle, types map[string]domain.VehicleTypeID) (SeedResult, error) {
	var res SeedResult
	existing, err := s.vehicles.ListVehicles(ctx, vehiclerepo.Filter{})
	if err != nil {
		return res, fmt.Errorf("list vehicles: %w", err)
	}
	plates := make(map[string]bool, len(existing))
	for _, v := range existing {
		plates[strings.ToLower(v.LicensePlate)] = true
	}
	for _, fv := range in {
		if plates[strings.ToLower(fv.LicensePlate)] {
			res.Skipped++
			continue
		}
		v := domain.Vehicle{
			LicensePlate: fv.LicensePlate,
			Brand:        optional(fv.Brand),
			Model:        optional(fv.Model),
			Capacity:     fv.Capacity,
			Status:       domain.VehicleStatusAvailable,
		}
		if fv.Type != "" {
			id, ok := types[strings.ToLower(fv.Type)]
			if !ok {
				return res, fmt.Errorf("seed vehicle %s: unknown type %q", fv.LicensePlate, fv.Type)
			}
			v.TypeID = &id
		}
		n, err := s.seq.Next(ctx, domain.PrefixVehicle)
		if err != nil {
			return res, fmt.Errorf("next vehicle id: %w", err)
		}
		v.ID = domain.VehicleID(domain.FormatID(domain.PrefixVehicle, n))
		v.CreatedAt = s.clk.Now()
		v.UpdatedAt = v.CreatedAt
		if err := s.vehicles.CreateVehicle(ctx, v); err != nil {
			return res, fmt.Errorf("seed vehicle %s: %w", fv.LicensePlate, err)
		}
		plates[strings.ToLower(fv.LicensePlate)] = true
		res.Created++
	}
	return res, nil
}

func (s *Seeder) seedDrivers(ctx context.Context, in []seed.Driver) (SeedResult, error) {
	var res SeedResult
	existing, _, err := s.drivers.List(ctx, driverrepo.Filter{})
	if err != nil {
		return res, fmt.Errorf("list drivers: %w", err)
	}
	seen := map[string]bool{}
	for _, d := range existing {
		if d.Email != nil {
			seen["email:"+*d.Email] = true
		}
		if d.LicensePlate != nil {
			seen["plate:"+strings.ToLower(*d.LicensePlate)] = true
		}
	}
	for _, fd := range in {
		email := domain.NormalizeEmail(fd.Email)
		if (email != "" && seen["email:"+email]) || (fd.LicensePlate != "" && seen["plate:"+strings.ToLower(fd.LicensePlate)]) {
			res.Skipped++
			continue
		}
		status := domain.DriverStatusAvailable
		if fd.Status != "" {
			st, ok := domain.ParseDriverStatus(fd.Status)
			if !ok {
				return res, fmt.Errorf("seed driver %s: unknown status %q", fd.FullName, fd.Status)
			}
			status = st
		}
		d := domain.Driver{
			FullName:      fd.FullName,
			Phone:         fd.Phone,
			Email:         optional(email),
			LicenseNumber: optional(fd.LicenseNumber),
			LicensePlate:  optional(fd.LicensePlate),
			VehicleBrand:  optional(fd.VehicleBrand),
			VehicleModel:  optional(fd.VehicleModel),
			VehicleColor:  optional(fd.VehicleColor),
			VehicleType:   optional(fd.VehicleType),
			Status:        status,
		}
		if fd.UserEmail != "" {
			u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(fd.UserEmail))
			if err != nil {
				return res, fmt.Errorf("seed driver %s: linked user %s: %w", fd.FullName, fd.UserEmail, err)
			}
			d.UserID = &u.ID
		}
		n, err := s.seq.Next(ctx, domain.PrefixDriver)
		if err != nil {
			return res, fmt.Errorf("next driver id: %w", err)
		}
		d.ID = domain.DriverID(domain.FormatID(domain.PrefixDriver, n))
		d.CreatedAt = s.clk.Now()
		d.UpdatedAt = d.CreatedAt
		if err := s.drivers.Create(ctx, d); err != nil {
			if errors.Is(err, driverrepo.ErrAlreadyExists) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed driver %s: %w", fd.FullName, err)
		}
		if email != "" {
			seen["email:"+email] = true
		}
		if fd.LicensePlate != "" {
			seen["plate:"+strings.ToLower(fd.LicensePlate)] = true
		}
		res.Created++
	}
	return res, nil
}

// seedSettings stores fixture settings only when none were saved.
func (s *Seeder) seedSettings(ctx context.Context, fs seed.Settings) (bool, error) {
	if _, err := s.settings.Get(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, settingsrepo.ErrNotFound) {
		return false, fmt.Errorf("load settings: %w", err)
	}
	st := domain.DefaultSettings()
	st.AppName = fs.AppName
	st.OrganizationName = fs.OrganizationName
	st.ContactEmail = domain.NormalizeEmail(fs.ContactEmail)
	st.MapCenterLat = fs.MapCenterLat
	st.MapCenterLng = fs.MapCenterLng
	if fs.SchedulingModel != "" {
		st.SchedulingModel = domain.SchedulingModel(fs.SchedulingModel)
	}
	st.UpdatedAt = s.clk.Now()
	if err := s.settings.Put(ctx, st); err != nil {
		return false, fmt.Errorf("store settings: %w", err)
	}
	return true, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
