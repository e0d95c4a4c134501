package vehiclerepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("vehicle not found")
	ErrAlreadyExists = errors.New("vehicle already exists")

	ErrTypeNotFound      = errors.New("vehicle type not found")
	ErrTypeAlreadyExists = errors.New("vehicle type already exists")
)

type Filter struct {
	Status *domain.VehicleStatus
	TypeID *domain.VehicleTypeID
}

// Repository stores vehicles and the vehicle type catalogue.
type Repository interface {
	CreateVehicle(ctx context.Context, v domain.Vehicle) error
	UpdateVehicle(ctx context.Context, v domain.Vehicle) error
	DeleteVehicle(ctx context.Context, id domain.VehicleID) error
	GetVehicle(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error)
	ListVehicles(ctx context.Context, f Filter) ([]domain.Vehicle, error)

	CreateType(ctx context.Context, t domain.VehicleType) error
	UpdateType(ctx context.Context, t domain.VehicleType) error
	DeleteType(ctx context.Context, id domain.VehicleTypeID) error
	GetType(ctx context.Context, id domain.VehicleTypeID) (domain.VehicleType, error)
	ListTypes(ctx context.Context) ([]domain.VehicleType, error)
}
