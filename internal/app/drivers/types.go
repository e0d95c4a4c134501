package drivers

import (
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
)

type ListInput struct {
	Status string
	Query  string
	pagination.Params
}

type CreateInput struct {
	FullName      string
	Phone         string
	Email         *string
	UserID        *string
	LicenseNumber *string
	LicensePlate  *string
	VehicleBrand  *string
	VehicleModel  *string
	VehicleColor  *string
	VehicleType   *string
	Address       *string
	// Status defaults to AVAILABLE.
	Status string

	ProfileImageURL *string
}

type UpdateInput struct {
	FullName      patch.Optional[string]
	Phone         patch.Optional[string]
	Email         patch.Optional[string]
	UserID        patch.Optional[string]
	LicenseNumber patch.Optional[string]
	LicensePlate  patch.Optional[string]
	VehicleBrand  patch.Optional[string]
	VehicleModel  patch.Optional[string]
	VehicleColor  patch.Optional[string]
	VehicleType   patch.Optional[string]
	Address       patch.Optional[string]
	Status        patch.Optional[string]

	ProfileImageURL patch.Optional[string]
}

// MyRidesInput narrows the caller's assigned rides. Date selects one calendar day (UTC).
type MyRidesInput struct {
	Date   *time.Time
	Status string
	pagination.Params
}
