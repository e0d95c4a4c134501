package domain

import "time"

type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusOnTrip    DriverStatus = "ON_TRIP"
	DriverStatusOffline   DriverStatus = "OFFLINE"
	DriverStatusInactive  DriverStatus = "INACTIVE"
)

func ParseDriverStatus(s string) (DriverStatus, bool) {
	st := DriverStatus(s)
	switch st {
	case DriverStatusAvailable, DriverStatusOnTrip, DriverStatusOffline, DriverStatusInactive:
		return st, true
	default:
		return "", false
	}
}

// Driver is a driver profile, optionally linked to a login account.
type Driver struct {
	ID            DriverID
	UserID        *UserID
	FullName      string
	Phone         string
	Email         *string
	LicenseNumber *string
	LicensePlate  *string
	VehicleBrand  *string
	VehicleModel  *string
	VehicleColor  *string
	VehicleType   *string
	Address       *string
	Status        DriverStatus

	ProfileImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
