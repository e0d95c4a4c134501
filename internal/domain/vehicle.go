package domain

import "time"

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusAssigned    VehicleStatus = "ASSIGNED"
)

func ParseVehicleStatus(s string) (VehicleStatus, bool) {
	st := VehicleStatus(s)
	switch st {
	case VehicleStatusAvailable, VehicleStatusMaintenance, VehicleStatusAssigned:
		return st, true
	default:
		return "", false
	}
}

type Vehicle struct {
	ID                  VehicleID
	LicensePlate        string
	Brand               *string
	Model               *string
	TypeID              *VehicleTypeID
	Capacity            int
	Status              VehicleStatus
	AssignedTeamID      *TeamID
	NextMaintenanceDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type VehicleType struct {
	ID          VehicleTypeID
	Name        string
	Capacity    int
	Description *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
