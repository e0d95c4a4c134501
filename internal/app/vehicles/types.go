package vehicles

import (
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/patch"
)

type ListInput struct {
	Status string
	TypeID string
}

type VehicleInput struct {
	LicensePlate        string
	Brand               *string
	Model               *string
	TypeID              *string
	Capacity            int
	Status              string
	AssignedTeamID      *string
	NextMaintenanceDate *time.Time
}

type VehicleUpdate struct {
	LicensePlate        patch.Optional[string]
	Brand               patch.Optional[string]
	Model               patch.Optional[string]
	TypeID              patch.Optional[string]
	Capacity            patch.Optional[int]
	Status              patch.Optional[string]
	AssignedTeamID      patch.Optional[string]
	NextMaintenanceDate patch.Optional[time.Time]
}

type TypeInput struct {
	Name        string
	Capacity    int
	Description *string
}
