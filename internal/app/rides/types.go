package rides

import (
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type ListInput struct {
	// Status is one status or a comma separated list.
	Status   string
	DriverID string
	pagination.Params
}

type CreateInput struct {
	PatientID       *string
	PatientName     string
	PatientPhone    *string
	PickupLocation  string
	PickupLat       *float64
	PickupLng       *float64
	Village         *string
	Landmark        *string
	Destination     string
	AppointmentTime string // RFC3339
	SpecialNeeds    []string
	CaregiverCount  int
	ContactPhone    *string
	TripType        *string
	Notes           *string
}

// UpdateInput is a partial update. DriverID and Status route through assignment and the status machine.
type UpdateInput struct {
	PatientName       patch.Optional[string]
	PatientPhone      patch.Optional[string]
	PickupLocation    patch.Optional[string]
	PickupCoordinates patch.Optional[domain.Coordinates]
	Village           patch.Optional[string]
	Landmark          patch.Optional[string]
	Destination       patch.Optional[string]
	AppointmentTime   patch.Optional[string]
	SpecialNeeds      patch.Optional[[]string]
	CaregiverCount    patch.Optional[int]
	ContactPhone      patch.Optional[string]
	TripType          patch.Optional[string]
	Notes             patch.Optional[string]

	DriverID patch.Optional[string]
	Status   patch.Optional[string]
}

func (in UpdateInput) hasFieldEdits() bool {
	return in.PatientName.IsSpecified() ||
		in.PatientPhone.IsSpecified() ||
		in.PickupLocation.IsSpecified() ||
		in.PickupCoordinates.IsSpecified() ||
		in.Village.IsSpecified() ||
		in.Landmark.IsSpecified() ||
		in.Destination.IsSpecified() ||
		in.AppointmentTime.IsSpecified() ||
		in.SpecialNeeds.IsSpecified() ||
		in.CaregiverCount.IsSpecified() ||
		in.ContactPhone.IsSpecified() ||
		in.TripType.IsSpecified() ||
		in.Notes.IsSpecified()
}

type RateInput struct {
	Rating  int
	Tags    []string
	Comment string
}
