package patients

import (
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type ListInput struct {
	Query string
	pagination.Params
}

type CreateInput struct {
	FullName        string
	Title           *string
	NationalID      *string
	DOB             *time.Time
	Age             *int
	Gender          *string
	BloodType       *string
	RhFactor        *string
	HealthCoverage  *string
	ContactPhone    *string
	IDCardAddress   domain.Address
	CurrentAddress  domain.Address
	Landmark        *string
	Latitude        *float64
	Longitude       *float64
	PatientTypes    []string
	ChronicDiseases []string
	Allergies       []string
	ProfileImageURL *string
}

// UpdateInput is a partial update. Unspecified fields are left unchanged; null clears.
type UpdateInput struct {
	FullName        patch.Optional[string]
	Title           patch.Optional[string]
	NationalID      patch.Optional[string]
	DOB             patch.Optional[time.Time]
	Age             patch.Optional[int]
	Gender          patch.Optional[string]
	BloodType       patch.Optional[string]
	RhFactor        patch.Optional[string]
	HealthCoverage  patch.Optional[string]
	ContactPhone    patch.Optional[string]
	IDCardAddress   patch.Optional[domain.Address]
	CurrentAddress  patch.Optional[domain.Address]
	Landmark        patch.Optional[string]
	Latitude        patch.Optional[float64]
	Longitude       patch.Optional[float64]
	PatientTypes    patch.Optional[[]string]
	ChronicDiseases patch.Optional[[]string]
	Allergies       patch.Optional[[]string]
	ProfileImageURL patch.Optional[string]
}
