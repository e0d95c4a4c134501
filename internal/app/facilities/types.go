package facilities

import "github.com/wecare-ems/wecare-api/internal/app/patch"

type ListInput struct {
	// IncludeInactive is only honoured for staff callers.
	IncludeInactive bool
}

type CreateInput struct {
	Name         string
	Lat          *float64
	Lng          *float64
	FacilityType *string
	IsActive     *bool
}

type UpdateInput struct {
	Name         patch.Optional[string]
	Lat          patch.Optional[float64]
	Lng          patch.Optional[float64]
	FacilityType patch.Optional[string]
	IsActive     patch.Optional[bool]
}
