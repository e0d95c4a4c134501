package domain

import "time"

// Facility is a fixed destination such as a hospital or health station.
// Deleting a facility only clears IsActive.
type Facility struct {
	ID           FacilityID
	Name         string
	Location     Coordinates
	FacilityType *string
	IsActive     bool

	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}
