package domain

import "time"

type RideStatus string

const (
	RideStatusPending         RideStatus = "PENDING"
	RideStatusAssigned        RideStatus = "ASSIGNED"
	RideStatusEnRouteToPickup RideStatus = "EN_ROUTE_TO_PICKUP"
	RideStatusArrivedAtPickup RideStatus = "ARRIVED_AT_PICKUP"
	RideStatusInProgress      RideStatus = "IN_PROGRESS"
	RideStatusCompleted       RideStatus = "COMPLETED"
	RideStatusCancelled       RideStatus = "CANCELLED"
)

var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusPending:         {RideStatusAssigned, RideStatusCancelled},
	RideStatusAssigned:        {RideStatusPending, RideStatusEnRouteToPickup, RideStatusInProgress, RideStatusCancelled},
	RideStatusEnRouteToPickup: {RideStatusArrivedAtPickup, RideStatusInProgress, RideStatusCancelled},
	RideStatusArrivedAtPickup: {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress:      {RideStatusCompleted, RideStatusCancelled},
}

// ParseRideStatus accepts any known status spelling (case-insensitive input is upper-cased by callers).
func ParseRideStatus(s string) (RideStatus, bool) {
	st := RideStatus(s)
	switch st {
	case RideStatusPending, RideStatusAssigned, RideStatusEnRouteToPickup, RideStatusArrivedAtPickup,
		RideStatusInProgress, RideStatusCompleted, RideStatusCancelled:
		return st, true
	default:
		return "", false
	}
}

// IsActive is true for every non-terminal status.
func (s RideStatus) IsActive() bool {
	return s != RideStatusCompleted && s != RideStatusCancelled
}

// Assignable is true while a driver may still be assigned or swapped.
func (s RideStatus) Assignable() bool {
	return s == RideStatusPending || s == RideStatusAssigned
}

// CanTransition reports whether a ride may move from -> to. Same-status writes are not transitions.
func CanTransition(from, to RideStatus) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Lat float64
	Lng float64
}

type Ride struct {
	ID                RideID
	PatientID         *PatientID
	PatientName       string
	PatientPhone      *string
	PickupLocation    string
	PickupCoordinates *Coordinates
	Village           *string
	Landmark          *string
	Destination       string
	AppointmentTime   time.Time
	Status            RideStatus
	SpecialNeeds      []string
	CaregiverCount    int
	ContactPhone      *string
	TripType          *string
	Notes             *string

	DriverID   *DriverID
	DriverName *string

	Rating        *int
	ReviewTags    []string
	ReviewComment *string

	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}
