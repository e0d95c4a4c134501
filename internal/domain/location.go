package domain

import (
	"encoding/json"
	"time"
)

type DriverLocation struct {
	DriverID  DriverID
	Latitude  float64
	Longitude float64
	Heading   *float64
	Speed     *float64
	Accuracy  *float64
	UpdatedAt time.Time
}

// ValidCoordinates reports whether lat/lng are inside WGS84 bounds.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

type RideEventType string

const (
	RideEventCreated       RideEventType = "RIDE_CREATED"
	RideEventAssigned      RideEventType = "DRIVER_ASSIGNED"
	RideEventStatusChanged RideEventType = "STATUS_CHANGED"
	RideEventCancelled     RideEventType = "RIDE_CANCELLED"
	RideEventRated         RideEventType = "RIDE_RATED"
)

type RideEvent struct {
	ID         EventID
	RideID     RideID
	Type       RideEventType
	FromStatus *RideStatus
	ToStatus   *RideStatus
	DriverID   *DriverID
	ActorID    UserID
	ActorRole  Role
	Payload    json.RawMessage
	CreatedAt  time.Time
}
