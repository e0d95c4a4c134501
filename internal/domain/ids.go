package domain

import "fmt"

// SubjectID is the authenticated principal extracted from token claims ("sub").
// For tokens issued by this service it equals the UserID.
type SubjectID string

type (
	UserID        string
	PatientID     string
	RideID        string
	DriverID      string
	VehicleID     string
	VehicleTypeID string
	TeamID        string
	ShiftID       string
	NewsID        string
	EventID       string
	FacilityID    string
	MapShapeID    string
)

// ID prefixes used with FormatID.
const (
	PrefixUser        = "USR"
	PrefixPatient     = "PAT"
	PrefixRide        = "RIDE"
	PrefixDriver      = "DRV"
	PrefixVehicle     = "VEH"
	PrefixVehicleType = "VT"
	PrefixTeam        = "TEAM"
	PrefixTeamShift   = "TS"
	PrefixDriverShift = "DS"
	PrefixNews        = "NEWS"
	PrefixEvent       = "EVT"
	PrefixFacility    = "FAC"
	PrefixMapShape    = "SHAPE"
)

// FormatID renders a sequential identifier such as RIDE-001.
func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
