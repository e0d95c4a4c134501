package domain

import "time"

type ShiftType string

const (
	ShiftMorning   ShiftType = "MORNING"
	ShiftAfternoon ShiftType = "AFTERNOON"
	ShiftNight     ShiftType = "NIGHT"
	ShiftDayOff    ShiftType = "DAY_OFF"
	ShiftOnLeave   ShiftType = "ON_LEAVE"
)

func ParseShiftType(s string) (ShiftType, bool) {
	st := ShiftType(s)
	switch st {
	case ShiftMorning, ShiftAfternoon, ShiftNight, ShiftDayOff, ShiftOnLeave:
		return st, true
	default:
		return "", false
	}
}

type TeamShiftStatus string

const (
	TeamShiftOnDuty  TeamShiftStatus = "ON_DUTY"
	TeamShiftRestDay TeamShiftStatus = "REST_DAY"
)

type Team struct {
	ID        TeamID
	Name      string
	DriverID  *DriverID
	StaffIDs  []UserID
	VehicleID *VehicleID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamShift is one schedule cell: a team on a date. Unique per (TeamID, Date).
type TeamShift struct {
	ID        ShiftID
	TeamID    TeamID
	Date      time.Time // date-only, UTC midnight
	Status    TeamShiftStatus
	VehicleID *VehicleID
	UpdatedAt time.Time
}

// DriverShift is unique per (DriverID, Date).
type DriverShift struct {
	ID        ShiftID
	DriverID  DriverID
	Date      time.Time // date-only, UTC midnight
	Shift     ShiftType
	UpdatedAt time.Time
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
