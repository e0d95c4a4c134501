package schedules

import "time"

type TeamInput struct {
	Name      string
	DriverID  *string
	StaffIDs  []string
	VehicleID *string
}

// RangeInput selects shifts on dates From..To inclusive. Both ends are required.
type RangeInput struct {
	From     *time.Time
	To       *time.Time
	TeamID   string
	DriverID string
}

type TeamShiftInput struct {
	TeamID string
	Date   *time.Time
	// Status defaults to ON_DUTY.
	Status    string
	VehicleID *string
}

type DriverShiftInput struct {
	DriverID string
	Date     *time.Time
	Shift    string
}
