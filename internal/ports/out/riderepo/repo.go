package riderepo

import (
	"context"
	"errors"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("ride not found")
	ErrAlreadyExists = errors.New("ride already exists")

	// ErrDriverConflict indicates the driver already has an active ride inside the conflict window.
	ErrDriverConflict = errors.New("driver has a conflicting ride")

	// ErrNotAssignable indicates the ride is past the point where a driver can be (re)assigned.
	ErrNotAssignable = errors.New("ride cannot be assigned")

	// ErrStale indicates the stored ride changed after the caller read it.
	ErrStale = errors.New("ride was modified concurrently")
)

type Filter struct {
	Statuses     []domain.RideStatus
	DriverID     *domain.DriverID
	CreatedBy    *domain.UserID
	PatientID    *domain.PatientID
	From         *time.Time // appointment_time >= From
	To           *time.Time // appointment_time < To
	CreatedAfter *time.Time

	Limit  int
	Offset int
}

// Assignment is the input to the atomic driver assignment.
type Assignment struct {
	RideID     domain.RideID
	DriverID   domain.DriverID
	DriverName string
	// Window is the minimum distance between appointment times of two active rides of one driver.
	Window time.Duration
	At     time.Time
}

// Change is a conditional write of a whole ride.
type Change struct {
	Ride domain.Ride
	// PrevStatus and PrevUpdatedAt identify the stored version Ride was derived from.
	PrevStatus    domain.RideStatus
	PrevUpdatedAt time.Time
	// Window, when positive, re-checks an active assigned Ride against the driver's other
	// active rides, as AssignDriver does.
	Window time.Duration
}

// Repository provides access to persisted rides. List orders by appointment time, newest first.
type Repository interface {
	Create(ctx context.Context, r domain.Ride) error
	Update(ctx context.Context, r domain.Ride) error
	Delete(ctx context.Context, id domain.RideID) error
	GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error)
	List(ctx context.Context, f Filter) ([]domain.Ride, int, error)

	// Save writes c.Ride only while the stored ride still has c.PrevStatus and
	// c.PrevUpdatedAt; otherwise it fails with ErrStale. The check and write are one step.
	Save(ctx context.Context, c Change) error

	// AssignDriver sets the driver and moves the ride to ASSIGNED in one atomic step.
	// Only PENDING and ASSIGNED rides qualify; others fail with ErrNotAssignable.
	// It fails with ErrDriverConflict when another active ride of the same driver has
	// |appointmentTime - ride.appointmentTime| < Window.
	AssignDriver(ctx context.Context, a Assignment) (domain.Ride, error)
}
