package riderepo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/paging"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

// Repo is an in-memory implementation of riderepo.Repository.
// It is safe for concurrent use; Save and AssignDriver run their checks and write under one lock.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.RideID]domain.Ride
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.RideID]domain.Ride)}
}

func (r *Repo) Create(ctx context.Context, ride domain.Ride) error {
	_ = ctx
	if ride.ID == "" {
		return riderepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ride.ID]; ok {
		return riderepo.ErrAlreadyExists
	}
	r.byID[ride.ID] = ride.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, ride domain.Ride) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ride.ID]; !ok {
		return riderepo.ErrNotFound
	}
	r.byID[ride.ID] = ride.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.RideID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return riderepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ride, ok := r.byID[id]
	if !ok {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	return ride.Clone(), nil
}

func (r *Repo) List(ctx context.Context, f riderepo.Filter) ([]domain.Ride, int, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Ride, 0, len(r.byID))
	for _, ride := range r.byID {
		if matches(ride, f) {
			out = append(out, ride.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentTime.Equal(out[j].AppointmentTime) {
			return out[i].AppointmentTime.After(out[j].AppointmentTime)
		}
		return out[i].ID > out[j].ID
	})
	return paging.Page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Repo) Save(ctx context.Context, c riderepo.Change) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[c.Ride.ID]
	if !ok {
		return riderepo.ErrNotFound
	}
	if cur.Status != c.PrevStatus || !cur.UpdatedAt.Equal(c.PrevUpdatedAt) {
		return riderepo.ErrStale
	}
	if c.Window > 0 && c.Ride.DriverID != nil && c.Ride.Status.IsActive() && r.conflictLocked(c.Ride, *c.Ride.DriverID, c.Window) {
		return riderepo.ErrDriverConflict
	}
	r.byID[c.Ride.ID] = c.Ride.Clone()
	return nil
}

func (r *Repo) AssignDriver(ctx context.Context, a riderepo.Assignment) (domain.Ride, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.byID[a.RideID]
	if !ok {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	if !ride.Status.Assignable() {
		return domain.Ride{}, riderepo.ErrNotAssignable
	}
	if r.conflictLocked(ride, a.DriverID, a.Window) {
		return domain.Ride{}, riderepo.ErrDriverConflict
	}

	driverID := a.DriverID
	name := a.DriverName
	ride.DriverID = &driverID
	ride.DriverName = &name
	ride.Status = domain.RideStatusAssigned
	ride.UpdatedAt = a.At
	r.byID[ride.ID] = ride.Clone()
	return ride.Clone(), nil
}

// conflictLocked reports whether driver has another active ride within window of ride.
func (r *Repo) conflictLocked(ride domain.Ride, driver domain.DriverID, window time.Duration) bool {
	for _, other := range r.byID {
		if other.ID == ride.ID || other.DriverID == nil || *other.DriverID != driver || !other.Status.IsActive() {
			continue
		}
		if other.AppointmentTime.Sub(ride.AppointmentTime).Abs() < window {
			return true
		}
	}
	return false
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.RideID]domain.Ride)
}

func matches(ride domain.Ride, f riderepo.Filter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, ride.Status) {
		return false
	}
	if f.DriverID != nil && (ride.DriverID == nil || *ride.DriverID != *f.DriverID) {
		return false
	}
	if f.CreatedBy != nil && ride.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.PatientID != nil && (ride.PatientID == nil || *ride.PatientID != *f.PatientID) {
		return false
	}
	if f.From != nil && ride.AppointmentTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !ride.AppointmentTime.Before(*f.To) {
		return false
	}
	if f.CreatedAfter != nil && !ride.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	return true
}
