package driverrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/paging"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
)

// Repo is an in-memory implementation of driverrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.DriverID]domain.Driver
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.DriverID]domain.Driver)}
}

func (r *Repo) Create(ctx context.Context, d domain.Driver) error {
	_ = ctx
	if d.ID == "" {
		return driverrepo.ErrAlreadyExists
	}
	d = normalize(d)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; ok {
		return driverrepo.ErrAlreadyExists
	}
	if r.conflictsLocked(d) {
		return driverrepo.ErrAlreadyExists
	}
	r.byID[d.ID] = d.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, d domain.Driver) error {
	_ = ctx
	d = normalize(d)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; !ok {
		return driverrepo.ErrNotFound
	}
	if r.conflictsLocked(d) {
		return driverrepo.ErrAlreadyExists
	}
	r.byID[d.ID] = d.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.DriverID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return driverrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return domain.Driver{}, driverrepo.ErrNotFound
	}
	return d.Clone(), nil
}

func (r *Repo) GetByUserID(ctx context.Context, id domain.UserID) (domain.Driver, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byID {
		if d.UserID != nil && *d.UserID == id {
			return d.Clone(), nil
		}
	}
	return domain.Driver{}, driverrepo.ErrNotFound
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Driver, error) {
	_ = ctx
	email = domain.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byID {
		if d.Email != nil && *d.Email == email {
			return d.Clone(), nil
		}
	}
	return domain.Driver{}, driverrepo.ErrNotFound
}

func (r *Repo) List(ctx context.Context, f driverrepo.Filter) ([]domain.Driver, int, error) {
	_ = ctx
	q := strings.ToLower(strings.TrimSpace(f.Query))

	r.mu.RLock()
	out := make([]domain.Driver, 0, len(r.byID))
	for _, d := range r.byID {
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if q != "" && !matchesDriver(d, q) {
			continue
		}
		out = append(out, d.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].FullName), strings.ToLower(out[j].FullName)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return paging.Page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.DriverID]domain.Driver)
}

// conflictsLocked reports a uniqueness clash on email, license plate or linked user.
func (r *Repo) conflictsLocked(d domain.Driver) bool {
	for _, other := range r.byID {
		if other.ID == d.ID {
			continue
		}
		if d.Email != nil && other.Email != nil && *d.Email == *other.Email {
			return true
		}
		if d.LicensePlate != nil && other.LicensePlate != nil && *d.LicensePlate == *other.LicensePlate {
			return true
		}
		if d.UserID != nil && other.UserID != nil && *d.UserID == *other.UserID {
			return true
		}
	}
	return false
}

func normalize(d domain.Driver) domain.Driver {
	if d.Email != nil {
		e := domain.NormalizeEmail(*d.Email)
		d.Email = &e
	}
	return d
}

func matchesDriver(d domain.Driver, q string) bool {
	if strings.Contains(strings.ToLower(d.FullName), q) || strings.Contains(d.Phone, q) {
		return true
	}
	return d.LicensePlate != nil && strings.Contains(strings.ToLower(*d.LicensePlate), q)
}
