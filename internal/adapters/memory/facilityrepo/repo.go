package facilityrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
)

// Repo is an in-memory implementation of facilityrepo.Repository.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.FacilityID]domain.Facility
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.FacilityID]domain.Facility)}
}

func (r *Repo) Create(ctx context.Context, f domain.Facility) error {
	_ = ctx
	if f.ID == "" {
		return facilityrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; ok {
		return facilityrepo.ErrAlreadyExists
	}
	r.byID[f.ID] = f.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, f domain.Facility) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; !ok {
		return facilityrepo.ErrNotFound
	}
	r.byID[f.ID] = f.Clone()
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.FacilityID) (domain.Facility, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byID[id]
	if !ok {
		return domain.Facility{}, facilityrepo.ErrNotFound
	}
	return f.Clone(), nil
}

func (r *Repo) List(ctx context.Context, filter facilityrepo.Filter) ([]domain.Facility, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Facility, 0, len(r.byID))
	for _, f := range r.byID {
		if !f.IsActive && !filter.IncludeInactive {
			continue
		}
		out = append(out, f.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.FacilityID]domain.Facility)
}
