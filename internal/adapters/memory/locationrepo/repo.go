package locationrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
)

// Repo is an in-memory implementation of locationrepo.Repository.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.DriverID]domain.DriverLocation
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.DriverID]domain.DriverLocation)}
}

func (r *Repo) Upsert(ctx context.Context, l domain.DriverLocation) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.DriverID] = l.Clone()
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.DriverID) (domain.DriverLocation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	if !ok {
		return domain.DriverLocation{}, locationrepo.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.DriverLocation, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.DriverLocation, 0, len(r.byID))
	for _, l := range r.byID {
		out = append(out, l.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.DriverID]domain.DriverLocation)
}
