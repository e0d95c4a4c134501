package rideeventrepo

import (
	"context"
	"slices"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
)

// Repo is an in-memory implementation of rideeventrepo.Repository.
// Events are kept in append order.
type Repo struct {
	mu     sync.RWMutex
	events []domain.RideEvent
}

func NewRepo() *Repo {
	return &Repo{}
}

func (r *Repo) Append(ctx context.Context, ev domain.RideEvent) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Clone())
	return nil
}

func (r *Repo) ListByRide(ctx context.Context, id domain.RideID) ([]domain.RideEvent, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RideEvent, 0)
	for _, ev := range r.events {
		if ev.RideID == id {
			out = append(out, ev.Clone())
		}
	}
	return out, nil
}

func (r *Repo) ListRecent(ctx context.Context, f rideeventrepo.Filter) ([]domain.RideEvent, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RideEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		ev := r.events[i]
		if f.RideIDs != nil && !slices.Contains(f.RideIDs, ev.RideID) {
			continue
		}
		out = append(out, ev.Clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
