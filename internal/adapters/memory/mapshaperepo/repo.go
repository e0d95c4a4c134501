package mapshaperepo

import (
	"context"
	"sort"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
)

// Repo is an in-memory implementation of mapshaperepo.Repository.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.MapShapeID]domain.MapShape
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.MapShapeID]domain.MapShape)}
}

func (r *Repo) Create(ctx context.Context, m domain.MapShape) error {
	_ = ctx
	if m.ID == "" {
		return mapshaperepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; ok {
		return mapshaperepo.ErrAlreadyExists
	}
	r.byID[m.ID] = m.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, m domain.MapShape) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; !ok {
		return mapshaperepo.ErrNotFound
	}
	r.byID[m.ID] = m.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MapShapeID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return mapshaperepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MapShapeID) (domain.MapShape, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.MapShape{}, mapshaperepo.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *Repo) List(ctx context.Context, f mapshaperepo.Filter) ([]domain.MapShape, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.MapShape, 0, len(r.byID))
	for _, m := range r.byID {
		if f.Type != nil && m.Type != *f.Type {
			continue
		}
		out = append(out, m.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.MapShapeID]domain.MapShape)
}
