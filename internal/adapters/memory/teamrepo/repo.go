package teamrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/teamrepo"
)

// Repo is an in-memory implementation of teamrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TeamID]domain.Team
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.TeamID]domain.Team)}
}

func (r *Repo) Create(ctx context.Context, t domain.Team) error {
	_ = ctx
	if t.ID == "" {
		return teamrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return teamrepo.ErrAlreadyExists
	}
	r.byID[t.ID] = t.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, t domain.Team) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; !ok {
		return teamrepo.ErrNotFound
	}
	r.byID[t.ID] = t.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TeamID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return teamrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return domain.Team{}, teamrepo.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Team, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Team, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.TeamID]domain.Team)
}
