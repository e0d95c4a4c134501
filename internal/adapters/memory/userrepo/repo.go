package userrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/paging"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.UserID]domain.User
	idByEmail map[string]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.UserID]domain.User),
		idByEmail: make(map[string]domain.UserID),
	}
}

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	_ = ctx
	if u.ID == "" {
		return userrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	email := domain.NormalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return userrepo.ErrAlreadyExists
	}
	if _, ok := r.idByEmail[email]; ok {
		return userrepo.ErrEmailTaken
	}
	u.Email = email
	r.byID[u.ID] = u.Clone()
	r.idByEmail[email] = u.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	_ = ctx
	email := domain.NormalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[u.ID]
	if !ok {
		return userrepo.ErrNotFound
	}
	if owner, ok := r.idByEmail[email]; ok && owner != u.ID {
		return userrepo.ErrEmailTaken
	}
	delete(r.idByEmail, existing.Email)
	u.Email = email
	r.byID[u.ID] = u.Clone()
	r.idByEmail[email] = u.ID
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.UserID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[id]
	if !ok {
		return userrepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.idByEmail, existing.Email)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *Repo) List(ctx context.Context, f userrepo.Filter) ([]domain.User, int, error) {
	_ = ctx
	q := strings.ToLower(strings.TrimSpace(f.Query))

	r.mu.RLock()
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.FullName), q) && !strings.Contains(u.Email, q) {
			continue
		}
		out = append(out, u.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paging.Page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.UserID]domain.User)
	r.idByEmail = make(map[string]domain.UserID)
}
