package settingsrepo

import (
	"context"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
)

// Repo is an in-memory implementation of settingsrepo.Repository.
type Repo struct {
	mu  sync.RWMutex
	cur *domain.Settings
}

func NewRepo() *Repo {
	return &Repo{}
}

func (r *Repo) Get(ctx context.Context) (domain.Settings, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cur == nil {
		return domain.Settings{}, settingsrepo.ErrNotFound
	}
	return *r.cur, nil
}

func (r *Repo) Put(ctx context.Context, s domain.Settings) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur = &s
	return nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur = nil
}
