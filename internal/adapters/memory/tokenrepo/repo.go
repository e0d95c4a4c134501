package tokenrepo

import (
	"context"
	"sync"
	"time"
)

// Repo is an in-memory token blacklist.
type Repo struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewRepo() *Repo {
	return &Repo{revoked: make(map[string]time.Time)}
}

func (r *Repo) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *Repo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *Repo) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = make(map[string]time.Time)
}
