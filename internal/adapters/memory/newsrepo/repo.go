package newsrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/newsrepo"
)

// Repo is an in-memory implementation of newsrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.NewsID]domain.NewsArticle
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.NewsID]domain.NewsArticle)}
}

func (r *Repo) Create(ctx context.Context, n domain.NewsArticle) error {
	_ = ctx
	if n.ID == "" {
		return newsrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; ok {
		return newsrepo.ErrAlreadyExists
	}
	r.byID[n.ID] = n.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, n domain.NewsArticle) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; !ok {
		return newsrepo.ErrNotFound
	}
	r.byID[n.ID] = n.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.NewsID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return newsrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.NewsID) (domain.NewsArticle, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return domain.NewsArticle{}, newsrepo.ErrNotFound
	}
	return n.Clone(), nil
}

func (r *Repo) List(ctx context.Context, status *domain.NewsStatus) ([]domain.NewsArticle, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.NewsArticle, 0, len(r.byID))
	for _, n := range r.byID {
		if status != nil && n.Status != *status {
			continue
		}
		out = append(out, n.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		ti, tj := sortTime(out[i]), sortTime(out[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.NewsID]domain.NewsArticle)
}

func sortTime(n domain.NewsArticle) time.Time {
	if n.PublishedDate != nil {
		return *n.PublishedDate
	}
	return n.CreatedAt
}
