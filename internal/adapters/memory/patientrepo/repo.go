package patientrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/paging"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
)

// Repo is an in-memory implementation of patientrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.PatientID]domain.Patient
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.PatientID]domain.Patient)}
}

func (r *Repo) Create(ctx context.Context, p domain.Patient) error {
	_ = ctx
	if p.ID == "" {
		return patientrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return patientrepo.ErrAlreadyExists
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.Patient) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return patientrepo.ErrNotFound
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PatientID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return patientrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.PatientID) (domain.Patient, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Patient{}, patientrepo.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *Repo) List(ctx context.Context, f patientrepo.Filter) ([]domain.Patient, int, error) {
	_ = ctx
	q := strings.ToLower(strings.TrimSpace(f.Query))

	r.mu.RLock()
	out := make([]domain.Patient, 0, len(r.byID))
	for _, p := range r.byID {
		if f.CreatedBy != nil && p.CreatedBy != *f.CreatedBy {
			continue
		}
		if f.CreatedAfter != nil && !p.CreatedAt.After(*f.CreatedAfter) {
			continue
		}
		if q != "" && !matchesPatient(p, q) {
			continue
		}
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paging.Page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[domain.PatientID]domain.Patient)
}

func matchesPatient(p domain.Patient, q string) bool {
	if strings.Contains(strings.ToLower(p.FullName), q) {
		return true
	}
	return p.NationalID != nil && strings.Contains(strings.ToLower(*p.NationalID), q)
}
