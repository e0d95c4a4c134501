package auditrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory/paging"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
)

// Repo is an in-memory implementation of auditrepo.Repository.
// Entries are kept in sequence order.
type Repo struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
	seqs map[int64]struct{}
}

func NewRepo() *Repo {
	return &Repo{seqs: make(map[int64]struct{})}
}

func (r *Repo) Append(ctx context.Context, l domain.AuditLog) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seqs[l.SequenceNumber]; ok {
		return auditrepo.ErrAlreadyExists
	}
	r.seqs[l.SequenceNumber] = struct{}{}
	r.logs = append(r.logs, l.Clone())
	sort.SliceStable(r.logs, func(i, j int) bool { return r.logs[i].SequenceNumber < r.logs[j].SequenceNumber })
	return nil
}

func (r *Repo) Last(ctx context.Context) (domain.AuditLog, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.logs) == 0 {
		return domain.AuditLog{}, auditrepo.ErrNotFound
	}
	return r.logs[len(r.logs)-1].Clone(), nil
}

func (r *Repo) List(ctx context.Context, f auditrepo.Filter) ([]domain.AuditLog, int, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.AuditLog, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.UserEmail != "" && l.UserEmail != f.UserEmail {
			continue
		}
		if f.TargetID != "" && (l.TargetID == nil || *l.TargetID != f.TargetID) {
			continue
		}
		out = append(out, l.Clone())
	}
	r.mu.RUnlock()
	return paging.Page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Repo) All(ctx context.Context) ([]domain.AuditLog, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AuditLog, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *Repo) ReplaceAll(ctx context.Context, logs []domain.AuditLog) error {
	_ = ctx
	next := make([]domain.AuditLog, 0, len(logs))
	seqs := make(map[int64]struct{}, len(logs))
	for _, l := range logs {
		if _, ok := seqs[l.SequenceNumber]; ok {
			return auditrepo.ErrAlreadyExists
		}
		seqs[l.SequenceNumber] = struct{}{}
		next = append(next, l.Clone())
	}
	sort.SliceStable(next, func(i, j int) bool { return next[i].SequenceNumber < next[j].SequenceNumber })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = next
	r.seqs = seqs
	return nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = nil
	r.seqs = make(map[int64]struct{})
}

// Tamper overwrites a stored entry in place. Tests use it to simulate corruption.
func (r *Repo) Tamper(seq int64, mutate func(*domain.AuditLog)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].SequenceNumber == seq {
			mutate(&r.logs[i])
			return true
		}
	}
	return false
}
