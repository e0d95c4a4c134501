package shiftrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/shiftrepo"
)

type teamKey struct {
	team domain.TeamID
	date time.Time
}

type driverKey struct {
	driver domain.DriverID
	date   time.Time
}

// Repo is an in-memory implementation of shiftrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu      sync.RWMutex
	teams   map[teamKey]domain.TeamShift
	drivers map[driverKey]domain.DriverShift
}

func NewRepo() *Repo {
	return &Repo{
		teams:   make(map[teamKey]domain.TeamShift),
		drivers: make(map[driverKey]domain.DriverShift),
	}
}

func (r *Repo) UpsertTeamShift(ctx context.Context, s domain.TeamShift) (domain.TeamShift, error) {
	_ = ctx
	s.Date = domain.DateOnly(s.Date)
	k := teamKey{team: s.TeamID, date: s.Date}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.teams[k]; ok {
		s.ID = existing.ID
	}
	r.teams[k] = s.Clone()
	return s.Clone(), nil
}

func (r *Repo) DeleteTeamShift(ctx context.Context, id domain.ShiftID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.teams {
		if s.ID == id {
			delete(r.teams, k)
			return nil
		}
	}
	return shiftrepo.ErrNotFound
}

func (r *Repo) ListTeamShifts(ctx context.Context, rg shiftrepo.Range, teamID *domain.TeamID) ([]domain.TeamShift, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.TeamShift, 0)
	for _, s := range r.teams {
		if s.Date.Before(rg.From) || !s.Date.Before(rg.To) {
			continue
		}
		if teamID != nil && s.TeamID != *teamID {
			continue
		}
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out, nil
}

func (r *Repo) UpsertDriverShift(ctx context.Context, s domain.DriverShift) (domain.DriverShift, error) {
	_ = ctx
	s.Date = domain.DateOnly(s.Date)
	k := driverKey{driver: s.DriverID, date: s.Date}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.drivers[k]; ok {
		s.ID = existing.ID
	}
	r.drivers[k] = s
	return s, nil
}

func (r *Repo) DeleteDriverShift(ctx context.Context, id domain.ShiftID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.drivers {
		if s.ID == id {
			delete(r.drivers, k)
			return nil
		}
	}
	return shiftrepo.ErrNotFound
}

func (r *Repo) ListDriverShifts(ctx context.Context, rg shiftrepo.Range, driverID *domain.DriverID) ([]domain.DriverShift, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.DriverShift, 0)
	for _, s := range r.drivers {
		if s.Date.Before(rg.From) || !s.Date.Before(rg.To) {
			continue
		}
		if driverID != nil && s.DriverID != *driverID {
			continue
		}
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams = make(map[teamKey]domain.TeamShift)
	r.drivers = make(map[driverKey]domain.DriverShift)
}
