package vehiclerepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

// Repo is an in-memory implementation of vehiclerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu       sync.RWMutex
	vehicles map[domain.VehicleID]domain.Vehicle
	types    map[domain.VehicleTypeID]domain.VehicleType
}

func NewRepo() *Repo {
	return &Repo{
		vehicles: make(map[domain.VehicleID]domain.Vehicle),
		types:    make(map[domain.VehicleTypeID]domain.VehicleType),
	}
}

func (r *Repo) CreateVehicle(ctx context.Context, v domain.Vehicle) error {
	_ = ctx
	if v.ID == "" {
		return vehiclerepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.ID]; ok || r.plateTakenLocked(v) {
		return vehiclerepo.ErrAlreadyExists
	}
	r.vehicles[v.ID] = v.Clone()
	return nil
}

func (r *Repo) UpdateVehicle(ctx context.Context, v domain.Vehicle) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.ID]; !ok {
		return vehiclerepo.ErrNotFound
	}
	if r.plateTakenLocked(v) {
		return vehiclerepo.ErrAlreadyExists
	}
	r.vehicles[v.ID] = v.Clone()
	return nil
}

func (r *Repo) DeleteVehicle(ctx context.Context, id domain.VehicleID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok {
		return vehiclerepo.ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

func (r *Repo) GetVehicle(ctx context.Context, id domain.VehicleID) (domain.Vehicle, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return domain.Vehicle{}, vehiclerepo.ErrNotFound
	}
	return v.Clone(), nil
}

func (r *Repo) ListVehicles(ctx context.Context, f vehiclerepo.Filter) ([]domain.Vehicle, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		if f.Status != nil && v.Status != *f.Status {
			continue
		}
		if f.TypeID != nil && (v.TypeID == nil || *v.TypeID != *f.TypeID) {
			continue
		}
		out = append(out, v.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) CreateType(ctx context.Context, t domain.VehicleType) error {
	_ = ctx
	if t.ID == "" {
		return vehiclerepo.ErrTypeAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.ID]; ok || r.typeNameTakenLocked(t) {
		return vehiclerepo.ErrTypeAlreadyExists
	}
	r.types[t.ID] = t.Clone()
	return nil
}

func (r *Repo) UpdateType(ctx context.Context, t domain.VehicleType) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.ID]; !ok {
		return vehiclerepo.ErrTypeNotFound
	}
	if r.typeNameTakenLocked(t) {
		return vehiclerepo.ErrTypeAlreadyExists
	}
	r.types[t.ID] = t.Clone()
	return nil
}

func (r *Repo) DeleteType(ctx context.Context, id domain.VehicleTypeID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return vehiclerepo.ErrTypeNotFound
	}
	delete(r.types, id)
	return nil
}

func (r *Repo) GetType(ctx context.Context, id domain.VehicleTypeID) (domain.VehicleType, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	if !ok {
		return domain.VehicleType{}, vehiclerepo.ErrTypeNotFound
	}
	return t.Clone(), nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.VehicleType, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]domain.VehicleType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles = make(map[domain.VehicleID]domain.Vehicle)
	r.types = make(map[domain.VehicleTypeID]domain.VehicleType)
}

func (r *Repo) plateTakenLocked(v domain.Vehicle) bool {
	for _, other := range r.vehicles {
		if other.ID != v.ID && strings.EqualFold(other.LicensePlate, v.LicensePlate) {
			return true
		}
	}
	return false
}

func (r *Repo) typeNameTakenLocked(t domain.VehicleType) bool {
	for _, other := range r.types {
		if other.ID != t.ID && strings.EqualFold(other.Name, t.Name) {
			return true
		}
	}
	return false
}
