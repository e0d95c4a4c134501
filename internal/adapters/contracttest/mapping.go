package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/domain"
	facilityrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/facilityrepo"
	mapshaperepoport "github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
)

type FacilityRepoFactory func(t *testing.T) (facilityrepoport.Repository, CleanupFunc)
type MapShapeRepoFactory func(t *testing.T) (mapshaperepoport.Repository, CleanupFunc)

func RunFacilityRepo(t *testing.T, newRepo FacilityRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	hospital := domain.Facility{
		ID:           "FAC-001",
		Name:         "Provincial Hospital",
		Location:     domain.Coordinates{Lat: 13.7563, Lng: 100.5018},
		FacilityType: domain.Ptr("hospital"),
		IsActive:     true,
		CreatedBy:    "USR-001",
		CreatedAt:    at(0),
		UpdatedAt:    at(0),
	}
	clinic := domain.Facility{ID: "FAC-002", Name: "Ban Nong Health Station", Location: domain.Coordinates{Lat: 13.8, Lng: 100.6}, IsActive: true, CreatedBy: "USR-001", CreatedAt: at(1), UpdatedAt: at(1)}
	for _, f := range []domain.Facility{hospital, clinic} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create %s: %v", f.ID, err)
		}
	}
	if err := repo.Create(ctx, hospital); !errors.Is(err, facilityrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate id: expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.GetByID(ctx, hospital.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(hospital, got); diff != "" {
		t.Fatalf("GetByID mismatch (-want +got):\n%s", diff)
	}
	if _, err := repo.GetByID(ctx, "FAC-404"); !errors.Is(err, facilityrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: expected ErrNotFound, got %v", err)
	}

	list, err := repo.List(ctx, facilityrepoport.Filter{})
	if err != nil || len(list) != 2 || list[0].ID != clinic.ID || list[1].ID != hospital.ID {
		t.Fatalf("List by name: %#v err=%v", list, err)
	}

	clinic.IsActive = false
	clinic.FacilityType = domain.Ptr("clinic")
	clinic.UpdatedAt = at(60)
	if err := repo.Update(ctx, clinic); err != nil {
		t.Fatalf("Update: %v", err)
	}
	list, err = repo.List(ctx, facilityrepoport.Filter{})
	if err != nil || len(list) != 1 || list[0].ID != hospital.ID {
		t.Fatalf("List active only: %#v err=%v", list, err)
	}
	list, err = repo.List(ctx, facilityrepoport.Filter{IncludeInactive: true})
	if err != nil || len(list) != 2 {
		t.Fatalf("List including inactive: %#v err=%v", list, err)
	}
	got, err = repo.GetByID(ctx, clinic.ID)
	if err != nil || got.IsActive || got.FacilityType == nil || *got.FacilityType != "clinic" || !got.UpdatedAt.Equal(at(60)) {
		t.Fatalf("GetByID after Update: %#v err=%v", got, err)
	}

	missing := clinic
	missing.ID = "FAC-404"
	if err := repo.Update(ctx, missing); !errors.Is(err, facilityrepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
}

func RunMapShapeRepo(t *testing.T, newRepo MapShapeRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	marker := domain.MapShape{
		ID:         "SHAPE-001",
		Type:       domain.MapShapeMarker,
		Name:       "Staging point",
		Points:     []domain.Coordinates{{Lat: 13.75, Lng: 100.5}},
		Properties: json.RawMessage(`{"color":"red"}`),
		CreatedBy:  "USR-001",
		CreatedAt:  at(0),
		UpdatedAt:  at(0),
	}
	zone := domain.MapShape{
		ID:          "SHAPE-002",
		Type:        domain.MapShapePolygon,
		Name:        "Flood zone",
		Description: "Closed during monsoon",
		Points:      []domain.Coordinates{{Lat: 13.7, Lng: 100.4}, {Lat: 13.8, Lng: 100.4}, {Lat: 13.8, Lng: 100.5}},
		CreatedBy:   "USR-001",
		CreatedAt:   at(10),
		UpdatedAt:   at(10),
	}
	for _, m := range []domain.MapShape{marker, zone} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.ID, err)
		}
	}
	if err := repo.Create(ctx, marker); !errors.Is(err, mapshaperepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate id: expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.GetByID(ctx, zone.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(zone, got); diff != "" {
		t.Fatalf("GetByID mismatch (-want +got):\n%s", diff)
	}
	got, err = repo.GetByID(ctx, marker.ID)
	if err != nil || len(got.Points) != 1 || string(got.Properties) != `{"color":"red"}` {
		t.Fatalf("GetByID marker: %#v err=%v", got, err)
	}

	list, err := repo.List(ctx, mapshaperepoport.Filter{})
	if err != nil || len(list) != 2 || list[0].ID != zone.ID {
		t.Fatalf("List newest first: %#v err=%v", list, err)
	}
	polygon := domain.MapShapePolygon
	list, err = repo.List(ctx, mapshaperepoport.Filter{Type: &polygon})
	if err != nil || len(list) != 1 || list[0].ID != zone.ID {
		t.Fatalf("List by type: %#v err=%v", list, err)
	}

	zone.Points = append(zone.Points, domain.Coordinates{Lat: 13.7, Lng: 100.5})
	zone.UpdatedAt = at(60)
	if err := repo.Update(ctx, zone); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByID(ctx, zone.ID)
	if err != nil || len(got.Points) != 4 || !got.UpdatedAt.Equal(at(60)) {
		t.Fatalf("GetByID after Update: %#v err=%v", got, err)
	}

	if err := repo.Delete(ctx, marker.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, marker.ID); !errors.Is(err, mapshaperepoport.ErrNotFound) {
		t.Fatalf("Delete twice: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, marker.ID); !errors.Is(err, mapshaperepoport.ErrNotFound) {
		t.Fatalf("GetByID deleted: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, marker); !errors.Is(err, mapshaperepoport.ErrNotFound) {
		t.Fatalf("Update deleted: expected ErrNotFound, got %v", err)
	}
}
