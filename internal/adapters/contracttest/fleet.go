package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/wecare-ems/wecare-api/internal/domain"
	locationrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/locationrepo"
	shiftrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/shiftrepo"
	teamrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/teamrepo"
	vehiclerepoport "github.com/wecare-ems/wecare-api/internal/ports/out/vehiclerepo"
)

type VehicleRepoFactory func(t *testing.T) (vehiclerepoport.Repository, CleanupFunc)
type TeamRepoFactory func(t *testing.T) (teamrepoport.Repository, CleanupFunc)
type ShiftRepoFactory func(t *testing.T) (shiftrepoport.Repository, CleanupFunc)
type LocationRepoFactory func(t *testing.T) (locationrepoport.Repository, CleanupFunc)

func RunVehicleRepo(t *testing.T, newRepo VehicleRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	vt := domain.VehicleType{ID: "VT-001", Name: "Van", Capacity: 8, Description: domain.Ptr("Passenger van"), CreatedAt: at(0), UpdatedAt: at(0)}
	if err := repo.CreateType(ctx, vt); err != nil {
		t.Fatalf("CreateType: %v", err)
	}
	dupName := vt
	dupName.ID = "VT-002"
	dupName.Name = "VAN"
	if err := repo.CreateType(ctx, dupName); !errors.Is(err, vehiclerepoport.ErrTypeAlreadyExists) {
		t.Fatalf("type name clash: expected ErrTypeAlreadyExists, got %v", err)
	}
	if _, err := repo.GetType(ctx, "VT-404"); !errors.Is(err, vehiclerepoport.ErrTypeNotFound) {
		t.Fatalf("GetType missing: expected ErrTypeNotFound, got %v", err)
	}
	vt.Capacity = 10
	if err := repo.UpdateType(ctx, vt); err != nil {
		t.Fatalf("UpdateType: %v", err)
	}
	types, err := repo.ListTypes(ctx)
	if err != nil || len(types) != 1 || types[0].Capacity != 10 || types[0].Description == nil {
		t.Fatalf("ListTypes: %#v err=%v", types, err)
	}

	typeID := vt.ID
	next := domain.DateOnly(at(30 * 24 * 3600))
	v1 := domain.Vehicle{
		ID:                  "VEH-001",
		LicensePlate:        "กข-1234",
		Brand:               domain.Ptr("Toyota"),
		TypeID:              &typeID,
		Capacity:            8,
		Status:              domain.VehicleStatusAvailable,
		NextMaintenanceDate: &next,
		CreatedAt:           at(0),
		UpdatedAt:           at(0),
	}
	v2 := domain.Vehicle{ID: "VEH-002", LicensePlate: "AB-9999", Capacity: 4, Status: domain.VehicleStatusMaintenance, CreatedAt: at(1), UpdatedAt: at(1)}
	for _, v := range []domain.Vehicle{v1, v2} {
		if err := repo.CreateVehicle(ctx, v); err != nil {
			t.Fatalf("CreateVehicle %s: %v", v.ID, err)
		}
	}
	clash := v2
	clash.ID = "VEH-003"
	clash.LicensePlate = "ab-9999"
	if err := repo.CreateVehicle(ctx, clash); !errors.Is(err, vehiclerepoport.ErrAlreadyExists) {
		t.Fatalf("plate clash: expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.GetVehicle(ctx, v1.ID)
	if err != nil || got.NextMaintenanceDate == nil || !got.NextMaintenanceDate.Equal(next) || got.Model != nil {
		t.Fatalf("GetVehicle: %#v err=%v", got, err)
	}

	list, err := repo.ListVehicles(ctx, vehiclerepoport.Filter{})
	if err != nil || len(list) != 2 || list[0].ID != v1.ID {
		t.Fatalf("ListVehicles: %#v err=%v", list, err)
	}
	status := domain.VehicleStatusMaintenance
	list, err = repo.ListVehicles(ctx, vehiclerepoport.Filter{Status: &status})
	if err != nil || len(list) != 1 || list[0].ID != v2.ID {
		t.Fatalf("ListVehicles by status: %#v err=%v", list, err)
	}
	list, err = repo.ListVehicles(ctx, vehiclerepoport.Filter{TypeID: &typeID})
	if err != nil || len(list) != 1 || list[0].ID != v1.ID {
		t.Fatalf("ListVehicles by type: %#v err=%v", list, err)
	}

	team := domain.TeamID("TEAM-001")
	v2.AssignedTeamID = &team
	v2.Status = domain.VehicleStatusAssigned
	if err := repo.UpdateVehicle(ctx, v2); err != nil {
		t.Fatalf("UpdateVehicle: %v", err)
	}
	got, _ = repo.GetVehicle(ctx, v2.ID)
	if got.AssignedTeamID == nil || *got.AssignedTeamID != team || got.Status != domain.VehicleStatusAssigned {
		t.Fatalf("update did not persist: %#v", got)
	}

	if err := repo.DeleteVehicle(ctx, v1.ID); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}
	if err := repo.DeleteVehicle(ctx, v1.ID); !errors.Is(err, vehiclerepoport.ErrNotFound) {
		t.Fatalf("DeleteVehicle twice: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteType(ctx, vt.ID); err != nil {
		t.Fatalf("DeleteType: %v", err)
	}
	if err := repo.UpdateType(ctx, vt); !errors.Is(err, vehiclerepoport.ErrTypeNotFound) {
		t.Fatalf("UpdateType missing: expected ErrTypeNotFound, got %v", err)
	}
}

func RunTeamRepo(t *testing.T, newRepo TeamRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	drv := domain.DriverID("DRV-001")
	t1 := domain.Team{ID: "TEAM-001", Name: "Night Crew", DriverID: &drv, StaffIDs: []domain.UserID{"USR-003", "USR-004"}, CreatedAt: at(0), UpdatedAt: at(0)}
	t2 := domain.Team{ID: "TEAM-002", Name: "alpha", CreatedAt: at(1), UpdatedAt: at(1)}
	for _, tm := range []domain.Team{t1, t2} {
		if err := repo.Create(ctx, tm); err != nil {
			t.Fatalf("Create %s: %v", tm.ID, err)
		}
	}
	if err := repo.Create(ctx, t1); !errors.Is(err, teamrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate: expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.GetByID(ctx, t1.ID)
	if err != nil || len(got.StaffIDs) != 2 || got.StaffIDs[1] != "USR-004" || got.DriverID == nil || got.VehicleID != nil {
		t.Fatalf("GetByID: %#v err=%v", got, err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != t2.ID {
		t.Fatalf("List by name: %#v err=%v", list, err)
	}

	veh := domain.VehicleID("VEH-001")
	t1.VehicleID = &veh
	t1.StaffIDs = nil
	if err := repo.Update(ctx, t1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, t1.ID)
	if got.VehicleID == nil || *got.VehicleID != veh || len(got.StaffIDs) != 0 {
		t.Fatalf("update did not persist: %#v", got)
	}
	if err := repo.Delete(ctx, t1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Update(ctx, t1); !errors.Is(err, teamrepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, t1.ID); !errors.Is(err, teamrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: expected ErrNotFound, got %v", err)
	}
}

func RunShiftRepo(t *testing.T, newRepo ShiftRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	day := domain.DateOnly(at(0))
	nextDay := day.AddDate(0, 0, 1)

	ts, err := repo.UpsertTeamShift(ctx, domain.TeamShift{ID: "TS-001", TeamID: "TEAM-001", Date: day, Status: domain.TeamShiftOnDuty, UpdatedAt: at(0)})
	if err != nil || ts.ID != "TS-001" {
		t.Fatalf("UpsertTeamShift: %#v err=%v", ts, err)
	}
	veh := domain.VehicleID("VEH-001")
	// Same (team, date) keeps the original ID.
	ts, err = repo.UpsertTeamShift(ctx, domain.TeamShift{ID: "TS-002", TeamID: "TEAM-001", Date: day, Status: domain.TeamShiftRestDay, VehicleID: &veh, UpdatedAt: at(1)})
	if err != nil || ts.ID != "TS-001" || ts.Status != domain.TeamShiftRestDay {
		t.Fatalf("UpsertTeamShift existing: %#v err=%v", ts, err)
	}
	if _, err := repo.UpsertTeamShift(ctx, domain.TeamShift{ID: "TS-003", TeamID: "TEAM-002", Date: nextDay, Status: domain.TeamShiftOnDuty, UpdatedAt: at(2)}); err != nil {
		t.Fatalf("UpsertTeamShift next day: %v", err)
	}

	all := shiftrepoport.Range{From: day, To: day.AddDate(0, 0, 7)}
	teamShifts, err := repo.ListTeamShifts(ctx, all, nil)
	if err != nil || len(teamShifts) != 2 || teamShifts[0].ID != "TS-001" || teamShifts[1].ID != "TS-003" {
		t.Fatalf("ListTeamShifts: %#v err=%v", teamShifts, err)
	}
	if teamShifts[0].VehicleID == nil || *teamShifts[0].VehicleID != veh || !teamShifts[0].Date.Equal(day) {
		t.Fatalf("team shift fields did not round-trip: %#v", teamShifts[0])
	}
	team := domain.TeamID("TEAM-002")
	teamShifts, err = repo.ListTeamShifts(ctx, all, &team)
	if err != nil || len(teamShifts) != 1 || teamShifts[0].ID != "TS-003" {
		t.Fatalf("ListTeamShifts by team: %#v err=%v", teamShifts, err)
	}
	teamShifts, err = repo.ListTeamShifts(ctx, shiftrepoport.Range{From: day, To: nextDay}, nil)
	if err != nil || len(teamShifts) != 1 {
		t.Fatalf("ListTeamShifts half-open range: %#v err=%v", teamShifts, err)
	}
	if err := repo.DeleteTeamShift(ctx, "TS-001"); err != nil {
		t.Fatalf("DeleteTeamShift: %v", err)
	}
	if err := repo.DeleteTeamShift(ctx, "TS-001"); !errors.Is(err, shiftrepoport.ErrNotFound) {
		t.Fatalf("DeleteTeamShift twice: expected ErrNotFound, got %v", err)
	}

	ds, err := repo.UpsertDriverShift(ctx, domain.DriverShift{ID: "DS-001", DriverID: "DRV-001", Date: day, Shift: domain.ShiftMorning, UpdatedAt: at(0)})
	if err != nil || ds.ID != "DS-001" {
		t.Fatalf("UpsertDriverShift: %#v err=%v", ds, err)
	}
	ds, err = repo.UpsertDriverShift(ctx, domain.DriverShift{ID: "DS-002", DriverID: "DRV-001", Date: day, Shift: domain.ShiftNight, UpdatedAt: at(1)})
	if err != nil || ds.ID != "DS-001" || ds.Shift != domain.ShiftNight {
		t.Fatalf("UpsertDriverShift existing: %#v err=%v", ds, err)
	}
	if _, err := repo.UpsertDriverShift(ctx, domain.DriverShift{ID: "DS-003", DriverID: "DRV-002", Date: day, Shift: domain.ShiftDayOff, UpdatedAt: at(2)}); err != nil {
		t.Fatalf("UpsertDriverShift second driver: %v", err)
	}
	driverShifts, err := repo.ListDriverShifts(ctx, all, nil)
	if err != nil || len(driverShifts) != 2 || driverShifts[0].DriverID != "DRV-001" || driverShifts[0].Shift != domain.ShiftNight {
		t.Fatalf("ListDriverShifts: %#v err=%v", driverShifts, err)
	}
	drv := domain.DriverID("DRV-002")
	driverShifts, err = repo.ListDriverShifts(ctx, all, &drv)
	if err != nil || len(driverShifts) != 1 || driverShifts[0].ID != "DS-003" {
		t.Fatalf("ListDriverShifts by driver: %#v err=%v", driverShifts, err)
	}
	if err := repo.DeleteDriverShift(ctx, "DS-003"); err != nil {
		t.Fatalf("DeleteDriverShift: %v", err)
	}
	if err := repo.DeleteDriverShift(ctx, "DS-404"); !errors.Is(err, shiftrepoport.ErrNotFound) {
		t.Fatalf("DeleteDriverShift missing: expected ErrNotFound, got %v", err)
	}
}

func RunLocationRepo(t *testing.T, newRepo LocationRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	if _, err := repo.Get(ctx, "DRV-001"); !errors.Is(err, locationrepoport.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	l := domain.DriverLocation{DriverID: "DRV-002", Latitude: 18.79, Longitude: 98.98, Heading: domain.Ptr(90.0), UpdatedAt: at(0)}
	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	l.Latitude = 18.80
	l.Speed = domain.Ptr(42.5)
	l.UpdatedAt = at(5)
	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if err := repo.Upsert(ctx, domain.DriverLocation{DriverID: "DRV-001", Latitude: 13.75, Longitude: 100.50, UpdatedAt: at(1)}); err != nil {
		t.Fatalf("Upsert second driver: %v", err)
	}
	got, err := repo.Get(ctx, "DRV-002")
	if err != nil || got.Latitude != 18.80 || got.Speed == nil || *got.Speed != 42.5 || got.Accuracy != nil || !got.UpdatedAt.Equal(at(5)) {
		t.Fatalf("Get: %#v err=%v", got, err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].DriverID != "DRV-001" {
		t.Fatalf("List: %#v err=%v", list, err)
	}
}
