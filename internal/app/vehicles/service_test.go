package vehicles

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func newService(t *testing.T) *Service {
	t.Helper()
	env := apptest.NewEnv(t)
	return NewService(env.Store.Vehicles, env.Store.Sequences, env.Clock)
}

func TestService_VehicleCRUD(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	vt, err := svc.CreateType(ctx, TypeInput{Name: "Ambulance", Capacity: 4})
	if err != nil {
		t.Fatalf("CreateType err=%v", err)
	}
	if vt.ID != "VT-001" {
		t.Fatalf("type id=%s", vt.ID)
	}

	v, err := svc.CreateVehicle(ctx, VehicleInput{
		LicensePlate:        " กข-1234 ",
		TypeID:              domain.Ptr(string(vt.ID)),
		Capacity:            4,
		NextMaintenanceDate: domain.Ptr(time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateVehicle err=%v", err)
	}
	if v.ID != "VEH-001" || v.LicensePlate != "กข-1234" || v.Status != domain.VehicleStatusAvailable {
		t.Fatalf("vehicle=%+v", v)
	}
	if !v.NextMaintenanceDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("maintenance date=%v", v.NextMaintenanceDate)
	}

	_, err = svc.CreateVehicle(ctx, VehicleInput{LicensePlate: "กข-1234"})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)
	_, err = svc.CreateVehicle(ctx, VehicleInput{LicensePlate: "X-1", TypeID: domain.Ptr("VT-404")})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
	_, err = svc.CreateVehicle(ctx, VehicleInput{LicensePlate: "X-1", Status: "broken"})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	got, err := svc.UpdateVehicle(ctx, v.ID, VehicleUpdate{Status: patch.Some("maintenance"), TypeID: patch.Null[string]()})
	if err != nil {
		t.Fatalf("UpdateVehicle err=%v", err)
	}
	if got.Status != domain.VehicleStatusMaintenance || got.TypeID != nil {
		t.Fatalf("updated=%+v", got)
	}

	list, err := svc.ListVehicles(ctx, ListInput{Status: "MAINTENANCE"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%v err=%v", list, err)
	}

	if err := svc.DeleteVehicle(ctx, v.ID); err != nil {
		t.Fatalf("DeleteVehicle err=%v", err)
	}
	apptest.ExpectError(t, svc.DeleteVehicle(ctx, v.ID), http.StatusNotFound, apperr.CodeNotFound)
}

func TestService_DeleteTypeInUse(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	vt, err := svc.CreateType(ctx, TypeInput{Name: "Van", Capacity: 8})
	if err != nil {
		t.Fatalf("CreateType err=%v", err)
	}
	_, err = svc.CreateType(ctx, TypeInput{Name: "van"})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)

	v, err := svc.CreateVehicle(ctx, VehicleInput{LicensePlate: "VAN-1", TypeID: domain.Ptr(string(vt.ID))})
	if err != nil {
		t.Fatalf("CreateVehicle err=%v", err)
	}

	ae := apptest.ExpectError(t, svc.DeleteType(ctx, vt.ID), http.StatusConflict, apperr.CodeConflict)
	if ae.Details["vehicleCount"] != 1 {
		t.Fatalf("details=%v", ae.Details)
	}

	if err := svc.DeleteVehicle(ctx, v.ID); err != nil {
		t.Fatalf("DeleteVehicle err=%v", err)
	}
	if err := svc.DeleteType(ctx, vt.ID); err != nil {
		t.Fatalf("DeleteType err=%v", err)
	}
	apptest.ExpectError(t, svc.DeleteType(ctx, vt.ID), http.StatusNotFound, apperr.CodeNotFound)
}
