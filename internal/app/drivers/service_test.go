package drivers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func newService(t *testing.T) (*Service, *apptest.Env) {
	t.Helper()
	env := apptest.NewEnv(t)
	return NewService(env.Store.Drivers, env.Store.Users, env.Store.Rides, env.Store.Sequences, env.Clock), env
}

func TestService_CreateAndDuplicates(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "somchai@wecare.ems", domain.RoleDriver, "Str0ng@Pass")

	d, err := svc.Create(ctx, CreateInput{
		FullName:     "  Somchai   Jaidee ",
		Phone:        "0812345678",
		Email:        domain.Ptr(" Somchai@WeCare.ems "),
		UserID:       domain.Ptr(string(u.ID)),
		LicensePlate: domain.Ptr("1กข-1234"),
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if d.ID != "DRV-001" || d.FullName != "Somchai Jaidee" || *d.Email != "somchai@wecare.ems" || d.Status != domain.DriverStatusAvailable {
		t.Fatalf("driver=%+v", d)
	}

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"same plate", CreateInput{FullName: "A", Phone: "1", LicensePlate: domain.Ptr("1กข-1234")}},
		{"same email", CreateInput{FullName: "B", Phone: "2", Email: domain.Ptr("SOMCHAI@wecare.ems")}},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.in)
		if ae, ok := apperr.As(err); !ok || ae.Status != http.StatusConflict {
			t.Fatalf("%s: err=%v, want 409", tc.name, err)
		}
	}

	_, err = svc.Create(ctx, CreateInput{FullName: "C", Phone: "3", UserID: domain.Ptr("USR-404")})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	env.CreateUser(t, "USR-002", "officer@wecare.ems", domain.RoleOfficer, "Str0ng@Pass")
	_, err = svc.Create(ctx, CreateInput{FullName: "D", Phone: "4", UserID: domain.Ptr("USR-002")})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	ae := apptest.ExpectError(t, mustErr(svc.Create(ctx, CreateInput{Status: "sleeping"})), http.StatusUnprocessableEntity, apperr.CodeValidation)
	for _, field := range []string{"full_name", "phone", "status"} {
		if _, ok := ae.Details[field]; !ok {
			t.Fatalf("details=%v, missing %q", ae.Details, field)
		}
	}
}

func mustErr(_ domain.Driver, err error) error { return err }

func TestService_ListFilters(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	env.CreateDriver(t, "DRV-001", "Anan", nil)
	env.CreateDriver(t, "DRV-002", "Boonmee", nil)
	if _, err := svc.UpdateStatus(ctx, apptest.RolePrincipal(domain.RoleOfficer), "DRV-002", "offline"); err != nil {
		t.Fatalf("UpdateStatus err=%v", err)
	}

	page, err := svc.List(ctx, ListInput{Status: "OFFLINE"})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if page.Pagination.Total != 1 || page.Data[0].ID != "DRV-002" {
		t.Fatalf("page=%+v", page)
	}

	page, err = svc.List(ctx, ListInput{Query: "ana"})
	if err != nil || page.Pagination.Total != 1 || page.Data[0].ID != "DRV-001" {
		t.Fatalf("query page=%+v err=%v", page, err)
	}

	_, err = svc.List(ctx, ListInput{Status: "FLYING"})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
}

func TestService_DriverSelfService(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	uid := domain.UserID("USR-010")
	mine := env.CreateDriver(t, "DRV-001", "Anan", &uid)
	env.CreateDriver(t, "DRV-002", "Boonmee", nil)
	p := domain.Principal{UserID: uid, Email: "anan@wecare.ems", Role: domain.RoleDriver, DriverID: &mine.ID}

	got, err := svc.Update(ctx, p, mine.ID, UpdateInput{VehicleColor: patch.Some("white"), Address: patch.Some("  ")})
	if err != nil {
		t.Fatalf("Update own err=%v", err)
	}
	if got.VehicleColor == nil || *got.VehicleColor != "white" || got.Address != nil {
		t.Fatalf("updated=%+v", got)
	}

	_, err = svc.Update(ctx, p, "DRV-002", UpdateInput{Phone: patch.Some("1")})
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	_, err = svc.Update(ctx, p, mine.ID, UpdateInput{UserID: patch.Null[string]()})
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	_, err = svc.UpdateStatus(ctx, p, "DRV-002", "OFFLINE")
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)

	me, err := svc.Me(ctx, p)
	if err != nil || me.ID != mine.ID {
		t.Fatalf("Me=%+v err=%v", me, err)
	}
}

func TestService_MeResolution(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	uid := domain.UserID("USR-010")
	byUser := env.CreateDriver(t, "DRV-900", "Anan", &uid)
	byEmail, err := svc.Create(ctx, CreateInput{FullName: "Boonmee", Phone: "1", Email: domain.Ptr("boonmee@wecare.ems")})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	cases := []struct {
		name string
		p    domain.Principal
		want domain.DriverID
	}{
		{"by user id", domain.Principal{UserID: uid, Role: domain.RoleDriver}, byUser.ID},
		{"by email", domain.Principal{UserID: "USR-011", Email: "boonmee@wecare.ems", Role: domain.RoleDriver}, byEmail.ID},
	}
	for _, tc := range cases {
		got, err := svc.Me(ctx, tc.p)
		if err != nil || got.ID != tc.want {
			t.Fatalf("%s: Me=%+v err=%v", tc.name, got, err)
		}
	}

	_, err = svc.Me(ctx, domain.Principal{UserID: "USR-099", Email: "nobody@wecare.ems", Role: domain.RoleDriver})
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
}

func TestService_MyRides(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	uid := domain.UserID("USR-010")
	d := env.CreateDriver(t, "DRV-001", "Anan", &uid)
	p := domain.Principal{UserID: uid, Role: domain.RoleDriver, DriverID: &d.ID}

	mk := func(id domain.RideID, at time.Time, driver *domain.DriverID) {
		r := domain.Ride{
			ID: id, PatientName: "P", PickupLocation: "A", Destination: "B",
			AppointmentTime: at, Status: domain.RideStatusAssigned, DriverID: driver,
			CreatedBy: "USR-001", CreatedAt: env.Clock.Now(), UpdatedAt: env.Clock.Now(),
		}
		if driver == nil {
			r.Status = domain.RideStatusPending
		}
		if err := env.Store.Rides.Create(ctx, r); err != nil {
			t.Fatalf("create ride: %v", err)
		}
	}
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mk("RIDE-001", day.Add(9*time.Hour), &d.ID)
	mk("RIDE-002", day.Add(33*time.Hour), &d.ID)
	mk("RIDE-003", day.Add(10*time.Hour), nil)

	page, err := svc.MyRides(ctx, p, MyRidesInput{})
	if err != nil {
		t.Fatalf("MyRides err=%v", err)
	}
	var ids []domain.RideID
	for _, r := range page.Data {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]domain.RideID{"RIDE-002", "RIDE-001"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	page, err = svc.MyRides(ctx, p, MyRidesInput{Date: domain.Ptr(day.Add(15 * time.Hour))})
	if err != nil || page.Pagination.Total != 1 || page.Data[0].ID != "RIDE-001" {
		t.Fatalf("dated page=%+v err=%v", page, err)
	}
}
