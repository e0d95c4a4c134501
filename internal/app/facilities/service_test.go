package facilities

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
	return NewService(env.Store.Facilities, env.Store.Sequences, env.Audit, env.Clock), env
}

func names(fs []domain.Facility) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	officer := apptest.RolePrincipal(domain.RoleOfficer)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"blank name", CreateInput{Name: "  ", Lat: domain.Ptr(13.7), Lng: domain.Ptr(100.5)}, "name"},
		{"missing lng", CreateInput{Name: "Hospital", Lat: domain.Ptr(13.7)}, "location"},
		{"latitude out of range", CreateInput{Name: "Hospital", Lat: domain.Ptr(95.0), Lng: domain.Ptr(100.5)}, "location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, officer, tt.in)
			ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
			if _, ok := ae.Details[tt.field]; !ok {
				t.Fatalf("details=%v, want %s", ae.Details, tt.field)
			}
		})
	}

	_, err := svc.Create(ctx, apptest.RolePrincipal(domain.RoleCommunity), CreateInput{Name: "Hospital", Lat: domain.Ptr(13.7), Lng: domain.Ptr(100.5)})
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	officer := apptest.RolePrincipal(domain.RoleOfficer)
	community := apptest.RolePrincipal(domain.RoleCommunity)

	hospital, err := svc.Create(ctx, officer, CreateInput{
		Name:         " Provincial Hospital ",
		Lat:          domain.Ptr(13.7563),
		Lng:          domain.Ptr(100.5018),
		FacilityType: domain.Ptr("hospital"),
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if hospital.ID != "FAC-001" || hospital.Name != "Provincial Hospital" || !hospital.IsActive || hospital.CreatedBy != officer.UserID {
		t.Fatalf("hospital=%+v", hospital)
	}
	station, err := svc.Create(ctx, officer, CreateInput{Name: "Ban Nong Health Station", Lat: domain.Ptr(13.8), Lng: domain.Ptr(100.6)})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	env.Clock.Advance(time.Minute)
	updated, err := svc.Update(ctx, officer, station.ID, UpdateInput{
		Name:         patch.Some("Ban Nong Clinic"),
		Lat:          patch.Some(13.81),
		FacilityType: patch.Some("clinic"),
	})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if updated.Location.Lat != 13.81 || updated.Location.Lng != 100.6 || updated.FacilityType == nil || *updated.FacilityType != "clinic" {
		t.Fatalf("updated=%+v", updated)
	}
	if !updated.UpdatedAt.Equal(apptest.Epoch.Add(time.Minute)) {
		t.Fatalf("UpdatedAt=%v", updated.UpdatedAt)
	}
	_, err = svc.Update(ctx, officer, station.ID, UpdateInput{Lng: patch.Some(181.0)})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
	_, err = svc.Update(ctx, officer, "FAC-404", UpdateInput{Name: patch.Some("x")})
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)

	if err := svc.Delete(ctx, officer, hospital.ID); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	err = svc.Delete(ctx, officer, hospital.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)

	visible, err := svc.List(ctx, community, ListInput{IncludeInactive: true})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if diff := cmp.Diff([]string{"Ban Nong Clinic"}, names(visible)); diff != "" {
		t.Fatalf("community list mismatch (-want +got):\n%s", diff)
	}
	all, err := svc.List(ctx, officer, ListInput{IncludeInactive: true})
	if err != nil || len(all) != 2 {
		t.Fatalf("staff list=%v err=%v", names(all), err)
	}

	_, err = svc.Get(ctx, community, hospital.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
	got, err := svc.Get(ctx, officer, hospital.ID)
	if err != nil || got.IsActive {
		t.Fatalf("staff Get=%+v err=%v", got, err)
	}

	restored, err := svc.Update(ctx, officer, hospital.ID, UpdateInput{IsActive: patch.Some(true)})
	if err != nil || !restored.IsActive {
		t.Fatalf("restore=%+v err=%v", restored, err)
	}

	want := []domain.AuditAction{
		domain.ActionCreateFacility,
		domain.ActionCreateFacility,
		domain.ActionUpdateFacility,
		domain.ActionDeleteFacility,
		domain.ActionUpdateFacility,
	}
	if diff := cmp.Diff(want, env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestService_WritesRequireStaff(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	f, err := svc.Create(ctx, apptest.RolePrincipal(domain.RoleRadioCenter), CreateInput{Name: "Hospital", Lat: domain.Ptr(13.7), Lng: domain.Ptr(100.5)})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	for _, role := range []domain.Role{domain.RoleDriver, domain.RoleCommunity, domain.RoleExecutive} {
		p := apptest.RolePrincipal(role)
		_, err := svc.Update(ctx, p, f.ID, UpdateInput{Name: patch.Some("x")})
		apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
		err = svc.Delete(ctx, p, f.ID)
		apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
		if _, err := svc.Get(ctx, p, f.ID); err != nil {
			t.Fatalf("%s Get err=%v", role, err)
		}
	}
}
