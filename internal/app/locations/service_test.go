package locations

import (
	"context"
	"net/http"
	"testing"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func TestService_Report(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	svc := NewService(env.Store.Locations, env.Store.Drivers, env.Clock)
	ctx := context.Background()
	d := env.CreateDriver(t, "DRV-001", "Anan", nil)
	env.CreateDriver(t, "DRV-002", "Boonmee", nil)
	driver := domain.Principal{UserID: "USR-010", Role: domain.RoleDriver, DriverID: &d.ID}
	admin := apptest.RolePrincipal(domain.RoleAdmin)
	lat, lng := 16.43, 102.83

	cases := []struct {
		name   string
		p      domain.Principal
		in     ReportInput
		status int
		code   string
	}{
		{"missing lat", driver, ReportInput{Longitude: &lng}, http.StatusBadRequest, apperr.CodeBadRequest},
		{"out of range", driver, ReportInput{Latitude: domain.Ptr(91.0), Longitude: &lng}, http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"lng out of range", driver, ReportInput{Latitude: &lat, Longitude: domain.Ptr(-181.0)}, http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"driver for other", driver, ReportInput{DriverID: "DRV-002", Latitude: &lat, Longitude: &lng}, http.StatusForbidden, apperr.CodeForbidden},
		{"unlinked driver", apptest.RolePrincipal(domain.RoleDriver), ReportInput{Latitude: &lat, Longitude: &lng}, http.StatusForbidden, apperr.CodeForbidden},
		{"staff without driver", admin, ReportInput{Latitude: &lat, Longitude: &lng}, http.StatusBadRequest, apperr.CodeBadRequest},
		{"staff unknown driver", admin, ReportInput{DriverID: "DRV-404", Latitude: &lat, Longitude: &lng}, http.StatusNotFound, apperr.CodeNotFound},
	}
	for _, tc := range cases {
		_, err := svc.Report(ctx, tc.p, tc.in)
		if ae, ok := apperr.As(err); !ok || ae.Status != tc.status || ae.Code != tc.code {
			t.Fatalf("%s: err=%v, want %d %s", tc.name, err, tc.status, tc.code)
		}
	}

	if _, err := svc.Report(ctx, driver, ReportInput{Latitude: &lat, Longitude: &lng, Speed: domain.Ptr(40.0)}); err != nil {
		t.Fatalf("driver Report err=%v", err)
	}
	if _, err := svc.Report(ctx, admin, ReportInput{DriverID: "DRV-002", Latitude: domain.Ptr(0.0), Longitude: domain.Ptr(0.0)}); err != nil {
		t.Fatalf("staff Report err=%v", err)
	}
	if _, err := svc.Report(ctx, driver, ReportInput{Latitude: domain.Ptr(16.5), Longitude: &lng}); err != nil {
		t.Fatalf("second Report err=%v", err)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 2 || all[0].DriverID != "DRV-001" || all[0].Latitude != 16.5 {
		t.Fatalf("List=%+v err=%v", all, err)
	}
	if all[0].Speed != nil {
		t.Fatalf("speed kept from previous report: %v", *all[0].Speed)
	}

	_, err = svc.Get(ctx, "DRV-404")
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
}
