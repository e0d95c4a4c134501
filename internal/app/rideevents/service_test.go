package rideevents

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func TestService_DriverScope(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	svc := NewService(env.Store.RideEvents, env.Store.Rides)
	ctx := context.Background()
	d := env.CreateDriver(t, "DRV-001", "Anan", nil)

	for i, id := range []domain.RideID{"RIDE-001", "RIDE-002"} {
		r := domain.Ride{
			ID: id, PatientName: "P", PickupLocation: "A", Destination: "B",
			AppointmentTime: apptest.Epoch.Add(time.Duration(i) * 3 * time.Hour),
			Status:          domain.RideStatusPending, CreatedBy: "USR-001",
			CreatedAt: env.Clock.Now(), UpdatedAt: env.Clock.Now(),
		}
		if id == "RIDE-001" {
			r.Status = domain.RideStatusAssigned
			r.DriverID = &d.ID
		}
		if err := env.Store.Rides.Create(ctx, r); err != nil {
			t.Fatalf("create ride: %v", err)
		}
	}
	for i, rid := range []domain.RideID{"RIDE-001", "RIDE-002", "RIDE-001"} {
		ev := domain.RideEvent{
			ID:        domain.EventID(domain.FormatID(domain.PrefixEvent, int64(i+1))),
			RideID:    rid,
			Type:      domain.RideEventStatusChanged,
			ActorID:   "USR-001",
			ActorRole: domain.RoleOfficer,
			CreatedAt: env.Clock.Now(),
		}
		if err := env.Store.RideEvents.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
		env.Clock.Advance(time.Second)
	}

	eventIDs := func(evs []domain.RideEvent) []domain.EventID {
		out := make([]domain.EventID, 0, len(evs))
		for _, ev := range evs {
			out = append(out, ev.ID)
		}
		return out
	}

	driver := domain.Principal{UserID: "USR-010", Role: domain.RoleDriver, DriverID: &d.ID}
	got, err := svc.Recent(ctx, driver, 0)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if diff := cmp.Diff([]domain.EventID{"EVT-003", "EVT-001"}, eventIDs(got)); diff != "" {
		t.Fatalf("driver events mismatch (-want +got):\n%s", diff)
	}

	got, err = svc.Recent(ctx, apptest.RolePrincipal(domain.RoleRadioCenter), 2)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if diff := cmp.Diff([]domain.EventID{"EVT-003", "EVT-002"}, eventIDs(got)); diff != "" {
		t.Fatalf("staff events mismatch (-want +got):\n%s", diff)
	}

	got, err = svc.Recent(ctx, apptest.RolePrincipal(domain.RoleDriver), 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("unlinked driver events=%v err=%v", got, err)
	}

	history, err := svc.ForRide(ctx, driver, "RIDE-001")
	if err != nil {
		t.Fatalf("ForRide err=%v", err)
	}
	if diff := cmp.Diff([]domain.EventID{"EVT-001", "EVT-003"}, eventIDs(history)); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	_, err = svc.ForRide(ctx, driver, "RIDE-002")
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	_, err = svc.ForRide(ctx, driver, "RIDE-404")
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
}
