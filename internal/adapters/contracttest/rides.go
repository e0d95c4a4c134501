package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	rideeventrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
	riderepoport "github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

type RideRepoFactory func(t *testing.T) (riderepoport.Repository, CleanupFunc)
type RideEventRepoFactory func(t *testing.T) (rideeventrepoport.Repository, CleanupFunc)

func newRide(id domain.RideID, appointment time.Time, createdBy domain.UserID) domain.Ride {
	return domain.Ride{
		ID:              id,
		PatientName:     "Somchai Jaidee",
		PickupLocation:  "Ban Mai Moo 4",
		Destination:     "Chiang Mai Hospital",
		AppointmentTime: appointment,
		Status:          domain.RideStatusPending,
		CreatedBy:       createdBy,
		CreatedAt:       at(0),
		UpdatedAt:       at(0),
	}
}

func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	r1 := newRide("RIDE-001", at(3600), "USR-001")
	pid := domain.PatientID("PAT-001")
	r1.PatientID = &pid
	r1.PickupCoordinates = &domain.Coordinates{Lat: 18.79, Lng: 98.98}
	r1.SpecialNeeds = []string{"wheelchair", "oxygen"}
	r1.CaregiverCount = 1
	if err := repo.Create(ctx, r1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, r1); !errors.Is(err, riderepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate: expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.GetByID(ctx, r1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PickupCoordinates == nil || got.PickupCoordinates.Lat != 18.79 || len(got.SpecialNeeds) != 2 {
		t.Fatalf("fields did not round-trip: %#v", got)
	}
	if !got.AppointmentTime.Equal(r1.AppointmentTime) || got.PatientID == nil || *got.PatientID != pid || got.DriverID != nil {
		t.Fatalf("fields did not round-trip: %#v", got)
	}

	// 30 minutes after r1 (inside the window), 3 hours after r1 (outside).
	r2 := newRide("RIDE-002", at(3600+1800), "USR-002")
	r3 := newRide("RIDE-003", at(3600+3*3600), "USR-002")
	for _, r := range []domain.Ride{r2, r3} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}

	list, total, err := repo.List(ctx, riderepoport.Filter{})
	if err != nil || total != 3 || list[0].ID != r3.ID || list[2].ID != r1.ID {
		t.Fatalf("List by appointment desc: total=%d err=%v", total, err)
	}
	creator := domain.UserID("USR-002")
	_, total, err = repo.List(ctx, riderepoport.Filter{CreatedBy: &creator})
	if err != nil || total != 2 {
		t.Fatalf("List by creator: total=%d err=%v", total, err)
	}
	from, to := at(3600), at(3600+3600)
	list, total, err = repo.List(ctx, riderepoport.Filter{From: &from, To: &to})
	if err != nil || total != 2 || list[0].ID != r2.ID {
		t.Fatalf("List by range: total=%d err=%v", total, err)
	}
	list, total, err = repo.List(ctx, riderepoport.Filter{PatientID: &pid})
	if err != nil || total != 1 || list[0].ID != r1.ID {
		t.Fatalf("List by patient: total=%d err=%v", total, err)
	}
	list, total, err = repo.List(ctx, riderepoport.Filter{Limit: 1, Offset: 1})
	if err != nil || total != 3 || len(list) != 1 || list[0].ID != r2.ID {
		t.Fatalf("List page: total=%d err=%v", total, err)
	}

	// Assignment.
	assign := func(id domain.RideID) (domain.Ride, error) {
		return repo.AssignDriver(ctx, riderepoport.Assignment{
			RideID:     id,
			DriverID:   "DRV-001",
			DriverName: "Somsak Driver",
			Window:     time.Hour,
			At:         at(60),
		})
	}
	assigned, err := assign(r1.ID)
	if err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if assigned.Status != domain.RideStatusAssigned || assigned.DriverID == nil || *assigned.DriverID != "DRV-001" {
		t.Fatalf("unexpected assigned ride: %#v", assigned)
	}
	if assigned.DriverName == nil || *assigned.DriverName != "Somsak Driver" || !assigned.UpdatedAt.Equal(at(60)) {
		t.Fatalf("unexpected assigned ride: %#v", assigned)
	}
	if _, err := assign(r2.ID); !errors.Is(err, riderepoport.ErrDriverConflict) {
		t.Fatalf("inside window: expected ErrDriverConflict, got %v", err)
	}
	if _, err := assign(r3.ID); err != nil {
		t.Fatalf("outside window: %v", err)
	}
	// Reassigning the same ride to the same driver does not conflict with itself.
	if _, err := assign(r1.ID); err != nil {
		t.Fatalf("reassign same ride: %v", err)
	}
	if _, err := assign("RIDE-404"); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("missing ride: expected ErrNotFound, got %v", err)
	}

	driver := domain.DriverID("DRV-001")
	_, total, err = repo.List(ctx, riderepoport.Filter{DriverID: &driver})
	if err != nil || total != 2 {
		t.Fatalf("List by driver: total=%d err=%v", total, err)
	}

	// A cancelled ride frees the slot and can no longer be assigned.
	r1, _ = repo.GetByID(ctx, r1.ID)
	r1.Status = domain.RideStatusCancelled
	if err := repo.Update(ctx, r1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := assign(r1.ID); !errors.Is(err, riderepoport.ErrNotAssignable) {
		t.Fatalf("terminal ride: expected ErrNotAssignable, got %v", err)
	}
	if _, err := assign(r2.ID); err != nil {
		t.Fatalf("after cancellation: %v", err)
	}

	list, total, err = repo.List(ctx, riderepoport.Filter{Statuses: []domain.RideStatus{domain.RideStatusCancelled}})
	if err != nil || total != 1 || list[0].ID != r1.ID {
		t.Fatalf("List by status: total=%d err=%v", total, err)
	}

	// Only pending or assigned rides take a driver.
	r2, _ = repo.GetByID(ctx, r2.ID)
	r2.Status = domain.RideStatusInProgress
	if err := repo.Update(ctx, r2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := assign(r2.ID); !errors.Is(err, riderepoport.ErrNotAssignable) {
		t.Fatalf("in-progress ride: expected ErrNotAssignable, got %v", err)
	}

	// Conditional saves.
	cur, err := repo.GetByID(ctx, r3.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	next := cur.Clone()
	next.Notes = domain.Ptr("moved")
	next.AppointmentTime = at(3600 + 1800 + 600)
	next.UpdatedAt = at(120)
	change := riderepoport.Change{Ride: next, PrevStatus: cur.Status, PrevUpdatedAt: cur.UpdatedAt, Window: time.Hour}

	stale := change
	stale.PrevStatus = domain.RideStatusPending
	if err := repo.Save(ctx, stale); !errors.Is(err, riderepoport.ErrStale) {
		t.Fatalf("stale status: expected ErrStale, got %v", err)
	}
	stale = change
	stale.PrevUpdatedAt = at(999)
	if err := repo.Save(ctx, stale); !errors.Is(err, riderepoport.ErrStale) {
		t.Fatalf("stale timestamp: expected ErrStale, got %v", err)
	}
	if err := repo.Save(ctx, change); !errors.Is(err, riderepoport.ErrDriverConflict) {
		t.Fatalf("reschedule into window: expected ErrDriverConflict, got %v", err)
	}
	if got, _ := repo.GetByID(ctx, r3.ID); !got.AppointmentTime.Equal(cur.AppointmentTime) || got.Notes != nil {
		t.Fatalf("rejected save was applied: %#v", got)
	}

	change.Ride.AppointmentTime = at(3600 + 6*3600)
	if err := repo.Save(ctx, change); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = repo.GetByID(ctx, r3.ID)
	if got.Notes == nil || *got.Notes != "moved" || !got.UpdatedAt.Equal(at(120)) || !got.AppointmentTime.Equal(at(3600+6*3600)) {
		t.Fatalf("save did not apply: %#v", got)
	}
	// A second writer holding the old version loses.
	if err := repo.Save(ctx, change); !errors.Is(err, riderepoport.ErrStale) {
		t.Fatalf("second writer: expected ErrStale, got %v", err)
	}
	missing := newRide("RIDE-404", at(0), "USR-001")
	if err := repo.Save(ctx, riderepoport.Change{Ride: missing, PrevStatus: missing.Status, PrevUpdatedAt: missing.UpdatedAt}); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("save missing: expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, r3.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, r3.ID); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, r3); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
}

// RunRideAssignRace assigns one driver to many overlapping rides at once. Exactly one
// assignment may win.
func RunRideAssignRace(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	const contenders = 20
	ids := make([]domain.RideID, contenders)
	for i := range ids {
		ids[i] = domain.RideID(fmt.Sprintf("RIDE-%03d", 100+i))
		if err := repo.Create(ctx, newRide(ids[i], at(48*3600), "USR-003")); err != nil {
			t.Fatalf("Create %s: %v", ids[i], err)
		}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won, lost int
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AssignDriver(ctx, riderepoport.Assignment{
				RideID:     id,
				DriverID:   "DRV-002",
				DriverName: "Prasert",
				Window:     time.Hour,
				At:         at(90),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, riderepoport.ErrDriverConflict):
				lost++
			default:
				t.Errorf("AssignDriver %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || lost != contenders-1 {
		t.Fatalf("won=%d lost=%d, want 1 and %d", won, lost, contenders-1)
	}
	driver := domain.DriverID("DRV-002")
	_, total, err := repo.List(ctx, riderepoport.Filter{DriverID: &driver})
	if err != nil || total != 1 {
		t.Fatalf("List by driver: total=%d err=%v", total, err)
	}
}

func RunRideEventRepo(t *testing.T, newRepo RideEventRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	pending, assigned := domain.RideStatusPending, domain.RideStatusAssigned
	driver := domain.DriverID("DRV-001")
	events := []domain.RideEvent{
		{ID: "EVT-001", RideID: "RIDE-001", Type: domain.RideEventCreated, ToStatus: &pending, ActorID: "USR-001", ActorRole: domain.RoleOfficer, CreatedAt: at(0)},
		{ID: "EVT-002", RideID: "RIDE-002", Type: domain.RideEventCreated, ToStatus: &pending, ActorID: "USR-001", ActorRole: domain.RoleOfficer, CreatedAt: at(1)},
		{
			ID: "EVT-003", RideID: "RIDE-001", Type: domain.RideEventAssigned,
			FromStatus: &pending, ToStatus: &assigned, DriverID: &driver,
			ActorID: "USR-002", ActorRole: domain.RoleRadioCenter,
			Payload:   json.RawMessage(`{"driverName":"Somsak"}`),
			CreatedAt: at(2),
		},
	}
	for _, ev := range events {
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append %s: %v", ev.ID, err)
		}
	}

	hist, err := repo.ListByRide(ctx, "RIDE-001")
	if err != nil {
		t.Fatalf("ListByRide: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != "EVT-001" || hist[1].ID != "EVT-003" {
		t.Fatalf("unexpected history: %#v", hist)
	}
	last := hist[1]
	if last.FromStatus == nil || *last.FromStatus != pending || last.DriverID == nil || *last.DriverID != driver {
		t.Fatalf("fields did not round-trip: %#v", last)
	}
	var payload map[string]string
	if err := json.Unmarshal(last.Payload, &payload); err != nil || payload["driverName"] != "Somsak" {
		t.Fatalf("payload did not round-trip: %s err=%v", last.Payload, err)
	}
	if hist[0].FromStatus != nil || hist[0].DriverID != nil {
		t.Fatalf("nil fields did not round-trip: %#v", hist[0])
	}

	recent, err := repo.ListRecent(ctx, rideeventrepoport.Filter{Limit: 2})
	if err != nil || len(recent) != 2 || recent[0].ID != "EVT-003" || recent[1].ID != "EVT-002" {
		t.Fatalf("ListRecent: %#v err=%v", recent, err)
	}
	recent, err = repo.ListRecent(ctx, rideeventrepoport.Filter{RideIDs: []domain.RideID{"RIDE-002"}})
	if err != nil || len(recent) != 1 || recent[0].ID != "EVT-002" {
		t.Fatalf("ListRecent by ride: %#v err=%v", recent, err)
	}
	recent, err = repo.ListRecent(ctx, rideeventrepoport.Filter{RideIDs: []domain.RideID{}})
	if err != nil || len(recent) != 0 {
		t.Fatalf("ListRecent with empty ride set: %#v err=%v", recent, err)
	}
}
