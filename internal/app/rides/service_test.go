package rides

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/notify"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.RideEvent
	aud    []notify.Audience
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.RideEvent, to notify.Audience) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	p.aud = append(p.aud, to)
}

func (p *recordingPublisher) types() []domain.RideEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.RideEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	env       *apptest.Env
	pub       *recordingPublisher
	community domain.Principal
	other     domain.Principal
	officer   domain.Principal
	driver    domain.Principal
	driverID  domain.DriverID
	driverUID domain.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := apptest.NewEnv(t)
	pub := &recordingPublisher{}
	svc := NewService(Deps{
		Rides:           env.Store.Rides,
		Patients:        env.Store.Patients,
		Drivers:         env.Store.Drivers,
		Events:          env.Store.RideEvents,
		Seq:             env.Store.Sequences,
		Audit:           env.Audit,
		Publisher:       pub,
		Clock:           env.Clock,
		ConflictWindow:  time.Hour,
		DuplicateWindow: 5 * time.Second,
	})

	driverUID := domain.UserID("USR-DRV")
	d := env.CreateDriver(t, "DRV-001", "Somsak", &driverUID)
	return &fixture{
		svc:       svc,
		env:       env,
		pub:       pub,
		community: domain.Principal{UserID: "USR-C1", Email: "c1@example.com", Role: domain.RoleCommunity},
		other:     domain.Principal{UserID: "USR-C2", Email: "c2@example.com", Role: domain.RoleCommunity},
		officer:   apptest.RolePrincipal(domain.RoleOfficer),
		driver:    domain.Principal{UserID: driverUID, Email: "driver1@wecare.ems", Role: domain.RoleDriver, DriverID: domain.Ptr(d.ID)},
		driverID:  d.ID,
		driverUID: driverUID,
	}
}

func (f *fixture) create(t *testing.T, p domain.Principal, appt string) domain.Ride {
	t.Helper()
	r, err := f.svc.Create(context.Background(), p, CreateInput{
		PatientName:     "Grandma Somjai",
		PickupLocation:  "Ban Nong Village",
		Destination:     "Khon Kaen Hospital",
		AppointmentTime: appt,
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	return r
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.create(t, f.community, "2025-03-10T09:00:00+07:00")

	if r.ID != "RIDE-001" || r.Status != domain.RideStatusPending || r.CreatedBy != f.community.UserID {
		t.Fatalf("ride=%+v", r)
	}
	if !r.AppointmentTime.Equal(time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("appointment=%v", r.AppointmentTime)
	}
	if diff := cmp.Diff([]domain.RideEventType{domain.RideEventCreated}, f.pub.types()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	aud := f.pub.aud[0]
	if !slices.Contains(aud.UserIDs, f.community.UserID) || !slices.Contains(aud.Roles, domain.RoleRadioCenter) {
		t.Fatalf("audience=%+v", aud)
	}
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"no patient", CreateInput{PickupLocation: "A", Destination: "B", AppointmentTime: "2025-03-10T09:00:00Z"}, "patient_name"},
		{"no pickup", CreateInput{PatientName: "X", Destination: "B", AppointmentTime: "2025-03-10T09:00:00Z"}, "pickup_location"},
		{"no destination", CreateInput{PatientName: "X", PickupLocation: "A", AppointmentTime: "2025-03-10T09:00:00Z"}, "destination"},
		{"bad time", CreateInput{PatientName: "X", PickupLocation: "A", Destination: "B", AppointmentTime: "tomorrow"}, "appointment_time"},
		{"bad coords", CreateInput{PatientName: "X", PickupLocation: "A", Destination: "B", AppointmentTime: "2025-03-10T09:00:00Z", PickupLat: domain.Ptr(100.0), PickupLng: domain.Ptr(0.0)}, "pickup_coordinates"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.svc.Create(ctx, f.officer, tc.in)
			ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
			if _, ok := ae.Details[tc.field]; !ok {
				t.Fatalf("details=%v, want %q", ae.Details, tc.field)
			}
		})
	}

	for _, role := range []domain.Role{domain.RoleExecutive, domain.RoleDriver} {
		_, err := f.svc.Create(ctx, apptest.RolePrincipal(role), CreateInput{})
		apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	}
}

func TestService_CreateDuplicateSubmission(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.create(t, f.community, "2025-03-10T09:00:00Z")

	f.env.Clock.Advance(3 * time.Second)
	_, err := f.svc.Create(context.Background(), f.community, CreateInput{
		PatientName:     "Grandma Somjai",
		PickupLocation:  "Ban Nong Village",
		Destination:     "Khon Kaen Hospital",
		AppointmentTime: "2025-03-10T09:00:00Z",
	})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeDuplicateSubmission)

	// Another requester is not a duplicate.
	f.create(t, f.other, "2025-03-10T09:00:00Z")

	f.env.Clock.Advance(5 * time.Second)
	f.create(t, f.community, "2025-03-10T09:00:00Z")
}

func TestService_CreateWithForeignPatient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pt := domain.Patient{ID: "PAT-001", FullName: "Uncle Dam", CreatedBy: f.other.UserID, CreatedAt: f.env.Clock.Now()}
	if err := f.env.Store.Patients.Create(ctx, pt); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	in := CreateInput{PatientID: domain.Ptr("PAT-001"), PickupLocation: "A", Destination: "B", AppointmentTime: "2025-03-10T09:00:00Z"}

	_, err := f.svc.Create(ctx, f.community, in)
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)

	r, err := f.svc.Create(ctx, f.other, in)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if r.PatientName != "Uncle Dam" || r.PatientID == nil || *r.PatientID != "PAT-001" {
		t.Fatalf("ride=%+v", r)
	}
}

func TestService_ListAndGetScopes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	mine := f.create(t, f.community, "2025-03-10T09:00:00Z")
	theirs := f.create(t, f.other, "2025-03-11T09:00:00Z")
	if _, err := f.svc.Update(ctx, f.officer, theirs.ID, UpdateInput{DriverID: patch.Some(string(f.driverID))}); err != nil {
		t.Fatalf("assign err=%v", err)
	}

	cases := []struct {
		name string
		p    domain.Principal
		want []domain.RideID
	}{
		{"community sees own", f.community, []domain.RideID{mine.ID}},
		{"driver sees assigned", f.driver, []domain.RideID{theirs.ID}},
		{"officer sees all", f.officer, []domain.RideID{theirs.ID, mine.ID}},
		{"executive sees all", apptest.RolePrincipal(domain.RoleExecutive), []domain.RideID{theirs.ID, mine.ID}},
		{"unlinked driver sees nothing", apptest.RolePrincipal(domain.RoleDriver), []domain.RideID{}},
	}
	for _, tc := range cases {
		page, err := f.svc.List(ctx, tc.p, ListInput{})
		if err != nil {
			t.Fatalf("%s: List err=%v", tc.name, err)
		}
		got := make([]domain.RideID, 0, len(page.Data))
		for _, r := range page.Data {
			got = append(got, r.ID)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: ids mismatch (-want +got):\n%s", tc.name, diff)
		}
	}

	page, err := f.svc.List(ctx, f.officer, ListInput{Status: "pending"})
	if err != nil || page.Pagination.Total != 1 || page.Data[0].ID != mine.ID {
		t.Fatalf("status filter page=%+v err=%v", page, err)
	}
	_, err = f.svc.List(ctx, f.officer, ListInput{Status: "FLYING"})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	_, err = f.svc.Get(ctx, f.other, mine.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
	_, err = f.svc.Get(ctx, f.driver, mine.ID)
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	if _, err := f.svc.Get(ctx, f.driver, theirs.ID); err != nil {
		t.Fatalf("driver Get own err=%v", err)
	}
}

func TestService_AssignConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, f.community, "2025-03-10T09:00:00Z")
	near := f.create(t, f.other, "2025-03-10T09:30:00Z")
	far := f.create(t, f.other, "2025-03-10T11:00:00Z")

	assigned, err := f.svc.Update(ctx, f.officer, first.ID, UpdateInput{DriverID: patch.Some(string(f.driverID))})
	if err != nil {
		t.Fatalf("assign err=%v", err)
	}
	if assigned.Status != domain.RideStatusAssigned || assigned.DriverName == nil || *assigned.DriverName != "Somsak" {
		t.Fatalf("assigned=%+v", assigned)
	}

	_, err = f.svc.Update(ctx, f.officer, near.ID, UpdateInput{DriverID: patch.Some(string(f.driverID))})
	ae := apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeDriverConflict)
	if ae.Details["driverId"] != f.driverID {
		t.Fatalf("details=%v", ae.Details)
	}
	stored, _ := f.env.Store.Rides.GetByID(ctx, near.ID)
	if stored.DriverID != nil || stored.Status != domain.RideStatusPending {
		t.Fatalf("conflicting ride was modified: %+v", stored)
	}

	if _, err := f.svc.Assign(ctx, f.officer, far.ID, f.driverID); err != nil {
		t.Fatalf("assign outside window err=%v", err)
	}

	_, err = f.svc.Update(ctx, f.officer, near.ID, UpdateInput{DriverID: patch.Some("DRV-404")})
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)

	// Cancelling the first ride frees the slot.
	if _, err := f.svc.UpdateStatus(ctx, f.officer, first.ID, "CANCELLED", ""); err != nil {
		t.Fatalf("cancel err=%v", err)
	}
	if _, err := f.svc.Assign(ctx, f.officer, near.ID, f.driverID); err != nil {
		t.Fatalf("assign after cancel err=%v", err)
	}
	_, err = f.svc.Assign(ctx, f.officer, first.ID, f.driverID)
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeInvalidStatusTransition)
}

func TestService_AssignRequiresPendingOrAssigned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.env.CreateDriver(t, "DRV-002", "Prasert", nil)
	r := f.create(t, f.community, "2025-03-10T09:00:00Z")
	if _, err := f.svc.Assign(ctx, f.officer, r.ID, f.driverID); err != nil {
		t.Fatalf("assign err=%v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.driver, r.ID, "IN_PROGRESS", ""); err != nil {
		t.Fatalf("start err=%v", err)
	}

	_, err := f.svc.Assign(ctx, f.officer, r.ID, "DRV-002")
	ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeInvalidStatusTransition)
	if ae.Details["from"] != domain.RideStatusInProgress {
		t.Fatalf("details=%v", ae.Details)
	}
	_, err = f.svc.Update(ctx, f.officer, r.ID, UpdateInput{DriverID: patch.Some("DRV-002")})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeInvalidStatusTransition)

	stored, _ := f.env.Store.Rides.GetByID(ctx, r.ID)
	if stored.Status != domain.RideStatusInProgress || stored.DriverID == nil || *stored.DriverID != f.driverID {
		t.Fatalf("in-progress ride was modified: %+v", stored)
	}
}

func TestService_ReassignReleasesPreviousDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	setOnTrip := func(t *testing.T, f *fixture) {
		t.Helper()
		d, _ := f.env.Store.Drivers.GetByID(ctx, f.driverID)
		d.Status = domain.DriverStatusOnTrip
		if err := f.env.Store.Drivers.Update(ctx, d); err != nil {
			t.Fatalf("driver update err=%v", err)
		}
	}

	t.Run("idle driver becomes available", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.env.CreateDriver(t, "DRV-002", "Prasert", nil)
		r := f.create(t, f.community, "2025-03-10T09:00:00Z")
		if _, err := f.svc.Assign(ctx, f.officer, r.ID, f.driverID); err != nil {
			t.Fatalf("assign err=%v", err)
		}
		setOnTrip(t, f)

		got, err := f.svc.Assign(ctx, f.officer, r.ID, "DRV-002")
		if err != nil {
			t.Fatalf("reassign err=%v", err)
		}
		if got.DriverID == nil || *got.DriverID != "DRV-002" || got.Status != domain.RideStatusAssigned {
			t.Fatalf("reassigned=%+v", got)
		}
		d, _ := f.env.Store.Drivers.GetByID(ctx, f.driverID)
		if d.Status != domain.DriverStatusAvailable {
			t.Fatalf("previous driver status=%s, want AVAILABLE", d.Status)
		}
	})

	t.Run("driver with a ride under way stays on trip", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.env.CreateDriver(t, "DRV-002", "Prasert", nil)
		busy := f.create(t, f.community, "2025-03-10T09:00:00Z")
		if _, err := f.svc.Assign(ctx, f.officer, busy.ID, f.driverID); err != nil {
			t.Fatalf("assign err=%v", err)
		}
		if _, err := f.svc.UpdateStatus(ctx, f.driver, busy.ID, "IN_PROGRESS", ""); err != nil {
			t.Fatalf("start err=%v", err)
		}
		later := f.create(t, f.community, "2025-03-11T09:00:00Z")
		if _, err := f.svc.Update(ctx, f.officer, later.ID, UpdateInput{DriverID: patch.Some(string(f.driverID))}); err != nil {
			t.Fatalf("assign later err=%v", err)
		}

		if _, err := f.svc.Update(ctx, f.officer, later.ID, UpdateInput{DriverID: patch.Some("DRV-002")}); err != nil {
			t.Fatalf("reassign err=%v", err)
		}
		d, _ := f.env.Store.Drivers.GetByID(ctx, f.driverID)
		if d.Status != domain.DriverStatusOnTrip {
			t.Fatalf("previous driver status=%s, want ON_TRIP", d.Status)
		}
	})
}

func TestService_RescheduleChecksDriverConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	morning := f.create(t, f.community, "2025-03-10T09:00:00Z")
	afternoon := f.create(t, f.community, "2025-03-10T15:00:00Z")
	for _, r := range []domain.Ride{morning, afternoon} {
		if _, err := f.svc.Assign(ctx, f.officer, r.ID, f.driverID); err != nil {
			t.Fatalf("assign %s err=%v", r.ID, err)
		}
	}

	_, err := f.svc.Update(ctx, f.officer, afternoon.ID, UpdateInput{AppointmentTime: patch.Some("2025-03-10T09:10:00Z")})
	ae := apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeDriverConflict)
	if ae.Details["driverId"] != f.driverID {
		t.Fatalf("details=%v", ae.Details)
	}
	stored, _ := f.env.Store.Rides.GetByID(ctx, afternoon.ID)
	if !stored.AppointmentTime.Equal(afternoon.AppointmentTime) {
		t.Fatalf("appointment=%v, want unchanged %v", stored.AppointmentTime, afternoon.AppointmentTime)
	}

	moved, err := f.svc.Update(ctx, f.officer, afternoon.ID, UpdateInput{AppointmentTime: patch.Some("2025-03-10T11:00:00Z")})
	if err != nil {
		t.Fatalf("reschedule outside window err=%v", err)
	}
	if !moved.AppointmentTime.Equal(time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("appointment=%v", moved.AppointmentTime)
	}
}

func TestService_UpdateRejectedLeavesRideUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, f.community, "2025-03-10T09:00:00Z")
	near := f.create(t, f.other, "2025-03-10T09:30:00Z")
	if _, err := f.svc.Assign(ctx, f.officer, first.ID, f.driverID); err != nil {
		t.Fatalf("assign err=%v", err)
	}

	_, err := f.svc.Update(ctx, f.officer, near.ID, UpdateInput{
		Notes:    patch.Some("edited"),
		DriverID: patch.Some(string(f.driverID)),
	})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeDriverConflict)

	stored, _ := f.env.Store.Rides.GetByID(ctx, near.ID)
	if stored.Notes != nil || stored.DriverID != nil || stored.Status != domain.RideStatusPending {
		t.Fatalf("rejected update was applied: %+v", stored)
	}
	want := []domain.AuditAction{domain.ActionCreateRide, domain.ActionCreateRide, domain.ActionAssignDriver}
	if diff := cmp.Diff(want, f.env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

// racingRides lets another writer change the ride between the service's read and its write.
type racingRides struct {
	riderepo.Repository
	once  sync.Once
	touch func(ctx context.Context, r domain.Ride)
}

func (r *racingRides) GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	got, err := r.Repository.GetByID(ctx, id)
	if err == nil {
		r.once.Do(func() { r.touch(ctx, got) })
	}
	return got, err
}

func TestService_UpdateStaleWrite(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, f.community, "2025-03-10T09:00:00Z")

	racing := &racingRides{Repository: f.env.Store.Rides}
	racing.touch = func(ctx context.Context, cur domain.Ride) {
		cur.Notes = domain.Ptr("written elsewhere")
		cur.UpdatedAt = cur.UpdatedAt.Add(time.Second)
		if err := f.env.Store.Rides.Update(ctx, cur); err != nil {
			t.Errorf("concurrent write err=%v", err)
		}
	}
	svc := NewService(Deps{
		Rides:    racing,
		Patients: f.env.Store.Patients,
		Drivers:  f.env.Store.Drivers,
		Events:   f.env.Store.RideEvents,
		Seq:      f.env.Store.Sequences,
		Audit:    f.env.Audit,
		Clock:    f.env.Clock,
	})

	_, err := svc.Update(ctx, f.officer, r.ID, UpdateInput{Notes: patch.Some("mine")})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)

	stored, _ := f.env.Store.Rides.GetByID(ctx, r.ID)
	if stored.Notes == nil || *stored.Notes != "written elsewhere" {
		t.Fatalf("notes=%v, want the concurrent write to survive", stored.Notes)
	}
}

func TestService_UpdateRoleRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, f.community, "2025-03-10T09:00:00Z")

	cases := []struct {
		name   string
		p      domain.Principal
		in     UpdateInput
		status int
		code   string
	}{
		{"executive", apptest.RolePrincipal(domain.RoleExecutive), UpdateInput{Notes: patch.Some("x")}, http.StatusForbidden, apperr.CodeForbidden},
		{"other community", f.other, UpdateInput{Notes: patch.Some("x")}, http.StatusNotFound, apperr.CodeNotFound},
		{"community assigns", f.community, UpdateInput{DriverID: patch.Some(string(f.driverID))}, http.StatusForbidden, apperr.CodeForbidden},
		{"community completes", f.community, UpdateInput{Status: patch.Some("COMPLETED")}, http.StatusForbidden, apperr.CodeForbidden},
		{"driver assigns", f.driver, UpdateInput{DriverID: patch.Some(string(f.driverID))}, http.StatusForbidden, apperr.CodeForbidden},
		{"driver not assigned", f.driver, UpdateInput{Status: patch.Some("IN_PROGRESS")}, http.StatusForbidden, apperr.CodeForbidden},
		{"bad transition", f.officer, UpdateInput{Status: patch.Some("COMPLETED")}, http.StatusUnprocessableEntity, apperr.CodeInvalidStatusTransition},
		{"assigned without driver", f.officer, UpdateInput{Status: patch.Some("ASSIGNED")}, http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"blank destination", f.officer, UpdateInput{Destination: patch.Some(" ")}, http.StatusUnprocessableEntity, apperr.CodeValidation},
	}
	for _, tc := range cases {
		_, err := f.svc.Update(ctx, tc.p, r.ID, tc.in)
		if ae, ok := apperr.As(err); !ok || ae.Status != tc.status || ae.Code != tc.code {
			t.Fatalf("%s: err=%v, want %d %s", tc.name, err, tc.status, tc.code)
		}
	}

	got, err := f.svc.Update(ctx, f.community, r.ID, UpdateInput{Notes: patch.Some("wheelchair"), CaregiverCount: patch.Some(1)})
	if err != nil {
		t.Fatalf("community edit err=%v", err)
	}
	if got.Notes == nil || *got.Notes != "wheelchair" || got.CaregiverCount != 1 {
		t.Fatalf("edited=%+v", got)
	}
}

func TestService_DriverLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, f.community, "2025-03-10T09:00:00Z")
	if _, err := f.svc.Assign(ctx, f.officer, r.ID, f.driverID); err != nil {
		t.Fatalf("assign err=%v", err)
	}

	for _, st := range []string{"EN_ROUTE_TO_PICKUP", "ARRIVED_AT_PICKUP", "IN_PROGRESS"} {
		if _, err := f.svc.UpdateStatus(ctx, f.driver, r.ID, st, ""); err != nil {
			t.Fatalf("UpdateStatus(%s) err=%v", st, err)
		}
	}
	d, _ := f.env.Store.Drivers.GetByID(ctx, f.driverID)
	if d.Status != domain.DriverStatusOnTrip {
		t.Fatalf("driver status=%s, want ON_TRIP", d.Status)
	}

	done, err := f.svc.UpdateStatus(ctx, f.driver, r.ID, "completed", "patient delivered")
	if err != nil {
		t.Fatalf("complete err=%v", err)
	}
	if done.Status != domain.RideStatusCompleted {
		t.Fatalf("status=%s", done.Status)
	}
	d, _ = f.env.Store.Drivers.GetByID(ctx, f.driverID)
	if d.Status != domain.DriverStatusAvailable {
		t.Fatalf("driver status=%s, want AVAILABLE", d.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, f.driver, r.ID, "CANCELLED", "")
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeInvalidStatusTransition)

	history, err := f.env.Store.RideEvents.ListByRide(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListByRide err=%v", err)
	}
	if len(history) != 6 {
		t.Fatalf("history len=%d", len(history))
	}
	last := f.pub.aud[len(f.pub.aud)-1]
	if !slices.Contains(last.UserIDs, f.driverUID) {
		t.Fatalf("driver user not in audience: %+v", last)
	}

	wantAudit := []domain.AuditAction{
		domain.ActionCreateRide,
		domain.ActionAssignDriver,
		domain.ActionUpdateRide,
		domain.ActionUpdateRide,
		domain.ActionUpdateRide,
		domain.ActionCompleteRide,
	}
	if diff := cmp.Diff(wantAudit, f.env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestService_UnassignReturnsToPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, f.community, "2025-03-10T09:00:00Z")
	if _, err := f.svc.Assign(ctx, f.officer, r.ID, f.driverID); err != nil {
		t.Fatalf("assign err=%v", err)
	}
	got, err := f.svc.Update(ctx, f.officer, r.ID, UpdateInput{DriverID: patch.Null[string]()})
	if err != nil {
		t.Fatalf("unassign err=%v", err)
	}
	if got.Status != domain.RideStatusPending || got.DriverID != nil || got.DriverName != nil {
		t.Fatalf("unassigned=%+v", got)
	}
}

func TestService_DeleteAndRate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	pending := f.create(t, f.community, "2025-03-10T09:00:00Z")
	served := f.create(t, f.community, "2025-03-12T09:00:00Z")

	err := f.svc.Delete(ctx, f.officer, pending.ID)
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)
	err = f.svc.Delete(ctx, f.other, pending.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
	if err := f.svc.Delete(ctx, f.community, pending.ID); err != nil {
		t.Fatalf("community Delete err=%v", err)
	}

	_, err = f.svc.Rate(ctx, f.community, served.ID, RateInput{Rating: 5})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	if _, err := f.svc.Assign(ctx, f.officer, served.ID, f.driverID); err != nil {
		t.Fatalf("assign err=%v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.driver, served.ID, "IN_PROGRESS", ""); err != nil {
		t.Fatalf("start err=%v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.driver, served.ID, "COMPLETED", ""); err != nil {
		t.Fatalf("complete err=%v", err)
	}

	err = f.svc.Delete(ctx, f.community, served.ID)
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)

	_, err = f.svc.Rate(ctx, f.community, served.ID, RateInput{Rating: 6})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
	rated, err := f.svc.Rate(ctx, f.community, served.ID, RateInput{Rating: 4, Tags: []string{"kind", " "}, Comment: "Thank you"})
	if err != nil {
		t.Fatalf("Rate err=%v", err)
	}
	if rated.Rating == nil || *rated.Rating != 4 || len(rated.ReviewTags) != 1 {
		t.Fatalf("rated=%+v", rated)
	}
	_, err = f.svc.Rate(ctx, f.community, served.ID, RateInput{Rating: 3})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)

	if err := f.svc.Delete(ctx, apptest.RolePrincipal(domain.RoleAdmin), served.ID); err != nil {
		t.Fatalf("admin Delete err=%v", err)
	}
}
