package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

// seed stores three drivers, two patients and six rides around the Env epoch (2025-03-01).
func seed(t *testing.T) (*apptest.Env, *Service) {
	t.Helper()
	env := apptest.NewEnv(t)
	ctx := context.Background()

	env.CreateDriver(t, "DRV-001", "Anan", nil)
	env.CreateDriver(t, "DRV-002", "Boon", nil)
	offline := domain.Driver{
		ID: "DRV-003", FullName: "Chai", Phone: "0800000003",
		Status: domain.DriverStatusOffline, CreatedAt: env.Clock.Now(), UpdatedAt: env.Clock.Now(),
	}
	if err := env.Store.Drivers.Create(ctx, offline); err != nil {
		t.Fatalf("create driver: %v", err)
	}

	for i, types := range [][]string{{"bedridden", "elderly"}, {"elderly"}} {
		p := domain.Patient{
			ID:             domain.PatientID(domain.FormatID(domain.PrefixPatient, int64(i+1))),
			FullName:       "Patient",
			PatientTypes:   types,
			RegisteredDate: env.Clock.Now(),
			CreatedBy:      "USR-001",
			CreatedAt:      env.Clock.Now(),
			UpdatedAt:      env.Clock.Now(),
		}
		if err := env.Store.Patients.Create(ctx, p); err != nil {
			t.Fatalf("create patient: %v", err)
		}
	}

	anan, boon := domain.DriverID("DRV-001"), domain.DriverID("DRV-002")
	rides := []struct {
		at     time.Time
		status domain.RideStatus
		driver *domain.DriverID
		name   string
		rating int
	}{
		{day(2025, 3, 1, 9), domain.RideStatusCompleted, &anan, "Anan", 5},
		{day(2025, 3, 1, 12), domain.RideStatusCompleted, &anan, "Anan", 4},
		{day(2025, 2, 27, 10), domain.RideStatusCancelled, nil, "", 0},
		{day(2025, 2, 28, 10), domain.RideStatusPending, nil, "", 0},
		{day(2025, 3, 1, 15), domain.RideStatusAssigned, &boon, "Boon", 0},
		{day(2025, 1, 15, 10), domain.RideStatusCompleted, &boon, "Boon", 3},
	}
	for i, r := range rides {
		ride := domain.Ride{
			ID:              domain.RideID(domain.FormatID(domain.PrefixRide, int64(i+1))),
			PatientName:     "Patient",
			PickupLocation:  "Village 3",
			Destination:     "Khon Kaen Hospital",
			AppointmentTime: r.at,
			Status:          r.status,
			DriverID:        r.driver,
			CreatedBy:       "USR-001",
			CreatedAt:       env.Clock.Now(),
			UpdatedAt:       env.Clock.Now(),
		}
		if r.name != "" {
			ride.DriverName = domain.Ptr(r.name)
		}
		if r.rating > 0 {
			ride.Rating = domain.Ptr(r.rating)
		}
		if err := env.Store.Rides.Create(ctx, ride); err != nil {
			t.Fatalf("create ride: %v", err)
		}
	}

	svc := NewService(Deps{
		Rides:     env.Store.Rides,
		Drivers:   env.Store.Drivers,
		Patients:  env.Store.Patients,
		Locations: env.Store.Locations,
		Clock:     env.Clock,
	})
	return env, svc
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary err=%v", err)
	}
	want := Summary{
		RidesByStatus: map[domain.RideStatus]int{
			domain.RideStatusPending:         1,
			domain.RideStatusAssigned:        1,
			domain.RideStatusEnRouteToPickup: 0,
			domain.RideStatusArrivedAtPickup: 0,
			domain.RideStatusInProgress:      0,
			domain.RideStatusCompleted:       3,
			domain.RideStatusCancelled:       1,
		},
		TotalRides:    6,
		TodayRides:    3,
		PendingRides:  1,
		ActiveDrivers: 2,
		TotalPatients: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Executive(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	got, err := svc.Executive(context.Background())
	if err != nil {
		t.Fatalf("Executive err=%v", err)
	}
	if got.TotalRides != 6 || got.CompletionRate != 50 || got.CancellationRate != 16.7 {
		t.Fatalf("totals=%d completion=%v cancellation=%v", got.TotalRides, got.CompletionRate, got.CancellationRate)
	}
	if got.AverageRating == nil || *got.AverageRating != 4 {
		t.Fatalf("average rating=%v", got.AverageRating)
	}
	if len(got.Monthly) != 12 || got.Monthly[0].Month != "2024-04" {
		t.Fatalf("monthly=%+v", got.Monthly)
	}
	wantTail := []MonthTotal{
		{Month: "2025-01", Total: 1, Completed: 1},
		{Month: "2025-02", Total: 2, Cancelled: 1},
		{Month: "2025-03", Total: 3, Completed: 2},
	}
	if diff := cmp.Diff(wantTail, got.Monthly[9:]); diff != "" {
		t.Fatalf("monthly tail mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"bedridden": 1, "elderly": 2}, got.PatientsByType); diff != "" {
		t.Fatalf("patient types mismatch (-want +got):\n%s", diff)
	}
	wantTop := []DriverStat{
		{DriverID: "DRV-001", DriverName: "Anan", Completed: 2, AverageRating: domain.Ptr(4.5)},
		{DriverID: "DRV-002", DriverName: "Boon", Completed: 1, AverageRating: domain.Ptr(3.0)},
	}
	if diff := cmp.Diff(wantTop, got.TopDrivers); diff != "" {
		t.Fatalf("top drivers mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ExecutiveEmpty(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	svc := NewService(Deps{
		Rides: env.Store.Rides, Drivers: env.Store.Drivers, Patients: env.Store.Patients,
		Locations: env.Store.Locations, Clock: env.Clock,
	})
	got, err := svc.Executive(context.Background())
	if err != nil {
		t.Fatalf("Executive err=%v", err)
	}
	if got.CompletionRate != 0 || got.CancellationRate != 0 || got.AverageRating != nil || len(got.TopDrivers) != 0 {
		t.Fatalf("empty executive=%+v", got)
	}
}

func TestService_MapData(t *testing.T) {
	t.Parallel()

	env, svc := seed(t)
	ctx := context.Background()
	loc := domain.DriverLocation{DriverID: "DRV-002", Latitude: 16.44, Longitude: 102.83, UpdatedAt: env.Clock.Now()}
	if err := env.Store.Locations.Upsert(ctx, loc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := svc.MapData(ctx)
	if err != nil {
		t.Fatalf("MapData err=%v", err)
	}
	if len(got.ActiveRides) != 2 || len(got.Locations) != 1 {
		t.Fatalf("map data rides=%d locations=%d", len(got.ActiveRides), len(got.Locations))
	}
	for _, r := range got.ActiveRides {
		if !r.Status.IsActive() {
			t.Fatalf("inactive ride %s on map", r.ID)
		}
	}
}

func TestService_OfficeReport(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	ctx := context.Background()

	got, err := svc.OfficeReport(ctx, nil, nil)
	if err != nil {
		t.Fatalf("OfficeReport err=%v", err)
	}
	if got.From != "2025-02-23" || got.To != "2025-03-01" || got.Total != 5 || len(got.PerDay) != 7 {
		t.Fatalf("report range=%s..%s total=%d days=%d", got.From, got.To, got.Total, len(got.PerDay))
	}
	if diff := cmp.Diff(DayCount{Date: "2025-03-01", Total: 3, Completed: 2}, got.PerDay[6]); diff != "" {
		t.Fatalf("last day mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DayCount{Date: "2025-02-27", Total: 1, Cancelled: 1}, got.PerDay[4]); diff != "" {
		t.Fatalf("cancel day mismatch (-want +got):\n%s", diff)
	}
	wantDrivers := []DriverCount{
		{DriverID: "DRV-001", DriverName: "Anan", Rides: 2, Completed: 2},
		{DriverID: "DRV-002", DriverName: "Boon", Rides: 1},
	}
	if diff := cmp.Diff(wantDrivers, got.PerDriver); diff != "" {
		t.Fatalf("per driver mismatch (-want +got):\n%s", diff)
	}

	from, to := day(2025, 1, 1, 0), day(2025, 1, 31, 0)
	got, err = svc.OfficeReport(ctx, &from, &to)
	if err != nil || got.Total != 1 || len(got.PerDay) != 31 {
		t.Fatalf("january report total=%d days=%d err=%v", got.Total, len(got.PerDay), err)
	}

	tests := []struct {
		name     string
		from, to time.Time
	}{
		{"reversed", day(2025, 3, 2, 0), day(2025, 3, 1, 0)},
		{"too long", day(2023, 1, 1, 0), day(2025, 3, 1, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.OfficeReport(ctx, &tc.from, &tc.to)
			apptest.ExpectError(t, err, http.StatusBadRequest, apperr.CodeBadRequest)
		})
	}
}

func TestService_ExportCSV(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	f, err := svc.Export(context.Background(), "Rides", "")
	if err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if f.Filename != "wecare-rides-20250301.csv" || f.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("file=%s type=%s", f.Filename, f.ContentType)
	}
	lines := strings.Split(strings.TrimSpace(string(f.Body)), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines=%d, want header+6", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,patientName,pickupLocation,destination,appointmentTime,status") {
		t.Fatalf("header=%q", lines[0])
	}
}

func TestService_ExportJSON(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	f, err := svc.Export(context.Background(), "drivers", "json")
	if err != nil {
		t.Fatalf("Export err=%v", err)
	}
	if f.Filename != "wecare-drivers-20250301.json" || f.ContentType != "application/json" {
		t.Fatalf("file=%s type=%s", f.Filename, f.ContentType)
	}
	var recs []map[string]string
	if err := json.Unmarshal(f.Body, &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := map[string]string{}
	for _, r := range recs {
		got[r["id"]] = r["completedRides"]
	}
	if diff := cmp.Diff(map[string]string{"DRV-001": "2", "DRV-002": "1", "DRV-003": "0"}, got); diff != "" {
		t.Fatalf("completed rides mismatch (-want +got):\n%s", diff)
	}

	f, err = svc.Export(context.Background(), "summary", "json")
	if err != nil || !strings.Contains(string(f.Body), `"metric":"completionRate"`) {
		t.Fatalf("summary body=%s err=%v", f.Body, err)
	}
}

func TestService_ExportRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, svc := seed(t)
	tests := []struct{ kind, format string }{
		{"patients", "csv"},
		{"rides", "xml"},
	}
	for _, tc := range tests {
		t.Run(tc.kind+"/"+tc.format, func(t *testing.T) {
			_, err := svc.Export(context.Background(), tc.kind, tc.format)
			apptest.ExpectError(t, err, http.StatusBadRequest, apperr.CodeBadRequest)
		})
	}
}
