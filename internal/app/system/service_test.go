package system

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/lockout"
	"github.com/wecare-ems/wecare-api/internal/app/password"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/seed"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newService(t *testing.T, opts Options) (*Service, *apptest.Env, *lockout.Tracker) {
	t.Helper()
	env := apptest.NewEnv(t)
	fixtures, err := seed.Load()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	tracker := lockout.NewTracker(lockout.DefaultConfig(), env.Clock, nil)
	svc := NewService(Deps{
		Options:  opts,
		Resetter: env.Store,
		Pinger:   env.Store,
		Seeder:   newSeeder(env),
		Fixtures: fixtures,
		Audit:    env.Audit,
		Lockout:  tracker,
		Clock:    env.Clock,
	})
	return svc, env, tracker
}

func newSeeder(env *apptest.Env) *Seeder {
	return NewSeeder(SeedDeps{
		Users:    env.Store.Users,
		Vehicles: env.Store.Vehicles,
		Drivers:  env.Store.Drivers,
		Settings: env.Store.Settings,
		Seq:      env.Store.Sequences,
		Clock:    env.Clock,
	})
}

var loginEntry = audit.Entry{UserEmail: "officer@wecare.ems", UserRole: domain.RoleOfficer, Action: domain.ActionLogin}

var devOptions = Options{EnableReset: true, EnableSeed: true, ConfirmPhrase: "CONFIRM_RESET_DB"}

func TestSeeder_ApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	fixtures, err := seed.Load()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	s := newSeeder(env)
	ctx := context.Background()

	first, err := s.Apply(ctx, fixtures)
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	want := ApplyResult{
		Users:        SeedResult{Created: 7},
		VehicleTypes: SeedResult{Created: 3},
		Vehicles:     SeedResult{Created: 2},
		Drivers:      SeedResult{Created: 2},
		Settings:     true,
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("first apply mismatch (-want +got):\n%s", diff)
	}

	second, err := s.Apply(ctx, fixtures)
	if err != nil {
		t.Fatalf("second Apply err=%v", err)
	}
	want = ApplyResult{
		Users:        SeedResult{Skipped: 7},
		VehicleTypes: SeedResult{Skipped: 3},
		Vehicles:     SeedResult{Skipped: 2},
		Drivers:      SeedResult{Skipped: 2},
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Fatalf("second apply mismatch (-want +got):\n%s", diff)
	}

	u, err := env.Store.Users.GetByEmail(ctx, "driver1@wecare.ems")
	if err != nil {
		t.Fatalf("seeded driver user: %v", err)
	}
	if !password.Compare(u.PasswordHash, "Driver@Wecare9") {
		t.Fatalf("seeded password does not verify")
	}
	d, err := env.Store.Drivers.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("driver not linked to user: %v", err)
	}
	if d.FullName != "Somsak Driver" || d.Status != domain.DriverStatusAvailable {
		t.Fatalf("driver=%+v", d)
	}
}

func TestSeeder_UnknownVehicleType(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	f := seed.Fixtures{Vehicles: []seed.Vehicle{{LicensePlate: "X-1", Type: "Hovercraft"}}}
	if _, err := newSeeder(env).Apply(context.Background(), f); err == nil {
		t.Fatal("expected error for unknown vehicle type")
	}
}

func TestService_ResetDatabaseGates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   Options
		in     ResetInput
		status int
		code   string
	}{
		{
			name:   "production",
			opts:   Options{Production: true, EnableReset: true, ConfirmPhrase: "CONFIRM_RESET_DB"},
			in:     ResetInput{Confirm: "CONFIRM_RESET_DB", Reason: "clean slate for demo"},
			status: http.StatusForbidden, code: apperr.CodeForbidden,
		},
		{
			name:   "not enabled",
			opts:   Options{ConfirmPhrase: "CONFIRM_RESET_DB"},
			in:     ResetInput{Confirm: "CONFIRM_RESET_DB", Reason: "clean slate for demo"},
			status: http.StatusForbidden, code: apperr.CodeForbidden,
		},
		{
			name:   "wrong phrase",
			opts:   devOptions,
			in:     ResetInput{Confirm: "yes", Reason: "clean slate for demo"},
			status: http.StatusBadRequest, code: apperr.CodeBadRequest,
		},
		{
			name:   "short reason",
			opts:   devOptions,
			in:     ResetInput{Confirm: "CONFIRM_RESET_DB", Reason: "  because  "},
			status: http.StatusBadRequest, code: apperr.CodeBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, env, _ := newService(t, tc.opts)
			_, err := svc.ResetDatabase(context.Background(), apptest.RolePrincipal(domain.RoleDeveloper), tc.in)
			apptest.ExpectError(t, err, tc.status, tc.code)
			if len(env.AuditActions(t)) != 0 {
				t.Fatal("rejected reset was audited")
			}
		})
	}
}

func TestService_ResetDatabase(t *testing.T) {
	t.Parallel()

	svc, env, _ := newService(t, devOptions)
	ctx := context.Background()
	admin := env.CreateUser(t, "USR-900", "temp-admin@wecare.ems", domain.RoleAdmin, "Temp@Admin99")
	p := domain.Patient{ID: "PAT-001", FullName: "Before Reset", CreatedBy: admin.ID}
	if err := env.Store.Patients.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	env.Audit.Record(ctx, loginEntry)

	res, err := svc.ResetDatabase(ctx, apptest.Principal(admin), ResetInput{Confirm: "CONFIRM_RESET_DB", Reason: "reset before training session"})
	if err != nil {
		t.Fatalf("ResetDatabase err=%v", err)
	}
	if res.Seeded.Users.Created != 7 || !res.ResetAt.Equal(apptest.Epoch) {
		t.Fatalf("result=%+v", res)
	}
	if _, total, _ := env.Store.Patients.List(ctx, patientrepo.Filter{}); total != 0 {
		t.Fatalf("patients survived reset: %d", total)
	}
	if _, err := env.Store.Users.GetByEmail(ctx, "temp-admin@wecare.ems"); err == nil {
		t.Fatal("non-fixture user survived reset")
	}
	if diff := cmp.Diff([]domain.AuditAction{domain.ActionResetDatabase}, env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
	report, err := env.Audit.VerifyIntegrity(ctx)
	if err != nil || !report.Valid {
		t.Fatalf("chain after reset=%+v err=%v", report, err)
	}
}

func TestService_SeedUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := apptest.RolePrincipal(domain.RoleDeveloper)

	disabled, _, _ := newService(t, Options{})
	_, err := disabled.SeedUsers(ctx, dev)
	apptest.ExpectError(t, err, http.StatusForbidden, apperr.CodeForbidden)

	svc, env, _ := newService(t, devOptions)
	res, err := svc.SeedUsers(ctx, dev)
	if err != nil {
		t.Fatalf("SeedUsers err=%v", err)
	}
	if diff := cmp.Diff(SeedResult{Created: 7}, res); diff != "" {
		t.Fatalf("first seed mismatch (-want +got):\n%s", diff)
	}
	res, err = svc.SeedUsers(ctx, dev)
	if err != nil {
		t.Fatalf("SeedUsers err=%v", err)
	}
	if diff := cmp.Diff(SeedResult{Skipped: 7}, res); diff != "" {
		t.Fatalf("second seed mismatch (-want +got):\n%s", diff)
	}
	want := []domain.AuditAction{domain.ActionSeedUsers, domain.ActionSeedUsers}
	if diff := cmp.Diff(want, env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Logs(t *testing.T) {
	t.Parallel()

	svc, env, _ := newService(t, devOptions)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env.Audit.Record(ctx, loginEntry)
		env.Clock.Advance(time.Second)
	}
	logs, err := svc.Logs(ctx, 2)
	if err != nil {
		t.Fatalf("Logs err=%v", err)
	}
	if len(logs) != 2 || logs[0].SequenceNumber != 3 {
		t.Fatalf("logs=%+v", logs)
	}
}

func TestService_Health(t *testing.T) {
	t.Parallel()

	svc, env, _ := newService(t, devOptions)
	env.Clock.Advance(90 * time.Second)
	h := svc.Health(context.Background())
	if h.Status != "ok" || h.Storage != "ok" || h.UptimeSeconds != 90 || h.Goroutines < 1 || h.MemoryAllocBytes == 0 {
		t.Fatalf("health=%+v", h)
	}

	svc.pinger = failingPinger{}
	h = svc.Health(context.Background())
	if h.Status != "degraded" || h.Storage != "unavailable" {
		t.Fatalf("health=%+v", h)
	}
}

func TestService_Unlock(t *testing.T) {
	t.Parallel()

	svc, env, tracker := newService(t, devOptions)
	ctx := context.Background()
	admin := apptest.RolePrincipal(domain.RoleAdmin)

	for i := 0; i < lockout.DefaultConfig().MaxAttempts; i++ {
		tracker.RecordFailedAttempt("Locked@WeCare.ems")
	}
	locked := svc.LockedAccounts()
	if len(locked) != 1 || locked[0].Email != "locked@wecare.ems" {
		t.Fatalf("locked=%+v", locked)
	}
	if st := svc.LockoutStats(); st.LockedAccounts != 1 || st.Config.MaxAttempts != 5 {
		t.Fatalf("stats=%+v", st)
	}

	if err := svc.Unlock(ctx, admin, "LOCKED@wecare.ems"); err != nil {
		t.Fatalf("Unlock err=%v", err)
	}
	if tracker.IsLocked("locked@wecare.ems").Locked {
		t.Fatal("account still locked")
	}
	err := svc.Unlock(ctx, admin, "locked@wecare.ems")
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
	err = svc.Unlock(ctx, admin, " ")
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	if diff := cmp.Diff([]domain.AuditAction{domain.ActionUnlockAccount}, env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CSRFToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, devOptions)
	a, b := svc.CSRFToken(), svc.CSRFToken()
	if _, err := uuid.Parse(a); err != nil || a == b {
		t.Fatalf("tokens %q %q err=%v", a, b, err)
	}
}
