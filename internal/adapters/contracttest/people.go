package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/wecare-ems/wecare-api/internal/domain"
	driverrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	patientrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
	userrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type PatientRepoFactory func(t *testing.T) (patientrepoport.Repository, CleanupFunc)
type DriverRepoFactory func(t *testing.T) (driverrepoport.Repository, CleanupFunc)

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	alice := domain.User{
		ID:           "USR-001",
		Email:        " Alice@Example.com ",
		FullName:     "Alice Admin",
		Phone:        domain.Ptr("0812345678"),
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		PasswordHash: "hash-a",
		CreatedAt:    at(0),
		UpdatedAt:    at(0),
	}
	if err := repo.Create(ctx, alice); err != nil {
		t.Fatalf("Create alice: %v", err)
	}
	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != alice.ID || got.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %#v", got)
	}
	if got.Phone == nil || *got.Phone != "0812345678" || !got.CreatedAt.Equal(at(0)) {
		t.Fatalf("fields did not round-trip: %#v", got)
	}

	dup := alice
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, userrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate id: expected ErrAlreadyExists, got %v", err)
	}
	taken := alice
	taken.ID = "USR-009"
	taken.Email = "alice@example.com"
	if err := repo.Create(ctx, taken); !errors.Is(err, userrepoport.ErrEmailTaken) {
		t.Fatalf("duplicate email: expected ErrEmailTaken, got %v", err)
	}

	bob := domain.User{
		ID:           "USR-002",
		Email:        "bob@example.com",
		FullName:     "Bob Officer",
		Role:         domain.RoleOfficer,
		Status:       domain.UserStatusActive,
		PasswordHash: "hash-b",
		CreatedAt:    at(10),
		UpdatedAt:    at(10),
	}
	if err := repo.Create(ctx, bob); err != nil {
		t.Fatalf("Create bob: %v", err)
	}

	// Email change collides with alice.
	bob.Email = "alice@example.com"
	if err := repo.Update(ctx, bob); !errors.Is(err, userrepoport.ErrEmailTaken) {
		t.Fatalf("update to taken email: expected ErrEmailTaken, got %v", err)
	}
	bob.Email = "robert@example.com"
	bob.Status = domain.UserStatusInactive
	if err := repo.Update(ctx, bob); err != nil {
		t.Fatalf("Update bob: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "bob@example.com"); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("old email should be released, got %v", err)
	}
	got, err = repo.GetByID(ctx, bob.ID)
	if err != nil || got.Email != "robert@example.com" || got.Status != domain.UserStatusInactive {
		t.Fatalf("GetByID after update: %#v err=%v", got, err)
	}

	ghost := bob
	ghost.ID = "USR-404"
	ghost.Email = "ghost@example.com"
	if err := repo.Update(ctx, ghost); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("update missing: expected ErrNotFound, got %v", err)
	}

	users, total, err := repo.List(ctx, userrepoport.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(users) != 2 || users[0].ID != alice.ID || users[1].ID != bob.ID {
		t.Fatalf("unexpected list: total=%d %#v", total, users)
	}
	role := domain.RoleOfficer
	users, total, err = repo.List(ctx, userrepoport.Filter{Role: &role})
	if err != nil || total != 1 || users[0].ID != bob.ID {
		t.Fatalf("List by role: total=%d err=%v", total, err)
	}
	users, total, err = repo.List(ctx, userrepoport.Filter{Query: "ALICE"})
	if err != nil || total != 1 || users[0].ID != alice.ID {
		t.Fatalf("List by query: total=%d err=%v", total, err)
	}
	users, total, err = repo.List(ctx, userrepoport.Filter{Limit: 1, Offset: 1})
	if err != nil || total != 2 || len(users) != 1 || users[0].ID != bob.ID {
		t.Fatalf("List page: total=%d len=%d err=%v", total, len(users), err)
	}

	if err := repo.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, alice.ID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, alice.ID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("Delete twice: expected ErrNotFound, got %v", err)
	}
	// The email is free again.
	taken.Email = "alice@example.com"
	if err := repo.Create(ctx, taken); err != nil {
		t.Fatalf("re-create with released email: %v", err)
	}
}

func RunPatientRepo(t *testing.T, newRepo PatientRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	p1 := domain.Patient{
		ID:              "PAT-001",
		FullName:        "Somchai Jaidee",
		Title:           domain.Ptr("นาย"),
		NationalID:      domain.Ptr("1100700000001"),
		DOB:             domain.Ptr(domain.DateOnly(at(-40 * 365 * 24 * 3600))),
		Age:             domain.Ptr(40),
		CurrentAddress:  domain.Address{HouseNumber: "12/3", Village: "Moo 4", Tambon: "Ban Mai", Amphoe: "Muang", Changwat: "Chiang Mai"},
		Latitude:        domain.Ptr(18.79),
		Longitude:       domain.Ptr(98.98),
		ChronicDiseases: []string{"Diabetes", "Hypertension"},
		Allergies:       []string{"Penicillin"},
		RegisteredDate:  at(0),
		CreatedBy:       "USR-001",
		CreatedAt:       at(0),
		UpdatedAt:       at(0),
	}
	if err := repo.Create(ctx, p1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, p1); !errors.Is(err, patientrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate: expected ErrAlreadyExists, got %v", err)
	}
	got, err := repo.GetByID(ctx, p1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CurrentAddress != p1.CurrentAddress || len(got.ChronicDiseases) != 2 || got.ChronicDiseases[1] != "Hypertension" {
		t.Fatalf("fields did not round-trip: %#v", got)
	}
	if got.Title == nil || *got.Title != "นาย" || got.Latitude == nil || *got.Latitude != 18.79 {
		t.Fatalf("pointer fields did not round-trip: %#v", got)
	}
	if got.DOB == nil || !got.DOB.Equal(*p1.DOB) || got.Gender != nil {
		t.Fatalf("optional fields did not round-trip: %#v", got)
	}

	p2 := domain.Patient{
		ID:             "PAT-002",
		FullName:       "Malee Suksai",
		RegisteredDate: at(100),
		CreatedBy:      "USR-002",
		CreatedAt:      at(100),
		UpdatedAt:      at(100),
	}
	if err := repo.Create(ctx, p2); err != nil {
		t.Fatalf("Create p2: %v", err)
	}

	list, total, err := repo.List(ctx, patientrepoport.Filter{})
	if err != nil || total != 2 || list[0].ID != p2.ID {
		t.Fatalf("List newest first: total=%d err=%v %#v", total, err, list)
	}
	creator := domain.UserID("USR-001")
	list, total, err = repo.List(ctx, patientrepoport.Filter{CreatedBy: &creator})
	if err != nil || total != 1 || list[0].ID != p1.ID {
		t.Fatalf("List by creator: total=%d err=%v", total, err)
	}
	after := at(50)
	list, total, err = repo.List(ctx, patientrepoport.Filter{CreatedAfter: &after})
	if err != nil || total != 1 || list[0].ID != p2.ID {
		t.Fatalf("List created after: total=%d err=%v", total, err)
	}
	list, total, err = repo.List(ctx, patientrepoport.Filter{Query: "1100700"})
	if err != nil || total != 1 || list[0].ID != p1.ID {
		t.Fatalf("List by national id: total=%d err=%v", total, err)
	}

	p1.FullName = "Somchai Jaidee Jr."
	p1.Allergies = nil
	if err := repo.Update(ctx, p1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, p1.ID)
	if got.FullName != "Somchai Jaidee Jr." || len(got.Allergies) != 0 {
		t.Fatalf("update did not persist: %#v", got)
	}

	if err := repo.Delete(ctx, p2.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, p2.ID); !errors.Is(err, patientrepoport.ErrNotFound) {
		t.Fatalf("Delete twice: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, p2); !errors.Is(err, patientrepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
}

func RunDriverRepo(t *testing.T, newRepo DriverRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	uid := domain.UserID("USR-DRIVER")
	d1 := domain.Driver{
		ID:           "DRV-001",
		UserID:       &uid,
		FullName:     "Somsak Driver",
		Phone:        "0890000001",
		Email:        domain.Ptr("Somsak@Example.com"),
		LicensePlate: domain.Ptr("กข 1234"),
		Status:       domain.DriverStatusAvailable,
		CreatedAt:    at(0),
		UpdatedAt:    at(0),
	}
	if err := repo.Create(ctx, d1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByUserID(ctx, uid)
	if err != nil || got.ID != d1.ID {
		t.Fatalf("GetByUserID: %#v err=%v", got, err)
	}
	got, err = repo.GetByEmail(ctx, "somsak@example.com")
	if err != nil || got.ID != d1.ID || got.Email == nil || *got.Email != "somsak@example.com" {
		t.Fatalf("GetByEmail: %#v err=%v", got, err)
	}

	d2 := domain.Driver{
		ID:        "DRV-002",
		FullName:  "anan Backup",
		Phone:     "0890000002",
		Status:    domain.DriverStatusOffline,
		CreatedAt: at(10),
		UpdatedAt: at(10),
	}
	if err := repo.Create(ctx, d2); err != nil {
		t.Fatalf("Create d2: %v", err)
	}

	clash := d2
	clash.LicensePlate = domain.Ptr("กข 1234")
	if err := repo.Update(ctx, clash); !errors.Is(err, driverrepoport.ErrAlreadyExists) {
		t.Fatalf("plate clash: expected ErrAlreadyExists, got %v", err)
	}
	clash = d2
	clash.UserID = &uid
	if err := repo.Update(ctx, clash); !errors.Is(err, driverrepoport.ErrAlreadyExists) {
		t.Fatalf("user clash: expected ErrAlreadyExists, got %v", err)
	}
	clash = d2
	clash.ID = "DRV-003"
	clash.Email = domain.Ptr("somsak@example.com")
	if err := repo.Create(ctx, clash); !errors.Is(err, driverrepoport.ErrAlreadyExists) {
		t.Fatalf("email clash: expected ErrAlreadyExists, got %v", err)
	}

	list, total, err := repo.List(ctx, driverrepoport.Filter{})
	if err != nil || total != 2 || list[0].ID != d2.ID || list[1].ID != d1.ID {
		t.Fatalf("List by name: total=%d err=%v %#v", total, err, list)
	}
	status := domain.DriverStatusAvailable
	list, total, err = repo.List(ctx, driverrepoport.Filter{Status: &status})
	if err != nil || total != 1 || list[0].ID != d1.ID {
		t.Fatalf("List by status: total=%d err=%v", total, err)
	}
	list, total, err = repo.List(ctx, driverrepoport.Filter{Query: "backup"})
	if err != nil || total != 1 || list[0].ID != d2.ID {
		t.Fatalf("List by query: total=%d err=%v", total, err)
	}

	if err := repo.Delete(ctx, d1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, d1.ID); !errors.Is(err, driverrepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByUserID(ctx, uid); !errors.Is(err, driverrepoport.ErrNotFound) {
		t.Fatalf("GetByUserID after delete: expected ErrNotFound, got %v", err)
	}
}
