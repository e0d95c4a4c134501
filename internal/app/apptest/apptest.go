// Package apptest wires in-memory dependencies for application service tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wecare-ems/wecare-api/internal/adapters/memory"
	memclock "github.com/wecare-ems/wecare-api/internal/adapters/memory/clock"
	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

// Epoch is the initial time of every Env clock.
var Epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type Env struct {
	Store *memory.Store
	Clock *memclock.ManualClock
	Audit *audit.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	store := memory.NewStore()
	clk := memclock.NewManualClock(Epoch)
	return &Env{
		Store: store,
		Clock: clk,
		Audit: audit.NewService(store.Audit, clk, nil),
	}
}

// CreateUser stores an active user whose password is pw.
func (e *Env) CreateUser(t *testing.T, id, email string, role domain.Role, pw string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := domain.User{
		ID:           domain.UserID(id),
		Email:        email,
		FullName:     "User " + id,
		Role:         role,
		Status:       domain.UserStatusActive,
		PasswordHash: string(hash),
		CreatedAt:    e.Clock.Now(),
		UpdatedAt:    e.Clock.Now(),
	}
	if err := e.Store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

// CreateDriver stores an available driver, optionally linked to a user.
func (e *Env) CreateDriver(t *testing.T, id, name string, userID *domain.UserID) domain.Driver {
	t.Helper()
	d := domain.Driver{
		ID:        domain.DriverID(id),
		UserID:    userID,
		FullName:  name,
		Phone:     "0800000000",
		Status:    domain.DriverStatusAvailable,
		CreatedAt: e.Clock.Now(),
		UpdatedAt: e.Clock.Now(),
	}
	if err := e.Store.Drivers.Create(context.Background(), d); err != nil {
		t.Fatalf("create driver %s: %v", id, err)
	}
	return d
}

// Principal builds the caller for u.
func Principal(u domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Email: u.Email, Name: u.FullName, Role: u.Role}
}

// RolePrincipal is a caller that exists only by role.
func RolePrincipal(role domain.Role) domain.Principal {
	id := domain.UserID("USR-" + string(role))
	return domain.Principal{UserID: id, Email: string(role) + "@wecare.test", Role: role}
}

// ExpectError fails the test unless err is an *apperr.Error with status and code.
func ExpectError(t *testing.T, err error, status int, code string) *apperr.Error {
	t.Helper()
	ae, ok := apperr.As(err)
	if !ok || ae.Status != status || (code != "" && ae.Code != code) {
		t.Fatalf("err=%v (type=%T), want %d %s", err, err, status, code)
	}
	return ae
}

// AuditActions returns the recorded actions oldest first.
func (e *Env) AuditActions(t *testing.T) []domain.AuditAction {
	t.Helper()
	logs, err := e.Store.Audit.All(context.Background())
	if err != nil {
		t.Fatalf("audit All: %v", err)
	}
	out := make([]domain.AuditAction, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}
