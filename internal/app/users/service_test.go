package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/password"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func newService(t *testing.T) (*Service, *apptest.Env, domain.Principal) {
	t.Helper()
	env := apptest.NewEnv(t)
	svc := NewService(env.Store.Users, env.Store.Sequences, env.Audit, env.Clock)
	return svc, env, apptest.RolePrincipal(domain.RoleAdmin)
}

func TestService_CreateNormalizes(t *testing.T) {
	t.Parallel()

	svc, env, admin := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, admin, CreateInput{
		Email:    " Officer2@WeCare.ems ",
		FullName: "  Malee   Officer ",
		Role:     "office",
		Password: "Str0ng@Pass",
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if u.ID != "USR-001" || u.Email != "officer2@wecare.ems" || u.Role != domain.RoleOfficer || u.Status != domain.UserStatusActive {
		t.Fatalf("user=%+v", u)
	}
	if !password.Compare(u.PasswordHash, "Str0ng@Pass") {
		t.Fatalf("password not hashed with bcrypt")
	}

	_, err = svc.Create(ctx, admin, CreateInput{Email: "officer2@wecare.ems", FullName: "Dup", Role: "officer", Password: "Str0ng@Pass"})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)

	if diff := cmp.Diff([]domain.AuditAction{domain.ActionCreateUser}, env.AuditActions(t)); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc, _, admin := newService(t)
	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"bad role", CreateInput{Email: "a@b.co", FullName: "A", Role: "root", Password: "Str0ng@Pass"}, "role"},
		{"bad email", CreateInput{Email: "nope", FullName: "A", Role: "admin", Password: "Str0ng@Pass"}, "email"},
		{"no name", CreateInput{Email: "a@b.co", FullName: " ", Role: "admin", Password: "Str0ng@Pass"}, "fullName"},
		{"weak password", CreateInput{Email: "a@b.co", FullName: "A", Role: "admin", Password: "weak"}, "password"},
		{"bad status", CreateInput{Email: "a@b.co", FullName: "A", Role: "admin", Password: "Str0ng@Pass", Status: "gone"}, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Create(context.Background(), admin, tc.in)
			ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
			if _, ok := ae.Details[tc.field]; !ok {
				t.Fatalf("details=%v, want key %q", ae.Details, tc.field)
			}
		})
	}
}

func TestService_ListFiltersAndPages(t *testing.T) {
	t.Parallel()

	svc, env, _ := newService(t)
	ctx := context.Background()
	env.CreateUser(t, "USR-001", "a@wecare.ems", domain.RoleDriver, "Str0ng@Pass")
	env.CreateUser(t, "USR-002", "b@wecare.ems", domain.RoleDriver, "Str0ng@Pass")
	env.CreateUser(t, "USR-003", "c@wecare.ems", domain.RoleCommunity, "Str0ng@Pass")

	page, err := svc.List(ctx, ListInput{Role: "DRIVER", Params: pagination.Params{Page: 1, Limit: 1}})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	want := pagination.Info{Page: 1, Limit: 1, Total: 2, TotalPages: 2, HasNext: true}
	if diff := cmp.Diff(want, page.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
	if len(page.Data) != 1 {
		t.Fatalf("data=%v", page.Data)
	}

	_, err = svc.List(ctx, ListInput{Role: "pilot"})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
}

func TestService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	svc, env, admin := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "a@wecare.ems", domain.RoleCommunity, "Str0ng@Pass")

	got, err := svc.Update(ctx, admin, u.ID, UpdateInput{
		Role:   patch.Some("radio"),
		Status: patch.Some("inactive"),
		Phone:  patch.Some("0899999999"),
	})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if got.Role != domain.RoleRadioCenter || got.Status != domain.UserStatusInactive || got.Phone == nil || got.FullName != u.FullName {
		t.Fatalf("updated=%+v", got)
	}

	_, err = svc.Update(ctx, admin, u.ID, UpdateInput{FullName: patch.Null[string]()})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	_, err = svc.Update(ctx, admin, "USR-404", UpdateInput{})
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)

	self := apptest.Principal(u)
	err = svc.Delete(ctx, self, u.ID)
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	if err := svc.Delete(ctx, admin, u.ID); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	_, err = svc.Get(ctx, u.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
}

func TestService_ResetPassword(t *testing.T) {
	t.Parallel()

	svc, env, admin := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "a@wecare.ems", domain.RoleDriver, "Str0ng@Pass")

	res, err := svc.ResetPassword(ctx, admin, u.ID, "")
	if err != nil {
		t.Fatalf("ResetPassword err=%v", err)
	}
	if res.TemporaryPassword == "" {
		t.Fatalf("expected generated password")
	}
	stored, _ := svc.Get(ctx, u.ID)
	if !password.Compare(stored.PasswordHash, res.TemporaryPassword) {
		t.Fatalf("temporary password not stored")
	}

	res, err = svc.ResetPassword(ctx, admin, u.ID, "N3w@Secret")
	if err != nil || res.TemporaryPassword != "" {
		t.Fatalf("ResetPassword res=%+v err=%v", res, err)
	}

	_, err = svc.ResetPassword(ctx, admin, u.ID, "weak")
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
}
