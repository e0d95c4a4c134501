package auth

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/lockout"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/auth/token"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
)

const goodPassword = "Str0ng@Pass"

func newService(t *testing.T) (*Service, *apptest.Env) {
	t.Helper()
	env := apptest.NewEnv(t)
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "wecare-api", TTL: time.Hour}
	svc := NewService(Deps{
		Users:    env.Store.Users,
		Drivers:  env.Store.Drivers,
		Tokens:   env.Store.Tokens,
		Seq:      env.Store.Sequences,
		Issuer:   token.NewIssuer(cfg, env.Clock),
		Verifier: token.NewVerifier(cfg, env.Clock),
		Lockout:  lockout.NewTracker(lockout.DefaultConfig(), env.Clock, nil),
		Audit:    env.Audit,
		Clock:    env.Clock,
	})
	return svc, env
}

func TestService_LoginAndAuthenticate(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "driver1@wecare.ems", domain.RoleDriver, goodPassword)
	env.CreateDriver(t, "DRV-001", "Somsak", &u.ID)

	sess, err := svc.Login(ctx, LoginInput{Email: "  Driver1@WeCare.ems ", Password: goodPassword, IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Login err=%v", err)
	}
	if sess.Token == "" || sess.User.ID != u.ID || sess.DriverID == nil || *sess.DriverID != "DRV-001" {
		t.Fatalf("session=%+v", sess)
	}
	if !sess.ExpiresAt.Equal(apptest.Epoch.Add(time.Hour)) {
		t.Fatalf("ExpiresAt=%v", sess.ExpiresAt)
	}

	p, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate err=%v", err)
	}
	if p.UserID != u.ID || p.Role != domain.RoleDriver || p.DriverID == nil || p.TokenID == "" {
		t.Fatalf("principal=%+v", p)
	}
	if !slices.Contains(env.AuditActions(t), domain.ActionLogin) {
		t.Fatalf("LOGIN not audited: %v", env.AuditActions(t))
	}
}

func TestService_Login_BadPasswordThenLock(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	env.CreateUser(t, "USR-001", "office1@wecare.ems", domain.RoleOfficer, goodPassword)

	for i := 1; i < 5; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "office1@wecare.ems", Password: "wrong"})
		ae := apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeUnauthorized)
		if got := ae.Details["remainingAttempts"]; got != 5-i {
			t.Fatalf("attempt %d remainingAttempts=%v", i, got)
		}
	}
	_, err := svc.Login(ctx, LoginInput{Email: "office1@wecare.ems", Password: "wrong"})
	ae := apptest.ExpectError(t, err, http.StatusLocked, apperr.CodeAccountLocked)
	if ae.Details["remainingSeconds"] != 900 {
		t.Fatalf("details=%v", ae.Details)
	}

	// The right password is refused while locked.
	_, err = svc.Login(ctx, LoginInput{Email: "office1@wecare.ems", Password: goodPassword})
	apptest.ExpectError(t, err, http.StatusLocked, apperr.CodeAccountLocked)

	env.Clock.Advance(16 * time.Minute)
	if _, err := svc.Login(ctx, LoginInput{Email: "office1@wecare.ems", Password: goodPassword}); err != nil {
		t.Fatalf("Login after lock expiry err=%v", err)
	}
}

func TestService_Login_UnknownAndInactive(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "gone@wecare.ems", domain.RoleCommunity, goodPassword)
	u.Status = domain.UserStatusInactive
	if err := env.Store.Users.Update(ctx, u); err != nil {
		t.Fatalf("Update err=%v", err)
	}

	_, err := svc.Login(ctx, LoginInput{Email: "nobody@wecare.ems", Password: goodPassword})
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "gone@wecare.ems", Password: goodPassword})
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "", Password: ""})
	apptest.ExpectError(t, err, http.StatusBadRequest, apperr.CodeBadRequest)
}

func TestService_LogoutRevokesToken(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	env.CreateUser(t, "USR-001", "admin@wecare.ems", domain.RoleAdmin, goodPassword)

	sess, err := svc.Login(ctx, LoginInput{Email: "admin@wecare.ems", Password: goodPassword})
	if err != nil {
		t.Fatalf("Login err=%v", err)
	}
	p, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate err=%v", err)
	}
	if err := svc.Logout(ctx, p); err != nil {
		t.Fatalf("Logout err=%v", err)
	}
	_, err = svc.Authenticate(ctx, sess.Token)
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeInvalidToken)
}

func TestService_Authenticate_Rejects(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	env.CreateUser(t, "USR-001", "admin@wecare.ems", domain.RoleAdmin, goodPassword)
	sess, err := svc.Login(ctx, LoginInput{Email: "admin@wecare.ems", Password: goodPassword})
	if err != nil {
		t.Fatalf("Login err=%v", err)
	}

	_, err = svc.Authenticate(ctx, "garbage")
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeInvalidToken)

	if err := env.Store.Users.Delete(ctx, "USR-001"); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	_, err = svc.Authenticate(ctx, sess.Token)
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeInvalidToken)

	env.Clock.Advance(2 * time.Hour)
	_, err = svc.Authenticate(ctx, sess.Token)
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeInvalidToken)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{FullName: "  Nok   Community ", Email: "Nok@Example.com", Password: goodPassword, Phone: "0812223333"})
	if err != nil {
		t.Fatalf("Register err=%v", err)
	}
	if u.ID != "USR-001" || u.Role != domain.RoleCommunity || u.FullName != "Nok Community" || u.Email != "nok@example.com" {
		t.Fatalf("user=%+v", u)
	}

	_, err = svc.Register(ctx, RegisterInput{FullName: "Other", Email: "nok@example.com", Password: goodPassword})
	apptest.ExpectError(t, err, http.StatusConflict, apperr.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Weak", Email: "weak@example.com", Password: "password"})
	ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
	if _, ok := ae.Details["password"]; !ok {
		t.Fatalf("details=%v", ae.Details)
	}

	_, err = svc.Register(ctx, RegisterInput{FullName: "", Email: "not-an-email", Password: goodPassword})
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	if got := env.AuditActions(t); !slices.Contains(got, domain.ActionRegister) {
		t.Fatalf("REGISTER not audited: %v", got)
	}
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "admin@wecare.ems", domain.RoleAdmin, goodPassword)
	p := apptest.Principal(u)

	err := svc.ChangePassword(ctx, p, "wrong", "N3w@Secret")
	apptest.ExpectError(t, err, http.StatusUnauthorized, apperr.CodeUnauthorized)

	err = svc.ChangePassword(ctx, p, goodPassword, "short")
	apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)

	if err := svc.ChangePassword(ctx, p, goodPassword, "N3w@Secret"); err != nil {
		t.Fatalf("ChangePassword err=%v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "admin@wecare.ems", Password: "N3w@Secret"}); err != nil {
		t.Fatalf("Login with new password err=%v", err)
	}
}

func TestService_MeResolvesDriverByEmail(t *testing.T) {
	t.Parallel()

	svc, env := newService(t)
	ctx := context.Background()
	u := env.CreateUser(t, "USR-001", "driver2@wecare.ems", domain.RoleDriver, goodPassword)
	d := env.CreateDriver(t, "DRV-002", "Prasert", nil)
	d.Email = domain.Ptr("driver2@wecare.ems")
	if err := env.Store.Drivers.Update(ctx, d); err != nil {
		t.Fatalf("Update driver err=%v", err)
	}

	prof, err := svc.Me(ctx, apptest.Principal(u))
	if err != nil {
		t.Fatalf("Me err=%v", err)
	}
	if prof.DriverID == nil || *prof.DriverID != "DRV-002" {
		t.Fatalf("profile=%+v", prof)
	}

	p, err := svc.PrincipalForSubject(ctx, "driver2@wecare.ems")
	if err != nil || p.UserID != u.ID {
		t.Fatalf("PrincipalForSubject=%+v err=%v", p, err)
	}
}
