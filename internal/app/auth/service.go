// Package auth handles login, logout, self-registration and bearer token authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/lockout"
	"github.com/wecare-ems/wecare-api/internal/app/password"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/auth/token"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/tokenrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

// PurgeInterval is how often Run drops expired blacklist entries.
const PurgeInterval = time.Hour

type Deps struct {
	Users    userrepo.Repository
	Drivers  driverrepo.Repository
	Tokens   tokenrepo.Repository
	Seq      sequence.Generator
	Issuer   *token.Issuer
	Verifier *token.Verifier
	Lockout  *lockout.Tracker
	Audit    *audit.Service
	Clock    clockport.Clock
	Log      logger.Logger
}

type Service struct {
	users    userrepo.Repository
	drivers  driverrepo.Repository
	tokens   tokenrepo.Repository
	seq      sequence.Generator
	issuer   *token.Issuer
	verifier *token.Verifier
	lockout  *lockout.Tracker
	audit    *audit.Service
	clk      clockport.Clock
	log      logger.Logger
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return &Service{
		users:    d.Users,
		drivers:  d.Drivers,
		tokens:   d.Tokens,
		seq:      d.Seq,
		issuer:   d.Issuer,
		verifier: d.Verifier,
		lockout:  d.Lockout,
		audit:    d.Audit,
		clk:      d.Clock,
		log:      d.Log,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// Session is a freshly issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
	DriverID  *domain.DriverID
}

// Profile is the caller's account plus its linked driver profile, if any.
type Profile struct {
	User     domain.User
	DriverID *domain.DriverID
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Session{}, apperr.BadRequest("Email and password are required")
	}

	if st := s.lockout.IsLocked(email); st.Locked {
		return Session{}, lockedError(st)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, userrepo.ErrNotFound) {
		return Session{}, fmt.Errorf("login lookup: %w", err)
	}
	if err != nil || !password.Compare(u.PasswordHash, in.Password) {
		st := s.lockout.RecordFailedAttempt(email)
		s.audit.Record(ctx, audit.Entry{
			UserEmail: email,
			Action:    domain.ActionLoginFailed,
			IPAddress: in.IPAddress,
			Payload:   map[string]any{"attempts": st.Attempts},
		})
		if st.Locked {
			return Session{}, lockedError(st)
		}
		return Session{}, apperr.Unauthorized("Invalid email or password").WithDetails(map[string]any{
			"remainingAttempts": s.lockout.RemainingAttempts(email),
		})
	}
	if !u.IsActive() {
		return Session{}, apperr.Unauthorized("Account is inactive")
	}

	s.lockout.ClearAttempts(email)
	raw, claims, err := s.issuer.Issue(u)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	s.audit.Record(ctx, audit.Entry{
		UserEmail: u.Email,
		UserRole:  u.Role,
		Action:    domain.ActionLogin,
		TargetID:  string(u.ID),
		IPAddress: in.IPAddress,
	})
	return Session{Token: raw, ExpiresAt: claims.ExpiresAtTime(), User: u, DriverID: s.resolveDriver(ctx, u)}, nil
}

func lockedError(st lockout.State) *apperr.Error {
	return &apperr.Error{
		Status:  http.StatusLocked,
		Code:    apperr.CodeAccountLocked,
		Message: "Account is temporarily locked due to too many failed login attempts",
		Details: map[string]any{"remainingSeconds": st.RemainingSeconds},
	}
}

// Logout blacklists the caller's token until it expires.
func (s *Service) Logout(ctx context.Context, p domain.Principal) error {
	if p.TokenID != "" {
		exp := p.ExpiresAt
		if exp.IsZero() {
			exp = s.clk.Now().Add(24 * time.Hour)
		}
		if err := s.tokens.Revoke(ctx, p.TokenID, exp); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionLogout, string(p.UserID), nil))
	return nil
}

func (s *Service) Me(ctx context.Context, p domain.Principal) (Profile, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Profile{}, apperr.NotFound("User not found")
		}
		return Profile{}, err
	}
	return Profile{User: u, DriverID: s.resolveDriver(ctx, u)}, nil
}

type RegisterInput struct {
	FullName  string
	Email     string
	Password  string
	Phone     string
	IPAddress string
}

// Register creates a community account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	name := domain.NormalizeHumanName(in.FullName)
	email := domain.NormalizeEmail(in.Email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "must be non-empty"
	}
	if err := domain.ValidateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	if len(details) > 0 {
		return domain.User{}, apperr.Validation("invalid registration", details)
	}
	if r := password.Validate(in.Password); !r.Valid {
		return domain.User{}, apperr.Validation("Password does not meet requirements", map[string]any{"password": r.Errors})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, apperr.Conflict(apperr.CodeConflict, "Email already registered")
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	n, err := s.seq.Next(ctx, domain.PrefixUser)
	if err != nil {
		return domain.User{}, fmt.Errorf("next user id: %w", err)
	}
	now := s.clk.Now()
	u := domain.User{
		ID:           domain.UserID(domain.FormatID(domain.PrefixUser, n)),
		Email:        email,
		FullName:     name,
		Role:         domain.RoleCommunity,
		Status:       domain.UserStatusActive,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = &phone
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) || errors.Is(err, userrepo.ErrAlreadyExists) {
			return domain.User{}, apperr.Conflict(apperr.CodeConflict, "Email already registered")
		}
		return domain.User{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserEmail: u.Email,
		UserRole:  u.Role,
		Action:    domain.ActionRegister,
		TargetID:  string(u.ID),
		IPAddress: in.IPAddress,
	})
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, p domain.Principal, current, next string) error {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	if !password.Compare(u.PasswordHash, current) {
		return apperr.Unauthorized("Current password is incorrect")
	}
	if r := password.Validate(next); !r.Valid {
		return apperr.Validation("Password does not meet requirements", map[string]any{"password": r.Errors})
	}
	if next == current {
		return apperr.Validation("New password must differ from the current password", map[string]any{"newPassword": "must differ from current password"})
	}
	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.clk.Now()
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionChangePassword, string(u.ID), nil))
	return nil
}

func invalidToken(msg string) *apperr.Error {
	return apperr.New(http.StatusUnauthorized, apperr.CodeInvalidToken, msg)
}

// Authenticate turns a bearer token into a principal.
func (s *Service) Authenticate(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := s.verifier.Verify(raw)
	if err != nil {
		return domain.Principal{}, invalidToken("Invalid or expired token")
	}
	if claims.ID != "" {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return domain.Principal{}, invalidToken("Token has been revoked")
		}
	}
	p, err := s.principalFor(ctx, claims.UserID())
	if err != nil {
		return domain.Principal{}, err
	}
	p.TokenID = claims.ID
	p.ExpiresAt = claims.ExpiresAtTime()
	return p, nil
}

// PrincipalForSubject resolves a user ID or email without a token. Only the dev auth mode uses it.
func (s *Service) PrincipalForSubject(ctx context.Context, subject string) (domain.Principal, error) {
	subject = strings.TrimSpace(subject)
	if strings.Contains(subject, "@") {
		u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(subject))
		if err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				return domain.Principal{}, invalidToken("Unknown subject")
			}
			return domain.Principal{}, err
		}
		subject = string(u.ID)
	}
	return s.principalFor(ctx, domain.UserID(subject))
}

func (s *Service) principalFor(ctx context.Context, id domain.UserID) (domain.Principal, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.Principal{}, invalidToken("User not found")
		}
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	if !u.IsActive() {
		return domain.Principal{}, apperr.Unauthorized("Account is inactive")
	}
	return domain.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.FullName,
		Role:     u.Role,
		DriverID: s.resolveDriver(ctx, u),
	}, nil
}

// IssueToken mints a token for an existing user. Used by the CLI.
func (s *Service) IssueToken(ctx context.Context, email string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Session{}, apperr.NotFound("User not found")
		}
		return Session{}, err
	}
	raw, claims, err := s.issuer.Issue(u)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: raw, ExpiresAt: claims.ExpiresAtTime(), User: u, DriverID: s.resolveDriver(ctx, u)}, nil
}

// resolveDriver links a user to its driver profile by user ID, falling back to email.
func (s *Service) resolveDriver(ctx context.Context, u domain.User) *domain.DriverID {
	if s.drivers == nil {
		return nil
	}
	if d, err := s.drivers.GetByUserID(ctx, u.ID); err == nil {
		return domain.Ptr(d.ID)
	}
	if u.Email == "" {
		return nil
	}
	if d, err := s.drivers.GetByEmail(ctx, u.Email); err == nil {
		return domain.Ptr(d.ID)
	}
	return nil
}

// Run purges expired blacklist entries every PurgeInterval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.tokens.PurgeExpired(ctx, s.clk.Now())
			if err != nil {
				s.log.Error("purge revoked tokens", logger.Error(err))
				continue
			}
			if n > 0 {
				s.log.Debug("purged revoked tokens", logger.Int("count", n))
			}
		}
	}
}
