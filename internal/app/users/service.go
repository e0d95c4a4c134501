// Package users is the administrator-facing user management service.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/password"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
	"github.com/wecare-ems/wecare-api/internal/ports/out/userrepo"
)

type Service struct {
	repo  userrepo.Repository
	seq   sequence.Generator
	audit *audit.Service
	clk   clockport.Clock
}

func NewService(repo userrepo.Repository, seq sequence.Generator, auditSvc *audit.Service, clk clockport.Clock) *Service {
	return &Service{repo: repo, seq: seq, audit: auditSvc, clk: clk}
}

func (s *Service) List(ctx context.Context, in ListInput) (pagination.Page[domain.User], error) {
	f := userrepo.Filter{
		Query:  strings.TrimSpace(in.Query),
		Limit:  in.Normalize().Limit,
		Offset: in.Offset(),
	}
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return pagination.Page[domain.User]{}, apperr.Validation("invalid role", map[string]any{"role": "unknown role"})
		}
		f.Role = &r
	}
	us, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.New(us, in.Params, total), nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, apperr.NotFound("User not found")
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Principal, in CreateInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	name := domain.NormalizeHumanName(in.FullName)

	details := map[string]any{}
	if err := domain.ValidateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	if name == "" {
		details["fullName"] = "must be non-empty"
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		details["role"] = "unknown role"
	}
	status := domain.UserStatusActive
	if in.Status != "" {
		st, ok := parseStatus(in.Status)
		if !ok {
			details["status"] = "must be Active or Inactive"
		}
		status = st
	}
	if len(details) > 0 {
		return domain.User{}, apperr.Validation("invalid user", details)
	}
	if r := password.Validate(in.Password); !r.Valid {
		return domain.User{}, apperr.Validation("Password does not meet requirements", map[string]any{"password": r.Errors})
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
		Role:         role,
		Status:       status,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = &phone
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) || errors.Is(err, userrepo.ErrAlreadyExists) {
			return domain.User{}, apperr.Conflict(apperr.CodeConflict, "Email already exists")
		}
		return domain.User{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(actor, domain.ActionCreateUser, string(u.ID), map[string]any{"email": u.Email, "role": u.Role}))
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Principal, id domain.UserID, in UpdateInput) (domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if in.FullName.IsSpecified() {
		name := ""
		if in.FullName.HasValue() {
			name = domain.NormalizeHumanName(in.FullName.Value())
		}
		if name == "" {
			return domain.User{}, apperr.Validation("invalid fullName", map[string]any{"fullName": "must be non-empty"})
		}
		u.FullName = name
	}
	if in.Email.IsSpecified() {
		email := ""
		if in.Email.HasValue() {
			email = domain.NormalizeEmail(in.Email.Value())
		}
		if err := domain.ValidateEmail(email); err != nil {
			return domain.User{}, apperr.Validation("invalid email", map[string]any{"email": err.Error()})
		}
		u.Email = email
	}
	if in.Phone.IsSpecified() {
		if in.Phone.IsNull() || strings.TrimSpace(in.Phone.Value()) == "" {
			u.Phone = nil
		} else {
			u.Phone = domain.Ptr(strings.TrimSpace(in.Phone.Value()))
		}
	}
	if in.Role.HasValue() {
		r, ok := domain.ParseRole(in.Role.Value())
		if !ok {
			return domain.User{}, apperr.Validation("invalid role", map[string]any{"role": "unknown role"})
		}
		u.Role = r
	} else if in.Role.IsNull() {
		return domain.User{}, apperr.Validation("invalid role", map[string]any{"role": "cannot be null"})
	}
	if in.Status.IsSpecified() {
		st, ok := parseStatus(in.Status.Value())
		if in.Status.IsNull() || !ok {
			return domain.User{}, apperr.Validation("invalid status", map[string]any{"status": "must be Active or Inactive"})
		}
		u.Status = st
	}
	patch.ApplyPtr(&u.ProfileImageURL, in.ProfileImageURL)

	u.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrEmailTaken):
			return domain.User{}, apperr.Conflict(apperr.CodeConflict, "Email already exists")
		case errors.Is(err, userrepo.ErrNotFound):
			return domain.User{}, apperr.NotFound("User not found")
		}
		return domain.User{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(actor, domain.ActionUpdateUser, string(u.ID), map[string]any{"role": u.Role, "status": u.Status}))
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Principal, id domain.UserID) error {
	if id == actor.UserID {
		return apperr.Validation("Cannot delete your own account", map[string]any{"id": "cannot delete yourself"})
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	s.audit.Record(ctx, audit.FromPrincipal(actor, domain.ActionDeleteUser, string(id), map[string]any{"email": u.Email}))
	return nil
}

// ResetPassword sets newPassword, or a generated temporary password when newPassword is empty.
func (s *Service) ResetPassword(ctx context.Context, actor domain.Principal, id domain.UserID, newPassword string) (ResetResult, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return ResetResult{}, err
	}
	var res ResetResult
	if newPassword == "" {
		newPassword, err = password.GenerateTemporary()
		if err != nil {
			return ResetResult{}, err
		}
		res.TemporaryPassword = newPassword
	} else if r := password.Validate(newPassword); !r.Valid {
		return ResetResult{}, apperr.Validation("Password does not meet requirements", map[string]any{"password": r.Errors})
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return ResetResult{}, err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return ResetResult{}, fmt.Errorf("reset password: %w", err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(actor, domain.ActionResetPassword, string(id), map[string]any{"generated": res.TemporaryPassword != ""}))
	return res, nil
}

func parseStatus(s string) (domain.UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return domain.UserStatusActive, true
	case "inactive":
		return domain.UserStatusInactive, true
	default:
		return "", false
	}
}
