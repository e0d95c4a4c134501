// Package system implements the developer and administrator maintenance operations.
package system

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/lockout"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/platform/seed"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/storage"
)

const (
	minResetReasonLen = 10
	defaultLogsLimit  = 100
	maxLogsLimit      = 1000
)

type Options struct {
	Production    bool
	EnableReset   bool
	EnableSeed    bool
	ConfirmPhrase string
}

type Deps struct {
	Options  Options
	Resetter storage.Resetter
	Pinger   storage.Pinger
	Seeder   *Seeder
	Fixtures seed.Fixtures
	Audit    *audit.Service
	Lockout  *lockout.Tracker
	Clock    clockport.Clock
	Logger   logger.Logger
}

type Service struct {
	opts     Options
	resetter storage.Resetter
	pinger   storage.Pinger
	seeder   *Seeder
	fixtures seed.Fixtures
	audit    *audit.Service
	lockout  *lockout.Tracker
	clk      clockport.Clock
	log      logger.Logger

	startedAt time.Time
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		opts:      d.Options,
		resetter:  d.Resetter,
		pinger:    d.Pinger,
		seeder:    d.Seeder,
		fixtures:  d.Fixtures,
		audit:     d.Audit,
		lockout:   d.Lockout,
		clk:       d.Clock,
		log:       log,
		startedAt: d.Clock.Now(),
	}
}

type ResetInput struct {
	Confirm string
	Reason  string
}

type ResetResult struct {
	ResetAt time.Time
	Seeded  ApplyResult
}

// ResetDatabase wipes all data and re-applies the fixtures. The audit chain restarts
// with the RESET_DATABASE entry.
func (s *Service) ResetDatabase(ctx context.Context, p domain.Principal, in ResetInput) (ResetResult, error) {
	if s.opts.Production {
		return ResetResult{}, apperr.Forbidden("Database reset is disabled in production")
	}
	if !s.opts.EnableReset {
		return ResetResult{}, apperr.Forbidden("Database reset is not enabled (ENABLE_DEV_DB_RESET)")
	}
	if in.Confirm != s.opts.ConfirmPhrase {
		return ResetResult{}, apperr.BadRequest("confirmation phrase does not match")
	}
	reason := strings.TrimSpace(in.Reason)
	if len([]rune(reason)) < minResetReasonLen {
		return ResetResult{}, apperr.BadRequest(fmt.Sprintf("reason must be at least %d characters", minResetReasonLen))
	}

	if err := s.resetter.Reset(ctx); err != nil {
		return ResetResult{}, fmt.Errorf("reset storage: %w", err)
	}
	seeded, err := s.seeder.Apply(ctx, s.fixtures)
	if err != nil {
		return ResetResult{}, fmt.Errorf("reseed after reset: %w", err)
	}
	now := s.clk.Now()
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionResetDatabase, "database", map[string]any{
		"reason": reason,
	}))
	s.log.Warning("database reset",
		logger.String("by", p.Email),
		logger.String("role", string(p.Role)),
		logger.String("reason", reason),
	)
	return ResetResult{ResetAt: now, Seeded: seeded}, nil
}

// SeedUsers inserts the fixture users that are missing.
func (s *Service) SeedUsers(ctx context.Context, p domain.Principal) (SeedResult, error) {
	if !s.opts.EnableSeed {
		return SeedResult{}, apperr.Forbidden("User seeding is not enabled (ENABLE_DEV_DB_SEED)")
	}
	res, err := s.seeder.SeedUsers(ctx, s.fixtures.Users)
	if err != nil {
		return SeedResult{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionSeedUsers, "users", res))
	return res, nil
}

// Logs returns the most recent audit entries, newest first.
func (s *Service) Logs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	switch {
	case limit <= 0:
		limit = defaultLogsLimit
	case limit > maxLogsLimit:
		limit = maxLogsLimit
	}
	return s.audit.Recent(ctx, limit)
}

type Health struct {
	Status           string
	UptimeSeconds    int64
	Storage          string
	Goroutines       int
	MemoryAllocBytes uint64
	Timestamp        time.Time
}

func (s *Service) Health(ctx context.Context) Health {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := s.clk.Now()
	h := Health{
		Status:           "ok",
		UptimeSeconds:    int64(now.Sub(s.startedAt).Seconds()),
		Storage:          "ok",
		Goroutines:       runtime.NumGoroutine(),
		MemoryAllocBytes: mem.Alloc,
		Timestamp:        now,
	}
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Error("storage ping failed", logger.Error(err))
		h.Status = "degraded"
		h.Storage = "unavailable"
	}
	return h
}

func (s *Service) LockoutStats() lockout.Stats { return s.lockout.Stats() }

func (s *Service) LockedAccounts() []lockout.LockedAccount { return s.lockout.LockedAccounts() }

// Unlock clears the lockout state of email.
func (s *Service) Unlock(ctx context.Context, p domain.Principal, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return apperr.Validation("email is required", map[string]any{"email": "must be non-empty"})
	}
	if !s.lockout.Unlock(email) {
		return apperr.NotFound("No lockout state for this account")
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUnlockAccount, email, nil))
	return nil
}

// CSRFToken returns a fresh random token.
func (s *Service) CSRFToken() string { return uuid.NewString() }
