// Package lockout tracks failed logins per account and locks accounts that exceed the limit.
package lockout

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
)

// CleanupInterval is how often Run sweeps expired entries.
const CleanupInterval = 5 * time.Minute

type Config struct {
	MaxAttempts int
	Duration    time.Duration
	Window      time.Duration
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 5, Duration: 15 * time.Minute, Window: 15 * time.Minute}
}

// State is the lock state of one account.
type State struct {
	Locked           bool
	Attempts         int
	RemainingSeconds int
	LockedUntil      *time.Time
}

type LockedAccount struct {
	Email       string
	Attempts    int
	LockedUntil time.Time
}

type Stats struct {
	TotalAttempts  int
	LockedAccounts int
	Config         Config
}

type attempt struct {
	attempts    int
	lastAttempt time.Time
	lockedUntil *time.Time
}

// Tracker is safe for concurrent use. State is process-local.
type Tracker struct {
	cfg Config
	clk clockport.Clock
	log logger.Logger

	mu      sync.Mutex
	entries map[string]*attempt
}

func NewTracker(cfg Config, clk clockport.Clock, log logger.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{cfg: cfg, clk: clk, log: log, entries: map[string]*attempt{}}
}

func (t *Tracker) Config() Config { return t.cfg }

// RecordFailedAttempt counts a failed login and returns the resulting state.
func (t *Tracker) RecordFailedAttempt(email string) State {
	key := domain.NormalizeEmail(email)
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok || now.Sub(e.lastAttempt) > t.cfg.Window {
		t.entries[key] = &attempt{attempts: 1, lastAttempt: now}
		return State{Attempts: 1}
	}
	e.attempts++
	e.lastAttempt = now
	if e.attempts >= t.cfg.MaxAttempts {
		until := now.Add(t.cfg.Duration)
		e.lockedUntil = &until
		t.log.Warning("account locked", logger.String("email", key), logger.Int("attempts", e.attempts))
		return State{Locked: true, Attempts: e.attempts, RemainingSeconds: ceilSeconds(t.cfg.Duration), LockedUntil: &until}
	}
	return State{Attempts: e.attempts}
}

// IsLocked reports the lock state. An expired lock is forgotten.
func (t *Tracker) IsLocked(email string) State {
	key := domain.NormalizeEmail(email)
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return State{}
	}
	if e.lockedUntil != nil {
		if now.Before(*e.lockedUntil) {
			until := *e.lockedUntil
			return State{Locked: true, Attempts: e.attempts, RemainingSeconds: ceilSeconds(until.Sub(now)), LockedUntil: &until}
		}
		delete(t.entries, key)
		return State{}
	}
	return State{Attempts: e.attempts}
}

func (t *Tracker) ClearAttempts(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, domain.NormalizeEmail(email))
}

// Unlock removes any tracked state and reports whether there was some.
func (t *Tracker) Unlock(email string) bool {
	key := domain.NormalizeEmail(email)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	t.log.Info("account unlocked", logger.String("email", key))
	return true
}

func (t *Tracker) RemainingAttempts(email string) int {
	key := domain.NormalizeEmail(email)
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok || now.Sub(e.lastAttempt) > t.cfg.Window {
		return t.cfg.MaxAttempts
	}
	return max(0, t.cfg.MaxAttempts-e.attempts)
}

// LockedAccounts returns the currently locked accounts ordered by email.
func (t *Tracker) LockedAccounts() []LockedAccount {
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]LockedAccount, 0)
	for email, e := range t.entries {
		if e.lockedUntil != nil && now.Before(*e.lockedUntil) {
			out = append(out, LockedAccount{Email: email, Attempts: e.attempts, LockedUntil: *e.lockedUntil})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (t *Tracker) Stats() Stats {
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	locked := 0
	for _, e := range t.entries {
		if e.lockedUntil != nil && now.Before(*e.lockedUntil) {
			locked++
		}
	}
	return Stats{TotalAttempts: len(t.entries), LockedAccounts: locked, Config: t.cfg}
}

// Cleanup drops expired locks and idle attempt counters and returns how many were removed.
func (t *Tracker) Cleanup() int {
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	cleaned := 0
	for email, e := range t.entries {
		switch {
		case e.lockedUntil != nil && !now.Before(*e.lockedUntil):
			delete(t.entries, email)
			cleaned++
		case e.lockedUntil == nil && now.Sub(e.lastAttempt) > t.cfg.Window:
			delete(t.entries, email)
			cleaned++
		}
	}
	if cleaned > 0 {
		t.log.Debug("cleaned expired login attempts", logger.Int("count", cleaned))
	}
	return cleaned
}

// Run calls Cleanup every CleanupInterval until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Cleanup()
		}
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
