package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	memclock "github.com/wecare-ems/wecare-api/internal/adapters/memory/clock"
)

func newTracker(t *testing.T) (*Tracker, *memclock.ManualClock) {
	t.Helper()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	return NewTracker(DefaultConfig(), clk, nil), clk
}

func TestTracker_LocksAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	tr, clk := newTracker(t)
	for i := 1; i < 5; i++ {
		st := tr.RecordFailedAttempt("Alice@Example.com")
		if st.Locked || st.Attempts != i {
			t.Fatalf("attempt %d state=%+v", i, st)
		}
		if got := tr.RemainingAttempts("alice@example.com"); got != 5-i {
			t.Fatalf("RemainingAttempts=%d, want %d", got, 5-i)
		}
	}
	st := tr.RecordFailedAttempt("alice@example.com")
	if !st.Locked || st.RemainingSeconds != 900 {
		t.Fatalf("fifth attempt state=%+v", st)
	}

	clk.Advance(61 * time.Second)
	st = tr.IsLocked(" ALICE@example.com ")
	if !st.Locked || st.RemainingSeconds != 839 {
		t.Fatalf("IsLocked=%+v", st)
	}

	clk.Advance(15 * time.Minute)
	if st := tr.IsLocked("alice@example.com"); st.Locked {
		t.Fatalf("lock should have expired: %+v", st)
	}
	if got := tr.Stats().TotalAttempts; got != 0 {
		t.Fatalf("expired lock should be forgotten, TotalAttempts=%d", got)
	}
}

func TestTracker_WindowResetsCounter(t *testing.T) {
	t.Parallel()

	tr, clk := newTracker(t)
	tr.RecordFailedAttempt("bob@example.com")
	tr.RecordFailedAttempt("bob@example.com")

	clk.Advance(16 * time.Minute)
	if got := tr.RemainingAttempts("bob@example.com"); got != 5 {
		t.Fatalf("RemainingAttempts after window=%d", got)
	}
	if st := tr.RecordFailedAttempt("bob@example.com"); st.Attempts != 1 {
		t.Fatalf("counter should restart, got %+v", st)
	}
}

func TestTracker_UnlockAndClear(t *testing.T) {
	t.Parallel()

	tr, _ := newTracker(t)
	for i := 0; i < 5; i++ {
		tr.RecordFailedAttempt("carol@example.com")
	}
	tr.RecordFailedAttempt("dave@example.com")

	locked := tr.LockedAccounts()
	if len(locked) != 1 || locked[0].Email != "carol@example.com" || locked[0].Attempts != 5 {
		t.Fatalf("LockedAccounts=%+v", locked)
	}
	want := Stats{TotalAttempts: 2, LockedAccounts: 1, Config: DefaultConfig()}
	if diff := cmp.Diff(want, tr.Stats()); diff != "" {
		t.Fatalf("Stats mismatch (-want +got):\n%s", diff)
	}

	if !tr.Unlock("CAROL@example.com") {
		t.Fatalf("Unlock should report true")
	}
	if tr.Unlock("carol@example.com") {
		t.Fatalf("second Unlock should report false")
	}
	tr.ClearAttempts("dave@example.com")
	if got := tr.Stats().TotalAttempts; got != 0 {
		t.Fatalf("TotalAttempts=%d", got)
	}
}

func TestTracker_Cleanup(t *testing.T) {
	t.Parallel()

	tr, clk := newTracker(t)
	for i := 0; i < 5; i++ {
		tr.RecordFailedAttempt("locked@example.com")
	}
	tr.RecordFailedAttempt("idle@example.com")
	clk.Advance(10 * time.Minute)
	tr.RecordFailedAttempt("recent@example.com")

	if got := tr.Cleanup(); got != 0 {
		t.Fatalf("Cleanup before expiry=%d", got)
	}
	clk.Advance(6 * time.Minute)
	if got := tr.Cleanup(); got != 2 {
		t.Fatalf("Cleanup=%d, want 2", got)
	}
	if got := tr.RemainingAttempts("recent@example.com"); got != 4 {
		t.Fatalf("recent entry should survive, RemainingAttempts=%d", got)
	}
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	tr, _ := newTracker(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}
