package riderepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

// Concurrent assignments of one driver to overlapping rides must admit exactly one winner.
func TestRepo_AssignDriver_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepo()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	const n = 16
	for i := 0; i < n; i++ {
		_ = r.Create(ctx, domain.Ride{
			ID:              domain.RideID(fmt.Sprintf("RIDE-%03d", i+1)),
			Status:          domain.RideStatusPending,
			AppointmentTime: at.Add(time.Duration(i) * time.Minute),
		})
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.AssignDriver(ctx, riderepo.Assignment{
				RideID:     domain.RideID(fmt.Sprintf("RIDE-%03d", i+1)),
				DriverID:   "DRV-001",
				DriverName: "Somchai",
				Window:     time.Hour,
				At:         at,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, riderepo.ErrDriverConflict):
				conflicts++
			default:
				t.Errorf("AssignDriver: unexpected err=%v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins=%d conflicts=%d, want 1/%d", wins, conflicts, n-1)
	}
}
