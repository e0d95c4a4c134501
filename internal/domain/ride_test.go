package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to RideStatus }{
		{RideStatusPending, RideStatusAssigned},
		{RideStatusPending, RideStatusCancelled},
		{RideStatusAssigned, RideStatusInProgress},
		{RideStatusAssigned, RideStatusEnRouteToPickup},
		{RideStatusAssigned, RideStatusPending},
		{RideStatusEnRouteToPickup, RideStatusArrivedAtPickup},
		{RideStatusArrivedAtPickup, RideStatusInProgress},
		{RideStatusInProgress, RideStatusCompleted},
		{RideStatusInProgress, RideStatusCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("CanTransition(%s,%s)=false, want true", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to RideStatus }{
		{RideStatusPending, RideStatusCompleted},
		{RideStatusPending, RideStatusInProgress},
		{RideStatusCompleted, RideStatusPending},
		{RideStatusCancelled, RideStatusAssigned},
		{RideStatusInProgress, RideStatusAssigned},
		{RideStatusAssigned, RideStatusAssigned},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("CanTransition(%s,%s)=true, want false", tc.from, tc.to)
		}
	}
}

func TestRideStatus_IsActive(t *testing.T) {
	t.Parallel()

	if RideStatusCompleted.IsActive() || RideStatusCancelled.IsActive() {
		t.Fatalf("terminal statuses must not be active")
	}
	if !RideStatusPending.IsActive() || !RideStatusInProgress.IsActive() {
		t.Fatalf("non-terminal statuses must be active")
	}
}

func TestRideStatus_Assignable(t *testing.T) {
	t.Parallel()

	for _, st := range []RideStatus{RideStatusPending, RideStatusAssigned} {
		if !st.Assignable() {
			t.Fatalf("%s should be assignable", st)
		}
	}
	for _, st := range []RideStatus{RideStatusEnRouteToPickup, RideStatusArrivedAtPickup, RideStatusInProgress, RideStatusCompleted, RideStatusCancelled} {
		if st.Assignable() {
			t.Fatalf("%s should not be assignable", st)
		}
	}
}

func TestValidCoordinates(t *testing.T) {
	t.Parallel()

	if !ValidCoordinates(13.75, 100.5) || !ValidCoordinates(-90, 180) {
		t.Fatalf("expected valid")
	}
	if ValidCoordinates(91, 0) || ValidCoordinates(0, -180.01) {
		t.Fatalf("expected invalid")
	}
}

func TestNewsArticle_VisibleAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	if (NewsArticle{Status: NewsDraft}).VisibleAt(now) {
		t.Fatalf("draft must not be visible")
	}
	if !(NewsArticle{Status: NewsPublished}).VisibleAt(now) {
		t.Fatalf("published without schedule must be visible")
	}
	if (NewsArticle{Status: NewsPublished, ScheduledDate: &future}).VisibleAt(now) {
		t.Fatalf("future scheduled must not be visible")
	}
	if !(NewsArticle{Status: NewsPublished, ScheduledDate: &past}).VisibleAt(now) {
		t.Fatalf("past scheduled must be visible")
	}
}
