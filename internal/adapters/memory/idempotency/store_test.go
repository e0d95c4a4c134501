package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{
		Key:      "k1-abcdef",
		Subject:  domain.SubjectID("USR-ADMIN"),
		Method:   "POST",
		Route:    "/api/rides",
		BodyHash: "abc123",
	}
	rec := idempotency.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"RIDE-001"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if !ok {
		t.Fatalf("Get() ok=false, want true")
	}
	if got.StatusCode != rec.StatusCode || got.ContentType != rec.ContentType || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}

	// Mutating the returned body must not leak into the store.
	got.Body[0] = 'X'
	again, _, _ := s.Get(context.Background(), fp)
	if string(again.Body) != string(rec.Body) {
		t.Fatalf("stored body mutated: %q", again.Body)
	}
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{Key: "k1-abcdef", Method: "POST", Route: "/api/rides"}
	_ = s.Put(context.Background(), fp, idempotency.Record{StatusCode: 200})
	s.Reset()
	if _, ok, _ := s.Get(context.Background(), fp); ok {
		t.Fatalf("expected empty store after Reset")
	}
}
