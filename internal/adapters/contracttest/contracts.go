package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wecare-ems/wecare-api/internal/domain"
	idempotencyport "github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
	sequenceport "github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

type CleanupFunc = func()

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type SequenceFactory func(t *testing.T) (sequenceport.Generator, CleanupFunc)

// open builds an adapter and registers its cleanup with t.
func open[T any](t *testing.T, factory func(t *testing.T) (T, CleanupFunc)) T {
	t.Helper()
	v, cleanup := factory(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return v
}

// at returns a fixed UTC instant offset by sec seconds; stored timestamps must round-trip through every adapter.
func at(sec int64) time.Time {
	return time.Unix(1_700_000_000+sec, 0).UTC()
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()
	store := open(t, newStore)

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()[:8]),
		Subject:  domain.SubjectID("USR-001"),
		Method:   "POST",
		Route:    "/api/rides",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   at(0),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body hash addresses a different record.
	other := fp
	other.BodyHash = "abc"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other fingerprint: ok=%v err=%v", ok, err)
	}
	resp := idempotencyport.Record{StatusCode: 201, ContentType: "application/json", Body: []byte(`{"id":"RIDE-001"}`), CreatedAt: at(1)}
	if err := store.Put(ctx, other, resp); err != nil {
		t.Fatalf("Put response: %v", err)
	}
	got, ok, err = store.Get(ctx, other)
	if err != nil || !ok || got.StatusCode != 201 || string(got.Body) != `{"id":"RIDE-001"}` {
		t.Fatalf("unexpected response record: ok=%v err=%v rec=%+v", ok, err, got)
	}
}

func RunSequence(t *testing.T, newGen SequenceFactory) {
	t.Helper()
	ctx := context.Background()
	gen := open(t, newGen)

	for want := int64(1); want <= 3; want++ {
		n, err := gen.Next(ctx, "ride")
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if n != want {
			t.Fatalf("Next(ride) = %d, want %d", n, want)
		}
	}
	n, err := gen.Next(ctx, "user")
	if err != nil || n != 1 {
		t.Fatalf("independent sequence: n=%d err=%v", n, err)
	}
}
