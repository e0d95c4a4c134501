package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/wecare-ems/wecare-api/internal/domain"
	auditrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/auditrepo"
	newsrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/newsrepo"
	settingsrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
	tokenrepoport "github.com/wecare-ems/wecare-api/internal/ports/out/tokenrepo"
)

type NewsRepoFactory func(t *testing.T) (newsrepoport.Repository, CleanupFunc)
type AuditRepoFactory func(t *testing.T) (auditrepoport.Repository, CleanupFunc)
type SettingsRepoFactory func(t *testing.T) (settingsrepoport.Repository, CleanupFunc)
type TokenRepoFactory func(t *testing.T) (tokenrepoport.Repository, CleanupFunc)

func RunNewsRepo(t *testing.T, newRepo NewsRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	published := at(100)
	n1 := domain.NewsArticle{ID: "NEWS-001", Title: "Clinic hours", Content: "Open daily", Author: "Admin", Status: domain.NewsPublished, PublishedDate: &published, CreatedAt: at(0), UpdatedAt: at(0)}
	n2 := domain.NewsArticle{ID: "NEWS-002", Title: "Draft", Content: "WIP", Author: "Admin", Status: domain.NewsDraft, CreatedAt: at(50), UpdatedAt: at(50)}
	for _, n := range []domain.NewsArticle{n1, n2} {
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create %s: %v", n.ID, err)
		}
	}
	if err := repo.Create(ctx, n1); !errors.Is(err, newsrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate: expected ErrAlreadyExists, got %v", err)
	}

	list, err := repo.List(ctx, nil)
	if err != nil || len(list) != 2 || list[0].ID != n1.ID {
		t.Fatalf("List newest first: %#v err=%v", list, err)
	}
	status := domain.NewsDraft
	list, err = repo.List(ctx, &status)
	if err != nil || len(list) != 1 || list[0].ID != n2.ID {
		t.Fatalf("List drafts: %#v err=%v", list, err)
	}

	scheduled := at(500)
	n2.ScheduledDate = &scheduled
	n2.FeaturedImageURL = domain.Ptr("https://example.com/a.png")
	if err := repo.Update(ctx, n2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(ctx, n2.ID)
	if err != nil || got.ScheduledDate == nil || !got.ScheduledDate.Equal(scheduled) || got.FeaturedImageURL == nil || got.PublishedDate != nil {
		t.Fatalf("GetByID: %#v err=%v", got, err)
	}
	if err := repo.Delete(ctx, n2.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, n2.ID); !errors.Is(err, newsrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, n2); !errors.Is(err, newsrepoport.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}
}

func auditEntry(seq int64, action domain.AuditAction, email string) domain.AuditLog {
	return domain.AuditLog{
		ID:             domain.FormatID("AUD", seq),
		SequenceNumber: seq,
		Timestamp:      at(seq),
		UserEmail:      email,
		UserRole:       domain.RoleAdmin,
		Action:         action,
		IPAddress:      "127.0.0.1",
		DataPayload:    json.RawMessage(`{"n":1}`),
		PreviousHash:   "prev",
		Hash:           "hash",
	}
}

func RunAuditRepo(t *testing.T, newRepo AuditRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	if _, err := repo.Last(ctx); !errors.Is(err, auditrepoport.ErrNotFound) {
		t.Fatalf("Last on empty log: expected ErrNotFound, got %v", err)
	}
	e1 := auditEntry(1, domain.ActionLogin, "admin@wecare.ems")
	e2 := auditEntry(2, domain.ActionCreateRide, "officer@wecare.ems")
	e2.TargetID = domain.Ptr("RIDE-001")
	e3 := auditEntry(3, domain.ActionLogin, "officer@wecare.ems")
	for _, e := range []domain.AuditLog{e1, e2, e3} {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append %d: %v", e.SequenceNumber, err)
		}
	}
	dup := auditEntry(3, domain.ActionLogout, "x@wecare.ems")
	dup.ID = "AUD-999"
	if err := repo.Append(ctx, dup); !errors.Is(err, auditrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate sequence: expected ErrAlreadyExists, got %v", err)
	}

	last, err := repo.Last(ctx)
	if err != nil || last.SequenceNumber != 3 {
		t.Fatalf("Last: %#v err=%v", last, err)
	}
	var payload map[string]int
	if err := json.Unmarshal(last.DataPayload, &payload); err != nil || payload["n"] != 1 || !last.Timestamp.Equal(at(3)) {
		t.Fatalf("fields did not round-trip: %#v err=%v", last, err)
	}

	logs, total, err := repo.List(ctx, auditrepoport.Filter{})
	if err != nil || total != 3 || logs[0].SequenceNumber != 3 {
		t.Fatalf("List newest first: total=%d err=%v", total, err)
	}
	action := domain.ActionLogin
	_, total, err = repo.List(ctx, auditrepoport.Filter{Action: &action})
	if err != nil || total != 2 {
		t.Fatalf("List by action: total=%d err=%v", total, err)
	}
	logs, total, err = repo.List(ctx, auditrepoport.Filter{UserEmail: "officer@wecare.ems", Limit: 1})
	if err != nil || total != 2 || len(logs) != 1 || logs[0].SequenceNumber != 3 {
		t.Fatalf("List by email: total=%d err=%v", total, err)
	}
	logs, total, err = repo.List(ctx, auditrepoport.Filter{TargetID: "RIDE-001"})
	if err != nil || total != 1 || logs[0].TargetID == nil || *logs[0].TargetID != "RIDE-001" {
		t.Fatalf("List by target: total=%d err=%v", total, err)
	}

	all, err := repo.All(ctx)
	if err != nil || len(all) != 3 || all[0].SequenceNumber != 1 || all[2].SequenceNumber != 3 {
		t.Fatalf("All: %#v err=%v", all, err)
	}

	for i := range all {
		all[i].Hash = "rebuilt"
	}
	if err := repo.ReplaceAll(ctx, all[:2]); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	all, err = repo.All(ctx)
	if err != nil || len(all) != 2 || all[1].Hash != "rebuilt" {
		t.Fatalf("All after ReplaceAll: %#v err=%v", all, err)
	}
}

func RunSettingsRepo(t *testing.T, newRepo SettingsRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	if _, err := repo.Get(ctx); !errors.Is(err, settingsrepoport.ErrNotFound) {
		t.Fatalf("Get before Put: expected ErrNotFound, got %v", err)
	}
	s := domain.DefaultSettings()
	s.OrganizationName = "รพ.สต. บ้านใหม่"
	s.MaintenanceMode = true
	s.UpdatedAt = at(0)
	if err := repo.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.SchedulingModel = domain.SchedulingTeam
	if err := repo.Put(ctx, s); err != nil {
		t.Fatalf("Put again: %v", err)
	}
	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OrganizationName != s.OrganizationName || !got.MaintenanceMode || got.SchedulingModel != domain.SchedulingTeam || got.MapCenterLat != s.MapCenterLat {
		t.Fatalf("settings did not round-trip: %#v", got)
	}
}

func RunTokenRepo(t *testing.T, newRepo TokenRepoFactory) {
	t.Helper()
	ctx := context.Background()
	repo := open(t, newRepo)

	if ok, err := repo.IsRevoked(ctx, "jti-1"); err != nil || ok {
		t.Fatalf("IsRevoked before Revoke: ok=%v err=%v", ok, err)
	}
	if err := repo.Revoke(ctx, "jti-1", at(60)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := repo.Revoke(ctx, "jti-1", at(60)); err != nil {
		t.Fatalf("Revoke twice: %v", err)
	}
	if err := repo.Revoke(ctx, "jti-2", at(600)); err != nil {
		t.Fatalf("Revoke jti-2: %v", err)
	}
	if ok, err := repo.IsRevoked(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("IsRevoked: ok=%v err=%v", ok, err)
	}
	n, err := repo.PurgeExpired(ctx, at(120))
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired: n=%d err=%v", n, err)
	}
	if ok, _ := repo.IsRevoked(ctx, "jti-1"); ok {
		t.Fatalf("expired entry should be purged")
	}
	if ok, _ := repo.IsRevoked(ctx, "jti-2"); !ok {
		t.Fatalf("live entry should remain")
	}
}
