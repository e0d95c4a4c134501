package news

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/apptest"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

func ids(ns []domain.NewsArticle) []domain.NewsID {
	out := make([]domain.NewsID, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}

func TestService_Visibility(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	svc := NewService(env.Store.News, env.Store.Sequences, env.Clock)
	ctx := context.Background()
	officer := apptest.RolePrincipal(domain.RoleOfficer)
	officer.Name = "Officer Kanya"

	live, err := svc.Create(ctx, officer, CreateInput{Title: "Clinic day", Content: "Saturday", Status: "published"})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if live.PublishedDate == nil || !live.PublishedDate.Equal(apptest.Epoch) || live.Author != "Officer Kanya" {
		t.Fatalf("live=%+v", live)
	}
	env.Clock.Advance(time.Minute)
	draft, err := svc.Create(ctx, officer, CreateInput{Title: "Draft", Content: "wip"})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	env.Clock.Advance(time.Minute)
	future, err := svc.Create(ctx, officer, CreateInput{
		Title: "Later", Content: "soon", Status: "PUBLISHED",
		ScheduledDate: domain.Ptr(apptest.Epoch.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	public, err := svc.List(ctx, nil, ListInput{All: true})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if diff := cmp.Diff([]domain.NewsID{live.ID}, ids(public)); diff != "" {
		t.Fatalf("public mismatch (-want +got):\n%s", diff)
	}
	driver := apptest.RolePrincipal(domain.RoleDriver)
	if got, _ := svc.List(ctx, &driver, ListInput{All: true}); len(got) != 1 {
		t.Fatalf("driver sees %d articles", len(got))
	}
	staff, err := svc.List(ctx, &officer, ListInput{All: true})
	if err != nil || len(staff) != 3 {
		t.Fatalf("staff list=%v err=%v", ids(staff), err)
	}

	_, err = svc.Get(ctx, nil, draft.ID)
	apptest.ExpectError(t, err, http.StatusNotFound, apperr.CodeNotFound)
	if _, err := svc.Get(ctx, &officer, draft.ID); err != nil {
		t.Fatalf("staff Get draft err=%v", err)
	}

	env.Clock.Advance(2 * time.Hour)
	if _, err := svc.Get(ctx, nil, future.ID); err != nil {
		t.Fatalf("scheduled article not visible after its date: %v", err)
	}
}

func TestService_PublishStampsDate(t *testing.T) {
	t.Parallel()

	env := apptest.NewEnv(t)
	svc := NewService(env.Store.News, env.Store.Sequences, env.Clock)
	ctx := context.Background()
	admin := apptest.RolePrincipal(domain.RoleAdmin)

	a, err := svc.Create(ctx, admin, CreateInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if a.Status != domain.NewsDraft || a.PublishedDate != nil || a.Author != admin.Email {
		t.Fatalf("draft=%+v", a)
	}

	env.Clock.Advance(time.Hour)
	pub, err := svc.Update(ctx, a.ID, UpdateInput{Status: patch.Some("published")})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if pub.PublishedDate == nil || !pub.PublishedDate.Equal(apptest.Epoch.Add(time.Hour)) {
		t.Fatalf("published=%+v", pub)
	}

	env.Clock.Advance(time.Hour)
	again, err := svc.Update(ctx, a.ID, UpdateInput{Title: patch.Some("T2")})
	if err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if !again.PublishedDate.Equal(*pub.PublishedDate) {
		t.Fatalf("published date moved: %v", again.PublishedDate)
	}

	_, err = svc.Update(ctx, a.ID, UpdateInput{Title: patch.Some(" "), Status: patch.Some("archived")})
	ae := apptest.ExpectError(t, err, http.StatusUnprocessableEntity, apperr.CodeValidation)
	if len(ae.Details) != 2 {
		t.Fatalf("details=%v", ae.Details)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	apptest.ExpectError(t, svc.Delete(ctx, a.ID), http.StatusNotFound, apperr.CodeNotFound)
}
