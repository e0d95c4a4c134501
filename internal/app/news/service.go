// Package news publishes announcements. Anonymous readers only see published articles.
package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/newsrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

type Service struct {
	repo newsrepo.Repository
	seq  sequence.Generator
	clk  clockport.Clock
}

func NewService(repo newsrepo.Repository, seq sequence.Generator, clk clockport.Clock) *Service {
	return &Service{repo: repo, seq: seq, clk: clk}
}

func articleNotFound() *apperr.Error { return apperr.NotFound("News article not found") }

// canSeeDrafts is true for the roles that may write news.
func canSeeDrafts(p *domain.Principal) bool {
	return p != nil && p.Role.In(domain.RoleAdmin, domain.RoleDeveloper, domain.RoleOfficer)
}

// List returns visible articles, newest first. p is nil for anonymous callers.
func (s *Service) List(ctx context.Context, p *domain.Principal, in ListInput) ([]domain.NewsArticle, error) {
	if in.All && canSeeDrafts(p) {
		out, err := s.repo.List(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("list news: %w", err)
		}
		return out, nil
	}
	published := domain.NewsPublished
	all, err := s.repo.List(ctx, &published)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	now := s.clk.Now()
	out := make([]domain.NewsArticle, 0, len(all))
	for _, n := range all {
		if n.VisibleAt(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p *domain.Principal, id domain.NewsID) (domain.NewsArticle, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, newsrepo.ErrNotFound) {
			return domain.NewsArticle{}, articleNotFound()
		}
		return domain.NewsArticle{}, err
	}
	if !canSeeDrafts(p) && !n.VisibleAt(s.clk.Now()) {
		return domain.NewsArticle{}, articleNotFound()
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domain.NewsArticle, error) {
	details := map[string]any{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		details["title"] = "must be non-empty"
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		details["content"] = "must be non-empty"
	}
	status := domain.NewsDraft
	if in.Status != "" {
		st, ok := parseStatus(in.Status)
		if !ok {
			details["status"] = "must be published or draft"
		}
		status = st
	}
	if len(details) > 0 {
		return domain.NewsArticle{}, apperr.Validation("invalid news article", details)
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = p.Name
	}
	if author == "" {
		author = p.Email
	}

	n, err := s.seq.Next(ctx, domain.PrefixNews)
	if err != nil {
		return domain.NewsArticle{}, fmt.Errorf("next news id: %w", err)
	}
	now := s.clk.Now()
	a := domain.NewsArticle{
		ID:               domain.NewsID(domain.FormatID(domain.PrefixNews, n)),
		Title:            title,
		Content:          content,
		Author:           author,
		Status:           status,
		ScheduledDate:    in.ScheduledDate,
		FeaturedImageURL: trimPtr(in.FeaturedImageURL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == domain.NewsPublished {
		a.PublishedDate = &now
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, newsrepo.ErrAlreadyExists) {
			return domain.NewsArticle{}, apperr.Conflict(apperr.CodeConflict, "News article already exists")
		}
		return domain.NewsArticle{}, err
	}
	return a, nil
}

// Update applies a partial update. The first transition to published stamps PublishedDate.
func (s *Service) Update(ctx context.Context, id domain.NewsID, in UpdateInput) (domain.NewsArticle, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, newsrepo.ErrNotFound) {
			return domain.NewsArticle{}, articleNotFound()
		}
		return domain.NewsArticle{}, err
	}

	details := map[string]any{}
	requireText := func(dst *string, o patch.Optional[string], field string) {
		if !o.IsSpecified() {
			return
		}
		v := strings.TrimSpace(o.Value())
		if o.IsNull() || v == "" {
			details[field] = "must be non-empty"
			return
		}
		*dst = v
	}
	requireText(&a.Title, in.Title, "title")
	requireText(&a.Content, in.Content, "content")
	requireText(&a.Author, in.Author, "author")
	if in.Status.IsSpecified() {
		st, ok := parseStatus(in.Status.Value())
		if in.Status.IsNull() || !ok {
			details["status"] = "must be published or draft"
		}
		a.Status = st
	}
	if len(details) > 0 {
		return domain.NewsArticle{}, apperr.Validation("invalid news article", details)
	}
	patch.ApplyPtr(&a.ScheduledDate, in.ScheduledDate)
	if in.FeaturedImageURL.IsSpecified() {
		a.FeaturedImageURL = nil
		if in.FeaturedImageURL.HasValue() {
			a.FeaturedImageURL = trimPtr(domain.Ptr(in.FeaturedImageURL.Value()))
		}
	}

	now := s.clk.Now()
	if a.Status == domain.NewsPublished && a.PublishedDate == nil {
		a.PublishedDate = &now
	}
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, newsrepo.ErrNotFound) {
			return domain.NewsArticle{}, articleNotFound()
		}
		return domain.NewsArticle{}, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id domain.NewsID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, newsrepo.ErrNotFound) {
			return articleNotFound()
		}
		return err
	}
	return nil
}

func parseStatus(s string) (domain.NewsStatus, bool) {
	switch st := domain.NewsStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case domain.NewsPublished, domain.NewsDraft:
		return st, true
	default:
		return "", false
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
