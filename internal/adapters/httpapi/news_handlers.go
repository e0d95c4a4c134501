package httpapi

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/news"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type createNewsRequest struct {
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Author           string     `json:"author"`
	Status           string     `json:"status"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	FeaturedImageURL *string    `json:"featured_image_url"`
}

type updateNewsRequest struct {
	Title            nullable.Nullable[string]    `json:"title"`
	Content          nullable.Nullable[string]    `json:"content"`
	Author           nullable.Nullable[string]    `json:"author"`
	Status           nullable.Nullable[string]    `json:"status"`
	ScheduledDate    nullable.Nullable[time.Time] `json:"scheduled_date"`
	FeaturedImageURL nullable.Nullable[string]    `json:"featured_image_url"`
}

// ListNews is public. Staff callers may pass ?all=true to include drafts.
func (s *Server) ListNews(w http.ResponseWriter, r *http.Request) {
	var all *bool
	if err := bindQuery(r, "all", &all); err != nil {
		s.fail(w, r, err)
		return
	}
	ns, err := s.News.List(r.Context(), principalPtr(r), news.ListInput{All: all != nil && *all})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ns, newsFromDomain)})
}

func (s *Server) GetNews(w http.ResponseWriter, r *http.Request) {
	n, err := s.News.Get(r.Context(), principalPtr(r), domain.NewsID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: newsFromDomain(n)})
}

func (s *Server) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req createNewsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := s.News.Create(r.Context(), principal(r), news.CreateInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: newsFromDomain(n)})
}

func (s *Server) UpdateNews(w http.ResponseWriter, r *http.Request) {
	var req updateNewsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := s.News.Update(r.Context(), domain.NewsID(pathID(r, "id")), news.UpdateInput{
		Title:            optional(req.Title),
		Content:          optional(req.Content),
		Author:           optional(req.Author),
		Status:           optional(req.Status),
		ScheduledDate:    optional(req.ScheduledDate),
		FeaturedImageURL: optional(req.FeaturedImageURL),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: newsFromDomain(n)})
}

func (s *Server) DeleteNews(w http.ResponseWriter, r *http.Request) {
	if err := s.News.Delete(r.Context(), domain.NewsID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
