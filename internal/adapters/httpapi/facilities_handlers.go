package httpapi

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/facilities"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type createFacilityRequest struct {
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	FacilityType *string  `json:"facility_type"`
	IsActive     *bool    `json:"is_active"`
}

type updateFacilityRequest struct {
	Name         nullable.Nullable[string]  `json:"name"`
	Lat          nullable.Nullable[float64] `json:"lat"`
	Lng          nullable.Nullable[float64] `json:"lng"`
	FacilityType nullable.Nullable[string]  `json:"facility_type"`
	IsActive     nullable.Nullable[bool]    `json:"is_active"`
}

type facilityJSON struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Lat          float64                   `json:"lat"`
	Lng          float64                   `json:"lng"`
	FacilityType nullable.Nullable[string] `json:"facilityType"`
	IsActive     bool                      `json:"isActive"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

func facilityFromDomain(f domain.Facility) facilityJSON {
	return facilityJSON{
		ID:           string(f.ID),
		Name:         f.Name,
		Lat:          f.Location.Lat,
		Lng:          f.Location.Lng,
		FacilityType: nullableString(f.FacilityType),
		IsActive:     f.IsActive,
		CreatedAt:    f.CreatedAt.UTC(),
		UpdatedAt:    f.UpdatedAt.UTC(),
	}
}

// ListFacilities returns active facilities by name. Staff may pass ?include_inactive=true.
func (s *Server) ListFacilities(w http.ResponseWriter, r *http.Request) {
	var inactive *bool
	if err := bindQuery(r, "include_inactive", &inactive); err != nil {
		s.fail(w, r, err)
		return
	}
	fs, err := s.Facilities.List(r.Context(), principal(r), facilities.ListInput{IncludeInactive: inactive != nil && *inactive})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(fs, facilityFromDomain)})
}

func (s *Server) GetFacility(w http.ResponseWriter, r *http.Request) {
	f, err := s.Facilities.Get(r.Context(), principal(r), domain.FacilityID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: facilityFromDomain(f)})
}

func (s *Server) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req createFacilityRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := s.Facilities.Create(r.Context(), principal(r), facilities.CreateInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: facilityFromDomain(f)})
}

func (s *Server) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	var req updateFacilityRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := s.Facilities.Update(r.Context(), principal(r), domain.FacilityID(pathID(r, "id")), facilities.UpdateInput{
		Name:         optional(req.Name),
		Lat:          optional(req.Lat),
		Lng:          optional(req.Lng),
		FacilityType: optional(req.FacilityType),
		IsActive:     optional(req.IsActive),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: facilityFromDomain(f)})
}

func (s *Server) DeleteFacility(w http.ResponseWriter, r *http.Request) {
	if err := s.Facilities.Delete(r.Context(), principal(r), domain.FacilityID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
