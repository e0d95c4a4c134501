package httpapi

import (
	"net/http"

	"github.com/wecare-ems/wecare-api/internal/app/locations"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type reportLocationRequest struct {
	DriverID  string   `json:"driver_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Heading   *float64 `json:"heading"`
	Speed     *float64 `json:"speed"`
	Accuracy  *float64 `json:"accuracy"`
}

func (s *Server) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req reportLocationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.Locations.Report(r.Context(), principal(r), locations.ReportInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: locationFromDomain(l)})
}

func (s *Server) ListLocations(w http.ResponseWriter, r *http.Request) {
	ls, err := s.Locations.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ls, locationFromDomain)})
}

func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	l, err := s.Locations.Get(r.Context(), domain.DriverID(pathID(r, "driverId")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: locationFromDomain(l)})
}

func (s *Server) RecentRideEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	evs, err := s.RideEvents.Recent(r.Context(), principal(r), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(evs, RideEventFromDomain)})
}

func (s *Server) RideEventsForRide(w http.ResponseWriter, r *http.Request) {
	evs, err := s.RideEvents.ForRide(r.Context(), principal(r), domain.RideID(pathID(r, "rideId")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(evs, RideEventFromDomain)})
}
