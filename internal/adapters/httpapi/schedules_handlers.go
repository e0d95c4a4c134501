package httpapi

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/schedules"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type teamRequest struct {
	Name      string   `json:"name"`
	DriverID  *string  `json:"driver_id"`
	StaffIDs  []string `json:"staff_ids"`
	VehicleID *string  `json:"vehicle_id"`
}

type teamShiftRequest struct {
	TeamID    string              `json:"team_id"`
	Date      *openapi_types.Date `json:"date"`
	Status    string              `json:"status"`
	VehicleID *string             `json:"vehicle_id"`
}

type driverShiftRequest struct {
	DriverID string              `json:"driver_id"`
	Date     *openapi_types.Date `json:"date"`
	Shift    string              `json:"shift"`
}

func (s *Server) ListTeams(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Schedules.ListTeams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ts, teamFromDomain)})
}

func (s *Server) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := s.Schedules.GetTeam(r.Context(), domain.TeamID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: teamFromDomain(t)})
}

func (s *Server) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.Schedules.CreateTeam(r.Context(), schedules.TeamInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: teamFromDomain(t)})
}

func (s *Server) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.Schedules.UpdateTeam(r.Context(), domain.TeamID(pathID(r, "id")), schedules.TeamInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: teamFromDomain(t)})
}

func (s *Server) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.Schedules.DeleteTeam(r.Context(), domain.TeamID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func shiftRange(r *http.Request) (schedules.RangeInput, error) {
	var from, to *openapi_types.Date
	if err := bindQuery(r, "from", &from); err != nil {
		return schedules.RangeInput{}, err
	}
	if err := bindQuery(r, "to", &to); err != nil {
		return schedules.RangeInput{}, err
	}
	return schedules.RangeInput{
		From:     datePtr(from),
		To:       datePtr(to),
		TeamID:   queryString(r, "teamId"),
		DriverID: queryString(r, "driverId"),
	}, nil
}

func (s *Server) ListTeamShifts(w http.ResponseWriter, r *http.Request) {
	in, err := shiftRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ss, err := s.Schedules.ListTeamShifts(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ss, teamShiftFromDomain)})
}

func (s *Server) PutTeamShift(w http.ResponseWriter, r *http.Request) {
	var req teamShiftRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sh, err := s.Schedules.PutTeamShift(r.Context(), schedules.TeamShiftInput{
		TeamID:    req.TeamID,
		Date:      datePtr(req.Date),
		Status:    req.Status,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: teamShiftFromDomain(sh)})
}

func (s *Server) DeleteTeamShift(w http.ResponseWriter, r *http.Request) {
	if err := s.Schedules.DeleteTeamShift(r.Context(), domain.ShiftID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListDriverShifts(w http.ResponseWriter, r *http.Request) {
	in, err := shiftRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ss, err := s.Schedules.ListDriverShifts(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ss, driverShiftFromDomain)})
}

func (s *Server) PutDriverShift(w http.ResponseWriter, r *http.Request) {
	var req driverShiftRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sh, err := s.Schedules.PutDriverShift(r.Context(), schedules.DriverShiftInput{
		DriverID: req.DriverID,
		Date:     datePtr(req.Date),
		Shift:    req.Shift,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: driverShiftFromDomain(sh)})
}

func (s *Server) DeleteDriverShift(w http.ResponseWriter, r *http.Request) {
	if err := s.Schedules.DeleteDriverShift(r.Context(), domain.ShiftID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
