package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/vehicles"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type createVehicleRequest struct {
	LicensePlate        string              `json:"license_plate"`
	Brand               *string             `json:"brand"`
	Model               *string             `json:"model"`
	TypeID              *string             `json:"type_id"`
	Capacity            int                 `json:"capacity"`
	Status              string              `json:"status"`
	AssignedTeamID      *string             `json:"assigned_team_id"`
	NextMaintenanceDate *openapi_types.Date `json:"next_maintenance_date"`
}

type updateVehicleRequest struct {
	LicensePlate        nullable.Nullable[string]             `json:"license_plate"`
	Brand               nullable.Nullable[string]             `json:"brand"`
	Model               nullable.Nullable[string]             `json:"model"`
	TypeID              nullable.Nullable[string]             `json:"type_id"`
	Capacity            nullable.Nullable[int]                `json:"capacity"`
	Status              nullable.Nullable[string]             `json:"status"`
	AssignedTeamID      nullable.Nullable[string]             `json:"assigned_team_id"`
	NextMaintenanceDate nullable.Nullable[openapi_types.Date] `json:"next_maintenance_date"`
}

type vehicleTypeRequest struct {
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Description *string `json:"description"`
}

func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vs, err := s.Vehicles.ListVehicles(r.Context(), vehicles.ListInput{
		Status: queryString(r, "status"),
		TypeID: queryString(r, "typeId"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(vs, vehicleFromDomain)})
}

func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.Vehicles.GetVehicle(r.Context(), domain.VehicleID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: vehicleFromDomain(v)})
}

func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.Vehicles.CreateVehicle(r.Context(), vehicles.VehicleInput{
		LicensePlate:        req.LicensePlate,
		Brand:               req.Brand,
		Model:               req.Model,
		TypeID:              req.TypeID,
		Capacity:            req.Capacity,
		Status:              req.Status,
		AssignedTeamID:      req.AssignedTeamID,
		NextMaintenanceDate: datePtr(req.NextMaintenanceDate),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: vehicleFromDomain(v)})
}

func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req updateVehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.Vehicles.UpdateVehicle(r.Context(), domain.VehicleID(pathID(r, "id")), vehicles.VehicleUpdate{
		LicensePlate:        optional(req.LicensePlate),
		Brand:               optional(req.Brand),
		Model:               optional(req.Model),
		TypeID:              optional(req.TypeID),
		Capacity:            optional(req.Capacity),
		Status:              optional(req.Status),
		AssignedTeamID:      optional(req.AssignedTeamID),
		NextMaintenanceDate: optionalDate(req.NextMaintenanceDate),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: vehicleFromDomain(v)})
}

func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.Vehicles.DeleteVehicle(r.Context(), domain.VehicleID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListVehicleTypes(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Vehicles.ListTypes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(ts, vehicleTypeFromDomain)})
}

func (s *Server) GetVehicleType(w http.ResponseWriter, r *http.Request) {
	t, err := s.Vehicles.GetType(r.Context(), domain.VehicleTypeID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: vehicleTypeFromDomain(t)})
}

func (s *Server) CreateVehicleType(w http.ResponseWriter, r *http.Request) {
	var req vehicleTypeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.Vehicles.CreateType(r.Context(), vehicles.TypeInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: vehicleTypeFromDomain(t)})
}

func (s *Server) UpdateVehicleType(w http.ResponseWriter, r *http.Request) {
	var req vehicleTypeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.Vehicles.UpdateType(r.Context(), domain.VehicleTypeID(pathID(r, "id")), vehicles.TypeInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: vehicleTypeFromDomain(t)})
}

func (s *Server) DeleteVehicleType(w http.ResponseWriter, r *http.Request) {
	if err := s.Vehicles.DeleteType(r.Context(), domain.VehicleTypeID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
