package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/drivers"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type createDriverRequest struct {
	FullName        string  `json:"full_name"`
	Phone           string  `json:"phone"`
	Email           *string `json:"email"`
	UserID          *string `json:"user_id"`
	LicenseNumber   *string `json:"license_number"`
	LicensePlate    *string `json:"license_plate"`
	VehicleBrand    *string `json:"vehicle_brand"`
	VehicleModel    *string `json:"vehicle_model"`
	VehicleColor    *string `json:"vehicle_color"`
	VehicleType     *string `json:"vehicle_type"`
	Address         *string `json:"address"`
	Status          string  `json:"status"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type updateDriverRequest struct {
	FullName        nullable.Nullable[string] `json:"full_name"`
	Phone           nullable.Nullable[string] `json:"phone"`
	Email           nullable.Nullable[string] `json:"email"`
	UserID          nullable.Nullable[string] `json:"user_id"`
	LicenseNumber   nullable.Nullable[string] `json:"license_number"`
	LicensePlate    nullable.Nullable[string] `json:"license_plate"`
	VehicleBrand    nullable.Nullable[string] `json:"vehicle_brand"`
	VehicleModel    nullable.Nullable[string] `json:"vehicle_model"`
	VehicleColor    nullable.Nullable[string] `json:"vehicle_color"`
	VehicleType     nullable.Nullable[string] `json:"vehicle_type"`
	Address         nullable.Nullable[string] `json:"address"`
	Status          nullable.Nullable[string] `json:"status"`
	ProfileImageURL nullable.Nullable[string] `json:"profile_image_url"`
}

type driverStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListDrivers(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Drivers.List(r.Context(), drivers.ListInput{
		Status: queryString(r, "status"),
		Query:  queryString(r, "q"),
		Params: params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, driverFromDomain))
}

func (s *Server) GetDriver(w http.ResponseWriter, r *http.Request) {
	d, err := s.Drivers.Get(r.Context(), domain.DriverID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: driverFromDomain(d)})
}

func (s *Server) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req createDriverRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.Drivers.Create(r.Context(), drivers.CreateInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: driverFromDomain(d)})
}

func (s *Server) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	var req updateDriverRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.Drivers.Update(r.Context(), principal(r), domain.DriverID(pathID(r, "id")), drivers.UpdateInput{
		FullName:        optional(req.FullName),
		Phone:           optional(req.Phone),
		Email:           optional(req.Email),
		UserID:          optional(req.UserID),
		LicenseNumber:   optional(req.LicenseNumber),
		LicensePlate:    optional(req.LicensePlate),
		VehicleBrand:    optional(req.VehicleBrand),
		VehicleModel:    optional(req.VehicleModel),
		VehicleColor:    optional(req.VehicleColor),
		VehicleType:     optional(req.VehicleType),
		Address:         optional(req.Address),
		Status:          optional(req.Status),
		ProfileImageURL: optional(req.ProfileImageURL),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: driverFromDomain(d)})
}

func (s *Server) UpdateDriverStatus(w http.ResponseWriter, r *http.Request) {
	var req driverStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.Drivers.UpdateStatus(r.Context(), principal(r), domain.DriverID(pathID(r, "id")), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: driverFromDomain(d)})
}

func (s *Server) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	if err := s.Drivers.Delete(r.Context(), domain.DriverID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) MyDriverProfile(w http.ResponseWriter, r *http.Request) {
	d, err := s.Drivers.Me(r.Context(), principal(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: driverFromDomain(d)})
}

func (s *Server) MyDriverRides(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var date *openapi_types.Date
	if err := bindQuery(r, "date", &date); err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Drivers.MyRides(r.Context(), principal(r), drivers.MyRidesInput{
		Date:   datePtr(date),
		Status: queryString(r, "status"),
		Params: params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, rideFromDomain))
}
