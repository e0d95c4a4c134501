package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/app/rides"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type coordinatesBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// createRideRequest accepts pickup coordinates either as pickup_lat/pickup_lng or as a
// pickup_coordinates object. The object wins when both are sent.
type createRideRequest struct {
	PatientID         *string          `json:"patient_id"`
	PatientName       string           `json:"patient_name"`
	PatientPhone      *string          `json:"patient_phone"`
	PickupLocation    string           `json:"pickup_location"`
	PickupLat         *float64         `json:"pickup_lat"`
	PickupLng         *float64         `json:"pickup_lng"`
	PickupCoordinates *coordinatesBody `json:"pickup_coordinates"`
	Village           *string          `json:"village"`
	Landmark          *string          `json:"landmark"`
	Destination       string           `json:"destination"`
	AppointmentTime   string           `json:"appointment_time"`
	SpecialNeeds      []string         `json:"special_needs"`
	CaregiverCount    int              `json:"caregiver_count"`
	ContactPhone      *string          `json:"contact_phone"`
	TripType          *string          `json:"trip_type"`
	Notes             *string          `json:"notes"`
}

type updateRideRequest struct {
	PatientName       nullable.Nullable[string]          `json:"patient_name"`
	PatientPhone      nullable.Nullable[string]          `json:"patient_phone"`
	PickupLocation    nullable.Nullable[string]          `json:"pickup_location"`
	PickupCoordinates nullable.Nullable[coordinatesBody] `json:"pickup_coordinates"`
	Village           nullable.Nullable[string]          `json:"village"`
	Landmark          nullable.Nullable[string]          `json:"landmark"`
	Destination       nullable.Nullable[string]          `json:"destination"`
	AppointmentTime   nullable.Nullable[string]          `json:"appointment_time"`
	SpecialNeeds      nullable.Nullable[[]string]        `json:"special_needs"`
	CaregiverCount    nullable.Nullable[int]             `json:"caregiver_count"`
	ContactPhone      nullable.Nullable[string]          `json:"contact_phone"`
	TripType          nullable.Nullable[string]          `json:"trip_type"`
	Notes             nullable.Nullable[string]          `json:"notes"`
	DriverID          nullable.Nullable[string]          `json:"driver_id"`
	Status            nullable.Nullable[string]          `json:"status"`
}

type rideStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type assignRideRequest struct {
	DriverID string `json:"driver_id"`
}

type rateRideRequest struct {
	Rating  int      `json:"rating"`
	Tags    []string `json:"tags"`
	Comment string   `json:"comment"`
}

func optionalCoordinates(n nullable.Nullable[coordinatesBody]) patch.Optional[domain.Coordinates] {
	o := optional(n)
	switch {
	case o.HasValue():
		return patch.Some(domain.Coordinates{Lat: o.Value().Lat, Lng: o.Value().Lng})
	case o.IsNull():
		return patch.Null[domain.Coordinates]()
	default:
		return patch.Unspecified[domain.Coordinates]()
	}
}

// ListRides serves /api/rides and /api/community/rides. The service scopes results by role.
func (s *Server) ListRides(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Rides.List(r.Context(), principal(r), rides.ListInput{
		Status:   queryString(r, "status"),
		DriverID: queryString(r, "driverId"),
		Params:   params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, rideFromDomain))
}

func (s *Server) GetRide(w http.ResponseWriter, r *http.Request) {
	ride, err := s.Rides.Get(r.Context(), principal(r), domain.RideID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) CreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	lat, lng := req.PickupLat, req.PickupLng
	if req.PickupCoordinates != nil {
		lat, lng = &req.PickupCoordinates.Lat, &req.PickupCoordinates.Lng
	}
	ride, err := s.Rides.Create(r.Context(), principal(r), rides.CreateInput{
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
		PatientPhone:    req.PatientPhone,
		PickupLocation:  req.PickupLocation,
		PickupLat:       lat,
		PickupLng:       lng,
		Village:         req.Village,
		Landmark:        req.Landmark,
		Destination:     req.Destination,
		AppointmentTime: req.AppointmentTime,
		SpecialNeeds:    req.SpecialNeeds,
		CaregiverCount:  req.CaregiverCount,
		ContactPhone:    req.ContactPhone,
		TripType:        req.TripType,
		Notes:           req.Notes,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) UpdateRide(w http.ResponseWriter, r *http.Request) {
	var req updateRideRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ride, err := s.Rides.Update(r.Context(), principal(r), domain.RideID(pathID(r, "id")), rides.UpdateInput{
		PatientName:       optional(req.PatientName),
		PatientPhone:      optional(req.PatientPhone),
		PickupLocation:    optional(req.PickupLocation),
		PickupCoordinates: optionalCoordinates(req.PickupCoordinates),
		Village:           optional(req.Village),
		Landmark:          optional(req.Landmark),
		Destination:       optional(req.Destination),
		AppointmentTime:   optional(req.AppointmentTime),
		SpecialNeeds:      optional(req.SpecialNeeds),
		CaregiverCount:    optional(req.CaregiverCount),
		ContactPhone:      optional(req.ContactPhone),
		TripType:          optional(req.TripType),
		Notes:             optional(req.Notes),
		DriverID:          optional(req.DriverID),
		Status:            optional(req.Status),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) UpdateRideStatus(w http.ResponseWriter, r *http.Request) {
	var req rideStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ride, err := s.Rides.UpdateStatus(r.Context(), principal(r), domain.RideID(pathID(r, "id")), req.Status, req.Note)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) AssignRide(w http.ResponseWriter, r *http.Request) {
	var req assignRideRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ride, err := s.Rides.Assign(r.Context(), principal(r), domain.RideID(pathID(r, "id")), domain.DriverID(req.DriverID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) RateRide(w http.ResponseWriter, r *http.Request) {
	var req rateRideRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ride, err := s.Rides.Rate(r.Context(), principal(r), domain.RideID(pathID(r, "id")), rides.RateInput(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rideFromDomain(ride)})
}

func (s *Server) DeleteRide(w http.ResponseWriter, r *http.Request) {
	if err := s.Rides.Delete(r.Context(), principal(r), domain.RideID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
