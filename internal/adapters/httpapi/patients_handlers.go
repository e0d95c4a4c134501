package httpapi

import (
	"net/http"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/app/patients"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type addressBody struct {
	HouseNumber string `json:"house_number"`
	Village     string `json:"village"`
	Tambon      string `json:"tambon"`
	Amphoe      string `json:"amphoe"`
	Changwat    string `json:"changwat"`
}

func (a addressBody) toDomain() domain.Address { return domain.Address(a) }

func optionalAddress(n nullable.Nullable[addressBody]) patch.Optional[domain.Address] {
	o := optional(n)
	switch {
	case o.HasValue():
		return patch.Some(o.Value().toDomain())
	case o.IsNull():
		return patch.Null[domain.Address]()
	default:
		return patch.Unspecified[domain.Address]()
	}
}

type createPatientRequest struct {
	FullName        string              `json:"full_name"`
	Title           *string             `json:"title"`
	NationalID      *string             `json:"national_id"`
	DOB             *openapi_types.Date `json:"dob"`
	Age             *int                `json:"age"`
	Gender          *string             `json:"gender"`
	BloodType       *string             `json:"blood_type"`
	RhFactor        *string             `json:"rh_factor"`
	HealthCoverage  *string             `json:"health_coverage"`
	ContactPhone    *string             `json:"contact_phone"`
	IDCardAddress   addressBody         `json:"id_card_address"`
	CurrentAddress  addressBody         `json:"current_address"`
	Landmark        *string             `json:"landmark"`
	Latitude        *float64            `json:"latitude"`
	Longitude       *float64            `json:"longitude"`
	PatientTypes    []string            `json:"patient_types"`
	ChronicDiseases []string            `json:"chronic_diseases"`
	Allergies       []string            `json:"allergies"`
	ProfileImageURL *string             `json:"profile_image_url"`
}

type updatePatientRequest struct {
	FullName        nullable.Nullable[string]             `json:"full_name"`
	Title           nullable.Nullable[string]             `json:"title"`
	NationalID      nullable.Nullable[string]             `json:"national_id"`
	DOB             nullable.Nullable[openapi_types.Date] `json:"dob"`
	Age             nullable.Nullable[int]                `json:"age"`
	Gender          nullable.Nullable[string]             `json:"gender"`
	BloodType       nullable.Nullable[string]             `json:"blood_type"`
	RhFactor        nullable.Nullable[string]             `json:"rh_factor"`
	HealthCoverage  nullable.Nullable[string]             `json:"health_coverage"`
	ContactPhone    nullable.Nullable[string]             `json:"contact_phone"`
	IDCardAddress   nullable.Nullable[addressBody]        `json:"id_card_address"`
	CurrentAddress  nullable.Nullable[addressBody]        `json:"current_address"`
	Landmark        nullable.Nullable[string]             `json:"landmark"`
	Latitude        nullable.Nullable[float64]            `json:"latitude"`
	Longitude       nullable.Nullable[float64]            `json:"longitude"`
	PatientTypes    nullable.Nullable[[]string]           `json:"patient_types"`
	ChronicDiseases nullable.Nullable[[]string]           `json:"chronic_diseases"`
	Allergies       nullable.Nullable[[]string]           `json:"allergies"`
	ProfileImageURL nullable.Nullable[string]             `json:"profile_image_url"`
}

// ListPatients serves /api/patients, /api/office/patients and /api/community/patients.
// Visibility follows the caller's role.
func (s *Server) ListPatients(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.Patients.List(r.Context(), principal(r), patients.ListInput{
		Query:  queryString(r, "q"),
		Params: params,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageFrom(page, patientFromDomain))
}

func (s *Server) GetPatient(w http.ResponseWriter, r *http.Request) {
	pt, err := s.Patients.Get(r.Context(), principal(r), domain.PatientID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: patientFromDomain(pt)})
}

func (s *Server) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	pt, err := s.Patients.Create(r.Context(), principal(r), patients.CreateInput{
		FullName:        req.FullName,
		Title:           req.Title,
		NationalID:      req.NationalID,
		DOB:             datePtr(req.DOB),
		Age:             req.Age,
		Gender:          req.Gender,
		BloodType:       req.BloodType,
		RhFactor:        req.RhFactor,
		HealthCoverage:  req.HealthCoverage,
		ContactPhone:    req.ContactPhone,
		IDCardAddress:   req.IDCardAddress.toDomain(),
		CurrentAddress:  req.CurrentAddress.toDomain(),
		Landmark:        req.Landmark,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PatientTypes:    req.PatientTypes,
		ChronicDiseases: req.ChronicDiseases,
		Allergies:       req.Allergies,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: patientFromDomain(pt)})
}

func (s *Server) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var req updatePatientRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	pt, err := s.Patients.Update(r.Context(), principal(r), domain.PatientID(pathID(r, "id")), patients.UpdateInput{
		FullName:        optional(req.FullName),
		Title:           optional(req.Title),
		NationalID:      optional(req.NationalID),
		DOB:             optionalDate(req.DOB),
		Age:             optional(req.Age),
		Gender:          optional(req.Gender),
		BloodType:       optional(req.BloodType),
		RhFactor:        optional(req.RhFactor),
		HealthCoverage:  optional(req.HealthCoverage),
		ContactPhone:    optional(req.ContactPhone),
		IDCardAddress:   optionalAddress(req.IDCardAddress),
		CurrentAddress:  optionalAddress(req.CurrentAddress),
		Landmark:        optional(req.Landmark),
		Latitude:        optional(req.Latitude),
		Longitude:       optional(req.Longitude),
		PatientTypes:    optional(req.PatientTypes),
		ChronicDiseases: optional(req.ChronicDiseases),
		Allergies:       optional(req.Allergies),
		ProfileImageURL: optional(req.ProfileImageURL),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: patientFromDomain(pt)})
}

func (s *Server) DeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := s.Patients.Delete(r.Context(), principal(r), domain.PatientID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
