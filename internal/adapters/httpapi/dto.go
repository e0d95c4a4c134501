package httpapi

import (
	"encoding/json"
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type pageResponse[T any] struct {
	Data       []T             `json:"data"`
	Pagination pagination.Info `json:"pagination"`
}

func pageFrom[T, U any](p pagination.Page[T], conv func(T) U) pageResponse[U] {
	out := make([]U, 0, len(p.Data))
	for _, v := range p.Data {
		out = append(out, conv(v))
	}
	return pageResponse[U]{Data: out, Pagination: p.Pagination}
}

func listFrom[T, U any](in []T, conv func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, conv(v))
	}
	return out
}

type dataResponse struct {
	Data any `json:"data"`
}

func nullableString(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableInt(p *int) nullable.Nullable[int] {
	if p == nil {
		return nullable.NewNullNullable[int]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	if p == nil {
		return nullable.NewNullNullable[openapi_types.Date]()
	}
	return nullable.NewNullableWithValue(openapi_types.Date{Time: p.UTC()})
}

func nullableTime(p *time.Time) nullable.Nullable[time.Time] {
	if p == nil {
		return nullable.NewNullNullable[time.Time]()
	}
	return nullable.NewNullableWithValue(p.UTC())
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type userJSON struct {
	ID              string                    `json:"id"`
	Email           string                    `json:"email"`
	FullName        string                    `json:"fullName"`
	Phone           nullable.Nullable[string] `json:"phone"`
	Role            string                    `json:"role"`
	Status          string                    `json:"status"`
	ProfileImageURL nullable.Nullable[string] `json:"profileImageUrl"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

func userFromDomain(u domain.User) userJSON {
	return userJSON{
		ID:              string(u.ID),
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           nullableString(u.Phone),
		Role:            string(u.Role),
		Status:          string(u.Status),
		ProfileImageURL: nullableString(u.ProfileImageURL),
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	}
}

type addressJSON struct {
	HouseNumber string `json:"houseNumber"`
	Village     string `json:"village"`
	Tambon      string `json:"tambon"`
	Amphoe      string `json:"amphoe"`
	Changwat    string `json:"changwat"`
}

func addressFromDomain(a domain.Address) addressJSON {
	return addressJSON(a)
}

type patientJSON struct {
	ID              string                                `json:"id"`
	FullName        string                                `json:"fullName"`
	Title           nullable.Nullable[string]             `json:"title"`
	NationalID      nullable.Nullable[string]             `json:"nationalId"`
	DOB             nullable.Nullable[openapi_types.Date] `json:"dob"`
	Age             nullable.Nullable[int]                `json:"age"`
	Gender          nullable.Nullable[string]             `json:"gender"`
	BloodType       nullable.Nullable[string]             `json:"bloodType"`
	RhFactor        nullable.Nullable[string]             `json:"rhFactor"`
	HealthCoverage  nullable.Nullable[string]             `json:"healthCoverage"`
	ContactPhone    nullable.Nullable[string]             `json:"contactPhone"`
	IDCardAddress   addressJSON                           `json:"idCardAddress"`
	CurrentAddress  addressJSON                           `json:"currentAddress"`
	Landmark        nullable.Nullable[string]             `json:"landmark"`
	Latitude        *float64                              `json:"latitude"`
	Longitude       *float64                              `json:"longitude"`
	PatientTypes    []string                              `json:"patientTypes"`
	ChronicDiseases []string                              `json:"chronicDiseases"`
	Allergies       []string                              `json:"allergies"`
	ProfileImageURL nullable.Nullable[string]             `json:"profileImageUrl"`
	RegisteredDate  time.Time                             `json:"registeredDate"`
	CreatedBy       string                                `json:"createdBy"`
	CreatedAt       time.Time                             `json:"createdAt"`
	UpdatedAt       time.Time                             `json:"updatedAt"`
}

func patientFromDomain(p domain.Patient) patientJSON {
	return patientJSON{
		ID:              string(p.ID),
		FullName:        p.FullName,
		Title:           nullableString(p.Title),
		NationalID:      nullableString(p.NationalID),
		DOB:             nullableDate(p.DOB),
		Age:             nullableInt(p.Age),
		Gender:          nullableString(p.Gender),
		BloodType:       nullableString(p.BloodType),
		RhFactor:        nullableString(p.RhFactor),
		HealthCoverage:  nullableString(p.HealthCoverage),
		ContactPhone:    nullableString(p.ContactPhone),
		IDCardAddress:   addressFromDomain(p.IDCardAddress),
		CurrentAddress:  addressFromDomain(p.CurrentAddress),
		Landmark:        nullableString(p.Landmark),
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		PatientTypes:    stringsOrEmpty(p.PatientTypes),
		ChronicDiseases: stringsOrEmpty(p.ChronicDiseases),
		Allergies:       stringsOrEmpty(p.Allergies),
		ProfileImageURL: nullableString(p.ProfileImageURL),
		RegisteredDate:  p.RegisteredDate.UTC(),
		CreatedBy:       string(p.CreatedBy),
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

type coordinatesJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type rideJSON struct {
	ID                string                    `json:"id"`
	PatientID         nullable.Nullable[string] `json:"patientId"`
	PatientName       string                    `json:"patientName"`
	PatientPhone      nullable.Nullable[string] `json:"patientPhone"`
	PickupLocation    string                    `json:"pickupLocation"`
	PickupCoordinates *coordinatesJSON          `json:"pickupCoordinates"`
	Village           nullable.Nullable[string] `json:"village"`
	Landmark          nullable.Nullable[string] `json:"landmark"`
	Destination       string                    `json:"destination"`
	AppointmentTime   time.Time                 `json:"appointmentTime"`
	Status            string                    `json:"status"`
	SpecialNeeds      []string                  `json:"specialNeeds"`
	CaregiverCount    int                       `json:"caregiverCount"`
	ContactPhone      nullable.Nullable[string] `json:"contactPhone"`
	TripType          nullable.Nullable[string] `json:"tripType"`
	Notes             nullable.Nullable[string] `json:"notes"`
	DriverID          nullable.Nullable[string] `json:"driverId"`
	DriverName        nullable.Nullable[string] `json:"driverName"`
	Rating            nullable.Nullable[int]    `json:"rating"`
	ReviewTags        []string                  `json:"reviewTags"`
	ReviewComment     nullable.Nullable[string] `json:"reviewComment"`
	CreatedBy         string                    `json:"createdBy"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

func rideFromDomain(r domain.Ride) rideJSON {
	out := rideJSON{
		ID:              string(r.ID),
		PatientID:       nullableString((*string)(r.PatientID)),
		PatientName:     r.PatientName,
		PatientPhone:    nullableString(r.PatientPhone),
		PickupLocation:  r.PickupLocation,
		Village:         nullableString(r.Village),
		Landmark:        nullableString(r.Landmark),
		Destination:     r.Destination,
		AppointmentTime: r.AppointmentTime.UTC(),
		Status:          string(r.Status),
		SpecialNeeds:    stringsOrEmpty(r.SpecialNeeds),
		CaregiverCount:  r.CaregiverCount,
		ContactPhone:    nullableString(r.ContactPhone),
		TripType:        nullableString(r.TripType),
		Notes:           nullableString(r.Notes),
		DriverID:        nullableString((*string)(r.DriverID)),
		DriverName:      nullableString(r.DriverName),
		Rating:          nullableInt(r.Rating),
		ReviewTags:      stringsOrEmpty(r.ReviewTags),
		ReviewComment:   nullableString(r.ReviewComment),
		CreatedBy:       string(r.CreatedBy),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
	if r.PickupCoordinates != nil {
		out.PickupCoordinates = &coordinatesJSON{Lat: r.PickupCoordinates.Lat, Lng: r.PickupCoordinates.Lng}
	}
	return out
}

type driverJSON struct {
	ID              string                    `json:"id"`
	UserID          nullable.Nullable[string] `json:"userId"`
	FullName        string                    `json:"fullName"`
	Phone           string                    `json:"phone"`
	Email           nullable.Nullable[string] `json:"email"`
	LicenseNumber   nullable.Nullable[string] `json:"licenseNumber"`
	LicensePlate    nullable.Nullable[string] `json:"licensePlate"`
	VehicleBrand    nullable.Nullable[string] `json:"vehicleBrand"`
	VehicleModel    nullable.Nullable[string] `json:"vehicleModel"`
	VehicleColor    nullable.Nullable[string] `json:"vehicleColor"`
	VehicleType     nullable.Nullable[string] `json:"vehicleType"`
	Address         nullable.Nullable[string] `json:"address"`
	Status          string                    `json:"status"`
	ProfileImageURL nullable.Nullable[string] `json:"profileImageUrl"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

func driverFromDomain(d domain.Driver) driverJSON {
	return driverJSON{
		ID:              string(d.ID),
		UserID:          nullableString((*string)(d.UserID)),
		FullName:        d.FullName,
		Phone:           d.Phone,
		Email:           nullableString(d.Email),
		LicenseNumber:   nullableString(d.LicenseNumber),
		LicensePlate:    nullableString(d.LicensePlate),
		VehicleBrand:    nullableString(d.VehicleBrand),
		VehicleModel:    nullableString(d.VehicleModel),
		VehicleColor:    nullableString(d.VehicleColor),
		VehicleType:     nullableString(d.VehicleType),
		Address:         nullableString(d.Address),
		Status:          string(d.Status),
		ProfileImageURL: nullableString(d.ProfileImageURL),
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

type vehicleJSON struct {
	ID                  string                                `json:"id"`
	LicensePlate        string                                `json:"licensePlate"`
	Brand               nullable.Nullable[string]             `json:"brand"`
	Model               nullable.Nullable[string]             `json:"model"`
	TypeID              nullable.Nullable[string]             `json:"typeId"`
	Capacity            int                                   `json:"capacity"`
	Status              string                                `json:"status"`
	AssignedTeamID      nullable.Nullable[string]             `json:"assignedTeamId"`
	NextMaintenanceDate nullable.Nullable[openapi_types.Date] `json:"nextMaintenanceDate"`
	CreatedAt           time.Time                             `json:"createdAt"`
	UpdatedAt           time.Time                             `json:"updatedAt"`
}

func vehicleFromDomain(v domain.Vehicle) vehicleJSON {
	return vehicleJSON{
		ID:                  string(v.ID),
		LicensePlate:        v.LicensePlate,
		Brand:               nullableString(v.Brand),
		Model:               nullableString(v.Model),
		TypeID:              nullableString((*string)(v.TypeID)),
		Capacity:            v.Capacity,
		Status:              string(v.Status),
		AssignedTeamID:      nullableString((*string)(v.AssignedTeamID)),
		NextMaintenanceDate: nullableDate(v.NextMaintenanceDate),
		CreatedAt:           v.CreatedAt.UTC(),
		UpdatedAt:           v.UpdatedAt.UTC(),
	}
}

type vehicleTypeJSON struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Capacity    int                       `json:"capacity"`
	Description nullable.Nullable[string] `json:"description"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

func vehicleTypeFromDomain(t domain.VehicleType) vehicleTypeJSON {
	return vehicleTypeJSON{
		ID:          string(t.ID),
		Name:        t.Name,
		Capacity:    t.Capacity,
		Description: nullableString(t.Description),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

type teamJSON struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	DriverID  nullable.Nullable[string] `json:"driverId"`
	StaffIDs  []string                  `json:"staffIds"`
	VehicleID nullable.Nullable[string] `json:"vehicleId"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

func teamFromDomain(t domain.Team) teamJSON {
	staff := make([]string, 0, len(t.StaffIDs))
	for _, id := range t.StaffIDs {
		staff = append(staff, string(id))
	}
	return teamJSON{
		ID:        string(t.ID),
		Name:      t.Name,
		DriverID:  nullableString((*string)(t.DriverID)),
		StaffIDs:  staff,
		VehicleID: nullableString((*string)(t.VehicleID)),
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

type teamShiftJSON struct {
	ID        string                    `json:"id"`
	TeamID    string                    `json:"teamId"`
	Date      openapi_types.Date        `json:"date"`
	Status    string                    `json:"status"`
	VehicleID nullable.Nullable[string] `json:"vehicleId"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

func teamShiftFromDomain(s domain.TeamShift) teamShiftJSON {
	return teamShiftJSON{
		ID:        string(s.ID),
		TeamID:    string(s.TeamID),
		Date:      openapi_types.Date{Time: s.Date},
		Status:    string(s.Status),
		VehicleID: nullableString((*string)(s.VehicleID)),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

type driverShiftJSON struct {
	ID        string             `json:"id"`
	DriverID  string             `json:"driverId"`
	Date      openapi_types.Date `json:"date"`
	Shift     string             `json:"shift"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func driverShiftFromDomain(s domain.DriverShift) driverShiftJSON {
	return driverShiftJSON{
		ID:        string(s.ID),
		DriverID:  string(s.DriverID),
		Date:      openapi_types.Date{Time: s.Date},
		Shift:     string(s.Shift),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

type newsJSON struct {
	ID               string                       `json:"id"`
	Title            string                       `json:"title"`
	Content          string                       `json:"content"`
	Author           string                       `json:"author"`
	Status           string                       `json:"status"`
	PublishedDate    nullable.Nullable[time.Time] `json:"publishedDate"`
	ScheduledDate    nullable.Nullable[time.Time] `json:"scheduledDate"`
	FeaturedImageURL nullable.Nullable[string]    `json:"featuredImageUrl"`
	CreatedAt        time.Time                    `json:"createdAt"`
	UpdatedAt        time.Time                    `json:"updatedAt"`
}

func newsFromDomain(n domain.NewsArticle) newsJSON {
	return newsJSON{
		ID:               string(n.ID),
		Title:            n.Title,
		Content:          n.Content,
		Author:           n.Author,
		Status:           string(n.Status),
		PublishedDate:    nullableTime(n.PublishedDate),
		ScheduledDate:    nullableTime(n.ScheduledDate),
		FeaturedImageURL: nullableString(n.FeaturedImageURL),
		CreatedAt:        n.CreatedAt.UTC(),
		UpdatedAt:        n.UpdatedAt.UTC(),
	}
}

type auditLogJSON struct {
	ID             string                    `json:"id"`
	SequenceNumber int64                     `json:"sequenceNumber"`
	Timestamp      time.Time                 `json:"timestamp"`
	UserEmail      string                    `json:"userEmail"`
	UserRole       string                    `json:"userRole"`
	Action         string                    `json:"action"`
	TargetID       nullable.Nullable[string] `json:"targetId"`
	IPAddress      string                    `json:"ipAddress"`
	DataPayload    json.RawMessage           `json:"dataPayload"`
	PreviousHash   string                    `json:"previousHash"`
	Hash           string                    `json:"hash"`
}

func auditLogFromDomain(l domain.AuditLog) auditLogJSON {
	payload := l.DataPayload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return auditLogJSON{
		ID:             l.ID,
		SequenceNumber: l.SequenceNumber,
		Timestamp:      l.Timestamp.UTC(),
		UserEmail:      l.UserEmail,
		UserRole:       string(l.UserRole),
		Action:         string(l.Action),
		TargetID:       nullableString(l.TargetID),
		IPAddress:      l.IPAddress,
		DataPayload:    payload,
		PreviousHash:   l.PreviousHash,
		Hash:           l.Hash,
	}
}

type locationJSON struct {
	DriverID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   *float64  `json:"heading"`
	Speed     *float64  `json:"speed"`
	Accuracy  *float64  `json:"accuracy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func locationFromDomain(l domain.DriverLocation) locationJSON {
	return locationJSON{
		DriverID:  string(l.DriverID),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Heading:   l.Heading,
		Speed:     l.Speed,
		Accuracy:  l.Accuracy,
		UpdatedAt: l.UpdatedAt.UTC(),
	}
}

// RideEventJSON is the wire form of a ride event, shared with the websocket hub.
type RideEventJSON struct {
	ID         string                    `json:"id"`
	RideID     string                    `json:"rideId"`
	Type       string                    `json:"type"`
	FromStatus nullable.Nullable[string] `json:"fromStatus"`
	ToStatus   nullable.Nullable[string] `json:"toStatus"`
	DriverID   nullable.Nullable[string] `json:"driverId"`
	ActorID    string                    `json:"actorId"`
	ActorRole  string                    `json:"actorRole"`
	Payload    json.RawMessage           `json:"payload"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

func RideEventFromDomain(ev domain.RideEvent) RideEventJSON {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return RideEventJSON{
		ID:         string(ev.ID),
		RideID:     string(ev.RideID),
		Type:       string(ev.Type),
		FromStatus: nullableString((*string)(ev.FromStatus)),
		ToStatus:   nullableString((*string)(ev.ToStatus)),
		DriverID:   nullableString((*string)(ev.DriverID)),
		ActorID:    string(ev.ActorID),
		ActorRole:  string(ev.ActorRole),
		Payload:    payload,
		CreatedAt:  ev.CreatedAt.UTC(),
	}
}

type settingsJSON struct {
	AppName             string    `json:"appName"`
	OrganizationName    string    `json:"organizationName"`
	OrganizationAddress string    `json:"organizationAddress"`
	OrganizationPhone   string    `json:"organizationPhone"`
	ContactEmail        string    `json:"contactEmail"`
	LogoURL             string    `json:"logoUrl"`
	MapCenter           latLngDTO `json:"mapCenter"`
	MaintenanceMode     bool      `json:"maintenanceMode"`
	MaintenanceMessage  string    `json:"maintenanceMessage"`
	SchedulingModel     string    `json:"schedulingModel"`
	DeveloperName       string    `json:"developerName"`
	DeveloperTitle      string    `json:"developerTitle"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type latLngDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func settingsFromDomain(s domain.Settings) settingsJSON {
	return settingsJSON{
		AppName:             s.AppName,
		OrganizationName:    s.OrganizationName,
		OrganizationAddress: s.OrganizationAddress,
		OrganizationPhone:   s.OrganizationPhone,
		ContactEmail:        s.ContactEmail,
		LogoURL:             s.LogoURL,
		MapCenter:           latLngDTO{Lat: s.MapCenterLat, Lng: s.MapCenterLng},
		MaintenanceMode:     s.MaintenanceMode,
		MaintenanceMessage:  s.MaintenanceMessage,
		SchedulingModel:     string(s.SchedulingModel),
		DeveloperName:       s.DeveloperName,
		DeveloperTitle:      s.DeveloperTitle,
		UpdatedAt:           s.UpdatedAt.UTC(),
	}
}
