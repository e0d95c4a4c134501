package domain

import "time"

// Address is a Thai administrative address (village / tambon / amphoe / changwat).
type Address struct {
	HouseNumber string
	Village     string
	Tambon      string
	Amphoe      string
	Changwat    string
}

func (a Address) IsZero() bool { return a == Address{} }

type Patient struct {
	ID              PatientID
	FullName        string
	Title           *string
	NationalID      *string
	DOB             *time.Time // date-only semantics
	Age             *int
	Gender          *string
	BloodType       *string
	RhFactor        *string
	HealthCoverage  *string
	ContactPhone    *string
	IDCardAddress   Address
	CurrentAddress  Address
	Landmark        *string
	Latitude        *float64
	Longitude       *float64
	PatientTypes    []string
	ChronicDiseases []string
	Allergies       []string
	ProfileImageURL *string

	RegisteredDate time.Time
	CreatedBy      UserID

	CreatedAt time.Time
	UpdatedAt time.Time
}
