package domain

import (
	"encoding/json"
	"slices"
)

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return slices.Clone(b)
}

func (u User) Clone() User {
	out := u
	out.Phone = clonePtr(u.Phone)
	out.ProfileImageURL = clonePtr(u.ProfileImageURL)
	return out
}

func (p Patient) Clone() Patient {
	out := p
	out.Title = clonePtr(p.Title)
	out.NationalID = clonePtr(p.NationalID)
	out.DOB = clonePtr(p.DOB)
	out.Age = clonePtr(p.Age)
	out.Gender = clonePtr(p.Gender)
	out.BloodType = clonePtr(p.BloodType)
	out.RhFactor = clonePtr(p.RhFactor)
	out.HealthCoverage = clonePtr(p.HealthCoverage)
	out.ContactPhone = clonePtr(p.ContactPhone)
	out.Landmark = clonePtr(p.Landmark)
	out.Latitude = clonePtr(p.Latitude)
	out.Longitude = clonePtr(p.Longitude)
	out.PatientTypes = slices.Clone(p.PatientTypes)
	out.ChronicDiseases = slices.Clone(p.ChronicDiseases)
	out.Allergies = slices.Clone(p.Allergies)
	out.ProfileImageURL = clonePtr(p.ProfileImageURL)
	return out
}

func (r Ride) Clone() Ride {
	out := r
	out.PatientID = clonePtr(r.PatientID)
	out.PatientPhone = clonePtr(r.PatientPhone)
	out.PickupCoordinates = clonePtr(r.PickupCoordinates)
	out.Village = clonePtr(r.Village)
	out.Landmark = clonePtr(r.Landmark)
	out.SpecialNeeds = slices.Clone(r.SpecialNeeds)
	out.ContactPhone = clonePtr(r.ContactPhone)
	out.TripType = clonePtr(r.TripType)
	out.Notes = clonePtr(r.Notes)
	out.DriverID = clonePtr(r.DriverID)
	out.DriverName = clonePtr(r.DriverName)
	out.Rating = clonePtr(r.Rating)
	out.ReviewTags = slices.Clone(r.ReviewTags)
	out.ReviewComment = clonePtr(r.ReviewComment)
	return out
}

func (d Driver) Clone() Driver {
	out := d
	out.UserID = clonePtr(d.UserID)
	out.Email = clonePtr(d.Email)
	out.LicenseNumber = clonePtr(d.LicenseNumber)
	out.LicensePlate = clonePtr(d.LicensePlate)
	out.VehicleBrand = clonePtr(d.VehicleBrand)
	out.VehicleModel = clonePtr(d.VehicleModel)
	out.VehicleColor = clonePtr(d.VehicleColor)
	out.VehicleType = clonePtr(d.VehicleType)
	out.Address = clonePtr(d.Address)
	out.ProfileImageURL = clonePtr(d.ProfileImageURL)
	return out
}

func (v Vehicle) Clone() Vehicle {
	out := v
	out.Brand = clonePtr(v.Brand)
	out.Model = clonePtr(v.Model)
	out.TypeID = clonePtr(v.TypeID)
	out.AssignedTeamID = clonePtr(v.AssignedTeamID)
	out.NextMaintenanceDate = clonePtr(v.NextMaintenanceDate)
	return out
}

func (t VehicleType) Clone() VehicleType {
	out := t
	out.Description = clonePtr(t.Description)
	return out
}

func (t Team) Clone() Team {
	out := t
	out.DriverID = clonePtr(t.DriverID)
	out.StaffIDs = slices.Clone(t.StaffIDs)
	out.VehicleID = clonePtr(t.VehicleID)
	return out
}

func (s TeamShift) Clone() TeamShift {
	out := s
	out.VehicleID = clonePtr(s.VehicleID)
	return out
}

func (n NewsArticle) Clone() NewsArticle {
	out := n
	out.PublishedDate = clonePtr(n.PublishedDate)
	out.ScheduledDate = clonePtr(n.ScheduledDate)
	out.FeaturedImageURL = clonePtr(n.FeaturedImageURL)
	return out
}

func (f Facility) Clone() Facility {
	out := f
	out.FacilityType = clonePtr(f.FacilityType)
	return out
}

func (m MapShape) Clone() MapShape {
	out := m
	out.Points = slices.Clone(m.Points)
	out.Properties = cloneRaw(m.Properties)
	return out
}

func (l AuditLog) Clone() AuditLog {
	out := l
	out.TargetID = clonePtr(l.TargetID)
	out.DataPayload = cloneRaw(l.DataPayload)
	return out
}

func (l DriverLocation) Clone() DriverLocation {
	out := l
	out.Heading = clonePtr(l.Heading)
	out.Speed = clonePtr(l.Speed)
	out.Accuracy = clonePtr(l.Accuracy)
	return out
}

func (e RideEvent) Clone() RideEvent {
	out := e
	out.FromStatus = clonePtr(e.FromStatus)
	out.ToStatus = clonePtr(e.ToStatus)
	out.DriverID = clonePtr(e.DriverID)
	out.Payload = cloneRaw(e.Payload)
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
