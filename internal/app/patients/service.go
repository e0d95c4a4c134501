// Package patients manages patient records. Community users only see the patients they registered.
package patients

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

type Service struct {
	repo  patientrepo.Repository
	seq   sequence.Generator
	audit *audit.Service
	clk   clockport.Clock

	// DuplicateWindow rejects an identical submission by the same creator within the window.
	DuplicateWindow time.Duration
}

func NewService(repo patientrepo.Repository, seq sequence.Generator, auditSvc *audit.Service, clk clockport.Clock, duplicateWindow time.Duration) *Service {
	return &Service{repo: repo, seq: seq, audit: auditSvc, clk: clk, DuplicateWindow: duplicateWindow}
}

// List returns patients visible to p: community callers see their own, staff see all.
func (s *Service) List(ctx context.Context, p domain.Principal, in ListInput) (pagination.Page[domain.Patient], error) {
	f := patientrepo.Filter{
		Query:  strings.TrimSpace(in.Query),
		Limit:  in.Normalize().Limit,
		Offset: in.Offset(),
	}
	if p.Role == domain.RoleCommunity {
		f.CreatedBy = domain.Ptr(p.UserID)
	}
	ps, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[domain.Patient]{}, fmt.Errorf("list patients: %w", err)
	}
	return pagination.New(ps, in.Params, total), nil
}

func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.PatientID) (domain.Patient, error) {
	pt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, patientrepo.ErrNotFound) {
			return domain.Patient{}, apperr.NotFound("Patient not found")
		}
		return domain.Patient{}, err
	}
	if p.Role == domain.RoleCommunity && pt.CreatedBy != p.UserID {
		return domain.Patient{}, apperr.Forbidden("Access denied")
	}
	return pt, nil
}

func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domain.Patient, error) {
	name := domain.NormalizeHumanName(in.FullName)
	if name == "" {
		return domain.Patient{}, apperr.Validation("invalid full_name", map[string]any{"full_name": "must be non-empty"})
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return domain.Patient{}, err
	}
	nationalID := trimPtr(in.NationalID)
	if err := s.checkDuplicate(ctx, p.UserID, name, nationalID); err != nil {
		return domain.Patient{}, err
	}

	n, err := s.seq.Next(ctx, domain.PrefixPatient)
	if err != nil {
		return domain.Patient{}, fmt.Errorf("next patient id: %w", err)
	}
	now := s.clk.Now()
	pt := domain.Patient{
		ID:              domain.PatientID(domain.FormatID(domain.PrefixPatient, n)),
		FullName:        name,
		Title:           trimPtr(in.Title),
		NationalID:      nationalID,
		DOB:             dateOnlyPtr(in.DOB),
		Age:             in.Age,
		Gender:          trimPtr(in.Gender),
		BloodType:       trimPtr(in.BloodType),
		RhFactor:        trimPtr(in.RhFactor),
		HealthCoverage:  trimPtr(in.HealthCoverage),
		ContactPhone:    trimPtr(in.ContactPhone),
		IDCardAddress:   in.IDCardAddress,
		CurrentAddress:  in.CurrentAddress,
		Landmark:        trimPtr(in.Landmark),
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		PatientTypes:    cleanList(in.PatientTypes),
		ChronicDiseases: cleanList(in.ChronicDiseases),
		Allergies:       cleanList(in.Allergies),
		ProfileImageURL: trimPtr(in.ProfileImageURL),
		RegisteredDate:  now,
		CreatedBy:       p.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if pt.Age == nil && pt.DOB != nil {
		pt.Age = domain.Ptr(ageAt(*pt.DOB, now))
	}
	if err := s.repo.Create(ctx, pt); err != nil {
		if errors.Is(err, patientrepo.ErrAlreadyExists) {
			return domain.Patient{}, apperr.Conflict(apperr.CodeConflict, "Patient already exists")
		}
		return domain.Patient{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionCreatePatient, string(pt.ID), map[string]any{"fullName": pt.FullName}))
	return pt, nil
}

func (s *Service) checkDuplicate(ctx context.Context, creator domain.UserID, name string, nationalID *string) error {
	if s.DuplicateWindow <= 0 {
		return nil
	}
	after := s.clk.Now().Add(-s.DuplicateWindow)
	recent, _, err := s.repo.List(ctx, patientrepo.Filter{CreatedBy: &creator, CreatedAfter: &after})
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	for _, r := range recent {
		if r.FullName == name && strPtrEqual(r.NationalID, nationalID) {
			return apperr.Conflict(apperr.CodeDuplicateSubmission, "Duplicate submission detected. Please wait before submitting again.").
				WithDetails(map[string]any{"existingId": r.ID})
		}
	}
	return nil
}

func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.PatientID, in UpdateInput) (domain.Patient, error) {
	pt, err := s.Get(ctx, p, id)
	if err != nil {
		return domain.Patient{}, err
	}

	if in.FullName.IsSpecified() {
		name := ""
		if in.FullName.HasValue() {
			name = domain.NormalizeHumanName(in.FullName.Value())
		}
		if name == "" {
			return domain.Patient{}, apperr.Validation("invalid full_name", map[string]any{"full_name": "must be non-empty"})
		}
		pt.FullName = name
	}
	patch.ApplyPtr(&pt.Title, in.Title)
	patch.ApplyPtr(&pt.NationalID, in.NationalID)
	if in.DOB.HasValue() {
		pt.DOB = domain.Ptr(domain.DateOnly(in.DOB.Value()))
	} else if in.DOB.IsNull() {
		pt.DOB = nil
	}
	patch.ApplyPtr(&pt.Age, in.Age)
	patch.ApplyPtr(&pt.Gender, in.Gender)
	patch.ApplyPtr(&pt.BloodType, in.BloodType)
	patch.ApplyPtr(&pt.RhFactor, in.RhFactor)
	patch.ApplyPtr(&pt.HealthCoverage, in.HealthCoverage)
	patch.ApplyPtr(&pt.ContactPhone, in.ContactPhone)
	patch.ApplyPtr(&pt.Landmark, in.Landmark)
	patch.ApplyPtr(&pt.Latitude, in.Latitude)
	patch.ApplyPtr(&pt.Longitude, in.Longitude)
	patch.ApplyPtr(&pt.ProfileImageURL, in.ProfileImageURL)
	if in.IDCardAddress.IsSpecified() {
		pt.IDCardAddress = in.IDCardAddress.Value()
	}
	if in.CurrentAddress.IsSpecified() {
		pt.CurrentAddress = in.CurrentAddress.Value()
	}
	if in.PatientTypes.IsSpecified() {
		pt.PatientTypes = cleanList(in.PatientTypes.Value())
	}
	if in.ChronicDiseases.IsSpecified() {
		pt.ChronicDiseases = cleanList(in.ChronicDiseases.Value())
	}
	if in.Allergies.IsSpecified() {
		pt.Allergies = cleanList(in.Allergies.Value())
	}
	if err := validateCoordinates(pt.Latitude, pt.Longitude); err != nil {
		return domain.Patient{}, err
	}

	pt.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, pt); err != nil {
		if errors.Is(err, patientrepo.ErrNotFound) {
			return domain.Patient{}, apperr.NotFound("Patient not found")
		}
		return domain.Patient{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdatePatient, string(pt.ID), nil))
	return pt, nil
}

func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.PatientID) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, patientrepo.ErrNotFound) {
			return apperr.NotFound("Patient not found")
		}
		return err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionDeletePatient, string(id), nil))
	return nil
}

func validateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return apperr.Validation("invalid coordinates", map[string]any{"latitude": "latitude and longitude must be set together"})
	}
	if !domain.ValidCoordinates(*lat, *lng) {
		return apperr.Validation("invalid coordinates", map[string]any{"latitude": "must be within [-90, 90]", "longitude": "must be within [-180, 180]"})
	}
	return nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return domain.Ptr(domain.DateOnly(*t))
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return max(age, 0)
}
