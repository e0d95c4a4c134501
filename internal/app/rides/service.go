// Package rides implements ride requests, dispatch and the ride status machine.
package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/driverrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/notify"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/rideeventrepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

const (
	DefaultConflictWindow  = time.Hour
	DefaultDuplicateWindow = 5 * time.Second
)

type Deps struct {
	Rides     riderepo.Repository
	Patients  patientrepo.Repository
	Drivers   driverrepo.Repository
	Events    rideeventrepo.Repository
	Seq       sequence.Generator
	Audit     *audit.Service
	Publisher notify.Publisher
	Clock     clockport.Clock
	Log       logger.Logger

	ConflictWindow  time.Duration
	DuplicateWindow time.Duration
}

type Service struct {
	rides    riderepo.Repository
	patients patientrepo.Repository
	drivers  driverrepo.Repository
	events   rideeventrepo.Repository
	seq      sequence.Generator
	audit    *audit.Service
	pub      notify.Publisher
	clk      clockport.Clock
	log      logger.Logger

	conflictWindow  time.Duration
	duplicateWindow time.Duration
}

func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = notify.Nop{}
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.ConflictWindow <= 0 {
		d.ConflictWindow = DefaultConflictWindow
	}
	return &Service{
		rides:           d.Rides,
		patients:        d.Patients,
		drivers:         d.Drivers,
		events:          d.Events,
		seq:             d.Seq,
		audit:           d.Audit,
		pub:             d.Publisher,
		clk:             d.Clock,
		log:             d.Log,
		conflictWindow:  d.ConflictWindow,
		duplicateWindow: d.DuplicateWindow,
	}
}

func rideNotFound() *apperr.Error { return apperr.NotFound("Ride not found") }

// List returns the rides visible to p. Community callers see rides they created,
// drivers see rides assigned to them.
func (s *Service) List(ctx context.Context, p domain.Principal, in ListInput) (pagination.Page[domain.Ride], error) {
	f := riderepo.Filter{
		Limit:  in.Normalize().Limit,
		Offset: in.Offset(),
	}
	statuses, err := parseStatuses(in.Status)
	if err != nil {
		return pagination.Page[domain.Ride]{}, err
	}
	f.Statuses = statuses
	if in.DriverID != "" {
		f.DriverID = domain.Ptr(domain.DriverID(in.DriverID))
	}

	switch p.Role {
	case domain.RoleCommunity:
		f.CreatedBy = domain.Ptr(p.UserID)
	case domain.RoleDriver:
		if p.DriverID == nil {
			return pagination.New([]domain.Ride{}, in.Params, 0), nil
		}
		f.DriverID = p.DriverID
	}

	rs, total, err := s.rides.List(ctx, f)
	if err != nil {
		return pagination.Page[domain.Ride]{}, fmt.Errorf("list rides: %w", err)
	}
	return pagination.New(rs, in.Params, total), nil
}

func parseStatuses(raw string) ([]domain.RideStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.RideStatus
	for _, part := range strings.Split(raw, ",") {
		st, ok := domain.ParseRideStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !ok {
			return nil, apperr.Validation("invalid status", map[string]any{"status": fmt.Sprintf("unknown status %q", part)})
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.RideID) (domain.Ride, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return domain.Ride{}, err
	}
	if err := checkRead(p, r); err != nil {
		return domain.Ride{}, err
	}
	return r, nil
}

func (s *Service) load(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.Ride{}, rideNotFound()
		}
		return domain.Ride{}, err
	}
	return r, nil
}

func checkRead(p domain.Principal, r domain.Ride) error {
	switch p.Role {
	case domain.RoleCommunity:
		if r.CreatedBy != p.UserID {
			return rideNotFound()
		}
	case domain.RoleDriver:
		if !assignedTo(p, r) {
			return apperr.Forbidden("Access denied: ride is not assigned to you")
		}
	}
	return nil
}

func assignedTo(p domain.Principal, r domain.Ride) bool {
	return p.DriverID != nil && r.DriverID != nil && *p.DriverID == *r.DriverID
}

func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domain.Ride, error) {
	if p.Role.In(domain.RoleExecutive, domain.RoleDriver) {
		return domain.Ride{}, apperr.Forbidden("Insufficient permissions to create rides")
	}

	details := map[string]any{}
	name := domain.NormalizeHumanName(in.PatientName)
	patientID := trimPtr(in.PatientID)
	if name == "" && patientID == nil {
		details["patient_name"] = "patient_name or patient_id is required"
	}
	pickup := strings.TrimSpace(in.PickupLocation)
	if pickup == "" {
		details["pickup_location"] = "must be non-empty"
	}
	dest := strings.TrimSpace(in.Destination)
	if dest == "" {
		details["destination"] = "must be non-empty"
	}
	appt, err := parseAppointment(in.AppointmentTime)
	if err != nil {
		details["appointment_time"] = err.Error()
	}
	coords, cerr := pickupCoordinates(in.PickupLat, in.PickupLng)
	if cerr != nil {
		details["pickup_coordinates"] = cerr.Error()
	}
	if in.CaregiverCount < 0 {
		details["caregiver_count"] = "must be >= 0"
	}
	if len(details) > 0 {
		return domain.Ride{}, apperr.Validation("invalid ride", details)
	}

	var pid *domain.PatientID
	if patientID != nil {
		pt, err := s.patients.GetByID(ctx, domain.PatientID(*patientID))
		if err != nil {
			if errors.Is(err, patientrepo.ErrNotFound) {
				return domain.Ride{}, apperr.Validation("invalid patient_id", map[string]any{"patient_id": "patient not found"})
			}
			return domain.Ride{}, err
		}
		if p.Role == domain.RoleCommunity && pt.CreatedBy != p.UserID {
			return domain.Ride{}, apperr.Forbidden("Access denied: patient belongs to another user")
		}
		pid = &pt.ID
		if name == "" {
			name = pt.FullName
		}
	}

	if err := s.checkDuplicate(ctx, p.UserID, pid, name, pickup, dest, appt); err != nil {
		return domain.Ride{}, err
	}

	n, err := s.seq.Next(ctx, domain.PrefixRide)
	if err != nil {
		return domain.Ride{}, fmt.Errorf("next ride id: %w", err)
	}
	now := s.clk.Now()
	r := domain.Ride{
		ID:                domain.RideID(domain.FormatID(domain.PrefixRide, n)),
		PatientID:         pid,
		PatientName:       name,
		PatientPhone:      trimPtr(in.PatientPhone),
		PickupLocation:    pickup,
		PickupCoordinates: coords,
		Village:           trimPtr(in.Village),
		Landmark:          trimPtr(in.Landmark),
		Destination:       dest,
		AppointmentTime:   appt,
		Status:            domain.RideStatusPending,
		SpecialNeeds:      cleanList(in.SpecialNeeds),
		CaregiverCount:    in.CaregiverCount,
		ContactPhone:      trimPtr(in.ContactPhone),
		TripType:          trimPtr(in.TripType),
		Notes:             trimPtr(in.Notes),
		CreatedBy:         p.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.rides.Create(ctx, r); err != nil {
		if errors.Is(err, riderepo.ErrAlreadyExists) {
			return domain.Ride{}, apperr.Conflict(apperr.CodeConflict, "Ride already exists")
		}
		return domain.Ride{}, err
	}

	s.emit(ctx, p, r, domain.RideEventCreated, nil, domain.Ptr(r.Status), nil)
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionCreateRide, string(r.ID), map[string]any{
		"patientName":     r.PatientName,
		"appointmentTime": r.AppointmentTime,
	}))
	return r, nil
}

func (s *Service) checkDuplicate(ctx context.Context, creator domain.UserID, pid *domain.PatientID, name, pickup, dest string, appt time.Time) error {
	if s.duplicateWindow <= 0 {
		return nil
	}
	after := s.clk.Now().Add(-s.duplicateWindow)
	recent, _, err := s.rides.List(ctx, riderepo.Filter{CreatedBy: &creator, CreatedAfter: &after})
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	for _, r := range recent {
		samePatient := r.PatientName == name
		if pid != nil {
			samePatient = r.PatientID != nil && *r.PatientID == *pid
		}
		if samePatient && r.PickupLocation == pickup && r.Destination == dest && r.AppointmentTime.Equal(appt) {
			return apperr.Conflict(apperr.CodeDuplicateSubmission, "Duplicate submission detected. Please wait before submitting again.").
				WithDetails(map[string]any{"existingId": r.ID})
		}
	}
	return nil
}

// Update validates field edits, driver assignment and a status change together and
// commits them as one conditional write.
func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.RideID, in UpdateInput) (domain.Ride, error) {
	if p.Role == domain.RoleExecutive {
		return domain.Ride{}, apperr.Forbidden("Insufficient permissions to update rides")
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return domain.Ride{}, err
	}

	switch p.Role {
	case domain.RoleCommunity:
		if r.CreatedBy != p.UserID {
			return domain.Ride{}, rideNotFound()
		}
		if in.DriverID.IsSpecified() {
			return domain.Ride{}, apperr.Forbidden("Community users cannot assign drivers")
		}
		if in.hasFieldEdits() && r.Status != domain.RideStatusPending {
			return domain.Ride{}, apperr.Validation("Only pending rides can be edited", map[string]any{"status": r.Status})
		}
	case domain.RoleDriver:
		if in.DriverID.IsSpecified() {
			return domain.Ride{}, apperr.Forbidden("Drivers cannot assign drivers")
		}
		if !assignedTo(p, r) {
			return domain.Ride{}, apperr.Forbidden("Access denied: ride is not assigned to you")
		}
		if in.hasFieldEdits() {
			return domain.Ride{}, apperr.Forbidden("Drivers can only update ride status")
		}
	}

	next := r.Clone()
	edited := in.hasFieldEdits()
	if edited {
		if !r.Status.IsActive() {
			return domain.Ride{}, apperr.Validation("Ride is closed", map[string]any{"status": r.Status})
		}
		if err := applyEdits(&next, in); err != nil {
			return domain.Ride{}, err
		}
	}

	var assignee *domain.Driver
	if in.DriverID.IsSpecified() {
		if in.DriverID.IsNull() || strings.TrimSpace(in.DriverID.Value()) == "" {
			if r.DriverID != nil {
				if r.Status != domain.RideStatusAssigned {
					return domain.Ride{}, invalidTransition("Only assigned rides can be unassigned", r.Status, domain.RideStatusPending)
				}
				next.DriverID, next.DriverName = nil, nil
				next.Status = domain.RideStatusPending
			}
		} else {
			d, err := s.driver(ctx, domain.DriverID(strings.TrimSpace(in.DriverID.Value())))
			if err != nil {
				return domain.Ride{}, err
			}
			if !r.Status.Assignable() {
				return domain.Ride{}, notAssignable(r.Status)
			}
			if r.DriverID == nil || *r.DriverID != d.ID {
				next.DriverID = domain.Ptr(d.ID)
				next.DriverName = domain.Ptr(d.FullName)
				next.Status = domain.RideStatusAssigned
				assignee = &d
			}
		}
	}

	if in.Status.HasValue() {
		if p.Role == domain.RoleCommunity {
			if err := communityStatusAllowed(in.Status.Value()); err != nil {
				return domain.Ride{}, err
			}
		}
		to, err := nextStatus(next, in.Status.Value())
		if err != nil {
			return domain.Ride{}, err
		}
		if to == domain.RideStatusPending && to != next.Status {
			next.DriverID, next.DriverName = nil, nil
		}
		next.Status = to
	}

	if !edited && next.Status == r.Status && sameDriver(next.DriverID, r.DriverID) {
		return r, nil
	}

	next.UpdatedAt = s.clk.Now()
	var window time.Duration
	if next.DriverID != nil && next.Status.IsActive() && (assignee != nil || !next.AppointmentTime.Equal(r.AppointmentTime)) {
		window = s.conflictWindow
	}
	if err := s.rides.Save(ctx, riderepo.Change{
		Ride:          next,
		PrevStatus:    r.Status,
		PrevUpdatedAt: r.UpdatedAt,
		Window:        window,
	}); err != nil {
		return domain.Ride{}, s.saveErr(err, next)
	}

	if edited {
		s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdateRide, string(next.ID), nil))
	}
	from := r.Status
	if assignee != nil {
		s.releaseDriver(ctx, r.DriverID, assignee.ID)
		s.emit(ctx, p, next, domain.RideEventAssigned, &from, domain.Ptr(domain.RideStatusAssigned), nil)
		s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionAssignDriver, string(next.ID), map[string]any{
			"driverId":   assignee.ID,
			"driverName": assignee.FullName,
		}))
		from = domain.RideStatusAssigned
	}
	if next.Status != from {
		driverID := next.DriverID
		if driverID == nil {
			driverID = r.DriverID
		}
		s.afterTransition(ctx, p, next, from, driverID, "")
	}
	return next, nil
}

func sameDriver(a, b *domain.DriverID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func communityStatusAllowed(raw string) error {
	if domain.RideStatus(strings.ToUpper(strings.TrimSpace(raw))) != domain.RideStatusCancelled {
		return apperr.Forbidden("Community users can only cancel rides")
	}
	return nil
}

func applyEdits(r *domain.Ride, in UpdateInput) error {
	details := map[string]any{}
	requireText := func(dst *string, o patch.Optional[string], field string) {
		if !o.IsSpecified() {
			return
		}
		v := strings.TrimSpace(o.Value())
		if o.IsNull() || v == "" {
			details[field] = "must be non-empty"
			return
		}
		*dst = v
	}
	requireText(&r.PatientName, in.PatientName, "patient_name")
	requireText(&r.PickupLocation, in.PickupLocation, "pickup_location")
	requireText(&r.Destination, in.Destination, "destination")
	if in.AppointmentTime.IsSpecified() {
		t, err := parseAppointment(in.AppointmentTime.Value())
		if err != nil || in.AppointmentTime.IsNull() {
			details["appointment_time"] = "must be an RFC3339 timestamp"
		} else {
			r.AppointmentTime = t
		}
	}
	if in.PickupCoordinates.HasValue() {
		c := in.PickupCoordinates.Value()
		if !domain.ValidCoordinates(c.Lat, c.Lng) {
			details["pickup_coordinates"] = "out of range"
		}
	}
	if in.CaregiverCount.HasValue() && in.CaregiverCount.Value() < 0 {
		details["caregiver_count"] = "must be >= 0"
	}
	if len(details) > 0 {
		return apperr.Validation("invalid ride", details)
	}

	patch.ApplyPtr(&r.PatientPhone, in.PatientPhone)
	patch.ApplyPtr(&r.PickupCoordinates, in.PickupCoordinates)
	patch.ApplyPtr(&r.Village, in.Village)
	patch.ApplyPtr(&r.Landmark, in.Landmark)
	patch.ApplyPtr(&r.ContactPhone, in.ContactPhone)
	patch.ApplyPtr(&r.TripType, in.TripType)
	patch.ApplyPtr(&r.Notes, in.Notes)
	if in.SpecialNeeds.IsSpecified() {
		r.SpecialNeeds = cleanList(in.SpecialNeeds.Value())
	}
	if in.CaregiverCount.IsSpecified() {
		r.CaregiverCount = in.CaregiverCount.Value()
	}
	return nil
}

// Assign dispatches driverID to the ride. Only dispatch staff may call it.
func (s *Service) Assign(ctx context.Context, p domain.Principal, id domain.RideID, driverID domain.DriverID) (domain.Ride, error) {
	if !p.Role.IsStaff() {
		return domain.Ride{}, apperr.Forbidden("Insufficient permissions to assign drivers")
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return domain.Ride{}, err
	}
	d, err := s.driver(ctx, driverID)
	if err != nil {
		return domain.Ride{}, err
	}
	if !r.Status.Assignable() {
		return domain.Ride{}, notAssignable(r.Status)
	}
	if r.DriverID != nil && *r.DriverID == d.ID {
		return r, nil
	}

	from := r.Status
	updated, err := s.rides.AssignDriver(ctx, riderepo.Assignment{
		RideID:     r.ID,
		DriverID:   d.ID,
		DriverName: d.FullName,
		Window:     s.conflictWindow,
		At:         s.clk.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, riderepo.ErrNotAssignable):
			return domain.Ride{}, notAssignable(r.Status)
		case errors.Is(err, riderepo.ErrStale):
			return domain.Ride{}, staleRide()
		}
		return domain.Ride{}, s.saveErr(err, domain.Ride{DriverID: &d.ID})
	}

	s.releaseDriver(ctx, r.DriverID, d.ID)
	s.emit(ctx, p, updated, domain.RideEventAssigned, &from, domain.Ptr(updated.Status), nil)
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionAssignDriver, string(updated.ID), map[string]any{
		"driverId":   d.ID,
		"driverName": d.FullName,
	}))
	return updated, nil
}

func (s *Service) driver(ctx context.Context, id domain.DriverID) (domain.Driver, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, driverrepo.ErrNotFound) {
			return domain.Driver{}, apperr.NotFound("Driver not found")
		}
		return domain.Driver{}, err
	}
	return d, nil
}

func invalidTransition(msg string, from, to domain.RideStatus) *apperr.Error {
	return &apperr.Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    apperr.CodeInvalidStatusTransition,
		Message: msg,
		Details: map[string]any{"from": from, "to": to},
	}
}

func notAssignable(st domain.RideStatus) *apperr.Error {
	return invalidTransition("A driver can only be assigned to pending or assigned rides", st, domain.RideStatusAssigned)
}

func staleRide() *apperr.Error {
	return apperr.Conflict(apperr.CodeConflict, "Ride was changed by another request, reload and try again")
}

// saveErr maps riderepo write errors. r carries the driver named in a conflict.
func (s *Service) saveErr(err error, r domain.Ride) error {
	switch {
	case errors.Is(err, riderepo.ErrDriverConflict) && r.DriverID != nil:
		return apperr.Conflict(apperr.CodeDriverConflict, "Driver already has a ride scheduled near this appointment time").
			WithDetails(map[string]any{
				"driverId":      *r.DriverID,
				"windowMinutes": int(s.conflictWindow / time.Minute),
			})
	case errors.Is(err, riderepo.ErrStale):
		return staleRide()
	}
	return s.mapRepoErr(err)
}

// UpdateStatus is the status-only path used by drivers and for cancellation.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, id domain.RideID, status, note string) (domain.Ride, error) {
	if p.Role == domain.RoleExecutive {
		return domain.Ride{}, apperr.Forbidden("Insufficient permissions to update rides")
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return domain.Ride{}, err
	}
	switch p.Role {
	case domain.RoleCommunity:
		if r.CreatedBy != p.UserID {
			return domain.Ride{}, rideNotFound()
		}
		if err := communityStatusAllowed(status); err != nil {
			return domain.Ride{}, err
		}
	case domain.RoleDriver:
		if !assignedTo(p, r) {
			return domain.Ride{}, apperr.Forbidden("Access denied: ride is not assigned to you")
		}
	}

	to, err := nextStatus(r, status)
	if err != nil {
		return domain.Ride{}, err
	}
	if to == r.Status {
		return r, nil
	}

	next := r.Clone()
	next.Status = to
	if to == domain.RideStatusPending {
		next.DriverID, next.DriverName = nil, nil
	}
	next.UpdatedAt = s.clk.Now()
	if err := s.rides.Save(ctx, riderepo.Change{Ride: next, PrevStatus: r.Status, PrevUpdatedAt: r.UpdatedAt}); err != nil {
		return domain.Ride{}, s.saveErr(err, next)
	}
	s.afterTransition(ctx, p, next, r.Status, r.DriverID, note)
	return next, nil
}

// nextStatus parses raw and checks it against the status machine from r.
// The same status comes back unchanged.
func nextStatus(r domain.Ride, raw string) (domain.RideStatus, error) {
	to, ok := domain.ParseRideStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !ok {
		return "", apperr.Validation("invalid status", map[string]any{"status": fmt.Sprintf("unknown status %q", raw)})
	}
	if to == r.Status {
		return to, nil
	}
	if to == domain.RideStatusAssigned && r.DriverID == nil {
		return "", apperr.Validation("A driver must be assigned first", map[string]any{"driver_id": "required for ASSIGNED"})
	}
	if !domain.CanTransition(r.Status, to) {
		return "", invalidTransition(fmt.Sprintf("Cannot change status from %s to %s", r.Status, to), r.Status, to)
	}
	return to, nil
}

// afterTransition records a committed status change of r from -> r.Status.
// driverID is the driver that held the ride during the change.
func (s *Service) afterTransition(ctx context.Context, p domain.Principal, r domain.Ride, from domain.RideStatus, driverID *domain.DriverID, note string) {
	to := r.Status
	s.syncDriverStatus(ctx, driverID, to)

	var payload json.RawMessage
	if note = strings.TrimSpace(note); note != "" {
		payload, _ = json.Marshal(map[string]string{"note": note})
	}
	evType := domain.RideEventStatusChanged
	action := domain.ActionUpdateRide
	switch to {
	case domain.RideStatusCancelled:
		evType = domain.RideEventCancelled
		action = domain.ActionCancelRide
	case domain.RideStatusCompleted:
		action = domain.ActionCompleteRide
	}
	s.emitWithDriver(ctx, p, r, evType, &from, &to, driverID, payload)
	s.audit.Record(ctx, audit.FromPrincipal(p, action, string(r.ID), map[string]any{"from": from, "to": to}))
}

// releaseDriver frees the previous driver of a reassigned ride.
func (s *Service) releaseDriver(ctx context.Context, prev *domain.DriverID, next domain.DriverID) {
	if prev == nil || *prev == next {
		return
	}
	s.syncDriverStatus(ctx, prev, domain.RideStatusPending)
}

// syncDriverStatus keeps the driver's availability in line with its current ride.
// A driver is only made AVAILABLE when no other ride of theirs is under way.
func (s *Service) syncDriverStatus(ctx context.Context, id *domain.DriverID, to domain.RideStatus) {
	if id == nil {
		return
	}
	var want domain.DriverStatus
	switch to {
	case domain.RideStatusEnRouteToPickup, domain.RideStatusArrivedAtPickup, domain.RideStatusInProgress:
		want = domain.DriverStatusOnTrip
	case domain.RideStatusCompleted, domain.RideStatusCancelled, domain.RideStatusPending:
		want = domain.DriverStatusAvailable
	default:
		return
	}
	d, err := s.drivers.GetByID(ctx, *id)
	if err != nil {
		return
	}
	if d.Status == want || d.Status == domain.DriverStatusInactive || (want == domain.DriverStatusAvailable && d.Status != domain.DriverStatusOnTrip) {
		return
	}
	if want == domain.DriverStatusAvailable {
		_, underway, err := s.rides.List(ctx, riderepo.Filter{DriverID: id, Statuses: underwayStatuses, Limit: 1})
		if err != nil || underway > 0 {
			return
		}
	}
	d.Status = want
	d.UpdatedAt = s.clk.Now()
	if err := s.drivers.Update(ctx, d); err != nil {
		s.log.Warning("sync driver status", logger.String("driverId", string(d.ID)), logger.Error(err))
	}
}

var underwayStatuses = []domain.RideStatus{
	domain.RideStatusEnRouteToPickup,
	domain.RideStatusArrivedAtPickup,
	domain.RideStatusInProgress,
}

// Delete removes a ride. Admins and developers may delete any ride; community users their own pending ride.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.RideID) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case p.Role.In(domain.RoleAdmin, domain.RoleDeveloper):
	case p.Role == domain.RoleCommunity:
		if r.CreatedBy != p.UserID {
			return rideNotFound()
		}
		if r.Status != domain.RideStatusPending {
			return apperr.Forbidden("Only pending rides can be deleted")
		}
	default:
		return apperr.Forbidden("Insufficient permissions to delete rides")
	}
	if err := s.rides.Delete(ctx, id); err != nil {
		return s.mapRepoErr(err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionDeleteRide, string(id), map[string]any{"status": r.Status}))
	return nil
}

// Rate records the community requester's review of a completed ride.
func (s *Service) Rate(ctx context.Context, p domain.Principal, id domain.RideID, in RateInput) (domain.Ride, error) {
	if p.Role != domain.RoleCommunity {
		return domain.Ride{}, apperr.Forbidden("Only the requester can rate a ride")
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return domain.Ride{}, err
	}
	if r.CreatedBy != p.UserID {
		return domain.Ride{}, rideNotFound()
	}
	if in.Rating < 1 || in.Rating > 5 {
		return domain.Ride{}, apperr.Validation("invalid rating", map[string]any{"rating": "must be between 1 and 5"})
	}
	if r.Status != domain.RideStatusCompleted {
		return domain.Ride{}, apperr.Validation("Only completed rides can be rated", map[string]any{"status": r.Status})
	}
	if r.Rating != nil {
		return domain.Ride{}, apperr.Conflict(apperr.CodeConflict, "Ride has already been rated")
	}

	prevUpdated := r.UpdatedAt
	r.Rating = domain.Ptr(in.Rating)
	r.ReviewTags = cleanList(in.Tags)
	if c := strings.TrimSpace(in.Comment); c != "" {
		r.ReviewComment = &c
	}
	r.UpdatedAt = s.clk.Now()
	if err := s.rides.Save(ctx, riderepo.Change{Ride: r, PrevStatus: r.Status, PrevUpdatedAt: prevUpdated}); err != nil {
		return domain.Ride{}, s.saveErr(err, r)
	}
	payload, _ := json.Marshal(map[string]any{"rating": in.Rating})
	s.emit(ctx, p, r, domain.RideEventRated, nil, nil, payload)
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdateRide, string(r.ID), map[string]any{"rating": in.Rating}))
	return r, nil
}

func (s *Service) mapRepoErr(err error) error {
	if errors.Is(err, riderepo.ErrNotFound) {
		return rideNotFound()
	}
	return err
}

func (s *Service) emit(ctx context.Context, p domain.Principal, r domain.Ride, t domain.RideEventType, from, to *domain.RideStatus, payload json.RawMessage) {
	s.emitWithDriver(ctx, p, r, t, from, to, r.DriverID, payload)
}

// emitWithDriver stores a ride event and pushes it to staff, the requester and the driver.
// Failures are logged; the ride write has already happened.
func (s *Service) emitWithDriver(ctx context.Context, p domain.Principal, r domain.Ride, t domain.RideEventType, from, to *domain.RideStatus, driverID *domain.DriverID, payload json.RawMessage) {
	n, err := s.seq.Next(ctx, domain.PrefixEvent)
	if err != nil {
		s.log.Error("ride event id", logger.String("rideId", string(r.ID)), logger.Error(err))
		return
	}
	ev := domain.RideEvent{
		ID:         domain.EventID(domain.FormatID(domain.PrefixEvent, n)),
		RideID:     r.ID,
		Type:       t,
		FromStatus: from,
		ToStatus:   to,
		DriverID:   driverID,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		Payload:    payload,
		CreatedAt:  s.clk.Now(),
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Error("append ride event", logger.String("rideId", string(r.ID)), logger.Error(err))
	}

	aud := notify.Audience{Roles: domain.StaffRoles, UserIDs: []domain.UserID{r.CreatedBy}}
	if driverID != nil {
		if d, err := s.drivers.GetByID(ctx, *driverID); err == nil && d.UserID != nil {
			aud.UserIDs = append(aud.UserIDs, *d.UserID)
		}
	}
	s.pub.Publish(ctx, ev, aud)
}

func parseAppointment(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("must be non-empty")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

func pickupCoordinates(lat, lng *float64) (*domain.Coordinates, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, errors.New("lat and lng must be set together")
	}
	if !domain.ValidCoordinates(*lat, *lng) {
		return nil, errors.New("out of range")
	}
	return &domain.Coordinates{Lat: *lat, Lng: *lng}, nil
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

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
