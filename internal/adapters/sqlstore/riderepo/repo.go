package riderepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/riderepo"
)

const columns = `id, patient_id, patient_name, patient_phone, pickup_location, pickup_lat, pickup_lng,
	village, landmark, destination, appointment_time, status, special_needs, caregiver_count,
	contact_phone, trip_type, notes, driver_id, driver_name, rating, review_tags, review_comment,
	created_by, created_at, updated_at`

// Repo is a database/sql implementation of riderepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, ride domain.Ride) error {
	if ride.ID == "" {
		return riderepo.ErrAlreadyExists
	}
	args := values(ride)
	_, err := r.db.ExecContext(ctx, `INSERT INTO rides (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return riderepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, ride domain.Ride) error {
	return update(ctx, r.db, ride)
}

func (r *Repo) Delete(ctx context.Context, id domain.RideID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rides WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return riderepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	return get(ctx, r.db, id)
}

func (r *Repo) List(ctx context.Context, f riderepo.Filter) ([]domain.Ride, int, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+sqldb.Placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, string(*f.DriverID))
	}
	if f.CreatedBy != nil {
		where = append(where, "created_by = ?")
		args = append(args, string(*f.CreatedBy))
	}
	if f.PatientID != nil {
		where = append(where, "patient_id = ?")
		args = append(args, string(*f.PatientID))
	}
	if f.From != nil {
		where = append(where, "appointment_time >= ?")
		args = append(args, sqldb.FormatTime(*f.From))
	}
	if f.To != nil {
		where = append(where, "appointment_time < ?")
		args = append(args, sqldb.FormatTime(*f.To))
	}
	if f.CreatedAfter != nil {
		where = append(where, "created_at > ?")
		args = append(args, sqldb.FormatTime(*f.CreatedAfter))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rides: %w", err)
	}
	query, args := sqldb.Paginate(`SELECT `+columns+` FROM rides`+cond+` ORDER BY appointment_time DESC, id DESC`, args, f.Limit, f.Offset)
	rides, err := queryRides(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// Save runs the version check inside the UPDATE itself, so two writers derived from the
// same version cannot both succeed.
func (r *Repo) Save(ctx context.Context, c riderepo.Change) error {
	return sqldb.WithTx(ctx, r.db, func(tx *sqldb.Tx) error {
		if c.Window > 0 && c.Ride.DriverID != nil && c.Ride.Status.IsActive() {
			if err := lockDriver(ctx, tx, *c.Ride.DriverID); err != nil {
				return err
			}
			conflict, err := hasConflict(ctx, tx, c.Ride, *c.Ride.DriverID, c.Window)
			if err != nil {
				return err
			}
			if conflict {
				return riderepo.ErrDriverConflict
			}
		}

		ok, err := updateWhere(ctx, tx, c.Ride, ` AND status = ? AND updated_at = ?`,
			string(c.PrevStatus), sqldb.FormatTime(c.PrevUpdatedAt))
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if _, err := get(ctx, tx, c.Ride.ID); err != nil {
			return err
		}
		return riderepo.ErrStale
	})
}

// AssignDriver checks the driver's other active rides and writes the assignment in one
// transaction. On postgres an advisory lock keyed by the driver serializes concurrent
// assignments; sqlite already has a single writer.
func (r *Repo) AssignDriver(ctx context.Context, a riderepo.Assignment) (domain.Ride, error) {
	var out domain.Ride
	err := sqldb.WithTx(ctx, r.db, func(tx *sqldb.Tx) error {
		if err := lockDriver(ctx, tx, a.DriverID); err != nil {
			return err
		}

		ride, err := get(ctx, tx, a.RideID)
		if err != nil {
			return err
		}
		if !ride.Status.Assignable() {
			return riderepo.ErrNotAssignable
		}
		conflict, err := hasConflict(ctx, tx, ride, a.DriverID, a.Window)
		if err != nil {
			return err
		}
		if conflict {
			return riderepo.ErrDriverConflict
		}

		prevStatus, prevUpdated := ride.Status, ride.UpdatedAt
		driverID := a.DriverID
		name := a.DriverName
		ride.DriverID = &driverID
		ride.DriverName = &name
		ride.Status = domain.RideStatusAssigned
		ride.UpdatedAt = a.At
		ok, err := updateWhere(ctx, tx, ride, ` AND status = ? AND updated_at = ?`,
			string(prevStatus), sqldb.FormatTime(prevUpdated))
		if err != nil {
			return err
		}
		if !ok {
			return riderepo.ErrStale
		}
		out = ride
		return nil
	})
	if err != nil {
		return domain.Ride{}, err
	}
	return out, nil
}

func lockDriver(ctx context.Context, tx *sqldb.Tx, id domain.DriverID) error {
	if tx.Dialect() != sqldb.Postgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext(?))`, string(id)); err != nil {
		return fmt.Errorf("lock driver: %w", err)
	}
	return nil
}

// hasConflict reports whether driver has another active ride within window of ride.
func hasConflict(ctx context.Context, q sqldb.Querier, ride domain.Ride, driver domain.DriverID, window time.Duration) (bool, error) {
	others, err := queryRides(ctx, q, `
		SELECT `+columns+` FROM rides
		WHERE driver_id = ? AND id <> ? AND status NOT IN (?, ?)
	`, string(driver), string(ride.ID), string(domain.RideStatusCompleted), string(domain.RideStatusCancelled))
	if err != nil {
		return false, err
	}
	for _, other := range others {
		if other.AppointmentTime.Sub(ride.AppointmentTime).Abs() < window {
			return true, nil
		}
	}
	return false, nil
}

func get(ctx context.Context, q sqldb.Querier, id domain.RideID) (domain.Ride, error) {
	ride, err := scan(q.QueryRowContext(ctx, `SELECT `+columns+` FROM rides WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	return ride, err
}

func update(ctx context.Context, q sqldb.Querier, ride domain.Ride) error {
	ok, err := updateWhere(ctx, q, ride, "")
	if err != nil {
		return err
	}
	if !ok {
		return riderepo.ErrNotFound
	}
	return nil
}

// updateWhere rewrites every column of ride. cond narrows the id match and reports false
// when no row qualified.
func updateWhere(ctx context.Context, q sqldb.Querier, ride domain.Ride, cond string, condArgs ...any) (bool, error) {
	args := values(ride)
	args = append(args[1:], args[0])
	args = append(args, condArgs...)
	res, err := q.ExecContext(ctx, `
		UPDATE rides
		SET patient_id = ?, patient_name = ?, patient_phone = ?, pickup_location = ?, pickup_lat = ?, pickup_lng = ?,
		    village = ?, landmark = ?, destination = ?, appointment_time = ?, status = ?, special_needs = ?,
		    caregiver_count = ?, contact_phone = ?, trip_type = ?, notes = ?, driver_id = ?, driver_name = ?,
		    rating = ?, review_tags = ?, review_comment = ?, created_by = ?, created_at = ?, updated_at = ?
		WHERE id = ?`+cond, args...)
	if err != nil {
		return false, err
	}
	return sqldb.RowsAffected(res)
}

func queryRides(ctx context.Context, q sqldb.Querier, query string, args ...any) ([]domain.Ride, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Ride, 0)
	for rows.Next() {
		ride, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ride)
	}
	return out, rows.Err()
}

func values(ride domain.Ride) []any {
	var lat, lng any
	if ride.PickupCoordinates != nil {
		lat, lng = ride.PickupCoordinates.Lat, ride.PickupCoordinates.Lng
	}
	return []any{
		string(ride.ID),
		sqldb.NullString(ride.PatientID),
		ride.PatientName,
		sqldb.NullString(ride.PatientPhone),
		ride.PickupLocation,
		lat,
		lng,
		sqldb.NullString(ride.Village),
		sqldb.NullString(ride.Landmark),
		ride.Destination,
		sqldb.FormatTime(ride.AppointmentTime),
		string(ride.Status),
		sqldb.EncodeList(ride.SpecialNeeds),
		ride.CaregiverCount,
		sqldb.NullString(ride.ContactPhone),
		sqldb.NullString(ride.TripType),
		sqldb.NullString(ride.Notes),
		sqldb.NullString(ride.DriverID),
		sqldb.NullString(ride.DriverName),
		sqldb.NullInt(ride.Rating),
		sqldb.EncodeList(ride.ReviewTags),
		sqldb.NullString(ride.ReviewComment),
		string(ride.CreatedBy),
		sqldb.FormatTime(ride.CreatedAt),
		sqldb.FormatTime(ride.UpdatedAt),
	}
}

func scan(s sqldb.Scanner) (domain.Ride, error) {
	var (
		ride                               domain.Ride
		id, status, createdBy              string
		appointment, createdAt, updatedAt  string
		needs, tags                        string
		patientID, patientPhone, village   sql.NullString
		landmark, contact, tripType, notes sql.NullString
		driverID, driverName, comment      sql.NullString
		lat, lng                           sql.NullFloat64
		rating                             sql.NullInt64
	)
	if err := s.Scan(
		&id, &patientID, &ride.PatientName, &patientPhone, &ride.PickupLocation, &lat, &lng,
		&village, &landmark, &ride.Destination, &appointment, &status, &needs, &ride.CaregiverCount,
		&contact, &tripType, &notes, &driverID, &driverName, &rating, &tags, &comment,
		&createdBy, &createdAt, &updatedAt,
	); err != nil {
		return domain.Ride{}, err
	}
	ride.ID = domain.RideID(id)
	ride.Status = domain.RideStatus(status)
	ride.CreatedBy = domain.UserID(createdBy)
	ride.PatientID = sqldb.StringPtr[domain.PatientID](patientID)
	ride.PatientPhone = sqldb.StringPtr[string](patientPhone)
	ride.Village = sqldb.StringPtr[string](village)
	ride.Landmark = sqldb.StringPtr[string](landmark)
	ride.ContactPhone = sqldb.StringPtr[string](contact)
	ride.TripType = sqldb.StringPtr[string](tripType)
	ride.Notes = sqldb.StringPtr[string](notes)
	ride.DriverID = sqldb.StringPtr[domain.DriverID](driverID)
	ride.DriverName = sqldb.StringPtr[string](driverName)
	ride.ReviewComment = sqldb.StringPtr[string](comment)
	ride.Rating = sqldb.IntPtr(rating)
	if lat.Valid && lng.Valid {
		ride.PickupCoordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}

	var err error
	if ride.SpecialNeeds, err = sqldb.DecodeList[string](needs); err != nil {
		return domain.Ride{}, err
	}
	if ride.ReviewTags, err = sqldb.DecodeList[string](tags); err != nil {
		return domain.Ride{}, err
	}
	if ride.AppointmentTime, err = sqldb.ParseTime(appointment); err != nil {
		return domain.Ride{}, err
	}
	if ride.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Ride{}, err
	}
	if ride.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Ride{}, err
	}
	return ride, nil
}
