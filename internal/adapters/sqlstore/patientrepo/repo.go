package patientrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqldb"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/ports/out/patientrepo"
)

const columns = `id, full_name, title, national_id, dob, age, gender, blood_type, rh_factor, health_coverage,
	contact_phone, id_card_address, current_address, landmark, latitude, longitude,
	patient_types, chronic_diseases, allergies, profile_image_url,
	registered_date, created_by, created_at, updated_at`

// Repo is a database/sql implementation of patientrepo.Repository.
type Repo struct {
	db *sqldb.DB
}

func NewRepo(db *sqldb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, p domain.Patient) error {
	if p.ID == "" {
		return patientrepo.ErrAlreadyExists
	}
	args, err := values(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO patients (`+columns+`) VALUES (`+sqldb.Placeholders(len(args))+`)`, args...)
	if sqldb.IsUniqueViolation(err) {
		return patientrepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, p domain.Patient) error {
	args, err := values(p)
	if err != nil {
		return err
	}
	// values() starts with id; move it to the WHERE clause.
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET full_name = ?, title = ?, national_id = ?, dob = ?, age = ?, gender = ?, blood_type = ?,
		    rh_factor = ?, health_coverage = ?, contact_phone = ?, id_card_address = ?, current_address = ?,
		    landmark = ?, latitude = ?, longitude = ?, patient_types = ?, chronic_diseases = ?, allergies = ?,
		    profile_image_url = ?, registered_date = ?, created_by = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return patientrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PatientID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	ok, err := sqldb.RowsAffected(res)
	if err != nil {
		return err
	}
	if !ok {
		return patientrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.PatientID) (domain.Patient, error) {
	p, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM patients WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Patient{}, patientrepo.ErrNotFound
	}
	return p, err
}

func (r *Repo) List(ctx context.Context, f patientrepo.Filter) ([]domain.Patient, int, error) {
	var (
		where []string
		args  []any
	)
	if f.CreatedBy != nil {
		where = append(where, "created_by = ?")
		args = append(args, string(*f.CreatedBy))
	}
	if f.CreatedAfter != nil {
		where = append(where, "created_at > ?")
		args = append(args, sqldb.FormatTime(*f.CreatedAfter))
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where = append(where, "(lower(full_name) LIKE ? OR lower(COALESCE(national_id, '')) LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	query, args := sqldb.Paginate(`SELECT `+columns+` FROM patients`+cond+` ORDER BY created_at DESC, id DESC`, args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Patient, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func values(p domain.Patient) ([]any, error) {
	idCard, err := sqldb.EncodeJSON(p.IDCardAddress)
	if err != nil {
		return nil, err
	}
	current, err := sqldb.EncodeJSON(p.CurrentAddress)
	if err != nil {
		return nil, err
	}
	return []any{
		string(p.ID),
		p.FullName,
		sqldb.NullString(p.Title),
		sqldb.NullString(p.NationalID),
		sqldb.NullTime(p.DOB),
		sqldb.NullInt(p.Age),
		sqldb.NullString(p.Gender),
		sqldb.NullString(p.BloodType),
		sqldb.NullString(p.RhFactor),
		sqldb.NullString(p.HealthCoverage),
		sqldb.NullString(p.ContactPhone),
		idCard,
		current,
		sqldb.NullString(p.Landmark),
		sqldb.NullFloat(p.Latitude),
		sqldb.NullFloat(p.Longitude),
		sqldb.EncodeList(p.PatientTypes),
		sqldb.EncodeList(p.ChronicDiseases),
		sqldb.EncodeList(p.Allergies),
		sqldb.NullString(p.ProfileImageURL),
		sqldb.FormatTime(p.RegisteredDate),
		string(p.CreatedBy),
		sqldb.FormatTime(p.CreatedAt),
		sqldb.FormatTime(p.UpdatedAt),
	}, nil
}

func scan(s sqldb.Scanner) (domain.Patient, error) {
	var (
		p                                         domain.Patient
		id, createdBy                             string
		title, nationalID, dob, gender, bloodType sql.NullString
		rh, coverage, phone, landmark, image      sql.NullString
		age                                       sql.NullInt64
		lat, lng                                  sql.NullFloat64
		idCard, current                           string
		types, chronic, allergies                 string
		registered, createdAt, updatedAt          string
	)
	if err := s.Scan(
		&id, &p.FullName, &title, &nationalID, &dob, &age, &gender, &bloodType, &rh, &coverage,
		&phone, &idCard, &current, &landmark, &lat, &lng,
		&types, &chronic, &allergies, &image,
		&registered, &createdBy, &createdAt, &updatedAt,
	); err != nil {
		return domain.Patient{}, err
	}
	p.ID = domain.PatientID(id)
	p.CreatedBy = domain.UserID(createdBy)
	p.Title = sqldb.StringPtr[string](title)
	p.NationalID = sqldb.StringPtr[string](nationalID)
	p.Age = sqldb.IntPtr(age)
	p.Gender = sqldb.StringPtr[string](gender)
	p.BloodType = sqldb.StringPtr[string](bloodType)
	p.RhFactor = sqldb.StringPtr[string](rh)
	p.HealthCoverage = sqldb.StringPtr[string](coverage)
	p.ContactPhone = sqldb.StringPtr[string](phone)
	p.Landmark = sqldb.StringPtr[string](landmark)
	p.Latitude = sqldb.FloatPtr(lat)
	p.Longitude = sqldb.FloatPtr(lng)
	p.ProfileImageURL = sqldb.StringPtr[string](image)

	var err error
	if p.DOB, err = sqldb.ParseNullTime(dob); err != nil {
		return domain.Patient{}, err
	}
	if err := sqldb.DecodeJSON(idCard, &p.IDCardAddress); err != nil {
		return domain.Patient{}, err
	}
	if err := sqldb.DecodeJSON(current, &p.CurrentAddress); err != nil {
		return domain.Patient{}, err
	}
	if p.PatientTypes, err = sqldb.DecodeList[string](types); err != nil {
		return domain.Patient{}, err
	}
	if p.ChronicDiseases, err = sqldb.DecodeList[string](chronic); err != nil {
		return domain.Patient{}, err
	}
	if p.Allergies, err = sqldb.DecodeList[string](allergies); err != nil {
		return domain.Patient{}, err
	}
	if p.RegisteredDate, err = sqldb.ParseTime(registered); err != nil {
		return domain.Patient{}, err
	}
	if p.CreatedAt, err = sqldb.ParseTime(createdAt); err != nil {
		return domain.Patient{}, err
	}
	if p.UpdatedAt, err = sqldb.ParseTime(updatedAt); err != nil {
		return domain.Patient{}, err
	}
	return p, nil
}
