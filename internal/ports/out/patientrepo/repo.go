package patientrepo

import (
	"context"
	"errors"
	"time"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	ErrNotFound      = errors.New("patient not found")
	ErrAlreadyExists = errors.New("patient already exists")
)

type Filter struct {
	CreatedBy    *domain.UserID
	CreatedAfter *time.Time
	Query        string // case-insensitive match on full name or national id

	Limit  int
	Offset int
}

// Repository provides access to persisted patients. List orders newest first.
type Repository interface {
	Create(ctx context.Context, p domain.Patient) error
	Update(ctx context.Context, p domain.Patient) error
	Delete(ctx context.Context, id domain.PatientID) error
	GetByID(ctx context.Context, id domain.PatientID) (domain.Patient, error)
	List(ctx context.Context, f Filter) ([]domain.Patient, int, error)
}
