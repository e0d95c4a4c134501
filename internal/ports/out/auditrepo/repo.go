package auditrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

var (
	// ErrNotFound is returned by Last when the log is empty.
	ErrNotFound = errors.New("audit log not found")

	// ErrAlreadyExists indicates the sequence number is already taken.
	ErrAlreadyExists = errors.New("audit sequence already exists")
)

type Filter struct {
	Action    *domain.AuditAction
	UserEmail string
	TargetID  string

	Limit  int
	Offset int
}

// Repository is the append-only store behind the audit hash chain.
type Repository interface {
	Append(ctx context.Context, l domain.AuditLog) error
	Last(ctx context.Context) (domain.AuditLog, error)

	// List returns newest first.
	List(ctx context.Context, f Filter) ([]domain.AuditLog, int, error)
	// All returns the whole chain in sequence order.
	All(ctx context.Context) ([]domain.AuditLog, error)

	// ReplaceAll atomically swaps the chain (used by chain rebuild).
	ReplaceAll(ctx context.Context, logs []domain.AuditLog) error
}
