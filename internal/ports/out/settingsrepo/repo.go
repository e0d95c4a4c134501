package settingsrepo

import (
	"context"
	"errors"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

// ErrNotFound indicates settings were never stored.
var ErrNotFound = errors.New("settings not found")

type Repository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Put(ctx context.Context, s domain.Settings) error
}
