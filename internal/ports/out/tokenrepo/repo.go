package tokenrepo

import (
	"context"
	"time"
)

// Repository is the access-token blacklist. Entries only need to live until the token expires.
type Repository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
