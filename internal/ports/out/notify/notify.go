package notify

import (
	"context"

	"github.com/wecare-ems/wecare-api/internal/domain"
)

// Audience selects the recipients of a pushed event.
// A connection matches when its user is listed OR its role is listed.
type Audience struct {
	UserIDs []domain.UserID
	Roles   []domain.Role
}

// Publisher delivers ride events to connected clients. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev domain.RideEvent, to Audience)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, domain.RideEvent, Audience) {}
