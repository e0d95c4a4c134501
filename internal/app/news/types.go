package news

import (
	"time"

	"github.com/wecare-ems/wecare-api/internal/app/patch"
)

type ListInput struct {
	// All includes drafts and scheduled articles. Only honoured for staff callers.
	All bool
}

type CreateInput struct {
	Title            string
	Content          string
	Author           string
	Status           string
	ScheduledDate    *time.Time
	FeaturedImageURL *string
}

type UpdateInput struct {
	Title            patch.Optional[string]
	Content          patch.Optional[string]
	Author           patch.Optional[string]
	Status           patch.Optional[string]
	ScheduledDate    patch.Optional[time.Time]
	FeaturedImageURL patch.Optional[string]
}
