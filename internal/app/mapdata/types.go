package mapdata

import (
	"encoding/json"

	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

type ListInput struct {
	Type string
}

type CreateInput struct {
	Type        string
	Name        string
	Description string
	Points      []domain.Coordinates
	Properties  json.RawMessage
}

// UpdateInput leaves the shape type alone; redraw a shape of another type as a new shape.
type UpdateInput struct {
	Name        patch.Optional[string]
	Description patch.Optional[string]
	Points      patch.Optional[[]domain.Coordinates]
	Properties  patch.Optional[json.RawMessage]
}
