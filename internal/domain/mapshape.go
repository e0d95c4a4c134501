package domain

import (
	"encoding/json"
	"time"
)

type MapShapeType string

const (
	MapShapeMarker   MapShapeType = "marker"
	MapShapePolyline MapShapeType = "polyline"
	MapShapePolygon  MapShapeType = "polygon"
)

func ParseMapShapeType(s string) (MapShapeType, bool) {
	switch t := MapShapeType(s); t {
	case MapShapeMarker, MapShapePolyline, MapShapePolygon:
		return t, true
	default:
		return "", false
	}
}

// PointsValid reports whether n points can draw a shape of type t.
// A marker is exactly one point, a polyline at least two and a polygon at least three.
func (t MapShapeType) PointsValid(n int) bool {
	switch t {
	case MapShapeMarker:
		return n == 1
	case MapShapePolyline:
		return n >= 2
	case MapShapePolygon:
		return n >= 3
	default:
		return false
	}
}

// MapShape is an annotation drawn on the dispatch map.
type MapShape struct {
	ID          MapShapeID
	Type        MapShapeType
	Name        string
	Description string
	Points      []Coordinates
	// Properties is a JSON object owned by the map client.
	Properties json.RawMessage

	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}
