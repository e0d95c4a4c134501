package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/mapdata"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
	"github.com/wecare-ems/wecare-api/internal/domain"
)

// Shape coordinates are a single {lat, lng} object for a marker and an array of them otherwise.
type createMapShapeRequest struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type updateMapShapeRequest struct {
	Name        nullable.Nullable[string]          `json:"name"`
	Description nullable.Nullable[string]          `json:"description"`
	Coordinates nullable.Nullable[json.RawMessage] `json:"coordinates"`
}

type mapShapeJSON struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Coordinates any             `json:"coordinates"`
	Properties  json.RawMessage `json:"properties"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func mapShapeFromDomain(m domain.MapShape) mapShapeJSON {
	pts := make([]coordinatesJSON, 0, len(m.Points))
	for _, p := range m.Points {
		pts = append(pts, coordinatesJSON{Lat: p.Lat, Lng: p.Lng})
	}
	var coords any = pts
	if m.Type == domain.MapShapeMarker && len(pts) == 1 {
		coords = pts[0]
	}
	props := m.Properties
	if len(props) == 0 {
		props = json.RawMessage("{}")
	}
	return mapShapeJSON{
		ID:          string(m.ID),
		Type:        string(m.Type),
		Name:        m.Name,
		Description: m.Description,
		Coordinates: coords,
		Properties:  props,
		CreatedBy:   string(m.CreatedBy),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// parsePoints accepts one {lat, lng} object or an array of them.
func parsePoints(raw json.RawMessage) ([]domain.Coordinates, error) {
	invalid := apperr.Validation("invalid map shape", map[string]any{"coordinates": "must be a {lat, lng} object or an array of them"})
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var list []coordinatesBody
	switch raw[0] {
	case '{':
		var one coordinatesBody
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, invalid
		}
		list = []coordinatesBody{one}
	case '[':
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, invalid
		}
	default:
		return nil, invalid
	}
	out := make([]domain.Coordinates, 0, len(list))
	for _, c := range list {
		out = append(out, domain.Coordinates{Lat: c.Lat, Lng: c.Lng})
	}
	return out, nil
}

// rawProperties pulls "properties" out of the body before decodeBody rewrites its keys.
// Properties belong to the map client and are stored exactly as sent.
func rawProperties(w http.ResponseWriter, r *http.Request) (patch.Optional[json.RawMessage], error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return patch.Unspecified[json.RawMessage](), apperr.BadRequest("could not read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		// decodeBody reports the malformed body.
		return patch.Unspecified[json.RawMessage](), nil
	}
	props, ok := fields["properties"]
	if !ok {
		return patch.Unspecified[json.RawMessage](), nil
	}
	if string(bytes.TrimSpace(props)) == "null" {
		return patch.Null[json.RawMessage](), nil
	}
	return patch.Some(props), nil
}

// ListMapShapes accepts ?type=marker|polyline|polygon.
func (s *Server) ListMapShapes(w http.ResponseWriter, r *http.Request) {
	shapes, err := s.MapData.List(r.Context(), principal(r), mapdata.ListInput{Type: queryString(r, "type")})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: listFrom(shapes, mapShapeFromDomain)})
}

func (s *Server) GetMapShape(w http.ResponseWriter, r *http.Request) {
	m, err := s.MapData.Get(r.Context(), principal(r), domain.MapShapeID(pathID(r, "id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: mapShapeFromDomain(m)})
}

func (s *Server) CreateMapShape(w http.ResponseWriter, r *http.Request) {
	props, err := rawProperties(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req createMapShapeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	points, err := parsePoints(req.Coordinates)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.MapData.Create(r.Context(), principal(r), mapdata.CreateInput{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Points:      points,
		Properties:  props.Value(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: mapShapeFromDomain(m)})
}

func (s *Server) UpdateMapShape(w http.ResponseWriter, r *http.Request) {
	props, err := rawProperties(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateMapShapeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in := mapdata.UpdateInput{
		Name:        optional(req.Name),
		Description: optional(req.Description),
		Properties:  props,
	}
	switch coords := optional(req.Coordinates); {
	case coords.IsNull():
		in.Points = patch.Some[[]domain.Coordinates](nil)
	case coords.HasValue():
		points, err := parsePoints(coords.Value())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		in.Points = patch.Some(points)
	}
	m, err := s.MapData.Update(r.Context(), principal(r), domain.MapShapeID(pathID(r, "id")), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: mapShapeFromDomain(m)})
}

func (s *Server) DeleteMapShape(w http.ResponseWriter, r *http.Request) {
	if err := s.MapData.Delete(r.Context(), principal(r), domain.MapShapeID(pathID(r, "id"))); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
