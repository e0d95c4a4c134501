// Package mapdata stores the markers, routes and zones staff draw on the dispatch map.
package mapdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/mapshaperepo"
	"github.com/wecare-ems/wecare-api/internal/ports/out/sequence"
)

type Service struct {
	repo  mapshaperepo.Repository
	seq   sequence.Generator
	audit *audit.Service
	clk   clockport.Clock
}

func NewService(repo mapshaperepo.Repository, seq sequence.Generator, auditSvc *audit.Service, clk clockport.Clock) *Service {
	return &Service{repo: repo, seq: seq, audit: auditSvc, clk: clk}
}

func shapeNotFound() *apperr.Error { return apperr.NotFound("Map shape not found") }

func requireStaff(p domain.Principal) error {
	if !p.Role.IsStaff() {
		return apperr.Forbidden("Only dispatch staff may edit the map")
	}
	return nil
}

func (s *Service) List(ctx context.Context, p domain.Principal, in ListInput) ([]domain.MapShape, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	var f mapshaperepo.Filter
	if raw := strings.TrimSpace(in.Type); raw != "" {
		t, ok := domain.ParseMapShapeType(strings.ToLower(raw))
		if !ok {
			return nil, apperr.Validation("invalid filter", map[string]any{"type": "must be marker, polyline or polygon"})
		}
		f.Type = &t
	}
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list map shapes: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.MapShapeID) (domain.MapShape, error) {
	if err := requireStaff(p); err != nil {
		return domain.MapShape{}, err
	}
	return s.load(ctx, id)
}

func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domain.MapShape, error) {
	if err := requireStaff(p); err != nil {
		return domain.MapShape{}, err
	}
	details := map[string]any{}
	t, ok := domain.ParseMapShapeType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !ok {
		details["type"] = "must be marker, polyline or polygon"
	} else if msg := checkPoints(t, in.Points); msg != "" {
		details["coordinates"] = msg
	}
	props, err := normalizeProperties(in.Properties)
	if err != nil {
		details["properties"] = err.Error()
	}
	if len(details) > 0 {
		return domain.MapShape{}, apperr.Validation("invalid map shape", details)
	}

	n, err := s.seq.Next(ctx, domain.PrefixMapShape)
	if err != nil {
		return domain.MapShape{}, fmt.Errorf("next map shape id: %w", err)
	}
	id := domain.MapShapeID(domain.FormatID(domain.PrefixMapShape, n))
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Shape " + string(id)
	}
	now := s.clk.Now()
	m := domain.MapShape{
		ID:          id,
		Type:        t,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Points:      append([]domain.Coordinates(nil), in.Points...),
		Properties:  props,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, mapshaperepo.ErrAlreadyExists) {
			return domain.MapShape{}, apperr.Conflict(apperr.CodeConflict, "Map shape already exists")
		}
		return domain.MapShape{}, err
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionCreateMapShape, string(m.ID), map[string]any{
		"type":   m.Type,
		"points": len(m.Points),
	}))
	return m, nil
}

func (s *Service) Update(ctx context.Context, p domain.Principal, id domain.MapShapeID, in UpdateInput) (domain.MapShape, error) {
	if err := requireStaff(p); err != nil {
		return domain.MapShape{}, err
	}
	m, err := s.load(ctx, id)
	if err != nil {
		return domain.MapShape{}, err
	}

	details := map[string]any{}
	if in.Name.IsSpecified() {
		v := strings.TrimSpace(in.Name.Value())
		if in.Name.IsNull() || v == "" {
			details["name"] = "must be non-empty"
		}
		m.Name = v
	}
	if in.Description.IsSpecified() {
		m.Description = strings.TrimSpace(in.Description.Value())
	}
	if in.Points.IsSpecified() {
		if msg := checkPoints(m.Type, in.Points.Value()); msg != "" {
			details["coordinates"] = msg
		}
		m.Points = append([]domain.Coordinates(nil), in.Points.Value()...)
	}
	if in.Properties.IsSpecified() {
		props, err := normalizeProperties(in.Properties.Value())
		if err != nil {
			details["properties"] = err.Error()
		}
		m.Properties = props
	}
	if len(details) > 0 {
		return domain.MapShape{}, apperr.Validation("invalid map shape", details)
	}

	m.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, mapshaperepo.ErrNotFound) {
			return domain.MapShape{}, shapeNotFound()
		}
		return domain.MapShape{}, fmt.Errorf("update map shape: %w", err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdateMapShape, string(m.ID), map[string]any{
		"type":   m.Type,
		"points": len(m.Points),
	}))
	return m, nil
}

func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.MapShapeID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, mapshaperepo.ErrNotFound) {
			return shapeNotFound()
		}
		return fmt.Errorf("delete map shape: %w", err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionDeleteMapShape, string(id), nil))
	return nil
}

func (s *Service) load(ctx context.Context, id domain.MapShapeID) (domain.MapShape, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mapshaperepo.ErrNotFound) {
			return domain.MapShape{}, shapeNotFound()
		}
		return domain.MapShape{}, fmt.Errorf("load map shape: %w", err)
	}
	return m, nil
}

// checkPoints returns a validation message, or "" when pts can draw a shape of type t.
func checkPoints(t domain.MapShapeType, pts []domain.Coordinates) string {
	if !t.PointsValid(len(pts)) {
		switch t {
		case domain.MapShapeMarker:
			return "a marker needs exactly one point"
		case domain.MapShapePolyline:
			return "a polyline needs at least two points"
		default:
			return "a polygon needs at least three points"
		}
	}
	for _, c := range pts {
		if !domain.ValidCoordinates(c.Lat, c.Lng) {
			return "out of range"
		}
	}
	return ""
}

// normalizeProperties accepts nothing, null or a JSON object.
func normalizeProperties(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var obj map[string]any
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &obj) != nil {
		return nil, errors.New("must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, errors.New("must be a JSON object")
	}
	return buf.Bytes(), nil
}
