// Package settings holds the organisation-wide configuration edited by administrators.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/settingsrepo"
)

// Public is the subset of settings served without authentication.
type Public struct {
	AppName            string
	OrganizationName   string
	LogoURL            string
	ContactEmail       string
	MaintenanceMode    bool
	MaintenanceMessage string
}

type Service struct {
	repo  settingsrepo.Repository
	audit *audit.Service
	clk   clockport.Clock
}

func NewService(repo settingsrepo.Repository, auditSvc *audit.Service, clk clockport.Clock) *Service {
	return &Service{repo: repo, audit: auditSvc, clk: clk}
}

// Get returns the stored settings, or the defaults when none were saved yet.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, settingsrepo.ErrNotFound) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// Put replaces the settings.
func (s *Service) Put(ctx context.Context, p domain.Principal, in domain.Settings) (domain.Settings, error) {
	in.AppName = strings.TrimSpace(in.AppName)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	in.ContactEmail = domain.NormalizeEmail(in.ContactEmail)

	details := map[string]any{}
	if in.AppName == "" {
		details["app_name"] = "must be non-empty"
	}
	if in.OrganizationName == "" {
		details["organization_name"] = "must be non-empty"
	}
	if in.ContactEmail != "" {
		if err := domain.ValidateEmail(in.ContactEmail); err != nil {
			details["contact_email"] = err.Error()
		}
	}
	if !domain.ValidCoordinates(in.MapCenterLat, in.MapCenterLng) {
		details["map_center"] = "out of range"
	}
	switch in.SchedulingModel {
	case "":
		in.SchedulingModel = domain.SchedulingIndividual
	case domain.SchedulingIndividual, domain.SchedulingTeam:
	default:
		details["scheduling_model"] = "must be individual or team"
	}
	if len(details) > 0 {
		return domain.Settings{}, apperr.Validation("invalid settings", details)
	}

	in.UpdatedAt = s.clk.Now()
	if err := s.repo.Put(ctx, in); err != nil {
		return domain.Settings{}, fmt.Errorf("store settings: %w", err)
	}
	s.audit.Record(ctx, audit.FromPrincipal(p, domain.ActionUpdateSettings, "settings", map[string]any{
		"maintenanceMode": in.MaintenanceMode,
		"schedulingModel": in.SchedulingModel,
	}))
	return in, nil
}

func (s *Service) Public(ctx context.Context) (Public, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return Public{}, err
	}
	return Public{
		AppName:            st.AppName,
		OrganizationName:   st.OrganizationName,
		LogoURL:            st.LogoURL,
		ContactEmail:       st.ContactEmail,
		MaintenanceMode:    st.MaintenanceMode,
		MaintenanceMessage: st.MaintenanceMessage,
	}, nil
}
