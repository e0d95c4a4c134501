package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/auth"
	"github.com/wecare-ems/wecare-api/internal/app/dashboard"
	"github.com/wecare-ems/wecare-api/internal/app/drivers"
	"github.com/wecare-ems/wecare-api/internal/app/facilities"
	"github.com/wecare-ems/wecare-api/internal/app/locations"
	"github.com/wecare-ems/wecare-api/internal/app/mapdata"
	"github.com/wecare-ems/wecare-api/internal/app/news"
	"github.com/wecare-ems/wecare-api/internal/app/pagination"
	"github.com/wecare-ems/wecare-api/internal/app/patients"
	"github.com/wecare-ems/wecare-api/internal/app/rideevents"
	"github.com/wecare-ems/wecare-api/internal/app/rides"
	"github.com/wecare-ems/wecare-api/internal/app/schedules"
	"github.com/wecare-ems/wecare-api/internal/app/settings"
	"github.com/wecare-ems/wecare-api/internal/app/system"
	"github.com/wecare-ems/wecare-api/internal/app/users"
	"github.com/wecare-ems/wecare-api/internal/app/vehicles"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

// Server holds the application services behind the HTTP handlers.
type Server struct {
	Auth       *auth.Service
	Users      *users.Service
	Patients   *patients.Service
	Rides      *rides.Service
	Drivers    *drivers.Service
	Vehicles   *vehicles.Service
	Schedules  *schedules.Service
	News       *news.Service
	Locations  *locations.Service
	RideEvents *rideevents.Service
	Settings   *settings.Service
	Facilities *facilities.Service
	MapData    *mapdata.Service
	Dashboard  *dashboard.Service
	Audit      *audit.Service
	System     *system.Service

	Log logger.Logger
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeAppError(w, r, s.Log, err)
}

// principal returns the authenticated caller. Routes using it sit behind the auth middleware.
func principal(r *http.Request) domain.Principal {
	p, _ := PrincipalFromContext(r.Context())
	return p
}

func principalPtr(r *http.Request) *domain.Principal {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return &p
	}
	return nil
}

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func pageParams(r *http.Request) (pagination.Params, error) {
	var page, limit *int
	if err := bindQueries(r, map[string]any{"page": &page, "limit": &limit}); err != nil {
		return pagination.Params{}, err
	}
	var p pagination.Params
	if page != nil {
		p.Page = *page
	}
	if limit != nil {
		p.Limit = *limit
	}
	return p, nil
}

func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

func queryInt(r *http.Request, name string) (int, error) {
	var v *int
	if err := bindQuery(r, name, &v); err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}
