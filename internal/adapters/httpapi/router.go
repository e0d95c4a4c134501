package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wecare-ems/wecare-api/internal/domain"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
)

const (
	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

type RouterConfig struct {
	// AuthMode is AuthModeJWT (default) or AuthModeDev, which also accepts X-Debug-Subject.
	AuthMode       string
	AllowedOrigins []string
	// LoginRateLimit is requests per minute per client IP on login and register.
	LoginRateLimit int
	Idempotency    idempotency.Store
	Clock          clockport.Clock
	// WebSocket is mounted at /api/ws when set. It authenticates on its own.
	WebSocket http.Handler
}

var (
	rolesAll       = domain.AllRoles
	rolesStaff     = domain.StaffRoles
	rolesAdmin     = []domain.Role{domain.RoleAdmin, domain.RoleDeveloper}
	rolesEditors   = []domain.Role{domain.RoleAdmin, domain.RoleDeveloper, domain.RoleOfficer}
	rolesExecutive = []domain.Role{domain.RoleAdmin, domain.RoleDeveloper, domain.RoleExecutive}
	rolesPatients  = []domain.Role{
		domain.RoleDeveloper, domain.RoleAdmin, domain.RoleExecutive, domain.RoleOfficer,
		domain.RoleRadioCenter, domain.RoleCommunity,
	}
	rolesStaffAndExecutive = append(append([]domain.Role{}, domain.StaffRoles...), domain.RoleExecutive)
	rolesStaffAndDriver    = append(append([]domain.Role{}, domain.StaffRoles...), domain.RoleDriver)
	rolesLocationsRead     = append(append([]domain.Role{}, rolesStaffAndDriver...), domain.RoleExecutive)
	rolesLocationsWrite    = []domain.Role{domain.RoleDriver, domain.RoleAdmin, domain.RoleDeveloper}
	rolesCommunity         = []domain.Role{domain.RoleCommunity}
	rolesDriver            = []domain.Role{domain.RoleDriver}
)

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(echoRequestID)
	r.Use(accessLog(s.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authn := NewAuthMiddleware(s.Auth, s.Log)
	if cfg.AuthMode == AuthModeDev {
		authn = NewDevAuthMiddleware(s.Auth, s.Log)
	}
	limit := cfg.LoginRateLimit
	if limit <= 0 {
		limit = 5
	}
	limiter := newRateLimiter(limit, time.Minute, cfg.Clock)
	idem := newIdempotencyMiddleware(cfg.Idempotency, cfg.Clock, s.Log)
	only := RequireRoles

	r.Route("/api", func(r chi.Router) {
		if cfg.WebSocket != nil {
			r.Handle("/ws", cfg.WebSocket)
		}

		// Public.
		r.Group(func(r chi.Router) {
			r.Use(idem)
			r.With(limiter.middleware).Post("/auth/login", s.Login)
			r.With(limiter.middleware).Post("/auth/register", s.Register)
			r.Get("/csrf-token", s.CSRFToken)
			r.Get("/settings/public", s.PublicSettings)
		})
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth(s.Auth))
			r.Get("/news", s.ListNews)
			r.Get("/news/{id}", s.GetNews)
		})

		// Authenticated.
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(idem)

			r.Get("/auth/me", s.Me)
			r.Post("/auth/logout", s.Logout)
			r.Post("/auth/change-password", s.ChangePassword)

			r.Route("/patients", func(r chi.Router) {
				r.Use(only(rolesPatients...))
				r.Get("/", s.ListPatients)
				r.Post("/", s.CreatePatient)
				r.Get("/{id}", s.GetPatient)
				r.Put("/{id}", s.UpdatePatient)
				r.Delete("/{id}", s.DeletePatient)
			})
			r.With(only(rolesStaff...)).Get("/office/patients", s.ListPatients)
			r.Route("/community/patients", func(r chi.Router) {
				r.Use(only(rolesCommunity...))
				r.Get("/", s.ListPatients)
				r.Post("/", s.CreatePatient)
			})

			r.Route("/rides", func(r chi.Router) {
				r.Use(only(rolesAll...))
				r.Get("/", s.ListRides)
				r.Post("/", s.CreateRide)
				r.Get("/{id}", s.GetRide)
				r.Put("/{id}", s.UpdateRide)
				r.Patch("/{id}/status", s.UpdateRideStatus)
				r.With(only(rolesStaff...)).Post("/{id}/assign", s.AssignRide)
				r.Post("/{id}/rate", s.RateRide)
				r.Delete("/{id}", s.DeleteRide)
			})
			r.Route("/community/rides", func(r chi.Router) {
				r.Use(only(rolesCommunity...))
				r.Get("/", s.ListRides)
				r.Post("/", s.CreateRide)
			})

			r.Route("/drivers", func(r chi.Router) {
				r.With(only(rolesDriver...)).Get("/me", s.MyDriverProfile)
				r.With(only(rolesDriver...)).Get("/me/rides", s.MyDriverRides)

				r.Group(func(r chi.Router) {
					r.Use(only(rolesStaffAndDriver...))
					r.Get("/", s.ListDrivers)
					r.Get("/{id}", s.GetDriver)
					r.Put("/{id}", s.UpdateDriver)
					r.Patch("/{id}/status", s.UpdateDriverStatus)
				})
				r.With(only(rolesStaff...)).Post("/", s.CreateDriver)
				r.With(only(rolesStaff...)).Delete("/{id}", s.DeleteDriver)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(only(rolesAdmin...))
				r.Get("/", s.ListUsers)
				r.Post("/", s.CreateUser)
				r.Get("/{id}", s.GetUser)
				r.Put("/{id}", s.UpdateUser)
				r.Delete("/{id}", s.DeleteUser)
				r.Post("/{id}/reset-password", s.ResetUserPassword)
			})

			r.Route("/teams", func(r chi.Router) {
				r.Use(only(rolesStaffAndExecutive...))
				r.Get("/", s.ListTeams)
				r.Get("/{id}", s.GetTeam)
				r.With(only(rolesEditors...)).Post("/", s.CreateTeam)
				r.With(only(rolesEditors...)).Put("/{id}", s.UpdateTeam)
				r.With(only(rolesEditors...)).Delete("/{id}", s.DeleteTeam)
			})
			r.Route("/team-shifts", func(r chi.Router) {
				r.Use(only(rolesStaffAndExecutive...))
				r.Get("/", s.ListTeamShifts)
				r.With(only(rolesEditors...)).Put("/", s.PutTeamShift)
				r.With(only(rolesEditors...)).Delete("/{id}", s.DeleteTeamShift)
			})
			r.Route("/driver-shifts", func(r chi.Router) {
				r.Use(only(rolesStaffAndExecutive...))
				r.Get("/", s.ListDriverShifts)
				r.With(only(rolesEditors...)).Put("/", s.PutDriverShift)
				r.With(only(rolesEditors...)).Delete("/{id}", s.DeleteDriverShift)
			})

			r.Route("/vehicles", func(r chi.Router) {
				r.Use(only(rolesStaff...))
				r.Get("/", s.ListVehicles)
				r.Post("/", s.CreateVehicle)
				r.Get("/{id}", s.GetVehicle)
				r.Put("/{id}", s.UpdateVehicle)
				r.Delete("/{id}", s.DeleteVehicle)
			})
			r.Route("/vehicle-types", func(r chi.Router) {
				r.Use(only(rolesStaff...))
				r.Get("/", s.ListVehicleTypes)
				r.Post("/", s.CreateVehicleType)
				r.Get("/{id}", s.GetVehicleType)
				r.Put("/{id}", s.UpdateVehicleType)
				r.Delete("/{id}", s.DeleteVehicleType)
			})

			r.Group(func(r chi.Router) {
				r.Use(only(rolesEditors...))
				r.Post("/news", s.CreateNews)
				r.Put("/news/{id}", s.UpdateNews)
				r.Delete("/news/{id}", s.DeleteNews)
			})

			r.Route("/audit-logs", func(r chi.Router) {
				r.Use(only(rolesExecutive...))
				r.Get("/", s.ListAuditLogs)
				r.Get("/integrity", s.AuditIntegrity)
				r.With(only(rolesAdmin...)).Post("/rebuild", s.RebuildAuditChain)
			})

			r.With(only(rolesStaffAndExecutive...)).Get("/dashboard", s.GetDashboard)
			r.With(only(rolesExecutive...)).Get("/dashboard/executive", s.ExecutiveDashboard)
			r.With(only(rolesStaff...)).Get("/office/reports", s.OfficeReport)
			r.With(only(rolesExecutive...)).Get("/executive/reports", s.ExecutiveDashboard)
			r.With(only(rolesExecutive...)).Get("/executive/reports/export", s.ExportReport)
			r.Route("/map-data", func(r chi.Router) {
				r.Use(only(rolesStaff...))
				r.Get("/", s.ListMapShapes)
				r.Post("/", s.CreateMapShape)
				r.Get("/live", s.LiveMap)
				r.Get("/{id}", s.GetMapShape)
				r.Put("/{id}", s.UpdateMapShape)
				r.Delete("/{id}", s.DeleteMapShape)
			})
			r.Route("/facilities", func(r chi.Router) {
				r.Use(only(rolesAll...))
				r.Get("/", s.ListFacilities)
				r.Get("/{id}", s.GetFacility)
				r.With(only(rolesStaff...)).Post("/", s.CreateFacility)
				r.With(only(rolesStaff...)).Put("/{id}", s.UpdateFacility)
				r.With(only(rolesStaff...)).Delete("/{id}", s.DeleteFacility)
			})

			r.Route("/driver-locations", func(r chi.Router) {
				r.With(only(rolesLocationsRead...)).Get("/", s.ListLocations)
				r.With(only(rolesLocationsRead...)).Get("/{driverId}", s.GetLocation)
				r.With(only(rolesLocationsWrite...)).Post("/", s.ReportLocation)
			})
			r.Route("/ride-events", func(r chi.Router) {
				r.Use(only(rolesStaffAndDriver...))
				r.Get("/", s.RecentRideEvents)
				r.Get("/{rideId}", s.RideEventsForRide)
			})

			r.Route("/admin/system", func(r chi.Router) {
				r.Use(only(rolesAdmin...))
				r.Post("/reset-db", s.ResetDatabase)
				r.Post("/seed-users", s.SeedUsers)
				r.Get("/logs", s.SystemLogs)
				r.Get("/health", s.SystemHealth)
			})
			r.Route("/lockout", func(r chi.Router) {
				r.Use(only(rolesAdmin...))
				r.Get("/stats", s.LockoutStats)
				r.Get("/locked", s.LockedAccounts)
				r.Post("/unlock", s.UnlockAccount)
			})
			r.Route("/settings", func(r chi.Router) {
				r.Use(only(rolesAdmin...))
				r.Get("/", s.GetSettings)
				r.Put("/", s.PutSettings)
			})
		})
	})
	return r
}
