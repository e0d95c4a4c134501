package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/wecare-ems/wecare-api/internal/adapters/httpapi"
	"github.com/wecare-ems/wecare-api/internal/adapters/ws"
	"github.com/wecare-ems/wecare-api/internal/app/audit"
	"github.com/wecare-ems/wecare-api/internal/app/auth"
	"github.com/wecare-ems/wecare-api/internal/app/dashboard"
	"github.com/wecare-ems/wecare-api/internal/app/drivers"
	"github.com/wecare-ems/wecare-api/internal/app/facilities"
	"github.com/wecare-ems/wecare-api/internal/app/locations"
	"github.com/wecare-ems/wecare-api/internal/app/lockout"
	"github.com/wecare-ems/wecare-api/internal/app/mapdata"
	"github.com/wecare-ems/wecare-api/internal/app/news"
	"github.com/wecare-ems/wecare-api/internal/app/patients"
	"github.com/wecare-ems/wecare-api/internal/app/rideevents"
	"github.com/wecare-ems/wecare-api/internal/app/rides"
	"github.com/wecare-ems/wecare-api/internal/app/schedules"
	"github.com/wecare-ems/wecare-api/internal/app/settings"
	"github.com/wecare-ems/wecare-api/internal/app/system"
	"github.com/wecare-ems/wecare-api/internal/app/users"
	"github.com/wecare-ems/wecare-api/internal/app/vehicles"
	"github.com/wecare-ems/wecare-api/internal/platform/auth/token"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	"github.com/wecare-ems/wecare-api/internal/platform/seed"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
)

// App is a fully wired API instance.
type App struct {
	Config  config.Config
	Log     logger.Logger
	Backend *Backend

	Auth    *auth.Service
	Lockout *lockout.Tracker
	Seeder  *system.Seeder
	Hub     *ws.Hub
	Server  *httpapi.Server
	Handler http.Handler

	fixtures seed.Fixtures
}

// New wires every service over backend. The websocket hub doubles as the ride event publisher.
func New(cfg config.Config, backend *Backend, clk clockport.Clock, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	fixtures, err := seed.Load()
	if err != nil {
		return nil, fmt.Errorf("load seed fixtures: %w", err)
	}
	r := backend.Repos

	auditSvc := audit.NewService(r.Audit, clk, log)
	tracker := lockout.NewTracker(lockout.Config{
		MaxAttempts: cfg.LockoutMaxAttempts,
		Duration:    cfg.LockoutDuration,
		Window:      cfg.LockoutWindow,
	}, clk, log)
	jwtCfg := cfg.JWT()
	authSvc := auth.NewService(auth.Deps{
		Users:    r.Users,
		Drivers:  r.Drivers,
		Tokens:   r.Tokens,
		Seq:      r.Sequences,
		Issuer:   token.NewIssuer(jwtCfg, clk),
		Verifier: token.NewVerifier(jwtCfg, clk),
		Lockout:  tracker,
		Audit:    auditSvc,
		Clock:    clk,
		Log:      log,
	})
	hub := ws.NewHub(authSvc, cfg.AllowedOrigins, log)

	seeder := system.NewSeeder(system.SeedDeps{
		Users:    r.Users,
		Vehicles: r.Vehicles,
		Drivers:  r.Drivers,
		Settings: r.Settings,
		Seq:      r.Sequences,
		Clock:    clk,
		Logger:   log,
	})

	srv := &httpapi.Server{
		Auth:     authSvc,
		Users:    users.NewService(r.Users, r.Sequences, auditSvc, clk),
		Patients: patients.NewService(r.Patients, r.Sequences, auditSvc, clk, cfg.DuplicateWindow),
		Rides: rides.NewService(rides.Deps{
			Rides:           r.Rides,
			Patients:        r.Patients,
			Drivers:         r.Drivers,
			Events:          r.RideEvents,
			Seq:             r.Sequences,
			Audit:           auditSvc,
			Publisher:       hub,
			Clock:           clk,
			Log:             log,
			ConflictWindow:  cfg.RideConflictWindow,
			DuplicateWindow: cfg.DuplicateWindow,
		}),
		Drivers:  drivers.NewService(r.Drivers, r.Users, r.Rides, r.Sequences, clk),
		Vehicles: vehicles.NewService(r.Vehicles, r.Sequences, clk),
		Schedules: schedules.NewService(schedules.Deps{
			Teams:    r.Teams,
			Shifts:   r.Shifts,
			Drivers:  r.Drivers,
			Vehicles: r.Vehicles,
			Seq:      r.Sequences,
			Clock:    clk,
		}),
		News:       news.NewService(r.News, r.Sequences, clk),
		Locations:  locations.NewService(r.Locations, r.Drivers, clk),
		RideEvents: rideevents.NewService(r.RideEvents, r.Rides),
		Settings:   settings.NewService(r.Settings, auditSvc, clk),
		Facilities: facilities.NewService(r.Facilities, r.Sequences, auditSvc, clk),
		MapData:    mapdata.NewService(r.MapShapes, r.Sequences, auditSvc, clk),
		Dashboard: dashboard.NewService(dashboard.Deps{
			Rides:     r.Rides,
			Drivers:   r.Drivers,
			Patients:  r.Patients,
			Locations: r.Locations,
			Clock:     clk,
		}),
		Audit: auditSvc,
		System: system.NewService(system.Deps{
			Options: system.Options{
				Production:    cfg.IsProduction(),
				EnableReset:   cfg.EnableDevDBReset,
				EnableSeed:    cfg.EnableDevDBSeed,
				ConfirmPhrase: cfg.ResetDBConfirmPhrase,
			},
			Resetter: r.Resetter,
			Pinger:   r.Pinger,
			Seeder:   seeder,
			Fixtures: fixtures,
			Audit:    auditSvc,
			Lockout:  tracker,
			Clock:    clk,
			Logger:   log,
		}),
		Log: log,
	}

	handler := httpapi.NewRouter(srv, httpapi.RouterConfig{
		AuthMode:       cfg.AuthMode,
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Idempotency:    r.Idempotency,
		Clock:          clk,
		WebSocket:      hub,
	})

	return &App{
		Config:   cfg,
		Log:      log,
		Backend:  backend,
		Auth:     authSvc,
		Lockout:  tracker,
		Seeder:   seeder,
		Hub:      hub,
		Server:   srv,
		Handler:  handler,
		fixtures: fixtures,
	}, nil
}

// Seed applies the embedded fixtures. Existing rows are skipped.
func (a *App) Seed(ctx context.Context) (system.ApplyResult, error) {
	res, err := a.Seeder.Apply(ctx, a.fixtures)
	if err != nil {
		return system.ApplyResult{}, err
	}
	a.Log.Info("seed fixtures applied",
		logger.Int("usersCreated", res.Users.Created),
		logger.Int("driversCreated", res.Drivers.Created),
		logger.Int("vehiclesCreated", res.Vehicles.Created),
	)
	return res, nil
}

// RunBackground runs the hub and the periodic sweepers until ctx is done.
func (a *App) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Hub.Run(ctx) })
	g.Go(func() error { return a.Lockout.Run(ctx) })
	g.Go(func() error { return a.Auth.Run(ctx) })
	return g.Wait()
}
