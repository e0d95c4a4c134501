package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wecare-ems/wecare-api/internal/bootstrap"
	platformclock "github.com/wecare-ems/wecare-api/internal/platform/clock"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	lg := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("api stopped", logger.Error(err))
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, lg logger.Logger) error {
	backend, err := bootstrap.OpenBackend(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	app, err := bootstrap.New(cfg, backend, platformclock.NewSystemClock(), lg)
	if err != nil {
		return err
	}
	if cfg.SeedOnStart {
		if _, err := app.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.RunBackground(gctx) })
	g.Go(func() error {
		lg.Info("api listening",
			logger.Int("port", cfg.Port),
			logger.String("env", cfg.AppEnv),
			logger.String("storage", backend.Name),
			logger.String("authMode", cfg.AuthMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
