package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wecare-ems/wecare-api/internal/adapters/migrations"
	"github.com/wecare-ems/wecare-api/internal/bootstrap"
	platformclock "github.com/wecare-ems/wecare-api/internal/platform/clock"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

var (
	storageBackend string
	timeout        time.Duration
	tokenEmail     string
)

var rootCmd = &cobra.Command{
	Use:           "wecarectl",
	Short:         "Operator tooling for the WeCare API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Open the configured SQL backend and migrate it to the latest schema.

The memory backend has no schema; the command is a no-op there.`,
	RunE: runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the development fixtures",
	RunE:  runSeed,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for an existing user",
	RunE:  runToken,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "Storage backend (overrides STORAGE_BACKEND)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email of the user to mint a token for")
	_ = tokenCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openApp loads config, applies flag overrides and wires an App over the configured backend.
func openApp(ctx context.Context) (*bootstrap.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if storageBackend != "" {
		cfg.StorageBackend = storageBackend
	}
	lg := logger.New(cfg.ServiceName+"-ctl", cfg.LoggerLevel)
	backend, err := bootstrap.OpenBackend(ctx, cfg, lg)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(cfg, backend, platformclock.NewSystemClock(), lg)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return app, backend.Close, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	app, closeFn, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sqlDB := app.Backend.SQL
	if sqlDB == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s backend has no schema to migrate\n", app.Backend.Name)
		return nil
	}
	version, dirty, err := migrations.Version(sqlDB.DB, sqlDB.Dialect())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (dirty=%t)\n", app.Backend.Name, version, dirty)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	app, closeFn, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := app.Seed(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "users:         %d created, %d skipped\n", res.Users.Created, res.Users.Skipped)
	fmt.Fprintf(out, "vehicle types: %d created, %d skipped\n", res.VehicleTypes.Created, res.VehicleTypes.Skipped)
	fmt.Fprintf(out, "vehicles:      %d created, %d skipped\n", res.Vehicles.Created, res.Vehicles.Skipped)
	fmt.Fprintf(out, "drivers:       %d created, %d skipped\n", res.Drivers.Created, res.Drivers.Skipped)
	fmt.Fprintf(out, "settings:      %t\n", res.Settings)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	app, closeFn, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sess, err := app.Auth.IssueToken(ctx, tokenEmail)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sess.Token)
	return nil
}
