// Package main runs the adaptiq HTTP server: learner score prediction,
// adaptive quiz assembly and grading, and background model retraining.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/adaptiq/internal/config"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/platform/postgres"
	"github.com/phrazzld/adaptiq/internal/redact"
)

// options are the command-line flags.
type options struct {
	// migrate runs a migration command (up, down, status, version) and exits.
	migrate string
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("adaptiq-server", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.migrate, "migrate", "", "run a migration command (up|down|status|version) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	switch opts.migrate {
	case "", postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion:
		return opts, nil
	default:
		return options{}, fmt.Errorf("unknown migration command %q", opts.migrate)
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("Server exited with error", redact.Attr(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.Enabled),
		slog.Bool("retrain_on_grade", cfg.Model.RetrainOnGrade))

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, opts.migrate, l)
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
