package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. It does not exit; the error is returned
// to the caller by Migrate.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs the embedded goose migrations against db.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "migrations"), slog.String("command", command))

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(&slogGooseLogger{logger: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, db, migrationDir)
	case MigrateDown:
		err = goose.DownContext(ctx, db, migrationDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, migrationDir)
	case MigrateVersion:
		err = goose.VersionContext(ctx, db, migrationDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		log.Error("migration failed", redact.Attr(err))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration completed")
	return nil
}
