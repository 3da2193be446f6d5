// Package testdb opens a migrated PostgreSQL database for integration tests
// and isolates each test in a rolled-back transaction.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/adaptiq/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Timeout bounds connection and migration work during setup.
const Timeout = 30 * time.Second

// DatabaseURL returns the test database URL from DATABASE_URL, falling back
// to ADAPTIQ_TEST_DB_URL. It is empty when neither is set.
func DatabaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return os.Getenv("ADAPTIQ_TEST_DB_URL")
}

// Open connects to the test database and applies every migration. The test
// is skipped when no database URL is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx), "ping test database")
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, nil), "migrate test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("rollback test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
