package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
)

// TxFn is the unit of work run by RunInTransaction. Returning nil commits.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// Transactor runs a TxFn inside a transaction. Services depend on it rather
// than on *sql.DB so they can be exercised with in-memory stores, where the
// transaction handed to fn is nil and WithTx(nil) returns the store itself.
type Transactor interface {
	RunInTx(ctx context.Context, fn TxFn) error
}

// DBTransactor is the Transactor backed by a *sql.DB.
type DBTransactor struct {
	db *sql.DB
}

// NewTransactor returns a Transactor that opens transactions on db.
func NewTransactor(db *sql.DB) *DBTransactor {
	return &DBTransactor{db: db}
}

// RunInTx implements Transactor.
func (t *DBTransactor) RunInTx(ctx context.Context, fn TxFn) error {
	return RunInTransaction(ctx, t.db, fn)
}

// RunInTransaction runs fn in a transaction on db. An error from fn rolls the
// transaction back and is returned unchanged unless the rollback also fails.
// A panic in fn rolls back and re-panics.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", redact.Attr(err))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback after panic failed", redact.Attr(rbErr), slog.Any("panic", p))
		} else {
			log.Error("rolled back transaction after panic", slog.Any("panic", p))
		}
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("rollback failed",
				slog.String("rollback_error", redact.Error(rbErr)),
				slog.String("original_error", redact.Error(err)))
			return fmt.Errorf("%w: rollback: %v (after: %w)", ErrTransactionFailed, rbErr, err)
		}
		log.Debug("transaction rolled back", redact.Attr(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", redact.Attr(err))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	return nil
}
