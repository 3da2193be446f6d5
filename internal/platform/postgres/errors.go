package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/adaptiq/internal/store"
)

// SQLSTATE codes of the integrity violations the schema can raise.
const (
	codeNotNull    = "23502"
	codeForeignKey = "23503"
	codeUnique     = "23505"
	codeCheck      = "23514"
)

// violationKinds names each integrity violation for error messages.
var violationKinds = map[string]string{
	codeNotNull:    "not null",
	codeForeignKey: "foreign key",
	codeCheck:      "check constraint",
}

// MapError translates a database error into the store's sentinel errors,
// keeping the original error in the chain:
//
//	sql.ErrNoRows            -> store.ErrNotFound
//	unique violation         -> store.ErrDuplicate
//	fk/check/not-null        -> store.ErrInvalidEntity
//	anything else            -> store.ErrPersistence
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	pgErr, ok := pgError(err)
	if !ok {
		return fmt.Errorf("%w: %w", store.ErrPersistence, err)
	}
	if pgErr.Code == codeUnique {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	kind, ok := violationKinds[pgErr.Code]
	if !ok {
		return fmt.Errorf("%w: %w", store.ErrPersistence, err)
	}

	// Not-null violations name a column rather than a constraint.
	target := pgErr.ConstraintName
	if pgErr.Code == codeNotNull {
		target = pgErr.ColumnName
	}
	return fmt.Errorf("%w: %s violation (%s): %w", store.ErrInvalidEntity, kind, target, err)
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsForeignKeyViolation reports whether err is a foreign key violation, which
// in this schema means the referenced learner does not exist.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeForeignKey
}

// expectRows checks that an UPDATE touched at least one row and returns
// notFound otherwise.
func expectRows(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("%w: no result from driver", store.ErrPersistence)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", store.ErrPersistence, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
