package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every store implementation. Implementations wrap
// them with %w so callers can classify failures with errors.Is.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate means a unique key already exists.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity means the row was rejected by validation or by a
	// schema constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrPersistence means the backend itself failed: lost connections,
	// timeouts, aborted statements. Grading and prediction treat it as
	// recoverable and keep their in-memory results.
	ErrPersistence = errors.New("persistence failure")

	// ErrTransactionFailed means a transaction could not begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrLearnerNotFound is returned by LearnerStore.GetProfile.
	ErrLearnerNotFound = fmt.Errorf("%w: learner", ErrNotFound)

	// ErrPredictionNotFound is returned by PredictionStore.Resolve when the
	// prediction is gone or already resolved.
	ErrPredictionNotFound = fmt.Errorf("%w: prediction", ErrNotFound)
)

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsPersistenceError reports whether err is a backend failure rather than a
// problem with the requested entity.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrTransactionFailed)
}

// StoreError records which entity and operation failed.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
