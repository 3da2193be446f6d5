package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		notFound    bool
		duplicate   bool
		persistence bool
	}{
		{name: "nil error"},
		{name: "generic error", err: errors.New("some error")},
		{name: "ErrNotFound", err: ErrNotFound, notFound: true},
		{name: "ErrLearnerNotFound", err: ErrLearnerNotFound, notFound: true},
		{
			name:     "wrapped ErrPredictionNotFound",
			err:      fmt.Errorf("resolve: %w", ErrPredictionNotFound),
			notFound: true,
		},
		{name: "ErrDuplicate", err: fmt.Errorf("create: %w", ErrDuplicate), duplicate: true},
		{name: "ErrPersistence", err: fmt.Errorf("%w: %w", ErrPersistence, context.DeadlineExceeded), persistence: true},
		{name: "ErrTransactionFailed", err: ErrTransactionFailed, persistence: true},
		{
			name:        "StoreError wrapping ErrPersistence",
			err:         NewStoreError("attempt", "create", "insert failed", ErrPersistence),
			persistence: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, IsDuplicateError(tt.err))
			assert.Equal(t, tt.persistence, IsPersistenceError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("prediction", "resolve", "database error", originalErr)

	assert.Equal(t,
		"resolve operation on prediction failed: database error: database connection failed",
		storeErr.Error())
	assert.ErrorIs(t, storeErr, originalErr)

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", storeErr), &target))
	assert.Equal(t, "prediction", target.Entity)

	bare := &StoreError{Entity: "learner", Operation: "get", Message: "validation failed"}
	assert.Equal(t, "get operation on learner failed: validation failed", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
