package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
)

// AttemptStore appends graded quiz attempts.
type AttemptStore interface {
	// Create saves a new attempt after validating it.
	// Returns ErrInvalidEntity if the learner does not exist.
	Create(ctx context.Context, attempt *domain.QuizAttempt) error

	// WithTx returns an AttemptStore bound to tx.
	WithTx(tx *sql.Tx) AttemptStore
}

// InteractionStore appends interaction log records.
type InteractionStore interface {
	// Create saves a new interaction after validating it.
	// Returns ErrInvalidEntity if the learner does not exist.
	Create(ctx context.Context, interaction *domain.Interaction) error

	// WithTx returns an InteractionStore bound to tx.
	WithTx(tx *sql.Tx) InteractionStore
}

// PredictionStore persists per-model predictions and their resolution.
//
// Resolution must happen inside a transaction: ListUnresolved locks the rows
// it returns so concurrent graders cannot resolve the same prediction twice.
//
//	err := transactor.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
//	    ps := predictionStore.WithTx(tx)
//	    pending, err := ps.ListUnresolved(ctx, learnerID, 3)
//	    ...
//	})
type PredictionStore interface {
	// CreateMultiple saves predictions in one statement batch.
	CreateMultiple(ctx context.Context, predictions []*domain.Prediction) error

	// ListUnresolved returns up to limit unresolved predictions for the
	// learner, most recently created first.
	ListUnresolved(ctx context.Context, learnerID uuid.UUID, limit int) ([]*domain.Prediction, error)

	// Resolve stores the actual score and accuracy of an already resolved
	// domain prediction. Returns ErrPredictionNotFound if the row is missing
	// or was resolved concurrently.
	Resolve(ctx context.Context, prediction *domain.Prediction) error

	// WithTx returns a PredictionStore bound to tx.
	WithTx(tx *sql.Tx) PredictionStore
}
