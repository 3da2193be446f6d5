package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
)

// LearnerStore reads learner profiles together with their history.
// The engine never writes profiles; attempts and interactions are appended
// through their own stores.
type LearnerStore interface {
	// GetProfile loads the learner with every attempt and interaction,
	// each ordered by creation time.
	// Returns ErrLearnerNotFound if the learner does not exist.
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error)

	// ListProfiles loads every learner with history, for training.
	ListProfiles(ctx context.Context) ([]*domain.LearnerProfile, error)

	// WithTx returns a LearnerStore bound to tx.
	WithTx(tx *sql.Tx) LearnerStore
}
