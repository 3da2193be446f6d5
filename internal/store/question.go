package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
)

// QuestionStore is the read-only question bank.
type QuestionStore interface {
	// ListBySubject returns every question with the given subject, in no
	// particular order. An unknown subject yields an empty slice.
	ListBySubject(ctx context.Context, subject string) ([]*domain.Question, error)

	// GetByIDs returns the questions whose IDs are in ids, keyed by ID.
	// Unknown IDs are absent from the map rather than reported as errors.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Question, error)

	// ListSubjects returns the distinct subjects, sorted.
	ListSubjects(ctx context.Context) ([]string, error)

	// WithTx returns a QuestionStore bound to tx.
	WithTx(tx *sql.Tx) QuestionStore
}

// ContentStore is the read-only catalogue of learning resources.
type ContentStore interface {
	// ListByDifficulty returns up to limit content items of the given tier,
	// newest first. limit <= 0 means no limit.
	ListByDifficulty(ctx context.Context, level domain.DifficultyLevel, limit int) ([]*domain.Content, error)

	// WithTx returns a ContentStore bound to tx.
	WithTx(tx *sql.Tx) ContentStore
}
