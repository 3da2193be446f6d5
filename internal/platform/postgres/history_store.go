package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/store"
)

// PostgresAttemptStore implements store.AttemptStore.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgreSQL implementation of the AttemptStore interface.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// WithTx implements store.AttemptStore.WithTx.
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return &PostgresAttemptStore{db: tx, logger: s.logger}
}

// Create implements store.AttemptStore.Create.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.QuizAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed during create",
			redact.Attr(err),
			slog.String("attempt_id", attempt.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	questionIDs, err := json.Marshal(nonNilIDs(attempt.QuestionIDs))
	if err != nil {
		return fmt.Errorf("failed to encode question ids: %w", err)
	}
	answers, err := json.Marshal(nonNilStrings(attempt.Answers))
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		attempt.ID,
		attempt.LearnerID,
		questionIDs,
		answers,
		attempt.Score,
		attempt.TimeSpentSeconds,
		string(attempt.DifficultyLevel),
		attempt.Subject,
		attempt.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("attempt references unknown learner",
				slog.String("attempt_id", attempt.ID.String()),
				slog.String("learner_id", attempt.LearnerID.String()))
			return MapError(err)
		}
		log.Error("failed to create attempt",
			redact.Attr(err),
			slog.String("attempt_id", attempt.ID.String()),
			slog.String("learner_id", attempt.LearnerID.String()))
		return MapError(err)
	}

	log.Debug("attempt created",
		slog.String("attempt_id", attempt.ID.String()),
		slog.Float64("score", attempt.Score))
	return nil
}

// PostgresInteractionStore implements store.InteractionStore.
type PostgresInteractionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInteractionStore creates a new PostgreSQL implementation of the InteractionStore interface.
func NewPostgresInteractionStore(db store.DBTX, logger *slog.Logger) *PostgresInteractionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInteractionStore{
		db:     db,
		logger: logger.With(slog.String("component", "interaction_store")),
	}
}

var _ store.InteractionStore = (*PostgresInteractionStore)(nil)

// WithTx implements store.InteractionStore.WithTx.
func (s *PostgresInteractionStore) WithTx(tx *sql.Tx) store.InteractionStore {
	return &PostgresInteractionStore{db: tx, logger: s.logger}
}

// Create implements store.InteractionStore.Create.
func (s *PostgresInteractionStore) Create(ctx context.Context, interaction *domain.Interaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := interaction.Validate(); err != nil {
		log.Warn("interaction validation failed during create",
			redact.Attr(err),
			slog.String("interaction_id", interaction.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var contentID uuid.NullUUID
	if interaction.ContentID != nil {
		contentID = uuid.NullUUID{UUID: *interaction.ContentID, Valid: true}
	}
	var metadata []byte
	if len(interaction.Metadata) > 0 {
		metadata = interaction.Metadata
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (`+interactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		interaction.ID,
		interaction.LearnerID,
		string(interaction.Type),
		contentID,
		interaction.DurationSeconds,
		metadata,
		interaction.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create interaction",
			redact.Attr(err),
			slog.String("interaction_id", interaction.ID.String()),
			slog.String("type", string(interaction.Type)))
		return MapError(err)
	}

	log.Debug("interaction created",
		slog.String("interaction_id", interaction.ID.String()),
		slog.String("type", string(interaction.Type)))
	return nil
}

// PostgresPredictionStore implements store.PredictionStore.
type PostgresPredictionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPredictionStore creates a new PostgreSQL implementation of the PredictionStore interface.
func NewPostgresPredictionStore(db store.DBTX, logger *slog.Logger) *PostgresPredictionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPredictionStore{
		db:     db,
		logger: logger.With(slog.String("component", "prediction_store")),
	}
}

var _ store.PredictionStore = (*PostgresPredictionStore)(nil)

// WithTx implements store.PredictionStore.WithTx.
func (s *PostgresPredictionStore) WithTx(tx *sql.Tx) store.PredictionStore {
	return &PostgresPredictionStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.PredictionStore.CreateMultiple.
// Callers wanting all-or-nothing semantics run it inside a transaction.
func (s *PostgresPredictionStore) CreateMultiple(ctx context.Context, predictions []*domain.Prediction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO predictions (id, learner_id, model_type, predicted_score, actual_score, accuracy, difficulty_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, p := range predictions {
		_, err := s.db.ExecContext(ctx, query,
			p.ID,
			p.LearnerID,
			string(p.ModelType),
			p.PredictedScore,
			nullFloat(p.ActualScore),
			nullFloat(p.Accuracy),
			string(p.DifficultyLevel),
			p.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create prediction",
				redact.Attr(err),
				slog.String("prediction_id", p.ID.String()),
				slog.String("model_type", string(p.ModelType)))
			return MapError(err)
		}
	}

	log.Debug("predictions created", slog.Int("count", len(predictions)))
	return nil
}

// ListUnresolved implements store.PredictionStore.ListUnresolved.
// The selected rows are locked until the surrounding transaction ends.
func (s *PostgresPredictionStore) ListUnresolved(
	ctx context.Context,
	learnerID uuid.UUID,
	limit int,
) ([]*domain.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, learner_id, model_type, predicted_score, difficulty_level, created_at
		FROM predictions
		WHERE learner_id = $1 AND actual_score IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
		FOR UPDATE
	`, learnerID, limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list unresolved predictions",
			redact.Attr(err),
			slog.String("learner_id", learnerID.String()))
		return nil, MapError(err)
	}
	defer rows.Close()

	var out []*domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		if err := rows.Scan(
			&p.ID,
			&p.LearnerID,
			&p.ModelType,
			&p.PredictedScore,
			&p.DifficultyLevel,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		out = append(out, &p)
	}
	return out, MapError(rows.Err())
}

// Resolve implements store.PredictionStore.Resolve.
func (s *PostgresPredictionStore) Resolve(ctx context.Context, p *domain.Prediction) error {
	if !p.Resolved() {
		return fmt.Errorf("%w: prediction %s has no actual score", store.ErrInvalidEntity, p.ID)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE predictions
		SET actual_score = $1, accuracy = $2
		WHERE id = $3 AND actual_score IS NULL
	`, *p.ActualScore, nullFloat(p.Accuracy), p.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to resolve prediction",
			redact.Attr(err),
			slog.String("prediction_id", p.ID.String()))
		return MapError(err)
	}
	return expectRows(result, store.ErrPredictionNotFound)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
