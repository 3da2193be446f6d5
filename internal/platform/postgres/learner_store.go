package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/store"
)

const (
	attemptColumns     = `id, learner_id, question_ids, answers, score, time_spent_seconds, difficulty_level, subject, created_at`
	interactionColumns = `id, learner_id, interaction_type, content_id, duration_seconds, metadata, created_at`
)

// PostgresLearnerStore implements the store.LearnerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLearnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearnerStore creates a new PostgreSQL implementation of the LearnerStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLearnerStore(db store.DBTX, logger *slog.Logger) *PostgresLearnerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLearnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "learner_store")),
	}
}

var _ store.LearnerStore = (*PostgresLearnerStore)(nil)

// WithTx implements store.LearnerStore.WithTx.
func (s *PostgresLearnerStore) WithTx(tx *sql.Tx) store.LearnerStore {
	return &PostgresLearnerStore{db: tx, logger: s.logger}
}

// GetProfile implements store.LearnerStore.GetProfile.
func (s *PostgresLearnerStore) GetProfile(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, username, learning_style, skill_level, created_at
		FROM learners
		WHERE id = $1
	`
	var p domain.LearnerProfile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Username,
		&p.LearningStyle,
		&p.SkillLevel,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learner not found", slog.String("learner_id", id.String()))
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to get learner",
			redact.Attr(err),
			slog.String("learner_id", id.String()))
		return nil, MapError(err)
	}

	attempts, err := s.attempts(ctx, `WHERE learner_id = $1`, id)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions(ctx, `WHERE learner_id = $1`, id)
	if err != nil {
		return nil, err
	}
	p.Attempts = attempts[id]
	p.Interactions = interactions[id]

	log.Debug("learner profile loaded",
		slog.String("learner_id", id.String()),
		slog.Int("attempts", len(p.Attempts)),
		slog.Int("interactions", len(p.Interactions)))
	return &p, nil
}

// ListProfiles implements store.LearnerStore.ListProfiles.
// History is fetched with one query per table and grouped in memory.
func (s *PostgresLearnerStore) ListProfiles(ctx context.Context) ([]*domain.LearnerProfile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, learning_style, skill_level, created_at
		FROM learners
		ORDER BY created_at, id
	`)
	if err != nil {
		log.Error("failed to list learners", redact.Attr(err))
		return nil, MapError(err)
	}
	defer rows.Close()

	var profiles []*domain.LearnerProfile
	for rows.Next() {
		var p domain.LearnerProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.LearningStyle, &p.SkillLevel, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learner row: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	attempts, err := s.attempts(ctx, "")
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.Attempts = attempts[p.ID]
		p.Interactions = interactions[p.ID]
	}

	log.Debug("learner profiles loaded", slog.Int("count", len(profiles)))
	return profiles, nil
}

func (s *PostgresLearnerStore) attempts(ctx context.Context, where string, args ...any) (map[uuid.UUID][]domain.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts ` + where + ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.QuizAttempt)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out[a.LearnerID] = append(out[a.LearnerID], *a)
	}
	return out, MapError(rows.Err())
}

func (s *PostgresLearnerStore) interactions(ctx context.Context, where string, args ...any) (map[uuid.UUID][]domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions ` + where + ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Interaction)
	for rows.Next() {
		var i domain.Interaction
		var contentID uuid.NullUUID
		var metadata []byte
		if err := rows.Scan(
			&i.ID,
			&i.LearnerID,
			&i.Type,
			&contentID,
			&i.DurationSeconds,
			&metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		if contentID.Valid {
			id := contentID.UUID
			i.ContentID = &id
		}
		if metadata != nil {
			i.Metadata = json.RawMessage(metadata)
		}
		out[i.LearnerID] = append(out[i.LearnerID], i)
	}
	return out, MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAttempt decodes a row selected with attemptColumns. Malformed JSON
// arrays decode as empty so one bad row cannot hide a learner's history.
func scanAttempt(row rowScanner) (*domain.QuizAttempt, error) {
	var a domain.QuizAttempt
	var questionIDs, answers []byte
	if err := row.Scan(
		&a.ID,
		&a.LearnerID,
		&questionIDs,
		&answers,
		&a.Score,
		&a.TimeSpentSeconds,
		&a.DifficultyLevel,
		&a.Subject,
		&a.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan attempt row: %w", err)
	}
	if err := json.Unmarshal(questionIDs, &a.QuestionIDs); err != nil {
		a.QuestionIDs = nil
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		a.Answers = nil
	}
	return &a, nil
}
