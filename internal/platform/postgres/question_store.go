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

const questionColumns = `id, content_id, text, options, correct_answer, difficulty_level, subject, created_at`

// PostgresQuestionStore implements store.QuestionStore.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx.
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{db: tx, logger: s.logger}
}

// ListBySubject implements store.QuestionStore.ListBySubject.
func (s *PostgresQuestionStore) ListBySubject(ctx context.Context, subject string) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE subject = $1 ORDER BY id`, subject)
	if err != nil {
		log.Error("failed to list questions",
			redact.Attr(err),
			slog.String("subject", subject))
		return nil, MapError(err)
	}
	defer rows.Close()

	questions := make([]*domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("questions listed", slog.String("subject", subject), slog.Int("count", len(questions)))
	return questions, nil
}

// GetByIDs implements store.QuestionStore.GetByIDs.
func (s *PostgresQuestionStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Question, error) {
	out := make(map[uuid.UUID]*domain.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1::uuid[])`, strIDs)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get questions by id",
			redact.Attr(err),
			slog.Int("requested", len(ids)))
		return nil, MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, MapError(rows.Err())
}

// ListSubjects implements store.QuestionStore.ListSubjects.
func (s *PostgresQuestionStore) ListSubjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT subject FROM questions ORDER BY subject`)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	subjects := make([]string, 0)
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, MapError(rows.Err())
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var contentID uuid.NullUUID
	var options []byte
	if err := row.Scan(
		&q.ID,
		&contentID,
		&q.Text,
		&options,
		&q.CorrectAnswer,
		&q.DifficultyLevel,
		&q.Subject,
		&q.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan question row: %w", err)
	}
	q.ContentID = contentID.UUID
	if err := json.Unmarshal(options, &q.Options); err != nil {
		q.Options = nil
	}
	return &q, nil
}

// PostgresContentStore implements store.ContentStore.
type PostgresContentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContentStore creates a new PostgreSQL implementation of the ContentStore interface.
func NewPostgresContentStore(db store.DBTX, logger *slog.Logger) *PostgresContentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContentStore{
		db:     db,
		logger: logger.With(slog.String("component", "content_store")),
	}
}

var _ store.ContentStore = (*PostgresContentStore)(nil)

// WithTx implements store.ContentStore.WithTx.
func (s *PostgresContentStore) WithTx(tx *sql.Tx) store.ContentStore {
	return &PostgresContentStore{db: tx, logger: s.logger}
}

// ListByDifficulty implements store.ContentStore.ListByDifficulty.
func (s *PostgresContentStore) ListByDifficulty(
	ctx context.Context,
	level domain.DifficultyLevel,
	limit int,
) ([]*domain.Content, error) {
	query := `
		SELECT id, title, description, content_type, difficulty_level, subject, tags, created_at
		FROM content
		WHERE difficulty_level = $1
		ORDER BY created_at DESC, id
	`
	args := []any{string(level)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list content",
			redact.Attr(err),
			slog.String("difficulty", string(level)))
		return nil, MapError(err)
	}
	defer rows.Close()

	items := make([]*domain.Content, 0)
	for rows.Next() {
		var c domain.Content
		var tags []byte
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.ContentType,
			&c.DifficultyLevel,
			&c.Subject,
			&tags,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			c.Tags = nil
		}
		items = append(items, &c)
	}
	return items, MapError(rows.Err())
}
