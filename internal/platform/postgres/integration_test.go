//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/platform/postgres"
	"github.com/phrazzld/adaptiq/internal/store"
	"github.com/phrazzld/adaptiq/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationAssessmentCycle(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	learnerID := uuid.New()
	_, err := db.ExecContext(ctx,
		`INSERT INTO learners (id, username, learning_style, skill_level) VALUES ($1, $2, 'visual', 'beginner')`,
		learnerID, "it-"+learnerID.String())
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM learners WHERE id = $1`, learnerID) })

	questionID := uuid.New()
	_, err = db.ExecContext(ctx,
		`INSERT INTO questions (id, text, options, correct_answer, difficulty_level, subject)
		 VALUES ($1, 'q', '["a","b"]', 'a', 'beginner', $2)`,
		questionID, "it-subject-"+learnerID.String())
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(`DELETE FROM questions WHERE id = $1`, questionID) })

	attempts := postgres.NewPostgresAttemptStore(db, nil)
	predictions := postgres.NewPostgresPredictionStore(db, nil)
	learners := postgres.NewPostgresLearnerStore(db, nil)
	questions := postgres.NewPostgresQuestionStore(db, nil)

	attempt, err := domain.NewQuizAttempt(learnerID, []uuid.UUID{questionID}, []string{"a"}, 100, 42, domain.DifficultyBeginner, "x")
	require.NoError(t, err)
	require.NoError(t, attempts.Create(ctx, attempt))

	var preds []*domain.Prediction
	for i := 0; i < 4; i++ {
		p, err := domain.NewPrediction(learnerID, domain.ModelRidge, float64(50+i), domain.DifficultyBeginner)
		require.NoError(t, err)
		p.CreatedAt = p.CreatedAt.Add(time.Duration(i) * time.Second)
		preds = append(preds, p)
	}
	require.NoError(t, predictions.CreateMultiple(ctx, preds))

	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		ps := predictions.WithTx(tx)
		pending, err := ps.ListUnresolved(ctx, learnerID, 3)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if err := p.Resolve(100); err != nil {
				return err
			}
			if err := ps.Resolve(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	left, err := predictions.ListUnresolved(ctx, learnerID, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, preds[0].ID, left[0].ID, "the oldest prediction stays unresolved")

	profile, err := learners.GetProfile(ctx, learnerID)
	require.NoError(t, err)
	require.Len(t, profile.Attempts, 1)
	assert.Equal(t, []uuid.UUID{questionID}, profile.Attempts[0].QuestionIDs)

	byID, err := questions.GetByIDs(ctx, []uuid.UUID{questionID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
}

func TestIntegrationSubjectsInTransaction(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		subject := "tx-subject-" + uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, text, options, correct_answer, difficulty_level, subject)
			 VALUES ($1, 'q', '["a","b"]', 'b', 'advanced', $2)`,
			uuid.New(), subject)
		require.NoError(t, err)

		questions := postgres.NewPostgresQuestionStore(db, nil).WithTx(tx)

		subjects, err := questions.ListSubjects(ctx)
		require.NoError(t, err)
		assert.Contains(t, subjects, subject)

		list, err := questions.ListBySubject(ctx, subject)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "b", list[0].CorrectAnswer)
	})
}
