package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnerProfileAverageAndLatest(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	p := &LearnerProfile{
		ID: uuid.New(),
		Attempts: []QuizAttempt{
			{Score: 60, CreatedAt: base.Add(48 * time.Hour)},
			{Score: 90, CreatedAt: base},
			{Score: 75, CreatedAt: base.Add(24 * time.Hour)},
		},
	}

	assert.True(t, p.HasHistory())
	assert.Equal(t, 75.0, p.AverageScore())

	latest := p.LatestAttempt()
	require.NotNil(t, latest)
	assert.Equal(t, 60.0, latest.Score)

	ordered := p.ChronologicalAttempts()
	assert.Equal(t, []float64{90, 75, 60}, []float64{ordered[0].Score, ordered[1].Score, ordered[2].Score})
	assert.Equal(t, 60.0, p.Attempts[0].Score, "stored order must not change")
}

func TestLearnerProfileEmpty(t *testing.T) {
	t.Parallel()

	p := &LearnerProfile{}
	assert.False(t, p.HasHistory())
	assert.Zero(t, p.AverageScore())
	assert.Nil(t, p.LatestAttempt())
	assert.Empty(t, p.ChronologicalAttempts())
}

func TestEncodings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, DifficultyBeginner.Rank())
	assert.Equal(t, 2.0, DifficultyIntermediate.Rank())
	assert.Equal(t, 3.0, DifficultyAdvanced.Rank())
	assert.Equal(t, 1.0, DifficultyLevel("expert").Rank())

	assert.Equal(t, 1.0, LearningStyleVisual.Code())
	assert.Equal(t, 2.0, LearningStyleAuditory.Code())
	assert.Equal(t, 3.0, LearningStyleKinesthetic.Code())
	assert.Equal(t, 4.0, LearningStyleReading.Code())
	assert.Equal(t, 1.0, LearningStyle("").Code())

	assert.Equal(t, 45.0, SkillBeginner.DefaultScore())
	assert.Equal(t, 60.0, SkillIntermediate.DefaultScore())
	assert.Equal(t, 75.0, SkillAdvanced.DefaultScore())
	assert.Equal(t, 50.0, SkillLevel("guru").DefaultScore())
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	d, err := ParseDifficulty("advanced")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAdvanced, d)

	_, err = ParseDifficulty("Advanced")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestNewQuizAttemptValidation(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	qids := []uuid.UUID{uuid.New(), uuid.New()}

	a, err := NewQuizAttempt(learnerID, qids, []string{"a"}, 50, 120, DifficultyBeginner, "Python")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	ans, ok := a.AnswerAt(0)
	assert.True(t, ok)
	assert.Equal(t, "a", ans)
	_, ok = a.AnswerAt(1)
	assert.False(t, ok, "short answer list is legal")

	_, err = NewQuizAttempt(uuid.Nil, qids, nil, 50, 0, DifficultyBeginner, "")
	assert.ErrorIs(t, err, ErrEmptyAttemptLearnerID)

	_, err = NewQuizAttempt(learnerID, qids, nil, 101, 0, DifficultyBeginner, "")
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = NewQuizAttempt(learnerID, qids, nil, 50, -1, DifficultyBeginner, "")
	assert.ErrorIs(t, err, ErrNegativeTimeSpent)

	_, err = NewQuizAttempt(learnerID, qids, nil, 50, 1, "hard", "")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}
