package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation errors for QuizAttempt
var (
	ErrEmptyAttemptID        = errors.New("attempt ID cannot be empty")
	ErrEmptyAttemptLearnerID = errors.New("attempt learner ID cannot be empty")
	ErrNegativeTimeSpent     = errors.New("time spent cannot be negative")
)

// QuizAttempt is an immutable record of one graded quiz.
// Answers are aligned with QuestionIDs by index and may be shorter;
// a missing answer is an incorrect answer.
type QuizAttempt struct {
	ID               uuid.UUID       `json:"id"`
	LearnerID        uuid.UUID       `json:"learner_id"`
	QuestionIDs      []uuid.UUID     `json:"question_ids"`
	Answers          []string        `json:"answers"`
	Score            float64         `json:"score"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	DifficultyLevel  DifficultyLevel `json:"difficulty_level"`
	Subject          string          `json:"subject"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewQuizAttempt creates a validated attempt stamped with the current time.
func NewQuizAttempt(
	learnerID uuid.UUID,
	questionIDs []uuid.UUID,
	answers []string,
	score float64,
	timeSpentSeconds int,
	difficulty DifficultyLevel,
	subject string,
) (*QuizAttempt, error) {
	a := &QuizAttempt{
		ID:               uuid.New(),
		LearnerID:        learnerID,
		QuestionIDs:      append([]uuid.UUID(nil), questionIDs...),
		Answers:          append([]string(nil), answers...),
		Score:            score,
		TimeSpentSeconds: timeSpentSeconds,
		DifficultyLevel:  difficulty,
		Subject:          subject,
		CreatedAt:        time.Now().UTC(),
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks if the attempt has valid data.
func (a *QuizAttempt) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAttemptID
	}
	if a.LearnerID == uuid.Nil {
		return ErrEmptyAttemptLearnerID
	}
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidScore, a.Score)
	}
	if a.TimeSpentSeconds < 0 {
		return ErrNegativeTimeSpent
	}
	if !a.DifficultyLevel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, a.DifficultyLevel)
	}
	return nil
}

// AnswerAt returns the answer submitted for question i.
// The second result is false when no answer exists at that index.
func (a *QuizAttempt) AnswerAt(i int) (string, bool) {
	return AnswerAt(a.Answers, i)
}

// AnswerAt is the bounds-safe accessor shared by grading and recording.
func AnswerAt(answers []string, i int) (string, bool) {
	if i < 0 || i >= len(answers) {
		return "", false
	}
	return answers[i], true
}
