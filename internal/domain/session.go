package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuizSession is an assembled quiz waiting for the learner's answers.
// It lives only in the session cache and is discarded once graded.
type QuizSession struct {
	ID              uuid.UUID       `json:"id"`
	LearnerID       uuid.UUID       `json:"learner_id"`
	Subject         string          `json:"subject"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	Questions       []*Question     `json:"questions"`
	Predictions     ModelScores     `json:"predictions"`
	StartedAt       time.Time       `json:"started_at"`
}

// QuestionIDs returns the IDs of the session's questions in order.
func (s *QuizSession) QuestionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}
