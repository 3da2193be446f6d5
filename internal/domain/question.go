package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question is an immutable multiple-choice item belonging to one subject.
type Question struct {
	ID              uuid.UUID       `json:"id"`
	ContentID       uuid.UUID       `json:"content_id"`
	Text            string          `json:"text"`
	Options         []string        `json:"options"`
	CorrectAnswer   string          `json:"correct_answer"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	Subject         string          `json:"subject"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsCorrect compares answer against the canonical answer by exact string equality.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

// Content is a learning resource that groups questions by subject and tier.
type Content struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ContentType     string          `json:"content_type"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	Subject         string          `json:"subject"`
	Tags            []string        `json:"tags"`
	CreatedAt       time.Time       `json:"created_at"`
}
