package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
)

// PredictionsResponse is a learner's per-model predictions for one tier.
type PredictionsResponse struct {
	LearnerID   uuid.UUID          `json:"learner_id"`
	Predictions domain.ModelScores `json:"predictions"`
	Ensemble    float64            `json:"ensemble"`
}

// TrainDatasetRequest names the dataset file to fit, relative to the
// configured dataset's directory. An empty path uses the configured dataset.
type TrainDatasetRequest struct {
	Path string `json:"path"`
}

// TrainResponse reports a training run and the resulting model status.
type TrainResponse struct {
	Trained bool              `json:"trained"`
	Status  prediction.Status `json:"status"`
}

// DatasetPredictionResponse is the dataset model's output for one row.
type DatasetPredictionResponse struct {
	Predictions domain.ModelScores `json:"predictions"`
	Ensemble    float64            `json:"ensemble"`
}

// StartQuizRequest asks for a new quiz. Count 0 uses the default size.
type StartQuizRequest struct {
	Subject    string `json:"subject"    validate:"required,max=100"`
	Count      int    `json:"count"      validate:"gte=0,lte=100"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// QuestionResponse is a question as shown to the learner, without its answer.
type QuestionResponse struct {
	ID              uuid.UUID              `json:"id"`
	Text            string                 `json:"text"`
	Options         []string               `json:"options"`
	Subject         string                 `json:"subject"`
	DifficultyLevel domain.DifficultyLevel `json:"difficulty_level"`
}

// QuizSessionResponse is an assembled quiz.
type QuizSessionResponse struct {
	SessionID       uuid.UUID              `json:"session_id"`
	Subject         string                 `json:"subject"`
	DifficultyLevel domain.DifficultyLevel `json:"difficulty_level"`
	Questions       []QuestionResponse     `json:"questions"`
	Predictions     domain.ModelScores     `json:"predictions"`
	StartedAt       time.Time              `json:"started_at"`
}

// SubmitQuizRequest carries the learner's answers by question position.
type SubmitQuizRequest struct {
	Answers   []string `json:"answers"`
	TimeSpent int      `json:"time_spent" validate:"gte=0"`
}

// SubmitQuizResponse is the graded quiz plus predictions for the next one.
type SubmitQuizResponse struct {
	Result          *quiz.GradedResult `json:"result"`
	NextPredictions domain.ModelScores `json:"next_predictions"`
}

// RecommendationResponse is the advised next difficulty.
type RecommendationResponse struct {
	LearnerID      uuid.UUID              `json:"learner_id"`
	CurrentScore   float64                `json:"current_score"`
	AverageScore   float64                `json:"average_score"`
	Recommendation domain.DifficultyLevel `json:"recommended_difficulty"`
}

// SubjectsResponse lists the subjects with questions.
type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
}

// HealthResponse reports liveness and which model sets are published.
type HealthResponse struct {
	Status string            `json:"status"`
	Models prediction.Status `json:"models"`
}

func sessionToResponse(s *domain.QuizSession) QuizSessionResponse {
	questions := make([]QuestionResponse, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = QuestionResponse{
			ID:              q.ID,
			Text:            q.Text,
			Options:         q.Options,
			Subject:         q.Subject,
			DifficultyLevel: q.DifficultyLevel,
		}
	}
	return QuizSessionResponse{
		SessionID:       s.ID,
		Subject:         s.Subject,
		DifficultyLevel: s.DifficultyLevel,
		Questions:       questions,
		Predictions:     s.Predictions,
		StartedAt:       s.StartedAt,
	}
}
