package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
)

// MockPredictionService implements prediction.Service for testing.
// Unset function fields fall back to the default prediction, untrained
// results and no-ops.
type MockPredictionService struct {
	PredictFn          func(ctx context.Context, learner *domain.LearnerProfile, difficulty domain.DifficultyLevel) domain.ModelScores
	TrainAllFn         func(ctx context.Context) (bool, error)
	TrainFromDatasetFn func(ctx context.Context, path string) (bool, error)
	PredictRowFn       func(row dataset.Row) (domain.ModelScores, bool)
	ResolveAccuracyFn  func(ctx context.Context, learnerID uuid.UUID, actual float64) (int, error)
	RecordEnhancedFn   func(ctx context.Context, learner *domain.LearnerProfile, outcome prediction.QuizOutcome)
	StatusFn           func() prediction.Status

	// Recorded calls
	ResolvedScores []float64
	Recorded       []prediction.QuizOutcome
}

var (
	_ prediction.Service = (*MockPredictionService)(nil)
	_ quiz.Feedback      = (*MockPredictionService)(nil)
)

// Predict implements the prediction.Service interface
func (m *MockPredictionService) Predict(
	ctx context.Context,
	learner *domain.LearnerProfile,
	difficulty domain.DifficultyLevel,
) domain.ModelScores {
	if m.PredictFn != nil {
		return m.PredictFn(ctx, learner, difficulty)
	}
	if !difficulty.Valid() {
		difficulty = domain.DifficultyIntermediate
	}
	return prediction.DefaultPrediction(learner, difficulty)
}

// TrainAll implements the prediction.Service interface
func (m *MockPredictionService) TrainAll(ctx context.Context) (bool, error) {
	if m.TrainAllFn != nil {
		return m.TrainAllFn(ctx)
	}
	return false, nil
}

// TrainFromDataset implements the prediction.Service interface
func (m *MockPredictionService) TrainFromDataset(ctx context.Context, path string) (bool, error) {
	if m.TrainFromDatasetFn != nil {
		return m.TrainFromDatasetFn(ctx, path)
	}
	return false, nil
}

// PredictRow implements the prediction.Service interface
func (m *MockPredictionService) PredictRow(row dataset.Row) (domain.ModelScores, bool) {
	if m.PredictRowFn != nil {
		return m.PredictRowFn(row)
	}
	return domain.ModelScores{}, false
}

// ResolveAccuracy implements the prediction.Service interface
func (m *MockPredictionService) ResolveAccuracy(ctx context.Context, learnerID uuid.UUID, actual float64) (int, error) {
	m.ResolvedScores = append(m.ResolvedScores, actual)
	if m.ResolveAccuracyFn != nil {
		return m.ResolveAccuracyFn(ctx, learnerID, actual)
	}
	return 0, nil
}

// RecordEnhanced implements the prediction.Service interface
func (m *MockPredictionService) RecordEnhanced(
	ctx context.Context,
	learner *domain.LearnerProfile,
	outcome prediction.QuizOutcome,
) {
	m.Recorded = append(m.Recorded, outcome)
	if m.RecordEnhancedFn != nil {
		m.RecordEnhancedFn(ctx, learner, outcome)
	}
}

// Status implements the prediction.Service interface
func (m *MockPredictionService) Status() prediction.Status {
	if m.StatusFn != nil {
		return m.StatusFn()
	}
	return prediction.Status{}
}

// MockQuizService implements quiz.Service for testing
type MockQuizService struct {
	AssembleFn func(
		ctx context.Context,
		learner *domain.LearnerProfile,
		predictions domain.ModelScores,
		subject string,
		count int,
	) (*domain.QuizSession, error)
	SessionFn func(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error)
	ClaimFn   func(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error)
	GradeFn   func(
		ctx context.Context,
		learner *domain.LearnerProfile,
		session *domain.QuizSession,
		answers []string,
		timeSpentSeconds int,
	) (*quiz.GradedResult, error)
	StatisticsFn       func(ctx context.Context, learner *domain.LearnerProfile) (*quiz.StatsSummary, error)
	RecommendContentFn func(ctx context.Context, scores domain.ModelScores, limit int) (*quiz.ContentRecommendation, error)
	SubjectsFn         func(ctx context.Context) ([]string, error)

	// Default return values
	DefaultError error
}

var _ quiz.Service = (*MockQuizService)(nil)

// Assemble implements the quiz.Service interface
func (m *MockQuizService) Assemble(
	ctx context.Context,
	learner *domain.LearnerProfile,
	predictions domain.ModelScores,
	subject string,
	count int,
) (*domain.QuizSession, error) {
	if m.AssembleFn != nil {
		return m.AssembleFn(ctx, learner, predictions, subject, count)
	}
	return nil, m.DefaultError
}

// Session implements the quiz.Service interface
func (m *MockQuizService) Session(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error) {
	if m.SessionFn != nil {
		return m.SessionFn(ctx, learnerID, sessionID)
	}
	return nil, m.DefaultError
}

// Claim implements the quiz.Service interface
func (m *MockQuizService) Claim(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, learnerID, sessionID)
	}
	return nil, m.DefaultError
}

// Grade implements the quiz.Service interface
func (m *MockQuizService) Grade(
	ctx context.Context,
	learner *domain.LearnerProfile,
	session *domain.QuizSession,
	answers []string,
	timeSpentSeconds int,
) (*quiz.GradedResult, error) {
	if m.GradeFn != nil {
		return m.GradeFn(ctx, learner, session, answers, timeSpentSeconds)
	}
	return nil, m.DefaultError
}

// Statistics implements the quiz.Service interface
func (m *MockQuizService) Statistics(ctx context.Context, learner *domain.LearnerProfile) (*quiz.StatsSummary, error) {
	if m.StatisticsFn != nil {
		return m.StatisticsFn(ctx, learner)
	}
	return nil, m.DefaultError
}

// RecommendContent implements the quiz.Service interface
func (m *MockQuizService) RecommendContent(
	ctx context.Context,
	scores domain.ModelScores,
	limit int,
) (*quiz.ContentRecommendation, error) {
	if m.RecommendContentFn != nil {
		return m.RecommendContentFn(ctx, scores, limit)
	}
	return nil, m.DefaultError
}

// Subjects implements the quiz.Service interface
func (m *MockQuizService) Subjects(ctx context.Context) ([]string, error) {
	if m.SubjectsFn != nil {
		return m.SubjectsFn(ctx)
	}
	return nil, m.DefaultError
}
