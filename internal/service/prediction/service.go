// Package prediction turns learner history into per-model score predictions,
// trains the regressors that produce them, and closes the feedback loop by
// resolving predictions once the actual score is known.
package prediction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/config"
	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/domain/features"
	"github.com/phrazzld/adaptiq/internal/domain/model"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/platform/metrics"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/service"
	"github.com/phrazzld/adaptiq/internal/store"
)

const serviceName = "prediction"

// ResolveLimit is the most unresolved predictions one actual score resolves.
const ResolveLimit = 3

// ErrInsufficientData is returned by the fitting helpers when the training
// population is below the configured minimum. Public training methods turn
// it into a false result rather than an error.
var ErrInsufficientData = errors.New("insufficient training data")

// Service predicts scores and maintains the shared model sets.
type Service interface {
	// Predict returns one clamped score per model for the learner at the
	// given difficulty. Without a trained set it returns DefaultPrediction.
	// Trained predictions are persisted unresolved; a persistence failure is
	// logged and the scores are still returned.
	Predict(ctx context.Context, learner *domain.LearnerProfile, difficulty domain.DifficultyLevel) domain.ModelScores

	// TrainAll fits a new learner model set from every stored profile and
	// publishes it. It returns false with a nil error when there are too
	// few learners.
	TrainAll(ctx context.Context) (bool, error)

	// TrainFromDataset fits the dataset model from the CSV file at path.
	// A missing file or too few rows returns false with a nil error.
	TrainFromDataset(ctx context.Context, path string) (bool, error)

	// PredictRow scores a dataset row with the dataset model. The second
	// result is false when no dataset model has been trained.
	PredictRow(row dataset.Row) (domain.ModelScores, bool)

	// ResolveAccuracy records actual against the most recent unresolved
	// predictions of the learner, at most ResolveLimit of them, in one
	// transaction. It returns how many were resolved.
	ResolveAccuracy(ctx context.Context, learnerID uuid.UUID, actual float64) (int, error)

	// RecordEnhanced persists the detailed enhanced_quiz interaction for a
	// graded quiz. Failures are logged, never returned.
	RecordEnhanced(ctx context.Context, learner *domain.LearnerProfile, outcome QuizOutcome)

	// Status reports the published model sets.
	Status() Status
}

// QuizOutcome is what RecordEnhanced needs to know about a graded quiz.
type QuizOutcome struct {
	Questions        []*domain.Question
	Answers          []string
	Score            float64
	TimeSpentSeconds int
	Predictions      domain.ModelScores
}

// Stores groups the persistence collaborators of the service.
type Stores struct {
	Learners     store.LearnerStore
	Predictions  store.PredictionStore
	Interactions store.InteractionStore
	Tx           store.Transactor
}

// Config tunes training.
type Config struct {
	// MinTrainingSamples is the smallest learner population, or dataset
	// row count, that training accepts.
	MinTrainingSamples int
	TrainTimeout       time.Duration
	Params             model.Params
	// Now overrides the clock used for feature extraction.
	Now func() time.Time
}

// ConfigFrom maps the application model configuration.
func ConfigFrom(cfg config.ModelConfig) Config {
	return Config{
		MinTrainingSamples: cfg.MinTrainingLearners,
		TrainTimeout:       cfg.TrainTimeout,
		Params: model.Params{
			RidgeLambda:    cfg.RidgeLambda,
			Neighbors:      cfg.Neighbors,
			BoostingRounds: cfg.BoostingRounds,
			LearningRate:   cfg.LearningRate,
		},
	}
}

type serviceImpl struct {
	registry *Registry
	stores   Stores
	cfg      Config
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// trainMu serialises training runs; readers never take it.
	trainMu sync.Mutex
}

// NewService creates a prediction Service.
// It returns an error if any of the required dependencies are nil.
func NewService(
	registry *Registry,
	stores Stores,
	cfg Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) (Service, error) {
	required := []struct {
		ok   bool
		name string
	}{
		{registry != nil, "registry"},
		{stores.Learners != nil, "learner store"},
		{stores.Predictions != nil, "prediction store"},
		{stores.Interactions != nil, "interaction store"},
		{stores.Tx != nil, "transactor"},
	}
	for _, r := range required {
		if !r.ok {
			return nil, &service.ServiceError{
				Service:   serviceName,
				Operation: "create_service",
				Message:   r.name + " cannot be nil",
			}
		}
	}

	if cfg.MinTrainingSamples < 1 {
		cfg.MinTrainingSamples = 10
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Second
	}
	if cfg.Params == (model.Params{}) {
		cfg.Params = model.DefaultParams()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		registry: registry,
		stores:   stores,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With(slog.String("component", "prediction_service")),
	}, nil
}

// DefaultPrediction is the heuristic used whenever no trained set exists.
// The base is the learner's average score, or the skill-level default with
// no history, shifted by the difficulty adjustment and clamped. Each model
// label gets a small fixed offset so consumers always see three entries.
func DefaultPrediction(learner *domain.LearnerProfile, difficulty domain.DifficultyLevel) domain.ModelScores {
	base := learner.SkillLevel.DefaultScore()
	if learner.HasHistory() {
		base = learner.AverageScore()
	}

	switch difficulty {
	case domain.DifficultyBeginner:
		base += 10
	case domain.DifficultyAdvanced:
		base -= 10
	}
	base = domain.ClampScore(base)

	return domain.ModelScores{
		Difficulty: difficulty,
		Scores: map[domain.ModelType]float64{
			domain.ModelRidge:     domain.ClampScore(base + 2),
			domain.ModelBoosting:  domain.ClampScore(base - 1),
			domain.ModelNeighbors: domain.ClampScore(base + 1),
		},
		Source: domain.SourceDefault,
	}
}

func (s *serviceImpl) Predict(
	ctx context.Context,
	learner *domain.LearnerProfile,
	difficulty domain.DifficultyLevel,
) domain.ModelScores {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("learner_id", learner.ID.String()))
	if !difficulty.Valid() {
		difficulty = domain.DifficultyIntermediate
	}

	set := s.registry.Learner()
	if set == nil {
		log.Debug("no trained model set, using default prediction")
		s.metrics.PredictionServed(string(domain.SourceDefault))
		return DefaultPrediction(learner, difficulty)
	}

	x := features.Extract(learner, s.cfg.Now()).Slice()
	scores, err := set.Predict(x)
	if err != nil {
		log.Error("trained model set rejected feature vector, using default prediction",
			redact.Attr(err))
		s.metrics.PredictionServed(string(domain.SourceDefault))
		return DefaultPrediction(learner, difficulty)
	}

	result := domain.ModelScores{Difficulty: difficulty, Scores: scores, Source: domain.SourceTrained}
	s.metrics.PredictionServed(string(domain.SourceTrained))

	if err := s.persist(ctx, learner.ID, result); err != nil {
		log.Error("failed to persist predictions", redact.Attr(err))
	}
	return result
}

func (s *serviceImpl) persist(ctx context.Context, learnerID uuid.UUID, scores domain.ModelScores) error {
	preds := make([]*domain.Prediction, 0, len(scores.Scores))
	for _, mt := range domain.ModelTypes {
		score, ok := scores.Scores[mt]
		if !ok {
			continue
		}
		p, err := domain.NewPrediction(learnerID, mt, score, scores.Difficulty)
		if err != nil {
			return err
		}
		preds = append(preds, p)
	}

	return s.stores.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.stores.Predictions.WithTx(tx).CreateMultiple(ctx, preds)
	})
}

func (s *serviceImpl) TrainAll(ctx context.Context) (bool, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	profiles, err := s.stores.Learners.ListProfiles(ctx)
	if err != nil {
		s.metrics.TrainingRun(metrics.KindLearner, metrics.OutcomeFailed)
		return false, service.NewServiceError(serviceName, "train_all", "failed to load learner profiles", err)
	}

	set, err := s.fitLearnerSet(ctx, profiles)
	if errors.Is(err, ErrInsufficientData) {
		log.Warn("not enough learners to train",
			slog.Int("learners", len(profiles)),
			slog.Int("required", s.cfg.MinTrainingSamples))
		s.metrics.TrainingRun(metrics.KindLearner, metrics.OutcomeInsufficient)
		return false, nil
	}
	if err != nil {
		log.Error("learner model training failed", redact.Attr(err))
		s.metrics.TrainingRun(metrics.KindLearner, metrics.OutcomeFailed)
		return false, service.NewServiceError(serviceName, "train_all", "training failed", err)
	}

	s.registry.SwapLearner(set)
	s.metrics.TrainingRun(metrics.KindLearner, metrics.OutcomeTrained)
	log.Info("learner model set published", slog.Int("learners", set.Samples()))
	return true, nil
}

func (s *serviceImpl) fitLearnerSet(ctx context.Context, profiles []*domain.LearnerProfile) (*model.Set, error) {
	if len(profiles) < s.cfg.MinTrainingSamples {
		return nil, fmt.Errorf("%w: %d learners, need %d", ErrInsufficientData, len(profiles), s.cfg.MinTrainingSamples)
	}

	now := s.cfg.Now()
	X := make([][]float64, len(profiles))
	y := make([]float64, len(profiles))
	for i, p := range profiles {
		X[i] = features.Extract(p, now).Slice()
		y[i] = features.Target(p)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TrainTimeout)
	defer cancel()
	return model.Train(ctx, features.Names[:], X, y, s.cfg.Params)
}

func (s *serviceImpl) TrainFromDataset(ctx context.Context, path string) (bool, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("path", path))

	res, err := dataset.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("dataset file not found")
		s.metrics.TrainingRun(metrics.KindDataset, metrics.OutcomeInsufficient)
		return false, nil
	}
	if err != nil {
		s.metrics.TrainingRun(metrics.KindDataset, metrics.OutcomeFailed)
		return false, service.NewServiceError(serviceName, "train_from_dataset", "failed to read dataset", err)
	}
	if res.Skipped > 0 {
		log.Warn("skipped malformed dataset rows", slog.Int("skipped", res.Skipped))
	}

	if len(res.Rows) < s.cfg.MinTrainingSamples {
		log.Warn("not enough dataset rows to train",
			slog.Int("rows", len(res.Rows)),
			slog.Int("required", s.cfg.MinTrainingSamples))
		s.metrics.TrainingRun(metrics.KindDataset, metrics.OutcomeInsufficient)
		return false, nil
	}

	enc := dataset.FitEncoder(res.Rows)
	X, y := enc.Encode(res.Rows)

	trainCtx, cancel := context.WithTimeout(ctx, s.cfg.TrainTimeout)
	defer cancel()
	set, err := model.Train(trainCtx, dataset.Schema, X, y, s.cfg.Params)
	if err != nil {
		log.Error("dataset model training failed", redact.Attr(err))
		s.metrics.TrainingRun(metrics.KindDataset, metrics.OutcomeFailed)
		return false, service.NewServiceError(serviceName, "train_from_dataset", "training failed", err)
	}

	s.registry.SwapDataset(&DatasetModel{Set: set, Encoder: enc})
	s.metrics.TrainingRun(metrics.KindDataset, metrics.OutcomeTrained)
	log.Info("dataset model set published", slog.Int("rows", set.Samples()))
	return true, nil
}

func (s *serviceImpl) PredictRow(row dataset.Row) (domain.ModelScores, bool) {
	d := s.registry.Dataset()
	if d == nil {
		return domain.ModelScores{}, false
	}
	scores, err := d.Set.Predict(d.Encoder.EncodeRow(row))
	if err != nil {
		s.logger.Error("dataset model rejected row", redact.Attr(err))
		return domain.ModelScores{}, false
	}
	s.metrics.PredictionServed(string(domain.SourceTrained))
	return domain.ModelScores{
		Difficulty: domain.DifficultyLevel(row.Difficulty),
		Scores:     scores,
		Source:     domain.SourceTrained,
	}, true
}

func (s *serviceImpl) ResolveAccuracy(ctx context.Context, learnerID uuid.UUID, actual float64) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("learner_id", learnerID.String()))

	var resolved int
	err := s.stores.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		ps := s.stores.Predictions.WithTx(tx)
		pending, err := ps.ListUnresolved(ctx, learnerID, ResolveLimit)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if err := p.Resolve(actual); err != nil {
				return err
			}
			if err := ps.Resolve(ctx, p); err != nil {
				return err
			}
		}
		resolved = len(pending)
		return nil
	})
	if err != nil {
		log.Error("failed to resolve prediction accuracy", redact.Attr(err))
		return 0, service.NewServiceError(serviceName, "resolve_accuracy", "failed to resolve predictions", err)
	}

	log.Debug("predictions resolved", slog.Int("count", resolved), slog.Float64("actual", actual))
	return resolved, nil
}

// EnhancedPayload derives the enhanced_quiz payload for a graded quiz.
// Questions and answers are walked pairwise; a question without an answer
// counts as incorrect.
func EnhancedPayload(learner *domain.LearnerProfile, outcome QuizOutcome) domain.EnhancedQuizPayload {
	bySubject := make(map[string]domain.Breakdown)
	byDifficulty := make(map[string]domain.Breakdown)
	correct := 0

	for i, q := range outcome.Questions {
		answer, ok := domain.AnswerAt(outcome.Answers, i)
		hit := ok && q.IsCorrect(answer)

		sb := bySubject[q.Subject]
		db := byDifficulty[string(q.DifficultyLevel)]
		sb.Total++
		db.Total++
		if hit {
			sb.Correct++
			db.Correct++
			correct++
		}
		bySubject[q.Subject] = sb
		byDifficulty[string(q.DifficultyLevel)] = db
	}

	predicted := make(map[string]float64, len(outcome.Predictions.Scores))
	deltas := make(map[string]float64, len(outcome.Predictions.Scores))
	for mt, score := range outcome.Predictions.Scores {
		predicted[string(mt)] = score
		deltas[string(mt)] = math.Abs(outcome.Score - score)
	}

	return domain.EnhancedQuizPayload{
		QuizScore:             outcome.Score,
		TimeSpent:             outcome.TimeSpentSeconds,
		CorrectAnswers:        correct,
		TotalQuestions:        len(outcome.Questions),
		SubjectPerformance:    bySubject,
		DifficultyPerformance: byDifficulty,
		LearningStyle:         learner.LearningStyle,
		PredictedScores:       predicted,
		ActualVsPredicted:     deltas,
	}
}

func (s *serviceImpl) RecordEnhanced(ctx context.Context, learner *domain.LearnerProfile, outcome QuizOutcome) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("learner_id", learner.ID.String()))

	interaction, err := domain.NewInteraction(learner.ID, EnhancedPayload(learner, outcome), outcome.TimeSpentSeconds)
	if err != nil {
		log.Error("failed to build enhanced interaction", redact.Attr(err))
		return
	}
	if err := s.stores.Interactions.Create(ctx, interaction); err != nil {
		log.Error("failed to record enhanced interaction",
			redact.Attr(err),
			slog.String("interaction_id", interaction.ID.String()))
		return
	}
	log.Debug("enhanced interaction recorded", slog.String("interaction_id", interaction.ID.String()))
}

func (s *serviceImpl) Status() Status {
	return s.registry.Status()
}
