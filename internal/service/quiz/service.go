// Package quiz assembles quizzes from the question bank, grades submitted
// answers, and summarises a learner's attempt history.
package quiz

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/config"
	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/events"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/platform/metrics"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/service"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/store"
)

// DefaultQuestionCount is the quiz size used when none is requested.
const DefaultQuestionCount = 15

// recentScoreWindow is how many trailing scores Statistics reports.
const recentScoreWindow = 10

// Service coordinates one predict, assess, update cycle for a learner.
type Service interface {
	// Assemble samples up to count questions of subject uniformly without
	// replacement and saves the resulting session. count <= 0 uses the
	// configured default.
	Assemble(
		ctx context.Context,
		learner *domain.LearnerProfile,
		predictions domain.ModelScores,
		subject string,
		count int,
	) (*domain.QuizSession, error)

	// Session loads a saved session of the learner.
	// Returns ErrSessionNotFound or ErrSessionMismatch.
	Session(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error)

	// Claim removes a saved session of the learner so it can be graded
	// once. Returns ErrSessionNotFound or ErrSessionMismatch.
	Claim(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error)

	// Grade scores answers against session, persists the attempt and runs
	// the feedback steps. A persistence failure is reported through
	// GradedResult.Persisted, never as an error.
	Grade(
		ctx context.Context,
		learner *domain.LearnerProfile,
		session *domain.QuizSession,
		answers []string,
		timeSpentSeconds int,
	) (*GradedResult, error)

	// Statistics summarises the learner's attempt history.
	Statistics(ctx context.Context, learner *domain.LearnerProfile) (*StatsSummary, error)

	// RecommendContent lists content of the tier matching the mean predicted score.
	RecommendContent(ctx context.Context, scores domain.ModelScores, limit int) (*ContentRecommendation, error)

	// Subjects lists the subjects that have questions.
	Subjects(ctx context.Context) ([]string, error)
}

// Feedback is the part of the prediction service that grading drives.
type Feedback interface {
	ResolveAccuracy(ctx context.Context, learnerID uuid.UUID, actual float64) (int, error)
	RecordEnhanced(ctx context.Context, learner *domain.LearnerProfile, outcome prediction.QuizOutcome)
}

// Deps groups the collaborators of the service. Events may be nil.
type Deps struct {
	Questions    store.QuestionStore
	Content      store.ContentStore
	Attempts     store.AttemptStore
	Interactions store.InteractionStore
	Tx           store.Transactor
	Sessions     SessionStore
	Feedback     Feedback
	Events       events.EventEmitter
}

// Config tunes the service.
type Config struct {
	DefaultQuestionCount int
	// DatasetPath receives one row per graded quiz when AppendToDataset is set.
	DatasetPath     string
	AppendToDataset bool
	// Rand drives question sampling. Nil seeds from the clock.
	Rand *rand.Rand
	Now  func() time.Time
}

// ConfigFrom maps the application configuration.
func ConfigFrom(q config.QuizConfig, d config.DatasetConfig) Config {
	return Config{
		DefaultQuestionCount: q.DefaultQuestionCount,
		DatasetPath:          d.Path,
		AppendToDataset:      d.AppendOnGrade && d.Path != "",
	}
}

// Review is the graded view of one question.
type Review struct {
	QuestionID      uuid.UUID              `json:"question_id"`
	Text            string                 `json:"question_text"`
	Options         []string               `json:"options"`
	CorrectAnswer   string                 `json:"correct_answer"`
	LearnerAnswer   *string                `json:"user_answer"`
	IsCorrect       bool                   `json:"is_correct"`
	Subject         string                 `json:"subject"`
	DifficultyLevel domain.DifficultyLevel `json:"difficulty_level"`
}

// GradedResult is everything the learner sees after submitting a quiz.
type GradedResult struct {
	AttemptID        uuid.UUID              `json:"attempt_id"`
	SessionID        uuid.UUID              `json:"session_id"`
	Subject          string                 `json:"subject"`
	DifficultyLevel  domain.DifficultyLevel `json:"difficulty_level"`
	Score            float64                `json:"score"`
	CorrectAnswers   int                    `json:"correct_answers"`
	TotalQuestions   int                    `json:"total_questions"`
	TimeSpentSeconds int                    `json:"time_spent"`
	Predictions      domain.ModelScores     `json:"predictions"`
	// Recommendation is the advised next difficulty, counting this attempt
	// in the learner's average.
	Recommendation domain.DifficultyLevel `json:"recommended_difficulty"`
	// Persisted is false when the attempt could not be stored.
	Persisted           bool     `json:"persisted"`
	ResolvedPredictions int      `json:"resolved_predictions"`
	Review              []Review `json:"questions_review"`
}

// Breakdown is a count with a running average score.
type Breakdown struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

func (b *Breakdown) add(score float64) {
	b.AvgScore = (b.AvgScore*float64(b.Count) + score) / float64(b.Count+1)
	b.Count++
}

// StatsSummary aggregates a learner's attempts.
type StatsSummary struct {
	TotalAttempts       int                  `json:"total_attempts"`
	AverageScore        float64              `json:"average_score"`
	BestScore           float64              `json:"best_score"`
	DifficultyBreakdown map[string]Breakdown `json:"difficulty_breakdown"`
	SubjectPerformance  map[string]Breakdown `json:"subject_performance"`
	RecentScores        []float64            `json:"recent_scores"`
}

// ContentRecommendation is content chosen for a predicted performance tier.
type ContentRecommendation struct {
	Difficulty domain.DifficultyLevel `json:"difficulty"`
	BasisScore float64                `json:"basis_score"`
	Items      []*domain.Content      `json:"items"`
}

type serviceImpl struct {
	deps    Deps
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	// datasetMu serialises appends to the dataset file.
	datasetMu sync.Mutex
}

// NewService creates a quiz Service.
// It returns an error if any of the required dependencies are nil.
func NewService(deps Deps, cfg Config, m *metrics.Metrics, logger *slog.Logger) (Service, error) {
	required := []struct {
		ok   bool
		name string
	}{
		{deps.Questions != nil, "question store"},
		{deps.Content != nil, "content store"},
		{deps.Attempts != nil, "attempt store"},
		{deps.Interactions != nil, "interaction store"},
		{deps.Tx != nil, "transactor"},
		{deps.Sessions != nil, "session store"},
		{deps.Feedback != nil, "feedback"},
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

	if cfg.DefaultQuestionCount < 1 {
		cfg.DefaultQuestionCount = DefaultQuestionCount
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		deps:    deps,
		cfg:     cfg,
		metrics: m,
		rng:     rng,
		logger:  logger.With(slog.String("component", "quiz_service")),
	}, nil
}

func (s *serviceImpl) Assemble(
	ctx context.Context,
	learner *domain.LearnerProfile,
	predictions domain.ModelScores,
	subject string,
	count int,
) (*domain.QuizSession, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	if count <= 0 {
		count = s.cfg.DefaultQuestionCount
	}

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("learner_id", learner.ID.String()),
		slog.String("subject", subject),
	)

	pool, err := s.deps.Questions.ListBySubject(ctx, subject)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "assemble", "failed to load questions", err)
	}

	difficulty := predictions.Difficulty
	if !difficulty.Valid() {
		difficulty = domain.DifficultyIntermediate
	}

	session := &domain.QuizSession{
		ID:              uuid.New(),
		LearnerID:       learner.ID,
		Subject:         subject,
		DifficultyLevel: difficulty,
		Questions:       s.sample(pool, count),
		Predictions:     predictions,
		StartedAt:       s.cfg.Now().UTC(),
	}

	if err := s.deps.Sessions.Save(ctx, session); err != nil {
		return nil, service.NewServiceError(serviceName, "assemble", "failed to save session", err)
	}

	log.Info("quiz assembled",
		slog.String("session_id", session.ID.String()),
		slog.Int("questions", len(session.Questions)),
		slog.Int("available", len(pool)))
	return session, nil
}

// sample draws n questions uniformly without replacement with a partial
// Fisher-Yates shuffle. With n >= len(pool) every question is returned.
func (s *serviceImpl) sample(pool []*domain.Question, n int) []*domain.Question {
	out := make([]*domain.Question, len(pool))
	copy(out, pool)
	if n >= len(out) {
		return out
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:n]
}

func (s *serviceImpl) Session(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error) {
	session, err := s.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "session", "failed to load session", err, ErrSessionNotFound)
	}
	if session.LearnerID != learnerID {
		return nil, ErrSessionMismatch
	}
	return session, nil
}

func (s *serviceImpl) Claim(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.QuizSession, error) {
	session, err := s.deps.Sessions.Take(ctx, sessionID, learnerID)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "claim", "failed to claim session", err,
			ErrSessionNotFound, ErrSessionMismatch)
	}
	return session, nil
}

// Grade walks questions and answers pairwise. A missing answer is incorrect.
func (s *serviceImpl) Grade(
	ctx context.Context,
	learner *domain.LearnerProfile,
	session *domain.QuizSession,
	answers []string,
	timeSpentSeconds int,
) (*GradedResult, error) {
	if session.LearnerID != learner.ID {
		return nil, ErrSessionMismatch
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("learner_id", learner.ID.String()),
		slog.String("session_id", session.ID.String()),
	)

	review := make([]Review, len(session.Questions))
	correct := 0
	for i, q := range session.Questions {
		r := Review{
			QuestionID:      q.ID,
			Text:            q.Text,
			Options:         q.Options,
			CorrectAnswer:   q.CorrectAnswer,
			Subject:         q.Subject,
			DifficultyLevel: q.DifficultyLevel,
		}
		if answer, ok := domain.AnswerAt(answers, i); ok {
			r.LearnerAnswer = &answer
			r.IsCorrect = q.IsCorrect(answer)
		}
		if r.IsCorrect {
			correct++
		}
		review[i] = r
	}

	total := len(session.Questions)
	var score float64
	if total > 0 {
		score = 100 * float64(correct) / float64(total)
	}

	attempt, err := domain.NewQuizAttempt(
		learner.ID,
		session.QuestionIDs(),
		answers,
		score,
		timeSpentSeconds,
		session.DifficultyLevel,
		session.Subject,
	)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "grade", "invalid attempt", err)
	}

	result := &GradedResult{
		AttemptID:        attempt.ID,
		SessionID:        session.ID,
		Subject:          session.Subject,
		DifficultyLevel:  session.DifficultyLevel,
		Score:            score,
		CorrectAnswers:   correct,
		TotalQuestions:   total,
		TimeSpentSeconds: timeSpentSeconds,
		Predictions:      session.Predictions,
		Review:           review,
	}

	if err := s.persistAttempt(ctx, attempt, correct, total); err != nil {
		log.Error("failed to persist quiz attempt", redact.Attr(err))
	} else {
		result.Persisted = true
	}

	updated := *learner
	updated.Attempts = append(append([]domain.QuizAttempt(nil), learner.Attempts...), *attempt)
	result.Recommendation = RecommendDifficulty(&updated, score)

	resolved, err := s.deps.Feedback.ResolveAccuracy(ctx, learner.ID, score)
	if err != nil {
		log.Warn("prediction accuracy not updated", redact.Attr(err))
	}
	result.ResolvedPredictions = resolved

	s.deps.Feedback.RecordEnhanced(ctx, learner, prediction.QuizOutcome{
		Questions:        session.Questions,
		Answers:          answers,
		Score:            score,
		TimeSpentSeconds: timeSpentSeconds,
		Predictions:      session.Predictions,
	})

	appended := s.appendDatasetRow(ctx, learner, session, score, timeSpentSeconds)
	s.emitGraded(ctx, learner, session, result, appended)

	if err := s.deps.Sessions.Delete(ctx, session.ID); err != nil {
		log.Warn("failed to delete graded session", redact.Attr(err))
	}

	s.metrics.QuizGraded(score, result.Persisted)
	log.Info("quiz graded",
		slog.Float64("score", score),
		slog.Int("correct", correct),
		slog.Int("total", total),
		slog.Bool("persisted", result.Persisted))
	return result, nil
}

func (s *serviceImpl) persistAttempt(ctx context.Context, attempt *domain.QuizAttempt, correct, total int) error {
	summary, err := domain.NewInteraction(attempt.LearnerID, domain.QuizPayload{
		AttemptID:  attempt.ID,
		Score:      attempt.Score,
		Correct:    correct,
		Total:      total,
		Subject:    attempt.Subject,
		Difficulty: attempt.DifficultyLevel,
	}, attempt.TimeSpentSeconds)
	if err != nil {
		return err
	}

	return s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Attempts.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}
		return s.deps.Interactions.WithTx(tx).Create(ctx, summary)
	})
}

func (s *serviceImpl) appendDatasetRow(
	ctx context.Context,
	learner *domain.LearnerProfile,
	session *domain.QuizSession,
	score float64,
	timeSpentSeconds int,
) bool {
	if !s.cfg.AppendToDataset {
		return false
	}

	row := dataset.Row{
		UserID:        learner.ID.String(),
		Subject:       session.Subject,
		Difficulty:    string(session.DifficultyLevel),
		Score:         score,
		TimeSpent:     float64(timeSpentSeconds),
		LearningStyle: string(learner.LearningStyle),
		SkillLevel:    string(learner.SkillLevel),
	}

	s.datasetMu.Lock()
	err := dataset.Append(s.cfg.DatasetPath, row)
	s.datasetMu.Unlock()
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append dataset row",
			slog.String("path", s.cfg.DatasetPath),
			redact.Attr(err))
		return false
	}
	return true
}

func (s *serviceImpl) emitGraded(
	ctx context.Context,
	learner *domain.LearnerProfile,
	session *domain.QuizSession,
	result *GradedResult,
	appended bool,
) {
	if s.deps.Events == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewQuizGradedEvent(events.QuizGradedPayload{
		LearnerID:       learner.ID,
		SessionID:       session.ID,
		Subject:         session.Subject,
		Score:           result.Score,
		Persisted:       result.Persisted,
		DatasetAppended: appended,
	})
	if err != nil {
		log.Error("failed to build quiz_graded event", redact.Attr(err))
		return
	}
	if err := s.deps.Events.EmitEvent(ctx, event); err != nil {
		log.Warn("quiz_graded event not handled", redact.Attr(err))
	}
}

// RecommendDifficulty advises the next tier from the current score and the
// learner's average. It is advisory and never constrains assembly.
func RecommendDifficulty(learner *domain.LearnerProfile, currentScore float64) domain.DifficultyLevel {
	avg := learner.AverageScore()
	switch {
	case currentScore >= 80 && avg >= 75:
		return domain.DifficultyAdvanced
	case currentScore >= 60 && avg >= 55:
		return domain.DifficultyIntermediate
	default:
		return domain.DifficultyBeginner
	}
}

func (s *serviceImpl) Statistics(ctx context.Context, learner *domain.LearnerProfile) (*StatsSummary, error) {
	stats := &StatsSummary{
		DifficultyBreakdown: map[string]Breakdown{},
		SubjectPerformance:  map[string]Breakdown{},
		RecentScores:        []float64{},
	}

	attempts := learner.ChronologicalAttempts()
	if len(attempts) == 0 {
		return stats, nil
	}

	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, a := range attempts {
		for _, id := range a.QuestionIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	questions, err := s.deps.Questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "statistics", "failed to resolve questions", err)
	}

	var sum float64
	for i, a := range attempts {
		sum += a.Score
		if i == 0 || a.Score > stats.BestScore {
			stats.BestScore = a.Score
		}

		d := stats.DifficultyBreakdown[string(a.DifficultyLevel)]
		d.add(a.Score)
		stats.DifficultyBreakdown[string(a.DifficultyLevel)] = d

		for _, id := range a.QuestionIDs {
			q, ok := questions[id]
			if !ok {
				continue
			}
			b := stats.SubjectPerformance[q.Subject]
			b.add(a.Score)
			stats.SubjectPerformance[q.Subject] = b
		}
	}

	stats.TotalAttempts = len(attempts)
	stats.AverageScore = sum / float64(len(attempts))

	from := max(0, len(attempts)-recentScoreWindow)
	for _, a := range attempts[from:] {
		stats.RecentScores = append(stats.RecentScores, a.Score)
	}
	return stats, nil
}

// ContentTier maps a mean predicted score to a content tier.
func ContentTier(score float64) domain.DifficultyLevel {
	switch {
	case score < 40:
		return domain.DifficultyBeginner
	case score < 70:
		return domain.DifficultyIntermediate
	default:
		return domain.DifficultyAdvanced
	}
}

func (s *serviceImpl) RecommendContent(
	ctx context.Context,
	scores domain.ModelScores,
	limit int,
) (*ContentRecommendation, error) {
	basis := domain.MissingModelScore
	if len(scores.Scores) > 0 {
		basis = scores.Mean()
	}
	tier := ContentTier(basis)

	items, err := s.deps.Content.ListByDifficulty(ctx, tier, limit)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "recommend_content", "failed to load content", err)
	}
	return &ContentRecommendation{Difficulty: tier, BasisScore: basis, Items: items}, nil
}

func (s *serviceImpl) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := s.deps.Questions.ListSubjects(ctx)
	if err != nil {
		return nil, service.NewServiceError(serviceName, "subjects", "failed to list subjects", err)
	}
	return subjects, nil
}
