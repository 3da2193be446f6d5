package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
	"github.com/phrazzld/adaptiq/internal/store"
)

// defaultContentLimit is how many content items are recommended by default.
const defaultContentLimit = 10

// QuizHandler serves quiz assembly, grading and learner summaries.
type QuizHandler struct {
	quizzes     quiz.Service
	predictions prediction.Service
	learners    store.LearnerStore
	logger      *slog.Logger
}

// NewQuizHandler creates a QuizHandler.
func NewQuizHandler(
	quizzes quiz.Service,
	predictions prediction.Service,
	learners store.LearnerStore,
	logger *slog.Logger,
) *QuizHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QuizHandler")
	}
	return &QuizHandler{
		quizzes:     quizzes,
		predictions: predictions,
		learners:    learners,
		logger:      logger.With(slog.String("component", "quiz_handler")),
	}
}

// StartQuiz handles POST /api/learners/{id}/quizzes
// It predicts the learner's scores at the requested tier and assembles a quiz.
func (h *QuizHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	var req StartQuizRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	difficulty := domain.DifficultyIntermediate
	if req.Difficulty != "" {
		difficulty = domain.DifficultyLevel(req.Difficulty)
	}

	scores := h.predictions.Predict(r.Context(), learner, difficulty)

	session, err := h.quizzes.Assemble(r.Context(), learner, scores, req.Subject, req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assemble quiz")
		return
	}

	log.Debug("quiz assembled",
		slog.String("learner_id", learner.ID.String()),
		slog.String("session_id", session.ID.String()),
		slog.Int("questions", len(session.Questions)))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session))
}

// SubmitQuiz handles POST /api/learners/{id}/quizzes/{sessionID}/submit
// It grades the answers and returns predictions for the recommended tier.
func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	sessionID, err := getPathUUID(r, "sessionID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req SubmitQuizRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	session, err := h.quizzes.Claim(r.Context(), learner.ID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to claim quiz session")
		return
	}

	result, err := h.quizzes.Grade(r.Context(), learner, session, req.Answers, req.TimeSpent)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to grade quiz")
		return
	}

	// Predict from the refreshed history so the new attempt counts.
	next := learner
	if refreshed, err := h.learners.GetProfile(r.Context(), learner.ID); err != nil {
		log.Warn("failed to reload learner after grading", redact.Attr(err))
	} else {
		next = refreshed
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubmitQuizResponse{
		Result:          result,
		NextPredictions: h.predictions.Predict(r.Context(), next, result.Recommendation),
	})
}

// GetRecommendation handles GET /api/learners/{id}/recommendation?score=
func (h *QuizHandler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: score must be a number", domain.ErrValidation), "")
		return
	}
	if score < 0 || score > 100 {
		HandleAPIError(w, r, domain.ErrInvalidScore, "")
		return
	}

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RecommendationResponse{
		LearnerID:      learner.ID,
		CurrentScore:   score,
		AverageScore:   learner.AverageScore(),
		Recommendation: quiz.RecommendDifficulty(learner, score),
	})
}

// GetStatistics handles GET /api/learners/{id}/statistics
func (h *QuizHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	stats, err := h.quizzes.Statistics(r.Context(), learner)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetContent handles GET /api/learners/{id}/content?difficulty=&limit=
// The content tier follows the learner's predicted scores.
func (h *QuizHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	difficulty, err := difficultyQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := intQuery(r, "limit", defaultContentLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	scores := h.predictions.Predict(r.Context(), learner, difficulty)
	rec, err := h.quizzes.RecommendContent(r.Context(), scores, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to recommend content")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}

// ListSubjects handles GET /api/subjects
func (h *QuizHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.quizzes.Subjects(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list subjects")
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SubjectsResponse{Subjects: subjects})
}
