package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/store"
)

// PredictionHandler serves predictions and model training.
type PredictionHandler struct {
	predictions prediction.Service
	learners    store.LearnerStore
	datasetPath string
	logger      *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler. datasetPath is used
// when a dataset training request names no file, and its directory bounds
// the files a request may name.
func NewPredictionHandler(
	predictions prediction.Service,
	learners store.LearnerStore,
	datasetPath string,
	logger *slog.Logger,
) *PredictionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PredictionHandler")
	}
	return &PredictionHandler{
		predictions: predictions,
		learners:    learners,
		datasetPath: datasetPath,
		logger:      logger.With(slog.String("component", "prediction_handler")),
	}
}

// GetPredictions handles GET /api/learners/{id}/predictions?difficulty=
func (h *PredictionHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	difficulty, err := difficultyQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	learner, ok := loadLearner(w, r, h.learners, log)
	if !ok {
		return
	}

	scores := h.predictions.Predict(r.Context(), learner, difficulty)
	shared.RespondWithJSON(w, r, http.StatusOK, PredictionsResponse{
		LearnerID:   learner.ID,
		Predictions: scores,
		Ensemble:    scores.Ensemble(),
	})
}

// TrainAll handles POST /api/models/train
func (h *PredictionHandler) TrainAll(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	trained, err := h.predictions.TrainAll(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to train models")
		return
	}

	log.Info("learner training requested", slog.Bool("trained", trained))
	shared.RespondWithJSON(w, r, http.StatusOK, TrainResponse{
		Trained: trained,
		Status:  h.predictions.Status(),
	})
}

// TrainFromDataset handles POST /api/models/train-dataset
func (h *PredictionHandler) TrainFromDataset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	// An empty body selects the configured dataset.
	var req TrainDatasetRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Debug("invalid request format", redact.Attr(err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if h.datasetPath == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No dataset path configured")
		return
	}
	path, ok := resolveDatasetPath(h.datasetPath, req.Path)
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Dataset path must name a file in the dataset directory")
		return
	}

	trained, err := h.predictions.TrainFromDataset(r.Context(), path)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to train dataset model")
		return
	}

	log.Info("dataset training requested",
		slog.String("path", redact.String(path)),
		slog.Bool("trained", trained))
	shared.RespondWithJSON(w, r, http.StatusOK, TrainResponse{
		Trained: trained,
		Status:  h.predictions.Status(),
	})
}

// resolveDatasetPath maps a requested file onto the configured dataset's
// directory. Relative names resolve against that directory; nothing may
// escape it.
func resolveDatasetPath(configured, requested string) (string, bool) {
	if requested == "" {
		return configured, true
	}
	dir := filepath.Dir(filepath.Clean(configured))
	target := requested
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return target, true
}

// PredictRow handles POST /api/models/dataset/predict
func (h *PredictionHandler) PredictRow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var row dataset.Row
	if !decodeAndValidate(w, r, &row, log) {
		return
	}

	scores, ok := h.predictions.PredictRow(row)
	if !ok {
		shared.RespondWithError(w, r, http.StatusConflict, "Dataset model has not been trained")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DatasetPredictionResponse{
		Predictions: scores,
		Ensemble:    scores.Ensemble(),
	})
}

// Status handles GET /api/models/status
func (h *PredictionHandler) Status(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.predictions.Status())
}

// Health handles GET /health
func (h *PredictionHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Models: h.predictions.Status(),
	})
}
