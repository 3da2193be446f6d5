package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/store"
)

// getPathUUID parses the chi path parameter paramName as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, paramName)
	}
	return id, nil
}

// difficultyQuery reads the optional difficulty query parameter,
// defaulting to intermediate.
func difficultyQuery(r *http.Request) (domain.DifficultyLevel, error) {
	raw := r.URL.Query().Get("difficulty")
	if raw == "" {
		return domain.DifficultyIntermediate, nil
	}
	return domain.ParseDifficulty(raw)
}

// intQuery reads an optional non-negative integer query parameter.
func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return n, nil
}

// loadLearner resolves the {id} path parameter to a learner profile,
// writing the error response itself when it fails.
func loadLearner(
	w http.ResponseWriter,
	r *http.Request,
	learners store.LearnerStore,
	log *slog.Logger,
) (*domain.LearnerProfile, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		log.Debug("invalid learner id", slog.String("value", chi.URLParam(r, "id")))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid learner ID")
		return nil, false
	}

	learner, err := learners.GetProfile(r.Context(), id)
	if err != nil {
		log.Debug("failed to load learner",
			slog.String("learner_id", id.String()),
			redact.Attr(err))
		HandleAPIError(w, r, err, "Failed to load learner")
		return nil, false
	}
	return learner, true
}

// decodeAndValidate decodes the body into req and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		log.Debug("invalid request format", redact.Attr(err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
