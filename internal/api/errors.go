package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
	"github.com/phrazzld/adaptiq/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, quiz.ErrSessionMismatch):
		return http.StatusForbidden

	case errors.Is(err, store.ErrLearnerNotFound),
		errors.Is(err, quiz.ErrSessionNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err):
		return http.StatusConflict

	case errors.Is(err, quiz.ErrSubjectRequired),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case store.IsPersistenceError(err):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, quiz.ErrSessionMismatch):
		return "Quiz session belongs to another learner"
	case errors.Is(err, store.ErrLearnerNotFound):
		return "Learner not found"
	case errors.Is(err, quiz.ErrSessionNotFound):
		return "Quiz session not found or expired"
	case store.IsNotFoundError(err):
		return "Resource not found"
	case store.IsDuplicateError(err):
		return "Resource already exists"
	case errors.Is(err, quiz.ErrSubjectRequired):
		return "Subject is required"
	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Invalid difficulty level"
	case errors.Is(err, domain.ErrInvalidScore):
		return "Score must be between 0 and 100"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	case store.IsPersistenceError(err):
		return "Storage temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted error. fallback replaces the generic message on 5xx responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// SanitizeValidationError turns a validator error into a message naming the
// offending field without echoing the rejected value.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Format: "Key: 'StartQuizRequest.Count' Error:Field validation for 'Count' failed on the 'lte' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 && fieldParts[3] != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(fieldParts[3]))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "gte", "min":
		return "too small"
	case "lte", "max":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
