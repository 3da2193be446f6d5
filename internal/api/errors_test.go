package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/service"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
	"github.com/phrazzld/adaptiq/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"learner not found", store.ErrLearnerNotFound, http.StatusNotFound, "Learner not found"},
		{"session not found", quiz.ErrSessionNotFound, http.StatusNotFound, "Quiz session not found or expired"},
		{"session mismatch", quiz.ErrSessionMismatch, http.StatusForbidden, "Quiz session belongs to another learner"},
		{"subject required", quiz.ErrSubjectRequired, http.StatusBadRequest, "Subject is required"},
		{
			"wrapped invalid difficulty",
			fmt.Errorf("predict: %w", domain.ErrInvalidDifficulty),
			http.StatusBadRequest,
			"Invalid difficulty level",
		},
		{
			"service error around persistence",
			service.NewServiceError("quiz", "assemble", "failed", store.ErrPersistence),
			http.StatusServiceUnavailable,
			"Storage temporarily unavailable",
		},
		{"other not found", store.ErrPredictionNotFound, http.StatusNotFound, "Resource not found"},
		{"duplicate", fmt.Errorf("create: %w", store.ErrDuplicate), http.StatusConflict, "Resource already exists"},
		{"transaction failed", store.ErrTransactionFailed, http.StatusServiceUnavailable, "Storage temporarily unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.status, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.message, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	v := validator.New()
	err := v.Struct(StartQuizRequest{Subject: "math", Count: 101})
	assert.Equal(t, "Invalid Count: too large", SanitizeValidationError(err))

	err = v.Struct(StartQuizRequest{})
	assert.Equal(t, "Invalid Subject: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
