package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedRecord is returned when stored interaction metadata cannot be
	// decoded. Callers skip the affected field or record and carry on.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidDifficulty is returned for an unknown difficulty tier.
	ErrInvalidDifficulty = errors.New("invalid difficulty level")

	// ErrInvalidScore is returned when a score falls outside [0, 100].
	ErrInvalidScore = errors.New("score must be between 0 and 100")

	// ErrPredictionResolved is returned when resolving a prediction twice.
	ErrPredictionResolved = errors.New("prediction already resolved")
)
