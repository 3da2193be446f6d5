package quiz

import "errors"

const serviceName = "quiz"

var (
	// ErrSessionNotFound is returned when a session is unknown, expired or
	// already graded.
	ErrSessionNotFound = errors.New("quiz session not found")

	// ErrSessionMismatch is returned when a learner submits answers for a
	// session assembled for someone else.
	ErrSessionMismatch = errors.New("quiz session belongs to another learner")

	// ErrSubjectRequired is returned when assembly is requested without a subject.
	ErrSubjectRequired = errors.New("subject is required")
)
