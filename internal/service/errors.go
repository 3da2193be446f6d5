package service

import (
	"fmt"
)

// ServiceError wraps an unexpected failure inside a service with the
// service and operation that hit it.
type ServiceError struct {
	// Service is the failing service (e.g., "prediction", "quiz").
	Service string
	// Operation is the operation that failed (e.g., "train_all", "grade").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Errors matching one of passthrough are returned
// unchanged so callers can keep comparing them directly.
func NewServiceError(service, operation, message string, err error, passthrough ...error) error {
	for _, sentinel := range passthrough {
		if err == sentinel {
			return err
		}
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
