// Package store declares the persistence interfaces the assessment services
// depend on: learner profiles, the question bank, content, and the attempt,
// interaction and prediction history. Implementations live in
// internal/platform/postgres and, for tests, internal/mocks.
package store
