// Package service holds what the application services share. The services
// themselves live in subpackages:
//
//   - prediction: feature-based score prediction, training and the
//     prediction-accuracy feedback loop
//   - quiz: quiz assembly, grading, difficulty recommendation and statistics
//
// Services receive their stores through constructor injection, wrap
// unexpected failures in a ServiceError, and return sentinel errors for
// conditions callers are expected to handle.
package service
