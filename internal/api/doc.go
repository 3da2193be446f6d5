// Package api serves the engine over HTTP. Handlers translate requests into
// prediction and quiz service calls and map service errors to status codes
// without leaking internal details.
package api
