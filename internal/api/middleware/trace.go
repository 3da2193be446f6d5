// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
)

// TraceHeader echoes the request's trace ID to the client.
const TraceHeader = "X-Trace-ID"

// Trace adds a trace ID to the request context and a request logger
// carrying it, derived from base. Apply it before any handler that logs.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, traceID := shared.SetTraceID(r.Context())
			w.Header().Set(TraceHeader, traceID)

			log := base.With(slog.String("trace_id", traceID))
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
		})
	}
}
