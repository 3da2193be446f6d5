package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/adaptiq/internal/api/shared"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/phrazzld/adaptiq/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestTrace(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)

	var traceID string
	h := Trace(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))

	assert.Len(t, traceID, shared.TraceIDLength)
	assert.Equal(t, traceID, rec.Header().Get(TraceHeader))
	logger.AssertLogContains(t, buf, "request started")
	logger.AssertLogContains(t, buf, `"trace_id":"`+traceID+`"`)
	logger.AssertLogContains(t, buf, "inside handler")
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(Metrics(metrics.New(reg)))
	r.Get("/api/learners/{id}/statistics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/learners/abc/statistics", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body,
		`adaptiq_http_requests_total{method="GET",route="/api/learners/{id}/statistics",status="418"} 1`)
	assert.Contains(t, body, `adaptiq_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.NotContains(t, body, "/api/learners/abc")
}

func TestMetricsNilIsSafe(t *testing.T) {
	t.Parallel()

	h := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	assert.NotPanics(t, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
