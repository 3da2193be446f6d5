package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PredictionServed("default")
	m.PredictionServed("default")
	m.TrainingRun(KindLearner, OutcomeInsufficient)
	m.QuizGraded(80, true)
	m.QuizGraded(20, false)
	m.RequestServed(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainingRuns.WithLabelValues(KindLearner, OutcomeInsufficient)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.grades.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "adaptiq_quiz_score_count 2"))
	assert.True(t, strings.Contains(body, `adaptiq_predictions_total{source="default"} 2`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.PredictionServed("trained")
		m.TrainingRun(KindDataset, OutcomeFailed)
		m.QuizGraded(50, true)
		m.RequestServed("GET", "/", 200, time.Second)
	})
}
