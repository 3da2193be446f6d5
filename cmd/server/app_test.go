package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/adaptiq/internal/config"
	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Database: config.DatabaseConfig{URL: "postgres://localhost/adaptiq", MaxOpenConns: 2},
		Model: config.ModelConfig{
			MinTrainingLearners: 10,
			TrainTimeout:        time.Second,
			RetrainOnGrade:      true,
			RidgeLambda:         1,
			Neighbors:           5,
			BoostingRounds:      20,
			LearningRate:        0.1,
		},
		Quiz: config.QuizConfig{DefaultQuestionCount: 15, SessionTTL: time.Hour},
		Task: config.TaskConfig{QueueSize: 1, WorkerCount: 1},
	}
}

func newTestApp(t *testing.T) (*application, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger(t)
	app, err := newApplication(context.Background(), testConfig(), log, db)
	require.NoError(t, err)
	return app, mock
}

func TestRouter(t *testing.T) {
	t.Parallel()

	app, mock := newTestApp(t)
	router := app.setupRouter()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("invalid learner id never reaches the database", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/learners/nope/statistics", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"trace_id"`)
	})

	t.Run("subjects from postgres", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT subject FROM questions`).
			WillReturnRows(sqlmock.NewRows([]string{"subject"}).AddRow("math").AddRow("science"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"subjects":["math","science"]}`, w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `adaptiq_http_requests_total{method="GET",route="/health",status="200"} 1`)
		assert.Contains(t, string(body), "go_goroutines")
	})
}

func TestStartupTrainingIsQueued(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	app.queueStartupTraining()

	select {
	case queued := <-app.taskQueue.GetChannel():
		assert.Contains(t, string(queued.Payload()), `"reason":"startup"`)
	default:
		t.Fatal("no startup task queued")
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		migrate string
		wantErr bool
	}{
		{"no flags", nil, "", false},
		{"migrate up", []string{"-migrate", "up"}, "up", false},
		{"migrate status", []string{"-migrate=status"}, "status", false},
		{"unknown command", []string{"-migrate", "sideways"}, "", true},
		{"unknown flag", []string{"-verbose"}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts, err := parseFlags(tc.args, io.Discard)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.migrate, opts.migrate)
		})
	}
}
