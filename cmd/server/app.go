package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/adaptiq/internal/config"
	"github.com/phrazzld/adaptiq/internal/events"
	"github.com/phrazzld/adaptiq/internal/platform/metrics"
	"github.com/phrazzld/adaptiq/internal/platform/postgres"
	"github.com/phrazzld/adaptiq/internal/redact"
	"github.com/phrazzld/adaptiq/internal/service/prediction"
	"github.com/phrazzld/adaptiq/internal/service/quiz"
	"github.com/phrazzld/adaptiq/internal/store"
	"github.com/phrazzld/adaptiq/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	learners store.LearnerStore

	predictionService prediction.Service
	quizService       quiz.Service

	eventEmitter *events.InMemoryEventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
}

// newApplication wires stores, services and background processing.
// Nothing is started until Run.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	app.learners = postgres.NewPostgresLearnerStore(db, logger)
	tx := store.NewTransactor(db)

	var err error
	app.predictionService, err = prediction.NewService(
		prediction.NewRegistry(),
		prediction.Stores{
			Learners:     app.learners,
			Predictions:  postgres.NewPostgresPredictionStore(db, logger),
			Interactions: postgres.NewPostgresInteractionStore(db, logger),
			Tx:           tx,
		},
		prediction.ConfigFrom(cfg.Model),
		app.metrics,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction service: %w", err)
	}

	sessions, err := app.setupSessionStore(ctx)
	if err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
		// A retrain fits the learner set and then the dataset set.
		TaskTimeout: 2 * cfg.Model.TrainTimeout,
	}, logger)

	if cfg.Model.RetrainOnGrade {
		var refitPath string
		if cfg.Dataset.AppendOnGrade {
			refitPath = cfg.Dataset.Path
		}
		app.eventEmitter.RegisterHandler(
			task.NewRetrainEventHandler(app.predictionService, app.taskQueue, refitPath, logger),
		)
		logger.Info("Retraining after each graded quiz enabled")
	}

	app.quizService, err = quiz.NewService(
		quiz.Deps{
			Questions:    postgres.NewPostgresQuestionStore(db, logger),
			Content:      postgres.NewPostgresContentStore(db, logger),
			Attempts:     postgres.NewPostgresAttemptStore(db, logger),
			Interactions: postgres.NewPostgresInteractionStore(db, logger),
			Tx:           tx,
			Sessions:     sessions,
			Feedback:     app.predictionService,
			Events:       app.eventEmitter,
		},
		quiz.ConfigFrom(cfg.Quiz, cfg.Dataset),
		app.metrics,
		logger,
	)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to create quiz service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupSessionStore selects the Redis session cache when enabled and the
// in-process store otherwise.
func (app *application) setupSessionStore(ctx context.Context) (quiz.SessionStore, error) {
	ttl := app.config.Quiz.SessionTTL
	if !app.config.Redis.Enabled {
		app.logger.Info("Using in-memory quiz session store", slog.Duration("ttl", ttl))
		return quiz.NewMemorySessionStore(ttl), nil
	}

	rdb, err := quiz.DialRedis(ctx, app.config.Redis.Addr, app.config.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = rdb
	app.logger.Info("Using redis quiz session store", slog.Duration("ttl", ttl))
	return quiz.NewRedisSessionStore(rdb, ttl), nil
}

// Run starts background workers, queues the startup training run and
// serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	app.workerPool.Start()
	app.queueStartupTraining()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// queueStartupTraining fits both model sets from whatever history exists.
// Requests are served with default predictions until it finishes.
func (app *application) queueStartupTraining() {
	t, err := task.NewRetrainTask(app.predictionService, task.RetrainPayload{
		Reason:      "startup",
		DatasetPath: app.config.Dataset.Path,
	}, app.logger)
	if err == nil {
		err = app.taskQueue.Enqueue(t)
	}
	if err != nil {
		app.logger.Warn("startup training not queued", redact.Attr(err))
	}
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("Error closing redis client", redact.Attr(err))
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.taskQueue.Close()
	app.workerPool.Stop()
	app.closeRedis()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", redact.Attr(err))
		}
	}

	app.logger.Info("Application shutdown completed")
}
