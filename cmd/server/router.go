package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/adaptiq/internal/api"
	apiMiddleware "github.com/phrazzld/adaptiq/internal/api/middleware"
	"github.com/phrazzld/adaptiq/internal/platform/metrics"
)

// setupRouter creates the router with middleware and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.Metrics(app.metrics))

	api.RegisterRoutes(r,
		api.NewPredictionHandler(app.predictionService, app.learners, app.config.Dataset.Path, app.logger),
		api.NewQuizHandler(app.quizService, app.predictionService, app.learners, app.logger),
	)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}
