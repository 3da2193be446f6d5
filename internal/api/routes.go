package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts every engine endpoint on r.
func RegisterRoutes(r chi.Router, predictions *PredictionHandler, quizzes *QuizHandler) {
	r.Get("/health", predictions.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/subjects", quizzes.ListSubjects)

		r.Route("/models", func(r chi.Router) {
			r.Get("/status", predictions.Status)
			r.Post("/train", predictions.TrainAll)
			r.Post("/train-dataset", predictions.TrainFromDataset)
			r.Post("/dataset/predict", predictions.PredictRow)
		})

		r.Route("/learners/{id}", func(r chi.Router) {
			r.Get("/predictions", predictions.GetPredictions)
			r.Get("/recommendation", quizzes.GetRecommendation)
			r.Get("/statistics", quizzes.GetStatistics)
			r.Get("/content", quizzes.GetContent)
			r.Post("/quizzes", quizzes.StartQuiz)
			r.Post("/quizzes/{sessionID}/submit", quizzes.SubmitQuiz)
		})
	})
}
