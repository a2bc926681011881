package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-dedup/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	duplicatesHandler := handlers.NewDuplicatesHandler(s.engine)
	organizeHandler := handlers.NewOrganizeHandler(s.engine)
	jobsHandler := handlers.NewJobsHandler(s.engine, s.jobManager)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Duplicates
		r.Post("/duplicates", duplicatesHandler.Find)
		r.Post("/duplicates/apply", duplicatesHandler.Apply)

		// Person organization
		r.Post("/organize", organizeHandler.Organize)

		// Async jobs
		r.Post("/jobs", jobsHandler.Create)
		r.Get("/jobs", jobsHandler.List)
		r.Get("/jobs/{id}", jobsHandler.Get)
		r.Delete("/jobs/{id}", jobsHandler.Delete)
	})
}
