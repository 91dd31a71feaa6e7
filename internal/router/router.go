package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hireflow/hireflow-api/internal/api/application"
	"github.com/hireflow/hireflow-api/internal/api/auth"
	"github.com/hireflow/hireflow-api/internal/api/candidate"
	"github.com/hireflow/hireflow-api/internal/api/job"
)

// Config contains the handlers and middleware needed for the router setup.
type Config struct {
	AuthHandler            *auth.AuthHandlerImpl
	CandidateHandler       *candidate.CandidateHandlerImpl
	JobHandler             *job.JobHandlerImpl
	ApplicationHandler     *application.ApplicationHandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes: no bearer token required.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)
		})

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/me", cfg.AuthHandler.GetCurrentUser)
			r.Patch("/auth/profile", cfg.AuthHandler.UpdateProfile)
			r.Patch("/auth/change-password", cfg.AuthHandler.ChangePassword)

			r.Route("/candidates", func(r chi.Router) {
				r.Post("/", cfg.CandidateHandler.Create)
				r.Get("/", cfg.CandidateHandler.List)
				r.Get("/{id}", cfg.CandidateHandler.GetByID)
				r.Patch("/{id}", cfg.CandidateHandler.Update)
				r.Delete("/{id}", cfg.CandidateHandler.Delete)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", cfg.JobHandler.Create)
				r.Get("/", cfg.JobHandler.List)
				r.Get("/{id}", cfg.JobHandler.GetByID)
				r.Patch("/{id}", cfg.JobHandler.Update)
				r.Delete("/{id}", cfg.JobHandler.Delete)
			})

			r.Route("/applications", func(r chi.Router) {
				r.Post("/", cfg.ApplicationHandler.Create)
				r.Get("/", cfg.ApplicationHandler.List)
				r.Get("/{id}", cfg.ApplicationHandler.GetByID)
				r.Patch("/{id}/status", cfg.ApplicationHandler.UpdateStatus)
				r.Delete("/{id}", cfg.ApplicationHandler.Delete)
			})
		})
	})

	return r
}
