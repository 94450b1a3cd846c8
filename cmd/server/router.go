package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glideclouds/taskboard-api/internal/api"
	apiMiddleware "github.com/glideclouds/taskboard-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.hasher)
	taskHandler := api.NewTaskHandler(app.boardService)
	adminHandler := api.NewAdminHandler(app.boardService, app.userStore)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Board endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Post("/bulk", taskHandler.Bulk)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
					r.Post("/move", taskHandler.Move)

					r.Put("/labels", taskHandler.UpdateLabels)
					r.Put("/focus", taskHandler.UpdateFocus)
					r.Put("/time-budget", taskHandler.UpdateTimeBudget)
					r.Put("/recurrence", taskHandler.UpdateRecurrence)
					r.Put("/dependencies", taskHandler.UpdateDependencies)
					r.Put("/archived", taskHandler.UpdateArchived)

					r.Post("/checklist", taskHandler.AddChecklistItem)
					r.Put("/checklist/reorder", taskHandler.ReorderChecklist)
					r.Patch("/checklist/{itemID}", taskHandler.UpdateChecklistItem)

					r.Post("/comments", taskHandler.AddComment)
					r.Post("/decisions", taskHandler.AddDecision)

					r.Post("/timer/start", taskHandler.StartTimer)
					r.Post("/timer/stop", taskHandler.StopTimer)
				})
			})

			// Admin endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin)
				r.Get("/tasks", adminHandler.ListAllTasks)
				r.Post("/tasks/assign", adminHandler.AssignTask)
				r.Post("/tasks/assign-group", adminHandler.AssignTaskToGroup)
			})

			// AI endpoints, mounted only when a generator is configured
			if app.generator != nil {
				aiHandler := api.NewAIHandler(app.generator)
				r.Post("/ai/task-template", aiHandler.GenerateTemplate)
			}
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
