/*
server.go - router construction

PURPOSE:
  Assembles the chi router with its middleware and route table.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP router with the standard middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/workers", h.ListWorkers)
		r.Get("/benefits", h.ListBenefits)
		r.Get("/policies", h.ListPolicies)
		r.Post("/policies", h.CreatePolicy)

		r.Post("/workers/{id}/scan", h.RunScan)
		r.Delete("/workers/{id}/scans", h.InvalidateScans)

		r.Route("/scans", func(r chi.Router) {
			r.Post("/enqueue", h.EnqueueMonth)
			r.Get("/status", h.QueueStatus)
			r.Post("/execute", h.Execute)
			r.Post("/requeue", h.RequeueFailed)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
