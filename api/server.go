/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the desk frontend

ROUTE GROUPS:
  /api/statement          Statement computation (pure read)
  /api/statements/*       Register, reprint, create, void
  /api/aging              Receivables aging report
  /api/integrity          Paid-flag audit
  /api/companies          Company directory
  /api/invoices/*         Invoice notes
  /api/admin/*            Reset and sync operations

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/statement", h.GetStatement)

		r.Route("/statements", func(r chi.Router) {
			r.Get("/", h.ListStatements)
			r.Post("/", h.CreateStatement)
			r.Get("/{number}", h.GetStoredStatement)
			r.Post("/{number}/void", h.VoidStatement)
		})

		r.Get("/aging", h.GetAging)
		r.Get("/integrity", h.GetIntegrity)
		r.Get("/companies", h.ListCompanies)

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{number}/note", h.GetInvoiceNote)
			r.Put("/{number}/note", h.PutInvoiceNote)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset-statements", h.ResetStatements)
			r.Post("/sync", h.TriggerSync)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
