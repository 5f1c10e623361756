/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, tagged on error logs
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests from the intake web form

ROUTE GROUPS:
  /api/estimates/*      Estimates and printable statements
  /api/allocations      Single-charge split
  /api/catalog/*        Fee schedule management
  /api/scenarios/*      Canned plan scenarios
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware. Deploy behind the office network or a
  reverse proxy that authenticates staff.

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Estimate-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Estimate routes
		r.Route("/estimates", func(r chi.Router) {
			r.Post("/", h.CreateEstimate)
			r.Post("/statement", h.CreateStatement)
		})

		r.Post("/allocations", h.CreateAllocation)

		// Fee schedule routes
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", h.ListCatalogItems)
			r.Post("/items", h.SaveCatalogItem)
			r.Get("/items/{code}", h.GetCatalogItem)
			r.Delete("/items/{code}", h.DeleteCatalogItem)
			r.Get("/items/{code}/alternates", h.ListAlternates)
			r.Post("/items/{code}/alternates", h.SaveAlternate)
			r.Post("/reset", h.ResetCatalog)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/estimate", h.RunScenario)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>CPAP Cost-Share Estimator</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>CPAP Cost-Share Estimator API</h1>
<h2>API Endpoints</h2>
<ul>
<li>POST /api/estimates - Run an estimate</li>
<li>POST /api/estimates/statement - Printable PDF statement</li>
<li>POST /api/allocations - Split a single charge</li>
<li><a href="/api/catalog/items">/api/catalog/items</a> - Fee schedule</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Plan scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
