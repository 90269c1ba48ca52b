/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /api/events           Event ingestion
  /api/users/*          Identity registry reads
  /api/platforms/*      Platform reads
  /api/leases/*         Lease, schedule and proposal reads
  /api/scenarios/*      Demo scenarios
  /api/checkpoint       Stream position
  /api/stats, /api/reset
  /healthz              Liveness
  /metrics              Prometheus exposition (when a handler is given)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/rentindex/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", h.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/events", h.IngestEvents)

		r.Get("/users/{id}", h.GetUser)
		r.Get("/platforms/{id}", h.GetPlatform)

		// Lease routes
		r.Route("/leases/{id}", func(r chi.Router) {
			r.Get("/", h.GetLease)
			r.Get("/rent-payments", h.ListRentPayments)
			r.Get("/rent-payments/{index}", h.GetRentPayment)
			r.Get("/proposals/{tenant}", h.GetProposal)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/{name}/load", h.LoadScenario)
		})

		// Admin routes
		r.Get("/checkpoint", h.GetCheckpoint)
		r.Get("/stats", h.GetStats)
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
