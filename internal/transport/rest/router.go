package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/transport/middleware"
)

// RouterConfig wires the operator API.
type RouterConfig struct {
	Logger    *slog.Logger
	Health    *HealthHandler
	Requests  *PatronRequestHandler
	Tracking  *TrackingHandler
	Admin     *AdminHandler
	Auth      middleware.Middleware
	CORS      middleware.Middleware
	RateLimit middleware.Middleware
}

// NewRouter builds the HTTP routes. Health probes are public; everything
// else requires a bearer token. Rollback and manual tracking runs are
// limited to admins.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(), middleware.Logger(cfg.Logger), middleware.Recovery(cfg.Logger))
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}

	r.Get("/live", cfg.Health.Live)
	r.Get("/ready", cfg.Health.Ready)
	r.Get("/health", cfg.Health.Health)

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Use(cfg.Auth)

		r.Route("/patrons/requests", func(r chi.Router) {
			r.Post("/place", cfg.Requests.Place)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Requests.Get)
				r.Get("/audits", cfg.Requests.Audits)
				r.Get("/supplier-requests", cfg.Requests.SupplierRequests)
				r.Post("/update", cfg.Requests.Update)
				r.With(middleware.RequireAdmin()).Post("/rollback", cfg.Requests.Rollback)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/tracking/run", cfg.Tracking.Run)
			r.Get("/admin/requests/stats", cfg.Admin.RequestStats)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
