package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maxpert/pathglob/telemetry"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the admin API router
func NewRouter(handlers *AdminHandlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Liveness stays open for probes
	r.Get("/health", handlers.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)
		r.Get("/subscriptions", handlers.handleSubscriptions)
		r.Post("/evaluate", handlers.handleEvaluate)
		r.Get("/stats", handlers.handleStats)
		r.Get("/tap", handlers.handleTap)
	})

	if metrics := telemetry.GetMetricsHandler(); metrics != nil {
		r.With(AuthMiddleware).Method(http.MethodGet, "/metrics", metrics)
	}

	return r
}

// RegisterRoutes mounts the admin API under /admin on mux
func RegisterRoutes(mux *http.ServeMux, handlers *AdminHandlers) {
	r := NewRouter(handlers)

	mux.Handle("/admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently))
	mux.Handle("/admin/", http.StripPrefix("/admin", r))

	log.Info().Msg("Admin endpoints enabled at /admin/*")
}
