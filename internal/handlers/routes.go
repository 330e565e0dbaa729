package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestTimeout bounds every request, including synchronous order renders
const RequestTimeout = 2 * time.Minute

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// Long-lived connections stay outside the request timeout
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		// Static files (served from embedded filesystem)
		if h.staticServer != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
		}

		// Desk page
		r.Get("/", h.handleIndex)

		// Artifacts
		r.Get("/badges/{file}", h.handleBadgeFile)

		// Ledger API (public, read-only)
		r.Get("/api/badges", h.handleListBadges)
		r.Get("/api/badges/{code}", h.handleGetBadge)
		r.Get("/api/runs", h.handleListRuns)
		r.Get("/api/runs/{id}", h.handleGetRun)
		r.Get("/api/runs/{id}/failures", h.handleListFailures)
		r.Get("/api/stats", h.handleGetStats)

		// Auth routes (public)
		r.Post("/api/login", h.handleLogin)
		r.Post("/api/logout", h.handleLogout)

		// Desk API (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuthAPI)
			r.Get("/api/session", h.handleSession)
			r.Get("/api/sessions", h.handleListSessions)
			r.Post("/api/orders/{code}/badges", h.handleRenderOrder)
		})
	})

	return r
}
