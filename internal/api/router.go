package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/session", s.handleSession)

		r.Route("/instruments", func(r chi.Router) {
			r.Get("/", s.handleListInstruments)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetInstrument)
				r.Post("/reset", s.handleResetInstrument)
				r.Get("/readings", s.handleInstrumentReadings)

				r.Route("/properties/{property}", func(r chi.Router) {
					r.Get("/", s.handleGetProperty)
					r.Put("/", s.handleSetProperty)
				})
			})
		})

		r.Get("/sessions/{id}/readings", s.handleSessionReadings)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleSession returns the active recording session.
func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "recording disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.recorder.SessionID(),
		"bench_id":   s.recorder.BenchID(),
	})
}
