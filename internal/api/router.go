package api

import (
	"fmt"
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

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleWelcome)
		r.Get("/health", s.handleHealth)

		// House registry
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/add", s.handleAddRoom)
			r.Post("/delete", s.handleDeleteRoom)
		})
		r.Route("/devices", func(r chi.Router) {
			r.Post("/add", s.handleAddDevice)
			r.Post("/delete", s.handleDeleteDevice)
		})
		r.Get("/report", s.handleReport)

		// Devices
		r.Route("/outlet", func(r chi.Router) {
			r.Get("/", s.handleGetOutlet)
			r.Get("/info", s.handleOutletInfo)
			r.Post("/on", s.handleOutletOn)
			r.Post("/off", s.handleOutletOff)
		})
		r.Get("/thermometer", s.handleGetThermometer)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath returns the configured WebSocket route, relative to /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleWelcome greets the caller with the house name.
func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Welcome to %s!", s.house.Name()),
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
