// Package server provides the HTTP control surface for stylecam.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	App       *app.App
	StaticDir string
	Logger    logrus.FieldLogger
}

// Server represents the HTTP server for the stylecam control panel.
type Server struct {
	config Config
	log    logrus.FieldLogger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		log:    config.Logger.WithField("component", "server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		styles := api.NewStylesHandler(a.Registry())
		s.mux.Handle("/api/styles", styles)
		s.mux.Handle("/api/styles/", styles)

		pipeline := api.NewPipelineHandler(a, s.config.Logger)
		s.mux.Handle("/api/pipeline", pipeline)
		s.mux.Handle("/api/pipeline/", pipeline)

		snapshots := api.NewSnapshotsHandler(a)
		s.mux.Handle("/api/snapshots", snapshots)
		s.mux.Handle("/api/snapshots/", snapshots)

		presets := api.NewPresetsHandler(a)
		s.mux.Handle("/api/presets", presets)
		s.mux.Handle("/api/presets/", presets)

		s.mux.Handle("/api/stream", NewStreamHandler(a))
		s.mux.Handle("/api/events", NewEventsHandler(a, s.config.Logger))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["running"] = s.config.App.IsRunning()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Info("Control panel listening")
	return http.ListenAndServe(addr, s)
}
