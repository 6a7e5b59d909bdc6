// Package server provides the HTTP server for the mudra gesture inference service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/session"
)

// Config holds the server configuration.
type Config struct {
	Engine   *inference.Engine
	Registry *session.Registry
	Log      *zap.Logger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log = zap.NewNop()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register the streaming endpoint if a registry is configured
	if s.config.Registry != nil {
		streamHandler := NewStreamHandler(s.config.Registry, s.config.Log)
		s.mux.Handle("/api/stream", streamHandler)
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

	device := ""
	if s.config.Engine != nil {
		device = s.config.Engine.Device()
	}

	response := map[string]interface{}{
		"status":          "ok",
		"model_loaded":    s.config.Engine != nil,
		"device":          device,
		"frames_required": session.FramesRequired,
		"uptime":          time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
