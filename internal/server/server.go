// Package server provides the HTTP server for the ID verification service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yekkaplan/tcidverify/internal/capture"
	"github.com/yekkaplan/tcidverify/internal/scan"
	"github.com/yekkaplan/tcidverify/internal/server/api"
	"github.com/yekkaplan/tcidverify/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Service   *scan.Service
}

// Server represents the HTTP server for the verification service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
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

	// Validation endpoints are stateless and always available.
	validateHandler := api.NewValidateHandler()
	s.mux.HandleFunc("/api/mrz/validate", validateHandler.HandleMRZ)
	s.mux.HandleFunc("/api/tckn/validate", validateHandler.HandleTCKN)

	s.mux.Handle("/api/quality", api.NewQualityHandler())

	// Register scan API handler if Store and Service are configured
	if s.config.Store != nil && s.config.Service != nil {
		scansHandler := api.NewScansHandler(s.config.Store, s.config.Service)
		s.mux.Handle("/api/scans", scansHandler)
		s.mux.Handle("/api/scans/", scansHandler)
	}

	// Register camera endpoints if Camera is configured
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
		s.mux.Handle("/api/quality/ws", NewQualityWSHandler(s.config.Camera))
	}

	// Serve static files if StaticDir is configured
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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
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
