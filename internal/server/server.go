// Package server provides the HTTP server for the gesture game.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/gesturefall/internal/app"
	"github.com/ayusman/gesturefall/internal/server/api"
)

// EventSource publishes game state updates.
type EventSource interface {
	State() app.State
	Subscribe() (<-chan app.State, func())
}

// FrameSource returns the most recent camera frame as JPEG.
type FrameSource interface {
	LatestJPEG() []byte
}

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Controller api.Controller
	Events     EventSource
	Frames     FrameSource
}

// Server represents the HTTP server for the game.
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

	if ctl := s.config.Controller; ctl != nil {
		game := api.NewGameHandler(ctl)
		s.mux.Handle("/api/game", game)
		s.mux.Handle("/api/game/", game)

		train := api.NewTrainingHandler(ctl)
		s.mux.Handle("/api/training", train)
		s.mux.Handle("/api/training/", train)

		models := api.NewModelsHandler(ctl)
		s.mux.Handle("/api/models", models)
		s.mux.Handle("/api/models/", models)

		s.mux.Handle("/api/rounds", api.NewRoundsHandler(ctl))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Events))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
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

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Events != nil {
		st := s.config.Events.State()
		response["enabled"] = st.Enabled
		response["classifier"] = st.Classifier
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.HTTPServer(addr).ListenAndServe()
}

// HTTPServer returns an http.Server for this handler so callers can shut it
// down.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
