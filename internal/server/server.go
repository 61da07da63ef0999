// Package server provides the HTTP server behind the tool suite window.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/host"
	"github.com/ayusman/toolsuite/internal/logging"
	"github.com/ayusman/toolsuite/internal/server/api"
	"github.com/ayusman/toolsuite/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Suite     api.Suite
	Host      *host.Host
	Store     *store.Store
	Logger    hclog.Logger

	// SavePluginDir persists a plugin directory changed through the settings endpoint.
	SavePluginDir func(dir string) error
}

// Server represents the HTTP server for the tool suite.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
	log    hclog.Logger
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		log:    logging.OrNull(config.Logger).Named("http"),
		start:  time.Now(),
	}
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Suite != nil {
		plugins := api.NewPluginHandler(s.config.Suite)
		s.mux.Handle("/api/plugins", plugins)
		s.mux.Handle("/api/plugins/", plugins)
	}

	if loc, ok := s.config.Suite.(api.PluginLocation); ok {
		s.mux.Handle("/api/settings/", api.NewSettingsHandler(loc, s.config.SavePluginDir))
	}

	if s.config.Suite != nil && s.config.Host != nil {
		active := api.NewActiveHandler(s.config.Suite, s.config.Host)
		s.mux.Handle("/api/active", active)
		s.mux.Handle("/api/active/", active)
	}

	if s.config.Host != nil {
		s.events = NewEventsHandler(s.config.Host, s.log)
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/launches", api.NewLaunchHandler(s.config.Store))
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
	if s.config.Host != nil {
		response["state"] = s.config.Host.State().String()
		response["active"] = s.config.Host.ActiveName()
	}
	if s.config.Suite != nil {
		response["plugins"] = len(s.config.Suite.Plugins())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address. It returns nil after
// Shutdown, including a Shutdown that happened before the listener came up.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.log.Info("listening", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, disconnects event clients and waits for active
// requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.events != nil {
		s.events.Close()
	}
	return s.http.Shutdown(ctx)
}
