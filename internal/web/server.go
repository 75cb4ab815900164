package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/monitor"
	"github.com/perbu/sessmon/internal/store"
)

// Server is the HTTP server for the web UI
type Server struct {
	cfg       *config.Config
	mon       *monitor.Monitor
	store     *store.Store
	templates *Templates
	mux       *http.ServeMux
	hub       *Hub
	metrics   http.Handler
	host      string
	port      int
}

// NewServer creates a new web server. metricsHandler serves GET /metrics
// and may be nil to disable the endpoint.
func NewServer(mon *monitor.Monitor, st *store.Store, cfg *config.Config, metricsHandler http.Handler, host string, port int) (*Server, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		mon:       mon,
		store:     st,
		templates: templates,
		mux:       http.NewServeMux(),
		hub:       NewHub(),
		metrics:   metricsHandler,
		host:      host,
		port:      port,
	}

	s.registerRoutes()

	// Every published list change becomes one (coalesced) push to the
	// connected browsers.
	mon.OnRefresh(s.hub.Broadcast)

	return s, nil
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(StaticFS())))
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /help", s.handleHelp)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("POST /reload", s.handleReload)
	s.mux.HandleFunc("POST /cancel", s.handleCancel)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns the full handler chain, session tracking included.
func (s *Server) Handler() http.Handler {
	return s.sessionMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	slog.Info("starting web server", "address", s.Address())
	return http.ListenAndServe(addr, s.Handler())
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("http://%s:%d", s.host, s.port)
}
