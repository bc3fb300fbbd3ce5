package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deepserish-bk/db-security-scanner/internal/cache"
	"github.com/deepserish-bk/db-security-scanner/internal/config"
	"github.com/deepserish-bk/db-security-scanner/internal/database"
	"github.com/deepserish-bk/db-security-scanner/internal/metrics"
	"github.com/deepserish-bk/db-security-scanner/internal/scanner"
)

type Server struct {
	cfg       *config.Config
	db        *database.DB
	cache     *cache.Cache
	hub       *Hub
	runner    *scanner.Runner
	mux       *http.ServeMux
	dashboard *template.Template
}

// New wires a Server around an engine. The cache and publisher may be nil
// when the corresponding features are disabled in the config.
func New(cfg *config.Config, db *database.DB, c *cache.Cache, engine *scanner.Engine, m *metrics.Metrics, pub scanner.Publisher) (*Server, error) {
	hub := NewHub()

	s := &Server{
		cfg:    cfg,
		db:     db,
		cache:  c,
		hub:    hub,
		runner: scanner.NewRunner(db, hub, engine, m, pub),
		mux:    http.NewServeMux(),
	}

	tmpl, err := template.New("dashboard").Parse(dashboardHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing dashboard template: %w", err)
	}
	s.dashboard = tmpl

	s.registerRoutes()
	return s, nil
}

func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	slog.Info("starting server", "addr", addr)

	handler := recoveryMiddleware(securityHeaders(loggingMiddleware(s.mux)))
	return http.ListenAndServe(addr, handler)
}

func (s *Server) registerRoutes() {
	// Pages
	s.mux.HandleFunc("/", s.handleDashboard)

	// Service endpoints
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/readyz", s.handleReadyz)

	// API
	s.mux.HandleFunc("/api/stats", s.handleAPIStats)
	s.mux.HandleFunc("/api/scans", s.handleAPIScans)
	s.mux.HandleFunc("/api/scans/", s.handleAPIScan)
	s.mux.HandleFunc("/api/cache/stats", s.handleAPICacheStats)
	s.mux.HandleFunc("/api/cache/clear", s.handleAPICacheClear)

	// WebSocket
	s.mux.HandleFunc("/ws", s.handleWebSocket)
}
