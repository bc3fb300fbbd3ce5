package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deepserish-bk/db-security-scanner/internal/cache"
	"github.com/deepserish-bk/db-security-scanner/internal/database"
	"github.com/deepserish-bk/db-security-scanner/internal/scanner"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := s.dashboard.Execute(w, nil); err != nil {
		slog.Error("template render error", "page", "dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// --- Service Handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ready"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

// --- API Handlers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Scan API ---

func (s *Server) handleAPIScans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Targets []string `json:"targets"`
			Workers int      `json:"workers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if len(req.Targets) == 0 {
			writeError(w, http.StatusBadRequest, "targets are required")
			return
		}
		for _, t := range req.Targets {
			if _, err := os.Stat(t); err != nil {
				writeError(w, http.StatusBadRequest, "target not found: "+t)
				return
			}
		}

		scan := &database.Scan{
			Targets: scanner.EncodeTargets(req.Targets),
			Workers: req.Workers,
		}
		if err := s.runner.StartScan(scan); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, scan)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAPIScan(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/scans/")
	if idStr == "" {
		writeError(w, http.StatusBadRequest, "missing scan id")
		return
	}

	// Handle /api/scans/recent
	if idStr == "recent" {
		scans, err := s.db.ListRecentScans(20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if scans == nil {
			scans = []database.Scan{}
		}
		writeJSON(w, http.StatusOK, scans)
		return
	}

	parts := strings.SplitN(idStr, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	if len(parts) > 1 && parts[1] == "findings" {
		findings, err := s.db.GetFindingsByScan(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if findings == nil {
			findings = []database.FindingRow{}
		}
		writeJSON(w, http.StatusOK, findings)
		return
	}

	switch r.Method {
	case http.MethodGet:
		scan, err := s.db.GetScan(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if scan == nil {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeJSON(w, http.StatusOK, scan)

	case http.MethodDelete:
		s.runner.CancelScan(id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Cache API ---

func (s *Server) handleAPICacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, cache.Stats{})
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleAPICacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cache != nil {
		if err := s.cache.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
