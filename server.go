package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/banshee-data/path.report/internal/config"
	"github.com/banshee-data/path.report/internal/costmap"
	"github.com/banshee-data/path.report/internal/monitor"
	"github.com/banshee-data/path.report/internal/runstore"
	"github.com/banshee-data/path.report/internal/smoother"
	"github.com/banshee-data/path.report/internal/version"
)

// Server wires the smoother, costmap and run store behind HTTP.
type Server struct {
	grid  *costmap.Grid
	store *runstore.Store
	cfg   *config.SmootherConfig
}

func NewServer(grid *costmap.Grid, store *runstore.Store, cfg *config.SmootherConfig) *Server {
	return &Server{grid: grid, store: store, cfg: cfg}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/smooth", s.handleSmooth)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /debug/costmap", s.handleCostmapChart)
	mux.HandleFunc("GET /debug/runs/{id}/convergence", s.handleConvergenceChart)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// smoothRequest is the JSON body of POST /api/smooth. Config overrides are
// optional and merged over the server's base configuration.
type smoothRequest struct {
	Path   []float64              `json:"path"`
	Config *config.SmootherConfig `json:"config,omitempty"`
}

func (s *Server) handleSmooth(w http.ResponseWriter, r *http.Request) {
	var req smoothRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Path) < 6 || len(req.Path)%2 != 0 {
		writeJSONError(w, http.StatusBadRequest, "path must hold at least 3 X,Y pairs")
		return
	}

	cfg := config.Merge(s.cfg, req.Config)
	opts, err := cfg.Options()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sm := smoother.NewSmoother(cfg.Weights(), s.grid, opts)
	res, err := sm.Smooth(req.Path)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	run := &runstore.Run{
		Points:       len(req.Path) / 2,
		InitialCost:  res.InitialCost,
		FinalCost:    res.FinalCost,
		Iterations:   res.Iterations,
		Converged:    res.Converged,
		Reason:       res.Reason,
		InputPath:    req.Path,
		SmoothedPath: res.Path,
		Trace:        res.Trace,
	}
	if _, err := s.store.RecordRun(run); err != nil {
		// The smoothing result is still valid; history is best-effort. An
		// unpersisted run must not advertise an id that GET will 404 on.
		log.Printf("failed to record run: %v", err)
		run.RunID = ""
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Run(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "no such run")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to fetch run: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleCostmapChart renders the costmap with an optional run's paths
// overlaid. Debugging-only endpoint: lets a browser check what the
// smoother saw without any frontend.
func (s *Server) handleCostmapChart(w http.ResponseWriter, r *http.Request) {
	var original, smoothed []float64
	if id := r.URL.Query().Get("run_id"); id != "" {
		run, err := s.store.Run(id)
		if err == nil {
			original = run.InputPath
			smoothed = run.SmoothedPath
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := monitor.CostmapChart(w, s.grid, original, smoothed); err != nil {
		log.Printf("failed to render costmap chart: %v", err)
	}
}

func (s *Server) handleConvergenceChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.store.Run(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "no such run")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to fetch run: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := monitor.ConvergenceChart(w, id, run.Trace); err != nil {
		log.Printf("failed to render convergence chart: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
