package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/path.report/internal/costmap"
	"github.com/banshee-data/path.report/internal/runstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	grid, err := costmap.NewGrid(50, 50, 1.0, 0.0, 0.0)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	store, err := runstore.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("runstore.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewServer(grid, store, nil)
}

func postSmooth(t *testing.T, mux *http.ServeMux, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/smooth", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSmoothEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	// Zigzag path across open space.
	path := []float64{5, 5, 10, 9, 15, 5, 20, 9, 25, 5}
	w := postSmooth(t, mux, smoothRequest{Path: path})

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/smooth status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var run runstore.Run
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.Points != 5 {
		t.Errorf("run.Points = %d, want 5", run.Points)
	}
	if run.FinalCost > run.InitialCost {
		t.Errorf("FinalCost = %v exceeds InitialCost = %v", run.FinalCost, run.InitialCost)
	}
	if len(run.SmoothedPath) != len(path) {
		t.Errorf("len(SmoothedPath) = %d, want %d", len(run.SmoothedPath), len(path))
	}
	if run.RunID == "" {
		t.Error("run.RunID is empty, want generated ID")
	}
}

func TestSmoothEndpointWithoutPersistence(t *testing.T) {
	grid, err := costmap.NewGrid(50, 50, 1.0, 0.0, 0.0)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	store, err := runstore.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("runstore.Open() error = %v", err)
	}
	// Closing the store makes every RecordRun fail: the endpoint must still
	// return the smoothing result, but without a run id that would 404.
	store.Close()
	mux := NewServer(grid, store, nil).ServeMux()

	path := []float64{5, 5, 10, 9, 15, 5, 20, 9, 25, 5}
	w := postSmooth(t, mux, smoothRequest{Path: path})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/smooth status = %d, want %d", w.Code, http.StatusOK)
	}

	var run runstore.Run
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if run.RunID != "" {
		t.Errorf("run.RunID = %q, want empty for an unpersisted run", run.RunID)
	}
	if len(run.SmoothedPath) != len(path) {
		t.Errorf("len(SmoothedPath) = %d, want %d", len(run.SmoothedPath), len(path))
	}
}

func TestSmoothEndpointRejectsBadPaths(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	tests := []struct {
		name string
		path []float64
	}{
		{"too short", []float64{1, 1, 2, 2}},
		{"odd length", []float64{1, 1, 2, 2, 3, 3, 4}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postSmooth(t, mux, smoothRequest{Path: tt.path})
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestSmoothEndpointRejectsBadBody(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	req := httptest.NewRequest(http.MethodPost, "/api/smooth", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRunsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	path := []float64{5, 5, 10, 9, 15, 5, 20, 9, 25, 5}
	w := postSmooth(t, mux, smoothRequest{Path: path})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/smooth status = %d", w.Code)
	}
	var recorded runstore.Run
	if err := json.NewDecoder(w.Body).Decode(&recorded); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	listW := httptest.NewRecorder()
	mux.ServeHTTP(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("GET /api/runs status = %d", listW.Code)
	}
	var runs []runstore.Run
	if err := json.NewDecoder(listW.Body).Decode(&runs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].RunID != recorded.RunID {
		t.Errorf("listed run ID = %q, want %q", runs[0].RunID, recorded.RunID)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/runs/"+recorded.RunID, nil)
	getW := httptest.NewRecorder()
	mux.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("GET /api/runs/{id} status = %d", getW.Code)
	}

	missingReq := httptest.NewRequest(http.MethodGet, "/api/runs/no-such-run", nil)
	missingW := httptest.NewRecorder()
	mux.ServeHTTP(missingW, missingReq)
	if missingW.Code != http.StatusNotFound {
		t.Errorf("GET missing run status = %d, want %d", missingW.Code, http.StatusNotFound)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("healthz body = %q, want it to contain %q", w.Body.String(), "ok")
	}
}

func TestCostmapChartEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	req := httptest.NewRequest(http.MethodGet, "/debug/costmap", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /debug/costmap status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "echarts") {
		t.Error("costmap chart body does not look like an echarts page")
	}
}
