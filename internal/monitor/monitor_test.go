package monitor

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/banshee-data/path.report/internal/costmap"
)

func testGrid(t *testing.T) *costmap.Grid {
	t.Helper()
	g, err := costmap.NewGrid(20, 20, 1.0, 0, 0)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	g.AddObstacle(10, 10, 3)
	return g
}

func TestPathPlotter_WritesPNG(t *testing.T) {
	pp, err := NewPathPlotter(t.TempDir())
	if err != nil {
		t.Fatalf("NewPathPlotter: %v", err)
	}

	original := []float64{2, 2, 8, 14, 14, 4, 18, 18}
	smoothed := []float64{2, 2, 7, 9, 13, 12, 18, 18}
	file, err := pp.PlotRun(testGrid(t), original, smoothed)
	if err != nil {
		t.Fatalf("PlotRun: %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
	if !strings.HasSuffix(file, ".png") {
		t.Errorf("file = %q, want a .png", file)
	}
}

func TestCostmapChart_RendersHTML(t *testing.T) {
	var buf bytes.Buffer
	original := []float64{2, 2, 10, 16, 18, 2}
	smoothed := []float64{2, 2, 10, 9, 18, 2}
	if err := CostmapChart(&buf, testGrid(t), original, smoothed); err != nil {
		t.Fatalf("CostmapChart: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "echarts") {
		t.Error("output does not look like an echarts document")
	}
	if !strings.Contains(out, "smoothed") {
		t.Error("output is missing the smoothed path series")
	}
}

func TestConvergenceChart_RendersHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := ConvergenceChart(&buf, "run-123", []float64{100, 40, 12, 5}); err != nil {
		t.Fatalf("ConvergenceChart: %v", err)
	}
	if !strings.Contains(buf.String(), "run-123") {
		t.Error("output is missing the run id")
	}
}
