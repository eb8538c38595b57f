// Package monitor renders smoothing runs for humans: PNG plots of the
// costmap with path overlays, and HTML debug charts served by the API.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/path.report/internal/costmap"
)

// PathPlotter writes costmap/path overlay plots to an output directory.
type PathPlotter struct {
	outputDir string
}

// NewPathPlotter creates a plotter writing into outputDir, creating the
// directory if needed.
func NewPathPlotter(outputDir string) (*PathPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &PathPlotter{outputDir: outputDir}, nil
}

// PlotRun renders the costmap as a heatmap with the original and smoothed
// paths drawn over it, and returns the written file's path. The filename
// is timestamped so successive runs never overwrite each other.
func (pp *PathPlotter) PlotRun(grid *costmap.Grid, original, smoothed []float64) (string, error) {
	p := plot.New()
	p.Title.Text = "Path smoothing"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	heatmap := plotter.NewHeatMap(costmapXYZ{grid}, palette.Heat(12, 1))
	p.Add(heatmap)

	origLine, err := pathLine(original)
	if err != nil {
		return "", err
	}
	origLine.Color = color.RGBA{R: 0x40, G: 0x40, B: 0xff, A: 0xff}
	origLine.Width = vg.Points(1)
	origLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(origLine)
	p.Legend.Add("original", origLine)

	smoothLine, err := pathLine(smoothed)
	if err != nil {
		return "", err
	}
	smoothLine.Color = color.RGBA{G: 0xa0, A: 0xff}
	smoothLine.Width = vg.Points(2)
	p.Add(smoothLine)
	p.Legend.Add("smoothed", smoothLine)

	file := filepath.Join(pp.outputDir,
		fmt.Sprintf("smooth_%s.png", time.Now().Format("20060102_150405")))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save plot: %w", err)
	}
	return file, nil
}

// pathLine converts a flat X,Y vector to a line plotter.
func pathLine(path []float64) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(path)/2)
	for i := range pts {
		pts[i].X = path[2*i]
		pts[i].Y = path[2*i+1]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build path line: %w", err)
	}
	return line, nil
}

// costmapXYZ adapts a costmap.Grid to the heatmap's grid interface.
type costmapXYZ struct {
	g *costmap.Grid
}

func (c costmapXYZ) Dims() (cols, rows int) { return c.g.SizeX(), c.g.SizeY() }

func (c costmapXYZ) Z(col, row int) float64 { return c.g.Cost(col, row) }

func (c costmapXYZ) X(col int) float64 {
	wx, _ := c.g.MapToWorld(col, 0)
	return wx
}

func (c costmapXYZ) Y(row int) float64 {
	_, wy := c.g.MapToWorld(0, row)
	return wy
}

var _ plotter.GridXYZ = costmapXYZ{}
