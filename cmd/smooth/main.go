package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/path.report/internal/config"
	"github.com/banshee-data/path.report/internal/costmap"
	"github.com/banshee-data/path.report/internal/monitor"
	"github.com/banshee-data/path.report/internal/runstore"
	"github.com/banshee-data/path.report/internal/smoother"
)

// smooth runs the path smoother once from the command line: read a costmap
// and a path, optimise, print the before/after summary. Useful for tuning
// weights offline without standing up the HTTP service.
func main() {
	var costmapPath string
	var pathFile string
	var configPath string
	var dbPath string
	var plotDir string
	var demo bool

	flag.StringVar(&costmapPath, "costmap", "", "path to a costmap grid JSON file")
	flag.StringVar(&pathFile, "path", "", "path to a JSON file holding a flat [x0,y0,x1,y1,...] array")
	flag.StringVar(&configPath, "config", "", "path to a smoother config JSON file")
	flag.StringVar(&dbPath, "db", "", "record the run in this sqlite db (optional)")
	flag.StringVar(&plotDir, "plot", "", "write a PNG of the run into this directory (optional)")
	flag.BoolVar(&demo, "demo", false, "run a built-in demo scenario instead of reading files")
	flag.Parse()

	var grid *costmap.Grid
	var path []float64
	var err error

	if demo {
		grid, path = demoScenario()
	} else {
		if costmapPath == "" || pathFile == "" {
			log.Fatalf("either -demo or both -costmap and -path must be provided")
		}
		grid, err = costmap.Load(costmapPath)
		if err != nil {
			log.Fatalf("load costmap: %v", err)
		}
		path, err = loadPath(pathFile)
		if err != nil {
			log.Fatalf("load path: %v", err)
		}
	}

	var cfg *config.SmootherConfig
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	sm := smoother.NewSmoother(cfg.Weights(), grid, opts)
	res, err := sm.Smooth(path)
	if err != nil {
		log.Fatalf("smoothing failed: %v", err)
	}

	fmt.Printf("points:       %d\n", len(path)/2)
	fmt.Printf("initial cost: %.6g\n", res.InitialCost)
	fmt.Printf("final cost:   %.6g\n", res.FinalCost)
	fmt.Printf("iterations:   %d\n", res.Iterations)
	fmt.Printf("evaluations:  %d\n", res.Evaluations)
	fmt.Printf("converged:    %v (%s)\n", res.Converged, res.Reason)

	if dbPath != "" {
		store, err := runstore.Open(dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()

		id, err := store.RecordRun(&runstore.Run{
			Points:       len(path) / 2,
			InitialCost:  res.InitialCost,
			FinalCost:    res.FinalCost,
			Iterations:   res.Iterations,
			Converged:    res.Converged,
			Reason:       res.Reason,
			InputPath:    path,
			SmoothedPath: res.Path,
			Trace:        res.Trace,
		})
		if err != nil {
			log.Fatalf("record run: %v", err)
		}
		fmt.Printf("recorded run %s\n", id)
	}

	if plotDir != "" {
		pp, err := monitor.NewPathPlotter(plotDir)
		if err != nil {
			log.Fatalf("create plotter: %v", err)
		}
		file, err := pp.PlotRun(grid, path, res.Path)
		if err != nil {
			log.Fatalf("plot run: %v", err)
		}
		fmt.Printf("wrote plot %s\n", file)
	}
}

func loadPath(file string) ([]float64, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var path []float64
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, fmt.Errorf("failed to parse path file: %w", err)
	}
	if len(path) < 6 || len(path)%2 != 0 {
		return nil, fmt.Errorf("path must hold at least 3 X,Y pairs, got %d values", len(path))
	}
	return path, nil
}

// demoScenario: a zigzag route past two inflated obstacles on a 10m grid.
func demoScenario() (*costmap.Grid, []float64) {
	grid, err := costmap.NewGrid(100, 100, 0.1, 0.0, 0.0)
	if err != nil {
		log.Fatalf("build demo grid: %v", err)
	}
	grid.AddObstacle(30, 55, 8)
	grid.AddObstacle(65, 45, 10)

	path := []float64{
		1.0, 5.0,
		2.0, 5.8,
		3.0, 4.6,
		4.0, 5.6,
		5.0, 4.4,
		6.0, 5.4,
		7.0, 4.8,
		8.0, 5.2,
		9.0, 5.0,
	}
	return grid, path
}
