package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/path.report/internal/config"
	"github.com/banshee-data/path.report/internal/costmap"
	"github.com/banshee-data/path.report/internal/runstore"
	"github.com/banshee-data/path.report/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbPath        = flag.String("db", DB_FILE, "Path to the run history database")
	configPath    = flag.String("config", "", "Path to a smoother config JSON file (optional)")
	costmapPath   = flag.String("costmap", "", "Path to a costmap grid JSON file (optional; a demo grid is used when empty)")
	migrationsDir = flag.String("migrations", "", "Run migrations from this directory before serving (optional)")
)

const DB_FILE = "smoothing_runs.db"

// demoGrid builds a small open grid with a pair of inflated obstacles, enough
// to exercise the smoother when no costmap file is supplied.
func demoGrid() *costmap.Grid {
	grid, err := costmap.NewGrid(100, 100, 0.1, 0.0, 0.0)
	if err != nil {
		log.Fatalf("failed to build demo costmap: %v", err)
	}
	grid.AddObstacle(30, 50, 8)
	grid.AddObstacle(65, 40, 10)
	return grid
}

// Main
func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var grid *costmap.Grid
	if *costmapPath != "" {
		var err error
		grid, err = costmap.Load(*costmapPath)
		if err != nil {
			log.Fatalf("failed to load costmap: %v", err)
		}
	} else {
		grid = demoGrid()
	}

	var cfg *config.SmootherConfig
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	store, err := runstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if *migrationsDir != "" {
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := NewServer(grid, store, cfg).ServeMux()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:    *listen,
		Handler: h,
	}

	// Start server in a goroutine so it doesn't block
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()
	log.Printf("path.report %s listening on %s", version.String(), *listen)

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Printf("Graceful shutdown complete")
}
