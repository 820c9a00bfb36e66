package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/yumyai/unirefcmp/internal/config"
	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/handler"
)

// Version is set via -ldflags at build time.
var Version = "0.1.0"

func main() {

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Establish logger
	if err := logger.InitLogger(logger.ParseLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if !cfg.EnvFileLoaded {
		logger.Debug("No .env found, using local environment")
	}

	app := newCLIApp(cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}

func NewRouter(appctx *handler.AppContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /compare", appctx.ComparePage)
	mux.HandleFunc("GET /jobs/{job_id}", appctx.JobPage)

	// API routes
	mux.HandleFunc("GET /api/v1/health", handler.HealthCheck)
	mux.HandleFunc("GET /api/v1/map", appctx.MapHandler)
	mux.HandleFunc("GET /api/v1/compare", appctx.CompareAPI)
	mux.HandleFunc("POST /api/v1/query", appctx.StartQueryHandler)
	mux.HandleFunc("GET /api/v1/jobs", appctx.ListJobsHandler)
	mux.HandleFunc("GET /api/v1/jobs/{job_id}", appctx.GetJobHandler)

	// Get sequences
	mux.HandleFunc("GET /sequence/by-cluster", appctx.GetSequenceByClusterIDHandler)

	return mux
}
