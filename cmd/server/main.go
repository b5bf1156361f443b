// Package main provides the sea ice volume API HTTP server.
package main

import (
	"flag"
	"fmt"

	"go.ngs.io/seaice-api/internal/bootstrap"
	"go.ngs.io/seaice-api/internal/config"
	httpHandler "go.ngs.io/seaice-api/internal/http"
	"go.ngs.io/seaice-api/internal/log"
	"go.ngs.io/seaice-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("seaice-api version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := log.Init(cfg.Debug); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	logger.Infow("Starting sea ice API server", "port", cfg.Port)

	// Initialize stores.
	volumeLog, closer, err := bootstrap.OpenVolumeLog(cfg)
	if err != nil {
		log.Fatalf("Failed to open volume log: %v", err)
	}
	defer func() { _ = closer.Close() }()
	if cfg.VolumeDB != "" {
		logger.Infow("Using SQLite volume log", "path", cfg.VolumeDB)
	} else {
		logger.Infow("Using CSV volume log", "path", cfg.VolumeLog)
	}

	// The server only reads the log, so it needs no source reader or aggregator.
	volumeUC := usecase.NewVolumeUseCase(nil, volumeLog, nil, logger)

	// Setup router.
	router := httpHandler.SetupRouter(volumeUC, cfg.CORSAllowedOrigins, logger)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Infof("Server listening on %s", addr)
	logger.Infof("Health check: http://localhost:%s/health", cfg.Port)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Sea Ice API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  seaice-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  VOLUME_LOG              CSV volume log (default: ./cryosat-smos-regional-volume.csv)")
	fmt.Println("  VOLUME_DB               SQLite volume log, replaces VOLUME_LOG when set")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  DEBUG                   Development logging (default: false)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                        Health check")
	fmt.Println("  GET /v1/regions                    List regions")
	fmt.Println("  GET /v1/volumes                    Regional volumes (optional from, to)")
	fmt.Println("  GET /v1/volumes/latest             Most recent record")
	fmt.Println("  GET /v1/volumes/regions/:region    Time series of one region, other or total")
	fmt.Println()
}
