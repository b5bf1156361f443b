// Package main runs the daily sea ice volume update and map generation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.ngs.io/seaice-api/internal/adapter/render"
	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/adapter/store/csv"
	"go.ngs.io/seaice-api/internal/bootstrap"
	"go.ngs.io/seaice-api/internal/config"
	"go.ngs.io/seaice-api/internal/domain"
	"go.ngs.io/seaice-api/internal/log"
	"go.ngs.io/seaice-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	dateStr := flag.String("date", "", "Process a single day (YYYY-MM-DD) instead of updating the log")
	averageStr := flag.String("average", "", "Create the ten-year average snapshot for a day (YYYY-MM-DD)")
	skipMaps := flag.Bool("skip-maps", false, "Only update the volume log")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("seaice-daily version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := log.Init(cfg.Debug); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dateStr, *averageStr, *skipMaps); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, dateStr, averageStr string, skipMaps bool) error {
	logger := log.GetSugaredLogger()
	reader := bootstrap.NewSourceStore(cfg)

	var maps *usecase.MapUseCase
	if !skipMaps || averageStr != "" {
		reprojector, err := bootstrap.NewReprojector(cfg)
		if err != nil {
			return fmt.Errorf("failed to load reprojection data: %w", err)
		}
		renderer := render.NewNetCDFRenderer(cfg.OutputDir)
		snapshots := csv.NewAverageStore(cfg.AverageDir())
		maps = usecase.NewMapUseCase(reader, reprojector, renderer, snapshots, cfg.AnomalyYears, logger)
	}

	if averageStr != "" {
		date, err := time.Parse(time.DateOnly, averageStr)
		if err != nil {
			return fmt.Errorf("invalid -average date: %w", err)
		}
		_, err = maps.CreateAverage(ctx, date)
		return err
	}

	aggregator, err := bootstrap.NewAggregator(cfg)
	if err != nil {
		return err
	}
	volumeLog, closer, err := bootstrap.OpenVolumeLog(cfg)
	if err != nil {
		return fmt.Errorf("failed to open volume log: %w", err)
	}
	defer func() { _ = closer.Close() }()
	volumes := usecase.NewVolumeUseCase(reader, volumeLog, aggregator, logger)

	var mapDate time.Time
	if dateStr != "" {
		date, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		if _, err := volumes.ProcessDay(ctx, date); err != nil {
			if !errors.Is(err, domain.ErrDuplicateDate) {
				return err
			}
			logger.Warnw("Day already logged", "date", dateStr)
		}
		mapDate = date
	} else {
		result, err := volumes.Update(ctx)
		if err != nil {
			// An incomplete region mask aborts aggregation, not the maps of
			// the days already logged.
			if result == nil || !errors.Is(err, domain.ErrRegionNotFound) {
				return err
			}
			logger.Errorw("Volume aggregation aborted", "error", err)
		}
		logger.Infow("Volume log updated",
			"appended", result.Appended,
			"last_date", result.LastDate.Format(time.DateOnly))
		mapDate = result.LastDate
	}

	if skipMaps {
		return nil
	}
	return renderMaps(ctx, maps, mapDate)
}

// renderMaps draws the thickness and anomaly maps of date and fills in the
// recent thickness frames.
func renderMaps(ctx context.Context, maps *usecase.MapUseCase, date time.Time) error {
	logger := log.GetSugaredLogger()

	if err := maps.RenderThickness(ctx, date); err != nil {
		return fmt.Errorf("failed to render thickness map: %w", err)
	}
	if err := maps.RenderAnomaly(ctx, date); err != nil {
		if !errors.Is(err, usecase.ErrNoComparisonYears) && !errors.Is(err, store.ErrNotAvailable) {
			return fmt.Errorf("failed to render anomaly map: %w", err)
		}
		logger.Warnw("Anomaly map skipped", "date", date.Format(time.DateOnly), "error", err)
	}
	n, err := maps.EnsureRecentFrames(ctx, date, usecase.RecentFrames)
	if err != nil {
		return fmt.Errorf("failed to render recent frames: %w", err)
	}
	logger.Infow("Recent frames ready", "rendered", n)
	return nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Sea Ice Daily v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  seaice-daily [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help               Show this help message")
	fmt.Println("  -version            Show version information")
	fmt.Println("  -date YYYY-MM-DD    Process a single day instead of updating the log")
	fmt.Println("  -average YYYY-MM-DD Create the ten-year average snapshot for a day")
	fmt.Println("  -skip-maps          Only update the volume log")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  DATA_DIR             Daily product directory (default: ./data/LATEST)")
	fmt.Println("  AUX_DIR              lat.csv, lon.csv and landmask.csv (default: ./data/aux)")
	fmt.Println("  OUTPUT_DIR           Rendered maps and snapshots (default: ./output)")
	fmt.Println("  VOLUME_LOG           CSV volume log (default: ./cryosat-smos-regional-volume.csv)")
	fmt.Println("  VOLUME_DB            SQLite volume log, replaces VOLUME_LOG when set")
	fmt.Println("  SOURCE_BASE_URL      HTTP mirror of the product archive (optional)")
	fmt.Println("  REGION_MASK_PATH     Region mask, NetCDF or CSV (default: ./data/aux/region_mask.nc)")
	fmt.Println("  LANDMASK_TRANSPOSE   Transpose the land mask on load (default: true)")
	fmt.Println("  ANOMALY_YEARS        Comparison years for anomaly maps (default: 10)")
	fmt.Println("  CONCENTRATION_UNC    Concentration uncertainty per cell (default: 0.05)")
	fmt.Println("  DEBUG                Development logging (default: false)")
	fmt.Println()
}
