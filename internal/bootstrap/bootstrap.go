// Package bootstrap builds the stores and constant rasters shared by the
// commands from a Config.
package bootstrap

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.ngs.io/seaice-api/internal/adapter/fetch"
	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/adapter/store/cs2smos"
	"go.ngs.io/seaice-api/internal/adapter/store/csv"
	"go.ngs.io/seaice-api/internal/adapter/store/sqlite"
	"go.ngs.io/seaice-api/internal/config"
	"go.ngs.io/seaice-api/internal/domain"
	"go.ngs.io/seaice-api/internal/log"
)

// landMaskTrim is the border dropped from the destination land mask file.
const landMaskTrim = 1

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenVolumeLog returns the SQLite log when VolumeDB is set and the CSV log
// otherwise. The closer must be called when done.
func OpenVolumeLog(cfg *config.Config) (store.VolumeLog, io.Closer, error) {
	if cfg.VolumeDB != "" {
		l, err := sqlite.NewVolumeLog(cfg.VolumeDB)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	}
	return csv.NewVolumeLog(cfg.VolumeLog), nopCloser{}, nil
}

// NewSourceStore returns the daily product store, downloading from
// SourceBaseURL when it is set.
func NewSourceStore(cfg *config.Config) *cs2smos.Store {
	var opts []cs2smos.Option
	if cfg.SourceBaseURL != "" {
		fetcher := fetch.NewHTTPFetcher(cfg.SourceBaseURL, fetch.WithNotify(func(err error, wait time.Duration) {
			log.GetSugaredLogger().Warnw("Download failed, retrying", "error", err, "wait", wait)
		}))
		opts = append(opts, cs2smos.WithFetcher(fetcher))
	}
	return cs2smos.NewStore(cfg.DataDir, opts...)
}

// LoadRegionMask reads a NetCDF (.nc) or CSV region raster.
func LoadRegionMask(path string) (*domain.RegionRaster, error) {
	if strings.EqualFold(filepath.Ext(path), ".nc") {
		return cs2smos.LoadRegionMask(path)
	}
	return csv.LoadRegionMask(path)
}

// NewAggregator loads the region mask and builds the volume aggregator.
func NewAggregator(cfg *config.Config) (*domain.Aggregator, error) {
	mask, err := LoadRegionMask(cfg.RegionMaskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load region mask: %w", err)
	}
	return domain.NewAggregator(domain.NewClassifier(mask), domain.WithConcentrationUnc(cfg.ConcentrationUnc)), nil
}

// NewReprojector loads the geolocation and land mask.
func NewReprojector(cfg *config.Config) (*domain.Reprojector, error) {
	geo, err := csv.LoadGeolocation(cfg.LatPath(), cfg.LonPath())
	if err != nil {
		return nil, err
	}
	mask, err := csv.LoadLandMask(cfg.LandMaskPath(), csv.LandMaskOptions{
		Trim:      landMaskTrim,
		Transpose: cfg.LandMaskTranspose,
	})
	if err != nil {
		return nil, err
	}
	return domain.NewReprojector(geo, mask)
}
