// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the settings shared by the server and the daily batch.
type Config struct {
	Port      string
	DataDir   string // Downloaded daily products.
	AuxDir    string // Geolocation and land mask CSV files.
	OutputDir string // Rendered maps and average snapshots.

	VolumeLog string // CSV volume log.
	VolumeDB  string // Optional SQLite volume log; replaces the CSV log when set.

	SourceBaseURL  string // Optional download mirror.
	RegionMaskPath string // NetCDF (region_code) or CSV region raster.

	LandMaskTranspose bool
	AnomalyYears      int
	ConcentrationUnc  float64

	CORSAllowedOrigins []string
	Debug              bool
}

// LatPath is the latitude CSV of the source grid.
func (c *Config) LatPath() string { return filepath.Join(c.AuxDir, "lat.csv") }

// LonPath is the longitude CSV of the source grid.
func (c *Config) LonPath() string { return filepath.Join(c.AuxDir, "lon.csv") }

// LandMaskPath is the destination land mask CSV.
func (c *Config) LandMaskPath() string { return filepath.Join(c.AuxDir, "landmask.csv") }

// AverageDir holds multi-year average snapshots.
func (c *Config) AverageDir() string { return filepath.Join(c.OutputDir, "avg") }

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DataDir:        getEnv("DATA_DIR", "./data/LATEST"),
		AuxDir:         getEnv("AUX_DIR", "./data/aux"),
		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		VolumeLog:      getEnv("VOLUME_LOG", "./cryosat-smos-regional-volume.csv"),
		VolumeDB:       getEnv("VOLUME_DB", ""),
		SourceBaseURL:  getEnv("SOURCE_BASE_URL", ""),
		RegionMaskPath: getEnv("REGION_MASK_PATH", "./data/aux/region_mask.nc"),
	}

	var err error
	if cfg.LandMaskTranspose, err = strconv.ParseBool(getEnv("LANDMASK_TRANSPOSE", "true")); err != nil {
		return nil, fmt.Errorf("invalid LANDMASK_TRANSPOSE: %w", err)
	}
	if cfg.Debug, err = strconv.ParseBool(getEnv("DEBUG", "false")); err != nil {
		return nil, fmt.Errorf("invalid DEBUG: %w", err)
	}
	if cfg.AnomalyYears, err = strconv.Atoi(getEnv("ANOMALY_YEARS", "10")); err != nil {
		return nil, fmt.Errorf("invalid ANOMALY_YEARS: %w", err)
	}
	if cfg.AnomalyYears <= 0 {
		return nil, fmt.Errorf("ANOMALY_YEARS must be positive, got %d", cfg.AnomalyYears)
	}
	if cfg.ConcentrationUnc, err = strconv.ParseFloat(getEnv("CONCENTRATION_UNC", "0.05"), 64); err != nil {
		return nil, fmt.Errorf("invalid CONCENTRATION_UNC: %w", err)
	}

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
