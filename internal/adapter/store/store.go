// Package store defines the collaborators the sea-ice pipeline reads from and writes to.
package store

import (
	"context"
	"errors"
	"time"

	"go.ngs.io/seaice-api/internal/domain"
)

// ErrNotAvailable means the product for a date cannot be retrieved.
var ErrNotAvailable = errors.New("product not available for date")

// SourceReader loads daily source grids.
type SourceReader interface {
	// ReadDay returns the grid centered on date. A missing product is
	// reported as ErrNotAvailable, never substituted.
	ReadDay(ctx context.Context, date time.Time) (*domain.SourceGrid, error)

	// Window returns the start and end dates covered by the product for date.
	Window(date time.Time) (start, end time.Time)
}

// Fetcher downloads the product for a date to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time, dst string) error
}

// VolumeLog is the append-only regional volume time series.
type VolumeLog interface {
	// Append adds a record after the last one.
	Append(rec *domain.VolumeRecord) error

	// ReadAll returns every record in log order.
	ReadAll() ([]*domain.VolumeRecord, error)

	// Last returns the most recent record, or nil when the log is empty.
	Last() (*domain.VolumeRecord, error)
}

// Renderer turns a finished raster into an output artifact.
type Renderer interface {
	Render(ctx context.Context, r *domain.Raster, title, id string) error

	// Exists reports whether an artifact with id has already been rendered.
	Exists(id string) bool
}

// SnapshotStore keeps named multi-year average rasters.
type SnapshotStore interface {
	Save(name string, r *domain.Raster) error
	Load(name string, mask *domain.LandMask) (*domain.Raster, error)
}
