package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/seaice-api/internal/adapter/interp"
	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/domain"
)

const (
	// averageYears is the length of an average snapshot baseline.
	averageYears = 10

	// RecentFrames is the number of daily thickness maps kept up to date.
	RecentFrames = 10
)

// ErrNoComparisonYears means none of the baseline years has a product.
var ErrNoComparisonYears = errors.New("no comparison year available")

// MapUseCase builds thickness and anomaly maps from daily products.
type MapUseCase struct {
	reader       store.SourceReader
	reprojector  *domain.Reprojector
	renderer     store.Renderer
	snapshots    store.SnapshotStore
	anomalyYears int
	logger       *zap.SugaredLogger
}

// NewMapUseCase creates a new map use case. snapshots may be nil when
// average snapshots are not needed.
func NewMapUseCase(reader store.SourceReader, reprojector *domain.Reprojector, renderer store.Renderer, snapshots store.SnapshotStore, anomalyYears int, logger *zap.SugaredLogger) *MapUseCase {
	return &MapUseCase{
		reader:       reader,
		reprojector:  reprojector,
		renderer:     renderer,
		snapshots:    snapshots,
		anomalyYears: anomalyYears,
		logger:       logger,
	}
}

// ThicknessID names the thickness map of date.
func ThicknessID(date time.Time) string {
	return "cryosat-smos-thickness-" + date.Format(domain.DateLayout)
}

// AnomalyID names the anomaly map of date.
func AnomalyID(date time.Time) string {
	return "cryosat-smos-thickness-anomaly-" + date.Format(domain.DateLayout)
}

// AverageName names the average snapshot starting in startYear for the
// calendar day of date.
func AverageName(startYear int, date time.Time) string {
	return fmt.Sprintf("cryosat-smos-avg-%d-to-%d-%s", startYear, startYear+averageYears-1, date.Format("0102"))
}

// ThicknessTitle is the map title of date, e.g. "CryoSat-SMOS sea ice thickness 7 Mar 2024".
func ThicknessTitle(date time.Time) string {
	return "CryoSat-SMOS sea ice thickness " + date.Format("2 Jan 2006")
}

// AnomalyTitle is the anomaly map title of date against years [from, to].
func AnomalyTitle(date time.Time, from, to int) string {
	return fmt.Sprintf("CryoSat-SMOS thickness anomaly %s vs %d-%d", date.Format("2 Jan 2006"), from, to)
}

// sameDay returns the calendar day of date in another year.
func sameDay(date time.Time, year int) time.Time {
	return time.Date(year, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// reproject reads the product of day and maps its thickness onto the
// destination raster. The tiebreak uses dayOfYear of the map being built
// and the product's own year.
func (u *MapUseCase) reproject(ctx context.Context, day time.Time, dayOfYear int) (*domain.Raster, error) {
	grid, err := u.reader.ReadDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return u.reprojector.Reproject(grid.Thickness, dayOfYear, day.Year()), nil
}

// Thickness returns the gap-filled thickness raster of date.
func (u *MapUseCase) Thickness(ctx context.Context, date time.Time) (*domain.Raster, error) {
	raster, err := u.reproject(ctx, date, date.YearDay())
	if err != nil {
		return nil, err
	}
	return interp.NewFiller(interp.DefaultOptions()).Fill(raster), nil
}

// RenderThickness renders the thickness map of date.
func (u *MapUseCase) RenderThickness(ctx context.Context, date time.Time) error {
	raster, err := u.Thickness(ctx, date)
	if err != nil {
		return err
	}
	if err := u.renderer.Render(ctx, raster, ThicknessTitle(date), ThicknessID(date)); err != nil {
		return fmt.Errorf("failed to render thickness map: %w", err)
	}
	u.logger.Infow("Rendered thickness map", "date", date.Format(time.DateOnly))
	return nil
}

// comparisonYears reprojects the same calendar day of the given years.
// Missing products are logged and skipped.
func (u *MapUseCase) comparisonYears(ctx context.Context, date time.Time, years []int) ([]*domain.Raster, error) {
	var rasters []*domain.Raster
	for _, year := range years {
		day := sameDay(date, year)
		r, err := u.reproject(ctx, day, date.YearDay())
		if err != nil {
			if errors.Is(err, store.ErrNotAvailable) {
				u.logger.Warnw("Skipping comparison year", "date", day.Format(time.DateOnly), "error", err)
				continue
			}
			return nil, err
		}
		rasters = append(rasters, r)
	}
	if len(rasters) == 0 {
		return nil, ErrNoComparisonYears
	}
	return rasters, nil
}

// Anomaly returns the gap-filled anomaly of date against the same day of
// the preceding years.
func (u *MapUseCase) Anomaly(ctx context.Context, date time.Time) (*domain.Raster, error) {
	current, err := u.reproject(ctx, date, date.YearDay())
	if err != nil {
		return nil, err
	}

	years := make([]int, u.anomalyYears)
	for k := range years {
		years[k] = date.Year() - k - 1
	}
	baseline, err := u.comparisonYears(ctx, date, years)
	if err != nil {
		return nil, err
	}

	anomaly, err := domain.Anomaly(current, baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to compute anomaly: %w", err)
	}
	return interp.NewFiller(interp.AnomalyOptions()).Fill(anomaly), nil
}

// RenderAnomaly renders the anomaly map of date.
func (u *MapUseCase) RenderAnomaly(ctx context.Context, date time.Time) error {
	raster, err := u.Anomaly(ctx, date)
	if err != nil {
		return err
	}
	title := AnomalyTitle(date, date.Year()-u.anomalyYears, date.Year()-1)
	if err := u.renderer.Render(ctx, raster, title, AnomalyID(date)); err != nil {
		return fmt.Errorf("failed to render anomaly map: %w", err)
	}
	u.logger.Infow("Rendered anomaly map", "date", date.Format(time.DateOnly))
	return nil
}

// AverageStartYear is the first year of the average snapshot for date.
func AverageStartYear(date time.Time) int {
	if date.Month() <= time.April {
		return 2014
	}
	return 2013
}

// CreateAverage computes the ten-year average thickness of the calendar day
// of date and saves it as a snapshot. It returns the snapshot name.
func (u *MapUseCase) CreateAverage(ctx context.Context, date time.Time) (string, error) {
	if u.snapshots == nil {
		return "", fmt.Errorf("no snapshot store configured")
	}

	start := AverageStartYear(date)
	years := make([]int, averageYears)
	for k := range years {
		years[k] = start + k
	}
	rasters, err := u.comparisonYears(ctx, date, years)
	if err != nil {
		return "", err
	}

	avg, err := domain.Baseline(rasters)
	if err != nil {
		return "", fmt.Errorf("failed to compute average: %w", err)
	}
	name := AverageName(start, date)
	if err := u.snapshots.Save(name, avg); err != nil {
		return "", fmt.Errorf("failed to save average snapshot: %w", err)
	}
	u.logger.Infow("Saved average snapshot", "name", name, "years", len(rasters))
	return name, nil
}

// EnsureRecentFrames renders the thickness maps of the n days ending at date
// that have not been rendered yet. Days without a product are skipped.
func (u *MapUseCase) EnsureRecentFrames(ctx context.Context, date time.Time, n int) (int, error) {
	rendered := 0
	for k := 0; k < n; k++ {
		day := date.AddDate(0, 0, -k)
		if u.renderer.Exists(ThicknessID(day)) {
			continue
		}
		if err := u.RenderThickness(ctx, day); err != nil {
			if errors.Is(err, store.ErrNotAvailable) {
				u.logger.Warnw("Skipping frame", "date", day.Format(time.DateOnly), "error", err)
				continue
			}
			return rendered, err
		}
		rendered++
	}
	return rendered, nil
}
