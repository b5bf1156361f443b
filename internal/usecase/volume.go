package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/domain"
)

// updateLag is how many days behind today the newest product can be.
const updateLag = 2

var (
	// ErrEmptyLog means there is no record to continue the volume log from.
	ErrEmptyLog = errors.New("volume log is empty")

	// ErrUnknownRegion means a requested region key is not a log column.
	ErrUnknownRegion = errors.New("unknown region")
)

// VolumeResponse is one day of the volume log.
type VolumeResponse struct {
	Start    string             `json:"start"`
	End      string             `json:"end"`
	Regions  map[string]float64 `json:"regions_km3"`
	Other    float64            `json:"other_km3"`
	Total    float64            `json:"total_km3"`
	TotalUnc float64            `json:"total_unc_km3"`
}

// RegionPoint is one day of a single region's volume.
type RegionPoint struct {
	Start     string  `json:"start"`
	End       string  `json:"end"`
	VolumeKm3 float64 `json:"volume_km3"`
}

// RegionSeriesResponse is the time series of one region.
type RegionSeriesResponse struct {
	Region string        `json:"region"`
	Name   string        `json:"name"`
	Points []RegionPoint `json:"points"`
}

// UpdateResult summarizes a volume log update.
type UpdateResult struct {
	Appended int
	// LastDate is the center date of the newest record in the log.
	LastDate time.Time
}

// VolumeUseCase maintains and queries the regional volume log.
type VolumeUseCase struct {
	reader     store.SourceReader
	volumeLog  store.VolumeLog
	aggregator *domain.Aggregator
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewVolumeUseCase creates a new volume use case.
func NewVolumeUseCase(reader store.SourceReader, volumeLog store.VolumeLog, aggregator *domain.Aggregator, logger *zap.SugaredLogger) *VolumeUseCase {
	return &VolumeUseCase{
		reader:     reader,
		volumeLog:  volumeLog,
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
}

// centerOf returns the date a record's averaging window is centered on.
func centerOf(rec *domain.VolumeRecord) time.Time {
	return rec.Start.Add(rec.End.Sub(rec.Start) / 2)
}

// ProcessDay aggregates the product centered on date and appends it to the
// log. Dates at or before the last logged record are rejected.
func (u *VolumeUseCase) ProcessDay(ctx context.Context, date time.Time) (*domain.VolumeRecord, error) {
	start, end := u.reader.Window(date)

	last, err := u.volumeLog.Last()
	if err != nil {
		return nil, fmt.Errorf("failed to read volume log: %w", err)
	}
	if last != nil && !start.After(last.Start) {
		return nil, fmt.Errorf("%s is not after %s: %w",
			start.Format(domain.DateLayout), last.Start.Format(domain.DateLayout), domain.ErrDuplicateDate)
	}

	grid, err := u.reader.ReadDay(ctx, date)
	if err != nil {
		return nil, err
	}
	rec, err := u.aggregator.AggregateDay(grid, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", date.Format(time.DateOnly), err)
	}
	if err := u.volumeLog.Append(rec); err != nil {
		return nil, fmt.Errorf("failed to append volume record: %w", err)
	}

	u.logger.Infow("Appended volume record",
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
		"total_km3", rec.Total)
	return rec, nil
}

// Update appends one record per day after the last logged one, while the
// product's window ends before the current time minus two days. It stops at
// the first product that is not available.
func (u *VolumeUseCase) Update(ctx context.Context) (*UpdateResult, error) {
	last, err := u.volumeLog.Last()
	if err != nil {
		return nil, fmt.Errorf("failed to read volume log: %w", err)
	}
	if last == nil {
		return nil, ErrEmptyLog
	}

	limit := u.now().AddDate(0, 0, -updateLag)
	result := &UpdateResult{LastDate: centerOf(last)}

	for date := result.LastDate.AddDate(0, 0, 1); ; date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, end := u.reader.Window(date); !end.Before(limit) {
			break
		}

		if _, err := u.ProcessDay(ctx, date); err != nil {
			if errors.Is(err, store.ErrNotAvailable) {
				u.logger.Warnw("Product not available, stopping update", "date", date.Format(time.DateOnly))
				break
			}
			return result, err
		}
		result.Appended++
		result.LastDate = date
	}
	return result, nil
}

// Volumes returns the records whose window starts within [from, to]. Zero
// bounds are open.
func (u *VolumeUseCase) Volumes(from, to time.Time) ([]VolumeResponse, error) {
	records, err := u.volumeLog.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read volume log: %w", err)
	}

	out := make([]VolumeResponse, 0, len(records))
	for _, rec := range records {
		if !from.IsZero() && rec.Start.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Start.After(to) {
			continue
		}
		out = append(out, toVolumeResponse(rec))
	}
	return out, nil
}

// Latest returns the newest record.
func (u *VolumeUseCase) Latest() (*VolumeResponse, error) {
	last, err := u.volumeLog.Last()
	if err != nil {
		return nil, fmt.Errorf("failed to read volume log: %w", err)
	}
	if last == nil {
		return nil, ErrEmptyLog
	}
	resp := toVolumeResponse(last)
	return &resp, nil
}

// RegionSeries returns the volume time series of one region column. The
// pseudo regions "other" and "total" are accepted too.
func (u *VolumeUseCase) RegionSeries(key string) (*RegionSeriesResponse, error) {
	var pick func(*domain.VolumeRecord) float64
	resp := &RegionSeriesResponse{Region: key}

	switch key {
	case "other":
		resp.Name = "Other"
		pick = (*domain.VolumeRecord).OtherColumn
	case "total":
		resp.Name = "Total"
		pick = func(r *domain.VolumeRecord) float64 { return r.Total }
	default:
		region, ok := domain.LookupRegion(key)
		if !ok || !domain.HasColumn(region.Code) {
			return nil, fmt.Errorf("%q: %w", key, ErrUnknownRegion)
		}
		resp.Name = region.Name
		pick = func(r *domain.VolumeRecord) float64 { return r.Column(region.Code) }
	}

	records, err := u.volumeLog.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read volume log: %w", err)
	}
	resp.Points = make([]RegionPoint, 0, len(records))
	for _, rec := range records {
		resp.Points = append(resp.Points, RegionPoint{
			Start:     rec.Start.Format(time.DateOnly),
			End:       rec.End.Format(time.DateOnly),
			VolumeKm3: pick(rec),
		})
	}
	return resp, nil
}

func toVolumeResponse(rec *domain.VolumeRecord) VolumeResponse {
	regions := make(map[string]float64, len(domain.VolumeColumns))
	for _, code := range domain.VolumeColumns {
		regions[code.String()] = rec.Column(code)
	}
	return VolumeResponse{
		Start:    rec.Start.Format(time.DateOnly),
		End:      rec.End.Format(time.DateOnly),
		Regions:  regions,
		Other:    rec.OtherColumn(),
		Total:    rec.Total,
		TotalUnc: rec.TotalUnc,
	}
}
