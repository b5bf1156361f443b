package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeReader serves uniform grids keyed by date; other dates are not available.
type fakeReader struct {
	thickness map[string]float64
	reads     []string
}

func newFakeReader() *fakeReader {
	return &fakeReader{thickness: make(map[string]float64)}
}

func (r *fakeReader) add(date time.Time, thickness float64) {
	r.thickness[date.Format(domain.DateLayout)] = thickness
}

func (r *fakeReader) Window(date time.Time) (time.Time, time.Time) {
	return date.AddDate(0, 0, -3), date.AddDate(0, 0, 3)
}

func (r *fakeReader) ReadDay(_ context.Context, date time.Time) (*domain.SourceGrid, error) {
	key := date.Format(domain.DateLayout)
	r.reads = append(r.reads, key)
	sit, ok := r.thickness[key]
	if !ok {
		return nil, store.ErrNotAvailable
	}
	g := &domain.SourceGrid{
		Concentration: domain.NewSourceField(),
		Thickness:     domain.NewSourceField(),
		ThicknessUnc:  domain.NewSourceField(),
	}
	for i := range g.Thickness {
		g.Concentration[i] = 100
		g.Thickness[i] = sit
		g.ThicknessUnc[i] = 0
	}
	return g, nil
}

// memoryLog is an in-memory volume log.
type memoryLog struct {
	records []*domain.VolumeRecord
}

func (l *memoryLog) Append(rec *domain.VolumeRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *memoryLog) ReadAll() ([]*domain.VolumeRecord, error) {
	return l.records, nil
}

func (l *memoryLog) Last() (*domain.VolumeRecord, error) {
	if len(l.records) == 0 {
		return nil, nil
	}
	return l.records[len(l.records)-1], nil
}

type rendered struct {
	raster *domain.Raster
	title  string
}

// memoryRenderer keeps rendered rasters by id.
type memoryRenderer struct {
	out map[string]rendered
}

func newMemoryRenderer() *memoryRenderer {
	return &memoryRenderer{out: make(map[string]rendered)}
}

func (r *memoryRenderer) Render(_ context.Context, raster *domain.Raster, title, id string) error {
	r.out[id] = rendered{raster: raster, title: title}
	return nil
}

func (r *memoryRenderer) Exists(id string) bool {
	_, ok := r.out[id]
	return ok
}

// memorySnapshots keeps saved snapshots by name.
type memorySnapshots struct {
	saved map[string]*domain.Raster
}

func (s *memorySnapshots) Save(name string, r *domain.Raster) error {
	if s.saved == nil {
		s.saved = make(map[string]*domain.Raster)
	}
	s.saved[name] = r
	return nil
}

func (s *memorySnapshots) Load(name string, _ *domain.LandMask) (*domain.Raster, error) {
	r, ok := s.saved[name]
	if !ok {
		return nil, store.ErrNotAvailable
	}
	return r, nil
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func uniformAggregator(t *testing.T, code domain.RegionCode) *domain.Aggregator {
	t.Helper()
	codes := make([]domain.RegionCode, domain.SourceSize*domain.SourceSize)
	for i := range codes {
		codes[i] = code
	}
	m, err := domain.NewRegionRaster(domain.SourceSize, domain.SourceSize, codes)
	if err != nil {
		t.Fatalf("NewRegionRaster: %v", err)
	}
	return domain.NewAggregator(domain.NewClassifier(m), domain.WithConcentrationUnc(0))
}

const testMaskSize = 11

// poleReprojector maps source cell (0,0) onto the pole and every other cell
// outside an all-ocean 11x11 raster.
func poleReprojector(t *testing.T) *domain.Reprojector {
	t.Helper()
	geo := &domain.Geolocation{Lat: domain.NewSourceField(), Lon: domain.NewSourceField()}
	for i := range geo.Lat {
		geo.Lat[i] = -90
		geo.Lon[i] = 0
	}
	geo.Lat[0] = 90

	values := make([]float64, testMaskSize*testMaskSize)
	for i := range values {
		values[i] = 1
	}
	mask, err := domain.NewLandMask(testMaskSize, values)
	if err != nil {
		t.Fatalf("NewLandMask: %v", err)
	}
	p, err := domain.NewReprojector(geo, mask)
	if err != nil {
		t.Fatalf("NewReprojector: %v", err)
	}
	return p
}

var _ store.SourceReader = (*fakeReader)(nil)
var _ store.VolumeLog = (*memoryLog)(nil)
var _ store.Renderer = (*memoryRenderer)(nil)
var _ store.SnapshotStore = (*memorySnapshots)(nil)
