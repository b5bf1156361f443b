package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.ngs.io/seaice-api/internal/domain"
)

const center = testMaskSize / 2

func centerValue(t *testing.T, r *domain.Raster) float64 {
	t.Helper()
	v, s := r.At(center, center)
	if s != domain.CellValid {
		t.Fatalf("expected valid center cell, got %v", s)
	}
	return v
}

func TestRenderThickness(t *testing.T) {
	date := day(2024, time.March, 7)
	reader := newFakeReader()
	reader.add(date, 1.5)
	renderer := newMemoryRenderer()

	uc := NewMapUseCase(reader, poleReprojector(t), renderer, nil, 10, nopLogger())
	if err := uc.RenderThickness(context.Background(), date); err != nil {
		t.Fatalf("RenderThickness: %v", err)
	}

	out, ok := renderer.out["cryosat-smos-thickness-20240307"]
	if !ok {
		t.Fatalf("expected thickness map, got %v", renderer.out)
	}
	if out.title != "CryoSat-SMOS sea ice thickness 7 Mar 2024" {
		t.Errorf("unexpected title %q", out.title)
	}
	if v := centerValue(t, out.raster); v != 1.5 {
		t.Errorf("expected 1.5 at the pole, got %v", v)
	}
	// Neighbours are filled from the pole.
	if v, s := out.raster.At(center, center+1); s != domain.CellValid || v != 1.5 {
		t.Errorf("expected filled neighbour 1.5, got %v (%v)", v, s)
	}
}

func TestRenderAnomaly_SkipsMissingYears(t *testing.T) {
	date := day(2024, time.March, 7)
	reader := newFakeReader()
	reader.add(date, 2.0)
	reader.add(day(2023, time.March, 7), 1.5)
	renderer := newMemoryRenderer()

	uc := NewMapUseCase(reader, poleReprojector(t), renderer, nil, 2, nopLogger())
	if err := uc.RenderAnomaly(context.Background(), date); err != nil {
		t.Fatalf("RenderAnomaly: %v", err)
	}

	out, ok := renderer.out["cryosat-smos-thickness-anomaly-20240307"]
	if !ok {
		t.Fatalf("expected anomaly map, got %v", renderer.out)
	}
	if out.title != "CryoSat-SMOS thickness anomaly 7 Mar 2024 vs 2022-2023" {
		t.Errorf("unexpected title %q", out.title)
	}
	if v := centerValue(t, out.raster); v != 0.5 {
		t.Errorf("expected anomaly 0.5 against the one available year, got %v", v)
	}
}

func TestAnomaly_NoComparisonYears(t *testing.T) {
	date := day(2024, time.March, 7)
	reader := newFakeReader()
	reader.add(date, 2.0)

	uc := NewMapUseCase(reader, poleReprojector(t), newMemoryRenderer(), nil, 3, nopLogger())
	if _, err := uc.Anomaly(context.Background(), date); !errors.Is(err, ErrNoComparisonYears) {
		t.Fatalf("expected ErrNoComparisonYears, got %v", err)
	}
}

func TestCreateAverage(t *testing.T) {
	tests := []struct {
		date     time.Time
		start    int
		wantName string
	}{
		{day(2024, time.March, 10), 2014, "cryosat-smos-avg-2014-to-2023-0310"},
		{day(2024, time.November, 2), 2013, "cryosat-smos-avg-2013-to-2022-1102"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			reader := newFakeReader()
			reader.add(day(tt.start, tt.date.Month(), tt.date.Day()), 1.0)
			reader.add(day(tt.start+9, tt.date.Month(), tt.date.Day()), 2.0)
			snapshots := &memorySnapshots{}

			uc := NewMapUseCase(reader, poleReprojector(t), newMemoryRenderer(), snapshots, 10, nopLogger())
			name, err := uc.CreateAverage(context.Background(), tt.date)
			if err != nil {
				t.Fatalf("CreateAverage: %v", err)
			}
			if name != tt.wantName {
				t.Errorf("expected name %s, got %s", tt.wantName, name)
			}
			avg, ok := snapshots.saved[name]
			if !ok {
				t.Fatal("expected snapshot to be saved")
			}
			if v := centerValue(t, avg); v != 1.5 {
				t.Errorf("expected mean 1.5 over available years, got %v", v)
			}
		})
	}
}

func TestEnsureRecentFrames(t *testing.T) {
	date := day(2024, time.March, 10)
	reader := newFakeReader()
	for d := 1; d <= 10; d++ {
		if d == 5 {
			continue
		}
		reader.add(day(2024, time.March, d), 1)
	}
	renderer := newMemoryRenderer()
	renderer.out[ThicknessID(date)] = rendered{}

	uc := NewMapUseCase(reader, poleReprojector(t), renderer, nil, 10, nopLogger())
	n, err := uc.EnsureRecentFrames(context.Background(), date, RecentFrames)
	if err != nil {
		t.Fatalf("EnsureRecentFrames: %v", err)
	}
	// Ten days minus the existing frame and the missing product.
	if n != 8 {
		t.Errorf("expected 8 rendered frames, got %d", n)
	}
	if renderer.Exists(ThicknessID(day(2024, time.March, 5))) {
		t.Error("expected no frame for the missing product")
	}
	if !renderer.Exists(ThicknessID(day(2024, time.March, 1))) {
		t.Error("expected frame for 1 March")
	}
}
