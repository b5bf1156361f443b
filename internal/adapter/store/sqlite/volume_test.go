package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.ngs.io/seaice-api/internal/domain"
)

func record(day int, total float64) *domain.VolumeRecord {
	start := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	rec := &domain.VolumeRecord{
		Start:   start,
		End:     start.AddDate(0, 0, 6),
		Regions: map[domain.RegionCode]float64{domain.RegionCAB: total / 2},
		Total:   total,
	}
	return rec
}

func openLog(t *testing.T) *VolumeLog {
	t.Helper()
	l, err := NewVolumeLog(filepath.Join(t.TempDir(), "db", "volume.db"))
	if err != nil {
		t.Fatalf("NewVolumeLog: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestVolumeLog_AppendReadAll(t *testing.T) {
	l := openLog(t)

	last, err := l.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last != nil {
		t.Fatalf("expected empty log, got %+v", last)
	}

	// Insert out of order; reads come back sorted by start date.
	for _, day := range []int{3, 1, 2} {
		if err := l.Append(record(day, float64(day)*1000.5)); err != nil {
			t.Fatalf("Append day %d: %v", day, err)
		}
	}

	records, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		day := i + 1
		if rec.Start.Day() != day {
			t.Errorf("record %d: expected start day %d, got %v", i, day, rec.Start)
		}
		if want := float64(day) * 1000.5; rec.Total != want {
			t.Errorf("record %d: expected total %v, got %v", i, want, rec.Total)
		}
		if want := float64(day) * 1000.5 / 2; rec.Column(domain.RegionCAB) != want {
			t.Errorf("record %d: expected cab %v, got %v", i, want, rec.Column(domain.RegionCAB))
		}
	}

	last, err = l.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.Start.Day() != 3 {
		t.Errorf("expected last record on day 3, got %v", last.Start)
	}
}

func TestVolumeLog_DuplicateDate(t *testing.T) {
	l := openLog(t)
	if err := l.Append(record(5, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := l.Append(record(5, 2))
	if !errors.Is(err, domain.ErrDuplicateDate) {
		t.Errorf("expected ErrDuplicateDate, got %v", err)
	}
}
