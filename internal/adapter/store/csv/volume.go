package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.ngs.io/seaice-api/internal/domain"
)

// VolumeLog is an append-only CSV file with one regional volume record per day.
type VolumeLog struct {
	path string
	mu   sync.Mutex
}

// NewVolumeLog returns a log backed by path. The file is created on first append.
func NewVolumeLog(path string) *VolumeLog {
	return &VolumeLog{path: path}
}

// Path returns the file backing the log.
func (l *VolumeLog) Path() string {
	return l.path
}

// Append writes one record, adding the header when the file is new.
func (l *VolumeLog) Append(rec *domain.VolumeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	newFile := false
	if info, err := os.Stat(l.path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat volume log: %w", err)
		}
		newFile = true
	} else if info.Size() == 0 {
		newFile = true
	}

	//nolint:gosec // G304: path comes from configuration.
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open volume log: %w", err)
	}

	w := csv.NewWriter(file)
	if newFile {
		if err := w.Write(domain.VolumeHeader()); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush volume log: %w", err)
	}
	return file.Close()
}

// ReadAll returns every record in file order. A missing file is an empty log.
func (l *VolumeLog) ReadAll() ([]*domain.VolumeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	//nolint:gosec // G304: path comes from configuration.
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open volume log: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	var records []*domain.VolumeRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read volume log line %d: %w", line, err)
		}
		if line == 1 && len(row) > 0 && row[0] == "start" {
			continue
		}
		rec, err := domain.ParseVolumeRow(row)
		if err != nil {
			return nil, fmt.Errorf("volume log line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Last returns the most recent record, or nil when the log is empty.
func (l *VolumeLog) Last() (*domain.VolumeRecord, error) {
	records, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}
