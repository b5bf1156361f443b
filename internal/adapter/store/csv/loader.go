// Package csv provides CSV-based loading of the fixed auxiliary rasters and
// CSV persistence of the regional volume log and average snapshots.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/seaice-api/internal/domain"
)

// Matrix is a row-major numeric matrix read from a headerless CSV file.
type Matrix struct {
	Rows, Cols int
	Values     []float64
}

// LoadMatrix reads a headerless comma-separated numeric matrix.
func LoadMatrix(path string) (*Matrix, error) {
	//nolint:gosec // G304: path comes from configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	m := &Matrix{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if m.Rows == 0 {
			m.Cols = len(record)
		}
		if len(record) != m.Cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", m.Rows, len(record), m.Cols)
		}

		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value at row %d column %d: %w", m.Rows, j, err)
			}
			m.Values = append(m.Values, v)
		}
		m.Rows++
	}

	if m.Rows == 0 {
		return nil, fmt.Errorf("no rows found in %s", path)
	}
	return m, nil
}

func loadSourceField(path string) (domain.SourceField, error) {
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	if m.Rows != domain.SourceSize || m.Cols != domain.SourceSize {
		return nil, fmt.Errorf("%s is %dx%d, expected %dx%d", path, m.Rows, m.Cols, domain.SourceSize, domain.SourceSize)
	}
	return m.Values, nil
}

// LoadGeolocation reads the fixed latitude and longitude arrays of the source grid.
func LoadGeolocation(latPath, lonPath string) (*domain.Geolocation, error) {
	lat, err := loadSourceField(latPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load latitude: %w", err)
	}
	lon, err := loadSourceField(lonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load longitude: %w", err)
	}
	return &domain.Geolocation{Lat: lat, Lon: lon}, nil
}

// LoadRegionMask reads the region-code raster; -1 marks unset cells.
func LoadRegionMask(path string) (*domain.RegionRaster, error) {
	values, err := loadSourceField(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load region mask: %w", err)
	}
	codes := make([]domain.RegionCode, len(values))
	for i, v := range values {
		codes[i] = domain.RegionCode(int(v))
	}
	return domain.NewRegionRaster(domain.SourceSize, domain.SourceSize, codes)
}

// LandMaskOptions controls how the destination land mask file is read.
type LandMaskOptions struct {
	// Trim drops this many cells from every edge.
	Trim int
	// Transpose swaps rows and columns after trimming.
	Transpose bool
}

// LoadLandMask reads the square destination land mask (0 = land).
func LoadLandMask(path string, opts LandMaskOptions) (*domain.LandMask, error) {
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load land mask: %w", err)
	}
	if m.Rows != m.Cols {
		return nil, fmt.Errorf("land mask is %dx%d, expected a square", m.Rows, m.Cols)
	}

	n := m.Rows - 2*opts.Trim
	if n <= 0 {
		return nil, fmt.Errorf("trim %d leaves no cells of a %dx%d mask", opts.Trim, m.Rows, m.Cols)
	}
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.Values[(i+opts.Trim)*m.Cols+j+opts.Trim]
			if opts.Transpose {
				values[j*n+i] = v
			} else {
				values[i*n+j] = v
			}
		}
	}
	return domain.NewLandMask(n, values)
}
