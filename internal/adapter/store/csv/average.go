package csv

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.ngs.io/seaice-api/internal/domain"
)

// Snapshot cells are stored as integer millimetres. Cells without a value
// use noDataMillimetres.
const noDataMillimetres = 10000

// AverageStore keeps average snapshots as CSV files in one directory.
type AverageStore struct {
	dir string
}

// NewAverageStore creates a snapshot store rooted at dir.
func NewAverageStore(dir string) *AverageStore {
	return &AverageStore{dir: dir}
}

// Path returns the file of the named snapshot.
func (s *AverageStore) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Save writes the named snapshot.
func (s *AverageStore) Save(name string, r *domain.Raster) error {
	return SaveAverage(s.Path(name), r)
}

// Load reads the named snapshot onto mask.
func (s *AverageStore) Load(name string, mask *domain.LandMask) (*domain.Raster, error) {
	return LoadAverage(s.Path(name), mask)
}

// SaveAverage writes a raster as a square matrix of millimetres. Land is 0.
func SaveAverage(path string, r *domain.Raster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	//nolint:gosec // G304: path comes from configuration.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	w := csv.NewWriter(file)
	row := make([]string, r.Size)
	for i := 0; i < r.Size; i++ {
		for j := 0; j < r.Size; j++ {
			v, s := r.At(i, j)
			var mm int
			switch s {
			case domain.CellLand:
				mm = 0
			case domain.CellValid:
				mm = int(math.Round(1000 * v))
			default:
				mm = noDataMillimetres
			}
			row[j] = strconv.Itoa(mm)
		}
		if err := w.Write(row); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write snapshot row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return file.Close()
}

// LoadAverage reads a snapshot written by SaveAverage back onto mask.
// Ocean cells holding noDataMillimetres come back as no-data.
func LoadAverage(path string, mask *domain.LandMask) (*domain.Raster, error) {
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	if m.Rows != mask.Size || m.Cols != mask.Size {
		return nil, fmt.Errorf("snapshot is %dx%d, expected %dx%d", m.Rows, m.Cols, mask.Size, mask.Size)
	}

	r := domain.NewRaster(mask)
	for i, mm := range m.Values {
		if r.States[i] == domain.CellLand {
			continue
		}
		if mm == noDataMillimetres {
			r.States[i] = domain.CellNoData
			continue
		}
		r.Values[i] = mm / 1000
		r.States[i] = domain.CellValid
	}
	return r, nil
}
