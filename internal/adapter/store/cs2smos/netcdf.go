// Package cs2smos reads the AWI CryoSat-SMOS merged sea ice thickness product
// (25 km EASE2 north grid, NetCDF4).
package cs2smos

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/seaice-api/internal/adapter/store"
	"go.ngs.io/seaice-api/internal/domain"
)

const (
	concentrationVarName = "sea_ice_concentration"
	thicknessVarName     = "analysis_sea_ice_thickness"
	thicknessUncVarName  = "analysis_sea_ice_thickness_unc"
	regionCodeVarName    = "region_code"

	// windowDays is the half-width of the averaging window of a daily product.
	windowDays = 3

	maxCachedDays = 16
)

// reprocessedUntil is the first month published as operational ("o") rather
// than reprocessed ("r") data.
var reprocessedUntil = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// Store reads daily products from a local directory, downloading missing
// files through an optional Fetcher.
type Store struct {
	dataDir string
	fetcher store.Fetcher

	cache map[string]*domain.SourceGrid // Cache loaded grids by file name.
	order []string
	mu    sync.RWMutex // Protect cache.
}

// Option configures a Store.
type Option func(*Store)

// WithFetcher downloads files that are not present locally.
func WithFetcher(f store.Fetcher) Option {
	return func(s *Store) { s.fetcher = f }
}

// NewStore creates a new product store rooted at dataDir.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		dataDir: dataDir,
		cache:   make(map[string]*domain.SourceGrid),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the first and last day averaged into the product for date.
func (s *Store) Window(date time.Time) (start, end time.Time) {
	return date.AddDate(0, 0, -windowDays), date.AddDate(0, 0, windowDays)
}

// FileName returns the product file name for date, e.g.
// W_XX-ESA,SMOS_CS2,NH_25KM_EASE2_20230226_20230304_r_v206_01_l4sit.nc.
func FileName(date time.Time) string {
	start := date.AddDate(0, 0, -windowDays)
	end := date.AddDate(0, 0, windowDays)
	kind := "o"
	if date.Before(reprocessedUntil) {
		kind = "r"
	}
	return fmt.Sprintf("W_XX-ESA,SMOS_CS2,NH_25KM_EASE2_%s_%s_%s_v206_01_l4sit.nc",
		start.Format(domain.DateLayout), end.Format(domain.DateLayout), kind)
}

// Path returns the local path of the product for date.
func (s *Store) Path(date time.Time) string {
	return filepath.Join(s.dataDir, FileName(date))
}

// ReadDay loads the product for date, fetching it first when missing.
func (s *Store) ReadDay(ctx context.Context, date time.Time) (*domain.SourceGrid, error) {
	name := FileName(date)

	s.mu.RLock()
	if grid, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return grid, nil
	}
	s.mu.RUnlock()

	path := s.Path(date)
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if s.fetcher == nil {
			return nil, fmt.Errorf("%s: %w", date.Format(time.DateOnly), store.ErrNotAvailable)
		}
		if err := s.fetcher.Fetch(ctx, date, path); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
		}
	}

	grid, err := LoadSourceGrid(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	s.mu.Lock()
	if len(s.order) >= maxCachedDays {
		delete(s.cache, s.order[0])
		s.order = s.order[1:]
	}
	s.cache[name] = grid
	s.order = append(s.order, name)
	s.mu.Unlock()

	return grid, nil
}

// LoadSourceGrid reads concentration, thickness and thickness uncertainty
// from a product file. Fill values become NaN.
func LoadSourceGrid(path string) (*domain.SourceGrid, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	grid := &domain.SourceGrid{}
	for _, f := range []struct {
		name string
		dst  *domain.SourceField
	}{
		{concentrationVarName, &grid.Concentration},
		{thicknessVarName, &grid.Thickness},
		{thicknessUncVarName, &grid.ThicknessUnc},
	} {
		values, err := readGridVar(nc, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = values
	}
	return grid, nil
}

// LoadRegionMask reads the region_code variable of a CryoSat-2 L3C file.
// Fill values become domain.RegionUnset.
func LoadRegionMask(path string) (*domain.RegionRaster, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	values, err := readGridVar(nc, regionCodeVarName)
	if err != nil {
		return nil, err
	}
	codes := make([]domain.RegionCode, len(values))
	for i, v := range values {
		if math.IsNaN(v) || v < 0 {
			codes[i] = domain.RegionUnset
			continue
		}
		codes[i] = domain.RegionCode(v)
	}
	return domain.NewRegionRaster(domain.SourceSize, domain.SourceSize, codes)
}

// readGridVar reads a [time,] yc, xc variable with a single time step.
func readGridVar(nc netcdf.Dataset, name string) (domain.SourceField, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	total := uint64(1)
	for _, d := range dims {
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension length of %s: %w", name, err)
		}
		total *= n
	}
	if total != domain.SourceSize*domain.SourceSize {
		return nil, fmt.Errorf("variable %s has %d cells, expected %d", name, total, domain.SourceSize*domain.SourceSize)
	}

	values, err := readFloat64s(v, int(total))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if fv, ok := getFillValue(v); ok {
		for i, x := range values {
			if x == fv {
				values[i] = math.NaN()
			}
		}
	}
	return values, nil
}

// getFillValue returns the _FillValue or missing_value attribute if present as float64.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if a == (netcdf.Attr{}) {
			continue
		}
		if n, err := a.Len(); err == nil && n > 0 {
			buf64 := make([]float64, 1)
			if err := a.ReadFloat64s(buf64); err == nil {
				return buf64[0], true
			}
			buf32 := make([]float32, 1)
			if err := a.ReadFloat32s(buf32); err == nil {
				return float64(buf32[0]), true
			}
			bufi := make([]int32, 1)
			if err := a.ReadInt32s(bufi); err == nil {
				return float64(bufi[0]), true
			}
			bufb := make([]int8, 1)
			if err := a.ReadInt8s(bufb); err == nil {
				return float64(bufb[0]), true
			}
		}
	}
	return 0, false
}

// readFloat64s reads n values of any supported numeric type as float64.
func readFloat64s(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.BYTE:
		tmp := make([]int8, n)
		if err := v.ReadInt8s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}
