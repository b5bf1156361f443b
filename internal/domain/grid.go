// Package domain holds the sea-ice grid model and the reprojection,
// climatology and regional-volume math that operates on it.
package domain

import (
	"fmt"
	"math"
)

const (
	// SourceSize is the row and column count of the 25 km EASE2 source grid.
	SourceSize = 432

	// CellAreaKm2 is the area of one 25 km EASE2 cell.
	CellAreaKm2 = 25.0 * 25.0
)

// SourceField is a row-major SourceSize×SourceSize field of measurements.
// NaN marks a cell without data.
type SourceField []float64

// NewSourceField returns a field where every cell is NaN.
func NewSourceField() SourceField {
	f := make(SourceField, SourceSize*SourceSize)
	for i := range f {
		f[i] = math.NaN()
	}
	return f
}

// At returns the value at (row, col).
func (f SourceField) At(row, col int) float64 {
	return f[row*SourceSize+col]
}

// Set stores v at (row, col).
func (f SourceField) Set(row, col int, v float64) {
	f[row*SourceSize+col] = v
}

// Validate checks that the field has the source grid shape.
func (f SourceField) Validate() error {
	if len(f) != SourceSize*SourceSize {
		return fmt.Errorf("source field has %d cells, expected %d", len(f), SourceSize*SourceSize)
	}
	return nil
}

// SourceGrid is one daily snapshot of the gridded product.
type SourceGrid struct {
	Concentration SourceField // Sea ice concentration in percent.
	Thickness     SourceField // Analysis sea ice thickness in meters.
	ThicknessUnc  SourceField // Thickness uncertainty in meters.
}

// Validate checks that all three fields have the source grid shape.
func (g *SourceGrid) Validate() error {
	if g == nil {
		return fmt.Errorf("source grid is nil")
	}
	for name, f := range map[string]SourceField{
		"concentration":         g.Concentration,
		"thickness":             g.Thickness,
		"thickness uncertainty": g.ThicknessUnc,
	} {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// Geolocation holds the fixed per-cell latitude and longitude of the source grid.
type Geolocation struct {
	Lat SourceField
	Lon SourceField
}

// Validate checks the shape of both coordinate arrays.
func (g *Geolocation) Validate() error {
	if err := g.Lat.Validate(); err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if err := g.Lon.Validate(); err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	return nil
}

// LandMask is the square destination mask. Zero is land, anything else ocean.
type LandMask struct {
	Size   int
	Values []float64
}

// NewLandMask wraps a row-major square mask. The size must be odd so the
// pole falls on the center cell.
func NewLandMask(size int, values []float64) (*LandMask, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("land mask size must be a positive odd number, got %d", size)
	}
	if len(values) != size*size {
		return nil, fmt.Errorf("land mask has %d cells, expected %d", len(values), size*size)
	}
	return &LandMask{Size: size, Values: values}, nil
}

// IsLand reports whether (row, col) is land.
func (m *LandMask) IsLand(row, col int) bool {
	return m.Values[row*m.Size+col] == 0
}

// Center returns the index of the pole row and column.
func (m *LandMask) Center() float64 {
	return float64(m.Size-1) / 2
}

// CellState classifies a destination cell.
type CellState uint8

const (
	// CellLand is land on the destination mask.
	CellLand CellState = iota
	// CellPending is ocean that has not received a value yet and needs interpolation.
	CellPending
	// CellValid holds a physical value. Zero is a valid value.
	CellValid
	// CellNoData is ocean that could not be filled or is hidden from display.
	CellNoData
)

func (s CellState) String() string {
	switch s {
	case CellLand:
		return "land"
	case CellPending:
		return "pending"
	case CellValid:
		return "valid"
	case CellNoData:
		return "nodata"
	default:
		return fmt.Sprintf("CellState(%d)", uint8(s))
	}
}

// Raster is the square destination grid built by the reprojector and
// refined by the climatology and gap-filling steps.
type Raster struct {
	Size   int
	Values []float64
	States []CellState
}

// NewRaster returns a raster seeded from the land mask: land cells are
// CellLand, ocean cells CellPending.
func NewRaster(mask *LandMask) *Raster {
	n := mask.Size * mask.Size
	r := &Raster{
		Size:   mask.Size,
		Values: make([]float64, n),
		States: make([]CellState, n),
	}
	for i, v := range mask.Values {
		if v == 0 {
			r.States[i] = CellLand
		} else {
			r.States[i] = CellPending
		}
	}
	return r
}

// Index returns the flat index of (row, col).
func (r *Raster) Index(row, col int) int {
	return row*r.Size + col
}

// In reports whether (row, col) lies inside the raster.
func (r *Raster) In(row, col int) bool {
	return row >= 0 && col >= 0 && row < r.Size && col < r.Size
}

// At returns the value and state at (row, col).
func (r *Raster) At(row, col int) (float64, CellState) {
	i := r.Index(row, col)
	return r.Values[i], r.States[i]
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := &Raster{
		Size:   r.Size,
		Values: make([]float64, len(r.Values)),
		States: make([]CellState, len(r.States)),
	}
	copy(c.Values, r.Values)
	copy(c.States, r.States)
	return c
}

// Equal reports whether both rasters hold identical states and values.
func (r *Raster) Equal(o *Raster) bool {
	if r.Size != o.Size {
		return false
	}
	for i := range r.States {
		if r.States[i] != o.States[i] || r.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}
