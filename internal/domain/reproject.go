package domain

import (
	"fmt"
	"math"
)

// Reprojector maps source-grid fields onto the polar destination raster.
type Reprojector struct {
	geo  *Geolocation
	mask *LandMask
}

// NewReprojector creates a reprojector. geo and mask are process-wide
// constants loaded once by the caller and never mutated.
func NewReprojector(geo *Geolocation, mask *LandMask) (*Reprojector, error) {
	if err := geo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geolocation: %w", err)
	}
	if mask == nil {
		return nil, fmt.Errorf("land mask is required")
	}
	return &Reprojector{geo: geo, mask: mask}, nil
}

// Mask returns the destination land mask.
func (p *Reprojector) Mask() *LandMask {
	return p.mask
}

// Project returns the destination cell of a latitude/longitude in degrees.
//
//	radius = 360·√2·sin(π(90−lat)/360)
//	row    = round(c + radius·sin(π·lon/180))
//	col    = round(c + radius·cos(π·lon/180))
func (p *Reprojector) Project(lat, lon float64) (row, col int) {
	c := p.mask.Center()
	radius := 360 * math.Sqrt2 * math.Sin(math.Pi*(90-lat)/360)
	lonRad := math.Pi * lon / 180
	row = int(math.Round(c + radius*math.Sin(lonRad)))
	col = int(math.Round(c + radius*math.Cos(lonRad)))
	return row, col
}

// Tiebreak is the floor applied to every contribution for the given day. It
// keeps a cell fed only with zeros distinguishable from an empty one and is
// far below any physical thickness.
func Tiebreak(year, dayOfYear int) float64 {
	return float64(year+dayOfYear-2000) / 200000.0
}

// Reproject maps one year's field onto a new raster. Source cells that land
// outside the raster or on land are dropped; that is expected near the
// domain edge. NaN source values count as zero. Colliding contributions are
// averaged.
func (p *Reprojector) Reproject(field SourceField, dayOfYear, year int) *Raster {
	acc := NewAccumulator(p.mask)
	floor := Tiebreak(year, dayOfYear)

	for i := 0; i < SourceSize; i++ {
		for j := 0; j < SourceSize; j++ {
			row, col := p.Project(p.geo.Lat.At(i, j), p.geo.Lon.At(i, j))
			v := field.At(i, j)
			if math.IsNaN(v) {
				v = 0
			}
			acc.Add(row, col, math.Max(v, floor))
		}
	}
	return acc.Mean()
}

// Accumulator collects contributions per destination cell as an explicit
// (sum, count) pair so the mean does not depend on arrival order.
type Accumulator struct {
	mask  *LandMask
	sum   []float64
	count []int
}

// NewAccumulator returns an empty accumulator over the mask.
func NewAccumulator(mask *LandMask) *Accumulator {
	n := mask.Size * mask.Size
	return &Accumulator{
		mask:  mask,
		sum:   make([]float64, n),
		count: make([]int, n),
	}
}

// Add records a contribution. It reports false when (row, col) is outside
// the mask or on land, in which case nothing is recorded.
func (a *Accumulator) Add(row, col int, v float64) bool {
	n := a.mask.Size
	if row < 0 || col < 0 || row >= n || col >= n || a.mask.IsLand(row, col) {
		return false
	}
	i := row*n + col
	a.sum[i] += v
	a.count[i]++
	return true
}

// Count returns the number of contributions recorded at (row, col).
func (a *Accumulator) Count(row, col int) int {
	return a.count[row*a.mask.Size+col]
}

// Mean builds the raster: land stays land, ocean cells without contributions
// are pending, the rest hold the arithmetic mean of their contributions.
func (a *Accumulator) Mean() *Raster {
	r := NewRaster(a.mask)
	for i, n := range a.count {
		if n == 0 || r.States[i] == CellLand {
			continue
		}
		r.Values[i] = a.sum[i] / float64(n)
		r.States[i] = CellValid
	}
	return r
}
