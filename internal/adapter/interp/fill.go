// Package interp fills gaps in reprojected rasters and prepares them for display.
package interp

import (
	"math"

	"go.ngs.io/seaice-api/internal/domain"
)

const (
	// DefaultMaxRadius bounds the nearest-neighbour search for pending cells.
	DefaultMaxRadius = 9

	// DefaultThicknessMax is the top of the thickness display range in meters.
	DefaultThicknessMax = 4.0

	// DefaultAnomalyMax is the half-width of the anomaly display range in meters.
	DefaultAnomalyMax = 1.0

	anomalyEpsilon    = 0.001
	thicknessMinShown = 0.05
	anomalyClamp      = 0.99
	thicknessHeadroom = 0.06
)

// Options controls gap filling and display thresholds.
type Options struct {
	Anomaly      bool
	MaxRadius    int
	ThicknessMax float64
	AnomalyMax   float64
}

// DefaultOptions returns the absolute-thickness settings.
func DefaultOptions() Options {
	return Options{
		MaxRadius:    DefaultMaxRadius,
		ThicknessMax: DefaultThicknessMax,
		AnomalyMax:   DefaultAnomalyMax,
	}
}

// AnomalyOptions returns the anomaly settings.
func AnomalyOptions() Options {
	o := DefaultOptions()
	o.Anomaly = true
	return o
}

// Filler replaces pending cells with their nearest valid neighbour and
// applies the display thresholds.
type Filler struct {
	opts Options
}

// NewFiller creates a filler.
func NewFiller(opts Options) *Filler {
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = DefaultMaxRadius
	}
	if opts.ThicknessMax == 0 {
		opts.ThicknessMax = DefaultThicknessMax
	}
	if opts.AnomalyMax == 0 {
		opts.AnomalyMax = DefaultAnomalyMax
	}
	return &Filler{opts: opts}
}

// Fill returns a filled copy of src. Neighbours are always read from src, so
// values filled earlier in the pass do not propagate further.
//
// Land becomes -AnomalyMax in anomaly mode and is otherwise left alone.
// Pending cells take the first valid neighbour found by the ring search and
// become no-data when none is found. Values too small to show are hidden as
// no-data, never zeroed, and the rest are clamped to the display range.
func (f *Filler) Fill(src *domain.Raster) *domain.Raster {
	out := src.Clone()
	search := domain.RingSearch{
		Rows:      src.Size,
		Cols:      src.Size,
		MaxRadius: f.opts.MaxRadius,
		Accept: func(row, col int) bool {
			_, s := src.At(row, col)
			return s == domain.CellValid
		},
	}

	for row := 0; row < src.Size; row++ {
		for col := 0; col < src.Size; col++ {
			i := out.Index(row, col)
			switch out.States[i] {
			case domain.CellLand:
				if f.opts.Anomaly {
					out.Values[i] = -f.opts.AnomalyMax
				}
				continue
			case domain.CellNoData:
				continue
			case domain.CellPending:
				cell, _, ok := search.First(row, col)
				if !ok {
					out.States[i] = domain.CellNoData
					out.Values[i] = 0
					continue
				}
				out.Values[i], _ = src.At(cell.Row, cell.Col)
				out.States[i] = domain.CellValid
			}
			f.threshold(out, i)
		}
	}
	return out
}

// threshold hides or clamps the valid cell at i.
func (f *Filler) threshold(r *domain.Raster, i int) {
	v := r.Values[i]
	if f.opts.Anomaly {
		if math.Abs(v) < anomalyEpsilon {
			r.States[i] = domain.CellNoData
			r.Values[i] = 0
			return
		}
		limit := f.opts.AnomalyMax * anomalyClamp
		r.Values[i] = math.Max(-limit, math.Min(limit, v))
		return
	}

	if v < thicknessMinShown {
		r.States[i] = domain.CellNoData
		r.Values[i] = 0
		return
	}
	r.Values[i] = math.Min(v, f.opts.ThicknessMax-thicknessHeadroom)
}
