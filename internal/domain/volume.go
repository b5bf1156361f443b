package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultConcentrationUnc is the concentration uncertainty assumed for every cell.
const DefaultConcentrationUnc = 0.05

// DateLayout formats record dates the way the product file names do.
const DateLayout = "20060102"

// VolumeColumns lists the regions that get their own column in the volume
// log, in log order. St. Lawrence is folded into "other".
var VolumeColumns = []RegionCode{
	RegionOkhotsk,
	RegionBering,
	RegionBeaufort,
	RegionChukchi,
	RegionESS,
	RegionLaptev,
	RegionKara,
	RegionBarents,
	RegionGreenland,
	RegionCAB,
	RegionCAA,
	RegionBaffin,
	RegionHudson,
}

// VolumeRecord is one day of regional ice volume in km³.
type VolumeRecord struct {
	Start, End time.Time
	Regions    map[RegionCode]float64 // Every known code, including St. Lawrence.
	Other      float64                // Codes outside the named set.
	Total      float64
	TotalUnc   float64
}

// Column returns the volume of one region.
func (r *VolumeRecord) Column(code RegionCode) float64 {
	return r.Regions[code]
}

// OtherColumn returns the "other" column: unknown codes plus known regions
// that have no column of their own.
func (r *VolumeRecord) OtherColumn() float64 {
	other := r.Other
	for code, v := range r.Regions {
		if !HasColumn(code) {
			other += v
		}
	}
	return other
}

// HasColumn reports whether code has its own column in the volume log.
func HasColumn(code RegionCode) bool {
	for _, c := range VolumeColumns {
		if c == code {
			return true
		}
	}
	return false
}

// Row formats the record in log field order with two decimals per number.
func (r *VolumeRecord) Row() []string {
	row := make([]string, 0, 5+len(VolumeColumns))
	row = append(row, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	for _, code := range VolumeColumns {
		row = append(row, formatVolume(r.Column(code)))
	}
	return append(row,
		formatVolume(r.OtherColumn()),
		formatVolume(r.Total),
		formatVolume(r.TotalUnc),
	)
}

// VolumeHeader returns the log header matching Row.
func VolumeHeader() []string {
	h := []string{"start", "end"}
	for _, code := range VolumeColumns {
		h = append(h, code.String())
	}
	return append(h, "other", "total", "volume_unc")
}

// ParseVolumeRow is the inverse of Row. Values of St. Lawrence come back
// inside Other.
func ParseVolumeRow(row []string) (*VolumeRecord, error) {
	want := len(VolumeHeader())
	if len(row) != want {
		return nil, fmt.Errorf("volume row has %d fields, expected %d", len(row), want)
	}

	start, err := time.Parse(DateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", row[0], err)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(row[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", row[1], err)
	}

	values := make([]float64, len(row)-2)
	for i, field := range row[2:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in column %d: %w", i+2, err)
		}
		values[i] = v
	}

	rec := &VolumeRecord{
		Start:   start,
		End:     end,
		Regions: make(map[RegionCode]float64, len(VolumeColumns)),
	}
	for i, code := range VolumeColumns {
		rec.Regions[code] = values[i]
	}
	n := len(VolumeColumns)
	rec.Other = values[n]
	rec.Total = values[n+1]
	rec.TotalUnc = values[n+2]
	return rec, nil
}

func formatVolume(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Aggregator sums per-cell ice volume into regions.
type Aggregator struct {
	classifier       *Classifier
	cellArea         float64
	concentrationUnc float64
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithConcentrationUnc overrides the assumed concentration uncertainty.
func WithConcentrationUnc(u float64) AggregatorOption {
	return func(a *Aggregator) { a.concentrationUnc = u }
}

// NewAggregator creates an aggregator that classifies cells with c.
func NewAggregator(c *Classifier, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		classifier:       c,
		cellArea:         CellAreaKm2,
		concentrationUnc: DefaultConcentrationUnc,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AggregateDay computes the regional volume record of one daily grid.
// Cells with no concentration or thickness are skipped, not counted as zero.
func (a *Aggregator) AggregateDay(day *SourceGrid, start, end time.Time) (*VolumeRecord, error) {
	if err := day.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source grid: %w", err)
	}

	rec := &VolumeRecord{
		Start:   start,
		End:     end,
		Regions: make(map[RegionCode]float64, len(regions)),
	}
	for _, r := range regions {
		rec.Regions[r.Code] = 0
	}

	for row := 0; row < SourceSize; row++ {
		for col := 0; col < SourceSize; col++ {
			sic := day.Concentration.At(row, col)
			sit := day.Thickness.At(row, col)
			volume := (sic / 100) * sit * a.cellArea
			if math.IsNaN(volume) || math.IsInf(volume, 0) {
				continue
			}

			unc := volume * math.Sqrt(sq(a.concentrationUnc/sic)+sq(day.ThicknessUnc.At(row, col)/sit))
			if !math.IsNaN(unc) && !math.IsInf(unc, 0) {
				rec.TotalUnc += unc / 1000
			}

			entry := scalar.Round(volume/1000, 3)
			rec.Total += entry

			code, err := a.classifier.RegionCodeFor(row, col)
			if err != nil {
				return nil, fmt.Errorf("failed to classify cell: %w", err)
			}
			if code.Known() {
				rec.Regions[code] += entry
			} else {
				rec.Other += entry
			}
		}
	}
	return rec, nil
}

func sq(x float64) float64 { return x * x }
