package domain

import (
	"fmt"
	"strings"
)

// RegionCode identifies an Arctic sub-basin in the CryoSat-2 auxiliary region mask.
type RegionCode int

// Region codes used by the CryoSat-2 L3C region mask.
const (
	RegionUnset      RegionCode = -1
	RegionCAB        RegionCode = 1
	RegionBeaufort   RegionCode = 2
	RegionChukchi    RegionCode = 3
	RegionESS        RegionCode = 4
	RegionLaptev     RegionCode = 5
	RegionKara       RegionCode = 6
	RegionBarents    RegionCode = 7
	RegionGreenland  RegionCode = 8
	RegionBaffin     RegionCode = 9
	RegionStLawrence RegionCode = 10
	RegionHudson     RegionCode = 11
	RegionCAA        RegionCode = 12
	RegionBering     RegionCode = 13
	RegionOkhotsk    RegionCode = 14
)

// RegionMaxSearchRadius bounds the neighbour search for unset mask cells.
const RegionMaxSearchRadius = 10

// Region describes a named region.
type Region struct {
	Code RegionCode
	Key  string // Short key used in the volume log header and the API.
	Name string
}

var regions = []Region{
	{RegionCAB, "cab", "Central Arctic Basin"},
	{RegionBeaufort, "beaufort", "Beaufort Sea"},
	{RegionChukchi, "chukchi", "Chukchi Sea"},
	{RegionESS, "ess", "East Siberian Sea"},
	{RegionLaptev, "laptev", "Laptev Sea"},
	{RegionKara, "kara", "Kara Sea"},
	{RegionBarents, "barents", "Barents Sea"},
	{RegionGreenland, "greenland", "Greenland Sea"},
	{RegionBaffin, "baffin", "Baffin Bay"},
	{RegionStLawrence, "stlawrence", "Gulf of St. Lawrence"},
	{RegionHudson, "hudson", "Hudson Bay"},
	{RegionCAA, "caa", "Canadian Arctic Archipelago"},
	{RegionBering, "bering", "Bering Sea"},
	{RegionOkhotsk, "okhotsk", "Sea of Okhotsk"},
}

// GetAllRegions returns the 14 named regions in code order.
func GetAllRegions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Known reports whether c is one of the 14 named region codes.
func (c RegionCode) Known() bool {
	return c >= RegionCAB && c <= RegionOkhotsk
}

func (c RegionCode) String() string {
	if c.Known() {
		return regions[c-1].Key
	}
	return fmt.Sprintf("region(%d)", int(c))
}

// LookupRegion finds a region by its key, case-insensitively.
func LookupRegion(key string) (Region, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, r := range regions {
		if r.Key == key {
			return r, true
		}
	}
	return Region{}, false
}

// RegionRaster is the region-code mask on the source grid. RegionUnset marks
// cells without a code.
type RegionRaster struct {
	Rows, Cols int
	Codes      []RegionCode
}

// NewRegionRaster wraps a row-major code slice.
func NewRegionRaster(rows, cols int, codes []RegionCode) (*RegionRaster, error) {
	if rows <= 0 || cols <= 0 || len(codes) != rows*cols {
		return nil, fmt.Errorf("region raster has %d codes, expected %dx%d", len(codes), rows, cols)
	}
	return &RegionRaster{Rows: rows, Cols: cols, Codes: codes}, nil
}

// At returns the code stored at (row, col).
func (m *RegionRaster) At(row, col int) RegionCode {
	return m.Codes[row*m.Cols+col]
}

// Classifier resolves region codes for source cells, falling back to a
// majority vote over the nearest ring of set neighbours.
type Classifier struct {
	mask   *RegionRaster
	search RingSearch
}

// NewClassifier creates a classifier over a mask loaded once by the caller.
func NewClassifier(mask *RegionRaster) *Classifier {
	return NewClassifierWithRadius(mask, RegionMaxSearchRadius)
}

// NewClassifierWithRadius is NewClassifier with a custom search bound.
func NewClassifierWithRadius(mask *RegionRaster, maxRadius int) *Classifier {
	return &Classifier{
		mask: mask,
		search: RingSearch{
			Rows:      mask.Rows,
			Cols:      mask.Cols,
			MaxRadius: maxRadius,
			Accept: func(row, col int) bool {
				return mask.At(row, col) != RegionUnset
			},
		},
	}
}

// RegionCodeFor returns the region code of (row, col). The coordinates must
// be inside the mask.
func (c *Classifier) RegionCodeFor(row, col int) (RegionCode, error) {
	if code := c.mask.At(row, col); code != RegionUnset {
		return code, nil
	}

	cells, _, ok := c.search.Innermost(row, col)
	if !ok {
		return RegionUnset, fmt.Errorf("cell (%d, %d): %w", row, col, ErrRegionNotFound)
	}

	codes := make([]RegionCode, len(cells))
	for i, cell := range cells {
		codes[i] = c.mask.At(cell.Row, cell.Col)
	}
	return modeOf(codes), nil
}

// modeOf returns the most frequent code; ties go to the code seen first.
func modeOf(codes []RegionCode) RegionCode {
	counts := make(map[RegionCode]int, len(codes))
	best, bestCount := RegionUnset, 0
	for _, code := range codes {
		counts[code]++
	}
	for _, code := range codes {
		if n := counts[code]; n > bestCount {
			best, bestCount = code, n
		}
	}
	return best
}
