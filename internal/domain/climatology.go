package domain

import "fmt"

// Accumulate adds weight×year to every valid baseline cell. Land, pending and
// no-data baseline cells are left as they are, and year cells that hold no
// value contribute nothing.
func Accumulate(baseline, year *Raster, weight float64) error {
	if baseline.Size != year.Size {
		return fmt.Errorf("raster size mismatch: baseline %d, year %d", baseline.Size, year.Size)
	}
	for i, s := range baseline.States {
		if s != CellValid || year.States[i] != CellValid {
			continue
		}
		baseline.Values[i] += weight * year.Values[i]
	}
	return nil
}

// scaled returns a copy of r with every valid value multiplied by weight.
func scaled(r *Raster, weight float64) *Raster {
	out := r.Clone()
	for i, s := range out.States {
		if s == CellValid {
			out.Values[i] *= weight
		}
	}
	return out
}

// Baseline returns the arithmetic mean of the given yearly rasters. The
// first raster decides which cells carry a value.
func Baseline(years []*Raster) (*Raster, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("baseline needs at least one year")
	}
	weight := 1.0 / float64(len(years))
	baseline := scaled(years[0], weight)
	for _, y := range years[1:] {
		if err := Accumulate(baseline, y, weight); err != nil {
			return nil, err
		}
	}
	return baseline, nil
}

// Anomaly returns current minus the mean of the comparison years.
func Anomaly(current *Raster, years []*Raster) (*Raster, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("anomaly needs at least one comparison year")
	}
	weight := -1.0 / float64(len(years))
	anomaly := current.Clone()
	for _, y := range years {
		if err := Accumulate(anomaly, y, weight); err != nil {
			return nil, err
		}
	}
	return anomaly, nil
}
