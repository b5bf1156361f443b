package domain

import (
	"errors"
	"testing"
)

func unsetRaster(t *testing.T, rows, cols int) *RegionRaster {
	t.Helper()
	codes := make([]RegionCode, rows*cols)
	for i := range codes {
		codes[i] = RegionUnset
	}
	m, err := NewRegionRaster(rows, cols, codes)
	if err != nil {
		t.Fatalf("NewRegionRaster: %v", err)
	}
	return m
}

func setCode(m *RegionRaster, row, col int, code RegionCode) {
	m.Codes[row*m.Cols+col] = code
}

// TestRingSearch_RingGeometry checks that ring r holds 4r distinct cells at L1 distance r.
func TestRingSearch_RingGeometry(t *testing.T) {
	s := RingSearch{Rows: 41, Cols: 41, MaxRadius: 10, Accept: func(int, int) bool { return true }}
	for r := 1; r <= 10; r++ {
		cells := s.ring(nil, 20, 20, r)
		if len(cells) != 4*r {
			t.Fatalf("radius %d: expected %d cells, got %d", r, 4*r, len(cells))
		}
		seen := map[Cell]bool{}
		for _, c := range cells {
			d := abs(c.Row-20) + abs(c.Col-20)
			if d != r {
				t.Errorf("radius %d: cell %v at distance %d", r, c, d)
			}
			if seen[c] {
				t.Errorf("radius %d: cell %v visited twice", r, c)
			}
			seen[c] = true
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// TestRingSearch_SkipsOutOfBounds checks that cells beyond the raster edge are never offered.
func TestRingSearch_SkipsOutOfBounds(t *testing.T) {
	calls := 0
	s := RingSearch{Rows: 3, Cols: 3, MaxRadius: 4, Accept: func(row, col int) bool {
		calls++
		if row < 0 || col < 0 || row >= 3 || col >= 3 {
			t.Fatalf("accept called out of bounds at (%d, %d)", row, col)
		}
		return false
	}}
	if _, _, ok := s.First(0, 0); ok {
		t.Fatal("expected no match")
	}
	if calls != 8 {
		t.Errorf("expected 8 in-bounds candidates around a corner of a 3x3 raster, got %d", calls)
	}
}

// TestRingSearch_FirstIsWalkOrder checks that First returns the earliest accepted cell of the innermost ring.
func TestRingSearch_FirstIsWalkOrder(t *testing.T) {
	accepted := map[Cell]bool{{5, 7}: true, {3, 5}: true, {4, 4}: true}
	s := RingSearch{Rows: 11, Cols: 11, MaxRadius: 9, Accept: func(row, col int) bool {
		return accepted[Cell{row, col}]
	}}
	cell, radius, ok := s.First(5, 5)
	if !ok {
		t.Fatal("expected a match")
	}
	// Ring 2 walk starts at (+2,0), then (0,+2); (5,7) is offset (0,+2) and comes before (3,5) at (-2,0).
	if radius != 2 || cell != (Cell{5, 7}) {
		t.Errorf("expected (5,7) at radius 2, got %v at radius %d", cell, radius)
	}
}

// TestClassifier_DirectHit checks that set mask cells are returned without searching.
func TestClassifier_DirectHit(t *testing.T) {
	m := unsetRaster(t, 4, 4)
	for i := range m.Codes {
		m.Codes[i] = RegionCode(i%14 + 1)
	}
	c := NewClassifier(m)
	searched := 0
	c.search.Accept = func(int, int) bool {
		searched++
		return true
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			got, err := c.RegionCodeFor(row, col)
			if err != nil {
				t.Fatalf("(%d,%d): unexpected error: %v", row, col, err)
			}
			if want := m.At(row, col); got != want {
				t.Errorf("(%d,%d): expected %v, got %v", row, col, want, got)
			}
		}
	}
	if searched != 0 {
		t.Errorf("expected no neighbour lookups, got %d", searched)
	}
}

// TestClassifier_MajorityOnSecondRing checks the mode of the second ring when the first is empty.
func TestClassifier_MajorityOnSecondRing(t *testing.T) {
	m := unsetRaster(t, 7, 7)
	setCode(m, 5, 3, RegionBeaufort) // (+2, 0)
	setCode(m, 3, 5, RegionBeaufort) // (0, +2)
	setCode(m, 4, 4, RegionBeaufort) // (+1, +1)
	setCode(m, 2, 2, RegionChukchi)  // (-1, -1)

	got, err := NewClassifier(m).RegionCodeFor(3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != RegionBeaufort {
		t.Errorf("expected %v, got %v", RegionBeaufort, got)
	}
}

// TestClassifier_TieGoesToFirstSeen checks deterministic tie-breaking by walk order.
func TestClassifier_TieGoesToFirstSeen(t *testing.T) {
	m := unsetRaster(t, 7, 7)
	setCode(m, 3, 5, RegionKara)    // (0, +2), second in walk order
	setCode(m, 1, 3, RegionBarents) // (-2, 0), third
	setCode(m, 3, 1, RegionKara)    // (0, -2), fourth
	setCode(m, 4, 4, RegionBarents) // (+1, +1), fifth

	got, err := NewClassifier(m).RegionCodeFor(3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != RegionKara {
		t.Errorf("expected %v, got %v", RegionKara, got)
	}
}

// TestClassifier_RadiusBound checks that codes at distance 10 are found and at 11 are not.
func TestClassifier_RadiusBound(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		wantErr bool
	}{
		{"radius 10 reachable", 10, false},
		{"radius 11 unreachable", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := unsetRaster(t, 25, 25)
			// The only code sits tt.offset rows below the queried cell.
			setCode(m, 1+tt.offset, 1, RegionHudson)

			got, err := NewClassifier(m).RegionCodeFor(1, 1)
			if tt.wantErr {
				if !errors.Is(err, ErrRegionNotFound) {
					t.Fatalf("expected ErrRegionNotFound, got %v (code %v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != RegionHudson {
				t.Errorf("expected %v, got %v", RegionHudson, got)
			}
		})
	}
}

// TestClassifier_EmptyMaskIsFatal checks that a mask without any code fails.
func TestClassifier_EmptyMaskIsFatal(t *testing.T) {
	m := unsetRaster(t, 30, 30)
	_, err := NewClassifier(m).RegionCodeFor(15, 15)
	if !errors.Is(err, ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
}

func TestLookupRegion(t *testing.T) {
	r, ok := LookupRegion(" Bering ")
	if !ok || r.Code != RegionBering {
		t.Fatalf("expected bering, got %+v (ok=%v)", r, ok)
	}
	if _, ok := LookupRegion("atlantis"); ok {
		t.Error("expected unknown region")
	}
	if got := len(GetAllRegions()); got != 14 {
		t.Errorf("expected 14 regions, got %d", got)
	}
}
