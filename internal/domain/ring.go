package domain

// Cell is a row/column position.
type Cell struct {
	Row, Col int
}

// RingSearch walks diamond rings of growing L1 radius around a center cell.
//
// Ring r consists of the 4r cells at L1 distance r, walked edge by edge:
// for k in [0, r) the cells (r-k, k), (-k, r-k), (-r+k, -k), (k, -r+k)
// relative to the center. Cells outside [0, Rows)×[0, Cols) are skipped.
type RingSearch struct {
	Rows, Cols int
	MaxRadius  int // inclusive
	Accept     func(row, col int) bool
}

// ring appends the accepted cells of radius r around (row, col) to dst.
func (s RingSearch) ring(dst []Cell, row, col, r int) []Cell {
	for k := 0; k < r; k++ {
		for _, off := range [4]Cell{
			{r - k, k},
			{-k, r - k},
			{-r + k, -k},
			{k, -r + k},
		} {
			rr, cc := row+off.Row, col+off.Col
			if rr < 0 || cc < 0 || rr >= s.Rows || cc >= s.Cols {
				continue
			}
			if s.Accept(rr, cc) {
				dst = append(dst, Cell{rr, cc})
			}
		}
	}
	return dst
}

// First returns the first accepted cell in walk order together with its
// radius. ok is false when nothing is accepted up to MaxRadius.
func (s RingSearch) First(row, col int) (cell Cell, radius int, ok bool) {
	buf := make([]Cell, 0, 4*s.MaxRadius)
	for r := 1; r <= s.MaxRadius; r++ {
		buf = s.ring(buf[:0], row, col, r)
		if len(buf) > 0 {
			return buf[0], r, true
		}
	}
	return Cell{}, 0, false
}

// Innermost returns every accepted cell on the smallest ring that has at
// least one, in walk order.
func (s RingSearch) Innermost(row, col int) (cells []Cell, radius int, ok bool) {
	for r := 1; r <= s.MaxRadius; r++ {
		cells = s.ring(nil, row, col, r)
		if len(cells) > 0 {
			return cells, r, true
		}
	}
	return nil, 0, false
}
