// internal/engine/scan.go
//
// Match scanning: finds every horizontal and vertical run of three or more
// same-colored tiles. Pure function over the grid, usable standalone (live
// resolution and generation both call it).

package engine

// ScanResult is the outcome of one scan pass.
// Mask is a row*size+col flat boolean array; Groups counts runs. A cell on
// both a row run and a column run is marked once but both runs count.
type ScanResult struct {
	Mask   []bool
	Groups int
}

// Scan detects all runs of length >= 3 sharing the same color. Empty and
// blocked cells unconditionally break a run.
func Scan(g *Grid) ScanResult {
	size := g.Size()
	res := ScanResult{Mask: make([]bool, size*size)}

	// rows
	for row := 0; row < size; row++ {
		runStart := 0
		var runColor RGB
		runLen := 0
		flush := func(end int) {
			if runLen >= 3 {
				for c := runStart; c < end; c++ {
					res.Mask[row*size+c] = true
				}
				res.Groups++
			}
			runLen = 0
		}
		for col := 0; col < size; col++ {
			t, ok := g.TileAt(row, col)
			if !ok {
				flush(col)
				continue
			}
			if runLen > 0 && t.Color == runColor {
				runLen++
				continue
			}
			flush(col)
			runStart, runColor, runLen = col, t.Color, 1
		}
		flush(size)
	}

	// columns
	for col := 0; col < size; col++ {
		runStart := 0
		var runColor RGB
		runLen := 0
		flush := func(end int) {
			if runLen >= 3 {
				for r := runStart; r < end; r++ {
					res.Mask[r*size+col] = true
				}
				res.Groups++
			}
			runLen = 0
		}
		for row := 0; row < size; row++ {
			t, ok := g.TileAt(row, col)
			if !ok {
				flush(row)
				continue
			}
			if runLen > 0 && t.Color == runColor {
				runLen++
				continue
			}
			flush(row)
			runStart, runColor, runLen = row, t.Color, 1
		}
		flush(size)
	}

	return res
}
