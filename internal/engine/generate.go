// internal/engine/generate.go
//
// Board generation: fills every non-blocked cell with weighted random draws,
// regenerating up to 8 times until no immediate match exists. The last
// resort avoids runs per cell while filling, so a multi-color catalog always
// starts clean.

package engine

const maxGenerateAttempts = 8

func (r *Round) generateBoard() {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		r.clearBoard()
		for _, c := range r.grid.emptyCells() {
			r.grid.place(c.Row, c.Col, r.drawTile())
		}
		if Scan(r.grid).Groups == 0 {
			return
		}
	}

	r.clearBoard()
	for _, c := range r.grid.emptyCells() {
		for tries := 0; ; tries++ {
			t := r.drawTile()
			if tries >= 24 || !r.startsRun(c, t) {
				r.grid.place(c.Row, c.Col, t)
				break
			}
		}
	}
}

func (r *Round) clearBoard() {
	size := r.grid.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			r.grid.clear(row, col)
		}
	}
}

// startsRun reports whether placing t at c would complete a horizontal or
// vertical run of 3 with already-placed neighbors (fill order is row-major,
// so only left and up need checking).
func (r *Round) startsRun(c CellRef, t Tile) bool {
	same := func(row, col int) bool {
		o, ok := r.grid.TileAt(row, col)
		return ok && o.Color == t.Color
	}
	if same(c.Row, c.Col-1) && same(c.Row, c.Col-2) {
		return true
	}
	if same(c.Row-1, c.Col) && same(c.Row-2, c.Col) {
		return true
	}
	return false
}
