// internal/engine/expand.go
//
// Special-effect expansion: grows a scan mask using the powers of the tiles
// already caught in it. Single pass per cascade step: a power tile swept up
// by another power's expansion does not trigger within the same step, only
// on a later cascade iteration if it survives.

package engine

// Expand returns a new mask grown by the powers of the tiles masked in.
// The grid is not mutated. Blocked cells are never marked.
func Expand(g *Grid, mask []bool) []bool {
	size := g.Size()
	out := make([]bool, len(mask))
	copy(out, mask)

	mark := func(row, col int) {
		if g.InBounds(row, col) && !g.IsBlocked(row, col) {
			out[row*size+col] = true
		}
	}

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if !mask[row*size+col] {
				continue
			}
			t, ok := g.TileAt(row, col)
			if !ok {
				continue
			}
			switch t.Power {
			case PowerNone, PowerScoreBoost:
				// score boost pays out at destroy time, no expansion
			case PowerBomb:
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						mark(row+dr, col+dc)
					}
				}
			case PowerLineH:
				for c := 0; c < size; c++ {
					mark(row, c)
				}
			case PowerLineV:
				for r := 0; r < size; r++ {
					mark(r, col)
				}
			case PowerColorClear:
				// same catalog type, not merely the same RGB
				for r := 0; r < size; r++ {
					for c := 0; c < size; c++ {
						if other, ok := g.TileAt(r, c); ok && other.TypeID == t.TypeID {
							mark(r, c)
						}
					}
				}
			}
		}
	}
	return out
}
