// internal/engine/grid.go
//
// Board state for one round: a fixed-size arena of cells indexed
// row*size+col, each cell explicitly tagged Blocked, Empty or Occupied.
// Blocked cells are fixed for the round, never hold a tile, and partition
// columns into independent gravity segments.

package engine

import "fmt"

type cellTag uint8

const (
	cellEmpty cellTag = iota
	cellBlocked
	cellOccupied
)

type cell struct {
	tag  cellTag
	tile Tile // valid only when tag == cellOccupied
}

// Grid owns the cell arena. Only the engine mutates it, single-threaded.
type Grid struct {
	size  int
	cells []cell
}

// NewGrid builds an empty size×size grid with the given blocked cells.
// Out-of-bounds blocked refs are ignored (the normalizer drops them, this
// is a second line of defense for direct engine users).
func NewGrid(size int, blocked []CellRef) *Grid {
	g := &Grid{size: size, cells: make([]cell, size*size)}
	for _, b := range blocked {
		if g.InBounds(b.Row, b.Col) {
			g.cells[g.idx(b.Row, b.Col)].tag = cellBlocked
		}
	}
	return g
}

func (g *Grid) idx(row, col int) int { return row*g.size + col }

// Size returns the board dimension.
func (g *Grid) Size() int { return g.size }

// InBounds reports whether (row, col) lies on the board.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

// IsBlocked reports whether the cell is excluded from play. Out-of-bounds
// counts as blocked.
func (g *Grid) IsBlocked(row, col int) bool {
	if !g.InBounds(row, col) {
		return true
	}
	return g.cells[g.idx(row, col)].tag == cellBlocked
}

// TileAt returns the tile at (row, col) and whether the cell is occupied.
func (g *Grid) TileAt(row, col int) (Tile, bool) {
	if !g.InBounds(row, col) {
		return Tile{}, false
	}
	c := g.cells[g.idx(row, col)]
	if c.tag != cellOccupied {
		return Tile{}, false
	}
	return c.tile, true
}

// place puts a tile into an empty, non-blocked cell. A blocked or
// out-of-bounds target indicates a bug in generation/refill, never a
// user-reachable path, so it fails fast.
func (g *Grid) place(row, col int, t Tile) {
	if !g.InBounds(row, col) {
		panic(fmt.Sprintf("engine: place out of bounds (%d,%d)", row, col))
	}
	c := &g.cells[g.idx(row, col)]
	if c.tag == cellBlocked {
		panic(fmt.Sprintf("engine: place into blocked cell (%d,%d)", row, col))
	}
	c.tag = cellOccupied
	c.tile = t
}

// clear empties an occupied cell. Blocked cells are left alone.
func (g *Grid) clear(row, col int) {
	c := &g.cells[g.idx(row, col)]
	if c.tag == cellOccupied {
		c.tag = cellEmpty
		c.tile = Tile{}
	}
}

// adjacent reports whether two cells are 4-adjacent (Manhattan distance 1).
func adjacent(a, b CellRef) bool {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// swap exchanges the tiles of two occupied, non-blocked, 4-adjacent cells
// in place. The selection state machine guarantees the precondition.
func (g *Grid) swap(a, b CellRef) {
	i, j := g.idx(a.Row, a.Col), g.idx(b.Row, b.Col)
	g.cells[i].tile, g.cells[j].tile = g.cells[j].tile, g.cells[i].tile
}

// compactColumn slides tiles downward within col, filling empty non-blocked
// cells below them. A blocked cell stops the slide: tiles never fall through
// it, so each run of non-blocked cells compacts independently.
func (g *Grid) compactColumn(col int) {
	// write points at the lowest empty slot of the current segment
	write := -1
	for row := g.size - 1; row >= 0; row-- {
		c := &g.cells[g.idx(row, col)]
		switch c.tag {
		case cellBlocked:
			write = -1
		case cellEmpty:
			if write == -1 {
				write = row
			}
		case cellOccupied:
			if write != -1 {
				g.cells[g.idx(write, col)].tag = cellOccupied
				g.cells[g.idx(write, col)].tile = c.tile
				c.tag = cellEmpty
				c.tile = Tile{}
				write--
			}
		}
	}
}

// emptyCells returns all non-blocked cells currently holding no tile,
// in row-major order.
func (g *Grid) emptyCells() []CellRef {
	var out []CellRef
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			if g.cells[g.idx(row, col)].tag == cellEmpty {
				out = append(out, CellRef{Row: row, Col: col})
			}
		}
	}
	return out
}
