// internal/engine/cascade.go
//
// The cascade resolver: drives the scan → expand → destroy → score → refill
// loop after a swap until the board reaches a fixed point (no run of >= 3
// starts anywhere). Scoring grows with cascade depth.

package engine

import "math"

const (
	baseTileScore  = 15   // per destroyed tile, before cascade bonus
	cascadeStep    = 0.25 // cascade bonus growth per chained cascade
	comboStep      = 0.5  // combo multiplier growth per chained cascade
	scoreBoostFlat = 25   // extra flat score when a scoreBoost tile is destroyed
)

// resolveStats summarizes one full resolve() for the bonus engine and the
// objective check.
type resolveStats struct {
	hadMatches bool
	cascades   int
	destroyed  int
	scoreDelta int
}

// resolve runs the cascade loop once, after a tentative swap. It mutates the
// grid and the session and reports what happened. Callers must re-check the
// objective immediately afterwards when hadMatches is true.
func (r *Round) resolve() resolveStats {
	var stats resolveStats
	for cascade := 1; ; cascade++ {
		scan := Scan(r.grid)
		if scan.Groups == 0 {
			break
		}
		mask := Expand(r.grid, scan.Mask)

		destroyed, tileBonus := r.destroyMasked(mask)
		delta := cascadeScore(destroyed, cascade) + tileBonus

		r.session.Score += delta
		r.session.Combo = 1 + float64(cascade-1)*comboStep
		r.session.Matches += scan.Groups // groups before expansion

		stats.cascades = cascade
		stats.destroyed += destroyed
		stats.scoreDelta += delta

		r.refill()
	}
	stats.hadMatches = stats.cascades > 0
	if stats.hadMatches {
		r.hooks.scoreDelta(stats.scoreDelta)
		r.hooks.matchProgress(r.session.Matches, r.cfg.TargetMatches)
	}
	return stats
}

// cascadeScore is the base score for destroying n tiles at the given
// cascade depth (1-based): round(n * 15 * (1 + (depth-1)*0.25)).
func cascadeScore(destroyed, cascade int) int {
	bonus := 1 + float64(cascade-1)*cascadeStep
	return int(math.Round(float64(destroyed) * baseTileScore * bonus))
}

// destroyMasked clears every masked occupied cell, summing each destroyed
// tile's bonusScore plus a flat extra for scoreBoost tiles.
func (r *Round) destroyMasked(mask []bool) (destroyed, tileBonus int) {
	size := r.grid.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if !mask[row*size+col] {
				continue
			}
			t, ok := r.grid.TileAt(row, col)
			if !ok {
				continue
			}
			tileBonus += t.BonusScore
			if t.Power == PowerScoreBoost {
				tileBonus += scoreBoostFlat
			}
			r.grid.clear(row, col)
			destroyed++
		}
	}
	return destroyed, tileBonus
}

// refill compacts every column and then fills the remaining empty
// non-blocked cells top-down with weighted random draws from the catalog.
func (r *Round) refill() {
	for col := 0; col < r.grid.Size(); col++ {
		r.grid.compactColumn(col)
	}
	for _, c := range r.grid.emptyCells() {
		r.grid.place(c.Row, c.Col, r.drawTile())
	}
}

// drawTile performs a weighted random draw over the BlockType catalog.
func (r *Round) drawTile() Tile {
	return tileOf(r.drawType())
}

func (r *Round) drawType() BlockType {
	pick := r.rng.Float64() * r.totalWeight
	for _, bt := range r.cfg.BlockTypes {
		pick -= bt.SpawnWeight
		if pick < 0 {
			return bt
		}
	}
	return r.cfg.BlockTypes[len(r.cfg.BlockTypes)-1]
}

func tileOf(bt BlockType) Tile {
	return Tile{
		TypeID:     bt.ID,
		Color:      bt.Color,
		Power:      bt.Power,
		BonusScore: bt.BonusScore,
	}
}
