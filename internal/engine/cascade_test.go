package engine

import "testing"

func TestCascadeScore(t *testing.T) {
	cases := []struct {
		destroyed, cascade, want int
	}{
		{4, 1, 60},  // round(4*15*1.00)
		{4, 2, 75},  // round(4*15*1.25)
		{4, 3, 90},  // round(4*15*1.50)
		{5, 2, 94},  // round(5*15*1.25) = round(93.75)
		{3, 1, 45},
		{0, 1, 0},
	}
	for _, c := range cases {
		if got := cascadeScore(c.destroyed, c.cascade); got != c.want {
			t.Errorf("cascadeScore(%d,%d) = %d, want %d", c.destroyed, c.cascade, got, c.want)
		}
	}
}

func TestCascadeScoreMonotonicInDepth(t *testing.T) {
	// equal destroyed counts at greater depth never score less
	for destroyed := 3; destroyed <= 12; destroyed++ {
		prev := 0
		for depth := 1; depth <= 6; depth++ {
			got := cascadeScore(destroyed, depth)
			if got < prev {
				t.Fatalf("score dropped: %d tiles depth %d = %d < %d", destroyed, depth, got, prev)
			}
			prev = got
		}
	}
}

// scenarioBoard is a 6x6 layout with no initial match where swapping
// (2,3) and (3,3) creates a single ruby 4-run at row 2, cols 1..4.
func scenarioBoard() []string {
	return []string{
		"RBGYRB",
		"GYRBGY",
		"YRRBRG",
		"GYBRGY",
		"RBGYRB",
		"GYRBGY",
	}
}

// scenarioRefill scripts the four refill draws (row 0, cols 1..4 after
// compaction) to emerald/topaz alternation, which provably creates no
// follow-up match on this board.
func scenarioRefill() *scriptRNG {
	return &scriptRNG{floats: []float64{drawFloat(2), drawFloat(3), drawFloat(2), drawFloat(3)}}
}

func TestResolveSingleCascadeScoring(t *testing.T) {
	r := boardRound(scenarioBoard(), scenarioRefill())

	if res := r.Select(2, 3); !res.Accepted || res.Selected == nil {
		t.Fatal("first select should be accepted and pending")
	}
	res := r.Select(3, 3)
	if !res.Swapped || !res.HadMatches {
		t.Fatalf("swap should resolve with matches: %+v", res)
	}
	if res.Reverted {
		t.Error("matching swap must not revert")
	}
	if res.Cascades != 1 {
		t.Errorf("cascades = %d, want 1", res.Cascades)
	}
	if res.ScoreDelta != 60 {
		t.Errorf("score delta = %d, want 60", res.ScoreDelta)
	}

	s := r.Session()
	if s.Score != 60 {
		t.Errorf("session score = %d, want 60", s.Score)
	}
	if s.Matches != 1 {
		t.Errorf("session matches = %d, want 1", s.Matches)
	}
	if s.MovesLeft != 29 {
		t.Errorf("moves left = %d, want 29", s.MovesLeft)
	}
	if s.Combo != 1.0 {
		t.Errorf("combo = %v, want 1.0 at depth 1", s.Combo)
	}

	// fixed point: no non-blocked cell starts a new run
	if after := Scan(r.grid); after.Groups != 0 {
		t.Errorf("board not stable after resolve: %d groups", after.Groups)
	}
	// the board is full again
	if empty := r.grid.emptyCells(); len(empty) != 0 {
		t.Errorf("%d cells left empty after refill", len(empty))
	}
}

func TestResolveDestroysTileBonusScore(t *testing.T) {
	r := boardRound(scenarioBoard(), scenarioRefill())
	// give one tile of the future run a bonus score and another a boost
	ruby := testTypes()[0]
	r.grid.place(2, 1, Tile{TypeID: ruby.ID, Color: ruby.Color, BonusScore: 10})
	r.grid.place(2, 2, Tile{TypeID: ruby.ID, Color: ruby.Color, Power: PowerScoreBoost})

	r.Select(2, 3)
	res := r.Select(3, 3)
	// 60 base + 10 bonusScore + 25 scoreBoost flat
	if res.ScoreDelta != 95 {
		t.Errorf("score delta = %d, want 95", res.ScoreDelta)
	}
}

func TestResolveStableOnRandomBoards(t *testing.T) {
	// property: any completed resolve leaves zero groups
	for seed := int64(1); seed <= 20; seed++ {
		cfg := RoundConfig{
			GridSize:      7,
			TargetMatches: 9999,
			MoveBudget:    50,
			BlockTypes:    testTypes(),
		}
		r, err := NewRound(cfg, seed, Hooks{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		// probe a handful of swaps; matching or not, the board must end stable
		for row := 0; row < 6; row++ {
			r.Select(row, 3)
			r.Select(row, 4)
			if res := Scan(r.grid); res.Groups != 0 {
				t.Fatalf("seed %d: unstable board after swap at row %d (%d groups)", seed, row, res.Groups)
			}
			if r.CurrentOutcome() != OutcomePlaying {
				break
			}
		}
	}
}
