package engine

import (
	"reflect"
	"testing"
)

func TestGeneratedBoardHasNoImmediateMatch(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		cfg := RoundConfig{
			GridSize:      6,
			TargetMatches: 20,
			MoveBudget:    25,
			BlockTypes:    testTypes()[:4],
		}
		r, err := NewRound(cfg, seed, Hooks{})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if res := Scan(r.grid); res.Groups != 0 {
			t.Errorf("seed %d: generated board has %d immediate groups", seed, res.Groups)
		}
		if n := len(r.grid.emptyCells()); n != 0 {
			t.Errorf("seed %d: %d cells left empty", seed, n)
		}
	}
}

func TestGenerateRespectsBlockedCells(t *testing.T) {
	cfg := RoundConfig{
		GridSize:      5,
		TargetMatches: 20,
		MoveBudget:    25,
		BlockTypes:    testTypes(),
		Blocked:       []CellRef{{Row: 0, Col: 0}, {Row: 2, Col: 2}, {Row: 4, Col: 4}},
	}
	r, err := NewRound(cfg, 3, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range cfg.Blocked {
		if !r.grid.IsBlocked(b.Row, b.Col) {
			t.Errorf("cell %v should be blocked", b)
		}
		if _, ok := r.grid.TileAt(b.Row, b.Col); ok {
			t.Errorf("blocked cell %v holds a tile", b)
		}
	}
	if res := Scan(r.grid); res.Groups != 0 {
		t.Errorf("board with blocked cells has %d immediate groups", res.Groups)
	}
}

func TestGenerationDeterministicPerSeed(t *testing.T) {
	cfg := RoundConfig{
		GridSize:      7,
		TargetMatches: 20,
		MoveBudget:    25,
		BlockTypes:    testTypes(),
	}
	a, err := NewRound(cfg, 42, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRound(cfg, 42, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if !reflect.DeepEqual(sa.Cells, sb.Cells) {
		t.Error("same seed must produce the same board")
	}
	c, err := NewRound(cfg, 43, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(sa.Cells, c.Snapshot().Cells) {
		t.Error("different seeds should produce different boards")
	}
}

func TestNewRoundValidation(t *testing.T) {
	base := RoundConfig{
		GridSize:      6,
		TargetMatches: 20,
		MoveBudget:    25,
		BlockTypes:    testTypes(),
	}
	cases := []struct {
		name string
		mut  func(*RoundConfig)
	}{
		{"grid too small", func(c *RoundConfig) { c.GridSize = 3 }},
		{"grid too large", func(c *RoundConfig) { c.GridSize = 10 }},
		{"empty catalog", func(c *RoundConfig) { c.BlockTypes = nil }},
		{"zero weight", func(c *RoundConfig) {
			c.BlockTypes = []BlockType{{ID: "x", SpawnWeight: 0}}
		}},
		{"zero target", func(c *RoundConfig) { c.TargetMatches = 0 }},
		{"zero budget", func(c *RoundConfig) { c.MoveBudget = 0 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mut(&cfg)
		if _, err := NewRound(cfg, 1, Hooks{}); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
