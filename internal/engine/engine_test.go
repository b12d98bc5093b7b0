package engine

import mathrand "math/rand"

// Shared fixtures for the engine tests. Boards are described as rows of
// characters: a letter is a catalog type, '.' is an empty cell, '#' a
// blocked cell.

func testTypes() []BlockType {
	return []BlockType{
		{ID: "ruby", Name: "Ruby", Color: RGB{R: 0xe7, G: 0x4c, B: 0x3c}, SpawnWeight: 1},
		{ID: "sapphire", Name: "Sapphire", Color: RGB{R: 0x34, G: 0x98, B: 0xdb}, SpawnWeight: 1},
		{ID: "emerald", Name: "Emerald", Color: RGB{R: 0x2e, G: 0xcc, B: 0x71}, SpawnWeight: 1},
		{ID: "topaz", Name: "Topaz", Color: RGB{R: 0xf1, G: 0xc4, B: 0x0f}, SpawnWeight: 1},
		{ID: "amethyst", Name: "Amethyst", Color: RGB{R: 0x9b, G: 0x59, B: 0xb6}, SpawnWeight: 1},
		{ID: "citrine", Name: "Citrine", Color: RGB{R: 0xe6, G: 0x7e, B: 0x22}, SpawnWeight: 1},
	}
}

var charTypes = map[rune]int{'R': 0, 'B': 1, 'G': 2, 'Y': 3, 'P': 4, 'O': 5}

// drawFloat returns the Float64 value that makes drawType pick catalog
// index i when all six test types carry weight 1.
func drawFloat(i int) float64 { return (float64(i) + 0.5) / 6 }

// scriptRNG replays scripted values, then zeroes.
type scriptRNG struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptRNG) Float64() float64 {
	if s.fi < len(s.floats) {
		v := s.floats[s.fi]
		s.fi++
		return v
	}
	return 0
}

func (s *scriptRNG) Intn(n int) int {
	if s.ii < len(s.ints) {
		v := s.ints[s.ii] % n
		s.ii++
		return v
	}
	return 0
}

type roundOpt func(*RoundConfig)

func withMoves(n int) roundOpt  { return func(c *RoundConfig) { c.MoveBudget = n } }
func withTarget(n int) roundOpt { return func(c *RoundConfig) { c.TargetMatches = n } }
func withRules(rs ...BonusRule) roundOpt {
	return func(c *RoundConfig) { c.BonusRules = rs }
}

// boardRound builds a round with an exact board layout, bypassing random
// generation. The board is assumed square: size = len(rows).
func boardRound(rows []string, rng RNG, opts ...roundOpt) *Round {
	size := len(rows)
	var blocked []CellRef
	for r, row := range rows {
		for c, ch := range row {
			if ch == '#' {
				blocked = append(blocked, CellRef{Row: r, Col: c})
			}
		}
	}
	cfg := RoundConfig{
		GridSize:          size,
		TargetMatches:     999,
		MoveBudget:        30,
		BlockTypes:        testTypes(),
		Blocked:           blocked,
		ComboDecaySeconds: 3,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if rng == nil {
		rng = mathrand.New(mathrand.NewSource(1))
	}
	var total float64
	for _, bt := range cfg.BlockTypes {
		total += bt.SpawnWeight
	}
	rd := &Round{
		ID:          "test",
		cfg:         cfg,
		grid:        NewGrid(size, blocked),
		rng:         rng,
		totalWeight: total,
		session: Session{
			MovesLeft: cfg.MoveBudget,
			Combo:     1,
			Triggered: make(map[string]struct{}),
		},
	}
	types := cfg.BlockTypes
	for r, row := range rows {
		for c, ch := range row {
			if ch == '.' || ch == '#' {
				continue
			}
			rd.grid.place(r, c, tileOf(types[charTypes[ch]]))
		}
	}
	return rd
}

// a board with no possible match on any swap: rows alternate two 4-cycles
// offset by two, so no line ever holds two equal neighbors.
func stripeRows(size int) []string {
	even := "RBGYRBGYR"[:size]
	odd := "GYRBGYRBG"[:size]
	rows := make([]string, size)
	for i := range rows {
		if i%2 == 0 {
			rows[i] = even
		} else {
			rows[i] = odd
		}
	}
	return rows
}

func maskCount(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}
