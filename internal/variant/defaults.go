// internal/variant/defaults.go
//
// Built-in fallback values for variant normalization. Every malformed field
// in an incoming variant is replaced from here (index-aligned for block
// types), so the engine always receives a playable configuration.

package variant

import "github.com/mvickers/gemfall/internal/engine"

// Round-level defaults and clamp ranges.
const (
	defaultGridSize   = 6
	defaultTarget     = 20
	defaultMoveBudget = 25
	defaultComboDecay = 3.0

	minTarget = 5
	maxTarget = 200
	minMoves  = 5
	maxMoves  = 99

	minSpawnWeight = 0.2
	maxSpawnWeight = 12.0
	maxBonusScore  = 120
	minComboDecay  = 0.8
	maxComboDecay  = 6.0

	maxBlockTypes = 12
	maxBonusRules = 16
	maxNameRunes  = 48

	// a board cannot be generated match-free with fewer colors than this
	minDistinctColors = 3

	minRuleThreshold = 1
	maxRuleThreshold = 999
	maxExtraMoves    = 10
	maxRewardScore   = 5000
)

// fallbackCatalog is the paired default list: entry i of an incoming
// blockTypes array borrows missing fields from fallbackCatalog[i % len].
// It is also substituted wholesale when sanitization leaves too few
// distinct colors to generate a match-free board.
func fallbackCatalog() []engine.BlockType {
	return []engine.BlockType{
		{ID: "ruby", Name: "Ruby", Color: engine.RGB{R: 0xe7, G: 0x4c, B: 0x3c}, SpawnWeight: 1},
		{ID: "sapphire", Name: "Sapphire", Color: engine.RGB{R: 0x34, G: 0x98, B: 0xdb}, SpawnWeight: 1},
		{ID: "emerald", Name: "Emerald", Color: engine.RGB{R: 0x2e, G: 0xcc, B: 0x71}, SpawnWeight: 1},
		{ID: "topaz", Name: "Topaz", Color: engine.RGB{R: 0xf1, G: 0xc4, B: 0x0f}, SpawnWeight: 1},
		{ID: "amethyst", Name: "Amethyst", Color: engine.RGB{R: 0x9b, G: 0x59, B: 0xb6}, SpawnWeight: 1},
	}
}

// defaultConfig is what a missing or fully malformed variant normalizes to.
func defaultConfig() Config {
	return Config{
		Name: "classic",
		Round: engine.RoundConfig{
			GridSize:          defaultGridSize,
			TargetMatches:     defaultTarget,
			MoveBudget:        defaultMoveBudget,
			BlockTypes:        fallbackCatalog(),
			ComboDecaySeconds: defaultComboDecay,
		},
	}
}
