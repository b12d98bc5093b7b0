// internal/engine/types.go
//
// Core type definitions for the match-grid engine.
// Defines:
//   - Power: special-tile behavior (bomb, line clears, color clear, score boost).
//   - BlockType / Tile: the catalog entry and a live board piece.
//   - BonusRule: one-shot rewards triggered by cumulative round stats.
//   - RoundConfig: validated parameters for one round.
//   - Session: mutable per-round counters.
//   - Hooks: outward event callbacks (score, moves, progress, bonuses, end).

package engine

// Power is the special behavior carried by a tile, if any.
type Power uint8

const (
	PowerNone Power = iota
	PowerBomb
	PowerLineH
	PowerLineV
	PowerColorClear
	PowerScoreBoost
)

// String returns the wire name of a power ("" for none).
func (p Power) String() string {
	switch p {
	case PowerBomb:
		return "bomb"
	case PowerLineH:
		return "lineHorizontal"
	case PowerLineV:
		return "lineVertical"
	case PowerColorClear:
		return "colorClear"
	case PowerScoreBoost:
		return "scoreBoost"
	default:
		return ""
	}
}

// RGB is a tile color.
type RGB struct {
	R, G, B uint8
}

// BlockType is one entry of the round's tile catalog.
// Exactly one catalog exists per round; refill and generation draw from it
// using SpawnWeight.
type BlockType struct {
	ID          string
	Name        string
	Color       RGB
	SpawnWeight float64
	Power       Power
	BonusScore  int
}

// Tile is a live piece occupying one non-blocked cell. Tiles are value
// objects: destroyed and recreated on every cascade step, never reused.
type Tile struct {
	TypeID     string
	Color      RGB
	Power      Power
	BonusScore int
}

// BonusTrigger selects which cumulative stat a BonusRule compares against.
type BonusTrigger uint8

const (
	TriggerTotalMatches BonusTrigger = iota
	TriggerCombo
	TriggerCascade
)

func (t BonusTrigger) String() string {
	switch t {
	case TriggerTotalMatches:
		return "totalMatches"
	case TriggerCombo:
		return "combo"
	case TriggerCascade:
		return "cascade"
	default:
		return "unknown"
	}
}

// BonusReward is what a fired rule grants. At least one component is
// non-zero (enforced by the variant normalizer).
type BonusReward struct {
	ExtraMoves   int    `json:"extraMoves,omitempty"`
	Score        int    `json:"score,omitempty"`
	SpawnBlockID string `json:"spawnSpecialBlockId,omitempty"`
}

// BonusRule fires at most once per round when its trigger stat crosses
// Threshold.
type BonusRule struct {
	ID        string
	Trigger   BonusTrigger
	Threshold float64
	Reward    BonusReward
}

// CellRef addresses one grid cell.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// RoundConfig holds validated, bounded engine parameters for one round.
// Built by the variant normalizer; the engine trusts it.
type RoundConfig struct {
	GridSize          int
	TargetMatches     int
	MoveBudget        int
	BlockTypes        []BlockType
	BonusRules        []BonusRule
	Blocked           []CellRef
	ComboDecaySeconds float64 // presentation hint, carried through untouched
}

// Session holds the mutable counters of a round. Created at round start,
// mutated only by the resolve/bonus/objective paths, discarded at round end.
type Session struct {
	Matches   int
	MovesLeft int
	Combo     float64
	Score     int
	Triggered map[string]struct{}
}

// RNG is the random source the engine draws from. *math/rand.Rand
// satisfies it; tests may inject a scripted implementation.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// Hooks are optional outward callbacks. Nil fields are skipped.
type Hooks struct {
	ScoreDelta       func(amount int)
	MovesLeftChanged func(n int)
	MatchProgress    func(matches, target int)
	BonusTriggered   func(ruleID string, reward BonusReward)
	RoundEnded       func(success bool, finalScore int)
}

func (h Hooks) scoreDelta(n int) {
	if h.ScoreDelta != nil && n != 0 {
		h.ScoreDelta(n)
	}
}

func (h Hooks) movesLeftChanged(n int) {
	if h.MovesLeftChanged != nil {
		h.MovesLeftChanged(n)
	}
}

func (h Hooks) matchProgress(matches, target int) {
	if h.MatchProgress != nil {
		h.MatchProgress(matches, target)
	}
}

func (h Hooks) bonusTriggered(id string, reward BonusReward) {
	if h.BonusTriggered != nil {
		h.BonusTriggered(id, reward)
	}
}

func (h Hooks) roundEnded(success bool, finalScore int) {
	if h.RoundEnded != nil {
		h.RoundEnded(success, finalScore)
	}
}
