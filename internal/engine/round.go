// internal/engine/round.go
//
// One round of play: the selection state machine, move budget and
// win/lose tracking. Responsibilities:
//   - Construct rounds from a validated RoundConfig with a seeded RNG.
//   - Consume abstract select(row, col) events: Idle → FirstSelected →
//     Resolving → Idle. A valid adjacent pair triggers a tentative swap and
//     the cascade resolver; a swap with no matches is reverted and resets
//     the combo; either way the move is consumed.
//   - Check the objective after every resolve; both outcomes are terminal.
//
// Notes:
//   - Single-threaded and non-reentrant: selects arriving while Resolving
//     are ignored (no queueing). Callers serialize concurrent access.
//   - randomID() is a compact hex identifier for correlating server state.

package engine

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
)

// Grid size bounds enforced on RoundConfig.
const (
	MinGridSize = 4
	MaxGridSize = 9
)

// Phase of the selection state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseFirstSelected
	PhaseResolving
)

// Outcome of a round.
type Outcome uint8

const (
	OutcomePlaying Outcome = iota
	OutcomeWon
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	default:
		return "playing"
	}
}

// Round owns the grid and session for one round of play.
type Round struct {
	ID string

	cfg         RoundConfig
	grid        *Grid
	session     Session
	rng         RNG
	totalWeight float64
	hooks       Hooks

	phase    Phase
	selected CellRef
	outcome  Outcome
}

// NewRound builds a round from a validated config. The seed fixes every
// random draw (generation, refill, special spawns), making rounds fully
// deterministic and testable.
func NewRound(cfg RoundConfig, seed int64, hooks Hooks) (*Round, error) {
	if cfg.GridSize < MinGridSize || cfg.GridSize > MaxGridSize {
		return nil, fmt.Errorf("engine: grid size %d out of range [%d,%d]", cfg.GridSize, MinGridSize, MaxGridSize)
	}
	if len(cfg.BlockTypes) == 0 {
		return nil, errors.New("engine: empty block type catalog")
	}
	var total float64
	for _, bt := range cfg.BlockTypes {
		if bt.SpawnWeight <= 0 {
			return nil, fmt.Errorf("engine: block type %q has non-positive spawn weight", bt.ID)
		}
		total += bt.SpawnWeight
	}
	if cfg.TargetMatches <= 0 || cfg.MoveBudget <= 0 {
		return nil, errors.New("engine: target matches and move budget must be positive")
	}
	r := &Round{
		ID:          randomID(),
		cfg:         cfg,
		grid:        NewGrid(cfg.GridSize, cfg.Blocked),
		rng:         mathrand.New(mathrand.NewSource(seed)),
		totalWeight: total,
		hooks:       hooks,
		session: Session{
			MovesLeft: cfg.MoveBudget,
			Combo:     1,
			Triggered: make(map[string]struct{}),
		},
	}
	r.generateBoard()
	return r, nil
}

// SelectResult reports what a select event did.
type SelectResult struct {
	Accepted   bool     // false when the event was ignored outright
	Swapped    bool     // an adjacent pair was swapped and resolved
	Reverted   bool     // the swap produced no matches and was undone
	HadMatches bool
	Cascades   int
	ScoreDelta int      // score gained by this resolve (cascades only)
	Selected   *CellRef // pending first selection after this event, if any
	Outcome    Outcome
}

// Select feeds one select(row, col) event into the state machine.
//
// Transitions:
//   - Idle + select(a) → FirstSelected(a).
//   - FirstSelected(a) + select(a) → Idle (deselect).
//   - FirstSelected(a) + select(b), b not adjacent → FirstSelected(b).
//   - FirstSelected(a) + select(b), b adjacent → swap, resolve, consume move.
//
// Selects on blocked or out-of-bounds cells, while resolving, or after the
// round ended are ignored. A failed swap reverts immediately; any cosmetic
// delay belongs to the presentation layer.
func (r *Round) Select(row, col int) SelectResult {
	res := SelectResult{Outcome: r.outcome}
	if r.outcome != OutcomePlaying || r.phase == PhaseResolving {
		return res
	}
	if !r.grid.InBounds(row, col) || r.grid.IsBlocked(row, col) {
		if r.phase == PhaseFirstSelected {
			res.Selected = &r.selected
		}
		return res
	}
	sel := CellRef{Row: row, Col: col}
	res.Accepted = true

	if r.phase == PhaseIdle {
		r.phase = PhaseFirstSelected
		r.selected = sel
		res.Selected = &sel
		return res
	}

	// FirstSelected
	if sel == r.selected {
		r.phase = PhaseIdle
		return res
	}
	if !adjacent(sel, r.selected) {
		r.selected = sel
		res.Selected = &sel
		return res
	}

	first := r.selected
	r.phase = PhaseResolving
	r.grid.swap(first, sel)
	res.Swapped = true

	stats := r.resolve()
	res.HadMatches = stats.hadMatches
	res.Cascades = stats.cascades
	res.ScoreDelta = stats.scoreDelta

	if stats.hadMatches {
		r.applyBonusRules(stats)
	} else {
		r.grid.swap(first, sel)
		res.Reverted = true
		r.session.Combo = 1
	}

	r.session.MovesLeft--
	if r.session.MovesLeft < 0 {
		r.session.MovesLeft = 0
	}
	r.hooks.movesLeftChanged(r.session.MovesLeft)

	switch {
	case r.session.Matches >= r.cfg.TargetMatches:
		r.outcome = OutcomeWon
		r.hooks.roundEnded(true, r.session.Score)
	case r.session.MovesLeft == 0:
		if stats.hadMatches {
			// consolation: the losing move still matched
			consolation := stats.scoreDelta / 2
			r.session.Score += consolation
			r.hooks.scoreDelta(consolation)
		}
		r.outcome = OutcomeLost
		r.hooks.roundEnded(false, r.session.Score)
	}

	r.phase = PhaseIdle
	res.Outcome = r.outcome
	return res
}

// Session returns a copy of the current session counters.
func (r *Round) Session() Session { return r.session }

// CurrentOutcome returns the round state.
func (r *Round) CurrentOutcome() Outcome { return r.outcome }

// Config returns the round's configuration.
func (r *Round) Config() RoundConfig { return r.cfg }

// TileView is the outward shape of one occupied cell.
type TileView struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	Power string `json:"power,omitempty"`
}

// Snapshot is a full outward view of the round.
type Snapshot struct {
	GridSize  int           `json:"gridSize"`
	Cells     [][]*TileView `json:"cells"` // nil entries are blocked or empty
	Blocked   []CellRef     `json:"blocked,omitempty"`
	Score     int           `json:"score"`
	Matches   int           `json:"matches"`
	Target    int           `json:"targetMatches"`
	MovesLeft int           `json:"movesLeft"`
	Combo     float64       `json:"combo"`
	State     string        `json:"state"`
	Selected  *CellRef      `json:"selected,omitempty"`
}

// Snapshot renders the round for clients.
func (r *Round) Snapshot() Snapshot {
	size := r.grid.Size()
	cells := make([][]*TileView, size)
	var blocked []CellRef
	for row := 0; row < size; row++ {
		cells[row] = make([]*TileView, size)
		for col := 0; col < size; col++ {
			if r.grid.IsBlocked(row, col) {
				blocked = append(blocked, CellRef{Row: row, Col: col})
				continue
			}
			if t, ok := r.grid.TileAt(row, col); ok {
				cells[row][col] = &TileView{
					Type:  t.TypeID,
					Color: hexColor(t.Color),
					Power: t.Power.String(),
				}
			}
		}
	}
	snap := Snapshot{
		GridSize:  size,
		Cells:     cells,
		Blocked:   blocked,
		Score:     r.session.Score,
		Matches:   r.session.Matches,
		Target:    r.cfg.TargetMatches,
		MovesLeft: r.session.MovesLeft,
		Combo:     r.session.Combo,
		State:     r.outcome.String(),
	}
	if r.phase == PhaseFirstSelected {
		sel := r.selected
		snap.Selected = &sel
	}
	return snap
}

func hexColor(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
