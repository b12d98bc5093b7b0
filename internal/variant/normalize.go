// internal/variant/normalize.go
//
// Sanitizes an externally supplied, untrusted variant description into
// bounded, safe engine parameters. Contract: never errors — every malformed
// or out-of-range field is replaced by a paired built-in default, clamped,
// or dropped. The output catalog is never empty.

package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	css "github.com/mazznoer/csscolorparser"

	"github.com/mvickers/gemfall/internal/engine"
)

// Config is the normalized result: a safe RoundConfig plus the variant's
// display name.
type Config struct {
	Name  string
	Round engine.RoundConfig
}

// Accepted color spellings: #rgb, #rrggbb, 0xRRGGBB. Anything else rejects
// the block type entry carrying it.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|0x[0-9a-fA-F]{6})$`)

// Normalize turns raw variant JSON into a validated Config. A nil, empty or
// non-object payload yields the built-in classic configuration.
func Normalize(data []byte) Config {
	cfg := defaultConfig()

	var raw map[string]any
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil || raw == nil {
		return cfg
	}

	if name, ok := str(raw["name"]); ok && strings.TrimSpace(name) != "" {
		cfg.Name = strings.TrimSpace(name)
		// truncate on a rune boundary, names may be non-ASCII
		if r := []rune(cfg.Name); len(r) > maxNameRunes {
			cfg.Name = string(r[:maxNameRunes])
		}
	}

	if v, ok := num(raw["baseGridSize"]); ok {
		cfg.Round.GridSize = clampi(int(v), engine.MinGridSize, engine.MaxGridSize)
	}
	if v, ok := num(raw["targetMatchesModifier"]); ok {
		cfg.Round.TargetMatches = clampi(defaultTarget+int(v), minTarget, maxTarget)
	}
	if v, ok := num(raw["moveBudgetModifier"]); ok {
		cfg.Round.MoveBudget = clampi(defaultMoveBudget+int(v), minMoves, maxMoves)
	}
	if v, ok := num(raw["comboDecaySeconds"]); ok {
		cfg.Round.ComboDecaySeconds = clampf(v, minComboDecay, maxComboDecay)
	}

	cfg.Round.BlockTypes = normalizeBlockTypes(raw["blockTypes"])
	cfg.Round.BonusRules = normalizeBonusRules(raw["bonusRules"], cfg.Round.BlockTypes)
	cfg.Round.Blocked = normalizeBlocked(raw["boardModifier"], cfg.Round.GridSize)

	return cfg
}

// normalizeBlockTypes sanitizes the catalog. Entries with an unparseable
// color are rejected outright; other malformed fields borrow from the
// index-aligned fallback. A result with fewer than three distinct colors
// cannot produce a match-free starting board (a cell whose row and column
// neighbors disagree needs a third color), so it substitutes the full
// fallback catalog, never a partial one.
func normalizeBlockTypes(v any) []engine.BlockType {
	fallback := fallbackCatalog()
	items, ok := v.([]any)
	if !ok {
		return fallback
	}

	var out []engine.BlockType
	seen := make(map[string]struct{})
	for i, item := range items {
		if len(out) >= maxBlockTypes {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pair := fallback[i%len(fallback)]

		bt := engine.BlockType{SpawnWeight: 1}
		if id, ok := str(entry["id"]); ok && strings.TrimSpace(id) != "" {
			bt.ID = strings.TrimSpace(id)
		} else {
			bt.ID = pair.ID
		}
		if _, dup := seen[bt.ID]; dup {
			continue
		}

		if name, ok := str(entry["name"]); ok && strings.TrimSpace(name) != "" {
			bt.Name = strings.TrimSpace(name)
		} else {
			bt.Name = pair.Name
		}

		if rawColor, present := entry["color"]; present {
			c, ok := parseColor(rawColor)
			if !ok {
				continue // invalid color rejects the whole entry
			}
			bt.Color = c
		} else {
			bt.Color = pair.Color
		}

		if w, ok := num(entry["spawnWeight"]); ok {
			bt.SpawnWeight = clampf(w, minSpawnWeight, maxSpawnWeight)
		}
		if b, ok := num(entry["bonusScore"]); ok {
			bt.BonusScore = clampi(int(b), 0, maxBonusScore)
		}
		if p, ok := str(entry["power"]); ok {
			bt.Power = parsePower(p)
		}

		seen[bt.ID] = struct{}{}
		out = append(out, bt)
	}
	colors := make(map[engine.RGB]struct{}, len(out))
	for _, bt := range out {
		colors[bt.Color] = struct{}{}
	}
	if len(colors) < minDistinctColors {
		return fallback
	}
	return out
}

// normalizeBonusRules keeps a rule only when its trigger is known and its
// sanitized reward still does something.
func normalizeBonusRules(v any, catalog []engine.BlockType) []engine.BonusRule {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	known := make(map[string]struct{}, len(catalog))
	for _, bt := range catalog {
		known[bt.ID] = struct{}{}
	}

	var out []engine.BonusRule
	seen := make(map[string]struct{})
	for i, item := range items {
		if len(out) >= maxBonusRules {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		trigger, ok := parseTrigger(entry["triggerType"])
		if !ok {
			continue
		}

		rule := engine.BonusRule{Trigger: trigger, Threshold: 1}
		if id, ok := str(entry["id"]); ok && strings.TrimSpace(id) != "" {
			rule.ID = strings.TrimSpace(id)
		} else {
			rule.ID = fmt.Sprintf("rule-%d", i+1)
		}
		if _, dup := seen[rule.ID]; dup {
			continue
		}
		if th, ok := num(entry["threshold"]); ok {
			rule.Threshold = clampf(th, minRuleThreshold, maxRuleThreshold)
		}

		if reward, ok := entry["reward"].(map[string]any); ok {
			if v, ok := num(reward["extraMoves"]); ok {
				rule.Reward.ExtraMoves = clampi(int(v), -maxExtraMoves, maxExtraMoves)
			}
			if v, ok := num(reward["score"]); ok {
				rule.Reward.Score = clampi(int(v), 0, maxRewardScore)
			}
			if id, ok := str(reward["spawnSpecialBlockId"]); ok {
				if _, exists := known[id]; exists {
					rule.Reward.SpawnBlockID = id
				}
			}
		}
		// a no-op reward makes the whole rule pointless
		if rule.Reward == (engine.BonusReward{}) {
			continue
		}

		seen[rule.ID] = struct{}{}
		out = append(out, rule)
	}
	return out
}

// normalizeBlocked reads boardModifier.blockedCells, dropping out-of-range
// refs and duplicates, and capping the count so the board stays playable.
func normalizeBlocked(v any, gridSize int) []engine.CellRef {
	mod, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := mod["blockedCells"].([]any)
	if !ok {
		return nil
	}
	limit := gridSize * gridSize / 3

	var out []engine.CellRef
	seen := make(map[engine.CellRef]struct{})
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row, okR := num(entry["row"])
		col, okC := num(entry["col"])
		if !okR || !okC {
			continue
		}
		ref := engine.CellRef{Row: int(row), Col: int(col)}
		if ref.Row < 0 || ref.Row >= gridSize || ref.Col < 0 || ref.Col >= gridSize {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func parseColor(v any) (engine.RGB, bool) {
	s, ok := str(v)
	if !ok || !colorPattern.MatchString(s) {
		return engine.RGB{}, false
	}
	if strings.HasPrefix(s, "0x") {
		s = "#" + s[2:]
	}
	c, err := css.Parse(s)
	if err != nil {
		return engine.RGB{}, false
	}
	return engine.RGB{
		R: uint8(math.Round(255 * c.R)),
		G: uint8(math.Round(255 * c.G)),
		B: uint8(math.Round(255 * c.B)),
	}, true
}

func parsePower(s string) engine.Power {
	switch s {
	case "bomb":
		return engine.PowerBomb
	case "lineHorizontal":
		return engine.PowerLineH
	case "lineVertical":
		return engine.PowerLineV
	case "colorClear":
		return engine.PowerColorClear
	case "scoreBoost":
		return engine.PowerScoreBoost
	default:
		return engine.PowerNone
	}
}

func parseTrigger(v any) (engine.BonusTrigger, bool) {
	s, ok := str(v)
	if !ok {
		return 0, false
	}
	switch s {
	case "totalMatches":
		return engine.TriggerTotalMatches, true
	case "combo":
		return engine.TriggerCombo, true
	case "cascade":
		return engine.TriggerCascade, true
	default:
		return 0, false
	}
}

// num coerces a decoded JSON value to a finite float64.
func num(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
