// internal/variant/catalog.go
//
// Preset variant management.
//
// Responsibilities:
//   - Load the variant preset file from an environment-provided path or fall
//     back to the embedded defaults.
//   - Normalize every preset up front so lookups always return a playable
//     configuration.
//   - Supply accessors: Presets, ByName, ByIndex, Count.
//
// Initialization behavior (Init):
//   1. If VARIANTS_FILE is set, load presets from that path.
//   2. Otherwise fall back to the embedded variants.json.
//
// Constraints:
//   • Preset names must be unique; later duplicates are dropped.
//   • Initialization runs once (sync.Once).

package variant

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/mvickers/gemfall/assets"
)

// Preset is one named entry of the variant catalog, already normalized.
type Preset struct {
	Name   string
	Config Config
}

// presetFile matches the on-disk/embedded JSON shape. The variant payload is
// kept raw and pushed through Normalize so a hand-edited preset file gets the
// same sanitization as an API-supplied variant.
type presetFile struct {
	Name    string          `json:"name"`
	Variant json.RawMessage `json:"variant"`
}

var (
	initOnce   sync.Once
	presets    []Preset
	presetIdx  map[string]int
	initialErr error
)

// Init loads and normalizes the preset catalog exactly once.
// Returns an error if the catalog ends up empty.
func Init() error {
	initOnce.Do(func() {
		var data []byte
		var err error

		if path := os.Getenv("VARIANTS_FILE"); path != "" {
			data, err = os.ReadFile(path)
		} else {
			data, err = assets.VariantsJSON()
		}
		if err != nil {
			initialErr = err
			return
		}

		var raw []presetFile
		if err := json.Unmarshal(data, &raw); err != nil {
			initialErr = err
			return
		}

		presetIdx = make(map[string]int)
		for _, p := range raw {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				continue
			}
			if _, dup := presetIdx[name]; dup {
				continue
			}
			cfg := Normalize(p.Variant)
			cfg.Name = name
			presetIdx[name] = len(presets)
			presets = append(presets, Preset{Name: name, Config: cfg})
		}

		if len(presets) == 0 {
			initialErr = errors.New("variant: preset catalog is empty")
		}
	})
	return initialErr
}

// Presets returns the loaded catalog in file order.
func Presets() []Preset {
	return presets
}

// ByName looks up a preset by its exact name.
func ByName(name string) (Preset, bool) {
	i, ok := presetIdx[name]
	if !ok {
		return Preset{}, false
	}
	return presets[i], true
}

// ByIndex returns preset i modulo the catalog size, for deterministic
// date-based selection.
func ByIndex(i int) Preset {
	if len(presets) == 0 {
		return Preset{Name: "classic", Config: defaultConfig()}
	}
	if i < 0 {
		i = -i
	}
	return presets[i%len(presets)]
}

// Count returns the number of loaded presets.
func Count() int { return len(presets) }
