package assets

import "embed"

//go:embed variants.json
var FS embed.FS

// VariantsJSON returns the embedded variant preset file.
func VariantsJSON() ([]byte, error) {
	return FS.ReadFile("variants.json")
}
