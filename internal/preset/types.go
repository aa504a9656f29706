// Package preset discovers named style presets on disk.
package preset

// ManifestFile is the file name a preset directory must contain.
const ManifestFile = "preset.json"

// Manifest describes a preset: a style, an optional variant and the
// parameters to start it with.
type Manifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Style       string         `json:"style"`
	Variant     string         `json:"variant,omitempty"`
	Params      map[string]any `json:"params"`
}

// Preset is a discovered preset with its location.
type Preset struct {
	Manifest Manifest `json:"manifest"`
	Path     string   `json:"path"`
}
