// Package styles resolves scoreboard display styling.
//
// A scoreboard style is a preset's property map with the owner's custom
// properties layered on top. Style scope decides which views receive the
// resolved style.
package styles

import "github.com/okian/tally/internal/domain/model"

// View identifies a rendering surface.
type View string

const (
	ViewMain  View = "main"
	ViewEmbed View = "embed"
)

// DefaultPreset is used when a scoreboard names no preset.
const DefaultPreset = "classic"

// presetKey is the reserved style property naming the base preset.
const presetKey = "preset"

var presets = map[string]model.StyleMap{
	"classic": {
		"background":   "#ffffff",
		"text":         "#1a1a2e",
		"accent":       "#2563eb",
		"row-striping": "on",
		"font":         "sans-serif",
	},
	"midnight": {
		"background":   "#0f172a",
		"text":         "#e2e8f0",
		"accent":       "#38bdf8",
		"row-striping": "off",
		"font":         "sans-serif",
	},
	"stadium": {
		"background":   "#052e16",
		"text":         "#fef9c3",
		"accent":       "#facc15",
		"row-striping": "on",
		"font":         "mono",
	},
}

// Presets lists the known preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

// KnownPreset reports whether name is a defined preset.
func KnownPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// Resolve merges a scoreboard's custom style over its preset. The custom
// map's "preset" property selects the base; unknown or absent presets fall
// back to DefaultPreset. The inputs are never modified.
func Resolve(custom model.StyleMap) model.StyleMap {
	name := custom[presetKey]
	base, ok := presets[name]
	if !ok {
		base = presets[DefaultPreset]
	}

	out := make(model.StyleMap, len(base)+len(custom))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range custom {
		if k == presetKey {
			continue
		}
		out[k] = v
	}
	return out
}

// AppliesTo reports whether a style with the given scope is rendered on
// the given view.
func AppliesTo(scope model.StyleScope, view View) bool {
	switch scope {
	case model.ScopeBoth:
		return true
	case model.ScopeMain:
		return view == ViewMain
	case model.ScopeEmbed:
		return view == ViewEmbed
	default:
		return false
	}
}
