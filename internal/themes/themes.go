// Package themes holds the static theme-preset dictionary: theme name to
// a map of render slot to style-class string. The table is read-only and
// shared by all requests.
package themes

import (
	"sort"

	"github.com/slatecms/apiserver/types"
)

var presets = map[string]map[string]string{
	types.ThemeDefault: {
		"body":       "prose mx-auto p-6",
		"heading":    "text-3xl font-bold mb-4",
		"subheading": "text-2xl font-semibold my-2",
		"paragraph":  "my-2",
		"table":      "table-auto border my-4",
		"td":         "border px-2 py-1",
		"button":     "px-4 py-2 bg-blue-600 text-white rounded-lg",
		"image":      "my-4",
	},
	types.ThemeDark: {
		"body":       "prose mx-auto p-6 bg-gray-900 text-white",
		"heading":    "text-3xl font-bold mb-4 text-white",
		"subheading": "text-2xl font-semibold my-2 text-gray-200",
		"paragraph":  "my-2 text-gray-300",
		"table":      "table-auto border border-gray-700 my-4 text-gray-200",
		"td":         "border border-gray-700 px-2 py-1",
		"button":     "px-4 py-2 bg-purple-600 text-white rounded-lg hover:bg-purple-700",
		"image":      "my-4 rounded-lg shadow",
	},
	types.ThemeLight: {
		"body":       "prose mx-auto p-6 bg-white text-gray-800",
		"heading":    "text-3xl font-bold mb-4 text-gray-900",
		"subheading": "text-2xl font-semibold my-2 text-gray-700",
		"paragraph":  "my-2 text-gray-600",
		"table":      "table-auto border border-gray-300 my-4",
		"td":         "border border-gray-300 px-2 py-1",
		"button":     "px-4 py-2 bg-green-500 text-white rounded-lg hover:bg-green-600",
		"image":      "my-4 rounded-lg shadow",
	},
	types.ThemePurple: {
		"body":       "prose mx-auto p-6 bg-purple-50 text-purple-900",
		"heading":    "text-3xl font-bold mb-4 text-purple-900",
		"subheading": "text-2xl font-semibold my-2 text-purple-700",
		"paragraph":  "my-2 text-purple-800",
		"table":      "table-auto border border-purple-300 my-4",
		"td":         "border border-purple-300 px-2 py-1",
		"button":     "px-4 py-2 bg-purple-600 text-white rounded-lg hover:bg-purple-700",
		"image":      "my-4 rounded-lg shadow-lg",
	},
}

// Names returns the preset theme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether theme names a preset.
func Known(theme string) bool {
	_, ok := presets[theme]
	return ok
}

// Classes returns the full slot map for the given theme. Unknown themes
// fall back to the default preset.
func Classes(theme string) map[string]string {
	if preset, ok := presets[theme]; ok {
		return preset
	}
	return presets[types.ThemeDefault]
}

// Lookup returns the class string for one slot of the given theme.
func Lookup(theme, key string) string {
	return Classes(theme)[key]
}
