package themes

import (
	"testing"

	"github.com/slatecms/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestKnown(t *testing.T) {
	assert.True(t, Known(types.ThemeDefault))
	assert.True(t, Known(types.ThemeDark))
	assert.False(t, Known("neon"))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, "text-3xl font-bold mb-4", Lookup(types.ThemeDefault, "heading"))
	assert.Equal(t, "my-2 text-gray-300", Lookup(types.ThemeDark, "paragraph"))
	assert.Empty(t, Lookup(types.ThemeDefault, "nonexistent"))
}

func TestUnknownThemeFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Classes(types.ThemeDefault), Classes("neon"))
}

func TestEveryThemeCoversTheSameSlots(t *testing.T) {
	def := Classes(types.ThemeDefault)
	for _, theme := range []string{types.ThemeLight, types.ThemeDark, types.ThemePurple} {
		classes := Classes(theme)
		assert.Len(t, classes, len(def), "theme %s", theme)
		for slot := range def {
			assert.Contains(t, classes, slot, "theme %s", theme)
		}
	}
}
