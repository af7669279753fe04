package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMergesKnownVariants(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{"numeric prefix variant", "2AMDIBBS", "DIBBS", "dibbs"},
		{"clan prefix with stray digit", "NVFJJ7", "JJ", "jj"},
		{"decorative leading letter", "ZQUINTIN", "QUINTIN", "quintin"},
		{"correction table spelling", "2AM DARKCEL", "DARKCELY", "darkcely"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.a))
			assert.Equal(t, tt.want, n.Normalize(tt.b))
		})
	}
}

func TestNormalizePipeline(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases", "HOWLER", "howler"},
		{"digit lookalike substitution", "H0WLER", "howler"},
		{"numeric prefix stripped", "4KTWOLF", "wolf"},
		{"streaming prefix stripped", "TTVNinja", "ninja"},
		{"streaming suffix stripped", "DragonTTV", "dragon"},
		{"doubled wrapper unwrapped", "xxDragonxx", "dragon"},
		{"clan short prefix stripped", "NVFHUNTER", "hunter"},
		{"single decorative letter stripped", "ZDANIEL", "daniel"},
		{"trailing decoration stripped", "MARCUSY", "marcus"},
		{"long repeat run collapsed", "Heyyyy", "hey"},
		{"whitespace and symbols ignored", "  dib_bs! ", "dibbs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

// Every destructive rule has a minimum-remainder guard; short names must pass
// through intact even when they superficially match a decoration pattern.
func TestNormalizeGuardsShortNames(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"prefix kept when remainder too short", "TTVab", "ttvab"},
		{"short name keeps leading z", "ZOE", "zoe"},
		{"doubled letters are legitimate", "Anna", "anna"},
		{"numeric prefix kept on short name", "2AMABC", "amabc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizePlaceholders(t *testing.T) {
	n := New()

	for _, raw := range []string{"Anonymous", "Player 3", "NewPlayer12", "anonymous_user"} {
		assert.Equal(t, PlaceholderKey, n.Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := New()

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   "))
}

// Keys must be fixed points: re-normalizing any output returns it unchanged,
// so a display username that equals its key never drifts to a new identity.
func TestNormalizeIdempotent(t *testing.T) {
	n := New()

	inputs := []string{
		"2AMDIBBS", "NVFJJ7", "ZQUINTIN", "SKITTLE6", "SKELETOS",
		"2AM DARKCELY", "SCAMO", "XLEGENDX", "HEROX", "DOBy",
		"H0WLER", "4KTWOLF", "TTVNinja", "xxDragonxx", "NVFHUNTER",
		"ZDANIEL", "MARCUSY", "Heyyyy", "TTVab",
	}
	for _, raw := range inputs {
		key := n.Normalize(raw)
		assert.Equal(t, key, n.Normalize(key), "raw=%q key=%q", raw, key)
	}
}

func TestNormalizeFallsBackToLettersOnly(t *testing.T) {
	n := New()

	// Everything strippable gets stripped, so the letters-only form wins.
	assert.Equal(t, "xi", n.Normalize("x1"))
	// Even the letters-only form is too short: return the lowered original.
	assert.Equal(t, "a!", n.Normalize("A!"))
}

func TestNormalizeCustomTables(t *testing.T) {
	tables := DefaultTables()
	tables.Corrections["wlf"] = "wolf"
	n := NewWithTables(tables)

	assert.Equal(t, "wolf", n.Normalize("WLF"))
}
