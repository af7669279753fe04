package identity

// Tables holds every lookup the normalizer consults. They are maintained
// denylists/allowlists grown from observed extraction output, not derived
// rules: add new entries here instead of touching the pipeline.
type Tables struct {
	// PlaceholderTokens mark usernames that never belong to a real player.
	// Any username containing one collapses to PlaceholderKey.
	PlaceholderTokens []string

	// Corrections maps a known-bad letters-only form to its canonical key.
	// Checked before every other rule.
	Corrections map[string]string

	// DigitLookalikes recovers digits the extractor read in place of
	// visually similar letters.
	DigitLookalikes map[byte]byte

	// NumericPrefixes are short letter runs that, led by a single digit,
	// form a decorative tag ("2AM", "4KT").
	NumericPrefixes []string

	// GamingPrefixes and GamingSuffixes are decoration tokens (streaming
	// tags, clan tags) stripped from either end under a minimum-remainder
	// guard.
	GamingPrefixes []string
	GamingSuffixes []string

	// ShortPrefixes is a closed list of 3-letter clan-style prefixes.
	ShortPrefixes []string

	// SingleLetterPrefixes are lone decorative letters, stripped only when
	// the rest of the name starts with a letter in PlausibleLeads.
	SingleLetterPrefixes string
	PlausibleLeads       string
}

// DefaultTables returns the maintained production tables.
func DefaultTables() Tables {
	return Tables{
		PlaceholderTokens: []string{"anonymous", "player", "newplayer"},

		Corrections: map[string]string{
			"amdibbs":    "dibbs",    // 2AMDIBBS
			"nvfjj":      "jj",       // NVFJJ7
			"doby":       "dob",      // DOBy
			"zquintin":   "quintin",  // ZQUINTIN
			"quintin":    "quintin",  // keep the leading Q intact
			"skittle":    "skitle",   // SKITTLE6
			"skeletos":   "skeleto",  // SKELETOS
			"amdarkcel":  "darkcely", // 2AM DARKCEL
			"amdarkcely": "darkcely", // 2AM DARKCELY
			"darkcel":    "darkcely",
			"darkcely":   "darkcely",
			"scamo":      "camo",   // SCAMO
			"legendx":    "legend", // XLEGENDX
			"herox":      "hero",   // HEROX
		},

		DigitLookalikes: map[byte]byte{
			'0': 'o',
			'1': 'i',
			'5': 's',
			'3': 'e',
			'7': 't',
			'8': 'b',
			'6': 'g',
		},

		NumericPrefixes: []string{"am", "kt"},

		GamingPrefixes: []string{
			"ttv", "twitch", "yt", "youtube", "stream", "live", "tv",
			"dvs", "ktk", "gvg", "zmr", "faze", "tsm", "nrg", "og", "clan",
			"reign", "team", "guild", "squad", "crew", "pro", "esports",
		},

		GamingSuffixes: []string{
			"ttv", "twitch", "yt", "youtube", "stream", "tv", "live",
			"pro", "gaming", "game", "player", "god", "king", "queen",
			"win", "wins", "best", "top", "og", "official",
		},

		ShortPrefixes: []string{"nvf", "gvg", "zmr"},

		SingleLetterPrefixes: "zxqbcs",
		PlausibleLeads:       "aeioudhmnprstl",
	}
}
