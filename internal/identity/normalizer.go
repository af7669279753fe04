// Package identity derives canonical identity keys from noisy, OCR-derived
// usernames. Two raw usernames that normalize to the same key are treated as
// the same player by the aggregation engine.
//
// The pipeline is a layered set of heuristics with a minimum-remainder guard
// at every destructive step. The guards were tuned against real screenshots
// where over-aggressive stripping merged distinct players; do not relax them.
package identity

import "strings"

// PlaceholderKey is the key every anonymous/placeholder username collapses
// to. Callers must filter it out instead of merging it as a player.
const PlaceholderKey = "player"

type Normalizer struct {
	tables Tables
}

func New() *Normalizer {
	return &Normalizer{tables: DefaultTables()}
}

func NewWithTables(t Tables) *Normalizer {
	return &Normalizer{tables: t}
}

// Normalize maps a raw username to its identity key. It is deterministic and
// total: the worst case returns the lower-cased letters-only form of the
// input, or the lower-cased input itself when even that is empty. An empty
// or whitespace-only input yields an empty key, which callers must reject.
//
// Digits are handled in one fixed order: the correction table is consulted on
// the letters-only form first, then decorative numeric prefixes are stripped
// while digits are still present, then remaining digits are substituted with
// their look-alike letters.
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lowered := strings.ToLower(trimmed)
	for _, tok := range n.tables.PlaceholderTokens {
		if strings.Contains(lowered, tok) {
			return PlaceholderKey
		}
	}

	lettersOnly := stripNonLetters(lowered)
	if fixed, ok := n.tables.Corrections[lettersOnly]; ok {
		return fixed
	}

	s := stripNonAlphanumeric(lowered)
	s = n.stripNumericPrefix(s)
	s = substituteDigits(s, n.tables.DigitLookalikes)
	s = collapseRuns(s, 4)
	s = stripTokenPrefix(s, n.tables.GamingPrefixes, 4)
	s = stripTokenSuffix(s, n.tables.GamingSuffixes, 4)
	s = stripDoubledWrapper(s)
	s = n.stripShortPrefix(s)
	s = n.stripSingleLetterPrefix(s)
	s = stripTrailingDecoration(s)

	if len(s) < 2 {
		if len(lettersOnly) >= 2 {
			return lettersOnly
		}
		return lowered
	}
	// A stripped form can expose a correction key the raw input hid (the
	// table is keyed on undecorated spellings). Re-check so keys stay fixed
	// points under re-normalization.
	if fixed, ok := n.tables.Corrections[s]; ok {
		return fixed
	}
	return s
}

// stripNumericPrefix removes a leading digit+token decoration ("2am", "4kt")
// while digits are still in the string. Guard: >6 chars total, >=4 left.
func (n *Normalizer) stripNumericPrefix(s string) string {
	if len(s) <= 6 || s[0] < '0' || s[0] > '9' {
		return s
	}
	for _, tok := range n.tables.NumericPrefixes {
		if strings.HasPrefix(s[1:], tok) && len(s)-1-len(tok) >= 4 {
			return s[1+len(tok):]
		}
	}
	return s
}

// stripShortPrefix removes one 3-letter clan-style prefix from the closed
// list. Guard: >6 chars total, >=4 left.
func (n *Normalizer) stripShortPrefix(s string) string {
	if len(s) <= 6 {
		return s
	}
	for _, prefix := range n.tables.ShortPrefixes {
		if strings.HasPrefix(s, prefix) && len(s)-len(prefix) >= 4 {
			return s[len(prefix):]
		}
	}
	return s
}

// stripSingleLetterPrefix removes a lone decorative letter only when the
// remainder still reads like a name (starts with a vowel or a common leading
// consonant). Guard: >5 chars total, >=4 left.
func (n *Normalizer) stripSingleLetterPrefix(s string) string {
	if len(s) <= 5 {
		return s
	}
	if !strings.ContainsRune(n.tables.SingleLetterPrefixes, rune(s[0])) {
		return s
	}
	rest := s[1:]
	if len(rest) >= 4 && strings.ContainsRune(n.tables.PlausibleLeads, rune(rest[0])) {
		return rest
	}
	return s
}

// stripTokenPrefix removes at most one decoration token from the front,
// keeping at least minLeft characters.
func stripTokenPrefix(s string, tokens []string, minLeft int) string {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok) && len(s) > len(tok) {
			if rest := s[len(tok):]; len(rest) >= minLeft {
				return rest
			}
		}
	}
	return s
}

// stripTokenSuffix removes at most one decoration token from the back,
// keeping at least minLeft characters.
func stripTokenSuffix(s string, tokens []string, minLeft int) string {
	for _, tok := range tokens {
		if strings.HasSuffix(s, tok) && len(s) > len(tok) {
			if rest := s[:len(s)-len(tok)]; len(rest) >= minLeft {
				return rest
			}
		}
	}
	return s
}

// stripDoubledWrapper unwraps "xx...xx" bracket decorations when at least 3
// characters remain.
func stripDoubledWrapper(s string) string {
	if len(s) > 6 && strings.HasPrefix(s, "xx") && strings.HasSuffix(s, "xx") {
		if inner := s[2 : len(s)-2]; len(inner) >= 3 {
			return inner
		}
	}
	return s
}

// stripTrailingDecoration removes a single trailing 'y' or 'z' when at least
// 3 characters remain. Guard: >4 chars total.
func stripTrailingDecoration(s string) string {
	if len(s) > 4 && (s[len(s)-1] == 'y' || s[len(s)-1] == 'z') {
		if rest := s[:len(s)-1]; len(rest) >= 3 {
			return rest
		}
	}
	return s
}

// collapseRuns squashes runs of threshold or more identical consecutive
// bytes to a single occurrence. Shorter runs are legitimate doubled letters
// and stay untouched.
func collapseRuns(s string, threshold int) string {
	if len(s) < threshold {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && s[i] == s[start] {
			continue
		}
		run := i - start
		if run >= threshold {
			run = 1
		}
		for j := 0; j < run; j++ {
			b.WriteByte(s[start])
		}
		start = i
	}
	return b.String()
}

// substituteDigits replaces digits with their look-alike letters and drops
// any digit without a mapping.
func substituteDigits(s string, lookalikes map[byte]byte) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if letter, ok := lookalikes[c]; ok {
				b.WriteByte(letter)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func stripNonLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
