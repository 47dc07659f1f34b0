package datetime

import (
	"strings"
	"unicode"
)

// normalizeKey lowercases a lookup key, keeps letters and digits and
// collapses everything else into single spaces. All name indexes in this
// package are keyed by the result, so "São Paulo," and "sao paulo" (after
// punctuation stripping) land on the same bucket shape.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// normalizeHoliday prepares a holiday name for fuzzy matching. Apostrophes
// are removed outright so "New Year's Day" and "new years day" compare equal;
// remaining punctuation collapses to spaces via normalizeKey.
func normalizeHoliday(s string) string {
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "’", "")
	return normalizeKey(s)
}
