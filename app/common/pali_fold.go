package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics removes combining marks, so that "paṭiccasamuppāda" and
// "paticcasamuppada" compare equal. The root sign √ is dropped as well.
func FoldDiacritics(s string) string {
	s = strings.ReplaceAll(s, "√", "")
	// A transform.Chain keeps state, one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Latinize maps the Pāli letters with diacritics to plain ASCII letters,
// the form used in the word_ascii columns.
func Latinize(s string) string {
	return FoldDiacritics(strings.ToLower(s))
}
