package common

import (
	"regexp"
	"strings"

	"github.com/simsapa/simsapa-sub001/app/pali"
)

var (
	rePunct        = regexp.MustCompile(`[\.,;\?\!“”‘’…—-]`)
	reMultiSpace   = regexp.MustCompile(`  +`)
	reSpaceRun     = regexp.MustCompile(` +`)
	reQuoteOrSpace = regexp.MustCompile(`[ \.,;\?\!…—-]`)
	reShortI       = regexp.MustCompile(`[iī]`)
)

// RemovePunct drops punctuation and quote marks. 'ti is sometimes written
// without the apostrophe, so quotes are removed from both content and
// queries.
func RemovePunct(text string) string {
	text = rePunct.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, `"`, "")
	return reMultiSpace.ReplaceAllString(text, " ")
}

// CompactPlainText prepares plain text for indexing and substring matching.
func CompactPlainText(text string) string {
	text = reMultiSpace.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "{", "")
	text = strings.ReplaceAll(text, "}", "")
	text = strings.ToLower(text)
	text = RemovePunct(text)
	text = pali.Normalize(text)
	return strings.TrimSpace(text)
}

// OneLine joins all lines and collapses repeated spaces.
func OneLine(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return reMultiSpace.ReplaceAllString(text, " ")
}

// ExpandQuoteToPattern turns a quoted phrase into a regular expression which
// tolerates differences in quote marks, punctuation and the i/ī spelling.
func ExpandQuoteToPattern(text string) string {
	s := strings.ReplaceAll(text, `"`, "'")
	s = strings.ReplaceAll(s, "'", `['"“”‘’]*`)
	s = reSpaceRun.ReplaceAllString(s, " ")
	s = reShortI.ReplaceAllString(s, "[iī]")
	// The separator class contains a space itself, so it is expanded last.
	return reQuoteOrSpace.ReplaceAllLiteralString(s, `[ \n'"“”‘’\.,;\?\!…—-]*`)
}
