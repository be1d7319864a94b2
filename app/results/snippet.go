package results

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MatchOpen  = "<span class='match'>"
	MatchClose = "</span>"
)

func queryPattern(query string) *regexp.Regexp {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(q))
	if err != nil {
		return nil
	}
	return re
}

// TermsPattern matches any of the terms, literally and ignoring case, or as
// regular expressions when regex is set. It is nil when there are no terms
// or a term does not compile.
func TermsPattern(terms []string, regex bool) *regexp.Regexp {
	var alts []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if regex {
			alts = append(alts, "(?:"+t+")")
		} else {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	flags := "(?i)"
	if regex {
		flags = "(?s)"
	}
	re, err := regexp.Compile(flags + strings.Join(alts, "|"))
	if err != nil {
		return nil
	}
	return re
}

// FragmentAround cuts a window of about length characters around the first
// case-insensitive occurrence of query. Cut ends are marked with "...".
// Without an occurrence the start of the content is returned.
func FragmentAround(query, content string, length int) string {
	return FragmentAroundPattern(queryPattern(query), content, length)
}

// FragmentAroundPattern is FragmentAround for the first match of re.
func FragmentAroundPattern(re *regexp.Regexp, content string, length int) string {
	n := 0
	if re != nil {
		if loc := re.FindStringIndex(content); loc != nil {
			n = utf8.RuneCountInString(content[:loc[0]])
		}
	}

	runes := []rune(content)
	if len(runes) <= length {
		return content
	}

	start := n - length/2
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
		start = max(0, end-length)
	}

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("... ")
	}
	sb.WriteString(string(runes[start:end]))
	if end < len(runes) {
		sb.WriteString(" ...")
	}
	return sb.String()
}

// HighlightQuery wraps every case-insensitive occurrence of query in a match
// span, keeping the original casing of the content.
func HighlightQuery(query, content string) string {
	return HighlightPattern(queryPattern(query), content)
}

// HighlightTerms is HighlightQuery for several terms at once, so that a
// term is never matched inside the markup added for another.
func HighlightTerms(terms []string, content string) string {
	return HighlightPattern(TermsPattern(terms, false), content)
}

// HighlightPattern wraps every non-empty match of re in a match span.
func HighlightPattern(re *regexp.Regexp, content string) string {
	if re == nil {
		return content
	}
	return re.ReplaceAllStringFunc(content, func(m string) string {
		if m == "" {
			return m
		}
		return MatchOpen + m + MatchClose
	})
}

var reMark = regexp.MustCompile(`</?mark>`)

// MarksToMatchSpans rewrites the <mark> tags of the fulltext highlighter.
func MarksToMatchSpans(fragment string) string {
	return reMark.ReplaceAllStringFunc(fragment, func(m string) string {
		if strings.HasPrefix(m, "</") {
			return MatchClose
		}
		return MatchOpen
	})
}
