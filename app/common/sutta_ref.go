package common

import (
	"regexp"
	"strings"
)

// A query which consists of nothing but a book reference, e.g. "MN 44",
// "sn 56.11", "Sn 4:2" or "D 22".
var reBookSuttaRef = regexp.MustCompile(`(?i)^(dn|mn|sn|an|pv|vv|vism|iti|kp|khp|snp|th|thag|thig|ud|uda|dhp|d|m|s|a)[ .]*(\d[\d.:]*)$`)

var suttaRefRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`ud *(\d)`), "uda $1"},
	{regexp.MustCompile(`khp *(\d)`), "kp $1"},
	{regexp.MustCompile(`th *(\d)`), "thag $1"},
	{regexp.MustCompile(`^d `), "dn "},
	{regexp.MustCompile(`^m `), "mn "},
	{regexp.MustCompile(`^s `), "sn "},
	{regexp.MustCompile(`^a `), "an "},
}

// NormalizeSuttaRef lower-cases a reference and expands the short book
// names, "ud 2.1" becomes "uda 2.1".
func NormalizeSuttaRef(ref string) string {
	ref = strings.ToLower(ref)
	for _, r := range suttaRefRules {
		ref = r.re.ReplaceAllString(ref, r.repl)
	}
	return strings.TrimSpace(ref)
}

// NormalizeSuttaUid is NormalizeSuttaRef without spaces, and with the
// section separator written as a dot.
func NormalizeSuttaUid(uid string) string {
	uid = NormalizeSuttaRef(uid)
	uid = strings.ReplaceAll(uid, " ", "")
	return strings.ReplaceAll(uid, ":", ".")
}

// IsBookSuttaRef reports whether the whole query is a book reference.
func IsBookSuttaRef(query string) bool {
	return reBookSuttaRef.MatchString(strings.TrimSpace(query))
}

// QueryTextToUidFieldQuery turns "SN 44.22" into "uid:sn44.22". Any other
// query is returned unchanged.
func QueryTextToUidFieldQuery(query string) string {
	q := strings.TrimSpace(query)
	m := reBookSuttaRef.FindStringSubmatch(q)
	if m == nil {
		return query
	}
	return "uid:" + NormalizeSuttaUid(m[1]+" "+strings.TrimRight(m[2], ".:"))
}

// SanitizeUserInput expands the short field names users type.
func SanitizeUserInput(query string) string {
	return strings.ReplaceAll(query, "source:", "source_uid:")
}
