package docstore

import (
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Patterns repeat for every row of a query, compile each once.
var regexCache = cache.New(2*time.Minute, 5*time.Minute)

// regexpMatch backs the SQL REGEXP operator. "X REGEXP Y" calls
// regexp(Y, X), so the pattern comes first.
func regexpMatch(pattern, s string) (bool, error) {
	re := pattern
	if !strings.HasPrefix(re, "(?s)") {
		re = "(?s)" + re
	}

	if cached, found := regexCache.Get(re); found {
		return cached.(*regexp.Regexp).MatchString(s), nil
	}
	compiled, err := regexp.Compile(re)
	if err != nil {
		return false, err
	}
	regexCache.Set(re, compiled, cache.DefaultExpiration)
	return compiled.MatchString(s), nil
}
