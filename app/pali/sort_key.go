package pali

import (
	"sort"
	"strings"
)

// Pāḷi alphabetical order. Aspirated consonants are single letters.
var letterOrder = []string{
	"√",
	"a", "ā", "i", "ī", "u", "ū", "e", "o",
	"k", "kh", "g", "gh", "ṅ",
	"c", "ch", "j", "jh", "ñ",
	"ṭ", "ṭh", "ḍ", "ḍh", "ṇ",
	"t", "th", "d", "dh", "n",
	"p", "ph", "b", "bh", "m",
	"y", "r", "l", "v", "s", "h", "ḷ", "ṁ",
}

var sortKeyReplacer = func() *strings.Replacer {
	var pairs []string
	// strings.Replacer prefers the earliest pair at a position, so digraphs
	// have to be listed before their first letter.
	for i, l := range letterOrder {
		if len([]rune(l)) == 2 {
			pairs = append(pairs, l, sortCode(i))
		}
	}
	for i, l := range letterOrder {
		if len([]rune(l)) != 2 {
			pairs = append(pairs, l, sortCode(i))
		}
	}
	pairs = append(pairs, "ṃ", sortCode(len(letterOrder)-1))
	return strings.NewReplacer(pairs...)
}()

func sortCode(i int) string {
	return string([]byte{'0' + byte(i/10), '0' + byte(i%10)})
}

// SortKey returns a key which orders words in Pāḷi alphabetical order when
// compared bytewise. Characters outside the alphabet (digits, spaces) are
// kept as they are, so "kamma 1" sorts before "kamma 2".
func SortKey(word string) string {
	return sortKeyReplacer.Replace(word)
}

// SortStrings sorts words in place in Pāḷi alphabetical order.
func SortStrings(words []string) {
	sort.SliceStable(words, func(i, j int) bool {
		return SortKey(words[i]) < SortKey(words[j])
	})
}
