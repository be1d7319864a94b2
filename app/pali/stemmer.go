package pali

import "strings"

type declension struct {
	endings []string
	repl    string
}

// Longer endings come first, so a 5-char ending is never pre-empted by one of
// its own suffixes. The table follows the Snowball Pāli stemmer.
var declensions = []declension{
	// masc. -a, -i, -u, 5 chars
	{[]string{"asmiṁ"}, "a"},
	{[]string{"ismiṁ"}, "i"},
	{[]string{"usmiṁ"}, "u"},

	// 4 chars
	{[]string{"ānaṁ", "amhā", "amhi", "asmā", "assa"}, "a"},
	{[]string{"āyaṁ", "āyo"}, "ā"},
	{[]string{"īnaṁ", "imhā", "imhi", "ismā", "issa"}, "i"},
	{[]string{"iyaṁ"}, "i"},
	{[]string{"inaṁ"}, "ī"},
	{[]string{"umhā", "umhi", "usmā", "ussa", "ūnaṁ"}, "u"},
	{[]string{"uyaṁ"}, "u"},

	// 3 chars
	{[]string{"āya", "ehi", "ena", "esu"}, "a"},
	{[]string{"āhi", "āsu"}, "ā"},
	{[]string{"āni"}, "a"},
	{[]string{"ayo", "īhi", "īsu", "inā", "ino"}, "i"},
	{[]string{"īni", "ini", "isu"}, "i"},
	{[]string{"iyā", "iyo"}, "i"},
	{[]string{"ave", "avo", "unā", "uno", "ūhi", "ūsu"}, "u"},
	{[]string{"ūni"}, "u"},
	{[]string{"usu", "uyā", "uyo"}, "u"},

	// 2 chars
	{[]string{"aṁ"}, "a"},
	{[]string{"iṁ"}, "i"},
	{[]string{"uṁ"}, "u"},

	// 1 char
	{[]string{"o", "ā", "e"}, "a"},
	{[]string{"ī"}, "i"},
	{[]string{"ū"}, "u"},
}

// Stem removes noun declension endings from word.
//
// Every rule is tried in table order against the current stem, and every rule
// that matches is applied, so one word can lose more than one ending (e.g.
// kaññāyo → kaññā → kañña when keepVowel is set). With keepVowel the matched
// ending is replaced by the rule's vowel, otherwise it is dropped.
func Stem(word string, keepVowel bool) string {
	stem := Normalize(word)
	for _, d := range declensions {
		for _, e := range d.endings {
			if !strings.HasSuffix(stem, e) {
				continue
			}
			stem = strings.TrimSuffix(stem, e)
			if keepVowel {
				stem += d.repl
			}
		}
	}
	return stem
}
