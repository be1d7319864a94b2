package pali

import "strings"

// Niggahita is the one code point used for the nasal m, both in indexed
// content and in query strings.
const Niggahita = "ṁ"

// CST4, SuttaCentral and BMC texts use ṁ. PTS, DPR, DPD and most print
// translations use ṃ. Upper-case forms follow the same mapping.
var nasalReplacer = strings.NewReplacer(
	"ṃ", Niggahita,
	"Ṃ", "Ṁ",
	"m̐", Niggahita,
)

// Normalize maps every nasal-m variant to the niggahita ṁ.
func Normalize(text string) string {
	return nasalReplacer.Replace(text)
}
