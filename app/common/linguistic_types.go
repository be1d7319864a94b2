package common

import (
	"fmt"
	"strings"
)

// Language is a lower-case content language code as stored in the
// databases, e.g. "en", "pli", "de".
type Language = string

const (
	LangEnglish  Language = "en"
	LangPali     Language = "pli"
	LangSanskrit Language = "san"
)

type SearchArea string

const (
	AreaSuttas    SearchArea = "suttas"
	AreaDictWords SearchArea = "dict_words"
)

// ParseSearchArea accepts the table names and the short CLI forms.
func ParseSearchArea(s string) (SearchArea, error) {
	switch strings.ToLower(s) {
	case "suttas", "sutta":
		return AreaSuttas, nil
	case "words", "word", "dict_words", "dictwords":
		return AreaDictWords, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSearchArea, s)
}

type SearchMode string

const (
	FulltextMatch SearchMode = "fulltext"
	ExactMatch    SearchMode = "exact"
	TitleMatch    SearchMode = "title"
	HeadwordMatch SearchMode = "headword"
	DpdIdMatch    SearchMode = "dpd_id"
	DpdTbwLookup  SearchMode = "dpd_lookup"
)

var searchModes = []SearchMode{FulltextMatch, ExactMatch, TitleMatch, HeadwordMatch, DpdIdMatch, DpdTbwLookup}

func ParseSearchMode(s string) (SearchMode, error) {
	for _, m := range searchModes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", NewUserVisibleError(422, fmt.Sprintf("Unsupported search mode %q", s))
}

// HasScore is true for modes whose results carry an engine score. The other
// modes set a rank instead.
func (m SearchMode) HasScore() bool {
	return m == FulltextMatch
}

// IsDpd is true for modes which only query the DPD.
func (m SearchMode) IsDpd() bool {
	return m == DpdIdMatch || m == DpdTbwLookup
}

// SchemaName tags where a row came from.
type SchemaName string

const (
	AppData  SchemaName = "appdata"
	UserData SchemaName = "userdata"
	Dpd      SchemaName = "dpd"
)

func ParseSchemaName(s string) (SchemaName, error) {
	switch SchemaName(s) {
	case AppData, UserData, Dpd:
		return SchemaName(s), nil
	}
	return "", fmt.Errorf("unknown schema %q", s)
}

const (
	TableSuttas    = "suttas"
	TableDictWords = "dict_words"
	TablePaliWords = "pali_words"
	TableDpdRoots  = "dpd_roots"
)

// IndexKey is the natural key of a fulltext document.
func IndexKey(schema SchemaName, table string, uid string) string {
	return fmt.Sprintf("%s:%s:%s", schema, table, uid)
}
