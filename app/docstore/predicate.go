package docstore

import (
	"strings"

	"github.com/simsapa/simsapa-sub001/app/common"
)

// Predicate is a WHERE clause fragment with its positional arguments.
type Predicate struct {
	SQL  string
	Args []any
}

// And joins the non-empty predicates. An empty result matches every row.
func And(ps ...Predicate) Predicate {
	var parts []string
	var args []any
	for _, p := range ps {
		if p.SQL == "" {
			continue
		}
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

func (p Predicate) where() string {
	if p.SQL == "" {
		return ""
	}
	return " WHERE " + p.SQL
}

func LanguageIs(lang string) Predicate {
	if lang == "" {
		return Predicate{}
	}
	return Predicate{SQL: "language = ?", Args: []any{lang}}
}

// SourceFilter keeps (or with include false, drops) the rows whose uid ends
// in /<source>, e.g. "dn1/en/bodhi" for source "bodhi".
func SourceFilter(source string, include bool) Predicate {
	if source == "" {
		return Predicate{}
	}
	op := "LIKE"
	if !include {
		op = "NOT LIKE"
	}
	return Predicate{SQL: "uid " + op + " ?", Args: []any{"%/" + strings.ToLower(source)}}
}

func IDNotIn(ids []int64) Predicate {
	if len(ids) == 0 {
		return Predicate{}
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return Predicate{SQL: "id NOT IN (?" + strings.Repeat(",?", len(ids)-1) + ")", Args: args}
}

// ContentContainsAll matches suttas whose plain content contains every term.
// Each term is turned into a pattern which tolerates punctuation and quote
// differences, unless regex is set and the term is used as it is.
func ContentContainsAll(terms []string, regex bool) Predicate {
	var ps []Predicate
	for _, t := range terms {
		pattern := t
		if !regex {
			pattern = "(?i)" + common.ExpandQuoteToPattern(strings.ToLower(t))
		}
		ps = append(ps, Predicate{SQL: "COALESCE(content_plain, '') REGEXP ?", Args: []any{pattern}})
	}
	return And(ps...)
}

// DefinitionContainsAll is the dictionary counterpart of ContentContainsAll.
func DefinitionContainsAll(terms []string, regex bool) Predicate {
	var ps []Predicate
	for _, t := range terms {
		if regex {
			ps = append(ps, Predicate{SQL: "COALESCE(definition_plain, '') REGEXP ?", Args: []any{t}})
		} else {
			ps = append(ps, Predicate{SQL: "definition_plain LIKE ?", Args: []any{"%" + t + "%"}})
		}
	}
	return And(ps...)
}

func TitlePrefix(q string) Predicate {
	return Predicate{SQL: "title LIKE ?", Args: []any{q + "%"}}
}

func TitleContains(q string) Predicate {
	return Predicate{SQL: "title LIKE ?", Args: []any{"%" + q + "%"}}
}

var headwordColumns = []string{"word", "word_nom_sg", "inflections", "phonetic", "transliteration", "also_written_as"}

// HeadwordPrefix matches a prefix of any of the headword forms.
func HeadwordPrefix(q string) Predicate {
	parts := make([]string, len(headwordColumns))
	args := make([]any, len(headwordColumns))
	for i, col := range headwordColumns {
		parts[i] = col + " LIKE ?"
		args[i] = q + "%"
	}
	return Predicate{SQL: strings.Join(parts, " OR "), Args: args}
}

func WordContains(q string) Predicate {
	return Predicate{SQL: "word LIKE ?", Args: []any{"%" + q + "%"}}
}
