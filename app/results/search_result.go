package results

import (
	"fmt"
	"sort"

	"github.com/microcosm-cc/bluemonday"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/pali"
)

// SearchResult is the one shape every query mode returns, whatever the
// source row was. Fulltext results carry a Score, the other modes a Rank.
type SearchResult struct {
	DbID       int64             `json:"db_id"`
	Uid        string            `json:"uid"`
	SchemaName common.SchemaName `json:"schema_name"`
	TableName  string            `json:"table_name"`
	SourceUid  string            `json:"source_uid"`
	Title      string            `json:"title"`
	Ref        string            `json:"ref,omitempty"`
	Nikaya     string            `json:"nikaya,omitempty"`
	Author     string            `json:"author,omitempty"`
	Language   string            `json:"language,omitempty"`
	Snippet    string            `json:"snippet"`
	PageNumber *int              `json:"page_number,omitempty"`
	Score      *float64          `json:"score,omitempty"`
	Rank       *int              `json:"rank,omitempty"`
}

// Key identifies a result for de-duplication.
func (r SearchResult) Key() string {
	return fmt.Sprintf("%s %s %s", r.Title, r.SchemaName, r.Uid)
}

var stripPolicy = bluemonday.StrictPolicy()

// StripTags removes all markup, e.g. from definition_html before it is used
// as a snippet.
func StripTags(s string) string {
	return common.OneLine(stripPolicy.Sanitize(s))
}

func SuttaToSearchResult(x *docstore.SuttaRow, snippet string) SearchResult {
	return SearchResult{
		DbID:       x.ID,
		Uid:        x.Uid,
		SchemaName: x.Schema,
		TableName:  common.TableSuttas,
		SourceUid:  x.SourceUid,
		Title:      x.Title,
		Ref:        x.SuttaRef,
		Nikaya:     x.Nikaya,
		Language:   x.Language,
		Snippet:    snippet,
	}
}

func DictWordToSearchResult(x *docstore.DictWordRow, snippet string) SearchResult {
	return SearchResult{
		DbID:       x.ID,
		Uid:        x.Uid,
		SchemaName: x.Schema,
		TableName:  common.TableDictWords,
		SourceUid:  x.SourceUid,
		Title:      x.Word,
		Language:   x.Language,
		Snippet:    snippet,
	}
}

// PaliWordToSearchResult uses the meaning and the grammar as the snippet.
func PaliWordToSearchResult(x *docstore.PaliWordRow) SearchResult {
	return SearchResult{
		DbID:       x.ID,
		Uid:        x.RowUid(),
		SchemaName: common.Dpd,
		TableName:  common.TablePaliWords,
		SourceUid:  "dpd",
		Title:      x.Pali1,
		Language:   common.LangEnglish,
		Snippet:    PaliWordSnippet(x),
	}
}

func PaliWordSnippet(x *docstore.PaliWordRow) string {
	meaning := x.Meaning1
	if meaning == "" {
		meaning = x.Meaning2
	}
	return fmt.Sprintf("%s <b>·</b> <i>%s</i>", meaning, StripTags(x.Grammar))
}

// PaliRootToSearchResult uses the root meaning and the root info as the
// snippet.
func PaliRootToSearchResult(x *docstore.PaliRootRow) SearchResult {
	return SearchResult{
		Uid:        x.Uid,
		SchemaName: common.Dpd,
		TableName:  common.TableDpdRoots,
		SourceUid:  "dpd",
		Title:      x.Root,
		Language:   common.LangEnglish,
		Snippet:    PaliRootSnippet(x),
	}
}

func PaliRootSnippet(x *docstore.PaliRootRow) string {
	return fmt.Sprintf("%s <b>·</b> <i>%s</i>", x.RootMeaning, StripTags(x.RootInfo))
}

// SnippetSource is the text a snippet is cut from: the summary, the plain
// definition or the HTML definition for dictionary words, the plain or the
// HTML content for suttas.
func SnippetSource(row docstore.SourceRow) string {
	switch x := row.(type) {
	case *docstore.SuttaRow:
		if x.ContentPlain != "" {
			return x.ContentPlain
		}
		return StripTags(x.ContentHtml)
	case *docstore.DictWordRow:
		switch {
		case x.Summary != "":
			return x.Summary
		case x.DefinitionPlain != "":
			return x.DefinitionPlain
		default:
			return StripTags(x.DefinitionHtml)
		}
	case *docstore.PaliWordRow:
		return PaliWordSnippet(x)
	case *docstore.PaliRootRow:
		return PaliRootSnippet(x)
	}
	return ""
}

// FromRow converts any source row. The snippet is ignored for DPD rows.
func FromRow(row docstore.SourceRow, snippet string) SearchResult {
	switch x := row.(type) {
	case *docstore.SuttaRow:
		return SuttaToSearchResult(x, snippet)
	case *docstore.DictWordRow:
		return DictWordToSearchResult(x, snippet)
	case *docstore.PaliWordRow:
		return PaliWordToSearchResult(x)
	case *docstore.PaliRootRow:
		return PaliRootToSearchResult(x)
	}
	panic(fmt.Sprintf("unknown row type %T", row))
}

// UniqueSearchResults drops repeated results, keeping the first.
func UniqueSearchResults(res []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(res))
	uniq := make([]SearchResult, 0, len(res))
	for _, r := range res {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, r)
	}
	return uniq
}

// SortByPaliTitle orders results in Pāli alphabetical order.
func SortByPaliTitle(res []SearchResult) {
	sort.SliceStable(res, func(i, j int) bool {
		a := pali.SortKey(fmt.Sprintf("%s.%s.%s", res[i].Title, res[i].SchemaName, res[i].Uid))
		b := pali.SortKey(fmt.Sprintf("%s.%s.%s", res[j].Title, res[j].SchemaName, res[j].Uid))
		return a < b
	})
}

func FloatPtr(f float64) *float64 { return &f }
func IntPtr(i int) *int           { return &i }
