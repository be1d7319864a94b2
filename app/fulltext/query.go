package fulltext

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/pali"
	"github.com/simsapa/simsapa-sub001/app/results"
)

type QueryParams struct {
	PageLen    int
	SnippetLen int
	// Source keeps (or with SourceInclude false, drops) results of one
	// source_uid.
	Source        string
	SourceInclude bool
	EnableRegex   bool
	FuzzyDistance int
}

func (p QueryParams) plain() bool {
	return !p.EnableRegex && p.FuzzyDistance == 0
}

// Query is one parsed query against one LangIndex.
type Query struct {
	li     *LangIndex
	params QueryParams

	// as typed, with the nasal normalized
	queryOrig   string
	queryString string
	q           query.Query

	mu         sync.Mutex
	hits       *int
	candidates int
}

// CheckSyntax reports a *common.QuerySyntaxError if the query string
// language cannot parse text.
func CheckSyntax(text string) error {
	qs := common.SanitizeUserInput(pali.Normalize(strings.TrimSpace(text)))
	if _, err := bleve.NewQueryStringQuery(qs).Parse(); err != nil {
		return &common.QuerySyntaxError{Query: text, Err: err}
	}
	return nil
}

// NewQuery prepares text for the index.
//
// A sutta reference becomes a uid: query. A single word becomes a required
// term, and in dictionaries it also matches the headword. For plain queries
// the source filter is added to the query string, regex and fuzzy queries
// are filtered after the search.
func (li *LangIndex) NewQuery(text string, p QueryParams) (*Query, error) {
	if p.EnableRegex && p.FuzzyDistance > 0 {
		return nil, common.ErrRegexFuzzyConflict
	}
	if p.PageLen <= 0 {
		p.PageLen = 20
	}
	if p.SnippetLen <= 0 {
		p.SnippetLen = 200
	}

	fq := &Query{li: li, params: p}
	fq.queryOrig = pali.Normalize(strings.TrimSpace(text))

	qs := common.SanitizeUserInput(fq.queryOrig)
	if !strings.Contains(qs, "uid:") && !strings.Contains(qs, "ref:") {
		qs = common.QueryTextToUidFieldQuery(qs)
	}
	singleWord := !strings.ContainsAny(qs, ` "'+:`)

	if p.Source != "" && p.plain() {
		sign := "+"
		if !p.SourceInclude {
			sign = "-"
		}
		qs += fmt.Sprintf(" %ssource_uid:%s", sign, strings.ToLower(p.Source))
	}

	var err error
	switch {
	case p.EnableRegex:
		fq.q, err = li.regexQuery(fq.queryOrig)
	case p.FuzzyDistance > 0:
		fq.q, err = li.fuzzyQuery(fq.queryOrig, p.FuzzyDistance)
	default:
		if singleWord {
			if li.Area == common.AreaDictWords {
				qs = fmt.Sprintf("+%s word:%s", qs, fq.queryOrig)
			} else {
				qs = "+" + qs
			}
		}
		sq := bleve.NewQueryStringQuery(qs)
		if _, perr := sq.Parse(); perr != nil {
			return nil, &common.QuerySyntaxError{Query: text, Err: perr}
		}
		fq.q = sq
	}
	if err != nil {
		return nil, err
	}
	fq.queryString = qs
	slog.Debug("fulltext query", "area", li.Area, "lang", li.Lang, "query_string", qs)
	return fq, nil
}

// regex and fuzzy queries run on the headword in dictionaries
func (li *LangIndex) termField() string {
	if li.Area == common.AreaDictWords {
		return "word"
	}
	return "content"
}

// restrictedPattern keeps '.', '*' and '+' as regex operators and quotes
// everything else.
func restrictedPattern(term string) string {
	var sb strings.Builder
	for _, r := range term {
		switch r {
		case '.', '*', '+':
			sb.WriteRune(r)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String()
}

func (li *LangIndex) regexQuery(text string) (query.Query, error) {
	var parts []query.Query
	for _, term := range strings.Fields(text) {
		re := ".*" + restrictedPattern(common.FoldDiacritics(strings.ToLower(term))) + ".*"
		if _, err := regexp.Compile(re); err != nil {
			return nil, &common.QuerySyntaxError{Query: text, Err: err}
		}
		rq := bleve.NewRegexpQuery(re)
		rq.SetField(li.termField())
		parts = append(parts, rq)
	}
	if len(parts) == 0 {
		return bleve.NewMatchNoneQuery(), nil
	}
	return bleve.NewConjunctionQuery(parts...), nil
}

// fuzzy terms are compared with indexed terms, so they go through the
// field's analyzer first
func (li *LangIndex) fuzzyQuery(text string, distance int) (query.Query, error) {
	field := li.termField()
	analyzer := li.Mapping().AnalyzerNamed(li.Mapping().AnalyzerNameForPath(field))
	if analyzer == nil {
		return nil, fmt.Errorf("no analyzer for %s", field)
	}
	var parts []query.Query
	for _, token := range analyzer.Analyze([]byte(text)) {
		fq := bleve.NewFuzzyQuery(string(token.Term))
		fq.SetField(field)
		fq.SetFuzziness(distance)
		parts = append(parts, fq)
	}
	if len(parts) == 0 {
		return bleve.NewMatchNoneQuery(), nil
	}
	return bleve.NewConjunctionQuery(parts...), nil
}

func (fq *Query) QueryString() string { return fq.queryString }

// HitsCount is unknown (nil) for regex and fuzzy queries, or before the
// first page was fetched.
func (fq *Query) HitsCount() *int {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	if !fq.params.plain() || fq.hits == nil {
		return nil
	}
	n := *fq.hits
	return &n
}

// Candidates is the number of documents the engine matched, before any
// source post-filter. It bounds the number of result pages.
func (fq *Query) Candidates() int {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	return fq.candidates
}

func (fq *Query) search(ctx context.Context, size, from int) (*bleve.SearchResult, error) {
	req := bleve.NewSearchRequestOptions(fq.q, size, from, false)
	req.Fields = []string{"*"}
	if !fq.params.EnableRegex {
		req.Highlight = bleve.NewHighlightWithStyle("html")
		req.Highlight.AddField("content")
	}
	return fq.li.idx.SearchInContext(ctx, req)
}

func (fq *Query) setCounts(hits, candidates int) {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	fq.hits = &hits
	fq.candidates = candidates
}

// ResultsPage returns page n (0-based) with highlighted snippets.
func (fq *Query) ResultsPage(ctx context.Context, page int) ([]results.SearchResult, error) {
	if page < 0 {
		page = 0
	}
	p := fq.params

	var res []results.SearchResult
	if p.Source != "" && !p.plain() {
		var err error
		res, err = fq.filteredPage(ctx, page)
		if err != nil {
			return nil, err
		}
	} else {
		sr, err := fq.search(ctx, p.PageLen, page*p.PageLen)
		if err != nil {
			return nil, err
		}
		fq.setCounts(int(sr.Total), int(sr.Total))
		for _, hit := range sr.Hits {
			res = append(res, fq.hitToResult(hit))
		}
	}

	if fq.li.Area == common.AreaDictWords && !strings.ContainsAny(fq.queryOrig, "+-:") {
		res = BoostByHeadword(fq.queryOrig, res)
	}
	return res, nil
}

// filteredPage pages through the matches ten pages at a time and keeps the
// ones which pass the source filter, until page n is full.
func (fq *Query) filteredPage(ctx context.Context, page int) ([]results.SearchResult, error) {
	p := fq.params
	batchLen := p.PageLen * 10

	var filtered []results.SearchResult
	total := 0
	for offset := 0; ; offset += batchLen {
		sr, err := fq.search(ctx, batchLen, offset)
		if err != nil {
			return nil, err
		}
		total = int(sr.Total)
		for _, hit := range sr.Hits {
			r := fq.hitToResult(hit)
			if strings.EqualFold(r.SourceUid, p.Source) == p.SourceInclude {
				filtered = append(filtered, r)
			}
		}
		if total == 0 || len(filtered) >= (page+1)*p.PageLen || offset+batchLen >= total {
			break
		}
	}

	if batchLen >= total {
		fq.setCounts(len(filtered), total)
	} else {
		fq.mu.Lock()
		fq.hits = nil
		fq.candidates = total
		fq.mu.Unlock()
	}

	start := page * p.PageLen
	if start >= len(filtered) {
		return nil, nil
	}
	end := min(start+p.PageLen, len(filtered))
	return filtered[start:end], nil
}

// AllResults fetches every page.
func (fq *Query) AllResults(ctx context.Context) ([]results.SearchResult, error) {
	var all []results.SearchResult
	for page := 0; ; page++ {
		res, err := fq.ResultsPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, res...)
		if len(res) == 0 || (page+1)*fq.params.PageLen >= fq.Candidates() {
			break
		}
	}
	return all, nil
}

func fieldString(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, x := range v {
			if s, ok := x.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func (fq *Query) snippet(hit *search.DocumentMatch) string {
	if frags := hit.Fragments["content"]; len(frags) > 0 && !fq.params.EnableRegex {
		return results.MarksToMatchSpans(strings.Join(frags, " ... "))
	}
	frag := results.FragmentAround(fq.queryOrig, fieldString(hit.Fields, "content"), fq.params.SnippetLen)
	if fq.params.EnableRegex {
		return frag
	}
	return results.HighlightQuery(fq.queryOrig, frag)
}

func (fq *Query) hitToResult(hit *search.DocumentMatch) results.SearchResult {
	f := hit.Fields
	schema, err := common.ParseSchemaName(fieldString(f, "schema_name"))
	if err != nil {
		slog.Warn("document with unknown schema", "id", hit.ID, "err", err)
	}

	var dbID int64
	if v, ok := f["db_id"].(float64); ok {
		dbID = int64(v)
	}

	r := results.SearchResult{
		DbID:       dbID,
		Uid:        fieldString(f, "uid"),
		SchemaName: schema,
		TableName:  fieldString(f, "table_name"),
		SourceUid:  fieldString(f, "source_uid"),
		Language:   fieldString(f, "language"),
		Snippet:    fq.snippet(hit),
		Score:      results.FloatPtr(hit.Score),
	}
	if fq.li.Area == common.AreaSuttas {
		r.Title = fieldString(f, "title")
		r.Ref = fieldString(f, "ref")
		r.Nikaya = fieldString(f, "nikaya")
	} else {
		r.Title = fieldString(f, "word")
	}
	return r
}

// BoostByHeadword raises dictionary results whose headword is the query
// (+1000) or starts with it (+100, and more for titles later in reverse
// order). Words starting with the query are moved after the others.
func BoostByHeadword(headword string, res []results.SearchResult) []results.SearchResult {
	boosted := make([]results.SearchResult, 0, len(res))
	var startsWith []results.SearchResult

	for _, r := range res {
		if r.Score == nil {
			r.Score = results.FloatPtr(0)
		}
		switch {
		case r.Title == headword:
			r.Score = results.FloatPtr(*r.Score + 1000)
			boosted = append(boosted, r)
		case strings.HasPrefix(r.Title, headword):
			r.Score = results.FloatPtr(*r.Score + 100)
			startsWith = append(startsWith, r)
		default:
			boosted = append(boosted, r)
		}
	}

	sort.SliceStable(startsWith, func(i, j int) bool {
		return startsWith[i].Title > startsWith[j].Title
	})
	for idx := range startsWith {
		startsWith[idx].Score = results.FloatPtr(*startsWith[idx].Score + float64(idx)*10)
	}
	return append(boosted, startsWith...)
}
