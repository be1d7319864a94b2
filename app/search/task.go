package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/dpd"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/results"
)

// Params are the options of one dispatch, shared by all its tasks.
type Params struct {
	Mode       common.SearchMode
	PageLen    int
	SnippetLen int

	// OnlyLang restricts (or with LangInclude false, excludes) one language.
	OnlyLang    string
	LangInclude bool

	// Source keeps (or with SourceInclude false, drops) the results of one
	// source, e.g. "sujato".
	Source        string
	SourceInclude bool

	EnableRegex   bool
	FuzzyDistance int
}

// DefaultParams is a fulltext query with the configured page and snippet
// lengths.
func DefaultParams(conf *config.SimsapaConfig) Params {
	return Params{
		Mode:          common.FulltextMatch,
		PageLen:       conf.PageLen,
		SnippetLen:    conf.SnippetLen,
		LangInclude:   true,
		SourceInclude: true,
		FuzzyDistance: conf.FuzzyDistance,
	}
}

func (p Params) withDefaults() Params {
	if p.Mode == "" {
		p.Mode = common.FulltextMatch
	}
	if p.PageLen <= 0 {
		p.PageLen = 20
	}
	if p.SnippetLen <= 0 {
		p.SnippetLen = 200
	}
	return p
}

func (p Params) fulltextParams() fulltext.QueryParams {
	return fulltext.QueryParams{
		PageLen:       p.PageLen,
		SnippetLen:    p.SnippetLen,
		Source:        p.Source,
		SourceInclude: p.SourceInclude,
		EnableRegex:   p.EnableRegex,
		FuzzyDistance: p.FuzzyDistance,
	}
}

type TaskState int32

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskFinished
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskRunning:
		return "running"
	case TaskFinished:
		return "finished"
	}
	return fmt.Sprintf("TaskState(%d)", int32(s))
}

// runner is the mode specific part of a task.
type runner interface {
	run(ctx context.Context) error
	page(ctx context.Context, n int) ([]results.SearchResult, error)
	// nil when the count is not known
	hits() *int
	// upper bound of the number of results, it decides the page count
	size() int
}

// Task runs one query against one language. A failing task logs the error
// and contributes no results.
type Task struct {
	Lang   string
	Area   common.SearchArea
	Query  string
	Params Params

	r     runner
	state atomic.Int32
	done  chan struct{}

	mu    sync.Mutex
	err   error
	pages map[int][]results.SearchResult
}

func newTask(lang string, area common.SearchArea, query string, params Params, r runner) *Task {
	return &Task{
		Lang:   lang,
		Area:   area,
		Query:  query,
		Params: params,
		r:      r,
		done:   make(chan struct{}),
		pages:  make(map[int][]results.SearchResult),
	}
}

func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the error which emptied the task, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Run executes the query and fetches the first page. It can only be called
// once.
func (t *Task) Run(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(TaskCreated), int32(TaskRunning)) {
		return fmt.Errorf("query task for %q was already started", t.Lang)
	}
	defer func() {
		t.state.Store(int32(TaskFinished))
		close(t.done)
	}()

	err := t.r.run(ctx)
	if err == nil {
		var first []results.SearchResult
		first, err = t.r.page(ctx, 0)
		if err == nil {
			t.mu.Lock()
			t.pages[0] = first
			t.mu.Unlock()
		}
	}
	if err != nil {
		t.fail(err)
	}
	return err
}

// abort finishes a task which was never run.
func (t *Task) abort(err error) {
	if !t.state.CompareAndSwap(int32(TaskCreated), int32(TaskFinished)) {
		return
	}
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) fail(err error) {
	if common.IsQuerySyntaxError(err) {
		slog.Warn("bad query syntax", "lang", t.Lang, "query", t.Query, "err", err)
	} else {
		slog.Error("query task failed", "lang", t.Lang, "mode", t.Params.Mode, "area", t.Area, "err", err)
	}
	t.mu.Lock()
	t.err = err
	t.pages = map[int][]results.SearchResult{}
	t.mu.Unlock()
}

// ResultsPage returns page n of this task's results. It is empty while the
// task has not finished.
func (t *Task) ResultsPage(ctx context.Context, n int) []results.SearchResult {
	if t.State() != TaskFinished || n < 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil
	}
	if res, ok := t.pages[n]; ok {
		return res
	}

	res, err := t.r.page(ctx, n)
	if err != nil {
		slog.Error("fetching results page", "lang", t.Lang, "page", n, "err", err)
		return nil
	}
	t.pages[n] = res
	return res
}

// Hits is nil for regex and fuzzy fulltext queries.
func (t *Task) Hits() *int {
	if t.Err() != nil {
		return results.IntPtr(0)
	}
	return t.r.hits()
}

func (t *Task) size() int {
	if t.Err() != nil {
		return 0
	}
	return t.r.size()
}

// --- FulltextMatch ---

type fulltextRunner struct {
	li     *fulltext.LangIndex
	text   string
	params fulltext.QueryParams
	q      *fulltext.Query
}

func (r *fulltextRunner) run(ctx context.Context) error {
	if r.li == nil {
		return fmt.Errorf("%w: no fulltext index", common.ErrDataSourceUnavailable)
	}
	q, err := r.li.NewQuery(r.text, r.params)
	if err != nil {
		return err
	}
	r.q = q
	return nil
}

func (r *fulltextRunner) page(ctx context.Context, n int) ([]results.SearchResult, error) {
	return r.q.ResultsPage(ctx, n)
}

func (r *fulltextRunner) hits() *int {
	if r.q == nil {
		return nil
	}
	return r.q.HitsCount()
}

func (r *fulltextRunner) size() int {
	if r.q == nil {
		return 0
	}
	if h := r.q.HitsCount(); h != nil {
		return *h
	}
	return r.q.Candidates()
}

// --- ExactMatch ---

var reAndSplit = regexp.MustCompile(`\s+AND\s+`)

// SplitAndTerms splits "dukkha AND nirodha" into its required terms.
func SplitAndTerms(text string) []string {
	var terms []string
	for _, t := range reAndSplit.Split(strings.TrimSpace(text), -1) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// exactRunner queries the content store directly, one page at a time. The
// rows of appdata come before the rows of userdata.
type exactRunner struct {
	store  *docstore.ContentStore
	area   common.SearchArea
	lang   string
	text   string
	params Params

	terms  []string
	where  docstore.Predicate
	counts []int
}

func (r *exactRunner) run(ctx context.Context) error {
	r.terms = SplitAndTerms(r.text)
	if len(r.terms) == 0 {
		r.counts = make([]int, len(docstore.ContentSchemas))
		return nil
	}

	contains := docstore.ContentContainsAll(r.terms, r.params.EnableRegex)
	if r.area == common.AreaDictWords {
		contains = docstore.DefinitionContainsAll(r.terms, r.params.EnableRegex)
	}
	r.where = docstore.And(
		docstore.LanguageIs(r.lang),
		contains,
		docstore.SourceFilter(r.params.Source, r.params.SourceInclude),
	)

	r.counts = r.counts[:0]
	for _, schema := range docstore.ContentSchemas {
		var n int
		var err error
		if r.area == common.AreaSuttas {
			n, err = r.store.CountSuttas(ctx, schema, r.where)
		} else {
			n, err = r.store.CountDictWords(ctx, schema, r.where)
		}
		if err != nil {
			return err
		}
		r.counts = append(r.counts, n)
	}
	return nil
}

func (r *exactRunner) query(ctx context.Context, schema common.SchemaName, limit, offset int) ([]docstore.SourceRow, error) {
	var rows []docstore.SourceRow
	if r.area == common.AreaSuttas {
		suttas, err := r.store.QuerySuttas(ctx, schema, r.where, "id", limit, offset)
		if err != nil {
			return nil, err
		}
		for _, x := range suttas {
			rows = append(rows, x)
		}
		return rows, nil
	}
	words, err := r.store.QueryDictWords(ctx, schema, r.where, "id", limit, offset)
	if err != nil {
		return nil, err
	}
	for _, x := range words {
		rows = append(rows, x)
	}
	return rows, nil
}

func (r *exactRunner) page(ctx context.Context, n int) ([]results.SearchResult, error) {
	if len(r.terms) == 0 {
		return nil, nil
	}
	offset := n * r.params.PageLen
	remaining := r.params.PageLen
	rank := offset

	var res []results.SearchResult
	for i, schema := range docstore.ContentSchemas {
		if remaining == 0 {
			break
		}
		if offset >= r.counts[i] {
			offset -= r.counts[i]
			continue
		}
		rows, err := r.query(ctx, schema, remaining, offset)
		if err != nil {
			return nil, err
		}
		offset = 0
		remaining -= len(rows)
		for _, row := range rows {
			x := results.FromRow(row, snippetFor(r.terms, r.params.EnableRegex, row, r.params.SnippetLen))
			x.Rank = results.IntPtr(rank)
			rank++
			res = append(res, x)
		}
	}
	return res, nil
}

func (r *exactRunner) hits() *int {
	n := r.size()
	return &n
}

func (r *exactRunner) size() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// snippetFor centers the snippet on the first term and highlights all of
// them. With regex set the terms are patterns.
func snippetFor(terms []string, regex bool, row docstore.SourceRow, length int) string {
	src := results.SnippetSource(row)
	if len(terms) == 0 {
		return results.FragmentAround("", src, length)
	}
	fragment := results.FragmentAroundPattern(results.TermsPattern(terms[:1], regex), src, length)
	return results.HighlightPattern(results.TermsPattern(terms, regex), fragment)
}

// --- TitleMatch, HeadwordMatch, DpdIdMatch, DpdTbwLookup ---

// listRunner loads every result at once and pages in memory.
type listRunner struct {
	pageLen int
	load    func(ctx context.Context) ([]results.SearchResult, error)
	all     []results.SearchResult
}

func (r *listRunner) run(ctx context.Context) error {
	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		all[i].Rank = results.IntPtr(i)
	}
	r.all = all
	return nil
}

func (r *listRunner) page(_ context.Context, n int) ([]results.SearchResult, error) {
	start := n * r.pageLen
	if start >= len(r.all) {
		return nil, nil
	}
	end := min(start+r.pageLen, len(r.all))
	return r.all[start:end], nil
}

func (r *listRunner) hits() *int {
	n := len(r.all)
	return &n
}

func (r *listRunner) size() int {
	return len(r.all)
}

var reTrailingDigits = regexp.MustCompile(`[ 0-9]+$`)

// titleMatches lists the suttas whose title starts with the query, then
// the ones whose title contains it. In dictionaries the headword forms
// are matched instead, and the first group is ordered by headword
// without its homonym number.
func titleMatches(store *docstore.ContentStore, area common.SearchArea, lang, text string, params Params) func(ctx context.Context) ([]results.SearchResult, error) {
	return func(ctx context.Context) ([]results.SearchResult, error) {
		q := strings.TrimSpace(text)
		if q == "" {
			return nil, nil
		}
		base := docstore.And(
			docstore.LanguageIs(lang),
			docstore.SourceFilter(params.Source, params.SourceInclude),
		)

		prefix, contains := docstore.TitlePrefix(q), docstore.TitleContains(q)
		if area == common.AreaDictWords {
			prefix, contains = docstore.HeadwordPrefix(q), docstore.WordContains(q)
		}

		fetch := func(schema common.SchemaName, where docstore.Predicate) ([]docstore.SourceRow, []int64, error) {
			var rows []docstore.SourceRow
			var ids []int64
			if area == common.AreaSuttas {
				suttas, err := store.QuerySuttas(ctx, schema, where, "id", -1, 0)
				if err != nil {
					return nil, nil, err
				}
				for _, x := range suttas {
					rows = append(rows, x)
					ids = append(ids, x.ID)
				}
				return rows, ids, nil
			}
			words, err := store.QueryDictWords(ctx, schema, where, "id", -1, 0)
			if err != nil {
				return nil, nil, err
			}
			for _, x := range words {
				rows = append(rows, x)
				ids = append(ids, x.ID)
			}
			return rows, ids, nil
		}

		var first, second []docstore.SourceRow
		matched := map[common.SchemaName][]int64{}
		for _, schema := range docstore.ContentSchemas {
			rows, ids, err := fetch(schema, docstore.And(base, prefix))
			if err != nil {
				return nil, err
			}
			first = append(first, rows...)
			matched[schema] = ids
		}

		if area == common.AreaDictWords {
			sort.SliceStable(first, func(i, j int) bool {
				return headwordSortKey(first[i]) < headwordSortKey(first[j])
			})
		}

		for _, schema := range docstore.ContentSchemas {
			rows, _, err := fetch(schema, docstore.And(base, contains, docstore.IDNotIn(matched[schema])))
			if err != nil {
				return nil, err
			}
			second = append(second, rows...)
		}

		var res []results.SearchResult
		for _, row := range append(first, second...) {
			res = append(res, results.FromRow(row, snippetFor([]string{q}, false, row, params.SnippetLen)))
		}
		return res, nil
	}
}

func headwordSortKey(row docstore.SourceRow) string {
	if x, ok := row.(*docstore.DictWordRow); ok {
		return reTrailingDigits.ReplaceAllString(strings.ToLower(x.Word), "")
	}
	return ""
}

func dpdIDMatch(store *docstore.ContentStore, text string) func(ctx context.Context) ([]results.SearchResult, error) {
	return func(ctx context.Context) ([]results.SearchResult, error) {
		id, ok := dpd.ParseID(text)
		if !ok {
			return nil, nil
		}
		w, err := store.PaliWordByID(ctx, id)
		if err != nil || w == nil {
			return nil, err
		}
		return []results.SearchResult{results.PaliWordToSearchResult(w)}, nil
	}
}

func dpdLookup(resolver *dpd.Resolver, text string) func(ctx context.Context) ([]results.SearchResult, error) {
	return func(ctx context.Context) ([]results.SearchResult, error) {
		words, err := resolver.Lookup(ctx, text)
		if err != nil {
			return nil, err
		}
		res := make([]results.SearchResult, 0, len(words))
		for _, w := range words {
			res = append(res, results.FromRow(w, ""))
		}
		return res, nil
	}
}
