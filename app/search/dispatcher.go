// Package search runs queries against every language of a content area on
// a shared worker pool and merges their results page by page.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/dpd"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/results"
)

// Service owns what all dispatches share: the content store, the fulltext
// indexes, the DPD resolver and the worker pool. It is safe for concurrent
// use, a Dispatcher is not.
type Service struct {
	conf     *config.SimsapaConfig
	store    *docstore.ContentStore
	indexes  *fulltext.IndexManager
	resolver *dpd.Resolver
	pool     *WorkerPool
}

// NewService expects a started pool. The caller closes it.
func NewService(conf *config.SimsapaConfig, store *docstore.ContentStore, indexes *fulltext.IndexManager, pool *WorkerPool) *Service {
	return &Service{
		conf:     conf,
		store:    store,
		indexes:  indexes,
		resolver: dpd.NewResolver(store),
		pool:     pool,
	}
}

func (s *Service) Config() *config.SimsapaConfig { return s.conf }
func (s *Service) Store() *docstore.ContentStore  { return s.store }
func (s *Service) Indexes() *fulltext.IndexManager {
	return s.indexes
}
func (s *Service) Resolver() *dpd.Resolver { return s.resolver }

// DefaultParams are the configured defaults of a fulltext query.
func (s *Service) DefaultParams() Params {
	return DefaultParams(s.conf)
}

func (s *Service) NewDispatcher() *Dispatcher {
	return &Dispatcher{svc: s}
}

// QueryInfo describes the dispatch whose results a Dispatcher shows.
type QueryInfo struct {
	Text      string
	Area      common.SearchArea
	StartedAt time.Time
	Params    Params
}

type dispatch struct {
	QueryInfo
	generation uint64
	tasks      []*Task
	warning    error

	mu        sync.Mutex
	remaining int
	done      chan struct{}
}

func (d *dispatch) finishOne() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining--
	if d.remaining == 0 {
		close(d.done)
	}
}

// Dispatcher fans a query out to one task per language and merges the
// results. Starting a new query supersedes the previous one: its tasks run
// to the end on the pool, but their results are never shown.
type Dispatcher struct {
	svc *Service

	mu         sync.RWMutex
	generation uint64
	current    *dispatch
}

func (d *Dispatcher) languages(ctx context.Context, area common.SearchArea, p Params) ([]string, error) {
	var langs []string
	switch {
	case p.Mode.IsDpd():
		return []string{string(common.Dpd)}, nil
	case p.Mode == common.FulltextMatch:
		langs = d.svc.indexes.Languages(area)
	case area == common.AreaSuttas:
		var err error
		if langs, err = d.svc.store.SuttaLanguages(ctx); err != nil {
			return nil, err
		}
	default:
		var err error
		if langs, err = d.svc.store.DictWordLanguages(ctx); err != nil {
			return nil, err
		}
	}

	if p.OnlyLang == "" {
		return langs, nil
	}
	var kept []string
	for _, lang := range langs {
		if (lang == p.OnlyLang) == p.LangInclude {
			kept = append(kept, lang)
		}
	}
	return kept, nil
}

func (d *Dispatcher) newTask(lang string, area common.SearchArea, text string, p Params) *Task {
	s := d.svc
	var r runner
	switch p.Mode {
	case common.FulltextMatch:
		r = &fulltextRunner{li: s.indexes.Index(area, lang), text: text, params: p.fulltextParams()}
	case common.ExactMatch:
		r = &exactRunner{store: s.store, area: area, lang: lang, text: text, params: p}
	case common.TitleMatch, common.HeadwordMatch:
		r = &listRunner{pageLen: p.PageLen, load: titleMatches(s.store, area, lang, text, p)}
	case common.DpdIdMatch:
		r = &listRunner{pageLen: p.PageLen, load: dpdIDMatch(s.store, text)}
	case common.DpdTbwLookup:
		r = &listRunner{pageLen: p.PageLen, load: dpdLookup(s.resolver, text)}
	}
	return newTask(lang, area, text, p, r)
}

// Start runs text against every language of area and returns without
// waiting for the tasks. A fulltext query which does not parse is reported
// here, before any task is started, and also kept as the Warning.
func (d *Dispatcher) Start(ctx context.Context, text string, area common.SearchArea, startedAt time.Time, params Params) error {
	p := params.withDefaults()
	if p.Mode.IsDpd() {
		area = common.AreaDictWords
	}

	disp := &dispatch{
		QueryInfo: QueryInfo{Text: text, Area: area, StartedAt: startedAt, Params: p},
		done:      make(chan struct{}),
	}

	var err error
	var langs []string
	switch {
	case p.EnableRegex && p.FuzzyDistance > 0:
		err = common.ErrRegexFuzzyConflict
	case p.Mode.IsDpd() && !d.svc.store.HasDpd():
		err = fmt.Errorf("%w: DPD database is not attached", common.ErrDataSourceUnavailable)
	case p.Mode == common.FulltextMatch && !p.EnableRegex && p.FuzzyDistance == 0:
		err = fulltext.CheckSyntax(text)
	}
	if err == nil {
		langs, err = d.languages(ctx, area, p)
	}
	if err != nil {
		disp.warning = err
	} else {
		for _, lang := range langs {
			disp.tasks = append(disp.tasks, d.newTask(lang, area, text, p))
		}
	}

	disp.remaining = len(disp.tasks)
	if disp.remaining == 0 {
		close(disp.done)
	}

	d.mu.Lock()
	d.generation++
	disp.generation = d.generation
	d.current = disp
	d.mu.Unlock()

	if err != nil {
		return err
	}

	slog.Debug("starting query", "query", text, "area", area, "mode", p.Mode, "langs", langs)

	for i, t := range disp.tasks {
		job := func(ctx context.Context) error {
			defer func() {
				disp.finishOne()
				if d.isStale(disp) {
					slog.Debug("discarding superseded query results", "query", disp.Text, "lang", t.Lang)
				}
			}()
			return t.Run(ctx)
		}
		if err := d.svc.pool.Submit(job); err != nil {
			for _, rest := range disp.tasks[i:] {
				rest.abort(err)
				disp.finishOne()
			}
			return fmt.Errorf("starting query tasks: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) isStale(disp *dispatch) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation != disp.generation
}

func (d *Dispatcher) cur() *dispatch {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Query is the dispatch currently shown, ok is false before the first
// Start.
func (d *Dispatcher) Query() (QueryInfo, bool) {
	c := d.cur()
	if c == nil {
		return QueryInfo{}, false
	}
	return c.QueryInfo, true
}

// Tasks lists the tasks of the current dispatch in language order.
func (d *Dispatcher) Tasks() []*Task {
	c := d.cur()
	if c == nil {
		return nil
	}
	return append([]*Task(nil), c.tasks...)
}

func (d *Dispatcher) AllFinished() bool {
	return d.cur().finished()
}

func (c *dispatch) finished() bool {
	if c == nil {
		return true
	}
	for _, t := range c.tasks {
		if t.State() != TaskFinished {
			return false
		}
	}
	return true
}

// Wait blocks until every task of the current dispatch has finished.
func (d *Dispatcher) Wait(ctx context.Context) error {
	c := d.cur()
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Warning is the query syntax error of the current dispatch, or the reason
// it could not start.
func (d *Dispatcher) Warning() error {
	c := d.cur()
	if c == nil {
		return nil
	}
	if c.warning != nil {
		return c.warning
	}
	for _, t := range c.tasks {
		if err := t.Err(); common.IsQuerySyntaxError(err) {
			return err
		}
	}
	return nil
}

// QueryHits is the sum of the tasks' hit counts. It is nil while tasks are
// running, and when any task cannot count its hits, as regex and fuzzy
// queries cannot.
func (d *Dispatcher) QueryHits() *int {
	c := d.cur()
	if c == nil || !c.finished() {
		return nil
	}
	sum := 0
	for _, t := range c.tasks {
		h := t.Hits()
		if h == nil {
			return nil
		}
		sum += *h
	}
	return &sum
}

// ResultPagesCount is decided by the language with the most results, not
// by the sum.
func (d *Dispatcher) ResultPagesCount() int {
	c := d.cur()
	if c == nil || !c.finished() {
		return 0
	}
	longest := 0
	for _, t := range c.tasks {
		longest = max(longest, t.size())
	}
	pageLen := c.Params.PageLen
	return (longest + pageLen - 1) / pageLen
}

// MergedPage is page n of every task, concatenated in language order. It is
// empty until all tasks have finished.
func (d *Dispatcher) MergedPage(ctx context.Context, n int) []results.SearchResult {
	c := d.cur()
	if c == nil || !c.finished() {
		return nil
	}
	var res []results.SearchResult
	for _, t := range c.tasks {
		res = append(res, t.ResultsPage(ctx, n)...)
	}
	return res
}

// ResultsPage is MergedPage in display order.
func (d *Dispatcher) ResultsPage(ctx context.Context, n int) []results.SearchResult {
	res := d.MergedPage(ctx, n)
	SortMerged(res)
	return res
}

// AllResults collects every page.
func (d *Dispatcher) AllResults(ctx context.Context) []results.SearchResult {
	var all []results.SearchResult
	for n := 0; n < d.ResultPagesCount(); n++ {
		all = append(all, d.ResultsPage(ctx, n)...)
	}
	return all
}

// SortMerged orders scored results by descending score, then the ranked
// ones by ascending rank. Equal results keep their order.
func SortMerged(res []results.SearchResult) {
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		switch {
		case a.Score != nil && b.Score != nil:
			return *a.Score > *b.Score
		case a.Score != nil:
			return true
		case b.Score != nil:
			return false
		case a.Rank != nil && b.Rank != nil:
			return *a.Rank < *b.Rank
		}
		return false
	})
}
