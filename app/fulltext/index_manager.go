// Package fulltext keeps one bleve index per content area and language, and
// runs fulltext queries against them.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/docstore"
)

const batchSize = 1024

// LangIndex is the index of one area in one language. Any number of queries
// can read it at the same time, writes take writeMu.
type LangIndex struct {
	Area common.SearchArea
	Lang string
	Path string

	idx     bleve.Index
	writeMu sync.Mutex
}

func (li *LangIndex) DocCount() (uint64, error) {
	return li.idx.DocCount()
}

func (li *LangIndex) IsEmpty() bool {
	n, err := li.DocCount()
	if err != nil {
		slog.Error("counting documents", "area", li.Area, "lang", li.Lang, "err", err)
		return true
	}
	return n == 0
}

func (li *LangIndex) Mapping() mapping.IndexMapping {
	return li.idx.Mapping()
}

// IndexManager owns the per-language indexes. It replaces any process-wide
// registry of index handles: whoever needs an index is handed the manager.
type IndexManager struct {
	conf  *config.SimsapaConfig
	store *docstore.ContentStore

	mu        sync.RWMutex
	suttas    map[string]*LangIndex
	dictWords map[string]*LangIndex
}

func NewIndexManager(conf *config.SimsapaConfig, store *docstore.ContentStore) *IndexManager {
	return &IndexManager{
		conf:      conf,
		store:     store,
		suttas:    make(map[string]*LangIndex),
		dictWords: make(map[string]*LangIndex),
	}
}

func (m *IndexManager) areaDir(area common.SearchArea) string {
	return filepath.Join(m.conf.IndexPath(), string(area))
}

func openOrCreate(path string, newMapping func() (*mapping.IndexMappingImpl, error)) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		slog.Info("creating new bleve index", "path", path)
		m, err := newMapping()
		if err != nil {
			return nil, err
		}
		return bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening bleve index %s: %v", common.ErrDataSourceUnavailable, path, err)
	}
	slog.Debug("opened existing bleve index", "path", path)
	return idx, nil
}

// OpenAll opens, or creates empty, the sutta index of every sutta language
// and the dictionary index of every dictionary language. With
// removeIfExists the index directories are deleted first; if that fails the
// error is logged and the existing indexes are opened.
func (m *IndexManager) OpenAll(ctx context.Context, removeIfExists bool) error {
	if err := m.Close(); err != nil {
		slog.Warn("closing indexes before reopening", "err", err)
	}

	if removeIfExists {
		for _, area := range []common.SearchArea{common.AreaSuttas, common.AreaDictWords} {
			if err := os.RemoveAll(m.areaDir(area)); err != nil {
				slog.Error("removing index directory", "path", m.areaDir(area), "err", err)
			}
		}
	}
	for _, area := range []common.SearchArea{common.AreaSuttas, common.AreaDictWords} {
		if err := os.MkdirAll(m.areaDir(area), 0o755); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDataSourceUnavailable, err)
		}
	}

	suttaLangs, err := m.store.SuttaLanguages(ctx)
	if err != nil {
		return err
	}
	dictLangs, err := m.store.DictWordLanguages(ctx)
	if err != nil {
		return err
	}
	// the English dictionary index also holds the DPD headwords
	if m.store.HasDpd() && !contains(dictLangs, common.LangEnglish) {
		dictLangs = append(dictLangs, common.LangEnglish)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, lang := range suttaLangs {
		li, err := m.open(common.AreaSuttas, lang, func() (*mapping.IndexMappingImpl, error) {
			return docstore.SuttaIndexMapping(lang)
		})
		if err != nil {
			return err
		}
		m.suttas[lang] = li
	}
	for _, lang := range dictLangs {
		li, err := m.open(common.AreaDictWords, lang, func() (*mapping.IndexMappingImpl, error) {
			return docstore.DictWordIndexMapping(lang)
		})
		if err != nil {
			return err
		}
		m.dictWords[lang] = li
	}
	slog.Info("opened indexes", "suttas", len(m.suttas), "dict_words", len(m.dictWords))
	return nil
}

func (m *IndexManager) open(area common.SearchArea, lang string, newMapping func() (*mapping.IndexMappingImpl, error)) (*LangIndex, error) {
	path := filepath.Join(m.areaDir(area), lang)
	idx, err := openOrCreate(path, newMapping)
	if err != nil {
		return nil, err
	}
	return &LangIndex{Area: area, Lang: lang, Path: path, idx: idx}, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (m *IndexManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, indexes := range []map[string]*LangIndex{m.suttas, m.dictWords} {
		for lang, li := range indexes {
			li.writeMu.Lock()
			if err := li.idx.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s/%s: %w", li.Area, lang, err))
			}
			li.writeMu.Unlock()
			delete(indexes, lang)
		}
	}
	return errors.Join(errs...)
}

func (m *IndexManager) areaIndexes(area common.SearchArea) map[string]*LangIndex {
	if area == common.AreaSuttas {
		return m.suttas
	}
	return m.dictWords
}

// Index returns nil when the area has no index for lang.
func (m *IndexManager) Index(area common.SearchArea, lang string) *LangIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.areaIndexes(area)[lang]
}

// Languages lists the languages with an index in area, sorted.
func (m *IndexManager) Languages(area common.SearchArea) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var langs []string
	for lang := range m.areaIndexes(area) {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// HasEmptyIndex is true when a mandatory index is missing or has no
// documents: the sutta indexes of the mandatory languages and the dictionary
// index of the UI language. Optional languages may be empty.
func (m *IndexManager) HasEmptyIndex() bool {
	for _, lang := range m.conf.MandatorySuttaLanguages {
		li := m.Index(common.AreaSuttas, lang)
		if li == nil || li.IsEmpty() {
			return true
		}
	}
	li := m.Index(common.AreaDictWords, m.conf.DefaultUiLanguage)
	return li == nil || li.IsEmpty()
}

// IndexStatus reports the document count of every index.
type IndexStatus struct {
	Area     common.SearchArea `json:"area"`
	Lang     string            `json:"lang"`
	DocCount uint64            `json:"doc_count"`
}

func (m *IndexManager) Status() []IndexStatus {
	var res []IndexStatus
	for _, area := range []common.SearchArea{common.AreaSuttas, common.AreaDictWords} {
		for _, lang := range m.Languages(area) {
			n, err := m.Index(area, lang).DocCount()
			if err != nil {
				slog.Warn("counting documents", "area", area, "lang", lang, "err", err)
			}
			res = append(res, IndexStatus{Area: area, Lang: lang, DocCount: n})
		}
	}
	return res
}

func (m *IndexManager) IndexAll(ctx context.Context, onlyIfEmpty bool) error {
	for _, lang := range m.Languages(common.AreaSuttas) {
		if err := m.IndexAllSuttasLang(ctx, lang, onlyIfEmpty); err != nil {
			return err
		}
	}
	for _, lang := range m.Languages(common.AreaDictWords) {
		if err := m.IndexAllDictWordsLang(ctx, lang, onlyIfEmpty); err != nil {
			return err
		}
	}
	return nil
}

// IndexAllSuttasLang (re)indexes the suttas of both content schemas in lang.
// Documents are keyed by index_key, so running it again replaces documents
// instead of adding more.
func (m *IndexManager) IndexAllSuttasLang(ctx context.Context, lang string, onlyIfEmpty bool) error {
	li := m.Index(common.AreaSuttas, lang)
	if li == nil {
		slog.Warn("no sutta index for language", "lang", lang)
		return nil
	}
	if onlyIfEmpty && !li.IsEmpty() {
		return nil
	}
	slog.Info("indexing suttas", "lang", lang)
	for _, schema := range docstore.ContentSchemas {
		rows, err := m.store.SuttasByLanguage(ctx, schema, lang)
		if err != nil {
			return err
		}
		if err := m.indexSuttas(ctx, li, schema, rows); err != nil {
			return err
		}
	}
	return nil
}

// IndexAllDictWordsLang (re)indexes the dictionary words in lang. The English
// index also gets every DPD headword.
func (m *IndexManager) IndexAllDictWordsLang(ctx context.Context, lang string, onlyIfEmpty bool) error {
	li := m.Index(common.AreaDictWords, lang)
	if li == nil {
		slog.Warn("no dict_words index for language", "lang", lang)
		return nil
	}
	if onlyIfEmpty && !li.IsEmpty() {
		return nil
	}
	slog.Info("indexing dict_words", "lang", lang)
	for _, schema := range docstore.ContentSchemas {
		rows, err := m.store.DictWordsByLanguage(ctx, schema, lang)
		if err != nil {
			return err
		}
		if err := m.indexDictWords(ctx, li, schema, rows); err != nil {
			return err
		}
	}
	if lang == common.LangEnglish && m.store.HasDpd() {
		words, err := m.store.AllPaliWords(ctx)
		if err != nil {
			return err
		}
		if err := m.indexPaliWords(li, words); err != nil {
			return err
		}
	}
	return nil
}

// IndexSuttas adds or replaces the documents of the given suttas, in the
// index of each sutta's language. Suttas in a language without an index
// are skipped.
func (m *IndexManager) IndexSuttas(ctx context.Context, schema common.SchemaName, rows []*docstore.SuttaRow) error {
	byLang := make(map[string][]*docstore.SuttaRow)
	for _, r := range rows {
		byLang[r.Language] = append(byLang[r.Language], r)
	}
	for lang, langRows := range byLang {
		li := m.Index(common.AreaSuttas, lang)
		if li == nil {
			slog.Warn("no sutta index for language, skipping", "lang", lang, "count", len(langRows))
			continue
		}
		if err := m.indexSuttas(ctx, li, schema, langRows); err != nil {
			return err
		}
	}
	return nil
}

// batchWriter commits every batchSize documents. A batch is applied as a
// whole or not at all.
type batchWriter struct {
	li    *LangIndex
	batch *bleve.Batch
	ids   []int64
	flush func(ids []int64) error
	total int
}

func newBatchWriter(li *LangIndex, flush func(ids []int64) error) *batchWriter {
	return &batchWriter{li: li, batch: li.idx.NewBatch(), flush: flush}
}

func (w *batchWriter) add(key string, id int64, doc any) error {
	if err := w.batch.Index(key, doc); err != nil {
		slog.Warn("skipping document", "key", key, "err", err)
		return nil
	}
	w.ids = append(w.ids, id)
	if w.batch.Size() >= batchSize {
		return w.commit()
	}
	return nil
}

func (w *batchWriter) commit() error {
	if w.batch.Size() == 0 {
		return nil
	}
	slog.Debug("ingest batch", "area", w.li.Area, "lang", w.li.Lang, "size", w.batch.Size())
	if err := w.li.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("committing batch to %s/%s: %w", w.li.Area, w.li.Lang, err)
	}
	w.total += len(w.ids)
	if w.flush != nil {
		if err := w.flush(w.ids); err != nil {
			return err
		}
	}
	w.batch = w.li.idx.NewBatch()
	w.ids = nil
	return nil
}

func (m *IndexManager) stamper(ctx context.Context, schema common.SchemaName, table string) func([]int64) error {
	return func(ids []int64) error {
		return m.store.StampIndexed(ctx, schema, table, ids, time.Now())
	}
}

func (m *IndexManager) indexSuttas(ctx context.Context, li *LangIndex, schema common.SchemaName, rows []*docstore.SuttaRow) error {
	li.writeMu.Lock()
	defer li.writeMu.Unlock()

	w := newBatchWriter(li, m.stamper(ctx, schema, common.TableSuttas))
	for _, r := range rows {
		doc, ok, err := NewSuttaDoc(r)
		if err != nil {
			slog.Warn("skipping sutta, cannot parse html", "uid", r.Uid, "err", err)
			continue
		}
		if !ok {
			slog.Warn("skipping, no content", "uid", r.Uid, "schema", schema)
			continue
		}
		if err := w.add(doc.IndexKey, r.ID, doc); err != nil {
			return err
		}
	}
	if err := w.commit(); err != nil {
		return err
	}
	slog.Info("indexed suttas", "lang", li.Lang, "schema", schema, "count", w.total)
	return nil
}

func (m *IndexManager) indexDictWords(ctx context.Context, li *LangIndex, schema common.SchemaName, rows []*docstore.DictWordRow) error {
	li.writeMu.Lock()
	defer li.writeMu.Unlock()

	w := newBatchWriter(li, m.stamper(ctx, schema, common.TableDictWords))
	for _, r := range rows {
		doc, ok := NewDictWordDoc(r)
		if !ok {
			slog.Warn("skipping, no content", "word", r.Word, "schema", schema)
			continue
		}
		if err := w.add(doc.IndexKey, r.ID, doc); err != nil {
			return err
		}
	}
	if err := w.commit(); err != nil {
		return err
	}
	slog.Info("indexed dict_words", "lang", li.Lang, "schema", schema, "count", w.total)
	return nil
}

// the DPD database is read-only, its rows are not stamped
func (m *IndexManager) indexPaliWords(li *LangIndex, rows []*docstore.PaliWordRow) error {
	li.writeMu.Lock()
	defer li.writeMu.Unlock()

	w := newBatchWriter(li, nil)
	for _, r := range rows {
		doc := NewPaliWordDoc(r)
		if err := w.add(doc.IndexKey, r.ID, doc); err != nil {
			return err
		}
	}
	if err := w.commit(); err != nil {
		return err
	}
	slog.Info("indexed dpd headwords", "lang", li.Lang, "count", w.total)
	return nil
}
