package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
)

// ContentStore holds one connection pool per schema. database/sql hands
// every concurrent query its own connection, so query tasks running on
// worker goroutines never share one.
type ContentStore struct {
	appdata  *sql.DB
	userdata *sql.DB
	dpd      *sql.DB
}

func NewContentStore(appdata, userdata, dpd *sql.DB) *ContentStore {
	return &ContentStore{appdata: appdata, userdata: userdata, dpd: dpd}
}

// OpenContentStore opens the databases named in the config. The appdata
// database must exist. The userdata database is created when missing. A
// missing DPD database only disables the DPD lookups.
func OpenContentStore(ctx context.Context, conf *config.SimsapaConfig) (*ContentStore, error) {
	if _, err := os.Stat(conf.AppDataPath()); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrDataSourceUnavailable, conf.AppDataPath())
	}
	appdata, err := NewSQLiteDB(conf.AppDataPath(), false)
	if err != nil {
		return nil, err
	}

	userdata, err := NewSQLiteDB(conf.UserDataPath(), false)
	if err != nil {
		appdata.Close()
		return nil, err
	}
	if err := InitContentSchema(ctx, userdata); err != nil {
		appdata.Close()
		userdata.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrDataSourceUnavailable, err)
	}

	var dpd *sql.DB
	if conf.DpdDb != "" {
		dpd, err = NewSQLiteDB(conf.DpdPath(), true)
		if err != nil {
			slog.Warn("DPD database not available, lookups are disabled", "err", err)
			dpd = nil
		}
	}

	return NewContentStore(appdata, userdata, dpd), nil
}

func (s *ContentStore) Close() error {
	var errs []error
	for _, db := range []*sql.DB{s.appdata, s.userdata, s.dpd} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}

// DB returns the connection pool of a schema.
func (s *ContentStore) DB(schema common.SchemaName) (*sql.DB, error) {
	var db *sql.DB
	switch schema {
	case common.AppData:
		db = s.appdata
	case common.UserData:
		db = s.userdata
	case common.Dpd:
		db = s.dpd
	}
	if db == nil {
		return nil, fmt.Errorf("%w: schema %s", common.ErrDataSourceUnavailable, schema)
	}
	return db, nil
}

// HasDpd reports whether the DPD database is attached.
func (s *ContentStore) HasDpd() bool {
	return s.dpd != nil
}

// ContentSchemas are the schemas holding suttas and dict_words, in the order
// their rows are listed.
var ContentSchemas = []common.SchemaName{common.AppData, common.UserData}

// --- languages and labels ---

func (s *ContentStore) distinct(ctx context.Context, table, column string) ([]string, error) {
	seen := map[string]bool{}
	for _, schema := range ContentSchemas {
		db, err := s.DB(schema)
		if err != nil {
			continue
		}
		query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND %s != ''", column, table, column, column)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("listing %s.%s in %s: %w", table, column, schema, err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, err
			}
			seen[strings.ToLower(v)] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	res := make([]string, 0, len(seen))
	for v := range seen {
		res = append(res, v)
	}
	sort.Strings(res)
	return res, nil
}

// SuttaLanguages lists the distinct sutta languages of appdata and userdata.
func (s *ContentStore) SuttaLanguages(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, common.TableSuttas, "language")
}

func (s *ContentStore) DictWordLanguages(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, common.TableDictWords, "language")
}

// SuttaSourceUids lists the translators and editions, e.g. "bodhi", "ms".
func (s *ContentStore) SuttaSourceUids(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, common.TableSuttas, "source_uid")
}

// DictSourceUids lists the dictionary labels.
func (s *ContentStore) DictSourceUids(ctx context.Context) ([]string, error) {
	labels, err := s.distinct(ctx, common.TableDictWords, "source_uid")
	if err != nil {
		return nil, err
	}
	if s.HasDpd() {
		labels = append(labels, "dpd")
		sort.Strings(labels)
	}
	return labels, nil
}

// --- suttas ---

const suttaColumns = `id, uid, sutta_ref, nikaya, language, source_uid, title, title_pali, title_trans,
	COALESCE(content_plain, ''), COALESCE(content_html, ''), COALESCE(content_json, ''), COALESCE(content_json_tmpl, '')`

func scanSuttas(rows *sql.Rows, schema common.SchemaName) ([]*SuttaRow, error) {
	defer rows.Close()
	var res []*SuttaRow
	for rows.Next() {
		r := SuttaRow{Schema: schema}
		err := rows.Scan(&r.ID, &r.Uid, &r.SuttaRef, &r.Nikaya, &r.Language, &r.SourceUid,
			&r.Title, &r.TitlePali, &r.TitleTrans,
			&r.ContentPlain, &r.ContentHtml, &r.ContentJson, &r.ContentJsonTmpl)
		if err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

// QuerySuttas returns the suttas of one schema matching where, ordered by
// orderBy. A negative limit returns every row.
func (s *ContentStore) QuerySuttas(ctx context.Context, schema common.SchemaName, where Predicate, orderBy string, limit, offset int) ([]*SuttaRow, error) {
	db, err := s.DB(schema)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + suttaColumns + " FROM suttas" + where.where() + orderClause(orderBy) + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, where.Args...), limit, offset)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying suttas in %s: %w", schema, err)
	}
	return scanSuttas(rows, schema)
}

func (s *ContentStore) CountSuttas(ctx context.Context, schema common.SchemaName, where Predicate) (int, error) {
	return s.count(ctx, schema, common.TableSuttas, where)
}

func (s *ContentStore) SuttasByLanguage(ctx context.Context, schema common.SchemaName, lang string) ([]*SuttaRow, error) {
	return s.QuerySuttas(ctx, schema, LanguageIs(lang), "id", -1, 0)
}

// GetSutta returns nil when there is no sutta with the uid.
func (s *ContentStore) GetSutta(ctx context.Context, schema common.SchemaName, uid string) (*SuttaRow, error) {
	rows, err := s.QuerySuttas(ctx, schema, Predicate{SQL: "uid = ?", Args: []any{uid}}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// InsertSuttas adds new rows in one transaction and sets their ids.
func (s *ContentStore) InsertSuttas(ctx context.Context, schema common.SchemaName, suttas []*SuttaRow) error {
	db, err := s.DB(schema)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO suttas
		(uid, sutta_ref, nikaya, language, source_uid, title, title_pali, title_trans,
		 content_plain, content_html, content_json, content_json_tmpl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range suttas {
		res, err := stmt.ExecContext(ctx, r.Uid, r.SuttaRef, r.Nikaya, r.Language, r.SourceUid,
			r.Title, r.TitlePali, r.TitleTrans,
			nullIfEmpty(r.ContentPlain), nullIfEmpty(r.ContentHtml), nullIfEmpty(r.ContentJson), nullIfEmpty(r.ContentJsonTmpl))
		if err != nil {
			return fmt.Errorf("inserting sutta %s: %w", r.Uid, err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		r.Schema = schema
	}
	return tx.Commit()
}

// ReplaceSutta overwrites the content of the row with the same uid.
func (s *ContentStore) ReplaceSutta(ctx context.Context, schema common.SchemaName, r *SuttaRow) error {
	db, err := s.DB(schema)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE suttas SET
		sutta_ref = ?, nikaya = ?, language = ?, source_uid = ?, title = ?, title_pali = ?, title_trans = ?,
		content_plain = ?, content_html = ?, content_json = ?, content_json_tmpl = ?, indexed_at = NULL
		WHERE uid = ?`,
		r.SuttaRef, r.Nikaya, r.Language, r.SourceUid, r.Title, r.TitlePali, r.TitleTrans,
		nullIfEmpty(r.ContentPlain), nullIfEmpty(r.ContentHtml), nullIfEmpty(r.ContentJson), nullIfEmpty(r.ContentJsonTmpl),
		r.Uid)
	if err != nil {
		return fmt.Errorf("replacing sutta %s: %w", r.Uid, err)
	}
	return nil
}

// --- dict words ---

const dictWordColumns = `id, uid, source_uid, language, word,
	COALESCE(word_nom_sg, ''), COALESCE(inflections, ''), COALESCE(phonetic, ''), COALESCE(transliteration, ''),
	COALESCE(also_written_as, ''), COALESCE(synonyms, ''), COALESCE(summary, ''),
	COALESCE(definition_plain, ''), COALESCE(definition_html, '')`

func scanDictWords(rows *sql.Rows, schema common.SchemaName) ([]*DictWordRow, error) {
	defer rows.Close()
	var res []*DictWordRow
	for rows.Next() {
		r := DictWordRow{Schema: schema}
		err := rows.Scan(&r.ID, &r.Uid, &r.SourceUid, &r.Language, &r.Word,
			&r.WordNomSg, &r.Inflections, &r.Phonetic, &r.Transliteration,
			&r.AlsoWrittenAs, &r.Synonyms, &r.Summary,
			&r.DefinitionPlain, &r.DefinitionHtml)
		if err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

func (s *ContentStore) QueryDictWords(ctx context.Context, schema common.SchemaName, where Predicate, orderBy string, limit, offset int) ([]*DictWordRow, error) {
	db, err := s.DB(schema)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + dictWordColumns + " FROM dict_words" + where.where() + orderClause(orderBy) + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, where.Args...), limit, offset)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dict_words in %s: %w", schema, err)
	}
	return scanDictWords(rows, schema)
}

func (s *ContentStore) CountDictWords(ctx context.Context, schema common.SchemaName, where Predicate) (int, error) {
	return s.count(ctx, schema, common.TableDictWords, where)
}

func (s *ContentStore) DictWordsByLanguage(ctx context.Context, schema common.SchemaName, lang string) ([]*DictWordRow, error) {
	return s.QueryDictWords(ctx, schema, LanguageIs(lang), "id", -1, 0)
}

func (s *ContentStore) GetDictWord(ctx context.Context, schema common.SchemaName, uid string) (*DictWordRow, error) {
	rows, err := s.QueryDictWords(ctx, schema, Predicate{SQL: "uid = ?", Args: []any{uid}}, "", 1, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (s *ContentStore) InsertDictWords(ctx context.Context, schema common.SchemaName, words []*DictWordRow) error {
	db, err := s.DB(schema)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dict_words
		(uid, source_uid, language, word, word_nom_sg, inflections, phonetic, transliteration,
		 also_written_as, synonyms, summary, definition_plain, definition_html)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range words {
		res, err := stmt.ExecContext(ctx, r.Uid, r.SourceUid, r.Language, r.Word,
			nullIfEmpty(r.WordNomSg), nullIfEmpty(r.Inflections), nullIfEmpty(r.Phonetic), nullIfEmpty(r.Transliteration),
			nullIfEmpty(r.AlsoWrittenAs), nullIfEmpty(r.Synonyms), nullIfEmpty(r.Summary),
			nullIfEmpty(r.DefinitionPlain), nullIfEmpty(r.DefinitionHtml))
		if err != nil {
			return fmt.Errorf("inserting dict word %s: %w", r.Uid, err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		r.Schema = schema
	}
	return tx.Commit()
}

// StampIndexed records when rows were last added to a fulltext index.
func (s *ContentStore) StampIndexed(ctx context.Context, schema common.SchemaName, table string, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if table != common.TableSuttas && table != common.TableDictWords {
		return fmt.Errorf("table %s has no indexed_at column", table)
	}
	db, err := s.DB(schema)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE "+table+" SET indexed_at = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := at.UTC().Format(time.RFC3339)
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, ts, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- DPD ---

const paliWordColumns = `id, pali_1, pali_clean, word_ascii, stem, pos, grammar, meaning_1, meaning_2, construction`

func (s *ContentStore) queryPaliWords(ctx context.Context, where string, args ...any) ([]*PaliWordRow, error) {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + paliWordColumns + " FROM pali_words"
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying pali_words: %w", err)
	}
	defer rows.Close()

	var res []*PaliWordRow
	for rows.Next() {
		var r PaliWordRow
		err := rows.Scan(&r.ID, &r.Pali1, &r.PaliClean, &r.WordAscii, &r.Stem, &r.Pos,
			&r.Grammar, &r.Meaning1, &r.Meaning2, &r.Construction)
		if err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

func (s *ContentStore) AllPaliWords(ctx context.Context) ([]*PaliWordRow, error) {
	return s.queryPaliWords(ctx, "")
}

// PaliWordByID returns nil when the id is unknown.
func (s *ContentStore) PaliWordByID(ctx context.Context, id int64) (*PaliWordRow, error) {
	res, err := s.queryPaliWords(ctx, "id = ?", id)
	if err != nil || len(res) == 0 {
		return nil, err
	}
	return res[0], nil
}

func (s *ContentStore) PaliWordsByPali1(ctx context.Context, keys []string) ([]*PaliWordRow, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return s.queryPaliWords(ctx, "pali_1 IN (?"+strings.Repeat(",?", len(keys)-1)+")", args...)
}

// PaliWordsByClean matches the cleaned or ASCII headword exactly.
func (s *ContentStore) PaliWordsByClean(ctx context.Context, q string) ([]*PaliWordRow, error) {
	return s.queryPaliWords(ctx, "pali_clean = ? OR word_ascii = ?", q, q)
}

// PaliWordsByCleanPrefix matches the start of the cleaned or ASCII headword.
func (s *ContentStore) PaliWordsByCleanPrefix(ctx context.Context, q string) ([]*PaliWordRow, error) {
	return s.queryPaliWords(ctx, "pali_clean LIKE ? OR word_ascii LIKE ?", q+"%", q+"%")
}

func (s *ContentStore) PaliWordsByStem(ctx context.Context, stem string) ([]*PaliWordRow, error) {
	return s.queryPaliWords(ctx, "stem = ?", stem)
}

func (s *ContentStore) PaliWordsByStemPrefix(ctx context.Context, stem string) ([]*PaliWordRow, error) {
	return s.queryPaliWords(ctx, "stem LIKE ?", stem+"%")
}

const paliRootColumns = `uid, root, root_clean, root_no_sign, word_ascii, root_group, root_sign, root_meaning, root_info`

func (s *ContentStore) queryPaliRoots(ctx context.Context, where string, args ...any) ([]*PaliRootRow, error) {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+paliRootColumns+" FROM dpd_roots WHERE "+where+" ORDER BY root", args...)
	if err != nil {
		return nil, fmt.Errorf("querying dpd_roots: %w", err)
	}
	defer rows.Close()

	var res []*PaliRootRow
	for rows.Next() {
		var r PaliRootRow
		err := rows.Scan(&r.Uid, &r.Root, &r.RootClean, &r.RootNoSign, &r.WordAscii,
			&r.RootGroup, &r.RootSign, &r.RootMeaning, &r.RootInfo)
		if err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

// PaliRootByUid returns nil when no root has the uid, e.g. "√kar 1/dpd".
func (s *ContentStore) PaliRootByUid(ctx context.Context, uid string) (*PaliRootRow, error) {
	res, err := s.queryPaliRoots(ctx, "uid = ?", uid)
	if err != nil || len(res) == 0 {
		return nil, err
	}
	return res[0], nil
}

// PaliRootsByClean matches "√kar", "kar" or the ASCII form of the root.
func (s *ContentStore) PaliRootsByClean(ctx context.Context, q string) ([]*PaliRootRow, error) {
	return s.queryPaliRoots(ctx, "root_clean = ? OR root_no_sign = ? OR word_ascii = ?", q, q, q)
}

func (s *ContentStore) InsertPaliRoots(ctx context.Context, roots []*PaliRootRow) error {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO dpd_roots ("+paliRootColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range roots {
		_, err := stmt.ExecContext(ctx, r.Uid, r.Root, r.RootClean, r.RootNoSign, r.WordAscii,
			r.RootGroup, r.RootSign, r.RootMeaning, r.RootInfo)
		if err != nil {
			return fmt.Errorf("inserting root %s: %w", r.Root, err)
		}
	}
	return tx.Commit()
}

// InflectionHeadwords returns the pali_1 keys listed for an inflected form.
func (s *ContentStore) InflectionHeadwords(ctx context.Context, inflection string) ([]string, error) {
	return s.jsonList(ctx, "SELECT headwords FROM inflection_to_headwords WHERE inflection = ?", inflection)
}

// SandhiSplits returns the split variants of a compound, e.g.
// ["kamma + ika"].
func (s *ContentStore) SandhiSplits(ctx context.Context, sandhi string) ([]string, error) {
	return s.jsonList(ctx, "SELECT split FROM dpd_sandhi WHERE sandhi = ?", sandhi)
}

func (s *ContentStore) jsonList(ctx context.Context, query string, key string) ([]string, error) {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return nil, err
	}
	var raw string
	err = db.QueryRowContext(ctx, query, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding %q for %q: %w", raw, key, err)
	}
	return list, nil
}

func (s *ContentStore) InsertPaliWords(ctx context.Context, words []*PaliWordRow) error {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO pali_words ("+paliWordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range words {
		_, err := stmt.ExecContext(ctx, r.ID, r.Pali1, r.PaliClean, r.WordAscii, r.Stem, r.Pos,
			r.Grammar, r.Meaning1, r.Meaning2, r.Construction)
		if err != nil {
			return fmt.Errorf("inserting pali word %s: %w", r.Pali1, err)
		}
	}
	return tx.Commit()
}

// InsertInflections stores inflected form -> headword keys.
func (s *ContentStore) InsertInflections(ctx context.Context, inflections map[string][]string) error {
	return s.insertJSONLists(ctx, "INSERT INTO inflection_to_headwords (inflection, headwords) VALUES (?, ?)", inflections)
}

// InsertSandhi stores compound -> split variants.
func (s *ContentStore) InsertSandhi(ctx context.Context, splits map[string][]string) error {
	return s.insertJSONLists(ctx, "INSERT INTO dpd_sandhi (sandhi, split) VALUES (?, ?)", splits)
}

func (s *ContentStore) insertJSONLists(ctx context.Context, query string, m map[string][]string) error {
	db, err := s.DB(common.Dpd)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, list := range m {
		data, err := json.Marshal(list)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, k, string(data)); err != nil {
			return fmt.Errorf("inserting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// --- helpers ---

func (s *ContentStore) count(ctx context.Context, schema common.SchemaName, table string, where Predicate) (int, error) {
	db, err := s.DB(schema)
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where.where(), where.Args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s in %s: %w", table, schema, err)
	}
	return n, nil
}

func orderClause(orderBy string) string {
	if orderBy == "" {
		return ""
	}
	return " ORDER BY " + orderBy
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
