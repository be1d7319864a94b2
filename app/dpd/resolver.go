// Package dpd resolves Pāli word forms to headwords and roots of the
// Digital Pāli Dictionary: by id or uid, through the inflection table,
// through the sandhi deconstructor, and finally by matching the headword or
// its stem.
package dpd

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/pali"
)

// HeadwordStore is the part of the content store the resolver reads.
type HeadwordStore interface {
	PaliWordByID(ctx context.Context, id int64) (*docstore.PaliWordRow, error)
	PaliWordsByPali1(ctx context.Context, keys []string) ([]*docstore.PaliWordRow, error)
	PaliWordsByClean(ctx context.Context, q string) ([]*docstore.PaliWordRow, error)
	PaliWordsByCleanPrefix(ctx context.Context, q string) ([]*docstore.PaliWordRow, error)
	PaliWordsByStem(ctx context.Context, stem string) ([]*docstore.PaliWordRow, error)
	PaliWordsByStemPrefix(ctx context.Context, stem string) ([]*docstore.PaliWordRow, error)
	PaliRootByUid(ctx context.Context, uid string) (*docstore.PaliRootRow, error)
	PaliRootsByClean(ctx context.Context, q string) ([]*docstore.PaliRootRow, error)
	InflectionHeadwords(ctx context.Context, inflection string) ([]string, error)
	SandhiSplits(ctx context.Context, sandhi string) ([]string, error)
}

// Stage records which lookup produced the headwords.
type Stage string

const (
	StageNone          Stage = ""
	StageID            Stage = "id"
	StageInflection    Stage = "inflection"
	StageDeconstructor Stage = "deconstructor"
	StageCleanExact    Stage = "clean_exact"
	StageCleanPrefix   Stage = "clean_prefix"
	StageStemExact     Stage = "stem_exact"
	StageStemPrefix    Stage = "stem_prefix"
)

type Resolver struct {
	store HeadwordStore
}

func NewResolver(store HeadwordStore) *Resolver {
	return &Resolver{store: store}
}

var reTiEnding = regexp.MustCompile(`[’']ti$`)

// NormalizeQuery lower-cases the query, unifies the nasal and joins a
// quoted 'ti ending to the word.
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = reTiEnding.ReplaceAllString(q, "ti")
	return pali.Normalize(q)
}

// ParseID recognizes "20400" and "20400/dpd". Root uids such as
// "√kar 1/dpd" are not ids.
func ParseID(q string) (int64, bool) {
	q = strings.TrimSuffix(strings.TrimSpace(q), "/dpd")
	if q == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(q, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Lookup resolves q to headwords and roots, ordered by Pāli collation of
// the headword and listed once each. A stage is only tried when all earlier
// ones found nothing.
func (r *Resolver) Lookup(ctx context.Context, q string) ([]docstore.DpdRow, error) {
	words, _, err := r.LookupStaged(ctx, q)
	return words, err
}

// LookupStaged is Lookup which also reports the stage that matched.
func (r *Resolver) LookupStaged(ctx context.Context, q string) ([]docstore.DpdRow, Stage, error) {
	q = NormalizeQuery(q)
	if q == "" {
		return nil, StageNone, nil
	}

	found, err := r.byUid(ctx, q)
	if err != nil {
		return nil, StageNone, err
	}
	if found != nil {
		return []docstore.DpdRow{found}, StageID, nil
	}

	words, err := r.inflectionToWords(ctx, q)
	if err != nil {
		return nil, StageNone, err
	}
	if len(words) > 0 {
		return sortUnique(words), StageInflection, nil
	}

	words, err = r.deconstructorToWords(ctx, q)
	if err != nil {
		return nil, StageNone, err
	}
	if len(words) > 0 {
		return sortUnique(words), StageDeconstructor, nil
	}

	stem := pali.Stem(q, false)
	direct := []struct {
		stage Stage
		fn    func(context.Context, string) ([]docstore.DpdRow, error)
		arg   string
	}{
		{StageCleanExact, r.cleanExact, q},
		{StageCleanPrefix, wordsOnly(r.store.PaliWordsByCleanPrefix), q},
		{StageStemExact, wordsOnly(r.store.PaliWordsByStem), stem},
		{StageStemPrefix, wordsOnly(r.store.PaliWordsByStemPrefix), stem},
	}
	for _, d := range direct {
		if d.arg == "" {
			continue
		}
		words, err := d.fn(ctx, d.arg)
		if err != nil {
			return nil, StageNone, err
		}
		if len(words) > 0 {
			return sortUnique(words), d.stage, nil
		}
	}

	slog.Debug("no dpd headwords", "query", q)
	return nil, StageNone, nil
}

// byUid returns nil when q is neither a headword id nor a root uid.
func (r *Resolver) byUid(ctx context.Context, q string) (docstore.DpdRow, error) {
	if id, ok := ParseID(q); ok {
		w, err := r.store.PaliWordByID(ctx, id)
		if err != nil || w == nil {
			return nil, err
		}
		return w, nil
	}
	if !strings.HasSuffix(q, "/dpd") {
		return nil, nil
	}
	root, err := r.store.PaliRootByUid(ctx, q)
	if err != nil || root == nil {
		return nil, err
	}
	return root, nil
}

// cleanExact matches headwords and roots written without the homonym number.
func (r *Resolver) cleanExact(ctx context.Context, q string) ([]docstore.DpdRow, error) {
	words, err := r.store.PaliWordsByClean(ctx, q)
	if err != nil {
		return nil, err
	}
	roots, err := r.store.PaliRootsByClean(ctx, q)
	if err != nil {
		return nil, err
	}
	res := asRows(words)
	for _, root := range roots {
		res = append(res, root)
	}
	return res, nil
}

func wordsOnly(fn func(context.Context, string) ([]*docstore.PaliWordRow, error)) func(context.Context, string) ([]docstore.DpdRow, error) {
	return func(ctx context.Context, q string) ([]docstore.DpdRow, error) {
		words, err := fn(ctx, q)
		return asRows(words), err
	}
}

func asRows(words []*docstore.PaliWordRow) []docstore.DpdRow {
	res := make([]docstore.DpdRow, 0, len(words))
	for _, w := range words {
		res = append(res, w)
	}
	return res
}

func (r *Resolver) inflectionToWords(ctx context.Context, q string) ([]docstore.DpdRow, error) {
	keys, err := r.store.InflectionHeadwords(ctx, q)
	if err != nil || len(keys) == 0 {
		return nil, err
	}
	words, err := r.store.PaliWordsByPali1(ctx, keys)
	return asRows(words), err
}

// every constituent goes through the inflection table only, never back
// through the deconstructor
func (r *Resolver) deconstructorToWords(ctx context.Context, q string) ([]docstore.DpdRow, error) {
	variants, err := r.splits(ctx, q)
	if err != nil {
		return nil, err
	}
	var words []docstore.DpdRow
	for _, v := range variants {
		for _, token := range SplitVariant(v) {
			found, err := r.inflectionToWords(ctx, token)
			if err != nil {
				return nil, err
			}
			words = append(words, found...)
		}
	}
	return words, nil
}

func (r *Resolver) splits(ctx context.Context, q string) ([]string, error) {
	variants, err := r.store.SandhiSplits(ctx, q)
	if err != nil || len(variants) > 0 {
		return variants, err
	}
	// several words may be the parts of one compound
	if strings.Contains(q, " ") {
		return r.store.SandhiSplits(ctx, strings.ReplaceAll(q, " ", ""))
	}
	return nil, nil
}

// DeconstructorVariants lists the sandhi splits of q, each one as
// "word + word".
func (r *Resolver) DeconstructorVariants(ctx context.Context, q string) ([]string, error) {
	variants, err := r.splits(ctx, NormalizeQuery(q))
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(variants))
	for _, v := range variants {
		res = append(res, strings.Join(SplitVariant(v), " + "))
	}
	return res, nil
}

// SplitVariant splits "kammaṁ + ṭhānaṁ" into its words.
func SplitVariant(v string) []string {
	var tokens []string
	for _, t := range strings.Split(v, "+") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func sortUnique(words []docstore.DpdRow) []docstore.DpdRow {
	seen := make(map[string]bool, len(words))
	uniq := make([]docstore.DpdRow, 0, len(words))
	for _, w := range words {
		if w == nil || seen[w.RowUid()] {
			continue
		}
		seen[w.RowUid()] = true
		uniq = append(uniq, w)
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return pali.SortKey(uniq[i].Headword()) < pali.SortKey(uniq[j].Headword())
	})
	return uniq
}
