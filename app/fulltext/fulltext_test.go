package fulltext_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/internal/testfixtures"
	"github.com/simsapa/simsapa-sub001/app/results"
)

func newIndexed(t *testing.T) (*fulltext.IndexManager, *docstore.ContentStore) {
	t.Helper()
	ctx := context.Background()
	conf := testfixtures.NewConfig(t)
	store := testfixtures.NewStore(t, conf)

	m := fulltext.NewIndexManager(conf, store)
	require.NoError(t, m.OpenAll(ctx, false))
	t.Cleanup(func() { m.Close() })
	require.True(t, m.HasEmptyIndex())

	require.NoError(t, m.IndexAll(ctx, false))
	require.False(t, m.HasEmptyIndex())
	return m, store
}

func uids(res []results.SearchResult) []string {
	var u []string
	for _, r := range res {
		u = append(u, r.Uid)
	}
	return u
}

func docCount(t *testing.T, m *fulltext.IndexManager, area common.SearchArea, lang string) uint64 {
	li := m.Index(area, lang)
	require.NotNil(t, li)
	n, err := li.DocCount()
	require.NoError(t, err)
	return n
}

func TestOpenAllLanguages(t *testing.T) {
	m, _ := newIndexed(t)
	assert.Equal(t, []string{"en", "pli"}, m.Languages(common.AreaSuttas))
	assert.Equal(t, []string{"de", "en"}, m.Languages(common.AreaDictWords))
	assert.Nil(t, m.Index(common.AreaSuttas, "de"))
	assert.Len(t, m.Status(), 4)
}

func TestReindexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newIndexed(t)

	// the sutta without content is skipped
	assert.Equal(t, uint64(12), docCount(t, m, common.AreaSuttas, "en"))
	// nine dict words and six DPD headwords
	assert.Equal(t, uint64(15), docCount(t, m, common.AreaDictWords, "en"))

	require.NoError(t, m.IndexAllSuttasLang(ctx, "en", false))
	require.NoError(t, m.IndexAllDictWordsLang(ctx, "en", false))
	assert.Equal(t, uint64(12), docCount(t, m, common.AreaSuttas, "en"))
	assert.Equal(t, uint64(15), docCount(t, m, common.AreaDictWords, "en"))

	// only_if_empty leaves a populated index alone
	require.NoError(t, m.IndexAllSuttasLang(ctx, "pli", true))
	assert.Equal(t, uint64(2), docCount(t, m, common.AreaSuttas, "pli"))
}

func TestIndexingStampsRows(t *testing.T) {
	ctx := context.Background()
	_, store := newIndexed(t)

	db, err := store.DB(common.UserData)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM suttas WHERE indexed_at IS NOT NULL").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestFulltextQuery(t *testing.T) {
	ctx := context.Background()
	m, _ := newIndexed(t)
	en := m.Index(common.AreaSuttas, "en")

	t.Run("highlighted top result", func(t *testing.T) {
		q, err := en.NewQuery("satipaṭṭhāna", fulltext.QueryParams{PageLen: 3})
		require.NoError(t, err)
		assert.Equal(t, "+satipaṭṭhāna", q.QueryString())

		res, err := q.ResultsPage(ctx, 0)
		require.NoError(t, err)
		require.NotEmpty(t, res)
		assert.Equal(t, "mil5.3.7/en/tw_rhysdavids", res[0].Uid)
		assert.Contains(t, res[0].Snippet, "<span class='match'>")
		assert.Equal(t, common.AppData, res[0].SchemaName)
		require.NotNil(t, res[0].Score)
		assert.Nil(t, res[0].Rank)
		assert.NotContains(t, res[0].Snippet, "Rhys Davids")
	})

	t.Run("round trip of a distinctive phrase", func(t *testing.T) {
		q, err := en.NewQuery("extinguishment", fulltext.QueryParams{PageLen: 3})
		require.NoError(t, err)
		res, err := q.ResultsPage(ctx, 0)
		require.NoError(t, err)
		assert.Contains(t, uids(res), "mn10/en/sujato")
	})

	t.Run("sutta reference", func(t *testing.T) {
		q, err := en.NewQuery("MN 10", fulltext.QueryParams{PageLen: 3})
		require.NoError(t, err)
		assert.Equal(t, "uid:mn10", q.QueryString())
		res, err := q.ResultsPage(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"mn10/en/sujato"}, uids(res))
	})

	t.Run("paging and hits", func(t *testing.T) {
		q, err := en.NewQuery("+dukkha +nirodha", fulltext.QueryParams{PageLen: 3})
		require.NoError(t, err)
		_, err = q.ResultsPage(ctx, 0)
		require.NoError(t, err)
		require.NotNil(t, q.HitsCount())
		assert.Equal(t, testfixtures.DukkhaNirodhaCount+1, *q.HitsCount())

		all, err := q.AllResults(ctx)
		require.NoError(t, err)
		assert.Len(t, all, testfixtures.DukkhaNirodhaCount+1)
	})

	t.Run("source filter", func(t *testing.T) {
		q, err := en.NewQuery("dukkha", fulltext.QueryParams{PageLen: 3, Source: "user", SourceInclude: true})
		require.NoError(t, err)
		res, err := q.AllResults(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"an4.10/en/user"}, uids(res))

		q, err = en.NewQuery("dukkha", fulltext.QueryParams{PageLen: 3, Source: "test"})
		require.NoError(t, err)
		res, err = q.AllResults(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"an4.10/en/user"}, uids(res))
	})

	t.Run("regex", func(t *testing.T) {
		q, err := en.NewQuery("nirod.*", fulltext.QueryParams{PageLen: 3, EnableRegex: true})
		require.NoError(t, err)
		all, err := q.AllResults(ctx)
		require.NoError(t, err)
		assert.Len(t, all, testfixtures.DukkhaNirodhaCount+1)
		assert.Nil(t, q.HitsCount())

		q, err = en.NewQuery("nirod.*", fulltext.QueryParams{PageLen: 3, EnableRegex: true, Source: "user", SourceInclude: true})
		require.NoError(t, err)
		res, err := q.ResultsPage(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"an4.10/en/user"}, uids(res))
	})

	t.Run("fuzzy", func(t *testing.T) {
		q, err := en.NewQuery("nirodho", fulltext.QueryParams{PageLen: 3, FuzzyDistance: 1})
		require.NoError(t, err)
		all, err := q.AllResults(ctx)
		require.NoError(t, err)
		assert.Len(t, all, testfixtures.DukkhaNirodhaCount+1)
		assert.Nil(t, q.HitsCount())
	})

	t.Run("regex and fuzzy", func(t *testing.T) {
		_, err := en.NewQuery("nirodha", fulltext.QueryParams{EnableRegex: true, FuzzyDistance: 1})
		assert.ErrorIs(t, err, common.ErrRegexFuzzyConflict)
	})

	t.Run("bad syntax", func(t *testing.T) {
		_, err := en.NewQuery("^", fulltext.QueryParams{})
		assert.True(t, common.IsQuerySyntaxError(err))
		assert.True(t, common.IsQuerySyntaxError(fulltext.CheckSyntax("^")))
		assert.NoError(t, fulltext.CheckSyntax("+dukkha -nirodha source:ms"))
	})
}

func TestDictWordsQuery(t *testing.T) {
	ctx := context.Background()
	m, _ := newIndexed(t)
	en := m.Index(common.AreaDictWords, "en")

	q, err := en.NewQuery("kamma", fulltext.QueryParams{PageLen: 20})
	require.NoError(t, err)
	assert.Equal(t, "+kamma word:kamma", q.QueryString())

	res, err := q.ResultsPage(ctx, 0)
	require.NoError(t, err)

	var found bool
	for _, r := range res {
		if r.Uid == "kamma/pts" {
			found = true
			require.NotNil(t, r.Score)
			assert.GreaterOrEqual(t, *r.Score, 1000.0)
		}
		if r.SchemaName == common.Dpd {
			assert.Equal(t, common.TablePaliWords, r.TableName)
			assert.Equal(t, "dpd", r.SourceUid)
		}
	}
	assert.True(t, found)
}

func TestBoostByHeadword(t *testing.T) {
	res := []results.SearchResult{
		{Title: "kammika", Score: results.FloatPtr(2)},
		{Title: "dhamma", Score: results.FloatPtr(3)},
		{Title: "kamma", Score: results.FloatPtr(1)},
		{Title: "kammaṭṭhāna"},
	}
	boosted := fulltext.BoostByHeadword("kamma", res)

	var titles []string
	scores := map[string]float64{}
	for _, r := range boosted {
		titles = append(titles, r.Title)
		scores[r.Title] = *r.Score
	}
	assert.Equal(t, []string{"dhamma", "kamma", "kammika", "kammaṭṭhāna"}, titles)
	assert.Equal(t, 1001.0, scores["kamma"])
	assert.Equal(t, 3.0, scores["dhamma"])
	// reverse title order, the second one gets another +10
	assert.Equal(t, 102.0, scores["kammika"])
	assert.Equal(t, 110.0, scores["kammaṭṭhāna"])
}
