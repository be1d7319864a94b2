package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/internal/testfixtures"
	"github.com/simsapa/simsapa-sub001/app/results"
	"github.com/simsapa/simsapa-sub001/app/search"
)

// newService builds an indexed service whose pool is returned unstarted.
func newService(t *testing.T) (*search.Service, *search.WorkerPool) {
	t.Helper()
	ctx := context.Background()
	conf := testfixtures.NewConfig(t)
	store := testfixtures.NewStore(t, conf)

	m := fulltext.NewIndexManager(conf, store)
	require.NoError(t, m.OpenAll(ctx, false))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.IndexAll(ctx, false))

	pool := search.NewWorkerPool(conf.WorkerCount, 16)
	t.Cleanup(pool.Close)
	return search.NewService(conf, store, m, pool), pool
}

func startedService(t *testing.T) *search.Service {
	svc, pool := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool.Start(ctx)
	return svc
}

func run(t *testing.T, d *search.Dispatcher, text string, area common.SearchArea, p search.Params) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, d.Start(ctx, text, area, time.Now(), p))
	require.NoError(t, d.Wait(ctx))
	require.True(t, d.AllFinished())
}

func uids(res []results.SearchResult) []string {
	var u []string
	for _, r := range res {
		u = append(u, r.Uid)
	}
	return u
}

func titles(res []results.SearchResult) []string {
	var u []string
	for _, r := range res {
		u = append(u, r.Title)
	}
	return u
}

func TestExactMatchAndTerms(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)
	expected := testfixtures.DukkhaNirodhaCount + 1

	for _, pageLen := range []int{2, 3, 20} {
		p := svc.DefaultParams()
		p.Mode = common.ExactMatch
		p.PageLen = pageLen
		p.OnlyLang = "en"

		d := svc.NewDispatcher()
		run(t, d, "dukkha AND nirodha", common.AreaSuttas, p)

		require.NotNil(t, d.QueryHits())
		assert.Equal(t, expected, *d.QueryHits(), "page_len %d", pageLen)
		assert.Equal(t, (expected+pageLen-1)/pageLen, d.ResultPagesCount())

		all := d.AllResults(ctx)
		require.Len(t, all, expected)
		for _, r := range all {
			assert.NotEqual(t, "sn56.40/en/test", r.Uid)
			assert.Contains(t, r.Snippet, "<span class='match'>dukkha</span>")
			assert.Contains(t, r.Snippet, "<span class='match'>nirodha</span>")
			require.NotNil(t, r.Rank)
			assert.Nil(t, r.Score)
		}
		// userdata rows come after appdata
		assert.Equal(t, "an4.10/en/user", all[len(all)-1].Uid)
		assert.Equal(t, common.UserData, all[len(all)-1].SchemaName)
	}
}

func TestExactMatchSourceFilter(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)

	p := svc.DefaultParams()
	p.Mode = common.ExactMatch
	p.Source = "test"
	p.SourceInclude = false
	p.OnlyLang = "en"

	d := svc.NewDispatcher()
	run(t, d, "dukkha", common.AreaSuttas, p)
	assert.Equal(t, []string{"an4.10/en/user"}, uids(d.AllResults(ctx)))
}

func TestTitleAndHeadwordMatch(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)

	p := svc.DefaultParams()
	p.Mode = common.TitleMatch
	d := svc.NewDispatcher()
	run(t, d, "Truths", common.AreaSuttas, p)
	require.NotNil(t, d.QueryHits())
	assert.Equal(t, testfixtures.DukkhaNirodhaCount, *d.QueryHits())
	assert.Len(t, d.AllResults(ctx), testfixtures.DukkhaNirodhaCount)

	// prefix matches first, ordered without the homonym number, then the
	// headwords which only contain the query
	p.Mode = common.HeadwordMatch
	p.PageLen = 20
	run(t, d, "sati", common.AreaDictWords, p)
	assert.Equal(t, []string{"sati", "sati 2", "anusati"}, titles(d.AllResults(ctx)))
}

func TestDpdModes(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)
	d := svc.NewDispatcher()

	testCases := []struct {
		mode     common.SearchMode
		query    string
		expected []string
	}{
		{common.DpdIdMatch, "20400", []string{"kammika 1"}},
		{common.DpdIdMatch, "20400/dpd", []string{"kammika 1"}},
		{common.DpdIdMatch, "kamma", nil},
		{common.DpdTbwLookup, "kammikassa", []string{"kammika 1", "kammika 2"}},
		{common.DpdTbwLookup, "kammikassāpi", []string{"api 1", "kammika 1", "kammika 2"}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.mode)+" "+tc.query, func(t *testing.T) {
			p := svc.DefaultParams()
			p.Mode = tc.mode
			// the area is always the dictionary
			run(t, d, tc.query, common.AreaSuttas, p)

			res := d.AllResults(ctx)
			assert.Equal(t, tc.expected, titles(res))
			for _, r := range res {
				assert.Equal(t, common.Dpd, r.SchemaName)
				assert.Equal(t, common.TablePaliWords, r.TableName)
			}
			info, ok := d.Query()
			require.True(t, ok)
			assert.Equal(t, common.AreaDictWords, info.Area)
		})
	}
	p := svc.DefaultParams()
	p.Mode = common.DpdTbwLookup
	run(t, d, "kar", common.AreaDictWords, p)
	res := d.AllResults(ctx)
	require.Len(t, res, 1)
	assert.Equal(t, "√kar 1", res[0].Title)
	assert.Equal(t, testfixtures.KarRootUid, res[0].Uid)
	assert.Equal(t, common.TableDpdRoots, res[0].TableName)
}

func TestResultsHiddenUntilAllFinished(t *testing.T) {
	ctx := context.Background()
	svc, pool := newService(t)

	p := svc.DefaultParams()
	d := svc.NewDispatcher()
	require.NoError(t, d.Start(ctx, "dukkha", common.AreaSuttas, time.Now(), p))

	// no worker is running yet
	assert.False(t, d.AllFinished())
	for n := 0; n < 3; n++ {
		assert.Empty(t, d.ResultsPage(ctx, n))
	}
	assert.Nil(t, d.QueryHits())
	assert.Zero(t, d.ResultPagesCount())
	for _, task := range d.Tasks() {
		assert.Equal(t, search.TaskCreated, task.State())
	}

	pctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(pctx)
	require.NoError(t, d.Wait(ctx))

	assert.True(t, d.AllFinished())
	assert.NotEmpty(t, d.ResultsPage(ctx, 0))
}

func TestMergedPageIsConcatenationInLanguageOrder(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)

	d := svc.NewDispatcher()
	run(t, d, "dukkha", common.AreaSuttas, svc.DefaultParams())

	tasks := d.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "en", tasks[0].Lang)
	assert.Equal(t, "pli", tasks[1].Lang)

	// seven truths, the dukkha-only sutta and the userdata sutta
	require.NotNil(t, tasks[0].Hits())
	assert.Equal(t, testfixtures.DukkhaNirodhaCount+2, *tasks[0].Hits())

	longest := 0
	for _, task := range tasks {
		longest = max(longest, *task.Hits())
	}
	pageLen := svc.Config().PageLen
	pages := d.ResultPagesCount()
	assert.Equal(t, (longest+pageLen-1)/pageLen, pages)

	for n := 0; n <= pages; n++ {
		var expected []results.SearchResult
		for _, task := range tasks {
			expected = append(expected, task.ResultsPage(ctx, n)...)
		}
		merged := d.MergedPage(ctx, n)
		assert.Equal(t, uids(expected), uids(merged), "page %d", n)

		sorted := d.ResultsPage(ctx, n)
		assert.ElementsMatch(t, uids(merged), uids(sorted))
		for i := 1; i < len(sorted); i++ {
			assert.GreaterOrEqual(t, *sorted[i-1].Score, *sorted[i].Score)
		}
	}
	assert.Empty(t, d.MergedPage(ctx, pages))
}

func TestNewQuerySupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)
	d := svc.NewDispatcher()

	p := svc.DefaultParams()
	p.Mode = common.ExactMatch
	require.NoError(t, d.Start(ctx, "dukkha", common.AreaSuttas, time.Now(), p))

	p.Mode = common.TitleMatch
	require.NoError(t, d.Start(ctx, "Yokes", common.AreaSuttas, time.Now(), p))
	require.NoError(t, d.Wait(ctx))

	assert.Equal(t, []string{"an4.10/en/user"}, uids(d.AllResults(ctx)))
	info, _ := d.Query()
	assert.Equal(t, "Yokes", info.Text)
}

func TestStartErrors(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)
	d := svc.NewDispatcher()

	err := d.Start(ctx, "^", common.AreaSuttas, time.Now(), svc.DefaultParams())
	assert.True(t, common.IsQuerySyntaxError(err))
	assert.True(t, common.IsQuerySyntaxError(d.Warning()))
	assert.True(t, d.AllFinished())
	assert.Empty(t, d.ResultsPage(ctx, 0))

	p := svc.DefaultParams()
	p.EnableRegex = true
	p.FuzzyDistance = 1
	err = d.Start(ctx, "nirodha", common.AreaSuttas, time.Now(), p)
	assert.ErrorIs(t, err, common.ErrRegexFuzzyConflict)
}

func TestRegexQueryHasNoHitCount(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)

	p := svc.DefaultParams()
	p.EnableRegex = true
	p.OnlyLang = "en"

	d := svc.NewDispatcher()
	run(t, d, "nirod.*", common.AreaSuttas, p)
	assert.Nil(t, d.QueryHits())
	all := d.AllResults(ctx)
	assert.Len(t, all, testfixtures.DukkhaNirodhaCount+1)
	for _, r := range all {
		// the match of the pattern, not the pattern text, is highlighted
		assert.Contains(t, r.Snippet, "<span class='match'>nirodha", r.Uid)
	}
}

func TestLanguageExclusion(t *testing.T) {
	svc := startedService(t)

	p := svc.DefaultParams()
	p.OnlyLang = "en"
	p.LangInclude = false

	d := svc.NewDispatcher()
	run(t, d, "dukkha", common.AreaSuttas, p)
	require.Len(t, d.Tasks(), 1)
	assert.Equal(t, "pli", d.Tasks()[0].Lang)
}

func TestCombinedSearch(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t)

	res, err := svc.SuttasFulltextSearch(ctx, "satipaṭṭhāna", svc.DefaultParams(), 0, false)
	require.NoError(t, err)
	assert.Contains(t, uids(res.Results), "mil5.3.7/en/tw_rhysdavids")
	assert.Empty(t, res.Deconstructor)
	assert.Empty(t, res.Warning)

	p := svc.DefaultParams()
	p.PageLen = 20
	res, err = svc.CombinedSearch(ctx, "kammaṭhānaṁ", p, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"kammaṁ + ṭhānaṁ", "kamma + ṭhānaṁ"}, res.Deconstructor)

	_, err = svc.SuttasFulltextSearch(ctx, "^", svc.DefaultParams(), 0, false)
	assert.True(t, common.IsQuerySyntaxError(err))
}

func TestSortMerged(t *testing.T) {
	res := []results.SearchResult{
		{Uid: "r1", Rank: results.IntPtr(1)},
		{Uid: "s1", Score: results.FloatPtr(1)},
		{Uid: "r0", Rank: results.IntPtr(0)},
		{Uid: "s3", Score: results.FloatPtr(3)},
		{Uid: "r0b", Rank: results.IntPtr(0)},
	}
	search.SortMerged(res)
	assert.Equal(t, []string{"s3", "s1", "r0", "r0b", "r1"}, uids(res))
}

func TestSplitAndTerms(t *testing.T) {
	assert.Equal(t, []string{"dukkha", "nirodha"}, search.SplitAndTerms(" dukkha AND nirodha "))
	assert.Equal(t, []string{"ANDROID"}, search.SplitAndTerms("ANDROID"))
	assert.Nil(t, search.SplitAndTerms("  "))
}
