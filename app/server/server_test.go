package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstack/echo/v4"

	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/internal/testfixtures"
	"github.com/simsapa/simsapa-sub001/app/search"
	"github.com/simsapa/simsapa-sub001/app/server"
)

func newTestServer(t *testing.T, configure func(*config.SimsapaConfig)) *echo.Echo {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conf := testfixtures.NewConfig(t)
	if configure != nil {
		configure(conf)
	}
	store := testfixtures.NewStore(t, conf)
	m := fulltext.NewIndexManager(conf, store)
	require.NoError(t, m.OpenAll(ctx, false))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.IndexAll(ctx, false))

	pool := search.NewWorkerPool(conf.WorkerCount, 16)
	pool.Start(ctx)
	t.Cleanup(pool.Close)

	svc := search.NewService(conf, store, m, pool)
	return server.NewServer(server.NewSearchController(svc), conf)
}

func get(t *testing.T, e *echo.Echo, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type searchResponse struct {
	Hits    *int `json:"hits"`
	Results []struct {
		Uid   string `json:"uid"`
		Title string `json:"title"`
	} `json:"results"`
	Deconstructor []string `json:"deconstructor"`
}

func TestSearchSuttas(t *testing.T) {
	e := newTestServer(t, nil)

	var res searchResponse
	code := get(t, e, "/api/suttas/search?q=dukkha+AND+nirodha&mode=exact&lang=en&page_len=20", &res)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Hits)
	assert.Equal(t, testfixtures.DukkhaNirodhaCount+1, *res.Hits)
	assert.Len(t, res.Results, testfixtures.DukkhaNirodhaCount+1)
	assert.Empty(t, res.Deconstructor)
}

func TestSearchErrors(t *testing.T) {
	e := newTestServer(t, nil)

	testCases := []struct {
		name   string
		target string
		code   int
	}{
		{"missing query", "/api/suttas/search", http.StatusBadRequest},
		{"bad page", "/api/suttas/search?q=dukkha&page=x", http.StatusBadRequest},
		{"negative page", "/api/suttas/search?q=dukkha&page=-1", http.StatusBadRequest},
		{"unknown mode", "/api/suttas/search?q=dukkha&mode=bogus", http.StatusUnprocessableEntity},
		{"query syntax", "/api/suttas/search?q=%5E", http.StatusUnprocessableEntity},
		{"regex and fuzzy", "/api/words/search?q=kamma&regex=true&fuzzy=1", http.StatusUnprocessableEntity},
		{"unknown route", "/api/nothing", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Error string `json:"error"`
			}
			assert.Equal(t, tc.code, get(t, e, tc.target, &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSearchWords(t *testing.T) {
	e := newTestServer(t, nil)

	var res searchResponse
	code := get(t, e, "/api/words/search?page_len=20&q="+url.QueryEscape("kammaṭhānaṁ"), &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"kammaṁ + ṭhānaṁ", "kamma + ṭhānaṁ"}, res.Deconstructor)
}

func TestLookupWord(t *testing.T) {
	e := newTestServer(t, nil)

	var res struct {
		Stage     string `json:"stage"`
		Headwords []struct {
			Uid   string `json:"uid"`
			Title string `json:"title"`
		} `json:"headwords"`
		Deconstructor []string `json:"deconstructor"`
	}
	code := get(t, e, "/api/words/lookup/kammikassa", &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "inflection", res.Stage)
	require.Len(t, res.Headwords, 2)
	assert.Equal(t, "20400/dpd", res.Headwords[0].Uid)
	assert.Equal(t, "20401/dpd", res.Headwords[1].Uid)
	assert.Empty(t, res.Deconstructor)

	res.Headwords = nil
	code = get(t, e, "/api/words/lookup/kar", &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "clean_exact", res.Stage)
	require.Len(t, res.Headwords, 1)
	assert.Equal(t, testfixtures.KarRootUid, res.Headwords[0].Uid)
	assert.Equal(t, "√kar 1", res.Headwords[0].Title)
}

func TestIndexStatusAndSources(t *testing.T) {
	e := newTestServer(t, nil)

	var status struct {
		Empty   bool `json:"empty"`
		Indexes []struct {
			Lang     string `json:"lang"`
			DocCount uint64 `json:"doc_count"`
		} `json:"indexes"`
	}
	require.Equal(t, http.StatusOK, get(t, e, "/api/index/status", &status))
	assert.False(t, status.Empty)
	assert.NotEmpty(t, status.Indexes)

	var sources struct {
		Suttas    []string `json:"suttas"`
		DictWords []string `json:"dict_words"`
	}
	require.Equal(t, http.StatusOK, get(t, e, "/api/sources", &sources))
	assert.Contains(t, sources.Suttas, "sujato")
	assert.Contains(t, sources.DictWords, "pts")
}

func TestRateLimit(t *testing.T) {
	e := newTestServer(t, func(c *config.SimsapaConfig) {
		c.Server.RateLimit = 1
	})

	codes := map[int]int{}
	for range 5 {
		codes[get(t, e, "/api/index/status", nil)]++
	}
	assert.Equal(t, 3, codes[http.StatusOK])
	assert.Equal(t, 2, codes[http.StatusTooManyRequests])
}
