package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/dpd"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/results"
	"github.com/simsapa/simsapa-sub001/app/search"
)

type SearchController struct {
	svc *search.Service
}

func NewSearchController(svc *search.Service) *SearchController {
	return &SearchController{svc: svc}
}

type searchRequest struct {
	text     string
	page     int
	paliSort bool
	params   search.Params
}

// bindSearch reads q, page, mode, lang, exclude_lang, source, exclude_source,
// regex, fuzzy and sort from the query string.
func (sc *SearchController) bindSearch(c echo.Context) (searchRequest, error) {
	req := searchRequest{params: sc.svc.DefaultParams()}
	var mode, sort string
	var excludeLang, excludeSource bool

	err := echo.QueryParamsBinder(c).
		String("q", &req.text).
		Int("page", &req.page).
		String("mode", &mode).
		String("lang", &req.params.OnlyLang).
		Bool("exclude_lang", &excludeLang).
		String("source", &req.params.Source).
		Bool("exclude_source", &excludeSource).
		Bool("regex", &req.params.EnableRegex).
		Int("fuzzy", &req.params.FuzzyDistance).
		Int("page_len", &req.params.PageLen).
		String("sort", &sort).
		BindError()
	if err != nil {
		return req, common.NewUserVisibleError(http.StatusBadRequest, err.Error())
	}

	req.text = strings.TrimSpace(req.text)
	if req.text == "" {
		return req, common.NewUserVisibleError(http.StatusBadRequest, "missing query parameter q")
	}
	if req.page < 0 {
		return req, common.NewUserVisibleError(http.StatusBadRequest, "page must not be negative")
	}
	if mode != "" {
		if req.params.Mode, err = common.ParseSearchMode(mode); err != nil {
			return req, err
		}
	}
	req.params.LangInclude = !excludeLang
	req.params.SourceInclude = !excludeSource
	req.paliSort = sort == "pali"
	return req, nil
}

func searchError(err error, message string) error {
	if errors.Is(err, common.ErrRegexFuzzyConflict) {
		return common.NewUserVisibleError(http.StatusUnprocessableEntity, err.Error())
	}
	if errors.Is(err, common.ErrDataSourceUnavailable) {
		return common.NewUserVisibleError(http.StatusServiceUnavailable, err.Error())
	}
	return common.WrapErrorForResponse(err, message)
}

// SearchSuttas searches the suttas of every language.
func (sc *SearchController) SearchSuttas(c echo.Context) error {
	req, err := sc.bindSearch(c)
	if err != nil {
		return err
	}
	res, err := sc.svc.SuttasFulltextSearch(c.Request().Context(), req.text, req.params, req.page, req.paliSort)
	if err != nil {
		return searchError(err, "sutta search failed")
	}
	return c.JSON(http.StatusOK, res)
}

// SearchWords searches the dictionaries and lists the sandhi splits of the
// query.
func (sc *SearchController) SearchWords(c echo.Context) error {
	req, err := sc.bindSearch(c)
	if err != nil {
		return err
	}
	res, err := sc.svc.CombinedSearch(c.Request().Context(), req.text, req.params, req.page, req.paliSort)
	if err != nil {
		return searchError(err, "word search failed")
	}
	return c.JSON(http.StatusOK, res)
}

type lookupResponse struct {
	Word          string                 `json:"word"`
	Stage         dpd.Stage              `json:"stage"`
	Headwords     []results.SearchResult `json:"headwords"`
	Deconstructor []string               `json:"deconstructor"`
}

// LookupWord resolves a word to DPD headwords and roots.
func (sc *SearchController) LookupWord(c echo.Context) error {
	word := strings.TrimSpace(c.Param("word"))
	if word == "" {
		return common.NewUserVisibleError(http.StatusBadRequest, "missing word")
	}
	if !sc.svc.Store().HasDpd() {
		return common.NewUserVisibleError(http.StatusServiceUnavailable, "the DPD database is not available")
	}

	ctx := c.Request().Context()
	resolver := sc.svc.Resolver()
	rows, stage, err := resolver.LookupStaged(ctx, word)
	if err != nil {
		return err
	}
	variants, err := resolver.DeconstructorVariants(ctx, word)
	if err != nil {
		return err
	}

	resp := lookupResponse{
		Word:          word,
		Stage:         stage,
		Headwords:     make([]results.SearchResult, 0, len(rows)),
		Deconstructor: variants,
	}
	if resp.Deconstructor == nil {
		resp.Deconstructor = []string{}
	}
	for _, r := range rows {
		resp.Headwords = append(resp.Headwords, results.FromRow(r, ""))
	}
	return c.JSON(http.StatusOK, resp)
}

type indexStatusResponse struct {
	// Empty asks the user to (re)build the indexes.
	Empty   bool                   `json:"empty"`
	Indexes []fulltext.IndexStatus `json:"indexes"`
}

func (sc *SearchController) IndexStatus(c echo.Context) error {
	m := sc.svc.Indexes()
	return c.JSON(http.StatusOK, indexStatusResponse{
		Empty:   m.HasEmptyIndex(),
		Indexes: m.Status(),
	})
}

type sourcesResponse struct {
	Suttas    []string `json:"suttas"`
	DictWords []string `json:"dict_words"`
}

// Sources lists the distinct sources, for the filter menus.
func (sc *SearchController) Sources(c echo.Context) error {
	ctx := c.Request().Context()
	suttas, err := sc.svc.Store().SuttaSourceUids(ctx)
	if err != nil {
		return err
	}
	dicts, err := sc.svc.Store().DictSourceUids(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sourcesResponse{Suttas: suttas, DictWords: dicts})
}
