package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/results"
)

// ApiSearchResult is one page of a finished search.
type ApiSearchResult struct {
	Hits    *int                   `json:"hits"`
	Results []results.SearchResult `json:"results"`
	// sandhi splits of the query, "word + word"
	Deconstructor []string `json:"deconstructor"`
	Warning       string   `json:"warning,omitempty"`
}

// runToPage dispatches the query, waits for it and returns page n without
// repeated results.
func (s *Service) runToPage(ctx context.Context, text string, area common.SearchArea, params Params, page int, paliSort bool) (ApiSearchResult, error) {
	d := s.NewDispatcher()
	if err := d.Start(ctx, text, area, time.Now(), params); err != nil {
		return ApiSearchResult{}, err
	}
	if err := d.Wait(ctx); err != nil {
		return ApiSearchResult{}, err
	}

	res := results.UniqueSearchResults(d.ResultsPage(ctx, page))
	if paliSort {
		results.SortByPaliTitle(res)
	}

	out := ApiSearchResult{
		Hits:          d.QueryHits(),
		Results:       res,
		Deconstructor: []string{},
	}
	if w := d.Warning(); w != nil {
		out.Warning = w.Error()
	}
	return out, nil
}

// SuttasFulltextSearch searches the suttas of every language.
func (s *Service) SuttasFulltextSearch(ctx context.Context, text string, params Params, page int, paliSort bool) (ApiSearchResult, error) {
	return s.runToPage(ctx, text, common.AreaSuttas, params, page, paliSort)
}

// CombinedSearch searches the dictionaries of every language and adds the
// sandhi splits of the query.
func (s *Service) CombinedSearch(ctx context.Context, text string, params Params, page int, paliSort bool) (ApiSearchResult, error) {
	out, err := s.runToPage(ctx, text, common.AreaDictWords, params, page, paliSort)
	if err != nil {
		return out, err
	}

	if s.store.HasDpd() {
		variants, err := s.resolver.DeconstructorVariants(ctx, text)
		if err != nil {
			slog.Error("deconstructor lookup", "query", text, "err", err)
		} else {
			out.Deconstructor = append(out.Deconstructor, variants...)
		}
	}
	return out, nil
}
