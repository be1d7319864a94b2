package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/report"
)

var (
	queryPrintTitles   bool
	queryPrintCount    bool
	queryMode          string
	queryLang          string
	querySource        string
	queryExcludeSource bool
	queryRegex         bool
	queryFuzzy         int
	queryPage          int
	queryAll           bool
	queryFormat        string
)

var queryCmd = &cobra.Command{
	Use:   "query <suttas|words> <text>",
	Short: "Search the suttas or the dictionary words of every language",
	Long: `Runs the query against every language of the content area and prints
one page of the merged results.

Query syntax for the fulltext mode: +term is required, -term is excluded,
field:term searches one field, "quoted phrases", uid:mn10. A sutta reference
such as "sn 56.11" finds that sutta.`,
	Example: `  simsapa query suttas "dukkha nirodha" --print-count
  simsapa query words kamma --mode headword --format markdown`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func addQueryFlags(f *pflag.FlagSet) {
	f.BoolVar(&queryPrintTitles, "print-titles", false, "print the uid and title of each result")
	f.BoolVar(&queryPrintCount, "print-count", false, "print the number of hits")
	f.StringVarP(&queryMode, "mode", "m", string(common.FulltextMatch),
		"fulltext, exact, title, headword, dpd_id or dpd_lookup")
	f.StringVarP(&queryLang, "lang", "l", "", "only search this language")
	f.StringVarP(&querySource, "source", "s", "", "only show results of this source, e.g. sujato")
	f.BoolVar(&queryExcludeSource, "exclude-source", false, "hide the results of --source instead")
	f.BoolVar(&queryRegex, "regex", false, "treat the query as a regular expression")
	f.IntVar(&queryFuzzy, "fuzzy", 0, "edit distance for fuzzy matching, 0 to 2")
	f.IntVarP(&queryPage, "page", "p", 0, "page of results, from 0")
	f.BoolVar(&queryAll, "all", false, "print every page")
	f.StringVarP(&queryFormat, "format", "f", string(report.FormatText), "text, json, markdown or html")
}

func init() {
	addQueryFlags(queryCmd.Flags())
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	area, err := common.ParseSearchArea(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	mode, err := common.ParseSearchMode(queryMode)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(queryFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.svc.DefaultParams()
	p.Mode = mode
	p.OnlyLang = queryLang
	p.Source = querySource
	p.SourceInclude = !queryExcludeSource
	p.EnableRegex = queryRegex
	p.FuzzyDistance = queryFuzzy

	d := a.svc.NewDispatcher()
	if err := d.Start(ctx, text, area, time.Now(), p); err != nil {
		return err
	}
	if err := d.Wait(ctx); err != nil {
		return err
	}

	r := &report.Report{
		Query: text,
		Area:  area,
		Mode:  mode,
		Hits:  d.QueryHits(),
		Page:  queryPage,
		Pages: d.ResultPagesCount(),
	}
	if queryAll {
		r.Results = d.AllResults(ctx)
	} else {
		r.Results = d.ResultsPage(ctx, queryPage)
	}
	if w := d.Warning(); w != nil {
		r.Warning = w.Error()
	}

	if area == common.AreaDictWords && a.store.HasDpd() {
		variants, err := a.svc.Resolver().DeconstructorVariants(ctx, text)
		if err != nil {
			slog.Error("deconstructor lookup", "query", text, "err", err)
		}
		r.Deconstructor = variants
	}

	return report.Write(cmd.OutOrStdout(), r, format, report.Options{
		PrintTitles: queryPrintTitles,
		PrintCount:  queryPrintCount,
	})
}
