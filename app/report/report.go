// Package report writes a page of search results for the command line, as
// plain text, JSON, Markdown or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/results"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", common.NewUserVisibleError(400,
		fmt.Sprintf("unknown output format %q, expected one of text, json, markdown, html", s))
}

// Report is one page of results of a query.
type Report struct {
	Query         string                 `json:"query"`
	Area          common.SearchArea      `json:"area"`
	Mode          common.SearchMode      `json:"mode"`
	Hits          *int                   `json:"hits"`
	Page          int                    `json:"page"`
	Pages         int                    `json:"pages"`
	Results       []results.SearchResult `json:"results"`
	Deconstructor []string               `json:"deconstructor,omitempty"`
	Warning       string                 `json:"warning,omitempty"`
}

// Options select what the text format prints.
type Options struct {
	PrintTitles bool
	PrintCount  bool
}

// Write renders r to w in format f.
func Write(w io.Writer, r *Report, f Format, opts Options) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatHTML:
		out, err := NewHTMLConverter().ToHTML(Markdown(r), r.Area)
		if err != nil {
			return fmt.Errorf("rendering html report: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	}
	return writeText(w, r, opts)
}

func writeText(w io.Writer, r *Report, opts Options) error {
	var sb strings.Builder
	if r.Warning != "" {
		fmt.Fprintf(&sb, "warning: %s\n", r.Warning)
	}
	if opts.PrintCount {
		fmt.Fprintf(&sb, "hits: %s\n", hitsString(r.Hits))
	}
	if opts.PrintTitles {
		for _, res := range r.Results {
			fmt.Fprintf(&sb, "%s\t%s\n", res.Uid, res.Title)
		}
	}
	if !opts.PrintTitles && !opts.PrintCount {
		for i, res := range r.Results {
			fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, res.Title, res.Uid)
			if s := plainSnippet(res.Snippet); s != "" {
				fmt.Fprintf(&sb, "   %s\n", s)
			}
		}
	}
	if len(r.Deconstructor) > 0 {
		fmt.Fprintf(&sb, "deconstructor: %s\n", strings.Join(r.Deconstructor, ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func hitsString(hits *int) string {
	if hits == nil {
		return "unknown"
	}
	return fmt.Sprint(*hits)
}

// a private use rune stands in for the highlight tags while the rest are stripped
var matchMarker = strings.NewReplacer("<span class='match'>", "\uE000", "</span>", "\uE000")

// plainSnippet drops the markup of a snippet.
func plainSnippet(s string) string {
	return html.UnescapeString(results.StripTags(s))
}

// markdownSnippet keeps highlighted terms as strong emphasis.
func markdownSnippet(s string) string {
	s = matchMarker.Replace(s)
	s = html.UnescapeString(results.StripTags(s))
	s = escapeMarkdown(s)
	return strings.ReplaceAll(s, "\uE000", "**")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Markdown lists the results as an ordered list with the uid in a code span.
func Markdown(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(r.Query))
	fmt.Fprintf(&sb, "Area: %s, mode: %s, hits: %s, page %d of %d\n\n",
		r.Area, r.Mode, hitsString(r.Hits), r.Page+1, max(r.Pages, 1))

	if r.Warning != "" {
		fmt.Fprintf(&sb, "> %s\n\n", escapeMarkdown(r.Warning))
	}
	if len(r.Deconstructor) > 0 {
		sb.WriteString("Deconstructor: ")
		sb.WriteString(escapeMarkdown(strings.Join(r.Deconstructor, ", ")))
		sb.WriteString("\n\n")
	}

	for i, res := range r.Results {
		fmt.Fprintf(&sb, "%d. **%s** `%s`", i+1, escapeMarkdown(res.Title), res.Uid)
		if s := markdownSnippet(res.Snippet); s != "" {
			fmt.Fprintf(&sb, "\n   %s", s)
		}
		sb.WriteString("\n")
	}
	if len(r.Results) == 0 {
		sb.WriteString("No results.\n")
	}
	return sb.String()
}
