package common

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reRefLink     = regexp.MustCompile(`<a class=.ref\b[^>]+>[^<]*</a>`)
	reInlineOpen  = regexp.MustCompile(`<(b|strong|i|em)(\s[^>]*)?>`)
	reInlineClose = regexp.MustCompile(`</(b|strong|i|em)>`)
	reBr          = regexp.MustCompile(`<br\s*/?>`)
	reThumbs      = regexp.MustCompile("[\U0001f44d\U0001f44e]+")
)

// StripHTML returns the text content of an HTML fragment or document.
// Entities are decoded. Head, style and script contents and comments are
// dropped.
func StripHTML(text string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF, or malformed input where the collected text is kept.
			out := reThumbs.ReplaceAllString(sb.String(), "")
			return reMultiSpace.ReplaceAllString(out, " ")
		case html.StartTagToken:
			if isSkippedTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isSkippedTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isSkippedTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Head, atom.Style, atom.Script:
		return true
	}
	return false
}

// CompactRichText turns HTML content into the compact plain text which is
// indexed. Inline emphasis inside a word is joined, e.g. dhamm<b>āya</b>
// becomes dhammāya, while block tags are kept apart by a space.
func CompactRichText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = reRefLink.ReplaceAllString(text, "")
	text = reBr.ReplaceAllString(text, " ")
	text = reInlineOpen.ReplaceAllString(text, "")
	text = reInlineClose.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "<", " <")
	text = strings.ReplaceAll(text, ">", "> ")

	return CompactPlainText(StripHTML(text))
}

// RemoveNoIndex drops the elements with the noindex class, e.g. footers and
// navigation which should not be found by a search.
func RemoveNoIndex(content string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if hasClass(n, "noindex") {
			continue
		}
		removeNoIndexChildren(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func removeNoIndexChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if hasClass(c, "noindex") {
			n.RemoveChild(c)
		} else {
			removeNoIndexChildren(c)
		}
		c = next
	}
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
