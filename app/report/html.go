package report

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/simsapa/simsapa-sub001/app/common"
)

var areaContextKey = parser.NewContextKey()

// HTMLConverter renders report Markdown to HTML. Code spans holding a
// result uid become ssp:// links which open the sutta or the word.
type HTMLConverter struct {
	md goldmark.Markdown
}

func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{
		md: goldmark.New(goldmark.WithExtensions(&uidLinkExtension{})),
	}
}

// ToHTML converts text, linking uids into area.
func (c *HTMLConverter) ToHTML(text string, area common.SearchArea) (string, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	ctx.Set(areaContextKey, area)
	if err := c.md.Convert([]byte(text), &buf, parser.WithContext(ctx)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type uidLinkExtension struct{}

func (e *uidLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&uidLinkTransformer{}, 100),
		),
	)
}

type uidLinkTransformer struct{}

// e.g. mn10/en/sujato, 1234/dpd
var uidRegex = regexp.MustCompile(`^[\p{L}0-9_.-]+(/[\p{L}0-9_.-]+)+$`)

// UidLink is the address the application opens for a result uid.
func UidLink(area common.SearchArea, uid string) string {
	if area == common.AreaDictWords {
		return "ssp://words/" + uid
	}
	return "ssp://suttas/" + uid
}

func (t *uidLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	area, _ := pc.Get(areaContextKey).(common.SearchArea)

	// replaced after the walk, a node removed during it ends the walk of its siblings
	var spans []*ast.CodeSpan
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindCodeSpan {
			spans = append(spans, n.(*ast.CodeSpan))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, span := range spans {
		txt, ok := span.FirstChild().(*ast.Text)
		if !ok || span.FirstChild() != span.LastChild() {
			continue
		}
		uid := string(txt.Segment.Value(reader.Source()))
		if !uidRegex.MatchString(uid) {
			continue
		}
		link := ast.NewLink()
		link.Destination = []byte(UidLink(area, uid))
		parent := span.Parent()
		parent.ReplaceChild(parent, span, link)
		link.AppendChild(link, span)
	}
}
