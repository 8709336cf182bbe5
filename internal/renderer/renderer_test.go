package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/richtext"
)

const sampleDocument = `{"root":{"type":"root","children":[
  {"type":"heading","tag":"h2","children":[{"type":"text","text":"Title","format":0}]},
  {"type":"paragraph","children":[
    {"type":"text","text":"Hello ","format":0},
    {"type":"text","text":"bold","format":1},
    {"type":"text","text":" and ","format":0},
    {"type":"link","url":"https://go.dev","children":[{"type":"text","text":"Go","format":0}]}
  ]},
  {"type":"list","listType":"number","children":[
    {"type":"listitem","children":[{"type":"text","text":"A","format":0}]},
    {"type":"listitem","children":[{"type":"text","text":"B","format":0}]}
  ]},
  {"type":"quote","children":[{"type":"text","text":"wise words","format":0}]},
  {"type":"code","children":[{"type":"text","text":"x := 1","format":0}]}
]}}`

func elementsFor(t *testing.T, js string) []richtext.Element {
	t.Helper()
	doc, err := richtext.Unmarshal([]byte(js))
	require.NoError(t, err)
	elements, err := richtext.Render(doc)
	require.NoError(t, err)
	return elements
}

func renderHTML(t *testing.T, elements []richtext.Element) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, HTML(elements).Render(context.Background(), &sb))
	return sb.String()
}

func query(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestHTMLStructure(t *testing.T) {
	markup := renderHTML(t, elementsFor(t, sampleDocument))
	doc := query(t, markup)

	prose := doc.Find("div.prose")
	require.Equal(t, 1, prose.Length())

	h2 := prose.Find("h2")
	assert.Equal(t, "Title", h2.Text())
	assert.True(t, h2.HasClass("text-2xl"))

	p := prose.Find("p.leading-relaxed")
	assert.Equal(t, "Hello bold and Go", p.Text())
	assert.Equal(t, "bold", p.Find("strong").Text())

	link := p.Find("a")
	href, _ := link.Attr("href")
	target, _ := link.Attr("target")
	rel, _ := link.Attr("rel")
	assert.Equal(t, "https://go.dev", href)
	assert.Equal(t, "_blank", target)
	assert.Equal(t, "noopener noreferrer", rel)

	items := prose.Find("ol.list-decimal > li")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "A", items.Eq(0).Text())
	assert.Equal(t, "B", items.Eq(1).Text())

	assert.Equal(t, "wise words", prose.Find("blockquote").Text())
	assert.Equal(t, "x := 1", prose.Find("pre > code").Text())
}

func TestHTMLNestsBoldOutsideItalic(t *testing.T) {
	markup := renderHTML(t, []richtext.Element{
		{Kind: richtext.ElementParagraph, Children: elementsFor(t,
			`{"type":"text","text":"x","format":27}`)},
	})

	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)

	var chain []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "strong", "em", "u", "code":
				chain = append(chain, n.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	assert.Equal(t, []string{"strong", "em", "u", "code"}, chain)
}

func TestHTMLHeadingFallbacks(t *testing.T) {
	markup := renderHTML(t, elementsFor(t, `{"root":{"children":[
		{"type":"heading","tag":"h6","children":[{"type":"text","text":"six"}]},
		{"type":"heading","tag":"h9","children":[{"type":"text","text":"nine"}]}]}}`))
	doc := query(t, markup)

	assert.True(t, doc.Find("h6").HasClass("font-bold"))
	assert.Equal(t, "nine", doc.Find("div.font-bold").Text())
	assert.Equal(t, 0, doc.Find("h9").Length())
}

func TestHTMLEscapesText(t *testing.T) {
	markup := renderHTML(t, elementsFor(t,
		`{"type":"paragraph","children":[{"type":"text","text":"<script>alert(1)</script>"}]}`))

	assert.NotContains(t, markup, "<script>")
	assert.Equal(t, 0, query(t, markup).Find("script").Length())
	assert.Contains(t, query(t, markup).Find("p").Text(), "<script>")
}

func TestHTMLNeutralisesUnsafeLinks(t *testing.T) {
	markup := renderHTML(t, elementsFor(t,
		`{"type":"link","url":"javascript:alert(1)","children":[{"type":"text","text":"x"}]}`))

	href, ok := query(t, markup).Find("a").Attr("href")
	require.True(t, ok)
	assert.False(t, strings.HasPrefix(href, "javascript:"))
}

func TestHTMLEmpty(t *testing.T) {
	assert.Equal(t, `<div class="prose prose-lg max-w-none"></div>`, renderHTML(t, nil))
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()
	out := s.Sanitize(`<p class="mb-4 text-foreground/70">ok</p><script>alert(1)</script>` +
		`<a href="javascript:alert(1)">x</a><img src="/a.png" onerror="alert(1)">`)

	assert.Contains(t, out, `class="mb-4 text-foreground/70"`)
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "onerror")
}

func TestEngineSanitizedHTMLKeepsStructure(t *testing.T) {
	engine := NewEngine(Options{Sanitize: true})
	doc, err := richtext.Unmarshal([]byte(sampleDocument))
	require.NoError(t, err)

	out, err := engine.Render(context.Background(), doc, FormatHTML)
	require.NoError(t, err)

	q := query(t, string(out))
	assert.Equal(t, "Title", q.Find("h2").Text())
	assert.Equal(t, 2, q.Find("ol > li").Length())
	target, _ := q.Find("a").Attr("target")
	assert.Equal(t, "_blank", target)
	rel, _ := q.Find("a").Attr("rel")
	assert.ElementsMatch(t, []string{"noopener", "noreferrer"}, strings.Fields(rel))
}

func TestEngineSanitizedRelativeLinkKeepsNoReferrer(t *testing.T) {
	engine := NewEngine(Options{Sanitize: true})
	doc, err := richtext.Unmarshal([]byte(`{"root":{"children":[{"type":"paragraph","children":[
		{"type":"link","url":"/posts/a","children":[{"type":"text","text":"next"}]}]}]}}`))
	require.NoError(t, err)

	out, err := engine.Render(context.Background(), doc, FormatHTML)
	require.NoError(t, err)

	link := query(t, string(out)).Find("a")
	href, _ := link.Attr("href")
	assert.Equal(t, "/posts/a", href)
	target, _ := link.Attr("target")
	assert.Equal(t, "_blank", target)
	rel, _ := link.Attr("rel")
	assert.ElementsMatch(t, []string{"noopener", "noreferrer"}, strings.Fields(rel))
}

func TestEngineMarkdown(t *testing.T) {
	engine := NewEngine(Options{})
	doc, err := richtext.Unmarshal([]byte(sampleDocument))
	require.NoError(t, err)

	out, err := engine.Render(context.Background(), doc, FormatMarkdown)
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "## Title")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "[Go](https://go.dev)")
	assert.Contains(t, md, "wise words")
}

func TestEngineTextAndJSON(t *testing.T) {
	engine := NewEngine(Options{})
	doc, err := richtext.Unmarshal([]byte(sampleDocument))
	require.NoError(t, err)

	out, err := engine.Render(context.Background(), doc, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nHello bold and Go\n\n1. A\n2. B\n\n> wise words\n\nx := 1", string(out))

	out, err = engine.Render(context.Background(), doc, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"kind":"heading"`)
	assert.Contains(t, string(out), `"level":2`)
}

func TestEngineDepthError(t *testing.T) {
	engine := NewEngine(Options{MaxDepth: 2})
	doc, err := richtext.Unmarshal([]byte(sampleDocument))
	require.NoError(t, err)

	_, err = engine.Render(context.Background(), doc, FormatHTML)
	assert.ErrorIs(t, err, richtext.ErrDocumentTooDeep)

	_, err = engine.Component(context.Background(), doc)
	assert.ErrorIs(t, err, richtext.ErrDocumentTooDeep)
}

func TestParseFormat(t *testing.T) {
	testCases := map[string]Format{
		"":         FormatHTML,
		"HTML":     FormatHTML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"txt":      FormatText,
		"json":     FormatJSON,
	}
	for input, expected := range testCases {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got)
	}

	_, err := ParseFormat("pdf")
	assert.True(t, folioerrors.IsValidation(err))
	assert.Equal(t, "text/markdown; charset=utf-8", FormatMarkdown.ContentType())
}

func TestExcerptAndReadingTime(t *testing.T) {
	elements := elementsFor(t,
		`{"type":"paragraph","children":[{"type":"text","text":"The quick brown fox jumps"}]}`)

	assert.Equal(t, "The quick…", Excerpt(elements, 12))
	assert.Equal(t, "The quick brown fox jumps", Excerpt(elements, 100))
	assert.Equal(t, 1, ReadingTime(elements))
	assert.Equal(t, 1, ReadingTime(nil))

	long := []richtext.Element{{Kind: richtext.ElementParagraph, Children: []richtext.Element{
		{Kind: richtext.ElementText, Text: strings.Repeat("word ", 401)},
	}}}
	assert.Equal(t, 3, ReadingTime(long))
}
