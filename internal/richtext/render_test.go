package richtext

import (
	"sync"
	"testing"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) Element { return Element{Kind: ElementText, Text: s} }

func mustNode(t *testing.T, js string) Node {
	t.Helper()
	n, err := UnmarshalNode([]byte(js))
	require.NoError(t, err)
	return n
}

func TestRenderEmpty(t *testing.T) {
	r := NewRenderer(Options{})

	testCases := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"nil root", &Document{}},
		{"root without children", &Document{Root: &Block{Kind: KindRoot}}},
		{"root with empty children", NewDocument()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Render(tc.doc)
			require.NoError(t, err)
			assert.NotNil(t, out)
			assert.Empty(t, out)
		})
	}

	out, err := r.RenderNode(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderParagraph(t *testing.T) {
	out, err := defaultRenderer.RenderNode(mustNode(t,
		`{"type":"paragraph","children":[{"type":"text","text":"Hi","format":0}]}`))
	require.NoError(t, err)

	assert.Equal(t, []Element{{Kind: ElementParagraph, Children: []Element{text("Hi")}}}, out)
}

func TestRenderHeading(t *testing.T) {
	out, err := defaultRenderer.RenderNode(mustNode(t,
		`{"type":"heading","tag":"h3","children":[{"type":"text","text":"Title","format":0}]}`))
	require.NoError(t, err)

	assert.Equal(t, []Element{{Kind: ElementHeading, Level: 3, Children: []Element{text("Title")}}}, out)
}

func TestRenderHeadingLevels(t *testing.T) {
	testCases := []struct {
		name  string
		tag   string
		kind  ElementKind
		level int
	}{
		{"h1", `"tag":"h1",`, ElementHeading, 1},
		{"h6", `"tag":"h6",`, ElementHeading, 6},
		{"missing tag", ``, ElementHeading, 2},
		{"unparsable tag", `"tag":"hx",`, ElementHeading, 2},
		{"h7 falls back to bold block", `"tag":"h7",`, ElementBoldBlock, 0},
		{"h0 falls back to bold block", `"tag":"h0",`, ElementBoldBlock, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := defaultRenderer.RenderNode(mustNode(t,
				`{"type":"heading",`+tc.tag+`"children":[{"type":"text","text":"T"}]}`))
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tc.kind, out[0].Kind)
			assert.Equal(t, tc.level, out[0].Level)
			assert.Equal(t, "T", out[0].TextContent())
		})
	}
}

func TestRenderOrderedList(t *testing.T) {
	out, err := defaultRenderer.RenderNode(mustNode(t, `{"type":"list","listType":"number","children":[
		{"type":"listitem","children":[{"type":"text","text":"A","format":0}]},
		{"type":"listitem","children":[{"type":"text","text":"B","format":0}]}]}`))
	require.NoError(t, err)

	expected := []Element{{
		Kind:    ElementList,
		Ordered: true,
		Children: []Element{
			{Kind: ElementListItem, Children: []Element{text("A")}},
			{Kind: ElementListItem, Children: []Element{text("B")}},
		},
	}}
	assert.Equal(t, expected, out)
}

func TestRenderUnorderedList(t *testing.T) {
	for _, listType := range []string{`"listType":"bullet",`, `"listType":"check",`, ``} {
		out, err := defaultRenderer.RenderNode(mustNode(t,
			`{"type":"list",`+listType+`"children":[{"type":"listitem","children":[]}]}`))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.False(t, out[0].Ordered, listType)
		assert.Equal(t, []Element{{Kind: ElementListItem, Children: []Element{}}}, out[0].Children)
	}
}

func TestRenderInlineCode(t *testing.T) {
	out, err := defaultRenderer.RenderNode(mustNode(t, `{"type":"text","text":"code","format":16}`))
	require.NoError(t, err)

	assert.Equal(t, []Element{{Kind: ElementInlineCode, Children: []Element{text("code")}}}, out)
}

func TestRenderFormatOrder(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		chain  []ElementKind
	}{
		{"plain", 0, nil},
		{"bold", FormatBold, []ElementKind{ElementStrong}},
		{"bold italic", FormatBold | FormatItalic, []ElementKind{ElementStrong, ElementEmphasis}},
		{"italic underline", FormatItalic | FormatUnderline, []ElementKind{ElementEmphasis, ElementUnderline}},
		{"all", FormatBold | FormatItalic | FormatUnderline | FormatCode,
			[]ElementKind{ElementStrong, ElementEmphasis, ElementUnderline, ElementInlineCode}},
		{"reserved bits ignored", 4 | 32 | 64, nil},
		{"reserved bits with underline", 4 | FormatUnderline, []ElementKind{ElementUnderline}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := defaultRenderer.RenderNode(NewText("x", tc.format))
			require.NoError(t, err)
			require.Len(t, out, 1)

			el := out[0]
			for _, kind := range tc.chain {
				assert.Equal(t, kind, el.Kind)
				require.Len(t, el.Children, 1)
				el = el.Children[0]
			}
			assert.Equal(t, text("x"), el)
		})
	}
}

func TestRenderQuoteLinkCode(t *testing.T) {
	doc := NewDocument(
		NewBlock(KindQuote, NewText("wise", 0)),
		&Block{Kind: KindParagraph, Children: []Node{
			&Block{Kind: KindLink, URL: "https://go.dev", Children: []Node{NewText("Go", FormatBold)}},
		}},
		NewBlock(KindCode, NewText("fmt.Println()", FormatBold)),
	)

	out, err := Render(doc)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, Element{Kind: ElementQuote, Children: []Element{text("wise")}}, out[0])

	link := out[1].Children[0]
	assert.Equal(t, ElementLink, link.Kind)
	assert.Equal(t, "https://go.dev", link.Href)
	assert.True(t, link.External)
	assert.Equal(t, ElementStrong, link.Children[0].Kind)

	// code blocks still interpret inline formatting of their children
	assert.Equal(t, ElementCodeBlock, out[2].Kind)
	assert.Equal(t, ElementStrong, out[2].Children[0].Kind)
}

func TestRenderUnknownKindPassesThrough(t *testing.T) {
	out, err := defaultRenderer.RenderNode(mustNode(t,
		`{"type":"widget","children":[{"type":"text","text":"X","format":0}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Element{text("X")}, out)

	// nested unknown kinds flatten into their parent in order
	out, err = defaultRenderer.RenderNode(mustNode(t, `{"type":"paragraph","children":[
		{"type":"text","text":"a"},
		{"type":"mystery","children":[{"type":"text","text":"b"},{"type":"text","text":"c"}]},
		{"type":"linebreak"},
		{"type":"text","text":"d"}]}`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []Element{text("a"), text("b"), text("c"), text("d")}, out[0].Children)
}

func TestRenderPreservesOrder(t *testing.T) {
	var children []Node
	for _, s := range []string{"one", "two", "three", "four"} {
		children = append(children, NewBlock(KindParagraph, NewText(s, 0)))
	}

	out, err := Render(NewDocument(children...))
	require.NoError(t, err)

	var got []string
	for _, el := range out {
		got = append(got, el.TextContent())
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	doc := NewDocument(NewBlock(KindParagraph, NewText("a", FormatBold)))
	before := *doc.Root.Children[0].(*Block)

	_, err := Render(doc)
	require.NoError(t, err)

	assert.Equal(t, before, *doc.Root.Children[0].(*Block))
}

func nested(depth int) *Document {
	var n Node = NewText("deep", 0)
	for i := 0; i < depth; i++ {
		n = NewBlock(KindQuote, n)
	}
	return NewDocument(n)
}

func TestRenderDepthLimit(t *testing.T) {
	r := NewRenderer(Options{MaxDepth: 10})
	assert.Equal(t, 10, r.MaxDepth())

	// nine quotes plus the text leaf occupy exactly ten levels
	out, err := r.Render(nested(9))
	require.NoError(t, err)
	assert.Equal(t, "deep", out[0].TextContent())

	out, err = r.Render(nested(10))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrDocumentTooDeep)
	assert.True(t, folioerrors.IsRender(err))
}

func TestRenderDefaultDepthHandlesRealisticNesting(t *testing.T) {
	out, err := Render(nested(100))
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = Render(nested(DefaultMaxDepth + 5))
	assert.ErrorIs(t, err, ErrDocumentTooDeep)
}

func TestRenderConcurrent(t *testing.T) {
	doc := NewDocument(
		NewBlock(KindHeading, NewText("Title", FormatItalic)),
		NewBlock(KindParagraph, NewText("body", FormatBold|FormatUnderline)),
	)
	doc.Root.Children[0].(*Block).Level = 1

	expected, err := Render(doc)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]Element, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Render(doc)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, expected, got)
	}
}
