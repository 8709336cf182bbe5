//go:build property

package richtext

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomTree builds a document from a seed so gopter can shrink on the seed.
func randomTree(seed int64, maxDepth int) *Document {
	rng := rand.New(rand.NewSource(seed))
	kinds := []Kind{KindParagraph, KindHeading, KindList, KindListItem, KindQuote, KindLink, KindCode, KindUnknown}

	var build func(depth int) Node
	build = func(depth int) Node {
		if depth >= maxDepth || rng.Intn(3) == 0 {
			return NewText(string(rune('a'+rng.Intn(26))), Format(rng.Intn(64)))
		}
		b := &Block{Kind: kinds[rng.Intn(len(kinds))], Level: rng.Intn(9), Ordered: rng.Intn(2) == 0, URL: "https://example.com"}
		for i := rng.Intn(4); i > 0; i-- {
			b.Children = append(b.Children, build(depth+1))
		}
		return b
	}

	doc := NewDocument()
	for i := rng.Intn(5); i > 0; i-- {
		doc.Root.Children = append(doc.Root.Children, build(1))
	}
	return doc
}

// leafText collects text in document order.
func leafText(n Node) string {
	switch n := n.(type) {
	case *Text:
		return n.Value
	case *Block:
		s := ""
		for _, c := range n.Children {
			s += leafText(c)
		}
		return s
	}
	return ""
}

func TestRendererProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("format wrappers nest bold, italic, underline, code", prop.ForAll(
		func(format uint32) bool {
			out, err := defaultRenderer.RenderNode(NewText("x", Format(format)))
			if err != nil || len(out) != 1 {
				return false
			}

			var want []ElementKind
			for _, s := range inlineStyles {
				if Format(format).Has(s.bit) {
					want = append(want, s.kind)
				}
			}

			el := out[0]
			for _, kind := range want {
				if el.Kind != kind || len(el.Children) != 1 {
					return false
				}
				el = el.Children[0]
			}
			return el.Kind == ElementText && el.Text == "x"
		},
		gen.UInt32(),
	))

	properties.Property("child order is preserved", prop.ForAll(
		func(values []string) bool {
			var children []Node
			for _, v := range values {
				children = append(children, NewBlock(KindParagraph, NewText(v, 0)))
			}
			out, err := Render(NewDocument(children...))
			if err != nil || len(out) != len(values) {
				return false
			}
			for i, v := range values {
				if out[i].TextContent() != v {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("rendering is idempotent", prop.ForAll(
		func(seed int64) bool {
			doc := randomTree(seed, 6)
			first, err1 := Render(doc)
			second, err2 := Render(doc)
			return err1 == nil && err2 == nil && reflect.DeepEqual(first, second)
		},
		gen.Int64(),
	))

	properties.Property("rendering keeps every text leaf in order", prop.ForAll(
		func(seed int64) bool {
			doc := randomTree(seed, 6)
			out, err := Render(doc)
			if err != nil {
				return false
			}
			got := ""
			for _, el := range out {
				got += el.TextContent()
			}
			return got == leafText(doc.Root)
		},
		gen.Int64(),
	))

	properties.Property("unknown kinds contribute only their children", prop.ForAll(
		func(values []string) bool {
			var children []Node
			for _, v := range values {
				children = append(children, NewText(v, 0))
			}
			wrapped, err1 := defaultRenderer.RenderNode(NewBlock(KindUnknown, children...))
			direct, err2 := Render(NewDocument(children...))
			return err1 == nil && err2 == nil && reflect.DeepEqual(wrapped, direct)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("depth limit is exact", prop.ForAll(
		func(limit, depth int) bool {
			_, err := NewRenderer(Options{MaxDepth: limit}).Render(nested(depth))
			// depth quotes plus the text leaf
			return (err == nil) == (depth+1 <= limit)
		},
		gen.IntRange(1, 40),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
