package richtext

import (
	folioerrors "github.com/conneroisu/folio/internal/errors"
)

// DefaultMaxDepth bounds container nesting for renderers built with zero
// Options.
const DefaultMaxDepth = 256

// ErrDocumentTooDeep is returned when a document nests containers deeper
// than the renderer's MaxDepth.
var ErrDocumentTooDeep = folioerrors.NewRenderError(
	folioerrors.ErrCodeDocumentTooDeep,
	"document too deeply nested",
)

// inlineStyles lists the text styles from outermost to innermost wrapper.
// The order is fixed so combined formats always nest the same way.
var inlineStyles = [...]struct {
	bit  Format
	kind ElementKind
}{
	{FormatBold, ElementStrong},
	{FormatItalic, ElementEmphasis},
	{FormatUnderline, ElementUnderline},
	{FormatCode, ElementInlineCode},
}

// Options configures a Renderer.
type Options struct {
	// MaxDepth is the deepest container nesting accepted; 0 means
	// DefaultMaxDepth.
	MaxDepth int
}

// Renderer converts documents to presentation elements. It holds no state
// between calls and is safe for concurrent use.
type Renderer struct {
	maxDepth int
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Renderer{maxDepth: opts.MaxDepth}
}

var defaultRenderer = NewRenderer(Options{})

// Render renders doc with the default options.
func Render(doc *Document) ([]Element, error) {
	return defaultRenderer.Render(doc)
}

// MaxDepth returns the nesting limit of the renderer.
func (r *Renderer) MaxDepth() int { return r.maxDepth }

// Render renders the top-level blocks of doc. A nil document, a nil root and
// a root without children all yield an empty result.
func (r *Renderer) Render(doc *Document) ([]Element, error) {
	if doc == nil || doc.Root == nil {
		return []Element{}, nil
	}
	return r.renderChildren(doc.Root.Children, 1)
}

// RenderNode renders a single node and its subtree.
func (r *Renderer) RenderNode(n Node) ([]Element, error) {
	if n == nil {
		return []Element{}, nil
	}
	out := make([]Element, 0, 1)
	return r.render(out, n, 1)
}

func (r *Renderer) renderChildren(children []Node, depth int) ([]Element, error) {
	out := make([]Element, 0, len(children))
	var err error
	for _, c := range children {
		if c == nil {
			continue
		}
		if out, err = r.render(out, c, depth); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// render appends the elements produced by n to out.
func (r *Renderer) render(out []Element, n Node, depth int) ([]Element, error) {
	if depth > r.maxDepth {
		return nil, ErrDocumentTooDeep.WithContext("max_depth", r.maxDepth)
	}

	switch n := n.(type) {
	case *Text:
		return append(out, styledText(n)), nil
	case *Block:
		children, err := r.renderChildren(n.Children, depth+1)
		if err != nil {
			return nil, err
		}
		return append(out, wrap(n, children)...), nil
	}
	return out, nil
}

// styledText wraps the text value once per set style bit, bold outermost
// and inline code innermost.
func styledText(t *Text) Element {
	el := Element{Kind: ElementText, Text: t.Value}
	for i := len(inlineStyles) - 1; i >= 0; i-- {
		s := inlineStyles[i]
		if t.Format.Has(s.bit) {
			el = Element{Kind: s.kind, Children: []Element{el}}
		}
	}
	return el
}

// wrap builds the element for a container from its rendered children.
// Root and unknown kinds contribute their children directly.
func wrap(b *Block, children []Element) []Element {
	switch b.Kind {
	case KindParagraph:
		return []Element{{Kind: ElementParagraph, Children: children}}
	case KindHeading:
		if b.Level < 1 || b.Level > 6 {
			return []Element{{Kind: ElementBoldBlock, Children: children}}
		}
		return []Element{{Kind: ElementHeading, Level: b.Level, Children: children}}
	case KindList:
		return []Element{{Kind: ElementList, Ordered: b.Ordered, Children: children}}
	case KindListItem:
		return []Element{{Kind: ElementListItem, Children: children}}
	case KindQuote:
		return []Element{{Kind: ElementQuote, Children: children}}
	case KindLink:
		return []Element{{Kind: ElementLink, Href: b.URL, External: true, Children: children}}
	case KindCode:
		return []Element{{Kind: ElementCodeBlock, Children: children}}
	case KindRoot, KindText, KindUnknown:
		return children
	}
	return children
}
