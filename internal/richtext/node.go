// Package richtext renders CMS rich-text documents into a presentation tree.
//
// A document is a tree of typed nodes: text leaves carrying a format bitmask
// and containers (paragraphs, headings, lists, quotes, links, code blocks)
// holding ordered children. The Renderer walks the tree once, depth first,
// and produces []Element, which the renderer package turns into HTML,
// Markdown or plain text.
//
// Rendering is lenient. Missing roots, missing children and unknown node
// kinds degrade to empty or pass-through output; the only error is a
// document nested deeper than Options.MaxDepth.
package richtext

import "strings"

// Kind identifies the type of a document node.
type Kind int

const (
	KindUnknown Kind = iota
	KindRoot
	KindText
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindQuote
	KindLink
	KindCode
)

var kindNames = map[string]Kind{
	"root":      KindRoot,
	"text":      KindText,
	"paragraph": KindParagraph,
	"heading":   KindHeading,
	"list":      KindList,
	"listitem":  KindListItem,
	"quote":     KindQuote,
	"link":      KindLink,
	"code":      KindCode,
}

// ParseKind maps the external "type" string of a node to a Kind.
func ParseKind(s string) Kind {
	if k, ok := kindNames[s]; ok {
		return k
	}
	return KindUnknown
}

// String returns the external name of the kind.
func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Format is the inline style bitmask carried by text nodes.
type Format uint32

const (
	FormatBold      Format = 1
	FormatItalic    Format = 2
	FormatUnderline Format = 8
	FormatCode      Format = 16
)

// Has reports whether every bit of f2 is set in f.
func (f Format) Has(f2 Format) bool { return f&f2 == f2 }

// DefaultHeadingLevel is used when a heading tag is missing or unparsable.
const DefaultHeadingLevel = 2

// Node is a document node: either *Text or *Block.
type Node interface {
	NodeKind() Kind
	isNode()
}

// Text is a leaf node.
type Text struct {
	Value  string
	Format Format
}

func (*Text) NodeKind() Kind { return KindText }
func (*Text) isNode()        {}

// Block is a container node. Level, Ordered and URL are only meaningful for
// headings, lists and links respectively.
type Block struct {
	Kind     Kind
	Type     string // external type name, kept for unknown kinds
	Level    int
	Ordered  bool
	URL      string
	Children []Node
}

// NodeKind implements Node.
func (b *Block) NodeKind() Kind { return b.Kind }
func (*Block) isNode()          {}

// Document is a parsed rich-text value as stored by the CMS.
type Document struct {
	Root *Block
}

// HeadingLevel derives a heading level from a tag such as "h3". Missing or
// unparsable tags yield DefaultHeadingLevel; parsable values are returned
// unchanged even when outside 1..6.
func HeadingLevel(tag string) int {
	digits := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(tag)), "h")
	if digits == "" {
		return DefaultHeadingLevel
	}

	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return DefaultHeadingLevel
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return n
		}
	}
	return n
}

// NewText is a convenience constructor used by tests and callers building
// documents by hand.
func NewText(value string, format Format) *Text {
	return &Text{Value: value, Format: format}
}

// NewBlock creates a container of the given kind.
func NewBlock(kind Kind, children ...Node) *Block {
	return &Block{Kind: kind, Type: kind.String(), Children: children}
}

// NewDocument wraps top-level blocks in a root container.
func NewDocument(children ...Node) *Document {
	return &Document{Root: NewBlock(KindRoot, children...)}
}
