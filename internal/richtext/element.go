package richtext

// ElementKind identifies a presentation element.
type ElementKind int

const (
	ElementText ElementKind = iota
	ElementStrong
	ElementEmphasis
	ElementUnderline
	ElementInlineCode
	ElementParagraph
	ElementHeading
	ElementBoldBlock
	ElementList
	ElementListItem
	ElementQuote
	ElementLink
	ElementCodeBlock
)

var elementNames = [...]string{
	ElementText:       "text",
	ElementStrong:     "strong",
	ElementEmphasis:   "emphasis",
	ElementUnderline:  "underline",
	ElementInlineCode: "inline_code",
	ElementParagraph:  "paragraph",
	ElementHeading:    "heading",
	ElementBoldBlock:  "bold_block",
	ElementList:       "list",
	ElementListItem:   "list_item",
	ElementQuote:      "quote",
	ElementLink:       "link",
	ElementCodeBlock:  "code_block",
}

func (k ElementKind) String() string {
	if k >= 0 && int(k) < len(elementNames) {
		return elementNames[k]
	}
	return "unknown"
}

// MarshalText lets element kinds appear by name in JSON and YAML output.
func (k ElementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsBlock reports whether the element starts a new block in flowing output.
func (k ElementKind) IsBlock() bool {
	switch k {
	case ElementParagraph, ElementHeading, ElementBoldBlock, ElementList,
		ElementListItem, ElementQuote, ElementCodeBlock:
		return true
	}
	return false
}

// Element is one node of the presentation tree.
type Element struct {
	Kind     ElementKind `json:"kind" yaml:"kind"`
	Text     string      `json:"text,omitempty" yaml:"text,omitempty"`
	Level    int         `json:"level,omitempty" yaml:"level,omitempty"`
	Ordered  bool        `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Href     string      `json:"href,omitempty" yaml:"href,omitempty"`
	External bool        `json:"external,omitempty" yaml:"external,omitempty"`
	Children []Element   `json:"children,omitempty" yaml:"children,omitempty"`
}

// TextContent concatenates the text of e and its descendants.
func (e Element) TextContent() string {
	if e.Kind == ElementText {
		return e.Text
	}
	var out []byte
	for _, c := range e.Children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}
