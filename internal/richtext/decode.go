package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	folioerrors "github.com/conneroisu/folio/internal/errors"
)

// ErrDecode is returned when a document is not valid JSON.
var ErrDecode = folioerrors.NewValidationError(folioerrors.ErrCodeDecodeFailed, "invalid rich-text document")

// rawNode is the wire shape of a node. Every field is optional.
type rawNode struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Format   json.RawMessage `json:"format"`
	Tag      string          `json:"tag"`
	ListType string          `json:"listType"`
	URL      string          `json:"url"`
	Fields   *struct {
		URL string `json:"url"`
	} `json:"fields"`
	Children []*rawNode `json:"children"`
}

type rawDocument struct {
	Root *rawNode `json:"root"`
}

// UnmarshalJSON accepts either {"root": {...}} or a bare root node.
func (d *Document) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.Root = nil
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	var root *rawNode
	if _, ok := probe["root"]; ok {
		var doc rawDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		root = doc.Root
	} else {
		root = new(rawNode)
		if err := json.Unmarshal(data, root); err != nil {
			return err
		}
	}

	d.Root = nil
	if root == nil {
		return nil
	}

	// An untyped or "root" node is the root itself; any other bare node is a
	// single top-level block under a synthetic root.
	n := convert(root)
	if b, ok := n.(*Block); ok && (root.Type == "" || b.Kind == KindRoot) {
		b.Kind = KindRoot
		d.Root = b
		return nil
	}
	d.Root = NewBlock(KindRoot, n)
	return nil
}

// MarshalJSON writes the document back in the CMS wire format.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Root == nil {
		return []byte(`{"root":null}`), nil
	}
	return json.Marshal(map[string]interface{}{"root": toWire(d.Root)})
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a document from JSON.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrDecode.WithCause(err)
	}
	return &doc, nil
}

// UnmarshalNode parses a single node, for example
// {"type":"paragraph","children":[...]}.
func UnmarshalNode(data []byte) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrDecode.WithCause(err)
	}
	return convert(&raw), nil
}

func convert(raw *rawNode) Node {
	kind := ParseKind(raw.Type)
	if kind == KindText {
		return &Text{Value: raw.Text, Format: parseFormat(raw.Format)}
	}

	b := &Block{Kind: kind, Type: raw.Type}
	switch kind {
	case KindHeading:
		b.Level = HeadingLevel(raw.Tag)
	case KindList:
		b.Ordered = raw.ListType == "number"
	case KindLink:
		b.URL = raw.URL
		if b.URL == "" && raw.Fields != nil {
			b.URL = raw.Fields.URL
		}
	}

	if len(raw.Children) > 0 {
		b.Children = make([]Node, 0, len(raw.Children))
		for _, c := range raw.Children {
			if c == nil {
				continue
			}
			b.Children = append(b.Children, convert(c))
		}
	}
	return b
}

// parseFormat reads the text format bitmask. Block nodes written by Lexical
// carry a string alignment in the same field, so anything that is not a
// non-negative whole number counts as no formatting. Whole floats such as
// 1.0 are accepted.
func parseFormat(raw json.RawMessage) Format {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		if v < 0 || v > math.MaxUint32 {
			return 0
		}
		return Format(v)
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0
	}
	return Format(f)
}

func toWire(n Node) map[string]interface{} {
	switch n := n.(type) {
	case *Text:
		return map[string]interface{}{"type": "text", "text": n.Value, "format": uint32(n.Format)}
	case *Block:
		name := n.Type
		if name == "" {
			name = n.Kind.String()
		}
		m := map[string]interface{}{"type": name}
		switch n.Kind {
		case KindHeading:
			m["tag"] = fmt.Sprintf("h%d", n.Level)
		case KindList:
			if n.Ordered {
				m["listType"] = "number"
			} else {
				m["listType"] = "bullet"
			}
		case KindLink:
			m["url"] = n.URL
		}
		children := make([]interface{}, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, toWire(c))
		}
		m["children"] = children
		return m
	}
	return nil
}
