// Package renderer turns the presentation tree produced by package richtext
// into output formats: HTML (as a templ component), Markdown and plain text.
//
// HTML output carries the Tailwind classes used by the site theme. Text is
// escaped with templ.EscapeString and link targets pass through templ.URL, so
// the component is safe to embed even before sanitization.
package renderer

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/richtext"
)

const (
	classProse      = "prose prose-lg max-w-none"
	classParagraph  = "mb-4 leading-relaxed"
	classBoldBlock  = "font-bold mb-4"
	classOrdered    = "list-decimal list-inside mb-4 space-y-1"
	classUnordered  = "list-disc list-inside mb-4 space-y-1"
	classQuote      = "border-l-4 border-highlight pl-4 italic my-4 text-foreground/70"
	classLink       = "text-highlight underline hover:no-underline"
	classCodeBlock  = "bg-foreground/5 p-4 rounded-lg overflow-x-auto mb-4 font-mono text-sm"
	classInlineCode = "px-1.5 py-0.5 bg-foreground/5 rounded font-mono text-sm"
)

var headingClasses = map[int]string{
	1: "text-3xl font-bold mt-8 mb-4",
	2: "text-2xl font-bold mt-8 mb-4",
	3: "text-xl font-semibold mt-6 mb-3",
	4: "text-lg font-semibold mt-4 mb-2",
}

// HeadingClass returns the class list for a heading level.
func HeadingClass(level int) string {
	if c, ok := headingClasses[level]; ok {
		return c
	}
	return classBoldBlock
}

// HTML returns a component that writes elements inside the prose wrapper.
func HTML(elements []richtext.Element) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.open("div", "class", classProse)
		for _, el := range elements {
			hw.element(el)
		}
		hw.close("div")
		return hw.err
	})
}

// htmlWriter keeps the first write error so element code can ignore it.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) write(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// open writes a start tag; attrs are name/value pairs.
func (hw *htmlWriter) open(tag string, attrs ...string) {
	hw.write("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		hw.write(" " + attrs[i] + `="` + templ.EscapeString(attrs[i+1]) + `"`)
	}
	hw.write(">")
}

func (hw *htmlWriter) close(tag string) {
	hw.write("</" + tag + ">")
}

func (hw *htmlWriter) children(el richtext.Element) {
	for _, c := range el.Children {
		hw.element(c)
	}
}

func (hw *htmlWriter) wrapped(el richtext.Element, tag string, attrs ...string) {
	hw.open(tag, attrs...)
	hw.children(el)
	hw.close(tag)
}

func (hw *htmlWriter) element(el richtext.Element) {
	switch el.Kind {
	case richtext.ElementText:
		hw.write(templ.EscapeString(el.Text))
	case richtext.ElementStrong:
		hw.wrapped(el, "strong")
	case richtext.ElementEmphasis:
		hw.wrapped(el, "em")
	case richtext.ElementUnderline:
		hw.wrapped(el, "u")
	case richtext.ElementInlineCode:
		hw.wrapped(el, "code", "class", classInlineCode)
	case richtext.ElementParagraph:
		hw.wrapped(el, "p", "class", classParagraph)
	case richtext.ElementHeading:
		hw.wrapped(el, fmt.Sprintf("h%d", el.Level), "class", HeadingClass(el.Level))
	case richtext.ElementBoldBlock:
		hw.wrapped(el, "div", "class", classBoldBlock)
	case richtext.ElementList:
		if el.Ordered {
			hw.wrapped(el, "ol", "class", classOrdered)
		} else {
			hw.wrapped(el, "ul", "class", classUnordered)
		}
	case richtext.ElementListItem:
		hw.wrapped(el, "li")
	case richtext.ElementQuote:
		hw.wrapped(el, "blockquote", "class", classQuote)
	case richtext.ElementLink:
		attrs := []string{"href", string(templ.URL(el.Href)), "class", classLink}
		if el.External {
			attrs = append(attrs, "target", "_blank", "rel", "noopener noreferrer")
		}
		hw.wrapped(el, "a", attrs...)
	case richtext.ElementCodeBlock:
		hw.open("pre", "class", classCodeBlock)
		hw.wrapped(el, "code")
		hw.close("pre")
	default:
		hw.children(el)
	}
}
