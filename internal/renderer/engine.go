package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/a-h/templ"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/richtext"
)

// Format is an output format for rendered documents.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the formats Engine.Render accepts.
var Formats = []Format{FormatHTML, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat resolves a format name. The empty string means HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "plain":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", folioerrors.NewValidationError(folioerrors.ErrCodeUnknownFormat,
		fmt.Sprintf("unknown format %q", s))
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// Options configures an Engine.
type Options struct {
	MaxDepth int
	Sanitize bool
}

// Engine renders documents to any Format.
type Engine struct {
	renderer  *richtext.Renderer
	sanitizer *Sanitizer
	markdown  *converter.Converter
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		renderer: richtext.NewRenderer(richtext.Options{MaxDepth: opts.MaxDepth}),
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
	if opts.Sanitize {
		e.sanitizer = NewSanitizer()
	}
	return e
}

// Elements renders doc to its presentation tree.
func (e *Engine) Elements(doc *richtext.Document) ([]richtext.Element, error) {
	return e.renderer.Render(doc)
}

// HTML renders elements to an HTML string, sanitized when enabled.
func (e *Engine) HTML(ctx context.Context, elements []richtext.Element) (string, error) {
	var buf bytes.Buffer
	if err := HTML(elements).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	if e.sanitizer != nil {
		return e.sanitizer.Sanitize(buf.String()), nil
	}
	return buf.String(), nil
}

// Component renders doc and returns it as a component for page templates.
func (e *Engine) Component(ctx context.Context, doc *richtext.Document) (templ.Component, error) {
	elements, err := e.Elements(doc)
	if err != nil {
		return nil, err
	}
	html, err := e.HTML(ctx, elements)
	if err != nil {
		return nil, err
	}
	return templ.Raw(html), nil
}

// Markdown converts elements to CommonMark.
func (e *Engine) Markdown(ctx context.Context, elements []richtext.Element) (string, error) {
	html, err := e.HTML(ctx, elements)
	if err != nil {
		return "", err
	}
	md, err := e.markdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return md, nil
}

// Render renders doc in the requested format.
func (e *Engine) Render(ctx context.Context, doc *richtext.Document, format Format) ([]byte, error) {
	elements, err := e.Elements(doc)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatHTML:
		html, err := e.HTML(ctx, elements)
		return []byte(html), err
	case FormatMarkdown:
		md, err := e.Markdown(ctx, elements)
		return []byte(md), err
	case FormatText:
		return []byte(PlainText(elements)), nil
	case FormatJSON:
		return json.Marshal(elements)
	}
	return nil, folioerrors.NewValidationError(folioerrors.ErrCodeUnknownFormat,
		fmt.Sprintf("unknown format %q", format))
}
