package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/folio/internal/renderer"
	"github.com/conneroisu/folio/internal/richtext"
)

// outputFormat is a pflag.Value restricted to a fixed set of names.
type outputFormat struct {
	value   string
	allowed []string
}

func newOutputFormat(value string, allowed ...string) *outputFormat {
	return &outputFormat{value: value, allowed: allowed}
}

func (f *outputFormat) String() string { return f.value }

func (f *outputFormat) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "md" {
		s = "markdown"
	}
	for _, a := range f.allowed {
		if s == a {
			f.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(f.allowed, ", "))
}

func (f *outputFormat) Type() string { return "format" }

var (
	renderFormat = newOutputFormat("html", "html", "markdown", "text", "json", "yaml", "tree")
	renderColor  bool
	renderStdin  io.Reader = os.Stdin
)

var renderCmd = &cobra.Command{
	Use:     "render [file|-]",
	Aliases: []string{"r"},
	Short:   "Render a rich-text document",
	Long: `Render a rich-text document read from a file, or from stdin when the
file is "-" or omitted. The document may be {"root": {...}} as stored by the
CMS, a bare root node, or any single node.

Formats:
  html      sanitized HTML (default)
  markdown  CommonMark
  text      plain text
  json      the rendered element tree as JSON
  yaml      the rendered element tree as YAML
  tree      the rendered element tree pretty-printed

Examples:
  folio render post.json
  folio render -f markdown post.json > post.md
  curl -s $CMS/api/posts/1 | jq .content | folio render -f text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().VarP(renderFormat, "format", "f", "Output format (html|markdown|text|json|yaml|tree)")
	renderCmd.Flags().Bool("sanitize", true, "Sanitize HTML output")
	renderCmd.Flags().Int("max-depth", richtext.DefaultMaxDepth, "Deepest nesting accepted")
	renderCmd.Flags().BoolVar(&renderColor, "color", false, "Colorize tree output")
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args)
	if err != nil {
		return err
	}

	sanitize, _ := cmd.Flags().GetBool("sanitize")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	engine := renderer.NewEngine(renderer.Options{MaxDepth: maxDepth, Sanitize: sanitize})
	out := cmd.OutOrStdout()

	switch renderFormat.value {
	case "yaml", "tree":
		elements, err := engine.Elements(doc)
		if err != nil {
			return err
		}
		if renderFormat.value == "tree" {
			pp.ColoringEnabled = renderColor
			_, err = pp.Fprintln(out, elements)
			return err
		}
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(elements); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return encoder.Close()
	}

	format, err := renderer.ParseFormat(renderFormat.value)
	if err != nil {
		return err
	}
	rendered, err := engine.Render(cmd.Context(), doc, format)
	if err != nil {
		return err
	}
	if _, err := out.Write(rendered); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

func readDocument(args []string) (*richtext.Document, error) {
	if len(args) == 0 || args[0] == "-" {
		return richtext.Decode(renderStdin)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return richtext.Decode(f)
}
