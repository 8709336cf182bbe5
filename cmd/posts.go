package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/folio/internal/cms"
	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/renderer"
)

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"p"},
	Short:   "Inspect posts",
	Long: `Inspect the posts folio would serve, from the CMS or the content
directory depending on configuration.`,
}

var postsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List published posts",
	Example: `  folio posts list
  folio posts list --category go -o json
  folio posts list --lang pt-BR`,
	Args: cobra.NoArgs,
	RunE: runPostsList,
}

var postsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a post with its rendered content",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsShow,
}

var postsSlugCmd = &cobra.Command{
	Use:   "slug <title>",
	Short: "Print the slug derived from a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cms.Slugify(args[0]))
		return err
	},
}

var (
	postsOutput = newOutputFormat("table", "table", "json", "yaml")
	showFormat  = newOutputFormat("text", "text", "markdown", "html")
	timeNow     = time.Now
)

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd, postsShowCmd, postsSlugCmd)

	postsCmd.PersistentFlags().String("content", "", "Directory of post JSON files (overrides content.dir)")
	postsCmd.PersistentFlags().String("cms-url", "", "Base URL of the CMS (overrides cms.url)")
	postsCmd.PersistentFlags().Bool("drafts", false, "Include drafts from the content directory")
	postsCmd.PersistentFlags().String("lang", "", "Locale to read posts in")

	postsListCmd.Flags().VarP(postsOutput, "output", "o", "Output format (table|json|yaml)")
	postsListCmd.Flags().String("category", "", "Only posts in this category slug")
	postsListCmd.Flags().Int("limit", cms.DefaultLimit, "Posts per page")
	postsListCmd.Flags().Int("page", 1, "Page number")

	postsShowCmd.Flags().VarP(showFormat, "format", "f", "Content format (text|markdown|html)")
}

// postsSource loads the configuration, applies the posts flags on top and
// opens the post source it names.
func postsSource(cmd *cobra.Command) (cms.Source, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("content") {
		cfg.Content.Dir, _ = flags.GetString("content")
		cfg.CMS.URL = ""
	}
	if flags.Changed("cms-url") {
		cfg.CMS.URL, _ = flags.GetString("cms-url")
	}
	if flags.Changed("drafts") {
		cfg.Content.Drafts, _ = flags.GetBool("drafts")
	}

	source, _, err := newSource(cfg, newLogger(cfg))
	if err != nil {
		return nil, nil, err
	}
	return source, cfg, nil
}

func runPostsList(cmd *cobra.Command, args []string) error {
	source, _, err := postsSource(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	q := cms.Query{}
	q.Locale, _ = flags.GetString("lang")
	q.Category, _ = flags.GetString("category")
	q.Limit, _ = flags.GetInt("limit")
	q.Page, _ = flags.GetInt("page")

	page, err := source.Posts(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch postsOutput.value {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(page)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(page); err != nil {
			return err
		}
		return encoder.Close()
	}
	return outputPostsTable(out, page)
}

func outputPostsTable(out io.Writer, page *cms.PostPage) error {
	if len(page.Docs) == 0 {
		_, err := fmt.Fprintln(out, "No posts found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tTITLE\tCATEGORY\tPUBLISHED")
	for _, p := range page.Docs {
		category := "-"
		if p.Category != nil {
			category = p.Category.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Slug, p.Title, category, published(p))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nPage %d of %d, %s posts\n",
		page.Page, page.TotalPages, humanize.Comma(int64(page.TotalDocs)))
	return err
}

func published(p *cms.Post) string {
	if p.PublishedAt == nil {
		return "-"
	}
	return humanize.RelTime(*p.PublishedAt, timeNow(), "ago", "from now")
}

func runPostsShow(cmd *cobra.Command, args []string) error {
	source, cfg, err := postsSource(cmd)
	if err != nil {
		return err
	}

	lang, _ := cmd.Flags().GetString("lang")
	post, err := source.Post(cmd.Context(), args[0], lang)
	if err != nil {
		return err
	}

	format, err := renderer.ParseFormat(showFormat.value)
	if err != nil {
		return err
	}
	engine := renderer.NewEngine(renderer.Options{
		MaxDepth: cfg.Render.MaxDepth,
		Sanitize: cfg.Render.Sanitize,
	})
	elements, err := engine.Elements(post.Content)
	if err != nil {
		return err
	}
	body, err := engine.Render(cmd.Context(), post.Content, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, post.Title)
	if post.Category != nil {
		fmt.Fprintf(out, "Category: %s\n", post.Category.Name)
	}
	if post.PublishedAt != nil {
		fmt.Fprintf(out, "Published: %s (%s)\n", post.PublishedAt.Format("2006-01-02"), published(post))
	}
	fmt.Fprintf(out, "Reading time: %d min\n", renderer.ReadingTime(elements))
	if post.Excerpt != "" {
		fmt.Fprintf(out, "\n%s\n", post.Excerpt)
	}
	_, err = fmt.Fprintf(out, "\n%s\n", body)
	return err
}
