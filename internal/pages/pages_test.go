package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/cms"
	"github.com/conneroisu/folio/internal/i18n"
)

func testSite() *Site {
	return &Site{
		Author:    "Ada Lovelace",
		GitHubURL: "https://github.com/ada",
		Catalog:   i18n.MustLoad(),
		Now:       func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	require.NoError(t, err)
	return doc
}

func samplePosts() []*cms.Post {
	published := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	return []*cms.Post{
		{Title: "Go Tips", Slug: "go-tips", Excerpt: "Small tips", PublishedAt: &published,
			Category:   &cms.Category{Name: "Go", Slug: "go"},
			CoverImage: &cms.Media{URL: "/media/go.png"}},
		{Title: "Life <3", Slug: "life"},
		{Title: "Channels", Slug: "channels", Category: &cms.Category{Name: "Go", Slug: "go"}},
	}
}

func TestPostMeta(t *testing.T) {
	assert.Equal(t, Meta{Title: "Post | Ada"}, PostMeta(nil, "Ada"))
	assert.Equal(t,
		Meta{Title: "Hello | Ada", Description: "Read Hello by Ada"},
		PostMeta(&cms.Post{Title: "Hello"}, "Ada"))
	assert.Equal(t,
		Meta{Title: "Hello | Ada", Description: "An excerpt"},
		PostMeta(&cms.Post{Title: "Hello", Excerpt: "An excerpt"}, "Ada"))
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, ThemeDark, ParseTheme("dark"))
	assert.Equal(t, ThemeLight, ParseTheme("light"))
	assert.Equal(t, Theme(""), ParseTheme("purple"))
}

func TestLayout(t *testing.T) {
	s := testSite()
	doc := render(t, s.Layout(
		Request{Locale: i18n.BrazilianPortuguese, Theme: ThemeDark, Path: "/posts?category=go"},
		Meta{Title: "T", Description: "D"},
		templ.Raw(`<p id="body">hi</p>`)))

	html := doc.Find("html")
	lang, _ := html.Attr("lang")
	theme, _ := html.Attr("data-theme")
	assert.Equal(t, "pt-BR", lang)
	assert.Equal(t, "dark", theme)
	assert.True(t, html.HasClass("dark"))

	assert.Equal(t, "T", doc.Find("title").Text())
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "D", desc)
	assert.Equal(t, "hi", doc.Find("main #body").Text())

	toggle := doc.Find(`header a:contains("EN")`)
	toggleHref, _ := toggle.Attr("href")
	assert.Equal(t, "/posts?category=go&lang=en", toggleHref)
	assert.Contains(t, doc.Find("footer").Text(), "© 2025 Ada Lovelace.")

	assert.NotContains(t, doc.Text(), "WebSocket")
	s.HotReload = true
	live := render(t, s.Layout(Request{Locale: i18n.English}, Meta{}, nil))
	assert.Contains(t, live.Find("body script").Text(), "WebSocket")
	_, hasTheme := live.Find("html").Attr("data-theme")
	assert.False(t, hasTheme)
}

func TestHome(t *testing.T) {
	doc := render(t, testSite().Home(Request{Locale: i18n.English, Path: "/"}, samplePosts()))

	assert.Equal(t, "Ada Lovelace", doc.Find("title").Text())
	assert.Equal(t, "Hi, I'm", doc.Find("section p").First().Text())
	assert.Equal(t, 3, doc.Find("#posts article").Length())

	card := doc.Find("#posts article").First()
	cardHref, _ := card.Find("a").Attr("href")
	assert.Equal(t, "/posts/go-tips", cardHref)
	alt, _ := card.Find("img").Attr("alt")
	assert.Equal(t, "Go Tips", alt)
	assert.Equal(t, "Mar 5, 2024", card.Find("time").Text())
	assert.Equal(t, "Life <3", doc.Find("#posts article h3").Eq(1).Text())
}

func TestHomeEmpty(t *testing.T) {
	doc := render(t, testSite().Home(Request{Locale: i18n.BrazilianPortuguese}, nil))
	assert.Equal(t, "Nenhum post ainda.", doc.Find("#posts p").Text())
}

func TestPostList(t *testing.T) {
	posts := samplePosts()
	doc := render(t, testSite().PostList(Request{Locale: i18n.English}, posts, Categories(posts), "go"))

	filters := doc.Find("main header nav a")
	require.Equal(t, 2, filters.Length())
	assert.Equal(t, "All", filters.Eq(0).Text())
	assert.True(t, filters.Eq(1).HasClass("bg-highlight"))
	goHref, _ := filters.Eq(1).Attr("href")
	assert.Equal(t, "/posts?category=go", goHref)

	groups := doc.Find("main section h2")
	require.Equal(t, 2, groups.Length())
	assert.Equal(t, "Go", groups.Eq(0).Text())
	assert.Equal(t, "Uncategorized", groups.Eq(1).Text())
	assert.Equal(t, 2, doc.Find("main section").First().Find("article").Length())
}

func TestPostPage(t *testing.T) {
	post := samplePosts()[0]
	doc := render(t, testSite().PostPage(Request{Locale: i18n.BrazilianPortuguese}, post,
		templ.Raw(`<div class="prose"><p>Body</p></div>`), 4))

	assert.Equal(t, "Go Tips | Ada Lovelace", doc.Find("title").Text())
	assert.Equal(t, "Go Tips", doc.Find("article h1").Text())
	assert.Equal(t, "5 de março de 2024", doc.Find("article time").Text())
	assert.Equal(t, "GO", strings.ToUpper(doc.Find("article header span").Text()))
	assert.Equal(t, "4 min de leitura", doc.Find("[data-reading-time]").Text())
	assert.Equal(t, "Body", doc.Find(".prose p").Text())
	assert.Equal(t, "← Voltar para os posts", doc.Find("article header a").First().Text())
}

func TestNotFound(t *testing.T) {
	doc := render(t, testSite().NotFound(Request{Locale: i18n.English}))
	assert.Equal(t, "Post | Ada Lovelace", doc.Find("title").Text())
	assert.Equal(t, "Post not found", doc.Find("main h1").Text())
}
