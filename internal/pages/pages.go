// Package pages renders the site's HTML pages as templ components.
//
// Pages are built from a Site (author, copy catalog, dev settings) and a
// Request describing the visitor (locale, theme, path). Post bodies arrive
// already rendered as components so this package never sees rich text.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/cms"
	"github.com/conneroisu/folio/internal/i18n"
)

// HomePostLimit is the number of posts on the home page.
const HomePostLimit = 6

// Theme is the colour scheme chosen by the visitor.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme stored in a cookie value, or "" when unset
// or invalid so the browser preference applies.
func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s)
	}
	return ""
}

// Site holds everything pages need that does not vary per request.
type Site struct {
	Author      string
	BaseURL     string
	GitHubURL   string
	LinkedInURL string
	Catalog     *i18n.Catalog
	HotReload   bool
	Now         func() time.Time
}

// Request describes the visitor.
type Request struct {
	Locale i18n.Locale
	Theme  Theme
	Path   string
}

// Meta is the document title and description.
type Meta struct {
	Title       string
	Description string
}

// PostMeta builds metadata for a post page. A nil post yields the generic
// fallback title.
func PostMeta(post *cms.Post, author string) Meta {
	if post == nil {
		return Meta{Title: "Post | " + author}
	}
	desc := post.Excerpt
	if desc == "" {
		desc = "Read " + post.Title + " by " + author
	}
	return Meta{Title: post.Title + " | " + author, Description: desc}
}

func (s *Site) t(r Request, key string) string {
	return s.Catalog.T(r.Locale, key)
}

func (s *Site) year() int {
	if s.Now != nil {
		return s.Now().Year()
	}
	return time.Now().Year()
}

// localeSwitch returns the other locale, as offered by the header toggle.
func localeSwitch(l i18n.Locale) (i18n.Locale, string) {
	if l == i18n.BrazilianPortuguese {
		return i18n.English, "EN"
	}
	return i18n.BrazilianPortuguese, "PT"
}

// Layout wraps body in the document shell with header and footer.
func (s *Site) Layout(r Request, meta Meta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		m.raw("<!DOCTYPE html>")

		htmlAttrs := []string{"lang", string(r.Locale)}
		if r.Theme != "" {
			htmlAttrs = append(htmlAttrs, "data-theme", string(r.Theme))
		}
		if r.Theme == ThemeDark {
			htmlAttrs = append(htmlAttrs, "class", "dark")
		}
		m.open("html", htmlAttrs...)

		m.open("head")
		m.open("meta", "charset", "utf-8")
		m.open("meta", "name", "viewport", "content", "width=device-width, initial-scale=1")
		m.elem("title", meta.Title)
		if meta.Description != "" {
			m.open("meta", "name", "description", "content", meta.Description)
		}
		if r.Theme == "" {
			m.raw(themeScript)
		}
		m.close("head")

		m.open("body", "class", "antialiased bg-background text-foreground")
		s.header(m, r)
		m.open("main")
		m.component(body)
		m.close("main")
		s.footer(m)
		m.raw(themeToggleScript)
		if s.HotReload {
			m.raw(LiveReloadScript)
		}
		m.close("body")
		m.close("html")
		return m.err
	})
}

func (s *Site) header(m *markup, r Request) {
	navLink := "text-sm font-medium text-foreground/70 hover:text-foreground transition-colors"

	m.open("header", "class", "fixed top-0 left-0 right-0 z-50 bg-background/80 backdrop-blur-md border-b border-foreground/5")
	m.open("div", "class", "max-w-5xl mx-auto px-6 h-16 flex items-center justify-between")
	m.elem("a", s.Author, "href", "/", "class", "font-semibold text-lg tracking-tight hover:text-highlight transition-colors")

	m.open("nav", "class", "flex items-center gap-6")
	m.elem("a", s.t(r, "nav.posts"), "href", "/posts", "class", navLink)
	m.elem("a", s.t(r, "nav.cv"), "href", href(cvURL(r.Locale)),
		"target", "_blank", "rel", "noopener noreferrer", "class", navLink)

	m.open("div", "class", "flex items-center gap-2 pl-3 border-l border-foreground/10")
	m.elem("button", "◐", "type", "button", "data-theme-toggle", "",
		"aria-label", s.t(r, "theme.toggle"),
		"class", "w-9 h-9 flex items-center justify-center rounded-full text-foreground/60 hover:text-foreground hover:bg-foreground/5 transition-colors")
	next, label := localeSwitch(r.Locale)
	m.elem("a", label, "href", href(withLang(r.Path, next)),
		"class", "px-2 h-9 flex items-center justify-center rounded-full text-sm font-mono font-medium text-foreground/60 hover:text-foreground uppercase")
	m.close("div")

	m.close("nav")
	m.close("div")
	m.close("header")
}

func cvURL(l i18n.Locale) string {
	if l == i18n.BrazilianPortuguese {
		return "/assets/cvs/cv-pt.pdf"
	}
	return "/assets/cvs/cv-en.pdf"
}

// withLang returns path with the lang query parameter set.
func withLang(path string, l i18n.Locale) string {
	u, err := url.Parse(path)
	if err != nil || path == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("lang", string(l))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Site) footer(m *markup) {
	m.open("footer", "class", "border-t border-foreground/5 py-8")
	m.open("div", "class", "max-w-5xl mx-auto px-6 flex flex-col md:flex-row items-center justify-between gap-4 text-sm text-foreground/50")
	m.elem("p", fmt.Sprintf("© %d %s.", s.year(), s.Author))
	m.open("div", "class", "flex items-center gap-4")
	if s.GitHubURL != "" {
		m.elem("a", "GitHub", "href", href(s.GitHubURL), "target", "_blank", "rel", "noopener noreferrer")
	}
	if s.LinkedInURL != "" {
		m.elem("a", "LinkedIn", "href", href(s.LinkedInURL), "target", "_blank", "rel", "noopener noreferrer")
	}
	m.close("div")
	m.close("div")
	m.close("footer")
}

// Home renders the hero and the latest posts.
func (s *Site) Home(r Request, posts []*cms.Post) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)

		m.open("section", "class", "min-h-[80vh] flex items-center py-24")
		m.open("div", "class", "max-w-5xl mx-auto px-6 w-full space-y-6")
		m.elem("p", s.t(r, "hero.greeting"), "class", "text-sm font-mono text-highlight tracking-wider uppercase")
		m.elem("h1", s.Author, "class", "text-5xl md:text-6xl font-bold tracking-tight")
		m.elem("p", s.t(r, "hero.role"), "class", "text-xl text-foreground/60 font-medium")
		m.elem("p", s.t(r, "hero.description"), "class", "text-foreground/70 leading-relaxed text-lg")
		m.elem("a", s.t(r, "hero.cta")+" ↓", "href", "#posts",
			"class", "inline-flex items-center gap-2 px-6 py-3 bg-highlight text-black font-medium rounded-full")
		m.close("div")
		m.close("section")

		m.open("section", "id", "posts", "class", "py-24 border-t border-foreground/5")
		m.open("div", "class", "max-w-5xl mx-auto px-6")
		m.elem("h2", s.t(r, "posts.title"), "class", "text-3xl font-bold mb-12")
		s.postGrid(m, r, posts)
		m.close("div")
		m.close("section")
		return m.err
	})
	return s.Layout(r, Meta{Title: s.Author, Description: s.t(r, "hero.description")}, body)
}

// PostList renders the listing grouped by category. selected is the active
// category slug, "" for all.
func (s *Site) PostList(r Request, posts []*cms.Post, categories []cms.Category, selected string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		m.open("div", "class", "min-h-screen py-24")
		m.open("div", "class", "max-w-5xl mx-auto px-6")

		m.open("header", "class", "mb-12")
		m.elem("h1", s.t(r, "posts.title"), "class", "text-4xl font-bold mb-6")
		m.open("nav", "class", "flex flex-wrap gap-2", "aria-label", s.t(r, "posts.categories"))
		m.elem("a", s.t(r, "posts.all"), "href", "/posts", "class", filterClass(selected == ""))
		for _, c := range categories {
			m.elem("a", c.Name, "href", href("/posts?category="+url.QueryEscape(c.Slug)),
				"class", filterClass(selected == c.Slug))
		}
		m.close("nav")
		m.close("header")

		if len(posts) == 0 {
			m.elem("p", s.t(r, "posts.empty"), "class", "text-center text-foreground/50 py-12")
		} else {
			m.open("div", "class", "space-y-16")
			for _, g := range groupByCategory(posts, s.t(r, "posts.uncategorized")) {
				m.open("section")
				m.elem("h2", g.name, "class", "text-lg font-mono font-medium text-highlight mb-6 uppercase tracking-wider")
				s.postGrid(m, r, g.posts)
				m.close("section")
			}
			m.close("div")
		}

		m.close("div")
		m.close("div")
		return m.err
	})
	return s.Layout(r, Meta{Title: s.t(r, "posts.title") + " | " + s.Author}, body)
}

func filterClass(active bool) string {
	if active {
		return "px-4 py-2 text-sm font-medium rounded-full bg-highlight text-black"
	}
	return "px-4 py-2 text-sm font-medium rounded-full bg-foreground/5 text-foreground/70 hover:bg-foreground/10"
}

type postGroup struct {
	name  string
	posts []*cms.Post
}

// groupByCategory keeps groups in order of first appearance.
func groupByCategory(posts []*cms.Post, uncategorized string) []postGroup {
	var groups []postGroup
	index := make(map[string]int)
	for _, p := range posts {
		name := uncategorized
		if p.Category != nil && p.Category.Name != "" {
			name = p.Category.Name
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, postGroup{name: name})
		}
		groups[i].posts = append(groups[i].posts, p)
	}
	return groups
}

// Categories returns the distinct categories of posts in first-seen order.
func Categories(posts []*cms.Post) []cms.Category {
	var out []cms.Category
	seen := make(map[string]bool)
	for _, p := range posts {
		if p.Category == nil || p.Category.Slug == "" || seen[p.Category.Slug] {
			continue
		}
		seen[p.Category.Slug] = true
		out = append(out, *p.Category)
	}
	return out
}

func (s *Site) postGrid(m *markup, r Request, posts []*cms.Post) {
	if len(posts) == 0 {
		m.elem("p", s.t(r, "posts.empty"), "class", "text-center text-foreground/50 py-12")
		return
	}
	m.open("div", "class", "grid gap-8 md:grid-cols-2 lg:grid-cols-3")
	for _, p := range posts {
		s.postCard(m, r, p)
	}
	m.close("div")
}

func (s *Site) postCard(m *markup, r Request, p *cms.Post) {
	m.open("article", "class", "group")
	m.open("a", "href", href("/posts/"+url.PathEscape(p.Slug)), "class", "block")
	if p.CoverImage != nil && p.CoverImage.URL != "" {
		m.open("div", "class", "relative aspect-[16/9] mb-4 overflow-hidden rounded-lg bg-foreground/5")
		m.open("img", "src", href(p.CoverImage.URL), "alt", altText(p), "loading", "lazy",
			"class", "object-cover w-full h-full transition-transform duration-500 group-hover:scale-105")
		m.close("div")
	}
	m.open("div", "class", "space-y-2")
	s.postInfo(m, r, p, "text-xs", i18n.FormatShortDate)
	m.elem("h3", p.Title, "class", "text-lg font-semibold leading-tight group-hover:text-highlight transition-colors")
	if p.Excerpt != "" {
		m.elem("p", p.Excerpt, "class", "text-sm text-foreground/60 line-clamp-2")
	}
	m.elem("span", s.t(r, "posts.readMore")+" →", "class", "inline-block text-sm font-medium text-highlight")
	m.close("div")
	m.close("a")
	m.close("article")
}

func (s *Site) postInfo(m *markup, r Request, p *cms.Post, size string, format func(time.Time, i18n.Locale) string) {
	m.open("div", "class", "flex items-center gap-3 "+size+" font-mono text-foreground/50")
	if p.Category != nil && p.Category.Name != "" {
		m.elem("span", p.Category.Name, "class", "uppercase tracking-wider text-highlight")
	}
	if p.PublishedAt != nil {
		m.elem("time", format(*p.PublishedAt, r.Locale), "datetime", p.PublishedAt.Format(time.RFC3339))
	}
	m.close("div")
}

func altText(p *cms.Post) string {
	if p.CoverImage.Alt != "" {
		return p.CoverImage.Alt
	}
	return p.Title
}

// PostPage renders a full post. body is the rendered rich text and
// readingMinutes is shown next to the date when positive.
func (s *Site) PostPage(r Request, post *cms.Post, body templ.Component, readingMinutes int) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		m.open("article", "class", "min-h-screen py-24")
		m.open("div", "class", "max-w-3xl mx-auto px-6")

		m.open("header", "class", "mb-12")
		m.elem("a", "← "+s.t(r, "posts.back"), "href", "/posts",
			"class", "inline-flex items-center gap-2 text-sm text-foreground/50 hover:text-foreground mb-6 transition-colors")
		s.postInfo(m, r, post, "text-sm mb-4", i18n.FormatDate)
		m.elem("h1", post.Title, "class", "text-4xl md:text-5xl font-bold leading-tight")
		if post.Excerpt != "" {
			m.elem("p", post.Excerpt, "class", "text-xl text-foreground/60 mt-4")
		}
		if readingMinutes > 0 {
			m.elem("p", s.Catalog.Tf(r.Locale, "posts.readingTime", readingMinutes),
				"class", "text-sm font-mono text-foreground/50 mt-4", "data-reading-time", strconv.Itoa(readingMinutes))
		}
		m.close("header")

		if post.CoverImage != nil && post.CoverImage.URL != "" {
			m.open("div", "class", "relative aspect-[16/9] mb-12 overflow-hidden rounded-lg")
			m.open("img", "src", href(post.CoverImage.URL), "alt", altText(post), "class", "object-cover w-full h-full")
			m.close("div")
		}

		m.open("div", "class", "text-foreground/80")
		m.component(body)
		m.close("div")

		m.close("div")
		m.close("article")
		return m.err
	})
	return s.Layout(r, PostMeta(post, s.Author), content)
}

// NotFound renders the missing post page.
func (s *Site) NotFound(r Request) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		m.open("div", "class", "min-h-screen py-24 flex items-center justify-center")
		m.open("div", "class", "text-center")
		m.elem("h1", s.t(r, "posts.notFound"), "class", "text-4xl font-bold mb-4")
		m.elem("a", "← "+s.t(r, "posts.back"), "href", "/posts", "class", "text-highlight hover:underline")
		m.close("div")
		m.close("div")
		return m.err
	})
	return s.Layout(r, PostMeta(nil, s.Author), body)
}

const themeScript = `<script>(function(){try{var d=window.matchMedia('(prefers-color-scheme: dark)').matches;` +
	`if(d){document.documentElement.classList.add('dark');}}catch(e){}})();</script>`

const themeToggleScript = `<script>document.querySelectorAll('[data-theme-toggle]').forEach(function(b){` +
	`b.addEventListener('click',function(){var h=document.documentElement;var t=h.classList.toggle('dark')?'dark':'light';` +
	`h.setAttribute('data-theme',t);document.cookie='theme='+t+';path=/;max-age=31536000;samesite=lax';});});</script>`

// LiveReloadScript reconnects to /ws and reloads the page on a "reload"
// message.
const LiveReloadScript = `<script>(function(){function c(){var p=location.protocol==='https:'?'wss:':'ws:';` +
	`var ws=new WebSocket(p+'//'+location.host+'/ws');ws.onmessage=function(e){if(e.data==='reload'){location.reload();}};` +
	`ws.onclose=function(){setTimeout(c,1000);};}c();})();</script>`
