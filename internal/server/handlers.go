package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/conneroisu/folio/internal/cms"
	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/pages"
	"github.com/conneroisu/folio/internal/renderer"
	"github.com/conneroisu/folio/internal/richtext"
	"github.com/conneroisu/folio/internal/version"
)

const (
	localeCookie = "locale"
	themeCookie  = "theme"

	// listingLimit matches the page size the posts page has always used.
	listingLimit = 100
)

// pageRequest resolves the visitor's locale from ?lang=, the locale cookie
// or Accept-Language, in that order. A valid ?lang= is remembered.
func (s *Server) pageRequest(w http.ResponseWriter, r *http.Request) pages.Request {
	req := pages.Request{Path: r.URL.RequestURI(), Locale: s.defaultLocale()}

	if c, err := r.Cookie(themeCookie); err == nil {
		req.Theme = pages.ParseTheme(c.Value)
	}

	if loc, ok := i18n.ParseLocale(r.URL.Query().Get("lang")); ok {
		req.Locale = loc
		http.SetCookie(w, &http.Cookie{
			Name:     localeCookie,
			Value:    string(loc),
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return req
	}
	if c, err := r.Cookie(localeCookie); err == nil {
		if loc, ok := i18n.ParseLocale(c.Value); ok {
			req.Locale = loc
			return req
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		req.Locale = s.catalog.Match(header)
	}
	return req
}

func (s *Server) defaultLocale() i18n.Locale {
	if loc, ok := i18n.ParseLocale(s.config.Site.DefaultLocale); ok {
		return loc
	}
	return i18n.DefaultLocale
}

// renderPage buffers the page so a failed render can still send a clean
// error response.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	var buf bytes.Buffer
	if err := page.Render(r.Context(), &buf); err != nil {
		s.errHandler.Handle(r.Context(), err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// pageError answers a failed page request, rendering the not-found page for
// missing posts.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, req pages.Request, err error) {
	s.errHandler.Handle(r.Context(), err)
	status := folioerrors.HTTPStatus(err)
	if status == http.StatusNotFound {
		s.renderPage(w, r, status, s.site.NotFound(req))
		return
	}
	http.Error(w, http.StatusText(status), status)
}

// apiError writes err as JSON.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	s.errHandler.Handle(r.Context(), err)

	status := folioerrors.HTTPStatus(err)
	body := map[string]string{"error": http.StatusText(status)}
	var fe *folioerrors.FolioError
	if errors.As(err, &fe) {
		body["code"] = fe.Code
		body["message"] = fe.Message
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(w, r)
	page, err := s.source.Posts(r.Context(), cms.Query{Locale: string(req.Locale), Limit: pages.HomePostLimit})
	if err != nil {
		s.pageError(w, r, req, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, s.site.Home(req, page.Docs))
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(w, r)
	category := r.URL.Query().Get("category")

	all, err := s.source.Posts(r.Context(), cms.Query{Locale: string(req.Locale), Limit: listingLimit})
	if err != nil {
		s.pageError(w, r, req, err)
		return
	}

	posts := all.Docs
	if category != "" {
		filtered, err := s.source.Posts(r.Context(), cms.Query{
			Locale:   string(req.Locale),
			Category: category,
			Limit:    listingLimit,
		})
		if err != nil {
			s.pageError(w, r, req, err)
			return
		}
		posts = filtered.Docs
	}

	s.renderPage(w, r, http.StatusOK, s.site.PostList(req, posts, pages.Categories(all.Docs), category))
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	req := s.pageRequest(w, r)
	post, err := s.source.Post(r.Context(), chi.URLParam(r, "slug"), string(req.Locale))
	if err != nil {
		s.pageError(w, r, req, err)
		return
	}

	elements, err := s.engine.Elements(post.Content)
	if err != nil {
		s.pageError(w, r, req, err)
		return
	}
	body, err := s.engine.HTML(r.Context(), elements)
	if err != nil {
		s.pageError(w, r, req, err)
		return
	}

	page := s.site.PostPage(req, post, templ.Raw(body), renderer.ReadingTime(elements))
	s.renderPage(w, r, http.StatusOK, page)
}

func (s *Server) handlePostContent(w http.ResponseWriter, r *http.Request) {
	format, err := renderer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	locale := r.URL.Query().Get("lang")
	post, err := s.source.Post(r.Context(), chi.URLParam(r, "slug"), locale)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	s.writeRendered(w, r, post.Content, format)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := renderer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	doc, err := richtext.Decode(http.MaxBytesReader(w, r.Body, MaxRenderBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error":   http.StatusText(http.StatusRequestEntityTooLarge),
				"message": "document exceeds 1 MiB",
			})
			return
		}
		s.apiError(w, r, err)
		return
	}

	s.writeRendered(w, r, doc, format)
}

func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, doc *richtext.Document, format renderer.Format) {
	out, err := s.engine.Render(r.Context(), doc, format)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status  string          `json:"status"`
	Version string          `json:"version"`
	Uptime  string          `json:"uptime"`
	Source  string          `json:"source"`
	Clients int             `json:"clients"`
	Cache   *cms.CacheStats `json:"cache,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "healthy",
		Version: version.GetShortVersion(),
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Source:  "content",
		Clients: s.hub.Count(),
	}
	if client, ok := s.source.(*cms.Client); ok {
		stats := client.CacheStats()
		health.Source = "cms"
		health.Cache = &stats
	}
	writeJSON(w, http.StatusOK, health)
}
