// Package server serves the site pages, the rendering API and the live
// reload websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/folio/internal/cms"
	"github.com/conneroisu/folio/internal/config"
	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/pages"
	"github.com/conneroisu/folio/internal/renderer"
)

// MaxRenderBody limits documents posted to /api/render.
const MaxRenderBody = 1 << 20

// Server is the folio HTTP server.
type Server struct {
	config     *config.Config
	source     cms.Source
	engine     *renderer.Engine
	catalog    *i18n.Catalog
	site       *pages.Site
	hub        *Hub
	logger     logging.Logger
	errHandler *folioerrors.ErrorHandler
	router     chi.Router
	startedAt  time.Time

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	hubCancel    context.CancelFunc
	shutdownOnce sync.Once
}

// New builds a server reading posts from source.
func New(cfg *config.Config, source cms.Source, logger logging.Logger) (*Server, error) {
	if cfg == nil || source == nil {
		return nil, fmt.Errorf("server needs a config and a post source")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("server")

	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	s := &Server{
		config: cfg,
		source: source,
		engine: renderer.NewEngine(renderer.Options{
			MaxDepth: cfg.Render.MaxDepth,
			Sanitize: cfg.Render.Sanitize,
		}),
		catalog: catalog,
		site: &pages.Site{
			Author:      cfg.Site.Author,
			BaseURL:     cfg.Site.BaseURL,
			GitHubURL:   cfg.Site.GitHubURL,
			LinkedInURL: cfg.Site.LinkedInURL,
			Catalog:     catalog,
			HotReload:   cfg.Development.HotReload,
		},
		hub:        NewHub(logger),
		logger:     logger,
		errHandler: folioerrors.NewErrorHandler(logger),
		startedAt:  time.Now(),
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel
	go s.hub.Run(hubCtx)

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(SecurityMiddleware(SecurityConfigFromAppConfig(s.config)))

	r.Get("/", s.handleHome)
	r.Get("/posts", s.handlePosts)
	r.Get("/posts/{slug}", s.handlePost)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.cors)
		r.Get("/posts/{slug}/content", s.handlePostContent)
		r.Post("/render", s.handleRender)
		r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	if s.config.Development.HotReload {
		r.Get("/ws", s.handleWebSocket)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusNotFound, s.site.NotFound(s.pageRequest(w, r)))
	})
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Server listening",
		"addr", server.Addr,
		"hot_reload", s.config.Development.HotReload)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Reload tells connected browsers to refresh.
func (s *Server) Reload() {
	s.hub.Broadcast([]byte(ReloadMessage))
}

// Clients returns the number of live reload connections.
func (s *Server) Clients() int {
	return s.hub.Count()
}

// Shutdown stops accepting requests, closes websocket clients and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.hubCancel()
		s.hub.CloseAll()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("server shutdown: %w", err)
			}
		}
	})
	return shutdownErr
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug(r.Context(), "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// cors allows configured origins, and any origin in development.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "":
		case s.isAllowedOrigin(origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		case s.config.IsDevelopment():
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAllowedOrigin(origin string) bool {
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
