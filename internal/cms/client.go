package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

const (
	// DefaultRevalidate is how long a CMS response is reused.
	DefaultRevalidate = 60 * time.Second
	// DefaultTimeout bounds a single CMS request.
	DefaultTimeout = 10 * time.Second

	defaultCacheBytes = 16 << 20
	maxResponseBytes  = 8 << 20
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Revalidate time.Duration
	CacheBytes int64
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client reads posts from the Payload REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *ResponseCache
	logger  logging.Logger
}

// NewClient creates a client for the CMS at cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, folioerrors.NewConfigError(folioerrors.ErrCodeConfigInvalid,
			"cms url must be an absolute http(s) URL").WithContext("url", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Revalidate == 0 {
		cfg.Revalidate = DefaultRevalidate
	}
	if cfg.CacheBytes <= 0 {
		cfg.CacheBytes = defaultCacheBytes
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		cache:   NewResponseCache(cfg.CacheBytes, cfg.Revalidate),
		logger:  logger.WithComponent("cms"),
	}, nil
}

// BaseURL returns the CMS server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CacheStats reports response cache counters.
func (c *Client) CacheStats() CacheStats {
	return c.cache.Stats()
}

// Invalidate drops cached responses so the next request hits the CMS.
func (c *Client) Invalidate() {
	c.cache.Clear()
}

// Post fetches the post with the given slug.
func (c *Client) Post(ctx context.Context, slug, locale string) (*Post, error) {
	params := url.Values{}
	params.Set("where[slug][equals]", slug)
	params.Set("limit", "1")
	params.Set("depth", "1")
	if locale != "" {
		params.Set("locale", locale)
	}

	var page PostPage
	if err := c.get(ctx, "/api/posts", params, &page); err != nil {
		return nil, err
	}
	if len(page.Docs) == 0 || page.Docs[0] == nil {
		return nil, ErrPostNotFound.WithContext("slug", slug)
	}

	post := page.Docs[0]
	c.normalize(post)
	return post, nil
}

// Posts lists published posts, newest first.
func (c *Client) Posts(ctx context.Context, q Query) (*PostPage, error) {
	q = q.normalized()

	params := url.Values{}
	params.Set("where[status][equals]", string(StatusPublished))
	params.Set("sort", "-publishedAt")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("depth", "1")
	if q.Category != "" {
		params.Set("where[category.slug][equals]", q.Category)
	}
	if q.Locale != "" {
		params.Set("locale", q.Locale)
	}

	var page PostPage
	if err := c.get(ctx, "/api/posts", params, &page); err != nil {
		return nil, err
	}

	docs := page.Docs[:0]
	for _, post := range page.Docs {
		if post == nil {
			continue
		}
		c.normalize(post)
		docs = append(docs, post)
	}
	page.Docs = docs
	return &page, nil
}

func (c *Client) normalize(post *Post) {
	if post.CoverImage != nil {
		post.CoverImage.URL = NormalizeImageURL(post.CoverImage.URL, c.baseURL.String())
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	endpoint.RawQuery = params.Encode()
	key := endpoint.String()

	body, ok := c.cache.Get(key)
	if !ok {
		var err error
		body, err = c.fetch(ctx, key)
		if err != nil {
			return err
		}
		c.cache.Set(key, body)
	} else {
		c.logger.Debug(ctx, "CMS cache hit", "url", key)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return folioerrors.NewUpstreamError(folioerrors.ErrCodeUpstreamRequest,
			"decoding cms response", err).WithContext("url", key)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building cms request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, folioerrors.NewUpstreamError(folioerrors.ErrCodeUpstreamRequest,
			"cms request failed", err).WithContext("url", endpoint)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "CMS request",
		"url", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, folioerrors.NewUpstreamError(folioerrors.ErrCodeUpstreamStatus,
			"cms returned "+resp.Status, nil).
			WithContext("url", endpoint).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, folioerrors.NewUpstreamError(folioerrors.ErrCodeUpstreamRequest,
			"reading cms response", err).WithContext("url", endpoint)
	}
	return body, nil
}
