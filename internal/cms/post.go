// Package cms loads blog posts from the headless CMS or from a local content
// directory.
//
// Both sources implement Source. The HTTP Client talks to the Payload REST
// API and caches responses for the revalidation window; DirSource reads JSON
// files in the same shape, which is how content is previewed offline.
package cms

import (
	"context"
	"regexp"
	"strings"
	"time"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/richtext"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Media is an uploaded file such as a cover image.
type Media struct {
	URL string `json:"url" yaml:"url"`
	Alt string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Category groups posts.
type Category struct {
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

// Post is a document of the posts collection, fetched with depth=1 so
// relations are populated.
type Post struct {
	ID          string             `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string             `json:"title" yaml:"title"`
	Slug        string             `json:"slug" yaml:"slug"`
	Excerpt     string             `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Content     *richtext.Document `json:"content,omitempty" yaml:"-"`
	CoverImage  *Media             `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
	Category    *Category          `json:"category,omitempty" yaml:"category,omitempty"`
	Status      Status             `json:"status,omitempty" yaml:"status,omitempty"`
	PublishedAt *time.Time         `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
}

// IsPublished reports whether anonymous visitors may read the post.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// PostPage is one page of a post listing.
type PostPage struct {
	Docs        []*Post `json:"docs"`
	TotalDocs   int     `json:"totalDocs"`
	Limit       int     `json:"limit"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"totalPages"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Query selects posts for a listing.
type Query struct {
	Locale   string
	Category string
	Limit    int
	Page     int
}

// DefaultLimit is the page size used when Query.Limit is unset.
const DefaultLimit = 10

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return q
}

// Source provides posts.
type Source interface {
	Post(ctx context.Context, slug, locale string) (*Post, error)
	Posts(ctx context.Context, q Query) (*PostPage, error)
}

// ErrPostNotFound is returned when no published post has the slug.
var ErrPostNotFound = folioerrors.NewNotFoundError(folioerrors.ErrCodePostNotFound, "post not found")

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title: lowercase, runs of other
// characters collapsed to "-", no leading or trailing "-".
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// NormalizeImageURL turns absolute URLs on the CMS host into site-relative
// paths; other URLs are returned unchanged.
func NormalizeImageURL(url, serverURL string) string {
	serverURL = strings.TrimRight(serverURL, "/")
	if serverURL != "" && strings.HasPrefix(url, serverURL) {
		return url[len(serverURL):]
	}
	return url
}
