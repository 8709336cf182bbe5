package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// localeSuffix matches the locale part of "hello.pt-BR.json".
var localeSuffix = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// DirSource serves posts from JSON files in a directory. A file named
// "<name>.<locale>.json" holds the translation of "<name>.json".
type DirSource struct {
	dir    string
	drafts bool
	logger logging.Logger

	mu    sync.RWMutex
	posts map[string][]*Post // locale ("" for default) -> posts
}

// NewDirSource loads every post under dir. When drafts is false only
// published posts are visible.
func NewDirSource(dir string, drafts bool, logger logging.Logger) (*DirSource, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &DirSource{
		dir:    dir,
		drafts: drafts,
		logger: logger.WithComponent("content"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the content directory.
func (s *DirSource) Dir() string {
	return s.dir
}

// Reload re-reads the directory. On error the previous posts are kept.
func (s *DirSource) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return folioerrors.NewConfigError(folioerrors.ErrCodeConfigInvalid,
			"reading content directory").WithContext("dir", s.dir).WithCause(err)
	}

	posts := make(map[string][]*Post)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		locale := ""
		if i := strings.LastIndexByte(name, '.'); i > 0 && localeSuffix.MatchString(name[i+1:]) {
			locale = name[i+1:]
		}

		post, err := readPost(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return err
		}
		if !s.drafts && !post.IsPublished() {
			continue
		}
		posts[locale] = append(posts[locale], post)
	}

	for _, list := range posts {
		sortNewestFirst(list)
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()

	s.logger.Info(context.Background(), "Content loaded",
		"dir", s.dir,
		"posts", len(posts[""]),
		"locales", len(posts))
	return nil
}

func readPost(path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading post %s: %w", path, err)
	}

	var post Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, folioerrors.NewValidationError(folioerrors.ErrCodeDecodeFailed,
			"invalid post file").WithContext("file", path).WithCause(err)
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = StatusPublished
	}
	return &post, nil
}

func sortNewestFirst(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}

// localized returns the posts for locale with default-locale posts filling
// the slugs that have no translation.
func (s *DirSource) localized(locale string) []*Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := s.posts[""]
	translated := s.posts[locale]
	if locale == "" || len(translated) == 0 {
		return base
	}

	bySlug := make(map[string]*Post, len(translated))
	for _, p := range translated {
		bySlug[p.Slug] = p
	}
	out := make([]*Post, 0, len(base))
	for _, p := range base {
		if t, ok := bySlug[p.Slug]; ok {
			out = append(out, t)
			delete(bySlug, p.Slug)
			continue
		}
		out = append(out, p)
	}
	for _, p := range translated {
		if _, ok := bySlug[p.Slug]; ok {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out
}

// Post returns the post with slug.
func (s *DirSource) Post(ctx context.Context, slug, locale string) (*Post, error) {
	for _, p := range s.localized(locale) {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, ErrPostNotFound.WithContext("slug", slug)
}

// Posts lists posts, newest first.
func (s *DirSource) Posts(ctx context.Context, q Query) (*PostPage, error) {
	q = q.normalized()

	matched := []*Post{}
	for _, p := range s.localized(q.Locale) {
		if q.Category != "" && (p.Category == nil || p.Category.Slug != q.Category) {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &PostPage{
		Docs:        matched[start:end],
		TotalDocs:   total,
		Limit:       q.Limit,
		Page:        q.Page,
		TotalPages:  (total + q.Limit - 1) / q.Limit,
		HasNextPage: end < total,
	}, nil
}
