// Package i18n holds the site copy for each supported locale.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Locale identifies a supported language.
type Locale string

const (
	English             Locale = "en"
	BrazilianPortuguese Locale = "pt-BR"

	// DefaultLocale is used when nothing better matches.
	DefaultLocale = English
)

// Supported lists the locales in matcher preference order.
var Supported = []Locale{English, BrazilianPortuguese}

var localeTags = map[Locale]language.Tag{
	English:             language.English,
	BrazilianPortuguese: language.BrazilianPortuguese,
}

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog maps translation keys to strings per locale.
type Catalog struct {
	tables   map[Locale]map[string]string
	fallback Locale
	matcher  language.Matcher
}

// Load reads the embedded tables.
func Load() (*Catalog, error) {
	c := &Catalog{
		tables:   make(map[Locale]map[string]string, len(Supported)),
		fallback: DefaultLocale,
	}

	tags := make([]language.Tag, 0, len(Supported))
	for _, loc := range Supported {
		data, err := localeFS.ReadFile(path.Join("locales", string(loc)+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("reading %s table: %w", loc, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parsing %s table: %w", loc, err)
		}
		c.tables[loc] = table
		tags = append(tags, localeTags[loc])
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

// MustLoad is like Load but panics on error. The tables are embedded, so an
// error means a broken build.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// T translates key. Missing keys fall back to English, then to the key.
func (c *Catalog) T(locale Locale, key string) string {
	if s, ok := c.tables[locale][key]; ok {
		return s
	}
	if s, ok := c.tables[c.fallback][key]; ok {
		return s
	}
	return key
}

// Tf translates key and formats the result with args.
func (c *Catalog) Tf(locale Locale, key string, args ...interface{}) string {
	return fmt.Sprintf(c.T(locale, key), args...)
}

// Keys returns the keys defined for locale.
func (c *Catalog) Keys(locale Locale) []string {
	keys := make([]string, 0, len(c.tables[locale]))
	for k := range c.tables[locale] {
		keys = append(keys, k)
	}
	return keys
}

// Match picks the best supported locale for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback
	}
	return Supported[idx]
}

// ParseLocale resolves a locale name case-insensitively, accepting "_" as a
// separator.
func ParseLocale(s string) (Locale, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	for _, loc := range Supported {
		if strings.EqualFold(s, string(loc)) {
			return loc, true
		}
	}
	return "", false
}

// Tag returns the BCP 47 tag of l.
func (l Locale) Tag() language.Tag {
	if tag, ok := localeTags[l]; ok {
		return tag
	}
	return language.English
}

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDate renders t as a long date, "January 2, 2006" in English and
// "2 de janeiro de 2006" in Portuguese.
func FormatDate(t time.Time, locale Locale) string {
	if locale == BrazilianPortuguese {
		return fmt.Sprintf("%d de %s de %d", t.Day(), ptMonths[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}

// FormatShortDate renders t with an abbreviated month, as on post cards.
func FormatShortDate(t time.Time, locale Locale) string {
	if locale == BrazilianPortuguese {
		return fmt.Sprintf("%d de %s. de %d", t.Day(), ptMonths[t.Month()-1][:3], t.Year())
	}
	return t.Format("Jan 2, 2006")
}
