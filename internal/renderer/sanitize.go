package renderer

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup the site never produces from rendered HTML.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the UGC policy extended with the class and link
// attributes the HTML renderer emits.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9:/_. -]+$`)).Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
	p.RequireNoFollowOnLinks(false)
	// relative links open in a new tab too and keep noreferrer
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns html with disallowed elements and attributes removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
