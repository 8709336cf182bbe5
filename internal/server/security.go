package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/conneroisu/folio/internal/config"
)

// SecurityConfig holds the response headers applied to every request.
type SecurityConfig struct {
	CSP            *CSPConfig
	HSTSMaxAge     int
	XFrameOptions  string
	ReferrerPolicy string
}

// CSPConfig holds Content Security Policy directives.
type CSPConfig struct {
	DefaultSrc              []string
	ScriptSrc               []string
	StyleSrc                []string
	ImgSrc                  []string
	ConnectSrc              []string
	FontSrc                 []string
	ObjectSrc               []string
	FrameAncestors          []string
	BaseURI                 []string
	UpgradeInsecureRequests bool
}

// SecurityConfigFromAppConfig derives the headers for cfg. The pages carry
// inline theme and reload scripts, and cover images may be served by the CMS.
func SecurityConfigFromAppConfig(cfg *config.Config) *SecurityConfig {
	csp := &CSPConfig{
		DefaultSrc:     []string{"'self'"},
		ScriptSrc:      []string{"'self'", "'unsafe-inline'"},
		StyleSrc:       []string{"'self'", "'unsafe-inline'"},
		ImgSrc:         []string{"'self'", "data:", "https:"},
		ConnectSrc:     []string{"'self'"},
		FontSrc:        []string{"'self'", "data:"},
		ObjectSrc:      []string{"'none'"},
		FrameAncestors: []string{"'none'"},
		BaseURI:        []string{"'self'"},
	}
	if cfg.CMS.URL != "" {
		csp.ImgSrc = append(csp.ImgSrc, cfg.CMS.URL)
	}

	sec := &SecurityConfig{
		CSP:            csp,
		XFrameOptions:  "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}

	if cfg.IsDevelopment() {
		// live reload dials back to the page host over ws://
		csp.ConnectSrc = append(csp.ConnectSrc, "ws:", "wss:")
		csp.ImgSrc = append(csp.ImgSrc, "http:")
	} else {
		csp.UpgradeInsecureRequests = true
		sec.HSTSMaxAge = 31536000
	}
	return sec
}

// SecurityMiddleware sets the configured headers before calling next.
func SecurityMiddleware(sec *SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if sec.CSP != nil {
				h.Set("Content-Security-Policy", buildCSPHeader(sec.CSP))
			}
			if sec.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", sec.HSTSMaxAge))
			}
			if sec.XFrameOptions != "" {
				h.Set("X-Frame-Options", sec.XFrameOptions)
			}
			if sec.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", sec.ReferrerPolicy)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	}
}

func buildCSPHeader(csp *CSPConfig) string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}

	add("default-src", csp.DefaultSrc)
	add("script-src", csp.ScriptSrc)
	add("style-src", csp.StyleSrc)
	add("img-src", csp.ImgSrc)
	add("connect-src", csp.ConnectSrc)
	add("font-src", csp.FontSrc)
	add("object-src", csp.ObjectSrc)
	add("frame-ancestors", csp.FrameAncestors)
	add("base-uri", csp.BaseURI)
	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}
	return strings.Join(directives, "; ")
}
