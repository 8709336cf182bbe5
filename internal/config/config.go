// Package config loads folio settings with Viper from defaults, an optional
// .folio.yml file, FOLIO_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	folioerrors "github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/validation"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Site        SiteConfig        `mapstructure:"site" yaml:"site"`
	CMS         CMSConfig         `mapstructure:"cms" yaml:"cms"`
	Content     ContentConfig     `mapstructure:"content" yaml:"content"`
	Render      RenderConfig      `mapstructure:"render" yaml:"render"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type SiteConfig struct {
	Author        string `mapstructure:"author" yaml:"author"`
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	DefaultLocale string `mapstructure:"default_locale" yaml:"default_locale"`
	GitHubURL     string `mapstructure:"github_url" yaml:"github_url"`
	LinkedInURL   string `mapstructure:"linkedin_url" yaml:"linkedin_url"`
}

// CMSConfig points at a Payload server. An empty URL means posts come from
// the content directory instead.
type CMSConfig struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Revalidate time.Duration `mapstructure:"revalidate" yaml:"revalidate"`
}

type ContentConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Drafts bool   `mapstructure:"drafts" yaml:"drafts"`
}

type RenderConfig struct {
	MaxDepth int  `mapstructure:"max_depth" yaml:"max_depth"`
	Sanitize bool `mapstructure:"sanitize" yaml:"sanitize"`
}

type DevelopmentConfig struct {
	HotReload bool `mapstructure:"hot_reload" yaml:"hot_reload"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// UsesCMS reports whether posts are fetched from the CMS.
func (c *Config) UsesCMS() bool {
	return c.CMS.URL != ""
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("site.author", "Folio")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.default_locale", string(i18n.DefaultLocale))

	v.SetDefault("cms.url", "")
	v.SetDefault("cms.timeout", 10*time.Second)
	v.SetDefault("cms.revalidate", 60*time.Second)

	v.SetDefault("content.dir", "./content")
	v.SetDefault("content.drafts", false)

	v.SetDefault("render.max_depth", 256)
	v.SetDefault("render.sanitize", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, folioerrors.NewConfigError(folioerrors.ErrCodeConfigInvalid,
			"decoding configuration").WithCause(err)
	}

	config.CMS.URL = strings.TrimRight(config.CMS.URL, "/")
	config.Site.BaseURL = strings.TrimRight(config.Site.BaseURL, "/")
	// hot reload has no viper default so that an explicit setting can be
	// told apart from the environment's default.
	if !v.IsSet("development.hot_reload") {
		config.Development.HotReload = config.Server.Environment != "production"
	}

	if err := validateConfig(&config); err != nil {
		return nil, folioerrors.NewConfigError(folioerrors.ErrCodeConfigInvalid,
			"invalid configuration").WithCause(err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if config.CMS.URL != "" {
		if err := validation.ValidateURL(config.CMS.URL); err != nil {
			return fmt.Errorf("cms url: %w", err)
		}
	}
	if config.CMS.Timeout < 0 || config.CMS.Revalidate < 0 {
		return fmt.Errorf("cms durations must not be negative")
	}

	if config.Site.BaseURL != "" {
		if err := validation.ValidateURL(config.Site.BaseURL); err != nil {
			return fmt.Errorf("site base_url: %w", err)
		}
	}
	if _, ok := i18n.ParseLocale(config.Site.DefaultLocale); !ok {
		return fmt.Errorf("site default_locale %q is not supported", config.Site.DefaultLocale)
	}

	// the content dir is chosen by the operator, so it is checked after
	// resolving; a parent-relative dir such as ../blog/content is allowed.
	if config.CMS.URL == "" {
		if config.Content.Dir == "" {
			return fmt.Errorf("content dir cannot be empty")
		}
		abs, err := filepath.Abs(config.Content.Dir)
		if err != nil {
			return fmt.Errorf("content dir: %w", err)
		}
		if err := validation.ValidatePath(abs); err != nil {
			return fmt.Errorf("content dir: %w", err)
		}
	}

	if config.Render.MaxDepth <= 0 {
		return fmt.Errorf("render max_depth must be positive, got %d", config.Render.MaxDepth)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", config.Log.Format)
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// 0 lets the OS pick a port, which tests rely on.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if strings.ContainsAny(config.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("host %q contains invalid characters", config.Host)
	}

	switch config.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment %q must be development or production", config.Environment)
	}

	return nil
}
