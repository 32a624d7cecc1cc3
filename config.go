package spacetraveling

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RevalidateAfter is how long a statically generated page is served before
// it is regenerated.
const RevalidateAfter = 30 * time.Minute

// Duration wraps time.Duration for YAML unmarshaling from strings like "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// SiteConfig holds all configuration for a site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "spacetraveling")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD
	Locale      string `yaml:"locale"`      // Date locale (default "pt-BR")
	Timezone    string `yaml:"timezone"`    // Date timezone (default "UTC")

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path for rendered pages (default "data/pages.db")

	PrismicEndpoint    string `yaml:"prismic_endpoint"` // Required: e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string `yaml:"-"`                // PRISMIC_ACCESS_TOKEN

	SessionSecret    string `yaml:"-"`             // Required by serve: preview session secret
	RevalidateSecret string `yaml:"-"`             // Enables POST /api/revalidate/ when set
	CookieSecure     bool   `yaml:"cookie_secure"` // Set true for HTTPS

	Revalidate     Duration `yaml:"revalidate"`       // Page revalidation window (default 30m)
	PageSize       int      `yaml:"page_size"`        // Posts per listing page (default 1)
	MaxListingPage int      `yaml:"max_listing_page"` // Upper bound for ?pages= (default 50)
	LoadMoreClass  string   `yaml:"load_more_class"`  // Utility classes overriding the load-more defaults
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.Revalidate.Duration == 0 {
		c.Revalidate.Duration = RevalidateAfter
	}
	if c.PageSize == 0 {
		c.PageSize = 1
	}
	if c.MaxListingPage == 0 {
		c.MaxListingPage = 50
	}
}

// LoadConfig reads the optional YAML file at path, then applies environment
// overrides. A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (SiteConfig, error) {
	_ = godotenv.Load()

	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return SiteConfig{}, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Name, "SITE_NAME")
	setString(&c.URL, "SITE_URL")
	setString(&c.Description, "SITE_DESCRIPTION")
	setString(&c.Author, "SITE_AUTHOR")
	setString(&c.Locale, "SITE_LOCALE")
	setString(&c.Timezone, "SITE_TIMEZONE")
	setString(&c.Addr, "ADDR")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.PrismicEndpoint, "PRISMIC_ENDPOINT")
	setString(&c.PrismicAccessToken, "PRISMIC_ACCESS_TOKEN")
	setString(&c.SessionSecret, "SESSION_SECRET")
	setString(&c.RevalidateSecret, "REVALIDATE_SECRET")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		c.CookieSecure = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("REVALIDATE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REVALIDATE: %w", err)
		}
		c.Revalidate.Duration = d
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid PAGE_SIZE %q", v)
		}
		c.PageSize = n
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithViews replaces the default page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithStore persists rendered pages and banners in s.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
