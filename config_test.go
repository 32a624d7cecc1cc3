package spacetraveling

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Setenv("SITE_URL", "")
	t.Setenv("REVALIDATE", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("SITE_LOCALE", "")
	path := writeConfig(t, `
name: "Space Traveling"
url: "https://blog.example.com/"
prismic_endpoint: "https://repo.cdn.prismic.io/api/v2"
revalidate: "10m"
page_size: 2
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "Space Traveling" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.URL != "https://blog.example.com" {
		t.Errorf("URL = %q, want trailing slash trimmed", cfg.URL)
	}
	if cfg.Revalidate.Duration != 10*time.Minute {
		t.Errorf("Revalidate = %v", cfg.Revalidate)
	}
	if cfg.PageSize != 2 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.Locale != "pt-BR" || cfg.MaxListingPage != 50 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SITE_URL", "https://override.example.com")
	t.Setenv("PRISMIC_ACCESS_TOKEN", "token")
	t.Setenv("REVALIDATE", "45s")
	t.Setenv("PAGE_SIZE", "")
	path := writeConfig(t, `url: "https://blog.example.com"`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "https://override.example.com" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.PrismicAccessToken != "token" {
		t.Errorf("PrismicAccessToken = %q", cfg.PrismicAccessToken)
	}
	if cfg.Revalidate.Duration != 45*time.Second {
		t.Errorf("Revalidate = %v", cfg.Revalidate)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("REVALIDATE", "")
	t.Setenv("PAGE_SIZE", "zero")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for invalid PAGE_SIZE")
	}

	t.Setenv("PAGE_SIZE", "")
	if _, err := LoadConfig(writeConfig(t, `revalidate: "soon"`)); err == nil {
		t.Error("expected error for invalid revalidate")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	if cfg.Revalidate.Duration != RevalidateAfter {
		t.Errorf("Revalidate = %v, want %v", cfg.Revalidate, RevalidateAfter)
	}
	if cfg.PageSize != 1 {
		t.Errorf("PageSize = %d, want 1", cfg.PageSize)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location = %v", cfg.Location())
	}
}
