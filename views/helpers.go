package views

import (
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

// BuildURL joins path segments onto a base URL. The result always ends in a
// slash, matching the site's page paths, so the bare base becomes the home URL.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath returns the site-relative path of a post.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/"
}

// Class merges utility classes, letting later ones override earlier conflicts.
func Class(base string, extra ...string) string {
	return twmerge.Merge(append([]string{base}, extra...)...)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJsonLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, p PostPage) string {
	postURL := BuildURL(cfg.URL, "post", p.Post.UID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": p.Post.Title,
		"url":      postURL,
		"author": map[string]string{
			"@type": "Person",
			"name":  p.Post.Author,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"timeRequired": "PT" + strconv.Itoa(p.ReadingTime) + "M",
	}
	if p.Post.Subtitle != "" {
		data["description"] = p.Post.Subtitle
	}
	if p.Post.PublicationDate != nil {
		data["datePublished"] = p.Post.PublicationDate.Format("2006-01-02T15:04:05Z07:00")
	}
	if p.Post.Banner.URL != "" {
		data["image"] = p.Post.Banner.URL
	}
	return marshalJsonLD(data)
}

func marshalJsonLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	// json.Marshal escapes <, > and & so the block cannot close its <script>.
	return string(b)
}

// writer renders HTML fragments and remembers the first write error.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, s := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// attr writes name="value" with value escaped.
func (w *writer) attr(name, value string) {
	w.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}
