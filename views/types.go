package views

import "github.com/eringen/spacetraveling/content"

// SiteConfig holds the site-wide values every page template reads.
type SiteConfig struct {
	Name        string // SITE_NAME (default "spacetraveling")
	URL         string // SITE_URL  (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
	Lang        string // html lang attribute (default "pt-BR")
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
}

// LoadMore describes the "load more" control. The zero value renders nothing.
type LoadMore struct {
	Href     string // listing with one more page, followed without JavaScript
	Endpoint string // fragment endpoint fetched by loadmore.js; empty in static exports
	Class    string // utility classes merged over the defaults, e.g. "font-bold"
}

// Available reports whether the control should be shown.
func (l LoadMore) Available() bool {
	return l.Href != ""
}

// PostPage is everything the detail template needs.
type PostPage struct {
	Post        content.PostDetail
	Date        string
	ReadingTime int
	BannerURL   string
	Preview     bool
}
