package spacetraveling

import (
	"bytes"
	"encoding/xml"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(posts []content.PostSummary) []byte {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base)},
	}
	for _, p := range posts {
		u := sitemapURL{Loc: views.BuildURL(base, "post", p.UID)}
		if p.PublicationDate != nil {
			u.LastMod = p.PublicationDate.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	// Encoding plain strings into an in-memory buffer cannot fail.
	_ = xml.NewEncoder(&buf).Encode(sitemap)
	return buf.Bytes()
}
