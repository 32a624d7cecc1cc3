package spacetraveling

import (
	"bytes"
	"encoding/xml"
	"time"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// renderRSS builds an RSS 2.0 feed of posts. Posts without a publication
// date are listed without pubDate.
func (a *App) renderRSS(posts []content.PostSummary) ([]byte, error) {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		pubDate := ""
		if p.PublicationDate != nil && !p.PublicationDate.IsZero() {
			pubDate = p.PublicationDate.UTC().Format(time.RFC1123Z)
		}
		postURL := views.BuildURL(base, "post", p.UID)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Subtitle,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        views.BuildURL(base),
			Description: a.Config.Description,
			Language:    a.Config.Locale,
			Items:       items,
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(feed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
