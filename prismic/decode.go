package prismic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/content"
)

type apiResponse struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type searchResponse struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	Results          []document `json:"results"`
}

type document struct {
	ID                   string          `json:"id"`
	UID                  *string         `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Pointer fields distinguish a missing key from an empty value.
type postData struct {
	Title    *string      `json:"title"`
	Subtitle *string      `json:"subtitle"`
	Author   *string      `json:"author"`
	Banner   *imageField  `json:"banner"`
	Content  []rawSection `json:"content"`
}

type imageField struct {
	URL string  `json:"url"`
	Alt *string `json:"alt"`
}

type rawSection struct {
	Heading *string     `json:"heading"`
	Body    *[]rawBlock `json:"body"`
}

type rawBlock struct {
	Type  string    `json:"type"`
	Text  *string   `json:"text"`
	Spans []rawSpan `json:"spans"`
	URL   string    `json:"url"`
	Alt   *string   `json:"alt"`
}

type rawSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Data  *struct {
		URL string `json:"url"`
	} `json:"data"`
}

// publicationLayouts covers the API's "2021-03-25T19:25:28+0000" form and RFC 3339.
var publicationLayouts = []string{"2006-01-02T15:04:05-0700", time.RFC3339}

func parsePublicationDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %w: %q", content.ErrMalformedRecord, content.ErrInvalidDate, *s)
}

func malformed(doc document, field string) error {
	return fmt.Errorf("%w: document %s: missing %s", content.ErrMalformedRecord, doc.ID, field)
}

func (c *Client) decodePage(res searchResponse) (content.Page, error) {
	page := content.Page{Results: make([]content.PostSummary, 0, len(res.Results))}
	if res.NextPage != nil {
		page.NextPage = publicURL(*res.NextPage)
	}
	for _, doc := range res.Results {
		s, err := decodeSummary(doc)
		if err != nil {
			return content.Page{}, err
		}
		page.Results = append(page.Results, s)
	}
	return page, nil
}

func decodeSummary(doc document) (content.PostSummary, error) {
	if doc.UID == nil || *doc.UID == "" {
		return content.PostSummary{}, malformed(doc, "uid")
	}
	var data postData
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return content.PostSummary{}, fmt.Errorf("%w: document %s: %v", content.ErrMalformedRecord, doc.ID, err)
	}
	if data.Title == nil {
		return content.PostSummary{}, malformed(doc, "data.title")
	}
	if data.Author == nil {
		return content.PostSummary{}, malformed(doc, "data.author")
	}
	published, err := parsePublicationDate(doc.FirstPublicationDate)
	if err != nil {
		return content.PostSummary{}, err
	}
	s := content.PostSummary{
		UID:             *doc.UID,
		PublicationDate: published,
		Title:           *data.Title,
		Author:          *data.Author,
	}
	if data.Subtitle != nil {
		s.Subtitle = *data.Subtitle
	}
	return s, nil
}

func decodeDetail(doc document) (content.PostDetail, error) {
	summary, err := decodeSummary(doc)
	if err != nil {
		return content.PostDetail{}, err
	}
	var data postData
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return content.PostDetail{}, fmt.Errorf("%w: document %s: %v", content.ErrMalformedRecord, doc.ID, err)
	}
	if data.Banner == nil {
		return content.PostDetail{}, malformed(doc, "data.banner")
	}
	post := content.PostDetail{
		UID:             summary.UID,
		PublicationDate: summary.PublicationDate,
		Title:           summary.Title,
		Subtitle:        summary.Subtitle,
		Author:          summary.Author,
		Banner:          content.Banner{URL: data.Banner.URL},
		Content:         make([]content.Section, 0, len(data.Content)),
	}
	if data.Banner.Alt != nil {
		post.Banner.Alt = *data.Banner.Alt
	}
	for i, rs := range data.Content {
		if rs.Heading == nil {
			return content.PostDetail{}, malformed(doc, fmt.Sprintf("content[%d].heading", i))
		}
		if rs.Body == nil {
			return content.PostDetail{}, malformed(doc, fmt.Sprintf("content[%d].body", i))
		}
		section := content.Section{Heading: *rs.Heading, Body: make([]content.Paragraph, 0, len(*rs.Body))}
		for j, b := range *rs.Body {
			p, err := decodeBlock(b)
			if err != nil {
				return content.PostDetail{}, malformed(doc, fmt.Sprintf("content[%d].body[%d].%s", i, j, err.Error()))
			}
			section.Body = append(section.Body, p)
		}
		post.Content = append(post.Content, section)
	}
	return post, nil
}

type missingField string

func (m missingField) Error() string { return string(m) }

func decodeBlock(b rawBlock) (content.Paragraph, error) {
	p := content.Paragraph{Type: b.Type, URL: b.URL}
	if p.Type == "" {
		p.Type = "paragraph"
	}
	if p.Type == "image" {
		if b.URL == "" {
			return content.Paragraph{}, missingField("url")
		}
		if b.Alt != nil {
			p.Alt = *b.Alt
		}
		return p, nil
	}
	if b.Text == nil {
		return content.Paragraph{}, missingField("text")
	}
	p.Text = *b.Text
	for _, s := range b.Spans {
		span := content.Span{Start: s.Start, End: s.End, Type: s.Type}
		if s.Data != nil {
			span.URL = s.Data.URL
		}
		p.Spans = append(p.Spans, span)
	}
	return p, nil
}
