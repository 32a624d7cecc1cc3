// Package content defines the post records served by the content source and
// the pure helpers the pages apply to them: date formatting and reading time.
package content

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the content source has no post for an identifier.
	ErrNotFound = errors.New("content: post not found")
	// ErrMalformedRecord is returned when a record is missing a required field.
	ErrMalformedRecord = errors.New("content: malformed record")
	// ErrInvalidDate is returned when a publication date is absent or zero.
	ErrInvalidDate = errors.New("content: invalid date")
)

// PostSummary is the preview shown on the listing page.
type PostSummary struct {
	UID             string
	PublicationDate *time.Time
	Title           string
	Subtitle        string
	Author          string

	// DisplayDate is PublicationDate normalized for display.
	DisplayDate string
}

// Banner is the header image of a post.
type Banner struct {
	URL string
	Alt string
}

// Span is an inline formatting range inside a paragraph, in rune offsets.
type Span struct {
	Start int
	End   int
	Type  string // "strong", "em" or "hyperlink"
	URL   string // set for hyperlinks
}

// Paragraph is one rich-text block of a section body.
type Paragraph struct {
	Type  string // "paragraph", "heading2", "list-item", ...
	Text  string
	Spans []Span
	URL   string // set for image blocks
	Alt   string
}

// Section is a named part of a post: a heading and its body.
type Section struct {
	Heading string
	Body    []Paragraph
}

// PostDetail is a full post as rendered on its own page.
type PostDetail struct {
	UID             string
	PublicationDate *time.Time
	Title           string
	Subtitle        string
	Author          string
	Banner          Banner
	Content         []Section
}

// Page is one page of listing results plus the URL of the next page.
// An empty NextPage means there are no more pages.
type Page struct {
	NextPage string
	Results  []PostSummary
}

// Source answers queries against the headless CMS.
type Source interface {
	// ListPosts returns the first page of posts, newest first.
	ListPosts(ctx context.Context, pageSize int) (Page, error)
	// FetchPage follows a NextPage URL returned by a previous query.
	FetchPage(ctx context.Context, pageURL string) (Page, error)
	// GetPost returns the post with the given identifier or ErrNotFound.
	GetPost(ctx context.Context, uid string) (PostDetail, error)
	// ListUIDs returns the identifiers of every published post.
	ListUIDs(ctx context.Context) ([]string, error)
}

// Previewer is implemented by sources that support draft previews.
type Previewer interface {
	// ResolvePreview validates a preview token and returns the identifier of
	// the previewed document.
	ResolvePreview(ctx context.Context, token, documentID string) (string, error)
}

type previewRefKey struct{}

// WithPreviewRef returns a context whose queries read the draft content
// identified by ref instead of the published content.
func WithPreviewRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, previewRefKey{}, ref)
}

// PreviewRef returns the preview ref carried by ctx, or "".
func PreviewRef(ctx context.Context) string {
	ref, _ := ctx.Value(previewRefKey{}).(string)
	return ref
}
