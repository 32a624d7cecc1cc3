// Package richtext renders CMS structured-text blocks to HTML as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/content"
)

// RichText returns a templ.Component that renders blocks as HTML.
func RichText(blocks []content.Paragraph) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, blocks)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of blocks to buf. Consecutive list
// items are grouped into one list; unknown block types are skipped.
func Render(buf *bytes.Buffer, blocks []content.Paragraph) {
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range blocks {
		switch b.Type {
		case "list-item":
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		case "o-list-item":
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()
		switch b.Type {
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			tag := "h" + b.Type[len("heading"):]
			buf.WriteString("<" + tag + ">")
			buf.WriteString(FormatInline(b.Text, b.Spans))
			buf.WriteString("</" + tag + ">")
		case "preformatted":
			buf.WriteString("<pre class=\"code-block\"><code>")
			buf.WriteString(html.EscapeString(b.Text))
			buf.WriteString("</code></pre>")
		case "image":
			src := safeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<img loading="lazy" decoding="async" src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"/>`)
		case "paragraph", "":
			buf.WriteString("<p>")
			buf.WriteString(FormatInline(b.Text, b.Spans))
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
}

// AsText returns the plain text of blocks joined by spaces.
func AsText(blocks []content.Paragraph) string {
	return content.BodyText(blocks)
}

// FormatInline escapes text and wraps span ranges (rune offsets) in their
// HTML elements. Overlapping spans are closed and reopened so the output
// stays well nested.
func FormatInline(text string, spans []content.Span) string {
	runes := []rune(text)
	valid := make([]content.Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
			continue
		}
		if openTag(s) == "" {
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return html.EscapeString(text)
	}
	// Longer spans open first so they enclose shorter ones that start at the same offset.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	var b strings.Builder
	var open []content.Span
	next := 0
	for i := 0; i <= len(runes); i++ {
		// Close spans ending here, reopening any inner span that outlives them.
		for {
			idx := -1
			for k := len(open) - 1; k >= 0; k-- {
				if open[k].End == i {
					idx = k
					break
				}
			}
			if idx < 0 {
				break
			}
			for k := len(open) - 1; k >= idx; k-- {
				b.WriteString(closeTag(open[k]))
			}
			reopen := append([]content.Span(nil), open[idx+1:]...)
			open = open[:idx]
			for _, s := range reopen {
				b.WriteString(openTag(s))
				open = append(open, s)
			}
		}
		for next < len(valid) && valid[next].Start == i {
			b.WriteString(openTag(valid[next]))
			open = append(open, valid[next])
			next++
		}
		if i < len(runes) {
			b.WriteString(html.EscapeString(string(runes[i])))
		}
	}
	return b.String()
}

func openTag(s content.Span) string {
	switch s.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "hyperlink":
		href := safeURL(s.URL)
		if href == "" {
			return ""
		}
		return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">`
	}
	return ""
}

func closeTag(s content.Span) string {
	switch s.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "hyperlink":
		return "</a>"
	}
	return ""
}

func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
