package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/content"
)

const (
	loadMoreLabel = "Carregar mais posts"
	loadMoreClass = "load-more text-highlight font-semibold hover:underline"
)

// Home renders the listing page.
func Home(cfg SiteConfig, posts []content.PostSummary, more LoadMore, preview bool) templ.Component {
	meta := PageMeta{URL: BuildURL(cfg.URL), OGType: "website"}
	return layout(cfg, meta, WebsiteJsonLD(cfg), preview, func(ctx context.Context, w *writer) {
		w.raw(`<main class="container"><div class="posts" id="posts">`)
		for _, p := range posts {
			writePreview(w, p)
		}
		w.raw("</div>")
		writeLoadMore(w, more)
		w.raw("</main>")
	})
}

// PostItems renders the fragment returned to loadmore.js: the newly loaded
// previews followed by the replacement control, if any.
func PostItems(posts []content.PostSummary, more LoadMore) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		for _, p := range posts {
			writePreview(w, p)
		}
		writeLoadMore(w, more)
		return w.err
	})
}

func writePreview(w *writer, p content.PostSummary) {
	date := p.DisplayDate
	if date == "" {
		date = content.DisplayDate(p.PublicationDate)
	}
	w.raw(`<a class="post" data-post`)
	w.attr("href", PostPath(p.UID))
	w.raw("><h1>")
	w.text(p.Title)
	w.raw("</h1><p>")
	w.text(p.Subtitle)
	w.raw(`</p><footer><div class="info"><span class="icon icon-calendar" aria-hidden="true"></span><time`)
	if p.PublicationDate != nil {
		w.attr("datetime", p.PublicationDate.Format("2006-01-02"))
	}
	w.raw(">")
	w.text(date)
	w.raw(`</time></div><div class="info"><span class="icon icon-user" aria-hidden="true"></span>`)
	w.text(p.Author)
	w.raw("</div></footer></a>")
}

func writeLoadMore(w *writer, more LoadMore) {
	if !more.Available() {
		return
	}
	w.raw("<a")
	w.attr("class", Class(loadMoreClass, more.Class))
	w.attr("href", more.Href)
	if more.Endpoint != "" {
		w.attr("data-load-more", more.Endpoint)
	}
	w.raw(">")
	w.text(loadMoreLabel)
	w.raw("</a>")
}
