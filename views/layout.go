package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// layout wraps body in the document shell shared by every page.
func layout(cfg SiteConfig, meta PageMeta, jsonLD string, preview bool, body func(ctx context.Context, w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		title := cfg.Name
		if meta.Title != "" {
			title = meta.Title + " | " + cfg.Name
		}
		description := meta.Description
		if description == "" {
			description = cfg.Description
		}
		w.raw("<!doctype html><html")
		w.attr("lang", cfg.Lang)
		w.raw(`><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		w.raw("<title>")
		w.text(title)
		w.raw("</title>")
		if description != "" {
			w.raw(`<meta name="description"`)
			w.attr("content", description)
			w.raw("/>")
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical"`)
			w.attr("href", meta.URL)
			w.raw(`/><meta property="og:url"`)
			w.attr("content", meta.URL)
			w.raw("/>")
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		w.raw(`<meta property="og:type"`)
		w.attr("content", ogType)
		w.raw(`/><meta property="og:title"`)
		w.attr("content", title)
		w.raw("/>")
		if meta.Image != "" {
			w.raw(`<meta property="og:image"`)
			w.attr("content", meta.Image)
			w.raw("/>")
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"`)
		w.attr("title", cfg.Name)
		w.raw(`/><link rel="stylesheet" href="/public/style.css"/>`)
		if jsonLD != "" {
			w.raw(`<script type="application/ld+json">`, jsonLD, `</script>`)
		}
		w.raw(`</head><body><header class="site-header"><a href="/" class="logo">`)
		w.text(cfg.Name)
		w.raw("</a></header>")
		if preview {
			w.raw(`<form class="preview-banner" method="post" action="/api/exit-preview/">`)
			w.raw(`<input type="hidden" name="_csrf"`)
			w.attr("value", csrfFromContext(ctx))
			w.raw(`/><span>Modo de pré-visualização</span><button type="submit">Sair</button></form>`)
		}
		body(ctx, w)
		w.raw(`<script src="/public/loadmore.js" defer></script></body></html>`)
		return w.err
	})
}

type csrfKey struct{}

// WithCSRFToken stores the token rendered into forms by the layout.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

func csrfFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}
