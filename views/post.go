package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/richtext"
)

// excerptLen is the longest description derived from a post body, in runes.
const excerptLen = 160

// Post renders a post detail page.
func Post(cfg SiteConfig, p PostPage) templ.Component {
	meta := PageMeta{
		Title:       p.Post.Title,
		Description: p.Post.Subtitle,
		URL:         BuildURL(cfg.URL, "post", p.Post.UID),
		OGType:      "article",
		Image:       p.Post.Banner.URL,
	}
	if meta.Description == "" {
		meta.Description = excerpt(p.Post.Content)
	}
	return layout(cfg, meta, BlogPostingJsonLD(cfg, p), p.Preview, func(ctx context.Context, w *writer) {
		banner := p.BannerURL
		if banner == "" {
			banner = p.Post.Banner.URL
		}
		if banner != "" {
			w.raw(`<header class="banner"><img`)
			w.attr("src", banner)
			w.attr("alt", p.Post.Banner.Alt)
			w.raw("/></header>")
		}
		w.raw(`<main class="container"><section class="post-title"><h1>`)
		w.text(p.Post.Title)
		w.raw(`</h1><div class="post-info"><div class="info"><span class="icon icon-calendar" aria-hidden="true"></span><time`)
		if p.Post.PublicationDate != nil {
			w.attr("datetime", p.Post.PublicationDate.Format("2006-01-02"))
		}
		w.raw(">")
		w.text(p.Date)
		w.raw(`</time></div><div class="info"><span class="icon icon-user" aria-hidden="true"></span>`)
		w.text(p.Post.Author)
		w.raw(`</div><div class="info reading-time"><span class="icon icon-clock" aria-hidden="true"></span>`)
		w.text(strconv.Itoa(p.ReadingTime) + " min")
		w.raw(`</div></div></section><section class="post-content">`)
		for _, s := range p.Post.Content {
			w.raw("<article><h2>")
			w.text(s.Heading)
			w.raw("</h2>")
			if w.err == nil {
				w.err = richtext.RichText(s.Body).Render(ctx, w.w)
			}
			w.raw("</article>")
		}
		w.raw("</section></main>")
	})
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Página não encontrada", "O post que você procura não existe ou foi removido.")
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Algo deu errado", "Não foi possível carregar esta página. Tente novamente em instantes.")
}

func errorPage(cfg SiteConfig, title, message string) templ.Component {
	return layout(cfg, PageMeta{Title: title}, "", false, func(ctx context.Context, w *writer) {
		w.raw(`<main class="container error-page"><h1>`)
		w.text(title)
		w.raw("</h1><p>")
		w.text(message)
		w.raw(`</p><a href="/">Voltar para o início</a></main>`)
	})
}

// excerpt returns the opening text of the first section with a body, cut at
// a word boundary.
func excerpt(sections []content.Section) string {
	for _, sec := range sections {
		text := strings.Join(strings.Fields(richtext.AsText(sec.Body)), " ")
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) <= excerptLen {
			return text
		}
		cut := string(runes[:excerptLen])
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		return cut + "…"
	}
	return ""
}
