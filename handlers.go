package spacetraveling

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

// listingPages reads ?pages=, clamped to [1, MaxListingPage].
func (a *App) listingPages(c echo.Context, fallback int) int {
	n, err := strconv.Atoi(c.QueryParam("pages"))
	if err != nil || n < fallback {
		return fallback
	}
	if n > a.Config.MaxListingPage {
		return a.Config.MaxListingPage
	}
	return n
}

func (a *App) handleHome(c echo.Context) error {
	ctx, preview := a.requestContext(c)
	pages := a.listingPages(c, 1)

	// Deeper listings bypass the cache and fetch every page from the CMS,
	// so they share the load-more budget.
	if pages > 1 && !a.moreLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}
	if preview || pages > 1 {
		body, err := a.renderListing(ctx, pages, preview, serverLoadMore)
		if err != nil {
			return err
		}
		if preview {
			c.Response().Header().Set("Cache-Control", "no-store")
		}
		return writeHTML(c, body)
	}

	body, err := a.Cache.Get(ctx, "/", func(ctx context.Context) ([]byte, error) {
		return a.renderListing(ctx, 1, false, serverLoadMore)
	})
	if err != nil {
		return err
	}
	return writeHTML(c, body)
}

// handleLoadMore returns the previews of the page at ?next= followed by the
// control for the page after it. When the page cannot be loaded nothing is
// returned so the client keeps its current control.
func (a *App) handleLoadMore(c echo.Context) error {
	if !a.moreLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}
	next := c.QueryParam("next")
	if next == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing next page")
	}
	pages := a.listingPages(c, 2)

	ctx, _ := a.requestContext(c)
	acc := a.newAccumulator()
	acc.Initialize(content.Page{NextPage: next})
	if err := acc.LoadMore(ctx); err != nil {
		c.Logger().Warnf("load more: %v", err)
		return c.NoContent(http.StatusBadGateway)
	}
	state := acc.State()
	return Render(c, a.Views.PostItems(state.Results, a.loadMore(serverLoadMore, state.NextPage, pages)))
}

func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	ctx, preview := a.requestContext(c)

	render := func(ctx context.Context) ([]byte, error) {
		props, err := a.BuildDetailPageProps(ctx, uid)
		if err != nil {
			return nil, err
		}
		banner := ""
		if !preview && props.Post.Banner.URL != "" {
			banner = bannerPath(uid, props.Post.Banner.URL)
		}
		return a.renderPost(ctx, props, preview, banner)
	}

	var body []byte
	var err error
	if preview {
		c.Response().Header().Set("Cache-Control", "no-store")
		body, err = render(ctx)
	} else {
		body, err = a.Cache.Get(ctx, views.PostPath(uid), render)
	}
	if err != nil {
		return err
	}
	return writeHTML(c, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.allSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", a.renderSitemap(posts))
}

func (a *App) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.allSummaries(ctx)
	if err != nil {
		return err
	}
	body, err := a.renderRSS(posts)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, a.robots())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, content.ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.siteView()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		c.Response().Header().Set("Cache-Control", "no-store")
		_ = RenderStatus(c, code, a.Views.ServerError(a.siteView()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
