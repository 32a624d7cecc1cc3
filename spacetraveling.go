// Package spacetraveling serves a blog whose posts live in a headless CMS.
// Pages are generated from CMS content, kept for a revalidation window and
// regenerated in the background, or exported as a static site.
//
// Users may provide their own templ templates via the ViewFuncs struct; the
// package handles fetching, pagination, caching, middleware and routing.
package spacetraveling

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

// ViewFuncs holds the templ components the App renders. This is the
// inversion-of-control mechanism that lets users own all templates.
type ViewFuncs struct {
	Home        func(cfg views.SiteConfig, posts []content.PostSummary, more views.LoadMore, preview bool) templ.Component
	PostItems   func(posts []content.PostSummary, more views.LoadMore) templ.Component
	Post        func(cfg views.SiteConfig, page views.PostPage) templ.Component
	NotFound    func(cfg views.SiteConfig) templ.Component
	ServerError func(cfg views.SiteConfig) templ.Component
}

// DefaultViews returns the built-in templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		PostItems:   views.PostItems,
		Post:        views.Post,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App wires together the content source, page cache, store, handlers and
// middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Source content.Source
	Store  *Store
	Cache  *PageCache
	Views  ViewFuncs

	dates        content.DateFormatter
	moreLimiter  *RequestLimiter
	bannerClient *http.Client
	customRoutes []func(*App)
}

// New creates an App that reads posts from source. Routes and middleware are
// registered immediately so the App can be served or exported.
func New(cfg SiteConfig, source content.Source, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Source:       source,
		Views:        DefaultViews(),
		bannerClient: &http.Client{Timeout: 20 * time.Second},
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}

	a.dates = content.NewDateFormatter(cfg.Locale, cfg.Location())
	a.Cache = NewPageCache(a.Store, cfg.Revalidate.Duration, a.Logger())
	a.moreLimiter = NewRequestLimiter(30, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a
}

// Logger returns the application logger.
func (a *App) Logger() echo.Logger {
	return a.Echo.Logger
}

// Start validates the configuration and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/posts/more/", a.handleLoadMore)
	e.GET("/post/:uid/", a.handlePost)
	e.GET("/banner/:name", a.handleBanner)

	e.GET("/api/preview/", a.handlePreview)
	e.POST("/api/exit-preview/", a.handleExitPreview)
	e.POST("/api/revalidate/", a.handleRevalidate)
}

// Close releases resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.moreLimiter.Stop()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) siteView() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
		Lang:        a.Config.Locale,
	}
}
