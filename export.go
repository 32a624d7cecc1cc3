package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/views"
)

// ErrExportIncomplete is returned when some pages could not be exported.
var ErrExportIncomplete = errors.New("export incomplete")

// ExportFailure records a page that could not be generated.
type ExportFailure struct {
	Path string
	Err  error
}

// ExportReport summarizes an export.
type ExportReport struct {
	Pages  int
	Bytes  int64
	Failed []ExportFailure
}

type exporter struct {
	a   *App
	dir string

	mu     sync.Mutex
	report ExportReport
}

// Export writes the whole site as static files under dir. Detail pages are
// generated concurrently, at most concurrency at a time. A page whose content
// cannot be fetched is recorded in the report and does not stop the others;
// only write failures and cancellation end the export early.
func (a *App) Export(ctx context.Context, dir string, concurrency int) (ExportReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	x := &exporter{a: a, dir: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportReport{}, err
	}
	if err := x.assets(); err != nil {
		return x.report, fmt.Errorf("export assets: %w", err)
	}
	if err := x.listings(ctx); err != nil {
		return x.report, fmt.Errorf("export listing: %w", err)
	}
	if err := x.posts(ctx, concurrency); err != nil {
		return x.report, fmt.Errorf("export posts: %w", err)
	}
	if err := x.feeds(ctx); err != nil {
		return x.report, fmt.Errorf("export feeds: %w", err)
	}
	if n := len(x.report.Failed); n > 0 {
		return x.report, fmt.Errorf("%w: %d page(s) failed", ErrExportIncomplete, n)
	}
	return x.report, nil
}

func (x *exporter) write(rel string, data []byte) error {
	target := filepath.Join(x.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}
	x.mu.Lock()
	x.report.Bytes += int64(len(data))
	if strings.HasSuffix(rel, ".html") {
		x.report.Pages++
	}
	x.mu.Unlock()
	return nil
}

func (x *exporter) fail(p string, err error) {
	x.a.Logger().Warnf("export %s: %v", p, err)
	x.mu.Lock()
	x.report.Failed = append(x.report.Failed, ExportFailure{Path: p, Err: err})
	x.mu.Unlock()
}

func (x *exporter) assets() error {
	assets, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	return fs.WalkDir(assets, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets, p)
		if err != nil {
			return err
		}
		return x.write(path.Join("public", p), data)
	})
}

func indexFile(sitePath string) string {
	return strings.TrimPrefix(sitePath, "/") + "index.html"
}

// listings writes the listing once per page count, so each page links to
// the next without JavaScript.
func (x *exporter) listings(ctx context.Context) error {
	a := x.a
	props, err := a.BuildListingPageProps(ctx)
	if err != nil {
		x.fail(listingExportPath(1), err)
		return nil
	}
	acc := a.newAccumulator()
	acc.Initialize(props.PostsPagination)
	seen := map[string]bool{}
	for loaded := 1; ; loaded++ {
		state := acc.State()
		body, err := renderBytes(ctx, a.Views.Home(a.siteView(), state.Results, a.loadMore(exportLoadMore, state.NextPage, loaded), false))
		if err != nil {
			return err
		}
		if err := x.write(indexFile(listingExportPath(loaded)), body); err != nil {
			return err
		}
		if !acc.HasMore() || seen[state.NextPage] {
			return nil
		}
		seen[state.NextPage] = true
		if err := acc.LoadMore(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			x.fail(listingExportPath(loaded+1), err)
			return nil
		}
	}
}

func (x *exporter) posts(ctx context.Context, concurrency int) error {
	paths, err := x.a.BuildAllDetailPaths(ctx)
	if err != nil {
		x.fail("/post/", err)
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, uid := range paths.UIDs {
		uid := uid
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := x.post(ctx, uid); err != nil {
				x.fail(views.PostPath(uid), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (x *exporter) post(ctx context.Context, uid string) error {
	if uid == "" || uid == "." || uid == ".." || strings.ContainsAny(uid, `/\`) {
		return fmt.Errorf("unsafe uid %q", uid)
	}
	a := x.a
	props, err := a.BuildDetailPageProps(ctx, uid)
	if err != nil {
		return err
	}
	banner := ""
	if props.Post.Banner.URL != "" {
		b, err := a.banner(ctx, props.Post)
		if err != nil {
			a.Logger().Warnf("export banner %s: %v (linking source image)", uid, err)
		} else if err := x.write(strings.TrimPrefix(bannerPath(uid, props.Post.Banner.URL), "/"), b.Data); err != nil {
			return err
		} else {
			banner = bannerPath(uid, props.Post.Banner.URL)
		}
	}
	body, err := a.renderPost(ctx, props, false, banner)
	if err != nil {
		return err
	}
	return x.write(indexFile(views.PostPath(uid)), body)
}

// feeds writes robots.txt, then the feed and sitemap, which both need
// every post.
func (x *exporter) feeds(ctx context.Context) error {
	a := x.a
	if err := x.write("robots.txt", []byte(a.robots())); err != nil {
		return err
	}
	posts, err := a.allSummaries(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		x.fail("/feed.xml", err)
		x.fail("/sitemap.xml", err)
		return nil
	}
	feed, err := a.renderRSS(posts)
	if err != nil {
		x.fail("/feed.xml", err)
	} else if err := x.write("feed.xml", feed); err != nil {
		return err
	}
	return x.write("sitemap.xml", a.renderSitemap(posts))
}

// Prerender generates the listing and every known detail page into the
// page cache so the first visitors are served without waiting on the CMS.
func (a *App) Prerender(ctx context.Context) error {
	listing, err := a.renderListing(ctx, 1, false, serverLoadMore)
	if err != nil {
		return err
	}
	a.Cache.Put("/", listing)

	paths, err := a.BuildAllDetailPaths(ctx)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, uid := range paths.UIDs {
		uid := uid
		g.Go(func() error {
			props, err := a.BuildDetailPageProps(ctx, uid)
			if err != nil {
				a.Logger().Warnf("prerender %s: %v", uid, err)
				return nil
			}
			banner := ""
			if props.Post.Banner.URL != "" {
				banner = bannerPath(uid, props.Post.Banner.URL)
			}
			body, err := a.renderPost(ctx, props, false, banner)
			if err != nil {
				a.Logger().Warnf("prerender %s: %v", uid, err)
				return nil
			}
			a.Cache.Put(views.PostPath(uid), body)
			return nil
		})
	}
	return g.Wait()
}
