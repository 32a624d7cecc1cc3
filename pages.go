package spacetraveling

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/pagination"
	"github.com/eringen/spacetraveling/views"
)

// feedPageSize is the page size used when every post is needed at once.
const feedPageSize = 100

// ListingProps is what the listing page is generated from.
type ListingProps struct {
	PostsPagination content.Page
	Revalidate      time.Duration
}

// DetailPaths lists the detail pages generated ahead of time. With Fallback
// set, other identifiers are generated on first request.
type DetailPaths struct {
	UIDs     []string
	Fallback bool
}

// DetailProps is what a detail page is generated from.
type DetailProps struct {
	Post        content.PostDetail
	ReadingTime int
	Revalidate  time.Duration
}

// BuildListingPageProps fetches the first listing page with display dates filled in.
func (a *App) BuildListingPageProps(ctx context.Context) (ListingProps, error) {
	page, err := a.Source.ListPosts(ctx, a.Config.PageSize)
	if err != nil {
		return ListingProps{}, fmt.Errorf("build listing: %w", err)
	}
	for i := range page.Results {
		page.Results[i] = a.normalizeSummary(page.Results[i])
	}
	return ListingProps{PostsPagination: page, Revalidate: a.Config.Revalidate.Duration}, nil
}

// BuildAllDetailPaths returns one path per known post.
func (a *App) BuildAllDetailPaths(ctx context.Context) (DetailPaths, error) {
	uids, err := a.Source.ListUIDs(ctx)
	if err != nil {
		return DetailPaths{}, fmt.Errorf("build detail paths: %w", err)
	}
	return DetailPaths{UIDs: uids, Fallback: true}, nil
}

// BuildDetailPageProps fetches one post and estimates its reading time.
func (a *App) BuildDetailPageProps(ctx context.Context, uid string) (DetailProps, error) {
	post, err := a.Source.GetPost(ctx, uid)
	if err != nil {
		return DetailProps{}, fmt.Errorf("build detail %q: %w", uid, err)
	}
	return DetailProps{
		Post:        post,
		ReadingTime: content.ReadingTime(post.Content),
		Revalidate:  a.Config.Revalidate.Duration,
	}, nil
}

func (a *App) normalizeSummary(p content.PostSummary) content.PostSummary {
	p.DisplayDate = a.dates.Display(p.PublicationDate)
	return p
}

func (a *App) newAccumulator() *pagination.Accumulator {
	return pagination.New(a.Source.FetchPage, a.normalizeSummary)
}

// loadMoreLinker builds the "load more" control for a listing that has
// loaded pages pages and whose next page is next.
type loadMoreLinker func(next string, loaded int) views.LoadMore

func serverLoadMore(next string, loaded int) views.LoadMore {
	if next == "" {
		return views.LoadMore{}
	}
	params := url.Values{}
	params.Set("next", next)
	params.Set("pages", strconv.Itoa(loaded+1))
	return views.LoadMore{
		Href:     "/?pages=" + strconv.Itoa(loaded+1),
		Endpoint: "/posts/more/?" + params.Encode(),
	}
}

func exportLoadMore(next string, loaded int) views.LoadMore {
	if next == "" {
		return views.LoadMore{}
	}
	return views.LoadMore{Href: listingExportPath(loaded + 1)}
}

// loadMore builds the control with link and applies the configured classes.
func (a *App) loadMore(link loadMoreLinker, next string, loaded int) views.LoadMore {
	more := link(next, loaded)
	more.Class = a.Config.LoadMoreClass
	return more
}

func listingExportPath(pages int) string {
	if pages <= 1 {
		return "/"
	}
	return "/pages/" + strconv.Itoa(pages) + "/"
}

// renderListing renders the listing with the first pages pages loaded.
// A page that fails to load ends accumulation early: what was loaded is
// rendered and the control stays available.
func (a *App) renderListing(ctx context.Context, pages int, preview bool, link loadMoreLinker) ([]byte, error) {
	props, err := a.BuildListingPageProps(ctx)
	if err != nil {
		return nil, err
	}
	acc := a.newAccumulator()
	acc.Initialize(props.PostsPagination)
	loaded := 1
	for loaded < pages && acc.HasMore() {
		if err := acc.LoadMore(ctx); err != nil {
			a.Logger().Warnf("listing: load page %d: %v", loaded+1, err)
			break
		}
		loaded++
	}
	state := acc.State()
	return renderBytes(ctx, a.Views.Home(a.siteView(), state.Results, a.loadMore(link, state.NextPage, loaded), preview))
}

// renderPost renders a detail page. An empty bannerURL uses the CMS image.
func (a *App) renderPost(ctx context.Context, props DetailProps, preview bool, bannerURL string) ([]byte, error) {
	page := views.PostPage{
		Post:        props.Post,
		Date:        a.dates.Display(props.Post.PublicationDate),
		ReadingTime: props.ReadingTime,
		BannerURL:   bannerURL,
		Preview:     preview,
	}
	return renderBytes(ctx, a.Views.Post(a.siteView(), page))
}

// allSummaries returns every post, newest first, by draining the listing.
func (a *App) allSummaries(ctx context.Context) ([]content.PostSummary, error) {
	first, err := a.Source.ListPosts(ctx, feedPageSize)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	acc := a.newAccumulator()
	for i := range first.Results {
		first.Results[i] = a.normalizeSummary(first.Results[i])
	}
	acc.Initialize(first)
	if err := acc.Drain(ctx); err != nil {
		return nil, err
	}
	return acc.State().Results, nil
}
