// Package pagination accumulates listing pages fetched one "load more" at a
// time into a single display-ordered list.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eringen/spacetraveling/content"
)

var (
	// ErrNoMorePages is returned by LoadMore when there is no next page.
	ErrNoMorePages = errors.New("pagination: no more pages")
	// ErrLoadInFlight is returned by LoadMore while another load is running.
	ErrLoadInFlight = errors.New("pagination: load already in flight")
	// ErrPageCycle is returned by Drain when a next-page URL repeats.
	ErrPageCycle = errors.New("pagination: next page cycle")
)

// Fetcher retrieves the page behind a next-page URL.
type Fetcher func(ctx context.Context, pageURL string) (content.Page, error)

// Normalizer prepares a freshly fetched record for display.
type Normalizer func(content.PostSummary) content.PostSummary

// Accumulator holds the posts loaded so far and the next page to fetch.
// Results only grow; their order is the order pages were appended.
type Accumulator struct {
	mu        sync.Mutex
	state     content.Page
	inFlight  bool
	fetch     Fetcher
	normalize Normalizer
}

// New returns an empty Accumulator. A nil normalize leaves records as fetched.
func New(fetch Fetcher, normalize Normalizer) *Accumulator {
	if normalize == nil {
		normalize = func(p content.PostSummary) content.PostSummary { return p }
	}
	return &Accumulator{fetch: fetch, normalize: normalize}
}

// Initialize replaces the state with seed, typically the first page fetched
// at build time.
func (a *Accumulator) Initialize(seed content.Page) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = content.Page{
		NextPage: seed.NextPage,
		Results:  append([]content.PostSummary(nil), seed.Results...),
	}
}

// LoadMore fetches the next page, normalizes its records and appends them.
// On failure the accumulated state is left unchanged. Only one load may run
// at a time; overlapping calls fail with ErrLoadInFlight.
func (a *Accumulator) LoadMore(ctx context.Context) error {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrLoadInFlight
	}
	next := a.state.NextPage
	if next == "" {
		a.mu.Unlock()
		return ErrNoMorePages
	}
	a.inFlight = true
	a.mu.Unlock()

	page, err := a.fetch(ctx, next)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight = false
	if err != nil {
		return fmt.Errorf("pagination: load more: %w", err)
	}
	for _, p := range page.Results {
		a.state.Results = append(a.state.Results, a.normalize(p))
	}
	a.state.NextPage = page.NextPage
	return nil
}

// Drain calls LoadMore until there are no more pages.
func (a *Accumulator) Drain(ctx context.Context) error {
	seen := make(map[string]struct{})
	for a.HasMore() {
		next := a.State().NextPage
		if _, ok := seen[next]; ok {
			return fmt.Errorf("%w: %s", ErrPageCycle, next)
		}
		seen[next] = struct{}{}
		if err := a.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

// HasMore reports whether a next page is available. The "load more"
// affordance is offered only while it returns true.
func (a *Accumulator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.NextPage != ""
}

// Loading reports whether a LoadMore call is in flight.
func (a *Accumulator) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// State returns a copy of the accumulated page.
func (a *Accumulator) State() content.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return content.Page{
		NextPage: a.state.NextPage,
		Results:  append([]content.PostSummary(nil), a.state.Results...),
	}
}
