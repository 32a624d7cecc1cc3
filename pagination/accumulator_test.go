package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eringen/spacetraveling/content"
)

func post(uid string) content.PostSummary {
	return content.PostSummary{UID: uid, Title: "Post " + uid}
}

// pagesFetcher serves pages keyed by URL.
func pagesFetcher(pages map[string]content.Page) Fetcher {
	return func(_ context.Context, pageURL string) (content.Page, error) {
		p, ok := pages[pageURL]
		if !ok {
			return content.Page{}, fmt.Errorf("unknown page %s", pageURL)
		}
		return p, nil
	}
}

func uids(posts []content.PostSummary) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.UID
	}
	return out
}

func TestLoadMoreAppendsAndReplacesNext(t *testing.T) {
	acc := New(pagesFetcher(map[string]content.Page{
		"/page2": {Results: []content.PostSummary{post("b")}},
	}), nil)
	acc.Initialize(content.Page{NextPage: "/page2", Results: []content.PostSummary{post("a")}})

	if !acc.HasMore() {
		t.Fatal("expected more pages after seed")
	}
	if err := acc.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	state := acc.State()
	if state.NextPage != "" {
		t.Errorf("NextPage = %q, want empty", state.NextPage)
	}
	if got := uids(state.Results); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("results = %v, want [a b]", got)
	}
	if acc.HasMore() {
		t.Error("load more should be unavailable after the last page")
	}
	if err := acc.LoadMore(context.Background()); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("LoadMore after last page = %v, want ErrNoMorePages", err)
	}
}

func TestDrainSumsPagesInOrder(t *testing.T) {
	pages := map[string]content.Page{
		"p2": {NextPage: "p3", Results: []content.PostSummary{post("2a"), post("2b")}},
		"p3": {NextPage: "p4", Results: nil},
		"p4": {Results: []content.PostSummary{post("4a"), post("4b"), post("4c")}},
	}
	acc := New(pagesFetcher(pages), nil)
	acc.Initialize(content.Page{NextPage: "p2", Results: []content.PostSummary{post("1a")}})

	if err := acc.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	want := []string{"1a", "2a", "2b", "4a", "4b", "4c"}
	got := uids(acc.State().Results)
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("results = %v, want %v", got, want)
		}
	}
}

func TestDrainDetectsCycle(t *testing.T) {
	acc := New(pagesFetcher(map[string]content.Page{
		"p2": {NextPage: "p2", Results: []content.PostSummary{post("x")}},
	}), nil)
	acc.Initialize(content.Page{NextPage: "p2"})
	if err := acc.Drain(context.Background()); !errors.Is(err, ErrPageCycle) {
		t.Fatalf("Drain = %v, want ErrPageCycle", err)
	}
}

func TestLoadMoreNormalizesDates(t *testing.T) {
	published := time.Date(2021, time.March, 25, 19, 25, 28, 0, time.UTC)
	fetch := func(context.Context, string) (content.Page, error) {
		return content.Page{Results: []content.PostSummary{{UID: "b", PublicationDate: &published}}}, nil
	}
	normalize := func(p content.PostSummary) content.PostSummary {
		p.DisplayDate = content.DisplayDate(p.PublicationDate)
		return p
	}
	acc := New(fetch, normalize)
	acc.Initialize(content.Page{NextPage: "/next"})
	if err := acc.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if got := acc.State().Results[0].DisplayDate; got != "25 mar 2021" {
		t.Errorf("DisplayDate = %q, want %q", got, "25 mar 2021")
	}
}

func TestLoadMoreFailureKeepsState(t *testing.T) {
	upstream := errors.New("connection refused")
	acc := New(func(context.Context, string) (content.Page, error) {
		return content.Page{}, upstream
	}, nil)
	acc.Initialize(content.Page{NextPage: "/page2", Results: []content.PostSummary{post("a")}})

	err := acc.LoadMore(context.Background())
	if !errors.Is(err, upstream) {
		t.Fatalf("LoadMore error = %v, want wrapped upstream error", err)
	}
	state := acc.State()
	if state.NextPage != "/page2" || len(state.Results) != 1 {
		t.Errorf("state changed after failure: %+v", state)
	}
	if !acc.HasMore() {
		t.Error("load more should remain available for retry")
	}
	if acc.Loading() {
		t.Error("in-flight flag should be cleared after failure")
	}
}

func TestLoadMoreRejectsOverlappingCalls(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	acc := New(func(context.Context, string) (content.Page, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return content.Page{Results: []content.PostSummary{post("b")}}, nil
	}, nil)
	acc.Initialize(content.Page{NextPage: "/page2", Results: []content.PostSummary{post("a")}})

	done := make(chan error, 1)
	go func() { done <- acc.LoadMore(context.Background()) }()
	<-started

	if !acc.Loading() {
		t.Error("expected Loading() while a fetch is outstanding")
	}
	if err := acc.LoadMore(context.Background()); !errors.Is(err, ErrLoadInFlight) {
		t.Errorf("second LoadMore = %v, want ErrLoadInFlight", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMore: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if got := uids(acc.State().Results); len(got) != 2 {
		t.Errorf("results = %v, want [a b]", got)
	}
}

func TestStateIsACopy(t *testing.T) {
	acc := New(nil, nil)
	seed := []content.PostSummary{post("a")}
	acc.Initialize(content.Page{Results: seed})
	seed[0].UID = "mutated"
	state := acc.State()
	state.Results[0].UID = "also mutated"
	if got := acc.State().Results[0].UID; got != "a" {
		t.Errorf("UID = %q, want a", got)
	}
}
