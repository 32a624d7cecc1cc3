package spacetraveling

import (
	"net/http"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/eringen/spacetraveling/content"
)

func TestFeedListsEveryPost(t *testing.T) {
	a := newTestApp(t, newFakeSource())

	rec := get(t, a, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/rss+xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if feed.Title != "spacetraveling" {
		t.Errorf("title = %q", feed.Title)
	}
	if len(feed.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(feed.Items))
	}
	first := feed.Items[0]
	if first.Link != "https://blog.example.com/post/a/" {
		t.Errorf("link = %q", first.Link)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(time.Date(2021, time.March, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %v", first.PublishedParsed)
	}
	if feed.Items[2].PublishedParsed != nil {
		t.Errorf("undated post published = %v, want none", feed.Items[2].PublishedParsed)
	}
}

func TestRenderRSSEscapesText(t *testing.T) {
	a := newTestApp(t, newFakeSource())
	posts := []content.PostSummary{{UID: "x", Title: "Tom & Jerry <3", Subtitle: "a < b"}}
	body, err := a.renderRSS(posts)
	if err != nil {
		t.Fatal(err)
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if feed.Items[0].Title != "Tom & Jerry <3" {
		t.Errorf("title = %q", feed.Items[0].Title)
	}
}
