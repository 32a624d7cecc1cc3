package spacetraveling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eringen/spacetraveling/content"
)

func TestBuildListingPageProps(t *testing.T) {
	a := newTestApp(t, newFakeSource())

	props, err := a.BuildListingPageProps(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if props.Revalidate != 30*time.Minute {
		t.Errorf("Revalidate = %v, want 1800s", props.Revalidate)
	}
	page := props.PostsPagination
	if page.NextPage != page2URL {
		t.Errorf("NextPage = %q", page.NextPage)
	}
	if len(page.Results) != 1 || page.Results[0].DisplayDate != "15 mar 2021" {
		t.Errorf("Results = %+v", page.Results)
	}
}

func TestBuildAllDetailPaths(t *testing.T) {
	a := newTestApp(t, newFakeSource())

	paths, err := a.BuildAllDetailPaths(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !paths.Fallback {
		t.Error("Fallback should be set")
	}
	if len(paths.UIDs) != 3 {
		t.Errorf("UIDs = %v", paths.UIDs)
	}
}

func TestBuildDetailPageProps(t *testing.T) {
	a := newTestApp(t, newFakeSource())

	props, err := a.BuildDetailPageProps(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if props.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d, want 1", props.ReadingTime)
	}
	if props.Revalidate != 30*time.Minute {
		t.Errorf("Revalidate = %v", props.Revalidate)
	}

	_, err = a.BuildDetailPageProps(context.Background(), "missing")
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAllSummariesDrainsInOrder(t *testing.T) {
	a := newTestApp(t, newFakeSource())

	posts, err := a.allSummaries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var uids []string
	for _, p := range posts {
		uids = append(uids, p.UID)
	}
	if len(uids) != 3 || uids[0] != "a" || uids[1] != "b" || uids[2] != "c" {
		t.Fatalf("uids = %v", uids)
	}
	if posts[2].DisplayDate != content.UnpublishedPlaceholder {
		t.Errorf("undated DisplayDate = %q", posts[2].DisplayDate)
	}
}

func TestListingLinks(t *testing.T) {
	if got := serverLoadMore("", 3); got.Available() {
		t.Errorf("no next page should give no control: %+v", got)
	}
	if got := exportLoadMore("next", 1); got.Href != "/pages/2/" || got.Endpoint != "" {
		t.Errorf("export control = %+v", got)
	}
	if got := listingExportPath(1); got != "/" {
		t.Errorf("listingExportPath(1) = %q", got)
	}
}
