package spacetraveling

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/eringen/spacetraveling/content"
)

func readExported(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestExportWritesSite(t *testing.T) {
	imgs := imageServer(t, testPNG(t, 1600, 800))
	src := newFakeSource()
	src.setBanner("a", imgs.URL+"/a.png")
	a := newTestApp(t, src)
	dir := t.TempDir()

	report, err := a.Export(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	// index, pages/2, pages/3 and three posts
	if report.Pages != 6 {
		t.Errorf("Pages = %d, want 6", report.Pages)
	}
	if report.Bytes == 0 {
		t.Error("Bytes should be counted")
	}
	for _, rel := range []string{
		"index.html", "pages/2/index.html", "pages/3/index.html",
		"post/a/index.html", "post/b/index.html", "post/c/index.html",
		"feed.xml", "sitemap.xml", "robots.txt",
		"public/loadmore.js", "public/style.css",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(readExported(t, dir, "index.html")))
	if err != nil {
		t.Fatal(err)
	}
	more := doc.Find("a.load-more")
	if href, _ := more.Attr("href"); href != "/pages/2/" {
		t.Errorf("index load more href = %q", href)
	}
	if _, ok := more.Attr("data-load-more"); ok {
		t.Error("static listing should not point at the fragment endpoint")
	}

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(readExported(t, dir, "pages/3/index.html")))
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(doc); len(got) != 3 {
		t.Errorf("last listing titles = %v", got)
	}
	if doc.Find("a.load-more").Length() != 0 {
		t.Error("last listing should have no control")
	}

	banner := bannerPath("a", imgs.URL+"/a.png")
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(banner, "/")))); err != nil {
		t.Errorf("banner not exported: %v", err)
	}
	postHTML := readExported(t, dir, "post/a/index.html")
	if !strings.Contains(postHTML, `src="`+banner+`"`) {
		t.Error("exported post should use the optimized banner")
	}
}

func TestExportContinuesPastFailures(t *testing.T) {
	src := newFakeSource()
	src.uids = []string{"a", "broken", "b", "c"}
	src.postErr["broken"] = errors.New("upstream down")
	src.setBanner("a", "")
	a := newTestApp(t, src)
	dir := t.TempDir()

	report, err := a.Export(context.Background(), dir, 1)
	if !errors.Is(err, ErrExportIncomplete) {
		t.Fatalf("err = %v, want ErrExportIncomplete", err)
	}
	if len(report.Failed) != 1 || report.Failed[0].Path != "/post/broken/" {
		t.Fatalf("Failed = %+v", report.Failed)
	}
	for _, uid := range []string{"a", "b", "c"} {
		if _, err := os.Stat(filepath.Join(dir, "post", uid, "index.html")); err != nil {
			t.Errorf("post %s not exported: %v", uid, err)
		}
	}
}

func TestExportContinuesPastListingFailure(t *testing.T) {
	src := newFakeSource()
	src.pageErr[page3URL] = errors.New("upstream down")
	src.setBanner("a", "")
	a := newTestApp(t, src)
	dir := t.TempDir()

	report, err := a.Export(context.Background(), dir, 2)
	if !errors.Is(err, ErrExportIncomplete) {
		t.Fatalf("err = %v, want ErrExportIncomplete", err)
	}
	failed := map[string]bool{}
	for _, f := range report.Failed {
		failed[f.Path] = true
	}
	for _, p := range []string{"/pages/3/", "/feed.xml", "/sitemap.xml"} {
		if !failed[p] {
			t.Errorf("%s not reported as failed: %+v", p, report.Failed)
		}
	}
	for _, rel := range []string{
		"index.html", "pages/2/index.html",
		"post/a/index.html", "post/b/index.html", "post/c/index.html",
		"robots.txt",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestExportContinuesWhenFirstListingFails(t *testing.T) {
	src := newFakeSource()
	src.setBanner("a", "")
	a := newTestApp(t, &failingListSource{src})
	dir := t.TempDir()

	report, err := a.Export(context.Background(), dir, 2)
	if !errors.Is(err, ErrExportIncomplete) {
		t.Fatalf("err = %v, want ErrExportIncomplete", err)
	}
	if len(report.Failed) == 0 || report.Failed[0].Path != "/" {
		t.Fatalf("Failed = %+v", report.Failed)
	}
	if _, err := os.Stat(filepath.Join(dir, "post", "b", "index.html")); err != nil {
		t.Errorf("post b not exported: %v", err)
	}
}

// failingListSource fails every listing query.
type failingListSource struct {
	*fakeSource
}

func (f *failingListSource) ListPosts(ctx context.Context, pageSize int) (content.Page, error) {
	return content.Page{}, errors.New("upstream down")
}

func TestExportRejectsUnsafeUID(t *testing.T) {
	src := newFakeSource()
	src.uids = []string{"../escape"}
	a := newTestApp(t, src)
	dir := t.TempDir()

	report, err := a.Export(context.Background(), filepath.Join(dir, "out"), 1)
	if !errors.Is(err, ErrExportIncomplete) || len(report.Failed) != 1 {
		t.Fatalf("err = %v failed = %+v", err, report.Failed)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape")); err == nil {
		t.Fatal("export wrote outside its directory")
	}
}

func TestPrerenderFillsCache(t *testing.T) {
	src := newFakeSource()
	a := newTestApp(t, src)

	if err := a.Prerender(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := a.Cache.Len(); n != 4 {
		t.Fatalf("cached pages = %d, want listing plus three posts", n)
	}
	if rec := get(t, a, "/post/b/"); rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if n := src.calls("b"); n != 1 {
		t.Errorf("GetPost called %d times, want only the prerender", n)
	}
}
