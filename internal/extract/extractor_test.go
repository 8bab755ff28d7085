package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/rs/zerolog"
)

type fakePlatforms struct {
	content Content
	ok      bool
	calls   int
}

func (f *fakePlatforms) Extract(ctx context.Context, platform util.Platform, rawURL string) (Content, bool) {
	f.calls++
	return f.content, f.ok
}

func testConfig(readerURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.RequestsPerSec = 0
	cfg.HTTP.RespectRobots = false
	cfg.HTTP.PageTimeout = 2 * time.Second
	cfg.HTTP.ReaderTimeout = 2 * time.Second
	cfg.Endpoints.ReaderProxy = readerURL
	return &cfg
}

func newTestExtractor(cfg *model.Config, platforms PlatformExtractor) *Extractor {
	return NewExtractor(cfg, fetch.NewFetcher(cfg.HTTP, zerolog.Nop()), platforms, zerolog.Nop())
}

func TestExtract_InvalidURL(t *testing.T) {
	e := newTestExtractor(testConfig(""), nil)
	if _, err := e.Extract(context.Background(), "ftp://x.com"); !errors.Is(err, util.ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestExtract_ImageURLShortCircuit(t *testing.T) {
	platforms := &fakePlatforms{}
	e := newTestExtractor(testConfig(""), platforms)

	res, err := e.Extract(context.Background(), "i.redd.it/abc.png")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Text != "" {
		t.Errorf("Expected empty text, got %q", res.Text)
	}
	if len(res.ImageURLs) != 1 || res.ImageURLs[0] != "https://i.redd.it/abc.png" {
		t.Errorf("Expected the URL itself as sole image, got %v", res.ImageURLs)
	}
	if !res.ImageDetectionInfo.HasImages {
		t.Error("Expected HasImages")
	}
	if platforms.calls != 0 {
		t.Error("Expected no platform extraction for an image URL")
	}
}

func TestExtract_MediaSectionArticleIsFetched(t *testing.T) {
	var hits atomic.Int32
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer site.Close()

	target := site.URL + "/media/2024/jan/01/story"
	e := newTestExtractor(testConfig(""), nil)
	res, err := e.Extract(context.Background(), target)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected the page to be fetched once, got %d", hits.Load())
	}
	if !strings.Contains(res.Text, "seven to two") {
		t.Errorf("Expected article text, got %q", res.Text)
	}
	for _, img := range res.ImageURLs {
		if img == target {
			t.Errorf("Article URL must not be listed as an image: %v", res.ImageURLs)
		}
	}
}

func TestExtract_FetchFailureIsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := newTestExtractor(testConfig(""), nil)
	res, err := e.Extract(context.Background(), server.URL+"/not-a-real-page-404")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Text != "" || len(res.ImageURLs) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
	if res.ImageURLs == nil {
		t.Error("Expected non-nil image slice for stable JSON")
	}
}

func TestExtract_GenericPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer server.Close()

	e := newTestExtractor(testConfig(""), &fakePlatforms{})
	res, err := e.Extract(context.Background(), server.URL+"/2024/budget")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(res.Text, "seven to two") {
		t.Errorf("Expected article text, got %q", res.Text)
	}
	if res.Title != "Council Approves Budget" {
		t.Errorf("Expected title, got %q", res.Title)
	}
	if len(res.ImageURLs) == 0 || res.ImageURLs[0] != server.URL+"/images/hero.jpg" {
		t.Errorf("Expected og:image first, got %v", res.ImageURLs)
	}
}

func TestExtract_BlockedPageUsesReaderProxy(t *testing.T) {
	readerText := strings.Repeat("Readable article text from the proxy. ", 10)
	var readerPath string
	reader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readerPath = r.URL.Path
		_, _ = fmt.Fprint(w, readerText)
	}))
	defer reader.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>Access denied</body></html>`)
	}))
	defer site.Close()

	e := newTestExtractor(testConfig(reader.URL), nil)
	res, err := e.Extract(context.Background(), site.URL+"/post")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Text != CleanText(readerText) {
		t.Errorf("Expected reader proxy text, got %q", res.Text)
	}
	if !strings.HasSuffix(readerPath, site.URL[len("http://"):]+"/post") {
		t.Errorf("Unexpected reader path: %s", readerPath)
	}
}

func TestExtract_SpecializedTextSkipsPageFetch(t *testing.T) {
	var pageHits atomic.Int32
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer site.Close()

	long := strings.Repeat("Specialized text from the platform API. ", 5)
	platforms := &fakePlatforms{ok: true, content: Content{Text: long, Title: "Post", Images: []string{"https://i.redd.it/a.jpg"}}}

	e := newTestExtractor(testConfig(""), platforms)
	res, err := e.Extract(context.Background(), site.URL+"/r/news/comments/1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pageHits.Load() != 0 {
		t.Errorf("Expected no generic page fetch, got %d", pageHits.Load())
	}
	if res.Text != CleanText(long) {
		t.Errorf("Expected specialized text, got %q", res.Text)
	}
	if len(res.ImageURLs) != 1 {
		t.Errorf("Expected specialized image, got %v", res.ImageURLs)
	}
}

func TestExtract_ShortSpecializedTextFallsBackToPage(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer site.Close()

	platforms := &fakePlatforms{ok: true, content: Content{Text: "tiny", Title: "Oembed Title"}}
	e := newTestExtractor(testConfig(""), platforms)

	res, err := e.Extract(context.Background(), site.URL+"/2024/budget")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(res.Text, "seven to two") {
		t.Errorf("Expected page text to replace short specialized text, got %q", res.Text)
	}
	if res.Title != "Oembed Title" {
		t.Errorf("Expected specialized title kept, got %q", res.Title)
	}
}

func TestExtract_TruncatesText(t *testing.T) {
	long := strings.Repeat("abcdefghij ", 2000)
	platforms := &fakePlatforms{ok: true, content: Content{Text: long}}

	cfg := testConfig("")
	e := newTestExtractor(cfg, platforms)
	res, err := e.Extract(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n := len([]rune(res.Text)); n > cfg.Extract.MaxTextChars+1 {
		t.Errorf("Expected at most %d runes, got %d", cfg.Extract.MaxTextChars+1, n)
	}
	if !strings.HasSuffix(res.Text, Ellipsis) {
		t.Error("Expected ellipsis on truncated text")
	}
}

func TestExtract_CacheWhenEnabled(t *testing.T) {
	var hits atomic.Int32
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, articleHTML)
	}))
	defer site.Close()

	cfg := testConfig("")
	cfg.Extract.CacheTTL = time.Minute
	e := newTestExtractor(cfg, nil)

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(context.Background(), site.URL+"/2024/budget"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected one fetch with cache enabled, got %d", hits.Load())
	}

	uncached := newTestExtractor(testConfig(""), nil)
	for i := 0; i < 2; i++ {
		_, _ = uncached.Extract(context.Background(), site.URL+"/2024/budget")
	}
	if hits.Load() != 3 {
		t.Errorf("Expected re-extraction without cache, got %d fetches", hits.Load())
	}
}
