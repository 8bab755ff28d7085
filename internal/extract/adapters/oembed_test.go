package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/rs/zerolog"
)

func TestOEmbedStrategy(t *testing.T) {
	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = fmt.Fprint(w, `{"title": "How bridges are built", "author_name": "Engineering Daily", "thumbnail_url": "https://i.ytimg.com/vi/abc/hqdefault.jpg"}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	strategy := NewOEmbedStrategy("youtube-oembed", fetch.NewFetcher(cfg.HTTP, zerolog.Nop()), server.URL+"/oembed", "secret", time.Second)

	got, err := strategy.Attempt(context.Background(), "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Text != "How bridges are built" || got.Title != "How bridges are built" {
		t.Errorf("Expected title as text and title, got %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "https://i.ytimg.com/vi/abc/hqdefault.jpg" {
		t.Errorf("Expected thumbnail, got %v", got.Images)
	}

	if query["url"][0] != "https://www.youtube.com/watch?v=abc" || query["format"][0] != "json" {
		t.Errorf("Unexpected query: %v", query)
	}
	if query["access_token"][0] != "secret" {
		t.Errorf("Expected access token, got %v", query["access_token"])
	}
}

func TestOEmbedStrategy_AuthorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("access_token") {
			t.Error("Expected no access token without credentials")
		}
		_, _ = fmt.Fprint(w, `{"author_name": "someone"}`)
	}))
	defer server.Close()

	r := newTestRegistry(testConfig(server.URL))
	got, _ := r.Extract(context.Background(), util.PlatformTikTok, "https://www.tiktok.com/@someone/video/1")
	if got.Text != "someone" || got.Title != "" {
		t.Errorf("Expected author name as text only, got %+v", got)
	}
}

func TestOEmbedStrategy_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	strategy := NewOEmbedStrategy("facebook-oembed", fetch.NewFetcher(cfg.HTTP, zerolog.Nop()), server.URL, "", time.Second)
	if _, err := strategy.Attempt(context.Background(), "https://facebook.com/post/1"); !fetch.IsStatus(err, http.StatusForbidden) {
		t.Errorf("Expected 403 status error, got %v", err)
	}

	empty := NewOEmbedStrategy("none", nil, "", "", time.Second)
	if _, err := empty.Attempt(context.Background(), "https://facebook.com/post/1"); err != errEmptyEndpoint {
		t.Errorf("Expected errEmptyEndpoint, got %v", err)
	}
}
