package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/rs/zerolog"
)

func newTestFetcher(mutate func(*model.HTTPConfig)) *Fetcher {
	cfg := model.DefaultConfig().HTTP
	cfg.RequestsPerSec = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return NewFetcher(cfg, zerolog.Nop())
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	resp, err := newTestFetcher(nil).Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(resp.Body) != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", resp.Body)
	}
	if !strings.HasPrefix(resp.ContentType, "text/html") {
		t.Errorf("Unexpected content type: %s", resp.ContentType)
	}
}

func TestGet_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(nil).Get(context.Background(), server.URL, Options{})
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("Expected StatusError 404, got %v", err)
	}
	if got := err.Error(); got != "unexpected status: 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if got := Describe(err); got != "status 404" {
		t.Errorf("Expected 'status 404', got %s", got)
	}
}

func TestGet_BrowserHeaders(t *testing.T) {
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	f := newTestFetcher(nil)
	if _, err := f.Get(context.Background(), server.URL, Options{Browser: true}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if headers.Get("Sec-Fetch-Mode") != "navigate" {
		t.Errorf("Expected Sec-Fetch-Mode navigate, got %q", headers.Get("Sec-Fetch-Mode"))
	}
	if !strings.Contains(headers.Get("User-Agent"), "Chrome/124") {
		t.Errorf("Expected browser user agent, got %q", headers.Get("User-Agent"))
	}
	if headers.Get("Accept-Language") != "en-US,en;q=0.9" {
		t.Errorf("Unexpected Accept-Language: %q", headers.Get("Accept-Language"))
	}
}

func TestGet_RotatesUserAgents(t *testing.T) {
	seen := make(map[string]bool)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get("User-Agent")] = true
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	f := newTestFetcher(func(c *model.HTTPConfig) {
		c.UserAgents = []string{"ua-one", "ua-two"}
	})
	for i := 0; i < 4; i++ {
		if _, err := f.Get(context.Background(), server.URL, Options{}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	if !seen["ua-one"] || !seen["ua-two"] {
		t.Errorf("Expected both user agents to be used, got %v", seen)
	}
}

func TestGet_MaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("a", 1000))
	}))
	defer server.Close()

	f := newTestFetcher(func(c *model.HTTPConfig) { c.MaxBodyBytes = 100 })
	resp, err := f.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.Body) != 100 {
		t.Errorf("Expected 100 bytes, got %d", len(resp.Body))
	}
}

func TestGet_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	_, err := newTestFetcher(nil).Get(context.Background(), server.URL, Options{Timeout: 50 * time.Millisecond})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestGet_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		_, _ = fmt.Fprint(w, "page")
	}))
	defer server.Close()

	f := newTestFetcher(func(c *model.HTTPConfig) { c.RespectRobots = true })

	_, err := f.Get(context.Background(), server.URL+"/article", Options{CheckRobots: true})
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}

	// Platform APIs skip the robots check
	if _, err := f.Get(context.Background(), server.URL+"/article", Options{}); err != nil {
		t.Errorf("Expected no error without robots check, got %v", err)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept"), "application/json") {
			t.Errorf("Expected JSON accept header, got %q", r.Header.Get("Accept"))
		}
		_, _ = fmt.Fprint(w, `{"text":"hello"}`)
	}))
	defer server.Close()

	var out struct {
		Text string `json:"text"`
	}
	if err := newTestFetcher(nil).GetJSON(context.Background(), server.URL, Options{}, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Text != "hello" {
		t.Errorf("Expected hello, got %q", out.Text)
	}
}

func TestGetJSON_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	var out map[string]any
	err := newTestFetcher(nil).GetJSON(context.Background(), server.URL, Options{}, &out)
	if err == nil {
		t.Fatal("Expected decode error")
	}
	if got := Describe(err); got != "bad json" {
		t.Errorf("Expected 'bad json', got %s", got)
	}
}
