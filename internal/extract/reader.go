package extract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/fetch"
)

const minReaderChars = 200

var twimgPattern = regexp.MustCompile(`https?://pbs\.twimg\.com/[^\s)\]}"']+`)

// ReaderProxy fetches a plain-text rendering of a page from a readable-content
// proxy (r.jina.ai style: GET {base}/{scheme}://{host}{path}?{query})
type ReaderProxy struct {
	fetcher *fetch.Fetcher
	base    string
	timeout time.Duration
}

// NewReaderProxy creates a ReaderProxy. An empty base disables it.
func NewReaderProxy(fetcher *fetch.Fetcher, base string, timeout time.Duration) *ReaderProxy {
	return &ReaderProxy{
		fetcher: fetcher,
		base:    strings.TrimRight(base, "/"),
		timeout: timeout,
	}
}

// Enabled reports whether a proxy base is configured
func (r *ReaderProxy) Enabled() bool {
	return r != nil && r.base != ""
}

// Raw returns the proxy's body for target, untouched
func (r *ReaderProxy) Raw(ctx context.Context, target string) (string, error) {
	if !r.Enabled() {
		return "", fmt.Errorf("reader proxy disabled")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target: %w", err)
	}

	wrapped := fmt.Sprintf("%s/%s://%s%s", r.base, parsed.Scheme, parsed.Host, parsed.EscapedPath())
	if parsed.RawQuery != "" {
		wrapped += "?" + parsed.RawQuery
	}

	resp, err := r.fetcher.Get(ctx, wrapped, fetch.Options{
		Timeout: r.timeout,
		Accept:  "text/plain, text/markdown, */*",
	})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Text returns the cleaned readable text for target, or an error when the
// proxy failed or produced too little to be useful
func (r *ReaderProxy) Text(ctx context.Context, target string) (string, error) {
	raw, err := r.Raw(ctx, target)
	if err != nil {
		return "", err
	}
	if len([]rune(strings.TrimSpace(raw))) <= minReaderChars {
		return "", fmt.Errorf("reader proxy returned too little text")
	}
	return CleanText(raw), nil
}

// TwitterMedia scrapes pbs.twimg.com media links out of the proxy rendering of a post
func (r *ReaderProxy) TwitterMedia(ctx context.Context, target string) ([]string, error) {
	raw, err := r.Raw(ctx, target)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range twimgPattern.FindAllString(raw, -1) {
		out = append(out, UpgradeTwitterMedia(m))
	}
	return Dedupe(out), nil
}

// UpgradeTwitterMedia asks pbs.twimg.com for the original resolution:
// bare media URLs get ?format=jpg&name=orig, sized ones get name=orig.
func UpgradeTwitterMedia(raw string) string {
	if !strings.Contains(raw, "pbs.twimg.com") {
		return raw
	}
	if !strings.Contains(raw, "?") {
		return raw + "?format=jpg&name=orig"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := parsed.Query()
	if q.Has("name") && q.Get("name") != "orig" {
		q.Set("name", "orig")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
