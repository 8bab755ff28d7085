package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/cache"
	"github.com/temoto/robotstxt"
)

const robotsTTL = 6 * time.Hour

// RobotsChecker checks robots.txt compliance. Fetched files are kept in a
// TTL cache as "<status>\n<body>" and re-parsed on use.
type RobotsChecker struct {
	cache      *cache.MemoryCache
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a new robots.txt checker
func NewRobotsChecker(userAgent string, timeout time.Duration, store *cache.MemoryCache) *RobotsChecker {
	if store == nil {
		store = cache.NewMemoryCache(robotsTTL, time.Hour)
	}
	return &RobotsChecker{
		cache: store,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: NormalizeUserAgent(userAgent),
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Unreachable robots files allow everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.getRobotsData(ctx, parsed)
	if err != nil {
		return true, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent), nil
}

func (r *RobotsChecker) getRobotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := cache.CacheKey("robots", target.Scheme+"://"+target.Host)
	if raw, ok := r.cache.Get(key); ok {
		return decodeRobots(raw)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	raw := append([]byte(strconv.Itoa(resp.StatusCode)+"\n"), body...)
	_ = r.cache.Set(key, raw, robotsTTL)

	return decodeRobots(raw)
}

func decodeRobots(raw []byte) (*robotstxt.RobotsData, error) {
	head, body, _ := strings.Cut(string(raw), "\n")
	status, err := strconv.Atoi(head)
	if err != nil {
		return nil, fmt.Errorf("corrupt robots cache entry: %w", err)
	}
	return robotstxt.FromStatusAndBytes(status, []byte(body))
}

// NormalizeUserAgent reduces a user agent to its product token for robots.txt matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
