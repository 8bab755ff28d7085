package fetch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/ppiankov/verdict/internal/worker"
	"github.com/rs/zerolog"
)

const maxRedirects = 5

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx upstream response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Options tune a single request
type Options struct {
	Timeout     time.Duration     // Per-call deadline, 0 means the client default
	Browser     bool              // Send Sec-Fetch-* navigation headers
	Accept      string            // Overrides the HTML Accept header
	CheckRobots bool              // Consult robots.txt when the fetcher has a checker
	Headers     map[string]string // Extra headers
}

// Response is a fully read upstream response
type Response struct {
	Body        []byte
	FinalURL    string
	StatusCode  int
	ContentType string
}

// Fetcher performs outbound GETs with browser-like headers
type Fetcher struct {
	httpClient *http.Client
	userAgents []string
	next       atomic.Uint64
	maxBytes   int64
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     zerolog.Logger
}

// NewFetcher creates a Fetcher from the HTTP section of the config
func NewFetcher(cfg model.HTTPConfig, logger zerolog.Logger) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	userAgents := cfg.UserAgents
	if len(userAgents) == 0 {
		userAgents = []string{model.DefaultUserAgent}
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgents: userAgents,
		maxBytes:   maxBytes,
		logger:     logger.With().Str("component", "fetch").Logger(),
	}

	if cfg.RequestsPerSec > 0 {
		f.limiter = worker.NewLimiter(cfg.RequestsPerSec, cfg.Burst)
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(userAgents[0], cfg.PlatformTimeout, nil)
	}

	return f
}

// Get fetches rawURL and returns the body when the status is 2xx
func (f *Fetcher) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if opts.CheckRobots && f.robots != nil {
		allowed, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, ErrDisallowed
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	f.setHeaders(req, opts)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", rawURL).Msg("fetch failed")
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	f.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// GetJSON fetches rawURL and decodes the body into v
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, opts Options, v any) error {
	if opts.Accept == "" {
		opts.Accept = "application/json, text/plain, */*"
	}
	resp, err := f.Get(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// setHeaders applies the browser profile. Accept-Encoding is left to the
// transport so gzip bodies are decoded transparently.
func (f *Fetcher) setHeaders(req *http.Request, opts Options) {
	ua := f.userAgents[int(f.next.Add(1)-1)%len(f.userAgents)]

	accept := opts.Accept
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	}

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if opts.Browser {
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "none")
		req.Header.Set("Sec-Fetch-User", "?1")
		req.Header.Set("Cache-Control", "max-age=0")
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Describe returns a short label for logs, e.g. "status 403" or "timeout"
func Describe(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return fmt.Sprintf("status %d", se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrDisallowed):
		return "robots"
	case strings.Contains(err.Error(), "decode json"):
		return "bad json"
	default:
		return "transport"
	}
}
