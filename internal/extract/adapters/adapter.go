package adapters

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/rs/zerolog"
)

// Attempt outcomes reported to observers and logs
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Strategy is one way of recovering content for a URL
type Strategy struct {
	Name    string
	Attempt func(ctx context.Context, rawURL string) (extract.Content, error)
}

// StrategyError is a failed attempt. The chain logs it and moves on.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// Observer receives one call per strategy attempt
type Observer func(strategy, outcome string)

// Chain runs strategies in order until Done reports the merged content is enough
type Chain struct {
	Strategies []Strategy
	Done       func(extract.Content) bool

	// DefaultTitle fills in a missing title when the chain found anything
	DefaultTitle string
}

// HasContent is the default Done: any text or any image
func HasContent(c extract.Content) bool {
	return !c.Empty()
}

// HasImages stops a chain only once media has been found
func HasImages(c extract.Content) bool {
	return len(c.Images) > 0
}

// Run tries every strategy until done. Failures never escape: the result is
// whatever the successful attempts produced, possibly empty.
func (c *Chain) Run(ctx context.Context, rawURL string, logger zerolog.Logger, observe Observer) extract.Content {
	done := c.Done
	if done == nil {
		done = HasContent
	}

	var merged extract.Content
	for _, s := range c.Strategies {
		if ctx.Err() != nil {
			break
		}

		content, err := s.Attempt(ctx, rawURL)
		outcome := OutcomeOK
		switch {
		case err != nil:
			outcome = OutcomeError
			serr := &StrategyError{Strategy: s.Name, Err: err}
			logger.Warn().
				Str("strategy", s.Name).
				Str("url", rawURL).
				Str("outcome", outcome).
				Str("reason", fetch.Describe(err)).
				Err(serr).
				Msg("extraction strategy failed")
		case content.Empty():
			outcome = OutcomeEmpty
			logger.Debug().Str("strategy", s.Name).Str("url", rawURL).Str("outcome", outcome).Msg("extraction strategy returned nothing")
		default:
			logger.Debug().
				Str("strategy", s.Name).
				Str("url", rawURL).
				Str("outcome", outcome).
				Int("text_chars", len(content.Text)).
				Int("images", len(content.Images)).
				Msg("extraction strategy succeeded")
		}
		if observe != nil {
			observe(s.Name, outcome)
		}
		if err != nil {
			continue
		}

		merged = merge(merged, content)
		if done(merged) {
			break
		}
	}

	if merged.Title == "" && !merged.Empty() {
		merged.Title = c.DefaultTitle
	}
	return merged
}

func merge(into, from extract.Content) extract.Content {
	if strings.TrimSpace(into.Text) == "" {
		into.Text = from.Text
	}
	if into.Title == "" {
		into.Title = from.Title
	}
	into.Images = extract.Dedupe(append(into.Images, from.Images...))
	return into
}

// Registry maps platforms to their chains
type Registry struct {
	chains  map[util.Platform]*Chain
	logger  zerolog.Logger
	observe Observer
}

// NewRegistry builds the default chains from cfg
func NewRegistry(cfg *model.Config, fetcher *fetch.Fetcher, logger zerolog.Logger) *Registry {
	r := &Registry{
		chains: make(map[util.Platform]*Chain),
		logger: logger.With().Str("component", "adapters").Logger(),
	}

	timeout := cfg.HTTP.PlatformTimeout
	r.Register(util.PlatformTwitter, NewTwitterChain(fetcher, cfg.Endpoints, timeout))
	r.Register(util.PlatformReddit, &Chain{Strategies: []Strategy{NewRedditStrategy(fetcher, timeout)}})
	r.Register(util.PlatformTikTok, &Chain{Strategies: []Strategy{
		NewOEmbedStrategy("tiktok-oembed", fetcher, cfg.Endpoints.TikTokOEmbed, "", timeout),
	}})
	r.Register(util.PlatformYouTube, &Chain{Strategies: []Strategy{
		NewOEmbedStrategy("youtube-oembed", fetcher, cfg.Endpoints.YouTubeOEmbed, "", timeout),
	}})

	// Meta's oEmbed endpoints refuse anonymous callers
	if token := cfg.Credentials.FacebookAccessToken; token != "" {
		r.Register(util.PlatformInstagram, &Chain{Strategies: []Strategy{
			NewOEmbedStrategy("instagram-oembed", fetcher, cfg.Endpoints.InstagramOEmbed, token, timeout),
		}})
		r.Register(util.PlatformFacebook, &Chain{Strategies: []Strategy{
			NewOEmbedStrategy("facebook-oembed", fetcher, cfg.Endpoints.FacebookOEmbed, token, timeout),
		}})
	}

	return r
}

// Register sets or replaces the chain for a platform
func (r *Registry) Register(platform util.Platform, chain *Chain) {
	r.chains[platform] = chain
}

// WithObserver attaches a per-attempt callback, typically a metrics counter
func (r *Registry) WithObserver(observe Observer) *Registry {
	r.observe = observe
	return r
}

// Extract runs the chain registered for platform. ok is false when there is none.
func (r *Registry) Extract(ctx context.Context, platform util.Platform, rawURL string) (extract.Content, bool) {
	chain, ok := r.chains[platform]
	if !ok {
		return extract.Content{}, false
	}
	return chain.Run(ctx, rawURL, r.logger.With().Str("platform", string(platform)).Logger(), r.observe), true
}

// Platforms lists registered platforms
func (r *Registry) Platforms() []util.Platform {
	out := make([]util.Platform, 0, len(r.chains))
	for p := range r.chains {
		out = append(out, p)
	}
	return out
}

var stripPolicy = bluemonday.StrictPolicy()

// plainText strips markup from platform-provided text and decodes entities
func plainText(s string) string {
	if s == "" {
		return ""
	}
	return extract.CleanText(html.UnescapeString(stripPolicy.Sanitize(s)))
}

var errEmptyEndpoint = errors.New("endpoint not configured")
