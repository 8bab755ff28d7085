package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/cache"
	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/rs/zerolog"
)

// Content is what a platform strategy recovers before merging and filtering
type Content struct {
	Text   string
	Title  string
	Images []string
}

// Empty reports whether the content carries neither text nor images
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && len(c.Images) == 0
}

// PlatformExtractor runs the specialized chain for a platform. ok is false
// when the platform has no chain.
type PlatformExtractor interface {
	Extract(ctx context.Context, platform util.Platform, rawURL string) (content Content, ok bool)
}

// Extractor turns a URL into an ExtractionResult. It never fails because a
// source was unreachable; only an invalid URL is an error.
type Extractor struct {
	fetcher     *fetch.Fetcher
	platforms   PlatformExtractor
	reader      *ReaderProxy
	isImage     ImagePredicate
	cfg         model.ExtractConfig
	pageTimeout time.Duration
	results     *cache.MemoryCache
	logger      zerolog.Logger
}

// NewExtractor wires the orchestrator. platforms may be nil for generic-only extraction.
func NewExtractor(cfg *model.Config, fetcher *fetch.Fetcher, platforms PlatformExtractor, logger zerolog.Logger) *Extractor {
	e := &Extractor{
		fetcher:     fetcher,
		platforms:   platforms,
		reader:      NewReaderProxy(fetcher, cfg.Endpoints.ReaderProxy, cfg.HTTP.ReaderTimeout),
		isImage:     IsImageLike,
		cfg:         cfg.Extract,
		pageTimeout: cfg.HTTP.PageTimeout,
		logger:      logger.With().Str("component", "extract").Logger(),
	}
	if cfg.Extract.CacheTTL > 0 {
		e.results = cache.NewMemoryCache(cfg.Extract.CacheTTL, 2*cfg.Extract.CacheTTL)
	}
	return e
}

// WithImagePredicate swaps the image heuristic
func (e *Extractor) WithImagePredicate(pred ImagePredicate) *Extractor {
	if pred != nil {
		e.isImage = pred
	}
	return e
}

// Extract normalizes rawURL and extracts text, title and images from it
func (e *Extractor) Extract(ctx context.Context, rawURL string) (model.ExtractionResult, error) {
	target, err := util.ParseTarget(rawURL)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	if cached, ok := e.cached(target); ok {
		return cached, nil
	}

	result := e.extract(ctx, target)
	e.store(target, result)
	return result, nil
}

func (e *Extractor) extract(ctx context.Context, target string) model.ExtractionResult {
	log := e.logger.With().Str("url", target).Logger()

	if IsImageFile(target) {
		images := []string{target}
		return model.ExtractionResult{
			ImageURLs:          images,
			ImageDetectionInfo: DetectImages(target, "", images),
		}
	}

	platform := util.DetectPlatform(target)
	// Sparse platforms: a generic page scrape only adds unrelated boilerplate
	preferSpecialized := platform == util.PlatformTwitter

	var text, title string
	var images []string

	if e.platforms != nil {
		if content, ok := e.platforms.Extract(ctx, platform, target); ok {
			text, title = content.Text, content.Title
			images = append(images, content.Images...)
		}
	}

	if !preferSpecialized && len([]rune(strings.TrimSpace(text))) < e.cfg.MinSpecializedChars {
		if page := e.fetchPage(ctx, target); page != nil {
			if title == "" {
				title = page.Title
			}
			if selected := page.SelectText(e.cfg.MinBodyChars); selected != "" {
				text = selected
			}
			images = append(images, page.Images...)
		}
	}

	text = CleanText(text)
	if text == "" && title != "" && platform != util.PlatformTwitter {
		text = title
	}

	if !preferSpecialized && LooksBlocked(text, e.cfg.MinBodyChars) && e.reader.Enabled() {
		if readerText, err := e.reader.Text(ctx, target); err == nil {
			text = readerText
		} else {
			log.Debug().Str("reason", fetch.Describe(err)).Msg("reader proxy gave nothing")
		}
	}

	if platform == util.PlatformTwitter && len(images) == 0 && e.reader.Enabled() {
		media, err := e.reader.TwitterMedia(ctx, target)
		if err != nil {
			log.Debug().Str("reason", fetch.Describe(err)).Msg("reader proxy media scrape failed")
		}
		images = append(images, media...)
	}

	text = Truncate(text, e.cfg.MaxTextChars)
	images = FilterImages(images, e.isImage, e.cfg.MaxImages)

	log.Debug().
		Str("platform", string(platform)).
		Int("text_chars", len([]rune(text))).
		Int("images", len(images)).
		Msg("extraction finished")

	if images == nil {
		images = []string{}
	}
	return model.ExtractionResult{
		Text:               text,
		Title:              title,
		ImageURLs:          images,
		ImageDetectionInfo: DetectImages(target, text, images),
	}
}

// fetchPage returns nil when the page cannot be fetched or parsed
func (e *Extractor) fetchPage(ctx context.Context, target string) *Page {
	resp, err := e.fetcher.Get(ctx, target, fetch.Options{
		Timeout:     e.pageTimeout,
		CheckRobots: true,
	})
	if err != nil {
		e.logger.Debug().Str("url", target).Str("reason", fetch.Describe(err)).Msg("page fetch failed")
		return nil
	}

	page, err := ParseHTML(resp.Body, resp.FinalURL, e.cfg.MinBodyChars)
	if err != nil {
		e.logger.Debug().Err(err).Str("url", target).Msg("page parse failed")
		return nil
	}
	return page
}

func (e *Extractor) cached(target string) (model.ExtractionResult, bool) {
	if e.results == nil {
		return model.ExtractionResult{}, false
	}
	raw, ok := e.results.Get(cache.CacheKey("extract", target))
	if !ok {
		return model.ExtractionResult{}, false
	}
	var result model.ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return model.ExtractionResult{}, false
	}
	return result, true
}

func (e *Extractor) store(target string, result model.ExtractionResult) {
	if e.results == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = e.results.Set(cache.CacheKey("extract", target), raw, e.cfg.CacheTTL)
}
