package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/verdict/internal/claims"
	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/llm"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/util"
	"github.com/ppiankov/verdict/internal/verify"
	"github.com/rs/zerolog"
)

var (
	// ErrNoInput means the request carried nothing to check
	ErrNoInput = errors.New("no input provided")

	// ErrNotConfigured means no reasoning-service credential is available
	ErrNotConfigured = errors.New("reasoning service API key not configured")
)

// Check kinds, used as metric labels
const (
	KindText  = "text"
	KindURL   = "url"
	KindImage = "image"
)

// Completer is the reasoning-service call shared by claim extraction and verification
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ContentExtractor turns a URL into extracted content
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) (model.ExtractionResult, error)
}

// Observer receives the kind and duration of every finished fact-check
type Observer func(kind string, took time.Duration)

// Pipeline orchestrates extraction, claim extraction and verification.
// Everything inside one request runs sequentially.
type Pipeline struct {
	extractor ContentExtractor
	claims    *claims.Extractor // nil when not configured
	verifier  *verify.Verifier  // nil when not configured
	config    *model.Config
	logger    zerolog.Logger
	observe   Observer
	now       func() time.Time
	newID     func() string
}

// New creates a pipeline. completer may be nil; URL extraction still works
// then but every fact-check fails with ErrNotConfigured.
func New(cfg *model.Config, extractor ContentExtractor, completer Completer, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		config:    cfg,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if completer != nil {
		p.claims = claims.NewExtractor(completer, cfg, logger)
		p.verifier = verify.NewVerifier(completer, cfg, logger)
	}
	return p
}

// WithObserver registers a callback for finished fact-checks
func (p *Pipeline) WithObserver(observe Observer) *Pipeline {
	p.observe = observe
	return p
}

// Configured reports whether fact-checks can run
func (p *Pipeline) Configured() bool {
	return p.verifier != nil
}

// CheckText fact-checks free text
func (p *Pipeline) CheckText(ctx context.Context, text string) (*model.FactCheckResponse, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	text = extract.CleanText(text)
	if text == "" {
		return nil, ErrNoInput
	}
	defer p.finished(KindText, p.now())

	textResults, err := p.checkText(ctx, text)
	if err != nil {
		return nil, err
	}

	return Assemble(Assembly{
		RequestID:    p.newID(),
		Timestamp:    p.now(),
		OriginalText: &text,
		TextResults:  textResults,
	}), nil
}

// CheckURL extracts content from rawURL and fact-checks its text and first image(s).
// An unreachable source still yields a response, with zero claims. So does an
// expired deadline, with whatever was verified before it.
func (p *Pipeline) CheckURL(ctx context.Context, rawURL string) (*model.FactCheckResponse, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	target, err := util.ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	defer p.finished(KindURL, p.now())

	content, err := p.extractor.Extract(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", target, err)
	}

	var textResults []model.ClaimResult
	if content.Text != "" {
		textResults, err = p.checkText(ctx, content.Text)
		if err != nil {
			return nil, err
		}
	}

	var imageResults []model.ClaimResult
	for _, img := range firstN(content.ImageURLs, p.config.Claims.MaxImagesToAnalyze) {
		if expired(ctx) {
			p.logger.Warn().Str("url", target).Msg("deadline reached, skipping remaining images")
			break
		}
		results, err := p.checkImage(ctx, model.ImageRef{URL: img})
		if err != nil {
			return nil, err
		}
		imageResults = append(imageResults, results...)
	}

	p.logger.Info().
		Str("url", target).
		Int("text_claims", len(textResults)).
		Int("image_claims", len(imageResults)).
		Msg("url checked")

	text := content.Text
	return Assemble(Assembly{
		RequestID:    p.newID(),
		Timestamp:    p.now(),
		OriginalText: &text,
		SourceURL:    target,
		Extraction:   &content,
		TextResults:  textResults,
		ImageResults: imageResults,
	}), nil
}

// CheckImage fact-checks one image given inline or by URL
func (p *Pipeline) CheckImage(ctx context.Context, image model.ImageRef) (*model.FactCheckResponse, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	image.URL = strings.TrimSpace(image.URL)
	image.DataURL = strings.TrimSpace(image.DataURL)
	if image.Empty() {
		return nil, ErrNoInput
	}
	defer p.finished(KindImage, p.now())

	results, err := p.checkImage(ctx, image)
	if err != nil {
		return nil, err
	}

	original := image.URL
	if image.DataURL != "" {
		original = "data_url"
	}
	return Assemble(Assembly{
		RequestID:     p.newID(),
		Timestamp:     p.now(),
		OriginalImage: original,
		SourceURL:     image.URL,
		ImageResults:  results,
	}), nil
}

// Extract runs extraction only; it needs no reasoning-service credential
func (p *Pipeline) Extract(ctx context.Context, rawURL string) (model.ExtractionResult, error) {
	return p.extractor.Extract(ctx, rawURL)
}

// checkText extracts claims and verifies them one by one. Text long enough
// to hold a statement becomes a single claim when extraction finds nothing.
func (p *Pipeline) checkText(ctx context.Context, text string) ([]model.ClaimResult, error) {
	if expired(ctx) {
		return nil, nil
	}
	found, err := p.claims.ExtractFromText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 && extract.WordCount(text) >= p.config.Claims.MinFallbackWords {
		p.logger.Debug().Msg("no claims extracted, checking the whole text")
		found = []string{text}
	}
	return p.verifyAll(ctx, found, model.SourceTypeText)
}

func (p *Pipeline) checkImage(ctx context.Context, image model.ImageRef) ([]model.ClaimResult, error) {
	if expired(ctx) {
		return nil, nil
	}
	found, err := p.claims.ExtractFromImage(ctx, image)
	if err != nil {
		return nil, err
	}
	return p.verifyAll(ctx, found, model.SourceTypeImage)
}

// verifyAll verifies claims in order. Once the deadline passes no further
// calls are made and the remaining claims are reported as timed out.
func (p *Pipeline) verifyAll(ctx context.Context, found []string, source model.SourceType) ([]model.ClaimResult, error) {
	var results []model.ClaimResult
	for _, claim := range found {
		if strings.TrimSpace(claim) == "" {
			continue
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}

		var result model.ClaimVerification
		if expired(ctx) {
			result = model.ErrorVerification(llm.StatusTimeout)
		} else {
			result = p.verifier.Verify(ctx, claim)
		}
		results = append(results, model.ClaimResult{
			Claim:      claim,
			Result:     result,
			SourceType: source,
		})
	}
	return results, nil
}

func expired(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (p *Pipeline) finished(kind string, start time.Time) {
	if p.observe != nil {
		p.observe(kind, p.now().Sub(start))
	}
}

func firstN(items []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
