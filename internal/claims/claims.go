package claims

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/llm"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/rs/zerolog"
)

const textPrompt = "Extract up to %d factual claims EXPLICITLY stated in this text. " +
	"Do not infer, assume, or use outside knowledge. " +
	"Do not generate claims about people/entities unless directly asserted in the text. " +
	"Return ONLY a numbered list. If there are no factual claims, reply with EXACTLY 'NONE'.\n\n" +
	"Text: %s"

const imagePrompt = "Analyze this image. Extract all factual claims that a third-party could verify. " +
	"Return ONLY the claims as a numbered list. If none, respond with 'NONE'."

var (
	sentinelSeparators = regexp.MustCompile(`[\s.!:]+`)
	listNumber         = regexp.MustCompile(`^\d+[).]\s*`)
)

// Completer is the reasoning-service call the extractor needs
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Extractor asks the reasoning service for claims in text or images
type Extractor struct {
	llm         Completer
	cfg         model.ClaimsConfig
	textTokens  int
	imageTokens int
	logger      zerolog.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(client Completer, cfg *model.Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		llm:         client,
		cfg:         cfg.Claims,
		textTokens:  cfg.LLM.ExtractMaxTokens,
		imageTokens: cfg.LLM.ImageMaxTokens,
		logger:      logger.With().Str("component", "claims").Logger(),
	}
}

// ExtractFromText returns up to max_text_claims claims stated in text. An
// upstream failure or an expired deadline yields no claims; only
// cancellation is an error.
func (e *Extractor) ExtractFromText(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(textPrompt, e.cfg.MaxTextClaims, extract.Truncate(text, e.cfg.PromptChars))
	content, err := e.llm.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: e.textTokens})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		e.logger.Warn().Err(err).Str("status", llm.StatusLabel(err)).Msg("text claim extraction failed")
		return nil, nil
	}

	claims := ParseClaimList(content, e.cfg.MaxTextClaims)
	e.logger.Debug().Int("claims", len(claims)).Msg("text claims extracted")
	return claims, nil
}

// ExtractFromImage returns up to max_image_claims claims read from an image.
// The inline data URL is preferred over the remote URL.
func (e *Extractor) ExtractFromImage(ctx context.Context, image model.ImageRef) ([]string, error) {
	if image.Empty() {
		return nil, nil
	}

	content, err := e.llm.Complete(ctx, llm.Request{
		Prompt:    imagePrompt,
		ImageURL:  image.Location(),
		MaxTokens: e.imageTokens,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		e.logger.Warn().Err(err).Str("status", llm.StatusLabel(err)).Msg("image claim extraction failed")
		return nil, nil
	}

	claims := ParseClaimList(content, e.cfg.MaxImageClaims)
	e.logger.Debug().Int("claims", len(claims)).Msg("image claims extracted")
	return claims, nil
}

// ParseClaimList turns a numbered or bulleted list into claims, capped at
// max (0 means no cap). A bare NONE-style answer yields nil.
func ParseClaimList(content string, max int) []string {
	if IsNoClaims(content) {
		return nil
	}

	var claims []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*•")
		line = strings.TrimSpace(listNumber.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" || IsNoClaims(line) {
			continue
		}
		claims = append(claims, line)
		if max > 0 && len(claims) == max {
			break
		}
	}
	return claims
}

// IsNoClaims recognises "NONE", "No claims.", "no factual claims!" and similar
func IsNoClaims(s string) bool {
	normalized := strings.TrimSpace(sentinelSeparators.ReplaceAllString(strings.ToLower(s), " "))
	switch normalized {
	case "none", "no claims", "no factual claims":
		return true
	}
	return false
}
