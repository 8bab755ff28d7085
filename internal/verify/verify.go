package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/verdict/internal/llm"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/rs/zerolog"
)

const verifyPrompt = "Fact-check this claim with high accuracy. Provide:\n" +
	"1. Verdict (TRUE/FALSE/PARTIALLY TRUE/INSUFFICIENT EVIDENCE)\n" +
	"2. Confidence level (0-100%%)\n" +
	"3. Brief explanation (2-3 sentences)\n" +
	"4. Key sources used as a list of canonical URLs. Each source MUST be a full http(s) URL. " +
	"Do not include reference numbers or titles, only URLs.\n\n" +
	"Claim: %s\n\n" +
	"Format your response as JSON with keys: verdict, confidence, explanation, sources"

const (
	// MaxSources caps the sources kept per verification
	MaxSources = 5

	// FallbackSource stands in for sources when the answer was prose without links
	FallbackSource = "Reasoning service analysis"

	defaultConfidence  = 75
	defaultExplanation = "Analysis completed"
)

var (
	urlPattern    = regexp.MustCompile(`(?i)https?://[^\s)\]}"'<>]+`)
	httpPrefix    = regexp.MustCompile(`(?i)^https?://`)
	openingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	closingFence  = regexp.MustCompile("\\s*```$")
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Completer is the reasoning-service call the verifier needs
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Verifier judges single claims through the reasoning service
type Verifier struct {
	llm       Completer
	maxTokens int
	logger    zerolog.Logger
}

// NewVerifier creates a Verifier
func NewVerifier(client Completer, cfg *model.Config, logger zerolog.Logger) *Verifier {
	return &Verifier{
		llm:       client,
		maxTokens: cfg.LLM.VerifyMaxTokens,
		logger:    logger.With().Str("component", "verify").Logger(),
	}
}

// Verify never fails: upstream errors become an ERROR verification naming
// the last status seen
func (v *Verifier) Verify(ctx context.Context, claim string) model.ClaimVerification {
	content, err := v.llm.Complete(ctx, llm.Request{
		Prompt:    fmt.Sprintf(verifyPrompt, claim),
		MaxTokens: v.maxTokens,
	})
	if err != nil {
		status := llm.StatusLabel(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = llm.StatusTimeout
		}
		v.logger.Warn().Err(err).Str("status", status).Msg("claim verification failed")
		return model.ErrorVerification(status)
	}

	result := ParseVerification(content)
	v.logger.Debug().
		Str("verdict", string(result.Verdict)).
		Int("confidence", result.Confidence).
		Int("sources", len(result.Sources)).
		Msg("claim verified")
	return result
}

// ParseVerification reads a reasoning-service answer. It tries the whole
// answer as JSON (code fences removed), then the outermost {...} inside it,
// and finally treats it as prose.
func ParseVerification(content string) model.ClaimVerification {
	if obj, ok := parseJSONBlock(content); ok {
		return fromObject(obj)
	}

	sources := scrapeURLs(content)
	if len(sources) == 0 {
		sources = []string{FallbackSource}
	}
	return model.ClaimVerification{
		Verdict:     model.VerdictAnalysisComplete,
		Confidence:  defaultConfidence,
		Explanation: content,
		Sources:     sources,
	}
}

func parseJSONBlock(content string) (map[string]any, bool) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = openingFence.ReplaceAllString(s, "")
		s = closingFence.ReplaceAllString(s, "")
	}
	if len(s) >= 5 && strings.EqualFold(s[:5], "json ") {
		s = strings.TrimSpace(s[5:])
	}

	if obj, ok := decodeObject(s); ok {
		return obj, true
	}

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start != -1 && end > start {
		return decodeObject(s[start : end+1])
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil || raw == nil {
		return nil, false
	}
	obj := make(map[string]any, len(raw))
	for k, v := range raw {
		obj[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return obj, true
}

func fromObject(obj map[string]any) model.ClaimVerification {
	result := model.ClaimVerification{
		Verdict:     model.VerdictInsufficientEvidence,
		Confidence:  parseConfidence(obj["confidence"]),
		Explanation: defaultExplanation,
	}
	if s, ok := obj["verdict"].(string); ok {
		result.Verdict = model.ParseVerdict(s)
	}
	if s, ok := obj["explanation"].(string); ok && strings.TrimSpace(s) != "" {
		result.Explanation = strings.TrimSpace(s)
	}

	sources := collectSources(obj["sources"])
	if len(sources) == 0 {
		sources = scrapeURLs(result.Explanation)
	}
	if sources == nil {
		sources = []string{}
	}
	result.Sources = sources
	return result
}

// parseConfidence accepts 85, 85.5, "85", "85%"; anything else is the default
func parseConfidence(v any) int {
	var f float64
	switch c := v.(type) {
	case float64:
		f = c
	case string:
		m := numberPattern.FindString(c)
		if m == "" {
			return defaultConfidence
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}

	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// collectSources keeps http(s) entries from a list or a single string.
// List items may also be objects carrying a url field.
func collectSources(v any) []string {
	var candidates []string
	switch s := v.(type) {
	case string:
		candidates = append(candidates, s)
	case []any:
		for _, item := range s {
			switch it := item.(type) {
			case string:
				candidates = append(candidates, it)
			case map[string]any:
				if u, ok := it["url"].(string); ok {
					candidates = append(candidates, u)
				}
			}
		}
	}

	var urls []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if !httpPrefix.MatchString(c) {
			continue
		}
		urls = append(urls, cleanURL(urlPattern.FindString(c)))
	}
	return capSources(urls)
}

func scrapeURLs(text string) []string {
	var urls []string
	for _, m := range urlPattern.FindAllString(text, -1) {
		urls = append(urls, cleanURL(m))
	}
	return capSources(urls)
}

func cleanURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;:!?")
}

func capSources(urls []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == MaxSources {
			break
		}
	}
	return out
}
