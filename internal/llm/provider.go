package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/verdict/internal/model"
)

// Provider sends a single completion request to a reasoning service
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete performs one attempt. Non-200 answers are *StatusError.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one user turn, optionally with an image
type Request struct {
	Prompt string

	// ImageURL is an http(s) or data: URL sent as a multimodal part
	ImageURL string

	MaxTokens int
}

// Response is the first choice of a completion
type Response struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "perplexity", "openai", "anthropic", "ollama"
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout bounds each attempt, not the whole retry sequence
	Timeout time.Duration

	MaxAttempts int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the application config
func ConfigFromModel(llm model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    llm.Provider,
		Model:       llm.Model,
		APIKey:      llm.APIKey,
		BaseURL:     llm.BaseURL,
		Timeout:     llm.Timeout,
		MaxAttempts: llm.MaxAttempts,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}

// StatusError is a non-200 answer from the reasoning service
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d)", e.StatusCode)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ErrImageUnsupported is returned by providers that cannot take the given image form
var ErrImageUnsupported = errors.New("image input not supported by provider")

// StatusTimeout labels calls cut short by the request deadline
const StatusTimeout = "timeout"

// StatusLabel renders the outcome of a call: the HTTP status, "200" on
// success, or "no-response" when no status was received
func StatusLabel(err error) string {
	if err == nil {
		return "200"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("%d", se.StatusCode)
	}
	return "no-response"
}

// splitDataURL returns media type and base64 payload of a data: URL
func splitDataURL(raw string) (mediaType, data string, ok bool) {
	if !strings.HasPrefix(raw, "data:") {
		return "", "", false
	}
	header, payload, found := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", "", false
	}
	return strings.TrimSuffix(header, ";base64"), payload, true
}
