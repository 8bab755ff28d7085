package llm

import (
	"fmt"
	"strings"
)

// PerplexityBaseURL is the default endpoint for the perplexity provider
const PerplexityBaseURL = "https://api.perplexity.ai"

// NewProvider creates a provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "perplexity", "":
		if config.BaseURL == "" {
			config.BaseURL = PerplexityBaseURL
		}
		if config.Model == "" {
			config.Model = "sonar-pro"
		}
		return NewOpenAIProvider("perplexity", config)

	case "openai":
		return NewOpenAIProvider("openai", config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: perplexity, openai, anthropic, ollama)", config.Provider)
	}
}
