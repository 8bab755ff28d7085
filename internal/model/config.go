package model

import "time"

// Config is the complete runtime configuration. It is built once at startup
// and passed by pointer to every component.
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	LLM         LLMConfig         `mapstructure:"llm" yaml:"llm"`
	Extract     ExtractConfig     `mapstructure:"extract" yaml:"extract"`
	Claims      ClaimsConfig      `mapstructure:"claims" yaml:"claims"`
	Endpoints   EndpointsConfig   `mapstructure:"endpoints" yaml:"endpoints"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`
}

// HTTPConfig controls outbound fetches
type HTTPConfig struct {
	PlatformTimeout time.Duration `mapstructure:"platform_timeout" yaml:"platform_timeout"` // Syndication, oEmbed, JSON APIs
	PageTimeout     time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`         // Generic HTML fetch
	ReaderTimeout   time.Duration `mapstructure:"reader_timeout" yaml:"reader_timeout"`     // Readable-content proxy
	UserAgents      []string      `mapstructure:"user_agents" yaml:"user_agents"`           // Rotated per request
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	InsecureTLS     bool          `mapstructure:"insecure_tls" yaml:"insecure_tls"`
	HTTPProxy       string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy      string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy         string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
	RequestsPerSec  float64       `mapstructure:"requests_per_sec" yaml:"requests_per_sec"` // Per domain, 0 disables
	Burst           int           `mapstructure:"burst" yaml:"burst"`
	RespectRobots   bool          `mapstructure:"respect_robots" yaml:"respect_robots"` // Generic page fetches only
}

// LLMConfig configures the reasoning service
type LLMConfig struct {
	Provider         string        `mapstructure:"provider" yaml:"provider"` // perplexity, openai, anthropic, ollama
	Model            string        `mapstructure:"model" yaml:"model"`
	APIKey           string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts      int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ExtractMaxTokens int           `mapstructure:"extract_max_tokens" yaml:"extract_max_tokens"`
	VerifyMaxTokens  int           `mapstructure:"verify_max_tokens" yaml:"verify_max_tokens"`
	ImageMaxTokens   int           `mapstructure:"image_max_tokens" yaml:"image_max_tokens"`
}

// Configured reports whether claim extraction and verification can run
func (c LLMConfig) Configured() bool {
	return c.APIKey != "" || c.Provider == "ollama"
}

// ExtractConfig bounds extraction output
type ExtractConfig struct {
	MaxTextChars        int           `mapstructure:"max_text_chars" yaml:"max_text_chars"`
	MaxImages           int           `mapstructure:"max_images" yaml:"max_images"`
	MinSpecializedChars int           `mapstructure:"min_specialized_chars" yaml:"min_specialized_chars"` // Below this the generic page is fetched
	MinBodyChars        int           `mapstructure:"min_body_chars" yaml:"min_body_chars"`               // Below this body text counts as blocked
	CacheTTL            time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`                         // 0 disables the result cache
}

// ClaimsConfig bounds claim extraction
type ClaimsConfig struct {
	MaxTextClaims      int `mapstructure:"max_text_claims" yaml:"max_text_claims"`
	MaxImageClaims     int `mapstructure:"max_image_claims" yaml:"max_image_claims"`
	PromptChars        int `mapstructure:"prompt_chars" yaml:"prompt_chars"`
	MaxImagesToAnalyze int `mapstructure:"max_images_to_analyze" yaml:"max_images_to_analyze"`
	MinFallbackWords   int `mapstructure:"min_fallback_words" yaml:"min_fallback_words"` // Whole text becomes one claim
}

// EndpointsConfig holds every upstream base URL so tests can point them at fakes
type EndpointsConfig struct {
	TwitterSyndication string `mapstructure:"twitter_syndication" yaml:"twitter_syndication"`
	TwitterOEmbed      string `mapstructure:"twitter_oembed" yaml:"twitter_oembed"`
	TwitterProxy       string `mapstructure:"twitter_proxy" yaml:"twitter_proxy"`
	TikTokOEmbed       string `mapstructure:"tiktok_oembed" yaml:"tiktok_oembed"`
	YouTubeOEmbed      string `mapstructure:"youtube_oembed" yaml:"youtube_oembed"`
	InstagramOEmbed    string `mapstructure:"instagram_oembed" yaml:"instagram_oembed"`
	FacebookOEmbed     string `mapstructure:"facebook_oembed" yaml:"facebook_oembed"`
	ReaderProxy        string `mapstructure:"reader_proxy" yaml:"reader_proxy"`
}

// CredentialsConfig holds optional platform credentials
type CredentialsConfig struct {
	FacebookAccessToken string `mapstructure:"facebook_access_token" yaml:"facebook_access_token,omitempty"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LogConfig configures zerolog output
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// BatchConfig configures the batch command
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	OutputDir   string        `mapstructure:"output_dir" yaml:"output_dir"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultUserAgent mimics a desktop Chrome; several platforms refuse anything else
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			PlatformTimeout: 10 * time.Second,
			PageTimeout:     12 * time.Second,
			ReaderTimeout:   14 * time.Second,
			UserAgents: []string{
				DefaultUserAgent,
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			},
			MaxBodyBytes:   5_000_000,
			RequestsPerSec: 2,
			Burst:          4,
		},
		LLM: LLMConfig{
			Provider:         "perplexity",
			Model:            "sonar-pro",
			Timeout:          30 * time.Second,
			MaxAttempts:      3,
			ExtractMaxTokens: 350,
			VerifyMaxTokens:  500,
			ImageMaxTokens:   500,
		},
		Extract: ExtractConfig{
			MaxTextChars:        12000,
			MaxImages:           10,
			MinSpecializedChars: 80,
			MinBodyChars:        200,
		},
		Claims: ClaimsConfig{
			MaxTextClaims:      6,
			MaxImageClaims:     4,
			PromptChars:        6000,
			MaxImagesToAnalyze: 1,
			MinFallbackWords:   6,
		},
		Endpoints: EndpointsConfig{
			TwitterSyndication: "https://cdn.syndication.twimg.com",
			TwitterOEmbed:      "https://publish.twitter.com/oembed",
			TwitterProxy:       "https://api.fxtwitter.com",
			TikTokOEmbed:       "https://www.tiktok.com/oembed",
			YouTubeOEmbed:      "https://www.youtube.com/oembed",
			InstagramOEmbed:    "https://graph.facebook.com/v19.0/instagram_oembed",
			FacebookOEmbed:     "https://graph.facebook.com/v19.0/oembed_post",
			ReaderProxy:        "https://r.jina.ai",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   3 * time.Minute,
			RequestTimeout: 3 * time.Minute,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Batch: BatchConfig{
			Concurrency: 4,
			OutputDir:   "./verdict-results",
			Timeout:     30 * time.Minute,
		},
	}
}
