package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "VERDICT"

// Keys that are empty by default and therefore absent from the defaults
// document; viper only resolves env vars for keys it knows.
var optionalKeys = []string{
	"llm.base_url",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
	"credentials.facebook_access_token",
}

// setupViper layers defaults, the config file, .env and the environment.
// Flags are bound by the commands themselves.
func setupViper(v *viper.Viper, configFile string) error {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("read defaults: %w", err)
	}
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The service has always read the provider's own variable names
	_ = v.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY", "PERPLEXITY_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")

	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		configFile = filepath.Join(home, ".verdict", "config.yaml")
		if _, err := os.Stat(configFile); err != nil {
			return nil
		}
	}
	v.SetConfigFile(configFile)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", configFile, err)
	}
	return nil
}

// loadConfig resolves the layered settings into a Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return &cfg, nil
}

// newLogger builds the process logger from log settings
func newLogger(cfg model.LogConfig, debug bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	if strings.EqualFold(cfg.Format, "json") {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
