package cli

import (
	"fmt"

	"github.com/ppiankov/verdict/internal/extract"
	"github.com/ppiankov/verdict/internal/extract/adapters"
	"github.com/ppiankov/verdict/internal/fetch"
	"github.com/ppiankov/verdict/internal/llm"
	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/monitoring"
	"github.com/ppiankov/verdict/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// app is everything a command needs, built once from config
type app struct {
	config   *model.Config
	logger   zerolog.Logger
	metrics  *monitoring.Metrics
	pipeline *pipeline.Pipeline
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, verbose)
	metrics := monitoring.NewMetrics()

	p, err := buildPipeline(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}
	return &app{config: cfg, logger: logger, metrics: metrics, pipeline: p}, nil
}

// buildPipeline wires fetcher, platform registry, extractor and the
// reasoning-service client. Without a credential the pipeline can still extract.
func buildPipeline(cfg *model.Config, metrics *monitoring.Metrics, logger zerolog.Logger) (*pipeline.Pipeline, error) {
	fetcher := fetch.NewFetcher(cfg.HTTP, logger)
	registry := adapters.NewRegistry(cfg, fetcher, logger).WithObserver(metrics.ObserveExtraction)
	extractor := extract.NewExtractor(cfg, fetcher, registry, logger)

	var completer pipeline.Completer
	if cfg.LLM.Configured() {
		client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM, cfg.HTTP), logger)
		if err != nil {
			return nil, fmt.Errorf("reasoning service: %w", err)
		}
		completer = client.WithObserver(metrics.ObserveLLM)
		logger.Debug().Str("provider", client.Name()).Str("model", cfg.LLM.Model).Msg("reasoning service configured")
	} else {
		logger.Warn().Msg("no reasoning service API key configured; only extraction is available")
	}

	return pipeline.New(cfg, extractor, completer, logger).WithObserver(metrics.ObserveFactCheck), nil
}
