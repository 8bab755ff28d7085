package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// retryStep is the pause before the second attempt; later pauses grow linearly
const retryStep = 1200 * time.Millisecond

var llmSleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Client wraps a Provider with per-attempt timeouts and retries on
// transient failures
type Client struct {
	provider    Provider
	maxAttempts int
	timeout     time.Duration
	logger      zerolog.Logger
	observe     func(status string)
}

// NewClient builds the provider named in config and wraps it
func NewClient(config Config, logger zerolog.Logger) (*Client, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return NewClientWithProvider(provider, config, logger), nil
}

// NewClientWithProvider wraps an existing provider
func NewClientWithProvider(provider Provider, config Config, logger zerolog.Logger) *Client {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		provider:    provider,
		maxAttempts: attempts,
		timeout:     timeout,
		logger:      logger.With().Str("component", "llm").Str("provider", provider.Name()).Logger(),
	}
}

// WithObserver registers a callback receiving StatusLabel of every attempt
func (c *Client) WithObserver(observe func(status string)) *Client {
	c.observe = observe
	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return c.provider.Name()
}

// Complete returns the completion text. Transport errors and 429/5xx
// statuses are retried with a growing pause; any other status fails at once.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := llmSleepFunc(ctx, time.Duration(attempt)*retryStep); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		resp, err := c.provider.Complete(callCtx, req)
		cancel()

		if c.observe != nil {
			c.observe(StatusLabel(err))
		}
		if err == nil {
			c.logger.Debug().
				Int("attempt", attempt+1).
				Int("tokens", resp.TokensUsed).
				Dur("took", time.Since(start)).
				Msg("completion ok")
			return resp.Content, nil
		}

		lastErr = err
		if !c.retryable(ctx, err) {
			break
		}
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", c.maxAttempts).
			Msg("completion failed, will retry")
	}

	c.logger.Warn().Err(lastErr).Str("status", StatusLabel(lastErr)).Msg("completion failed")
	return "", lastErr
}

func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrImageUnsupported) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
