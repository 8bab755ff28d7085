package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedProvider replays a fixed sequence of outcomes; nil means success
type scriptedProvider struct {
	outcomes []error
	calls    int
	lastReq  Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	p.lastReq = req
	i := p.calls
	p.calls++
	if i < len(p.outcomes) && p.outcomes[i] != nil {
		return nil, p.outcomes[i]
	}
	return &Response{Content: "ok"}, nil
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := llmSleepFunc
	llmSleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	t.Cleanup(func() { llmSleepFunc = orig })
	return &slept
}

func newScriptedClient(outcomes ...error) (*Client, *scriptedProvider) {
	p := &scriptedProvider{outcomes: outcomes}
	return NewClientWithProvider(p, Config{MaxAttempts: 3, Timeout: time.Second}, zerolog.Nop()), p
}

func TestClient_RetriesTransientStatuses(t *testing.T) {
	slept := stubSleep(t)
	client, p := newScriptedClient(&StatusError{StatusCode: 503}, &StatusError{StatusCode: 503}, nil)

	var observed []string
	client.WithObserver(func(status string) { observed = append(observed, status) })

	content, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if content != "ok" {
		t.Errorf("Expected ok, got %q", content)
	}
	if p.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", p.calls)
	}

	want := []time.Duration{1200 * time.Millisecond, 2400 * time.Millisecond}
	if len(*slept) != 2 || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Errorf("Expected pauses %v, got %v", want, *slept)
	}
	if len(observed) != 3 || observed[0] != "503" || observed[2] != "200" {
		t.Errorf("Unexpected observed statuses: %v", observed)
	}
}

func TestClient_NonRetryableStatus(t *testing.T) {
	slept := stubSleep(t)
	client, p := newScriptedClient(&StatusError{StatusCode: 404})

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if StatusLabel(err) != "404" {
		t.Errorf("Expected 404, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Expected a single attempt, got %d", p.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no pause, got %v", *slept)
	}
}

func TestClient_ExhaustsAttempts(t *testing.T) {
	slept := stubSleep(t)
	transport := errors.New("connection refused")
	client, p := newScriptedClient(&StatusError{StatusCode: 429}, transport, transport)

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, transport) {
		t.Errorf("Expected last transport error, got %v", err)
	}
	if StatusLabel(err) != "no-response" {
		t.Errorf("Expected no-response label, got %s", StatusLabel(err))
	}
	if p.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", p.calls)
	}
	if len(*slept) != 2 {
		t.Errorf("Expected no pause after the last attempt, got %v", *slept)
	}
}

func TestClient_ImageUnsupportedNotRetried(t *testing.T) {
	stubSleep(t)
	client, p := newScriptedClient(ErrImageUnsupported)

	if _, err := client.Complete(context.Background(), Request{Prompt: "x", ImageURL: "https://a/b.png"}); !errors.Is(err, ErrImageUnsupported) {
		t.Errorf("Expected ErrImageUnsupported, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Expected a single attempt, got %d", p.calls)
	}
}

func TestClient_CancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	orig := llmSleepFunc
	llmSleepFunc = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	t.Cleanup(func() { llmSleepFunc = orig })

	client, p := newScriptedClient(&StatusError{StatusCode: 500}, nil)
	if _, err := client.Complete(ctx, Request{Prompt: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", p.calls)
	}
}

func TestClient_MinimumOneAttempt(t *testing.T) {
	p := &scriptedProvider{}
	client := NewClientWithProvider(p, Config{}, zerolog.Nop())
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if p.calls != 1 || client.Name() != "scripted" {
		t.Errorf("Expected one call on scripted, got %d on %s", p.calls, client.Name())
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(nil) != "200" {
		t.Error("Expected 200 for success")
	}
	if StatusLabel(&StatusError{StatusCode: 502}) != "502" {
		t.Error("Expected 502")
	}
	if StatusLabel(errors.New("dial tcp")) != "no-response" {
		t.Error("Expected no-response")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		config  Config
		name    string
		wantErr bool
	}{
		{Config{Provider: "perplexity", APIKey: "k"}, "perplexity", false},
		{Config{Provider: "", APIKey: "k"}, "perplexity", false},
		{Config{Provider: "OpenAI", APIKey: "k"}, "openai", false},
		{Config{Provider: "claude", APIKey: "k"}, "anthropic", false},
		{Config{Provider: "ollama", Model: "llava"}, "ollama", false},
		{Config{Provider: "ollama"}, "", true},
		{Config{Provider: "perplexity"}, "", true},
		{Config{Provider: "bogus", APIKey: "k"}, "", true},
	}
	for _, tt := range tests {
		p, err := NewProvider(tt.config)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %+v", tt.config)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %+v: %v", tt.config, err)
			continue
		}
		if p.Name() != tt.name {
			t.Errorf("Expected %s, got %s", tt.name, p.Name())
		}
	}
}

func TestSplitDataURL(t *testing.T) {
	mt, data, ok := splitDataURL("data:image/jpeg;base64,/9j/AAA=")
	if !ok || mt != "image/jpeg" || data != "/9j/AAA=" {
		t.Errorf("Unexpected split: %q %q %v", mt, data, ok)
	}
	if _, _, ok := splitDataURL("https://example.com/a.png"); ok {
		t.Error("Expected http URL to be rejected")
	}
	if _, _, ok := splitDataURL("data:text/plain,hello"); ok {
		t.Error("Expected non-base64 data URL to be rejected")
	}
}
