package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if len(req.Images) != 1 || req.Images[0] != "AAAA" {
			t.Errorf("Expected base64 payload without prefix, got %v", req.Images)
		}
		if req.Options.NumPredict != 500 {
			t.Errorf("Expected num_predict 500, got %d", req.Options.NumPredict)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llava",
			Response:        "NONE\n",
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       2,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), Request{Prompt: "p", ImageURL: "data:image/png;base64,AAAA", MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "NONE" || resp.TokensUsed != 12 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestOllamaProvider_RemoteImageUnsupported(t *testing.T) {
	provider, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1", Model: "llava"})
	_, err := provider.Complete(context.Background(), Request{Prompt: "p", ImageURL: "https://example.com/a.png"})
	if !errors.Is(err, ErrImageUnsupported) {
		t.Errorf("Expected ErrImageUnsupported, got %v", err)
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava' not found"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava"})
	_, err := provider.Complete(context.Background(), Request{Prompt: "p"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Message != "model 'llava' not found" {
		t.Errorf("Unexpected error: %+v", se)
	}
}

func TestOllamaProvider_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava"})
	if _, err := provider.Complete(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestOllamaProvider_NoModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}); err == nil {
		t.Error("Expected error without a model")
	}
}
