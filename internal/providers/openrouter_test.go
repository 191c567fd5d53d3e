package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func openRouterOK(content string) map[string]any {
	return map[string]any{
		"id":    "test-id",
		"model": "openai/gpt-4o-mini",
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}
}

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		temp := 0.9
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			json.NewDecoder(r.Body).Decode(&received)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openRouterOK("Once upon a time"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:    []Message{{Role: "user", Content: "Tell me a story"}},
			Temperature: &temp,
			MaxTokens:   750,
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Error("expected Success = true")
		}
		if result.Content != "Once upon a time" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.TotalTokens != 18 {
			t.Errorf("TotalTokens = %d, want 18", result.TotalTokens)
		}
		if received.MaxTokens != 750 || received.Temperature == nil || *received.Temperature != 0.9 {
			t.Errorf("request params = %d/%v, want 750/0.9", received.MaxTokens, received.Temperature)
		}
	})

	t.Run("structured output format is forwarded", func(t *testing.T) {
		var received openRouterRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&received)
			json.NewEncoder(w).Encode(openRouterOK(`{"title":"x"}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "json please"}},
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if received.ResponseFormat == nil || received.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v, want json_object", received.ResponseFormat)
		}
	})

	t.Run("API error surfaces without retry by default", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "Rate limit exceeded"}}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err == nil {
			t.Error("expected error")
		}
		if result.Success {
			t.Error("expected Success = false")
		}
		if result.ErrorType != "http_error" {
			t.Errorf("ErrorType = %s, want http_error", result.ErrorType)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("calls = %d, want 1", got)
		}
	})

	t.Run("retries transient errors when configured", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(openRouterOK("ok"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
		})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", result.Attempts)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"x","choices":[]}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err == nil {
			t.Fatal("expected error for empty choices")
		}
		if result.ErrorType != "empty_response" {
			t.Errorf("ErrorType = %s, want empty_response", result.ErrorType)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Chat(ctx, &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
		})
		if err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestOpenRouterClient_Config(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "test-key"})

	if client.Name() != OpenRouterName {
		t.Errorf("Name() = %s, want %s", client.Name(), OpenRouterName)
	}
	if client.baseURL != OpenRouterBaseURL {
		t.Errorf("baseURL = %s, want %s", client.baseURL, OpenRouterBaseURL)
	}
	if client.maxRetries != 1 {
		t.Errorf("maxRetries = %d, want 1", client.maxRetries)
	}
}

// TestOpenRouterIntegration runs a real call against the OpenRouter API.
// Requires OPENROUTER_API_KEY environment variable to be set.
func TestOpenRouterIntegration(t *testing.T) {
	cfg := LoadTestConfig()
	if !cfg.HasOpenRouter() {
		t.Skip("OPENROUTER_API_KEY not set - skipping integration test")
	}

	client := cfg.NewOpenRouterClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.Chat(ctx, &ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "Say 'hello' and nothing else."},
		},
		MaxTokens: 10,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content == "" {
		t.Error("expected non-empty content")
	}
	t.Logf("Response: %q (%s, %v)", result.Content, result.ModelUsed, result.ExecutionTime)
}
