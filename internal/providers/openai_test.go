package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClient_Chat(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"chatcmpl-1",
			"object":"chat.completion",
			"created":1,
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"# A Story"}}],
			"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}
		}`))
	}))
	defer server.Close()

	temp := 0.0
	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages:    []Message{{Role: "user", Content: "write"}},
		Temperature: &temp,
		MaxTokens:   3000,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content != "# A Story" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", result.TotalTokens)
	}
	if got, _ := payload["model"].(string); got != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", got)
	}
	if got, _ := payload["max_completion_tokens"].(float64); got != 3000 {
		t.Errorf("max_completion_tokens = %v, want 3000", got)
	}
	if got, ok := payload["temperature"].(float64); !ok || got != 0 {
		t.Errorf("temperature = %v, want an explicit 0", payload["temperature"])
	}
	if _, ok := payload["response_format"]; ok {
		t.Errorf("response_format sent without being requested: %v", payload["response_format"])
	}
}

func TestOpenAIClient_ChatResponseFormat(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"chatcmpl-2",
			"object":"chat.completion",
			"created":1,
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{}"}}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})

	t.Run("json_schema carries the schema", func(t *testing.T) {
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "json please"}},
			ResponseFormat: &ResponseFormat{
				Type:       "json_schema",
				JSONSchema: json.RawMessage(`{"name":"illustrated_book","strict":false,"schema":{"type":"object","required":["title"]}}`),
			},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		rf, _ := payload["response_format"].(map[string]any)
		if rf["type"] != "json_schema" {
			t.Fatalf("response_format = %v, want json_schema", payload["response_format"])
		}
		js, _ := rf["json_schema"].(map[string]any)
		if js["name"] != "illustrated_book" {
			t.Errorf("json_schema.name = %v", js["name"])
		}
		if strict, ok := js["strict"].(bool); !ok || strict {
			t.Errorf("json_schema.strict = %v, want false", js["strict"])
		}
		schema, _ := js["schema"].(map[string]any)
		if schema["type"] != "object" {
			t.Errorf("json_schema.schema = %v", js["schema"])
		}
	})

	t.Run("json_object without schema", func(t *testing.T) {
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "json please"}},
			ResponseFormat: &ResponseFormat{Type: "json_object"},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		rf, _ := payload["response_format"].(map[string]any)
		if rf["type"] != "json_object" {
			t.Errorf("response_format = %v, want json_object", payload["response_format"])
		}
	})

	t.Run("schema without name is rejected", func(t *testing.T) {
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "json please"}},
			ResponseFormat: &ResponseFormat{
				Type:       "json_schema",
				JSONSchema: json.RawMessage(`{"schema":{"type":"object"}}`),
			},
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestOpenAIClient_ChatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "write"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Success {
		t.Error("expected Success = false")
	}
}

func TestOpenAIImageClient_Generate(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(mockPNG)}},
		})
	}))
	defer server.Close()

	client := NewOpenAIImageClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Generate(context.Background(), &ImageRequest{
		Prompt: "a cave",
		Seed:   7,
		Width:  768,
		Height: 512,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType = %s, want image/png", result.MimeType)
	}
	if got, _ := payload["size"].(string); got != "1792x1024" {
		t.Errorf("size = %q, want 1792x1024", got)
	}
	if got, _ := payload["response_format"].(string); got != "b64_json" {
		t.Errorf("response_format = %q, want b64_json", got)
	}
}

func TestOpenAIImageSize(t *testing.T) {
	tests := []struct {
		model         string
		width, height int
		want          string
	}{
		{"dall-e-3", 512, 512, "1024x1024"},
		{"dall-e-3", 768, 512, "1792x1024"},
		{"dall-e-3", 512, 768, "1024x1792"},
		{"dall-e-2", 768, 512, "512x512"},
		{"gpt-image-1", 768, 512, "1536x1024"},
	}
	for _, tt := range tests {
		if got := openAIImageSize(tt.model, tt.width, tt.height); got != tt.want {
			t.Errorf("openAIImageSize(%s, %d, %d) = %s, want %s", tt.model, tt.width, tt.height, got, tt.want)
		}
	}
}
