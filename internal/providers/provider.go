package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string
}

// ImageGenerator renders one image from a text prompt.
// Separate from LLMClient because it returns binary data and has its own
// rate limits and sampler settings.
type ImageGenerator interface {
	// Generate renders a single image.
	Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error)

	// Name returns the generator identifier (e.g., "sdwebui").
	Name() string
}

// HealthChecker is implemented by backends that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_object" or "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Temperature is left to the backend when nil. Zero is a valid setting.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`

	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`
	TotalTime     time.Duration `json:"total_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ImageRequest is a request to an image backend.
type ImageRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Seed           int64  `json:"seed"`

	// Sampler settings. Backends that do not expose them ignore these.
	Sampler  string  `json:"sampler,omitempty"`
	Steps    int     `json:"steps,omitempty"`
	CFGScale float64 `json:"cfg_scale,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageResult is a rendered image.
type ImageResult struct {
	Data     []byte        `json:"-"`
	MimeType string        `json:"mime_type"`
	Seed     int64         `json:"seed"`
	Provider string        `json:"provider"`
	Latency  time.Duration `json:"latency"`
}
