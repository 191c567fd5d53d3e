// Package llmcall records every language-model call for traceability.
// Each call keeps the prompt key and hash, the raw response and its metrics,
// so a malformed story can be diagnosed after the pipeline has given up on it.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerdenough/ai-storytime/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Book the call was made for. Empty when the book was never allocated.
	BookID string `json:"book_id,omitempty"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"`
	Prompt     string `json:"prompt,omitempty"`

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
	Attempts    int      `json:"attempts,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Response
	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	BookID string

	// Prompt identification (required for traceability)
	PromptKey  string
	PromptHash string
	Prompt     string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
	MaxTokens   int
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		BookID:       opts.BookID,
		PromptKey:    opts.PromptKey,
		PromptHash:   opts.PromptHash,
		Prompt:       opts.Prompt,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
		RequestID:    result.RequestID,
		Attempts:     result.Attempts,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Response:     result.Content,
		Success:      result.Success,
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}
	return call
}
