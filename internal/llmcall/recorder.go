package llmcall

import (
	"log/slog"

	"github.com/nerdenough/ai-storytime/internal/providers"
)

// Recorder writes call records without ever failing the caller.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a new LLM call recorder. A nil store disables recording.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record captures an LLM call and returns its ID, or "" when nothing was written.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) string {
	if r == nil || r.store == nil {
		return ""
	}
	return r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) string {
	if r == nil || r.store == nil || call == nil {
		return ""
	}
	if err := r.store.Save(call); err != nil {
		r.logger.Warn("failed to record llm call", "id", call.ID, "prompt_key", call.PromptKey, "error", err)
		return ""
	}
	return call.ID
}
