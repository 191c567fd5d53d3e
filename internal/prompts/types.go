// Package prompts holds the instruction templates sent to the language model.
//
// Embedded .tmpl files are the defaults. A deployment may override any of them
// by key through configuration; the resolved text is hashed so every recorded
// model call can be traced back to the exact wording that produced it.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: book.markdown
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the text that will actually be rendered for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
	Hash       string   `json:"hash"`
}

// BookData is the template input for the book instruction prompts.
type BookData struct {
	Prompt             string
	NumParagraphs      int
	MaxParagraphLength int
}
