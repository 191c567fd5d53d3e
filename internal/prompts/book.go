package prompts

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed book_json.tmpl
var bookJSONPrompt string

//go:embed book_markdown.tmpl
var bookMarkdownPrompt string

//go:embed book_schema.json
var bookSchema []byte

// Prompt keys
const (
	BookJSONKey     = "book.json"
	BookMarkdownKey = "book.markdown"
)

// BookSchema returns the JSON schema the structured book record must satisfy,
// wrapped as {"name","strict","schema"} for response_format.
func BookSchema() json.RawMessage {
	return json.RawMessage(bookSchema)
}

// RegisterBookPrompts registers the book instruction prompts with the resolver.
func RegisterBookPrompts(r *Resolver) {
	r.Register(EmbeddedPrompt{
		Key:         BookJSONKey,
		Text:        strings.TrimSpace(bookJSONPrompt),
		Description: "Story instruction for the structured JSON layout",
	})
	r.Register(EmbeddedPrompt{
		Key:         BookMarkdownKey,
		Text:        strings.TrimSpace(bookMarkdownPrompt),
		Description: "Story instruction for the markdown layout with italic captions",
	})
}
