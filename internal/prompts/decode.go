package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nerdenough/ai-storytime/internal/book"
)

// RecordError reports why model output could not become a book.
// Path names the offending part of the record, e.g. "pages[0].image".
type RecordError struct {
	Path   string
	Reason string
}

func (e *RecordError) Error() string {
	if e.Path == "" {
		return "book record: " + e.Reason
	}
	return fmt.Sprintf("book record %s: %s", e.Path, e.Reason)
}

// RecordErrors is every schema violation found in one record.
type RecordErrors []*RecordError

func (es RecordErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var compiledBookSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var wrapper struct {
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(bookSchema, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid book schema: %w", err)
	}
	return jsonschema.CompileString("book_schema.json", string(wrapper.Schema))
})

// DecodeBook turns the model's answer for the JSON layout into a book.
// The record may be wrapped in a markdown code fence or surrounded by
// prose. URLs in the record are dropped; only rendering sets them.
func DecodeBook(text string) (*book.Book, error) {
	raw, err := recoverObject(text)
	if err != nil {
		return nil, err
	}

	schema, err := compiledBookSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &RecordError{Reason: err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, recordErrors(ve)
		}
		return nil, &RecordError{Reason: err.Error()}
	}

	var b book.Book
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &RecordError{Reason: err.Error()}
	}
	for i := range b.Pages {
		if img := b.Pages[i].Image; img != nil {
			img.URL = ""
		}
	}
	for i := range b.Characters {
		if img := b.Characters[i].Image; img != nil {
			img.URL = ""
		}
	}
	return &b, nil
}

// recoverObject finds the JSON object in model text: the whole answer, the
// body of a code fence, or the span from the first { to the last }.
func recoverObject(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &RecordError{Reason: "empty answer"}
	}

	candidates := []string{text}
	if body, ok := fenceBody(text); ok {
		candidates = append(candidates, body)
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		if json.Valid([]byte(c)) {
			return []byte(c), nil
		}
	}
	return nil, &RecordError{Reason: "answer contains no JSON object"}
}

func fenceBody(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return "", false
	}
	_, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest), true
}

// recordErrors flattens a validation tree to its leaves.
func recordErrors(ve *jsonschema.ValidationError) RecordErrors {
	var out RecordErrors
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, &RecordError{Path: recordPath(e.InstanceLocation), Reason: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

// recordPath renders a JSON pointer like /pages/0/image as pages[0].image.
func recordPath(pointer string) string {
	var sb strings.Builder
	for _, seg := range strings.Split(strings.Trim(pointer, "/"), "/") {
		if seg == "" {
			continue
		}
		if seg[0] >= '0' && seg[0] <= '9' {
			sb.WriteString("[" + seg + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}
