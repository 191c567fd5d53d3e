package prompts

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"text/template"
)

// Resolver resolves prompts with configured overrides.
// Resolution order: override > embedded default
type Resolver struct {
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a resolver with the book prompts registered.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		logger:    logger,
	}
	RegisterBookPrompts(r)
	return r
}

// Register registers an embedded prompt.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// SetOverride replaces the text used for key. An empty text clears the override.
// The override must parse as a template.
func (r *Resolver) SetOverride(key, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.embedded[key]; !ok {
		return fmt.Errorf("prompt not found: %s", key)
	}
	if text == "" {
		delete(r.overrides, key)
		return nil
	}
	if _, err := template.New(key).Parse(text); err != nil {
		return fmt.Errorf("invalid override for %s: %w", key, err)
	}
	r.overrides[key] = text
	return nil
}

// Resolve returns the override for key if one is set, otherwise the embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       text,
			Variables:  ExtractVariables(text),
			IsOverride: true,
			Hash:       HashText(text),
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}
	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Render resolves key and executes it against data.
func (r *Resolver) Render(key string, data any) (string, *ResolvedPrompt, error) {
	resolved, err := r.Resolve(key)
	if err != nil {
		return "", nil, err
	}

	tmpl, err := template.New(key).Option("missingkey=error").Parse(resolved.Text)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse prompt %s: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", nil, fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return buf.String(), resolved, nil
}

// List returns every registered prompt resolved, sorted by key.
func (r *Resolver) List() []*ResolvedPrompt {
	r.mu.RLock()
	keys := make([]string, 0, len(r.embedded))
	for k := range r.embedded {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)

	out := make([]*ResolvedPrompt, 0, len(keys))
	for _, k := range keys {
		if p, err := r.Resolve(k); err == nil {
			out = append(out, p)
		}
	}
	return out
}
