// Package illustration composes image prompts and renders illustrations.
package illustration

import (
	"strings"

	"github.com/nerdenough/ai-storytime/internal/book"
)

// DefaultStylePrefix leads every page prompt.
const DefaultStylePrefix = "children's book illustration, watercolor, soft lighting, highly detailed"

var portraitLead = []string{"a close-up portrait", "headshot", "looking into the camera", "artwork"}
var portraitTail = []string{"very detailed", "realistic", "high quality", "masterpiece"}

// Composer builds the prompts sent to the image backend.
type Composer struct {
	StylePrefix string
}

// NewComposer returns a composer using prefix, or DefaultStylePrefix when empty.
func NewComposer(prefix string) Composer {
	if prefix == "" {
		prefix = DefaultStylePrefix
	}
	return Composer{StylePrefix: prefix}
}

// PagePrompt composes a scene prompt: style prefix, the image's own prompt in
// parentheses, the fragment of every referenced character, then the setting
// in brackets.
func (c Composer) PagePrompt(img *book.Image, b *book.Book) string {
	if img == nil {
		return ""
	}

	parts := []string{c.StylePrefix}
	if p := strings.TrimSpace(img.Prompt); p != "" {
		parts = append(parts, "("+p+")")
	}
	for i := range b.Characters {
		ch := &b.Characters[i]
		if !ReferencesCharacter(img, ch.Name) {
			continue
		}
		parts = append(parts, CharacterFragment(ch))
	}
	if sp := settingPrompt(b); sp != "" {
		parts = append(parts, "["+sp+"]")
	}
	return joinParts(parts)
}

// PortraitPrompt composes a headshot prompt for one character.
func (c Composer) PortraitPrompt(ch *book.Character, b *book.Book) string {
	parts := append([]string{}, portraitLead...)
	parts = append(parts, CharacterFragment(ch), settingPrompt(b))
	parts = append(parts, portraitTail...)
	return joinParts(parts)
}

// ReferencesCharacter reports whether img depicts the named character: the
// name is one of the comma-separated tokens of its prompt, or it is listed in
// the image's characters.
func ReferencesCharacter(img *book.Image, name string) bool {
	if img == nil || name == "" {
		return false
	}
	for _, listed := range img.Characters {
		if listed == name {
			return true
		}
	}
	for _, token := range strings.Split(img.Prompt, ",") {
		if strings.TrimSpace(token) == name {
			return true
		}
	}
	return false
}

// CharacterFragment is the visual description a character contributes to a
// prompt: its portrait prompt, or its prose description when it has none.
func CharacterFragment(ch *book.Character) string {
	if ch == nil {
		return ""
	}
	if ch.Image != nil && strings.TrimSpace(ch.Image.Prompt) != "" {
		return strings.TrimSpace(ch.Image.Prompt)
	}
	return strings.TrimSpace(ch.Description)
}

func settingPrompt(b *book.Book) string {
	if b == nil || b.Setting == nil {
		return ""
	}
	return strings.TrimSpace(b.Setting.Prompt)
}

func joinParts(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
