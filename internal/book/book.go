// Package book holds the illustrated book model and its on-disk store.
package book

import (
	"fmt"
	"strings"
)

// Book is a generated illustrated story.
type Book struct {
	Identifier string      `json:"identifier"`
	Title      string      `json:"title"`
	Prompt     string      `json:"prompt"`
	Pages      []Page      `json:"pages"`
	Characters []Character `json:"characters,omitempty"`
	Setting    *Setting    `json:"setting,omitempty"`

	// Markdown is the rewritten story text for the markdown layout.
	Markdown string `json:"markdown,omitempty"`
}

// Page is one paragraph of narrative with an optional illustration.
type Page struct {
	Text  string `json:"text"`
	Image *Image `json:"image,omitempty"`
}

// Character is a recurring figure in the story.
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       *Image `json:"image,omitempty"`
}

// Setting describes time, place and atmosphere shared by every illustration.
type Setting struct {
	Description string `json:"description,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// Image describes an illustration. URL is set only once the image exists.
type Image struct {
	Caption    string   `json:"caption"`
	Prompt     string   `json:"prompt"`
	Characters []string `json:"characters,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// Illustrated reports whether the image has been rendered.
func (i *Image) Illustrated() bool {
	return i != nil && i.URL != ""
}

// Clone returns a deep copy of the image.
func (i *Image) Clone() *Image {
	if i == nil {
		return nil
	}
	c := *i
	if i.Characters != nil {
		c.Characters = append([]string(nil), i.Characters...)
	}
	return &c
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	if b.Pages != nil {
		c.Pages = make([]Page, len(b.Pages))
		for i, p := range b.Pages {
			c.Pages[i] = Page{Text: p.Text, Image: p.Image.Clone()}
		}
	}
	if b.Characters != nil {
		c.Characters = make([]Character, len(b.Characters))
		for i, ch := range b.Characters {
			c.Characters[i] = Character{Name: ch.Name, Description: ch.Description, Image: ch.Image.Clone()}
		}
	}
	if b.Setting != nil {
		s := *b.Setting
		c.Setting = &s
	}
	return &c
}

// Character returns the character with the given name.
func (b *Book) Character(name string) (*Character, bool) {
	for i := range b.Characters {
		if b.Characters[i].Name == name {
			return &b.Characters[i], true
		}
	}
	return nil, false
}

// Normalize enforces the per-book character rules on a freshly decoded
// record. Names must be unique, so later duplicates are dropped. Names listed
// on an image must belong to a character of the book, so unknown ones are
// removed. It returns a note for each change.
func (b *Book) Normalize() []string {
	var notes []string

	seen := make(map[string]bool, len(b.Characters))
	kept := b.Characters[:0]
	for _, ch := range b.Characters {
		ch.Name = strings.TrimSpace(ch.Name)
		if seen[ch.Name] {
			notes = append(notes, fmt.Sprintf("dropped duplicate character %q", ch.Name))
			continue
		}
		seen[ch.Name] = true
		kept = append(kept, ch)
	}
	if len(kept) == 0 {
		kept = nil
	}
	b.Characters = kept

	prune := func(where string, img *Image) {
		if img == nil || img.Characters == nil {
			return
		}
		listed := make(map[string]bool, len(img.Characters))
		names := img.Characters[:0]
		for _, name := range img.Characters {
			name = strings.TrimSpace(name)
			if listed[name] {
				continue
			}
			if _, ok := b.Character(name); !ok {
				notes = append(notes, fmt.Sprintf("%s: dropped unknown character %q", where, name))
				continue
			}
			listed[name] = true
			names = append(names, name)
		}
		if len(names) == 0 {
			names = nil
		}
		img.Characters = names
	}
	for i := range b.Pages {
		prune(fmt.Sprintf("pages[%d].image", i), b.Pages[i].Image)
	}
	for i := range b.Characters {
		prune(fmt.Sprintf("characters[%d].image", i), b.Characters[i].Image)
	}
	return notes
}
