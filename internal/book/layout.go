package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ImagesDir     = "images"
	CharactersDir = "characters"

	RecordFile   = "book.json"
	PromptFile   = "prompt.txt"
	MarkdownFile = "book.md"
)

// Layout maps a Book onto files inside its directory.
// A store uses exactly one layout.
type Layout interface {
	// Name identifies the layout in configuration ("json", "markdown").
	Name() string

	// Subdirs lists directories created alongside the book root.
	Subdirs() []string

	// Write persists b under dir.
	Write(dir string, b *Book) error

	// Read reconstructs the book stored under dir. urlBase is the public URL
	// of dir, used by layouts that derive image URLs from files on disk.
	// Returns an error matching fs.ErrNotExist when no record is present.
	Read(dir, urlBase string) (*Book, error)

	// HasRecord reports whether dir contains a persisted book.
	HasRecord(dir string) bool
}

// LayoutByName returns the layout registered under name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", "json":
		return JSONLayout{}, nil
	case "markdown":
		return MarkdownLayout{}, nil
	default:
		return nil, fmt.Errorf("unknown book layout %q", name)
	}
}

// JSONLayout stores the whole book as one structured record file with
// illustrations under images/ and characters/.
type JSONLayout struct{}

func (JSONLayout) Name() string { return "json" }

func (JSONLayout) Subdirs() []string { return []string{ImagesDir, CharactersDir} }

func (JSONLayout) Write(dir string, b *Book) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}
	return WriteFile(filepath.Join(dir, RecordFile), data)
}

func (JSONLayout) Read(dir, _ string) (*Book, error) {
	data, err := os.ReadFile(filepath.Join(dir, RecordFile))
	if err != nil {
		return nil, err
	}
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", RecordFile, err)
	}
	return &b, nil
}

func (JSONLayout) HasRecord(dir string) bool {
	return fileExists(filepath.Join(dir, RecordFile))
}

// MarkdownLayout stores prompt.txt, book.md and one images/{n}.txt caption
// file per illustrated page.
type MarkdownLayout struct{}

func (MarkdownLayout) Name() string { return "markdown" }

func (MarkdownLayout) Subdirs() []string { return []string{ImagesDir} }

func (MarkdownLayout) Write(dir string, b *Book) error {
	if err := WriteFile(filepath.Join(dir, PromptFile), []byte(b.Prompt)); err != nil {
		return err
	}
	for i, p := range b.Pages {
		if p.Image == nil {
			continue
		}
		side := filepath.Join(dir, ImagesDir, strconv.Itoa(i)+".txt")
		if err := WriteFile(side, []byte(p.Image.Caption)); err != nil {
			return err
		}
	}
	// book.md last: its presence marks the record as complete.
	return WriteFile(filepath.Join(dir, MarkdownFile), []byte(b.Markdown))
}

func (MarkdownLayout) Read(dir, urlBase string) (*Book, error) {
	md, err := os.ReadFile(filepath.Join(dir, MarkdownFile))
	if err != nil {
		return nil, err
	}
	prompt, err := os.ReadFile(filepath.Join(dir, PromptFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	b := &Book{
		Identifier: filepath.Base(dir),
		Prompt:     string(prompt),
		Markdown:   string(md),
	}
	b.Title, b.Pages = PagesFromMarkdown(b.Markdown)

	for i := range b.Pages {
		img := b.Pages[i].Image
		if img == nil {
			continue
		}
		if name, ok := findImageFile(filepath.Join(dir, ImagesDir), strconv.Itoa(i)); ok {
			img.URL = path.Join(urlBase, ImagesDir, name)
		}
	}
	return b, nil
}

func (MarkdownLayout) HasRecord(dir string) bool {
	return fileExists(filepath.Join(dir, MarkdownFile))
}

// findImageFile returns the file in dir named stem with any extension other
// than .txt.
func findImageFile(dir, stem string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, stem+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if !strings.EqualFold(filepath.Ext(m), ".txt") {
			return filepath.Base(m), true
		}
	}
	return "", false
}

// WriteFile writes via a temp file and rename so readers never see a
// partial record.
func WriteFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
