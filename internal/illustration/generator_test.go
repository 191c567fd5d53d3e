package illustration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/providers"
)

func TestGenerator_Illustrate(t *testing.T) {
	ctx := context.Background()

	t.Run("writes image and caption", func(t *testing.T) {
		dir := t.TempDir()
		backend := providers.NewMockImageGenerator()
		g := NewGenerator(GeneratorConfig{Backend: backend})

		img := &book.Image{Caption: "a cave mouth", Prompt: "cave"}
		got, err := g.Illustrate(ctx, Request{
			Image:   img,
			Dir:     dir,
			Stem:    "0",
			URLBase: "/data/cave/images",
			Prompt:  "style, (cave)",
			Seed:    99,
			Width:   768,
			Height:  512,
		})
		if err != nil {
			t.Fatalf("Illustrate() error = %v", err)
		}
		if got.URL != "/data/cave/images/0.png" {
			t.Errorf("URL = %q", got.URL)
		}
		if img.URL != "" {
			t.Error("input image should not be modified")
		}

		caption, err := os.ReadFile(filepath.Join(dir, "0.txt"))
		if err != nil || string(caption) != "a cave mouth" {
			t.Errorf("caption file = %q, %v", caption, err)
		}
		if _, err := os.Stat(filepath.Join(dir, "0.png")); err != nil {
			t.Errorf("image file missing: %v", err)
		}

		reqs := backend.Requests()
		if len(reqs) != 1 {
			t.Fatalf("backend calls = %d, want 1", len(reqs))
		}
		r := reqs[0]
		if r.Seed != 99 || r.Width != 768 || r.Height != 512 || r.Prompt != "style, (cave)" {
			t.Errorf("backend request = %+v", r)
		}
		if r.NegativePrompt != DefaultNegativePrompt || r.Sampler != DefaultSampler || r.Steps != DefaultSteps || r.CFGScale != DefaultCFGScale {
			t.Errorf("sampler defaults not applied: %+v", r)
		}
	})

	t.Run("empty caption never calls backend", func(t *testing.T) {
		backend := providers.NewMockImageGenerator()
		g := NewGenerator(GeneratorConfig{Backend: backend})

		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Prompt: "cave"},
			Dir:    t.TempDir(),
			Stem:   "0",
			Prompt: "style, (cave)",
		})
		if got != nil {
			t.Errorf("Illustrate() = %+v, want nil", got)
		}
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("error = %v, want ErrSkipped", err)
		}
		if backend.RequestCount() != 0 {
			t.Errorf("backend calls = %d, want 0", backend.RequestCount())
		}
	})

	t.Run("empty prompt never calls backend", func(t *testing.T) {
		backend := providers.NewMockImageGenerator()
		g := NewGenerator(GeneratorConfig{Backend: backend})

		_, err := g.Illustrate(ctx, Request{
			Image: &book.Image{Caption: "a cave"},
			Dir:   t.TempDir(),
			Stem:  "0",
		})
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("error = %v, want ErrSkipped", err)
		}
		if backend.RequestCount() != 0 {
			t.Errorf("backend calls = %d, want 0", backend.RequestCount())
		}
	})

	t.Run("backend failure returns nothing", func(t *testing.T) {
		dir := t.TempDir()
		backend := providers.NewMockImageGenerator()
		backend.ShouldFail = true
		g := NewGenerator(GeneratorConfig{Backend: backend})

		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Caption: "a cave", Prompt: "cave"},
			Dir:    dir,
			Stem:   "0",
			Prompt: "(cave)",
		})
		if got != nil || err == nil {
			t.Fatalf("Illustrate() = %+v, %v; want nil, error", got, err)
		}
		if errors.Is(err, ErrSkipped) {
			t.Error("backend failures are not skips")
		}
		if _, err := os.Stat(filepath.Join(dir, "0.txt")); !os.IsNotExist(err) {
			t.Error("no side files should be written on failure")
		}
	})

	t.Run("backend returning no result", func(t *testing.T) {
		dir := t.TempDir()
		g := NewGenerator(GeneratorConfig{Backend: nilImageBackend{}})
		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Caption: "a cave", Prompt: "cave"},
			Dir:    dir,
			Stem:   "0",
			Prompt: "(cave)",
		})
		if got != nil || err == nil {
			t.Fatalf("Illustrate() = %+v, %v; want nil, error", got, err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("files written for a missing image: %d", len(entries))
		}
	})

	t.Run("image write failure leaves no caption", func(t *testing.T) {
		dir := t.TempDir()
		// A directory where the image goes makes the rename fail.
		if err := os.Mkdir(filepath.Join(dir, "0.png"), 0o755); err != nil {
			t.Fatal(err)
		}
		g := NewGenerator(GeneratorConfig{Backend: providers.NewMockImageGenerator()})
		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Caption: "a cave", Prompt: "cave"},
			Dir:    dir,
			Stem:   "0",
			Prompt: "(cave)",
		})
		if got != nil || err == nil {
			t.Fatalf("Illustrate() = %+v, %v; want nil, error", got, err)
		}
		if _, err := os.Stat(filepath.Join(dir, "0.txt")); !os.IsNotExist(err) {
			t.Errorf("caption written without an image: %v", err)
		}
	})

	t.Run("caption write failure removes the image", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "0.txt"), 0o755); err != nil {
			t.Fatal(err)
		}
		g := NewGenerator(GeneratorConfig{Backend: providers.NewMockImageGenerator()})
		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Caption: "a cave", Prompt: "cave"},
			Dir:    dir,
			Stem:   "0",
			Prompt: "(cave)",
		})
		if got != nil || err == nil {
			t.Fatalf("Illustrate() = %+v, %v; want nil, error", got, err)
		}
		if _, err := os.Stat(filepath.Join(dir, "0.png")); !os.IsNotExist(err) {
			t.Errorf("image kept without its caption: %v", err)
		}
	})

	t.Run("write failure returns nothing", func(t *testing.T) {
		g := NewGenerator(GeneratorConfig{Backend: providers.NewMockImageGenerator()})
		got, err := g.Illustrate(ctx, Request{
			Image:  &book.Image{Caption: "a cave", Prompt: "cave"},
			Dir:    filepath.Join(t.TempDir(), "missing"),
			Stem:   "0",
			Prompt: "(cave)",
		})
		if got != nil || err == nil {
			t.Fatalf("Illustrate() = %+v, %v; want nil, error", got, err)
		}
	})
}

type nilImageBackend struct{}

func (nilImageBackend) Name() string { return "nil" }

func (nilImageBackend) Generate(ctx context.Context, req *providers.ImageRequest) (*providers.ImageResult, error) {
	return nil, nil
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/png":                ".png",
		"image/jpeg":               ".jpg",
		"image/webp":               ".webp",
		"application/octet-stream": ".png",
		"":                         ".png",
	}
	for in, want := range tests {
		if got := extensionFor(in); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}
