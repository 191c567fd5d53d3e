package illustration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/providers"
)

const (
	DefaultNegativePrompt = "(watermark), text, deformed, disfigured, nsfw, bad proportions, bad anatomy, blurry, low quality, worst quality"
	DefaultSampler        = "DPM++ 2M Karras"
	DefaultSteps          = 20
	DefaultCFGScale       = 7.0

	fallbackExt = ".png"
)

// ErrSkipped marks an illustration that was not attempted.
var ErrSkipped = errors.New("illustration skipped")

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Backend        providers.ImageGenerator
	NegativePrompt string
	Sampler        string
	Steps          int
	CFGScale       float64
	Logger         *slog.Logger
}

// Generator renders one illustration at a time and writes its side files.
type Generator struct {
	backend        providers.ImageGenerator
	negativePrompt string
	sampler        string
	steps          int
	cfgScale       float64
	logger         *slog.Logger
}

// NewGenerator creates a Generator. Empty sampler settings take the defaults.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.NegativePrompt == "" {
		cfg.NegativePrompt = DefaultNegativePrompt
	}
	if cfg.Sampler == "" {
		cfg.Sampler = DefaultSampler
	}
	if cfg.Steps == 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.CFGScale == 0 {
		cfg.CFGScale = DefaultCFGScale
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		backend:        cfg.Backend,
		negativePrompt: cfg.NegativePrompt,
		sampler:        cfg.Sampler,
		steps:          cfg.Steps,
		cfgScale:       cfg.CFGScale,
		logger:         cfg.Logger,
	}
}

// Request describes one illustration.
type Request struct {
	// Image is the descriptor being illustrated. It is not modified.
	Image *book.Image
	// Dir receives {Stem}.txt and {Stem}{ext}; it must exist.
	Dir  string
	Stem string
	// URLBase is the public URL of Dir.
	URLBase string
	// Prompt is the composed backend prompt.
	Prompt string
	Seed   int64
	Width  int
	Height int
}

// Illustrate renders req and returns a copy of the image with URL set.
// A nil image and a non-nil error mean the caller keeps the original image:
// errors wrapping ErrSkipped were never sent to the backend, anything else is
// a backend or write failure. Both are logged here.
func (g *Generator) Illustrate(ctx context.Context, req Request) (*book.Image, error) {
	log := g.logger.With("stem", path.Join(filepath.Base(req.Dir), req.Stem))

	if req.Image == nil || strings.TrimSpace(req.Image.Caption) == "" {
		log.Warn("skipping illustration", "reason", "no caption")
		return nil, fmt.Errorf("%w: no caption", ErrSkipped)
	}
	if strings.TrimSpace(req.Image.Prompt) == "" || strings.TrimSpace(req.Prompt) == "" {
		log.Warn("skipping illustration", "reason", "no prompt")
		return nil, fmt.Errorf("%w: no prompt", ErrSkipped)
	}
	if g.backend == nil {
		log.Warn("skipping illustration", "reason", "no image backend")
		return nil, fmt.Errorf("%w: no image backend", ErrSkipped)
	}

	result, err := g.backend.Generate(ctx, &providers.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: g.negativePrompt,
		Seed:           req.Seed,
		Sampler:        g.sampler,
		Steps:          g.steps,
		CFGScale:       g.cfgScale,
		Width:          req.Width,
		Height:         req.Height,
	})
	if err != nil {
		log.Warn("illustration failed", "backend", g.backend.Name(), "error", err)
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if result == nil || len(result.Data) == 0 {
		log.Warn("illustration failed", "backend", g.backend.Name(), "error", "empty image")
		return nil, fmt.Errorf("generate image: empty image")
	}

	// The caption file only exists next to a written image.
	name := req.Stem + extensionFor(result.MimeType)
	imagePath := filepath.Join(req.Dir, name)
	if err := book.WriteFile(imagePath, result.Data); err != nil {
		log.Warn("failed to write image", "error", err)
		return nil, err
	}
	if err := book.WriteFile(filepath.Join(req.Dir, req.Stem+".txt"), []byte(req.Image.Caption)); err != nil {
		log.Warn("failed to write caption", "error", err)
		if rerr := os.Remove(imagePath); rerr != nil {
			log.Warn("failed to remove image", "error", rerr)
		}
		return nil, err
	}

	out := req.Image.Clone()
	out.URL = path.Join(req.URLBase, name)
	log.Info("illustration written", "url", out.URL, "seed", req.Seed, "latency", result.Latency)
	return out, nil
}

// extensionFor picks a file extension for an image MIME type.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if strings.HasPrefix(mimeType, "image/") {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return fallbackExt
}
