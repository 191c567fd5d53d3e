package server

import (
	"fmt"
	"log/slog"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/config"
	"github.com/nerdenough/ai-storytime/internal/home"
	"github.com/nerdenough/ai-storytime/internal/illustration"
	"github.com/nerdenough/ai-storytime/internal/llmcall"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
	"github.com/nerdenough/ai-storytime/internal/prompts"
	"github.com/nerdenough/ai-storytime/internal/providers"
	"github.com/nerdenough/ai-storytime/internal/svcctx"
)

// buildServices wires the book pipeline and its stores from a validated config.
func buildServices(cfg *config.Config, h *home.Dir, registry *providers.Registry, logger *slog.Logger) (*svcctx.Services, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}

	store, err := book.NewStore(book.StoreConfig{
		Root:   h.ResolveDataPath(cfg.Defaults.DataDir),
		Layout: layout,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	calls, err := llmcall.NewStore(h.LLMCallsPath())
	if err != nil {
		return nil, err
	}

	resolver := prompts.NewResolver(logger)
	for key, text := range cfg.Generation.PromptTemplates {
		if err := resolver.SetOverride(key, text); err != nil {
			return nil, fmt.Errorf("generation.prompt_templates.%s: %w", key, err)
		}
		logger.Info("prompt override applied", "key", key)
	}

	p, err := pipeline.New(pipeline.Config{
		Store:         store,
		Providers:     registry,
		LLMProvider:   cfg.Defaults.LLMProvider,
		ImageProvider: cfg.Defaults.ImageProvider,
		Prompts:       resolver,
		Composer:      illustration.NewComposer(cfg.Generation.StylePrefix),
		Generator:     cfg.ToGeneratorConfig(logger),
		Recorder:      llmcall.NewRecorder(calls, logger),
		Allocator:     cfg.Allocator(),
		Generation:    cfg.ToPipelineGeneration(),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &svcctx.Services{
		Pipeline:     p,
		BookStore:    store,
		Registry:     registry,
		Prompts:      resolver,
		LLMCallStore: calls,
		Logger:       logger,
		Home:         h,
	}, nil
}
