package config

import (
	"errors"
	"fmt"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
)

// Config holds storytime configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders   map[string]LLMProviderCfg   `mapstructure:"llm_providers" yaml:"llm_providers"`
	ImageProviders map[string]ImageProviderCfg `mapstructure:"image_providers" yaml:"image_providers"`
	Defaults       DefaultsCfg                 `mapstructure:"defaults" yaml:"defaults"`
	Generation     GenerationCfg               `mapstructure:"generation" yaml:"generation"`
}

// LLMProviderCfg configures a language-model provider.
type LLMProviderCfg struct {
	Type       string `mapstructure:"type" yaml:"type"`         // "openrouter", "openai"
	Model      string `mapstructure:"model" yaml:"model"`       // Model name
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"` // Optional endpoint override
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ImageProviderCfg configures an image-generation provider.
type ImageProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "sdwebui", "openai"
	Model     string  `mapstructure:"model" yaml:"model"`           // Model name (openai only)
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`     // sd-webui address
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second, 0 = unlimited
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg selects providers and storage.
type DefaultsCfg struct {
	LLMProvider   string `mapstructure:"llm_provider" yaml:"llm_provider"`
	ImageProvider string `mapstructure:"image_provider" yaml:"image_provider"` // Empty disables illustration
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`             // Empty = {home}/data; relative paths are under home
	Layout        string `mapstructure:"layout" yaml:"layout"`                 // "json" or "markdown"
}

// GenerationCfg tunes story and illustration generation.
type GenerationCfg struct {
	NumParagraphs      int     `mapstructure:"num_paragraphs" yaml:"num_paragraphs"`
	MaxParagraphLength int     `mapstructure:"max_paragraph_length" yaml:"max_paragraph_length"`
	Temperature        float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TokensPerWord      int     `mapstructure:"tokens_per_word" yaml:"tokens_per_word"`

	StylePrefix    string  `mapstructure:"style_prefix" yaml:"style_prefix"`
	NegativePrompt string  `mapstructure:"negative_prompt" yaml:"negative_prompt"`
	Sampler        string  `mapstructure:"sampler" yaml:"sampler"`
	Steps          int     `mapstructure:"steps" yaml:"steps"`
	CFGScale       float64 `mapstructure:"cfg_scale" yaml:"cfg_scale"`

	PageWidth      int `mapstructure:"page_width" yaml:"page_width"`
	PageHeight     int `mapstructure:"page_height" yaml:"page_height"`
	PortraitWidth  int `mapstructure:"portrait_width" yaml:"portrait_width"`
	PortraitHeight int `mapstructure:"portrait_height" yaml:"portrait_height"`

	IdentifierAttempts int `mapstructure:"identifier_attempts" yaml:"identifier_attempts"`

	// PromptTemplates overrides embedded instruction templates by key
	// ("book.json", "book.markdown").
	PromptTemplates map[string]string `mapstructure:"prompt_templates" yaml:"prompt_templates,omitempty"`
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// GetImageProvider returns an image provider config by name.
func (c *Config) GetImageProvider(name string) (ImageProviderCfg, bool) {
	cfg, ok := c.ImageProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// EnabledImageProviders returns all enabled image providers.
func (c *Config) EnabledImageProviders() map[string]ImageProviderCfg {
	result := make(map[string]ImageProviderCfg)
	for name, cfg := range c.ImageProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// Validate reports every setting that would stop the service from starting.
func (c *Config) Validate() error {
	var errs []error

	if c.Defaults.LLMProvider == "" {
		errs = append(errs, errors.New("defaults.llm_provider is required"))
	} else if p, ok := c.GetLLMProvider(c.Defaults.LLMProvider); !ok {
		errs = append(errs, fmt.Errorf("defaults.llm_provider %q is not configured", c.Defaults.LLMProvider))
	} else if !p.Enabled {
		errs = append(errs, fmt.Errorf("defaults.llm_provider %q is disabled", c.Defaults.LLMProvider))
	}

	if name := c.Defaults.ImageProvider; name != "" {
		if p, ok := c.GetImageProvider(name); !ok {
			errs = append(errs, fmt.Errorf("defaults.image_provider %q is not configured", name))
		} else if !p.Enabled {
			errs = append(errs, fmt.Errorf("defaults.image_provider %q is disabled", name))
		}
	}

	if _, err := book.LayoutByName(c.Defaults.Layout); err != nil {
		errs = append(errs, fmt.Errorf("defaults.layout: %w", err))
	}

	g := c.Generation
	if g.NumParagraphs < 0 || g.NumParagraphs > pipeline.MaxNumParagraphs {
		errs = append(errs, fmt.Errorf("generation.num_paragraphs must be between 1 and %d", pipeline.MaxNumParagraphs))
	}
	if g.MaxParagraphLength < 0 || g.MaxParagraphLength > pipeline.MaxParagraphLength {
		errs = append(errs, fmt.Errorf("generation.max_paragraph_length must be between 1 and %d", pipeline.MaxParagraphLength))
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		errs = append(errs, errors.New("generation.temperature must be between 0 and 2"))
	}
	if g.Steps < 0 || g.CFGScale < 0 || g.MaxTokens < 0 || g.TokensPerWord < 0 || g.IdentifierAttempts < 0 {
		errs = append(errs, errors.New("generation settings must not be negative"))
	}
	if g.PageWidth < 0 || g.PageHeight < 0 || g.PortraitWidth < 0 || g.PortraitHeight < 0 {
		errs = append(errs, errors.New("generation image sizes must not be negative"))
	}

	return errors.Join(errs...)
}
