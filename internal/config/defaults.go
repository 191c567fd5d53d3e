package config

import (
	"github.com/nerdenough/ai-storytime/internal/identifier"
	"github.com/nerdenough/ai-storytime/internal/illustration"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
	"github.com/nerdenough/ai-storytime/internal/providers"
)

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:       providers.OpenRouterName,
				Model:      "openai/gpt-4o-mini",
				APIKey:     "${OPENROUTER_API_KEY}",
				MaxRetries: 1,
				Enabled:    true,
			},
			"openai": {
				Type:    providers.OpenAIName,
				Model:   "gpt-4o-mini",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		ImageProviders: map[string]ImageProviderCfg{
			"sdwebui": {
				Type:    providers.SDWebUIName,
				BaseURL: "http://127.0.0.1:7860",
				Enabled: true,
			},
			"openai": {
				Type:    providers.OpenAIName,
				Model:   "dall-e-3",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:   "openrouter",
			ImageProvider: "sdwebui",
			Layout:        "json",
		},
		Generation: GenerationCfg{
			NumParagraphs:      pipeline.DefaultNumParagraphs,
			MaxParagraphLength: pipeline.DefaultMaxParagraphLength,
			Temperature:        pipeline.DefaultTemperature,
			MaxTokens:          pipeline.DefaultMaxTokens,
			TokensPerWord:      pipeline.DefaultTokensPerWord,
			StylePrefix:        illustration.DefaultStylePrefix,
			NegativePrompt:     illustration.DefaultNegativePrompt,
			Sampler:            illustration.DefaultSampler,
			Steps:              illustration.DefaultSteps,
			CFGScale:           illustration.DefaultCFGScale,
			PageWidth:          pipeline.DefaultPageWidth,
			PageHeight:         pipeline.DefaultPageHeight,
			PortraitWidth:      pipeline.DefaultPortraitWidth,
			PortraitHeight:     pipeline.DefaultPortraitHeight,
			IdentifierAttempts: identifier.DefaultMaxAttempts,
		},
	}
}
