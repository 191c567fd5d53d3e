package providers

import (
	"os"
)

// TestConfig holds provider configurations loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	SDWebUIURL       string
}

// LoadTestConfig loads provider settings from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		SDWebUIURL:       os.Getenv("SDWEBUI_URL"),
	}
}

// HasOpenRouter returns true if OpenRouter API key is configured.
func (c TestConfig) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasSDWebUI returns true if a stable-diffusion web UI address is configured.
func (c TestConfig) HasSDWebUI() bool {
	return c.SDWebUIURL != ""
}

// NewOpenRouterClient creates an OpenRouter client from test config.
// Returns nil if not configured.
func (c TestConfig) NewOpenRouterClient() *OpenRouterClient {
	if !c.HasOpenRouter() {
		return nil
	}
	return NewOpenRouterClient(OpenRouterConfig{APIKey: c.OpenRouterAPIKey})
}

// NewSDWebUIClient creates a stable-diffusion web UI client from test config.
// Returns nil if not configured.
func (c TestConfig) NewSDWebUIClient() *SDWebUIClient {
	if !c.HasSDWebUI() {
		return nil
	}
	return NewSDWebUIClient(SDWebUIConfig{BaseURL: c.SDWebUIURL})
}
