package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds references to LLM clients and image generators.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu              sync.RWMutex
	llmClients      map[string]LLMClient
	imageGenerators map[string]ImageGenerator
	logger          *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:      make(map[string]LLMClient),
		imageGenerators: make(map[string]ImageGenerator),
		logger:          slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// RegisterImage registers an image generator by name.
func (r *Registry) RegisterImage(name string, gen ImageGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imageGenerators[name] = gen
	if r.logger != nil {
		r.logger.Info("registered image generator", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetImage returns an image generator by name.
func (r *Registry) GetImage(name string) (ImageGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.imageGenerators[name]
	if !ok {
		return nil, fmt.Errorf("image generator not found: %s", name)
	}
	return gen, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListImage returns all registered image generator names, sorted.
func (r *Registry) ListImage() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.imageGenerators))
	for name := range r.imageGenerators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// HasImage checks if an image generator is registered.
func (r *Registry) HasImage(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.imageGenerators[name]
	return ok
}

// HealthCheckers returns registered image generators that can report readiness.
func (r *Registry) HealthCheckers() map[string]HealthChecker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]HealthChecker)
	for name, gen := range r.imageGenerators {
		if hc, ok := gen.(HealthChecker); ok {
			result[name] = hc
		}
	}
	return result
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	LLMProviders   map[string]LLMProviderConfig
	ImageProviders map[string]ImageProviderConfig
}

// LLMProviderConfig matches config.LLMProviderCfg with resolved API key.
type LLMProviderConfig struct {
	Type       string // "openrouter", "openai"
	Model      string
	APIKey     string // Resolved API key
	BaseURL    string
	MaxRetries int
	Enabled    bool
}

// ImageProviderConfig matches config.ImageProviderCfg with resolved API key.
type ImageProviderConfig struct {
	Type      string // "sdwebui", "openai"
	Model     string
	APIKey    string // Resolved API key
	BaseURL   string
	RateLimit float64 // Requests per second
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with the credentials their type needs are registered.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wantLLM := make(map[string]bool)
	wantImage := make(map[string]bool)

	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantLLM[name] = true

		existing, hasExisting := r.llmClients[name]
		if hasExisting && !needsLLMUpdate(existing, provCfg) {
			continue
		}
		client := createLLMClient(provCfg)
		if client == nil {
			r.logger.Warn("unknown LLM provider type", "name", name, "type", provCfg.Type)
			continue
		}
		r.llmClients[name] = client
		if hasExisting {
			r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
		}
	}

	for name, provCfg := range cfg.ImageProviders {
		if !provCfg.Enabled || !imageProviderUsable(provCfg) {
			continue
		}
		wantImage[name] = true

		existing, hasExisting := r.imageGenerators[name]
		if hasExisting && !needsImageUpdate(existing, provCfg) {
			continue
		}
		gen := createImageGenerator(provCfg)
		if gen == nil {
			r.logger.Warn("unknown image provider type", "name", name, "type", provCfg.Type)
			continue
		}
		r.imageGenerators[name] = gen
		if hasExisting {
			r.logger.Info("updated image generator", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("registered image generator", "name", name, "type", provCfg.Type)
		}
	}

	for name := range r.llmClients {
		if !wantLLM[name] {
			delete(r.llmClients, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}
	for name := range r.imageGenerators {
		if !wantImage[name] {
			delete(r.imageGenerators, name)
			r.logger.Info("unregistered image generator", "name", name)
		}
	}
}

// imageProviderUsable reports whether cfg carries what its type needs.
// sdwebui runs locally without credentials.
func imageProviderUsable(cfg ImageProviderConfig) bool {
	if cfg.Type == SDWebUIName {
		return true
	}
	return cfg.APIKey != ""
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(cfg LLMProviderConfig) LLMClient {
	switch cfg.Type {
	case OpenRouterName:
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			MaxRetries:   cfg.MaxRetries,
		})
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			MaxRetries: cfg.MaxRetries,
		})
	default:
		return nil
	}
}

// createImageGenerator creates an image generator based on provider type.
func createImageGenerator(cfg ImageProviderConfig) ImageGenerator {
	switch cfg.Type {
	case SDWebUIName:
		return NewSDWebUIClient(SDWebUIConfig{
			BaseURL:   cfg.BaseURL,
			RateLimit: cfg.RateLimit,
		})
	case OpenAIName:
		return NewOpenAIImageClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil
	}
}

// needsLLMUpdate checks if an LLM client needs to be recreated.
func needsLLMUpdate(client LLMClient, cfg LLMProviderConfig) bool {
	switch c := client.(type) {
	case *OpenRouterClient:
		return cfg.Type != OpenRouterName ||
			c.apiKey != cfg.APIKey ||
			(cfg.Model != "" && c.defaultModel != cfg.Model) ||
			(cfg.BaseURL != "" && c.baseURL != cfg.BaseURL)
	case *OpenAIClient:
		return cfg.Type != OpenAIName ||
			c.apiKey != cfg.APIKey ||
			(cfg.Model != "" && c.model != cfg.Model) ||
			c.baseURL != cfg.BaseURL
	default:
		return true
	}
}

// needsImageUpdate checks if an image generator needs to be recreated.
func needsImageUpdate(gen ImageGenerator, cfg ImageProviderConfig) bool {
	switch g := gen.(type) {
	case *SDWebUIClient:
		return cfg.Type != SDWebUIName ||
			(cfg.BaseURL != "" && g.baseURL != cfg.BaseURL) ||
			g.rateLimit != cfg.RateLimit
	case *OpenAIImageClient:
		return cfg.Type != OpenAIName ||
			g.apiKey != cfg.APIKey ||
			(cfg.Model != "" && g.model != cfg.Model) ||
			g.baseURL != cfg.BaseURL
	default:
		return true
	}
}
