package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/identifier"
	"github.com/nerdenough/ai-storytime/internal/illustration"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
	"github.com/nerdenough/ai-storytime/internal/providers"
)

// EnvPrefix prefixes every environment override, e.g. STORYTIME_DEFAULTS_LAYOUT.
const EnvPrefix = "STORYTIME"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// With an empty cfgFile, config.yaml is looked up in . then $HOME/.storytime.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v

	// Defaults are registered per leaf key so a config file that sets only
	// part of a section keeps the remaining defaults.
	defaults, err := defaultKeys()
	if err != nil {
		return err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Environment variables with STORYTIME_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.storytime")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// defaultKeys flattens DefaultConfig into dotted viper keys.
func defaultKeys() (map[string]any, error) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal defaults: %w", err)
	}

	out := make(map[string]any)
	var walk func(prefix string, node any)
	walk = func(prefix string, node any) {
		switch n := node.(type) {
		case map[string]any:
			for k, child := range n {
				walk(joinKey(prefix, k), child)
			}
		case map[any]any:
			for k, child := range n {
				walk(joinKey(prefix, fmt.Sprint(k)), child)
			}
		default:
			out[prefix] = n
		}
	}
	walk("", tree)
	return out, nil
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the file the config was read from, or "" if none was found.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.logger.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored. With no arguments it loads ./.env.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys and base URLs.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		LLMProviders:   make(map[string]providers.LLMProviderConfig),
		ImageProviders: make(map[string]providers.ImageProviderConfig),
	}

	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:       llm.Type,
			Model:      llm.Model,
			APIKey:     ResolveEnvVars(llm.APIKey),
			BaseURL:    ResolveEnvVars(llm.BaseURL),
			MaxRetries: llm.MaxRetries,
			Enabled:    llm.Enabled,
		}
	}

	for name, img := range c.ImageProviders {
		cfg.ImageProviders[name] = providers.ImageProviderConfig{
			Type:      img.Type,
			Model:     img.Model,
			APIKey:    ResolveEnvVars(img.APIKey),
			BaseURL:   ResolveEnvVars(img.BaseURL),
			RateLimit: img.RateLimit,
			Enabled:   img.Enabled,
		}
	}

	return cfg
}

// Layout returns the configured book store layout.
func (c *Config) Layout() (book.Layout, error) {
	return book.LayoutByName(c.Defaults.Layout)
}

// ToPipelineGeneration converts the generation section for pipeline.Config.
func (c *Config) ToPipelineGeneration() pipeline.Generation {
	g := c.Generation
	temperature := g.Temperature
	return pipeline.Generation{
		NumParagraphs:      g.NumParagraphs,
		MaxParagraphLength: g.MaxParagraphLength,
		Temperature:        &temperature,
		MaxTokens:          g.MaxTokens,
		TokensPerWord:      g.TokensPerWord,
		PageWidth:          g.PageWidth,
		PageHeight:         g.PageHeight,
		PortraitWidth:      g.PortraitWidth,
		PortraitHeight:     g.PortraitHeight,
	}
}

// ToGeneratorConfig returns the illustration settings. The backend is bound
// per book by the pipeline.
func (c *Config) ToGeneratorConfig(logger *slog.Logger) illustration.GeneratorConfig {
	g := c.Generation
	return illustration.GeneratorConfig{
		NegativePrompt: g.NegativePrompt,
		Sampler:        g.Sampler,
		Steps:          g.Steps,
		CFGScale:       g.CFGScale,
		Logger:         logger,
	}
}

// Allocator returns the identifier allocator for the configured attempt bound.
func (c *Config) Allocator() identifier.Allocator {
	return identifier.Allocator{MaxAttempts: c.Generation.IdentifierAttempts}
}

// WriteDefault writes the default configuration to the specified path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Storytime configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell or a .env file: OPENROUTER_API_KEY=xxx OPENAI_API_KEY=xxx
# Any key can be overridden with STORYTIME_<SECTION>_<KEY>, e.g. STORYTIME_DEFAULTS_LAYOUT=markdown

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
