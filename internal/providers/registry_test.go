package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get LLM", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockClient()

		r.RegisterLLM("test-llm", mock)

		client, err := r.GetLLM("test-llm")
		if err != nil {
			t.Fatalf("GetLLM() error = %v", err)
		}
		if client != mock {
			t.Error("got different client than registered")
		}
	})

	t.Run("register and get image generator", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockImageGenerator()

		r.RegisterImage("test-image", mock)

		gen, err := r.GetImage("test-image")
		if err != nil {
			t.Fatalf("GetImage() error = %v", err)
		}
		if gen != mock {
			t.Error("got different generator than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()

		if _, err := r.GetLLM("nonexistent"); err == nil {
			t.Error("expected error for nonexistent LLM")
		}
		if _, err := r.GetImage("nonexistent"); err == nil {
			t.Error("expected error for nonexistent image generator")
		}
	})

	t.Run("list providers sorted", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterLLM("llm2", NewMockClient())
		r.RegisterLLM("llm1", NewMockClient())
		r.RegisterImage("img1", NewMockImageGenerator())

		llms := r.ListLLM()
		if len(llms) != 2 || llms[0] != "llm1" || llms[1] != "llm2" {
			t.Errorf("ListLLM() = %v, want [llm1 llm2]", llms)
		}
		if images := r.ListImage(); len(images) != 1 {
			t.Errorf("ListImage() = %v, want 1 entry", images)
		}
	})

	t.Run("health checkers", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterImage("mock", NewMockImageGenerator())
		r.RegisterImage("openai", NewOpenAIImageClient(OpenAIConfig{APIKey: "k"}))

		hcs := r.HealthCheckers()
		if len(hcs) != 1 {
			t.Fatalf("HealthCheckers() = %d entries, want 1", len(hcs))
		}
		if _, ok := hcs["mock"]; !ok {
			t.Error("expected mock in health checkers")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup

		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.RegisterLLM("llm", NewMockClient())
			}()
			go func() {
				defer wg.Done()
				_ = r.ListLLM()
				_ = r.HasImage("image")
			}()
		}

		wg.Wait()
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Run("registers providers from config", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "key", Enabled: true},
				"openai":     {Type: "openai", APIKey: "key", Model: "gpt-4o", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd":     {Type: "sdwebui", BaseURL: "http://localhost:7860", RateLimit: 1, Enabled: true},
				"dalle":  {Type: "openai", APIKey: "key", Enabled: true},
				"broken": {Type: "unknown", APIKey: "key", Enabled: true},
			},
		}, nil)

		if !r.HasLLM("openrouter") || !r.HasLLM("openai") {
			t.Errorf("LLMs = %v, want openrouter and openai", r.ListLLM())
		}
		if !r.HasImage("sd") || !r.HasImage("dalle") {
			t.Errorf("images = %v, want sd and dalle", r.ListImage())
		}
		if r.HasImage("broken") {
			t.Error("unknown type should not be registered")
		}

		gen, _ := r.GetImage("sd")
		if sd := gen.(*SDWebUIClient); sd.baseURL != "http://localhost:7860" {
			t.Errorf("baseURL = %s", sd.baseURL)
		}
	})

	t.Run("skips disabled providers", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "key", Enabled: false},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd": {Type: "sdwebui", Enabled: false},
			},
		}, nil)

		if r.HasLLM("openrouter") {
			t.Error("disabled LLM should not be registered")
		}
		if r.HasImage("sd") {
			t.Error("disabled image generator should not be registered")
		}
	})

	t.Run("skips providers without API keys", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"dalle": {Type: "openai", Enabled: true},
				"sd":    {Type: "sdwebui", Enabled: true},
			},
		}, nil)

		if r.HasLLM("openrouter") {
			t.Error("LLM without key should not be registered")
		}
		if r.HasImage("dalle") {
			t.Error("openai images without key should not be registered")
		}
		if !r.HasImage("sd") {
			t.Error("sdwebui needs no key and should be registered")
		}
	})

	t.Run("uses custom model for LLM provider", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", Model: "x-ai/grok-4.1-fast", APIKey: "key", Enabled: true},
			},
		}, nil)

		client, _ := r.GetLLM("openrouter")
		if got := client.(*OpenRouterClient).defaultModel; got != "x-ai/grok-4.1-fast" {
			t.Errorf("defaultModel = %s", got)
		}
	})
}

func TestRegistry_Reload(t *testing.T) {
	t.Run("adds new providers on reload", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{}, nil)

		if r.HasLLM("openrouter") {
			t.Error("should start without openrouter")
		}

		r.Reload(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "new-key", Enabled: true},
			},
		})

		if !r.HasLLM("openrouter") {
			t.Error("expected openrouter after reload")
		}
	})

	t.Run("removes providers on reload", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "key", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd": {Type: "sdwebui", Enabled: true},
			},
		}, nil)

		if !r.HasLLM("openrouter") || !r.HasImage("sd") {
			t.Error("should start with both providers")
		}

		r.Reload(RegistryConfig{})

		if r.HasLLM("openrouter") {
			t.Error("openrouter should be removed after reload")
		}
		if r.HasImage("sd") {
			t.Error("sd should be removed after reload")
		}
	})

	t.Run("updates providers with changed settings", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "old-key", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd": {Type: "sdwebui", RateLimit: 1, Enabled: true},
			},
		}, nil)

		r.Reload(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "new-key", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd": {Type: "sdwebui", RateLimit: 2, Enabled: true},
			},
		})

		client, _ := r.GetLLM("openrouter")
		if got := client.(*OpenRouterClient).apiKey; got != "new-key" {
			t.Errorf("expected new-key, got %s", got)
		}
		gen, _ := r.GetImage("sd")
		if got := gen.(*SDWebUIClient).rateLimit; got != 2 {
			t.Errorf("expected rate limit 2, got %v", got)
		}
	})

	t.Run("keeps providers with unchanged config", func(t *testing.T) {
		cfg := RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", APIKey: "key", Enabled: true},
			},
			ImageProviders: map[string]ImageProviderConfig{
				"sd": {Type: "sdwebui", Enabled: true},
			},
		}
		r := NewRegistryFromConfig(cfg, nil)

		before, _ := r.GetLLM("openrouter")
		beforeImg, _ := r.GetImage("sd")
		r.Reload(cfg)
		after, _ := r.GetLLM("openrouter")
		afterImg, _ := r.GetImage("sd")

		if before != after {
			t.Error("LLM client should be reused when config is unchanged")
		}
		if beforeImg != afterImg {
			t.Error("image generator should be reused when config is unchanged")
		}
	})

	t.Run("concurrent reload is safe", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup

		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Reload(RegistryConfig{
					LLMProviders: map[string]LLMProviderConfig{
						"openrouter": {Type: "openrouter", APIKey: "key", Enabled: true},
					},
				})
			}()
			go func() {
				defer wg.Done()
				_, _ = r.GetLLM("openrouter")
			}()
		}

		wg.Wait()
	})
}

func TestWaitReady(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		if err := WaitReady(context.Background(), NewMockImageGenerator(), 2*time.Second); err != nil {
			t.Fatalf("WaitReady() error = %v", err)
		}
	})

	t.Run("unhealthy backend times out", func(t *testing.T) {
		gen := NewMockImageGenerator()
		gen.ShouldFail = true

		if err := WaitReady(context.Background(), gen, time.Second); err == nil {
			t.Fatal("expected error for unhealthy backend")
		}
	})
}
