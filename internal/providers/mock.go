package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	MockClientName         = "mock"
	MockImageGeneratorName = "mock-image"
)

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	lastRequest  *ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.lastRequest = req
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = "mock client configured to fail"
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = fmt.Sprintf("mock client failed after %d requests", c.FailAfter)
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		result.ErrorType = "context_cancelled"
		result.ErrorMessage = ctx.Err().Error()
		result.TotalTime = time.Since(start)
		return result, ctx.Err()
	}

	result.Success = true
	result.Content = c.ResponseText
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(c.ResponseText) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// LastRequest returns the most recent request, or nil.
func (c *MockClient) LastRequest() *ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequest
}

// Reset resets the request counter.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
}

var _ LLMClient = (*MockClient)(nil)

// mockPNG is a 1x1 transparent PNG.
var mockPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// MockImageGenerator is an ImageGenerator for testing.
type MockImageGenerator struct {
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)
	Data       []byte
	MimeType   string

	mu       sync.Mutex
	requests []ImageRequest
}

// NewMockImageGenerator creates a mock that returns a tiny PNG.
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{
		Data:     mockPNG,
		MimeType: "image/png",
	}
}

// Name returns the generator identifier.
func (g *MockImageGenerator) Name() string {
	return MockImageGeneratorName
}

// Generate records the request and returns the configured image.
func (g *MockImageGenerator) Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, *req)
	count := len(g.requests)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.ShouldFail {
		return nil, fmt.Errorf("mock image generator configured to fail")
	}
	if g.FailAfter > 0 && count > g.FailAfter {
		return nil, fmt.Errorf("mock image generator failed after %d requests", g.FailAfter)
	}

	return &ImageResult{
		Data:     g.Data,
		MimeType: g.MimeType,
		Seed:     req.Seed,
		Provider: MockImageGeneratorName,
	}, nil
}

// HealthCheck always succeeds unless ShouldFail is set.
func (g *MockImageGenerator) HealthCheck(ctx context.Context) error {
	if g.ShouldFail {
		return fmt.Errorf("mock image generator unhealthy")
	}
	return nil
}

// Requests returns a copy of all requests received.
func (g *MockImageGenerator) Requests() []ImageRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ImageRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

// RequestCount returns the number of requests made.
func (g *MockImageGenerator) RequestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

var (
	_ ImageGenerator = (*MockImageGenerator)(nil)
	_ HealthChecker  = (*MockImageGenerator)(nil)
)
