package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	SDWebUIName       = "sdwebui"
	SDWebUIBaseURL    = "http://127.0.0.1:7860"
	sdWebUIDefaultFmt = "image/png"
)

// SDWebUIConfig holds configuration for the stable-diffusion web UI client.
type SDWebUIConfig struct {
	BaseURL string
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	Timeout   time.Duration
}

// SDWebUIClient implements ImageGenerator against the txt2img endpoint of a
// stable-diffusion web UI instance.
type SDWebUIClient struct {
	baseURL   string
	rateLimit float64
	limiter   *rate.Limiter
	client    *http.Client
}

// NewSDWebUIClient creates a new stable-diffusion web UI client.
func NewSDWebUIClient(cfg SDWebUIConfig) *SDWebUIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SDWebUIBaseURL
	}
	if cfg.Timeout == 0 {
		// Local GPUs can take minutes per image under load.
		cfg.Timeout = 5 * time.Minute
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &SDWebUIClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		rateLimit: cfg.RateLimit,
		limiter:   rate.NewLimiter(limit, 1),
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the generator identifier.
func (c *SDWebUIClient) Name() string {
	return SDWebUIName
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Seed           int64   `json:"seed"`
	SamplerName    string  `json:"sampler_name,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	CFGScale       float64 `json:"cfg_scale,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// Generate renders one image via /sdapi/v1/txt2img.
func (c *SDWebUIClient) Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(txt2imgRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Seed:           req.Seed,
		SamplerName:    req.Sampler,
		Steps:          req.Steps,
		CFGScale:       req.CFGScale,
		Width:          req.Width,
		Height:         req.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sdwebui error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out txt2imgResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Images) == 0 || out.Images[0] == "" {
		return nil, fmt.Errorf("sdwebui returned no images")
	}

	data, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = sdWebUIDefaultFmt
	}

	return &ImageResult{
		Data:     data,
		MimeType: mimeType,
		Seed:     req.Seed,
		Provider: SDWebUIName,
		Latency:  time.Since(start),
	}, nil
}

// HealthCheck pings the web UI.
func (c *SDWebUIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sdwebui health check returned %d", resp.StatusCode)
	}
	return nil
}

var (
	_ ImageGenerator = (*SDWebUIClient)(nil)
	_ HealthChecker  = (*SDWebUIClient)(nil)
)
