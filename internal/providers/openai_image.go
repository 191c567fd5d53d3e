package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
)

// OpenAIImageClient implements ImageGenerator using the OpenAI images API.
// Seeds, negative prompts and sampler settings are not supported by the API
// and are ignored.
type OpenAIImageClient struct {
	apiKey  string
	model   string
	baseURL string
	client  openai.Client
}

// NewOpenAIImageClient creates a new OpenAI image client.
func NewOpenAIImageClient(cfg OpenAIConfig) *OpenAIImageClient {
	if cfg.Model == "" {
		cfg.Model = openAIImageDefaultModel
	}
	return &OpenAIImageClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  newOpenAISDKClient(cfg),
	}
}

// Name returns the generator identifier.
func (c *OpenAIImageClient) Name() string {
	return OpenAIName
}

// Generate renders one image and returns its decoded bytes.
func (c *OpenAIImageClient) Generate(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	start := time.Now()

	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(c.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(openAIImageSize(c.model, req.Width, req.Height)),
	}
	// gpt-image models always answer with base64 and reject response_format.
	if !strings.HasPrefix(c.model, "gpt-image") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("OpenAI returned no image data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = openAIImageDefaultFormat
	}

	return &ImageResult{
		Data:     data,
		MimeType: mimeType,
		Seed:     req.Seed,
		Provider: OpenAIName,
		Latency:  time.Since(start),
	}, nil
}

// openAIImageSize maps a requested resolution onto the closest size the model accepts.
func openAIImageSize(model string, width, height int) string {
	switch model {
	case "dall-e-2":
		return "512x512"
	case "dall-e-3":
		switch {
		case width > height:
			return "1792x1024"
		case height > width:
			return "1024x1792"
		}
		return "1024x1024"
	default:
		switch {
		case width > height:
			return "1536x1024"
		case height > width:
			return "1024x1536"
		}
		return "1024x1024"
	}
}

var _ ImageGenerator = (*OpenAIImageClient)(nil)
