package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mliu/reelgen/internal/prompts"
)

// Generator produces imagery for AI_GENERATED jobs. The primary path is an
// OpenAI-compatible image generation API; keyword extraction uses the chat
// completions API. SearchPhotos is the alternate strategy tried when
// generation fails.
type Generator struct {
	client      *resty.Client
	photoClient *resty.Client

	chatModel  string
	imageModel string
	imageSize  string
	endpoint   string

	photoBaseURL string
	photoKey     string
}

// GeneratorConfig holds configuration for the image generator.
type GeneratorConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	ImageSize  string

	PhotoBaseURL   string
	PhotoAccessKey string
}

// NewGenerator creates a new image generator client.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Image generation is slow; keep a generous ceiling.
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	photoClient := resty.New()
	photoClient.SetTimeout(30 * time.Second)
	if cfg.PhotoAccessKey != "" {
		photoClient.SetHeader("Authorization", "Client-ID "+cfg.PhotoAccessKey)
	}

	photoBaseURL := cfg.PhotoBaseURL
	if photoBaseURL == "" {
		photoBaseURL = "https://api.unsplash.com"
	}

	return &Generator{
		client:       client,
		photoClient:  photoClient,
		chatModel:    cfg.ChatModel,
		imageModel:   cfg.ImageModel,
		imageSize:    cfg.ImageSize,
		endpoint:     baseURL,
		photoBaseURL: photoBaseURL,
		photoKey:     cfg.PhotoAccessKey,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ExtractKeywords asks the chat model for up to max visually descriptive
// keywords from the narration text. On failure it returns the static
// fallback list so the pipeline can continue.
func (g *Generator) ExtractKeywords(ctx context.Context, text string, max int) []string {
	req := chatRequest{
		Model: g.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.KeywordSystemPrompt(max)},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
		MaxTokens:   50,
	}

	var result chatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(g.endpoint + "/chat/completions")
	if err != nil || resp.IsError() || result.Error != nil || len(result.Choices) == 0 {
		return prompts.FallbackKeywords[:min(max, len(prompts.FallbackKeywords))]
	}

	var keywords []string
	for _, k := range strings.Split(result.Choices[0].Message.Content, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return prompts.FallbackKeywords[:min(max, len(prompts.FallbackKeywords))]
	}
	if len(keywords) > max {
		keywords = keywords[:max]
	}
	return keywords
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateImage renders one image for the given keyword via the image
// generation API and returns the decoded PNG bytes.
func (g *Generator) GenerateImage(ctx context.Context, keyword string) ([]byte, error) {
	req := imageRequest{
		Model:          g.imageModel,
		Prompt:         prompts.ImagePrompt(keyword),
		N:              1,
		Size:           g.imageSize,
		ResponseFormat: "b64_json",
	}

	var result imageResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(g.endpoint + "/images/generations")
	if err != nil {
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("image generation returned status %d", resp.StatusCode())
	}
	if result.Error != nil {
		return nil, fmt.Errorf("image generation API error: %s", result.Error.Message)
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image generation returned no data")
	}

	data, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}
	return data, nil
}

type photo struct {
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
}

// SearchPhotos fetches up to count photo URLs matching the query. Used as
// the alternate generation strategy when the image API fails.
func (g *Generator) SearchPhotos(ctx context.Context, query string, count int) ([]string, error) {
	if g.photoKey == "" {
		return nil, fmt.Errorf("photo search access key not configured")
	}

	var photos []photo
	resp, err := g.photoClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":          query,
			"count":          fmt.Sprintf("%d", count),
			"orientation":    "landscape",
			"content_filter": "high",
		}).
		SetResult(&photos).
		Get(g.photoBaseURL + "/photos/random")
	if err != nil {
		return nil, fmt.Errorf("photo search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("photo search returned status %d", resp.StatusCode())
	}

	seen := make(map[string]bool)
	var urls []string
	for _, p := range photos {
		u := p.URLs.Regular
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
		if len(urls) == count {
			break
		}
	}
	return urls, nil
}
