package llm

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/bikkkubo/pts-stock/internal/config"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

const (
	// DefaultModel is the default Gemini model for text generation.
	DefaultModel = "gemini-2.0-flash"
	// DefaultEmbeddingModel is the default model for embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the requested embedding width.
	DefaultEmbeddingDimensions = int32(768)
)

// Client wraps the Gemini API for text generation and embeddings.
// Calls are paced by a rate limiter so consecutive instruments do not
// burst against the quota window; only one call is outstanding at a
// time.
type Client struct {
	gClient         *genai.Client
	model           string
	embeddingModel  string
	temperature     float32
	maxOutputTokens int32
	limiter         *rate.Limiter
	log             *slog.Logger
}

// NewClient creates a Gemini client from configuration. A missing API
// key is an error here; the pipeline treats that error as "generative
// stages disabled", not as fatal.
func NewClient(ctx context.Context, cfg config.Gemini) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		gClient:         gClient,
		model:           model,
		embeddingModel:  embeddingModel,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		limiter:         rate.NewLimiter(rate.Limit(rps), 1),
		log:             logger.Get(),
	}, nil
}

// GenerateText generates plain text from a role-tagged prompt at the
// configured low temperature.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	genConfig := &genai.GenerateContentConfig{}
	if c.maxOutputTokens > 0 {
		genConfig.MaxOutputTokens = c.maxOutputTokens
	}
	temp := c.temperature
	genConfig.Temperature = &temp

	resp, err := c.gClient.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// GenerateEmbeddings maps each text to a fixed-dimension vector,
// order-aligned with the input. Any failure is returned to the caller,
// which treats it as "embeddings unavailable" rather than fatal.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	dims := DefaultEmbeddingDimensions
	embedConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	}

	vectors := make([][]float64, 0, len(texts))
	for _, text := range texts {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		contents := []*genai.Content{{
			Parts: []*genai.Part{{Text: text}},
			Role:  "user",
		}}

		resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, embedConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return nil, fmt.Errorf("no embedding values returned from API")
		}

		values := resp.Embeddings[0].Values
		vector := make([]float64, len(values))
		for i, v := range values {
			vector[i] = float64(v)
		}
		vectors = append(vectors, vector)
	}

	return vectors, nil
}

// ModelName returns the configured generation model.
func (c *Client) ModelName() string {
	return c.model
}
