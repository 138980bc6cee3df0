package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON generates JSON content using the specified model tier
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier (for direct access if needed)
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Embedder turns texts into embedding vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// embedBatchLimit is the provider's maximum number of contents per batch request.
const embedBatchLimit = 100

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string, log *zap.Logger) (*GeminiClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}

// GeminiClient implements Client and Embedder for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string, log *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
		logger: logger.WithFields(log, logger.CommonFields(string(ProviderGemini), "")...),
	}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, tier ModelTier, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	log := c.logger.With(zap.String(logger.FieldModel, modelName))

	var text string
	err := withRetry(ctx, c.config.RetryPolicy(), log, func(ctx context.Context) error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		text, err = extractTextFromResponse(resp)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	log.Debug("llm response received",
		zap.String("tier", string(tier)),
		zap.Int("chars", len(text)))
	return text, nil
}

// Embed embeds texts with the configured embedding model, batching as needed.
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.config.EmbeddingModel == "" {
		return nil, fmt.Errorf("no embedding model configured")
	}

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchLimit {
		end := start + embedBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		var vectors [][]float32
		err := withRetry(ctx, c.config.RetryPolicy(), c.logger, func(ctx context.Context) error {
			batch := em.NewBatch()
			for _, t := range chunk {
				batch.AddContent(genai.Text(t))
			}
			res, err := em.BatchEmbedContents(ctx, batch)
			if err != nil {
				return err
			}
			if len(res.Embeddings) != len(chunk) {
				return fmt.Errorf("embedding count mismatch: got %d, want %d", len(res.Embeddings), len(chunk))
			}
			vectors = make([][]float32, len(chunk))
			for i, e := range res.Embeddings {
				if e == nil {
					return fmt.Errorf("missing embedding for input %d", start+i)
				}
				vectors[i] = e.Values
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to embed content: %w", err)
		}
		out = append(out, vectors...)
	}

	return out, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
