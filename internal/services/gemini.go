package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/cv-screener/internal/logger"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultEmbedModel  = "text-embedding-004"
	maxEmbeddingInput  = 40000
)

// retryBackoff is multiplied by the attempt number between retries.
var retryBackoff = 2 * time.Second

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	logger     *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model string, log *zap.Logger) (GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: defaultEmbedModel,
		logger:     logger.OrNop(log),
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.logger.Error("gemini request failed", zap.String("model", g.modelName), zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		g.logger.Warn("gemini response without text", zap.Int("candidates", len(resp.Candidates)))
		return "", fmt.Errorf("no text content in response")
	}

	g.logger.Debug("gemini response received", zap.String("preview", logger.TruncateForLog(text, 200)))
	return text, nil
}

// GenerateTextWithRetry implements GeminiService.
func (g *geminiService) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := g.GenerateText(ctx, prompt, temperature)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		if attempt == maxRetries {
			break
		}

		g.logger.Warn("gemini attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if err := waitFor(ctx, time.Duration(attempt)*retryBackoff); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
