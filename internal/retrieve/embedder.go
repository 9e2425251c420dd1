package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/policygate/internal/cache"
)

// DefaultEmbedModel matches the model the policy index is built with
const DefaultEmbedModel = "text-embedding-3-small"

// Embedder turns a question into a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder embeds text with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	cache  *cache.VectorCache
}

// NewOpenAIEmbedder creates an embedder; store may be nil to disable caching
func NewOpenAIEmbedder(apiKey, baseURL, model string, store cache.Cache) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultEmbedModel
	}

	e := &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
	if store != nil {
		e.cache = cache.NewVectorCache(store)
	}
	return e
}

// Embed returns the embedding for text, consulting the cache first
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if vec, ok := e.cache.Get(e.model, text); ok {
			slog.Debug("Embedding cache hit", "model", e.model)
			return vec, nil
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("create embedding: empty response")
	}

	vec := resp.Data[0].Embedding
	if e.cache != nil {
		if err := e.cache.Set(e.model, text, vec); err != nil {
			slog.Warn("Failed to cache embedding", "error", err)
		}
	}
	return vec, nil
}
