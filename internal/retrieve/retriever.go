// Package retrieve supplies the policy excerpts a question is answered from.
// Backends return hits ordered by distance; callers dedupe and cap them.
package retrieve

import (
	"context"
	"fmt"

	"github.com/ppiankov/policygate/internal/cache"
	"github.com/ppiankov/policygate/internal/model"
)

// Retriever returns the top policy chunks for a question
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]model.RetrievedChunk, error)
}

// DefaultTopK is the number of excerpts retrieved per question
const DefaultTopK = 5

// Dedup drops repeated ids, keeping the first hit, and caps the result to limit
func Dedup(hits []model.RetrievedChunk, limit int) []model.RetrievedChunk {
	seen := make(map[string]bool, len(hits))
	out := make([]model.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		if h.ID == "" || seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// RetrievedMap builds the {id → text} mapping the gates read
func RetrievedMap(hits []model.RetrievedChunk) map[string]string {
	m := make(map[string]string, len(hits))
	for _, h := range hits {
		if _, ok := m[h.ID]; !ok {
			m[h.ID] = h.Text
		}
	}
	return m
}

// Options carries the credentials and stores a backend may need
type Options struct {
	OpenAIKey string
	Cache     cache.Cache
}

// New builds the retriever selected by cfg
func New(cfg model.RetrievalConfig, opts Options) (Retriever, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalRetriever(cfg.DataDir, cfg.ChunkSize, cfg.ChunkOverlap)
	case "weaviate":
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required to embed questions for the weaviate backend")
		}
		embedder := NewOpenAIEmbedder(opts.OpenAIKey, "", cfg.EmbedModel, opts.Cache)
		return NewWeaviateRetriever(WeaviateConfig{
			Host:   cfg.WeaviateHost,
			Scheme: cfg.WeaviateScheme,
			Class:  cfg.WeaviateClass,
		}, embedder)
	default:
		return nil, fmt.Errorf("unsupported retrieval backend: %s", cfg.Backend)
	}
}
