package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/ppiankov/policygate/internal/model"
)

// DefaultClass is the Weaviate class holding indexed policy chunks
const DefaultClass = "PolicyChunk"

// WeaviateConfig locates the vector index
type WeaviateConfig struct {
	Host   string
	Scheme string
	Class  string
}

// WeaviateRetriever runs nearVector searches against a pre-built index
type WeaviateRetriever struct {
	client   *weaviate.Client
	class    string
	embedder Embedder
}

// NewWeaviateRetriever creates a retriever; the host may carry an http(s) scheme prefix
func NewWeaviateRetriever(cfg WeaviateConfig, embedder Embedder) (*WeaviateRetriever, error) {
	host, scheme := cfg.Host, cfg.Scheme
	if h, ok := strings.CutPrefix(host, "https://"); ok {
		host, scheme = h, "https"
	} else if h, ok := strings.CutPrefix(host, "http://"); ok {
		host, scheme = h, "http"
	}
	if host == "" {
		return nil, fmt.Errorf("weaviate host is required")
	}
	if scheme == "" {
		scheme = "http"
	}
	class := cfg.Class
	if class == "" {
		class = DefaultClass
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &WeaviateRetriever{client: client, class: class, embedder: embedder}, nil
}

type chunkHit struct {
	ChunkID    string `json:"chunk_id"`
	Text       string `json:"text"`
	PolicyID   string `json:"policy_id"`
	SectionID  string `json:"section_id"`
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
	ChunkIndex int    `json:"chunk_index"`
	Additional struct {
		Distance float64 `json:"distance"`
	} `json:"_additional"`
}

// Retrieve embeds the question and returns the nearest chunks
func (r *WeaviateRetriever) Retrieve(ctx context.Context, question string, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	fields := []graphql.Field{
		{Name: "chunk_id"},
		{Name: "text"},
		{Name: "policy_id"},
		{Name: "section_id"},
		{Name: "title"},
		{Name: "source_path"},
		{Name: "chunk_index"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "distance"},
		}},
	}

	nearVector := r.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	resp, err := r.client.GraphQL().Get().
		WithClassName(r.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	hits, err := r.parse(resp)
	if err != nil {
		return nil, err
	}
	return Dedup(hits, topK), nil
}

func (r *WeaviateRetriever) parse(resp *models.GraphQLResponse) ([]model.RetrievedChunk, error) {
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("weaviate search failed: %s", strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal search results: %w", err)
	}
	var parsed struct {
		Get map[string][]chunkHit `json:"Get"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	found := parsed.Get[r.class]
	hits := make([]model.RetrievedChunk, 0, len(found))
	for _, h := range found {
		id := h.ChunkID
		if id == "" && h.PolicyID != "" && h.SectionID != "" {
			id = model.ChunkID(h.PolicyID, h.SectionID)
		}
		hits = append(hits, model.RetrievedChunk{
			Chunk: model.Chunk{
				ID:   id,
				Text: h.Text,
				Metadata: model.ChunkMetadata{
					PolicyID:   h.PolicyID,
					SectionID:  h.SectionID,
					Title:      h.Title,
					SourcePath: h.SourcePath,
					ChunkIndex: h.ChunkIndex,
				},
			},
			Distance: h.Additional.Distance,
		})
	}
	return hits, nil
}
