package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/policygate/internal/model"
)

func hit(id, text string, distance float64) model.RetrievedChunk {
	return model.RetrievedChunk{Chunk: model.Chunk{ID: id, Text: text}, Distance: distance}
}

func TestDedup(t *testing.T) {
	hits := []model.RetrievedChunk{
		hit("hr:sec0000", "first", 0.1),
		hit("hr:sec0001", "second", 0.2),
		hit("hr:sec0000", "duplicate", 0.3),
		hit("", "no id", 0.4),
		hit("hr:sec0002", "third", 0.5),
	}

	got := Dedup(hits, 5)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "hr:sec0002", got[2].ID)

	assert.Len(t, Dedup(hits, 2), 2)
	assert.Len(t, Dedup(hits, 0), 3)
	assert.Empty(t, Dedup(nil, 5))
}

func TestRetrievedMap_FirstWins(t *testing.T) {
	m := RetrievedMap([]model.RetrievedChunk{
		hit("a:1", "one", 0),
		hit("a:1", "other", 0),
		hit("a:2", "two", 0),
	})
	assert.Equal(t, map[string]string{"a:1": "one", "a:2": "two"}, m)
}

func TestNew_Backends(t *testing.T) {
	_, err := New(model.RetrievalConfig{Backend: "weaviate", WeaviateHost: "localhost:8080"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = New(model.RetrievalConfig{Backend: "chroma"}, Options{})
	assert.Error(t, err)

	r, err := New(model.RetrievalConfig{Backend: "weaviate", WeaviateHost: "localhost:8080"}, Options{OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &WeaviateRetriever{}, r)
}
