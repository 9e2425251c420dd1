package retrieve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, f.err }

func newWeaviateServer(t *testing.T, graphqlBody string, query *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/meta":
			_, _ = w.Write([]byte(`{"version":"1.25.0"}`))
		case "/v1/graphql":
			body, _ := io.ReadAll(r.Body)
			var req struct {
				Query string `json:"query"`
			}
			_ = json.Unmarshal(body, &req)
			if query != nil {
				*query = req.Query
			}
			_, _ = w.Write([]byte(graphqlBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWeaviateRetriever_Retrieve(t *testing.T) {
	body := `{"data":{"Get":{"PolicyChunk":[
		{"chunk_id":"vacation-policy:sec0002","text":"Initial entitlement is 15 days.","policy_id":"vacation-policy","section_id":"sec0002","chunk_index":2,"_additional":{"distance":0.12}},
		{"chunk_id":"","text":"Carry-over is capped.","policy_id":"vacation-policy","section_id":"sec0003","chunk_index":3,"_additional":{"distance":0.2}},
		{"chunk_id":"vacation-policy:sec0002","text":"dup","_additional":{"distance":0.3}}
	]}}}`
	var query string
	srv := newWeaviateServer(t, body, &query)

	r, err := NewWeaviateRetriever(WeaviateConfig{Host: srv.URL}, fixedEmbedder{vec: []float32{0.1, 0.2}})
	require.NoError(t, err)

	hits, err := r.Retrieve(context.Background(), "vacation entitlement", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "vacation-policy:sec0002", hits[0].ID)
	assert.InDelta(t, 0.12, hits[0].Distance, 1e-9)
	assert.Equal(t, 2, hits[0].Metadata.ChunkIndex)
	assert.Equal(t, "vacation-policy:sec0003", hits[1].ID, "id is rebuilt from policy and section")

	assert.Contains(t, query, "PolicyChunk")
	assert.Contains(t, query, "nearVector")
	assert.True(t, strings.Contains(query, "limit:5") || strings.Contains(query, "limit: 5"))
}

func TestWeaviateRetriever_GraphQLErrors(t *testing.T) {
	srv := newWeaviateServer(t, `{"errors":[{"message":"class PolicyChunk not found"}]}`, nil)

	r, err := NewWeaviateRetriever(WeaviateConfig{Host: srv.URL}, fixedEmbedder{vec: []float32{1}})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class PolicyChunk not found")
}

func TestWeaviateRetriever_EmbedError(t *testing.T) {
	r, err := NewWeaviateRetriever(WeaviateConfig{Host: "localhost:8080"}, fixedEmbedder{err: errors.New("quota")})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed question")
}

func TestNewWeaviateRetriever_HostRequired(t *testing.T) {
	_, err := NewWeaviateRetriever(WeaviateConfig{Host: "https://"}, fixedEmbedder{})
	assert.Error(t, err)
}
