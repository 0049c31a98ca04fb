package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/docvec/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithTimeout(2*time.Second),
	)
}

func TestEmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)

		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedTexts(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{float32(calls)}})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Equal(t, []float32{3}, vectors[2])
}

func TestEmbedText_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	// A reachable-but-failing service is not the unreachable class
	assert.False(t, ai.IsUnreachable(err))
	assert.Contains(t, err.Error(), "500")
}

func TestEmbedText_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	embedder, err := NewEmbedder(testConfig(url))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrServiceUnreachable)
	assert.True(t, ai.IsUnreachable(err))
}

func TestEmbedText_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	assert.NoError(t, embedder.Ping(context.Background()))

	server.Close()
	err = embedder.Ping(context.Background())
	assert.ErrorIs(t, err, ai.ErrServiceUnreachable)
}
