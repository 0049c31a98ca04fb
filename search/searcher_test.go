package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docvec/ai/mock"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
	"github.com/poiesic/docvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchEnv struct {
	docs     storage.DocumentRepository
	chunks   storage.ChunkRepository
	backend  *badger.Backend
	embedder *mock.MockEmbedder
}

func newSearchEnv(t *testing.T) *searchEnv {
	t.Helper()
	docs, chunks, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return &searchEnv{
		docs:     docs,
		chunks:   chunks,
		backend:  backend,
		embedder: mock.NewMockEmbedder(),
	}
}

func (e *searchEnv) newSearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()
	s, err := NewSearcher(e.chunks, e.embedder, opts...)
	require.NoError(t, err)
	return s
}

// seedDocument stores a document whose chunk embeddings come from the mock
// embedder, so a text query for the same text scores an exact match.
func (e *searchEnv) seedDocument(t *testing.T, docID string, texts ...string) {
	t.Helper()
	ctx := context.Background()

	chunks := make([]*core.Chunk, 0, len(texts))
	for i, text := range texts {
		embedding, err := e.embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		chunks = append(chunks, &core.Chunk{
			ID:         core.ChunkID(docID, i),
			DocumentID: docID,
			Text:       text,
			Index:      i,
			EndChar:    len(text),
			Embedding:  embedding,
		})
	}

	require.NoError(t, e.docs.PutProcessedDocument(ctx, &core.Document{
		ID:        docID,
		Filename:  docID + ".txt",
		Status:    core.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}, chunks))
}

func TestSearcher_SearchText(t *testing.T) {
	env := newSearchEnv(t)
	env.seedDocument(t, "doc-a",
		"the quarterly report covers revenue",
		"employee onboarding procedures and forms",
		"data retention policy for customer records")
	env.seedDocument(t, "doc-b",
		"revenue projections for next fiscal year",
		"office relocation timeline and logistics")
	s := env.newSearcher(t)
	ctx := context.Background()

	results, err := s.SearchText(ctx, "data retention policy for customer records", 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Exact text match ranks first with a perfect score
	assert.Equal(t, core.ChunkID("doc-a", 2), results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	// Non-increasing score order
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearcher_SearchVector(t *testing.T) {
	env := newSearchEnv(t)
	env.seedDocument(t, "doc-a", "first chunk of text", "second chunk of text")
	s := env.newSearcher(t)
	ctx := context.Background()

	embedding, err := env.embedder.EmbedText(ctx, "second chunk of text")
	require.NoError(t, err)

	results, err := s.SearchVector(ctx, embedding, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ChunkID("doc-a", 1), results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestSearcher_DocumentFilter(t *testing.T) {
	env := newSearchEnv(t)
	env.seedDocument(t, "doc-a", "shared topic sentence one", "shared topic sentence two")
	env.seedDocument(t, "doc-b", "shared topic sentence three")
	s := env.newSearcher(t)
	ctx := context.Background()

	results, err := s.SearchText(ctx, "shared topic sentence", 10, &storage.SearchFilter{DocumentID: "doc-b"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-b", results[0].Chunk.DocumentID)
}

func TestSearcher_DefaultTopK(t *testing.T) {
	env := newSearchEnv(t)
	texts := make([]string, 15)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk number %d with filler text", i)
	}
	env.seedDocument(t, "doc-a", texts...)
	s := env.newSearcher(t)

	results, err := s.SearchText(context.Background(), "chunk number 3 with filler text", 0, nil)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestSearcher_EmptyQuery(t *testing.T) {
	env := newSearchEnv(t)
	s := env.newSearcher(t)

	_, err := s.SearchText(context.Background(), "   ", 5, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearcher_EmbeddingFailurePropagates(t *testing.T) {
	env := newSearchEnv(t)
	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model overloaded")
	}
	s := env.newSearcher(t)

	_, err := s.SearchText(context.Background(), "anything", 5, nil)
	require.Error(t, err)
}

func TestSearcher_RequiredDependencies(t *testing.T) {
	env := newSearchEnv(t)

	_, err := NewSearcher(nil, env.embedder)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewSearcher(env.chunks, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestSearcher_Health(t *testing.T) {
	env := newSearchEnv(t)
	env.seedDocument(t, "doc-a", "some indexed content here")
	s := env.newSearcher(t,
		WithStorePinger(env.backend),
		WithStatsProvider(env.backend))
	ctx := context.Background()

	h := s.Health(ctx)
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Equal(t, "ok", h.Store)
	assert.Equal(t, "ok", h.Embedder)
	require.NotNil(t, h.Stats)
	assert.Equal(t, 1, h.Stats.Documents)
	assert.Equal(t, 1, h.Stats.Chunks)
}

func TestSearcher_HealthDegradedEmbedder(t *testing.T) {
	env := newSearchEnv(t)
	env.embedder.PingFunc = func(ctx context.Context) error {
		return errors.New("connection refused")
	}
	s := env.newSearcher(t, WithStorePinger(env.backend))

	h := s.Health(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Equal(t, "ok", h.Store)
	assert.Contains(t, h.Embedder, "connection refused")
}

type offlinePinger struct{}

func (offlinePinger) Ping(ctx context.Context) error {
	return errors.New("store offline")
}

func TestSearcher_HealthDegradedStore(t *testing.T) {
	env := newSearchEnv(t)
	s := env.newSearcher(t, WithStorePinger(offlinePinger{}))

	h := s.Health(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Contains(t, h.Store, "store offline")
	assert.Equal(t, "ok", h.Embedder)
}
