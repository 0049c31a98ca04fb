package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docvec/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReembedder_Run(t *testing.T) {
	env := newReembedEnv(t)
	env.seed(t, "doc-a", 3)
	env.seed(t, "doc-b", 2)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8

	var out bytes.Buffer
	r := NewReembedder(env.docs, env.chunks, env.backend, embedder, &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &out)

	require.NoError(t, r.Run(ctx))
	assert.Contains(t, out.String(), "Starting reembedding of 5 chunks")
	assert.Contains(t, out.String(), "Reembedding complete")

	for _, docID := range []string{"doc-a", "doc-b"} {
		chunks, err := env.chunks.GetDocumentChunks(ctx, docID)
		require.NoError(t, err)
		for _, chunk := range chunks {
			require.Len(t, chunk.Embedding, 8)

			// Written back normalized
			var sum float32
			for _, v := range chunk.Embedding {
				sum += v * v
			}
			assert.InDelta(t, 1.0, sum, 1e-4)
		}
	}
}

func TestReembedder_EmptyStore(t *testing.T) {
	env := newReembedEnv(t)

	var out bytes.Buffer
	r := NewReembedder(env.docs, env.chunks, env.backend, mock.NewMockEmbedder(), nil, &out)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No chunks found")
}

func TestReembedder_RetriesThroughTransientFailure(t *testing.T) {
	env := newReembedEnv(t)
	env.seed(t, "doc-a", 2)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	failures := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if failures < 1 {
			failures++
			return nil, errors.New("transient outage")
		}
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{1, 2, 3}
		}
		return vectors, nil
	}

	var out bytes.Buffer
	r := NewReembedder(env.docs, env.chunks, env.backend, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}, &out)

	require.NoError(t, r.Run(ctx))

	chunks, err := env.chunks.GetDocumentChunks(ctx, "doc-a")
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Len(t, chunk.Embedding, 3)
	}
}

func TestBatchProcessor_EmbeddingCountMismatch(t *testing.T) {
	env := newReembedEnv(t)
	env.seed(t, "doc-a", 2)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}}, nil
	}

	chunks, err := env.chunks.GetDocumentChunks(ctx, "doc-a")
	require.NoError(t, err)

	bp := NewBatchProcessor(env.chunks, embedder, 1, time.Millisecond)
	err = bp.Process(ctx, chunks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	env := newReembedEnv(t)
	bp := NewBatchProcessor(env.chunks, mock.NewMockEmbedder(), 1, time.Millisecond)
	require.NoError(t, bp.Process(context.Background(), nil))
}
