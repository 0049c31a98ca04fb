package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// BatchProcessor regenerates embeddings for batches of chunks.
type BatchProcessor struct {
	chunks         storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		chunks:         chunks,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and writes them back.
// Vectors are normalized so cosine similarity search stays well-behaved.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Embedding = core.Normalize(embeddings[i])
	}

	if err := bp.chunks.UpdateChunkEmbeddings(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}
