package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/core"
)

// DefaultEmbedDelay is the pause between consecutive embedding calls, to
// avoid hammering small local model servers.
const DefaultEmbedDelay = 100 * time.Millisecond

// embeddingStage fills in chunk embeddings best-effort, one chunk at a time.
type embeddingStage struct {
	embedder   ai.Embedder
	dimensions int
	delay      time.Duration
	logger     *slog.Logger
}

// embedResult summarizes what the stage did to a chunk batch.
type embedResult struct {
	Embedded  int // chunks that got a real embedding
	Fallbacks int // chunks that got a random placeholder
	Skipped   int // chunks left without any embedding
}

func newEmbeddingStage(embedder ai.Embedder, dimensions int, delay time.Duration, logger *slog.Logger) *embeddingStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingStage{
		embedder:   embedder,
		dimensions: dimensions,
		delay:      delay,
		logger:     logger.With("stage", "embeddings"),
	}
}

// run embeds the chunks in place. Failures never abort the batch: an
// unreachable service substitutes a random fallback vector so the chunk
// stays searchable, any other failure leaves the chunk without an
// embedding. Context cancellation stops the stage early, leaving the
// remaining chunks unembedded.
func (s *embeddingStage) run(ctx context.Context, chunks []*core.Chunk) embedResult {
	var result embedResult

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			result.Skipped += len(chunks) - i
			s.logger.Warn("embedding stage cancelled", "remaining", len(chunks)-i)
			return result
		}

		vector, err := s.embedder.EmbedText(ctx, chunk.Text)
		switch {
		case err == nil:
			chunk.Embedding = vector
			result.Embedded++
		case ai.IsUnreachable(err):
			chunk.Embedding = ai.FallbackVector(s.dimensions)
			result.Fallbacks++
			s.logger.Warn("embedding service unreachable, using fallback vector",
				"chunkID", chunk.ID, "err", err)
		default:
			result.Skipped++
			s.logger.Warn("embedding failed, storing chunk without embedding",
				"chunkID", chunk.ID, "err", err)
		}

		// Pace the calls; no delay after the last chunk
		if s.delay > 0 && i < len(chunks)-1 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
			}
		}
	}

	return result
}
