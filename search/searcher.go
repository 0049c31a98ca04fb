// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/storage"
)

// DefaultTopK is how many results a search returns when the caller
// does not ask for a specific count.
const DefaultTopK = 10

// Pinger reports whether a backing service is reachable.
// The badger backend and every ai.Embedder satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher answers vector and text similarity queries against the chunk store.
type Searcher struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	stats    storage.StatsProvider
	store    Pinger
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithStatsProvider lets Health report corpus statistics.
func WithStatsProvider(p storage.StatsProvider) Option {
	return func(s *Searcher) error {
		s.stats = p
		return nil
	}
}

// WithStorePinger lets Health check storage connectivity.
func WithStorePinger(p Pinger) Option {
	return func(s *Searcher) error {
		s.store = p
		return nil
	}
}

// NewSearcher creates a searcher over the given chunk repository and embedder.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SearchVector returns up to topK chunks ranked by cosine similarity to
// the given embedding. A non-positive topK falls back to DefaultTopK.
// Chunks without an embedding are never returned.
func (s *Searcher) SearchVector(ctx context.Context, embedding []float32, topK int, filter *storage.SearchFilter) ([]*core.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return s.chunks.SearchChunks(ctx, embedding, topK, filter)
}

// SearchText embeds the query and runs a vector search with the result.
func (s *Searcher) SearchText(ctx context.Context, query string, topK int, filter *storage.SearchFilter) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	return s.SearchVector(ctx, embedding, topK, filter)
}
