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

package docvec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/ai/openai"
	"github.com/poiesic/docvec/blob"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/ingestion"
	"github.com/poiesic/docvec/queue"
	"github.com/poiesic/docvec/reembed"
	"github.com/poiesic/docvec/search"
	"github.com/poiesic/docvec/storage"
	"github.com/poiesic/docvec/storage/badger"
)

// IngestQueue is the name of the durable document-ingestion queue.
const IngestQueue = "ingest"

// Database bundles the badger backend, the repositories, the ingestion
// queue and the embedding provider behind one handle.
type Database struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	fileRepo     storage.FileRepository
	queue        *queue.Queue
	provider     ai.AIProvider
	aiConfig     *ai.Config
	searcher     *search.Searcher
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	inMemory  bool
	queueOpts []queue.Option
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithAIProvider injects a pre-built provider instead of constructing the
// OpenAI-compatible one. Used by tests and embedded deployments.
func WithAIProvider(p ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = p
	}
}

// WithInMemory opens an ephemeral store that vanishes on Close.
// The filePath argument to NewDatabase is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithQueueOptions passes options through to the ingestion queue.
func WithQueueOptions(opts ...queue.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.queueOpts = append(o.queueOpts, opts...)
	}
}

// NewDatabase opens the store at filePath and wires up repositories, the
// ingestion queue and the embedding provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo := badger.NewDocumentRepository(backend)
	chunkRepo := badger.NewChunkRepository(backend)
	fileRepo := badger.NewFileRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	q, err := queue.New(backend, IngestQueue, options.queueOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(chunkRepo, provider.Embedder(),
		search.WithStorePinger(backend),
		search.WithStatsProvider(backend))
	if err != nil {
		q.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:      backend,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		fileRepo:     fileRepo,
		queue:        q,
		provider:     provider,
		aiConfig:     options.aiConfig,
		searcher:     searcher,
		logger:       slog.Default(),
	}, nil
}

// Close shuts down the queue, the provider and the backend.
func (db *Database) Close() error {
	db.queue.Close()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// StoreProcessedDocument validates and persists a document together with
// its chunk batch in one transaction. A duplicate document ID is rejected
// with storage.ErrDuplicate and nothing is written.
func (db *Database) StoreProcessedDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.DocumentID != doc.ID {
			return fmt.Errorf("%w: chunk %s belongs to document %s", core.ErrInvalidChunk, chunk.ID, chunk.DocumentID)
		}
	}

	return db.documentRepo.PutProcessedDocument(ctx, doc, chunks)
}

// GetDocument returns the document, or nil when it doesn't exist.
func (db *Database) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	doc, err := db.documentRepo.GetDocument(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// DocumentChunks returns a document's chunks ordered by chunk index.
func (db *Database) DocumentChunks(ctx context.Context, documentID string) ([]*core.Chunk, error) {
	return db.chunkRepo.GetDocumentChunks(ctx, documentID)
}

// ListDocuments pages through documents newest-first, optionally filtered
// by status (empty = all). The second return value is the total match
// count before pagination.
func (db *Database) ListDocuments(ctx context.Context, limit, offset int, status core.DocumentStatus) ([]*core.Document, int, error) {
	return db.documentRepo.ListDocuments(ctx, limit, offset, status)
}

// DeleteDocument removes a document, its chunks and its file reference.
// These are independent deletes, not one transaction: a failure partway
// through returns storage.ErrPartialDeletion and leaves orphaned chunk or
// file-reference records behind. Deleting a missing document is not an
// error.
func (db *Database) DeleteDocument(ctx context.Context, id string) error {
	if err := db.documentRepo.DeleteDocument(ctx, id); err != nil {
		return err
	}

	if _, err := db.chunkRepo.DeleteDocumentChunks(ctx, id); err != nil {
		return fmt.Errorf("%w: document %s removed but chunks remain: %w", storage.ErrPartialDeletion, id, err)
	}

	if err := db.fileRepo.DeleteFileRef(ctx, id); err != nil {
		return fmt.Errorf("%w: document %s removed but file reference remains: %w", storage.ErrPartialDeletion, id, err)
	}

	return nil
}

// Stats returns aggregate document and chunk counts.
func (db *Database) Stats(ctx context.Context) (*core.Stats, error) {
	return db.backend.Stats(ctx)
}

// Health probes store and embedding service reachability.
func (db *Database) Health(ctx context.Context) *search.Health {
	return db.searcher.Health(ctx)
}

// DocumentRepository exposes the underlying document repository.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

// ChunkRepository exposes the underlying chunk repository.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

// FileRepository exposes the underlying file reference repository.
func (db *Database) FileRepository() storage.FileRepository {
	return db.fileRepo
}

// Queue exposes the ingestion queue.
func (db *Database) Queue() *queue.Queue {
	return db.queue
}

// NewProcessor builds a document processor backed by this database and the
// given blob store.
func (db *Database) NewProcessor(blobs blob.Store, opts ...ingestion.ProcessorOption) (*ingestion.Processor, error) {
	return ingestion.NewProcessor(
		db.documentRepo,
		db.fileRepo,
		blobs,
		db.provider.Embedder(),
		db.aiConfig.Dimensions,
		opts...)
}

// NewWorker builds a queue worker driving the given processor.
func (db *Database) NewWorker(processor *ingestion.Processor, opts ...ingestion.WorkerOption) (*ingestion.Worker, error) {
	return ingestion.NewWorker(db.queue, processor, db.backend, opts...)
}

// NewSearcher builds a searcher over this database's chunks.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithStorePinger(db.backend),
		search.WithStatsProvider(db.backend),
	}
	return search.NewSearcher(db.chunkRepo, db.provider.Embedder(), append(base, opts...)...)
}

// NewReembedder builds a maintenance tool that regenerates every chunk
// embedding, reporting progress to the given writer.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.documentRepo, db.chunkRepo, db.backend, db.provider.Embedder(), config, progress)
}
