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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/docvec/ai"
	"github.com/poiesic/docvec/blob"
	"github.com/poiesic/docvec/chunker"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/storage"
)

// Processor runs the full pipeline for one document: resolve its file
// reference, download the raw bytes, extract text, chunk, embed and
// persist. Everything before persistence is fail-fast except embedding,
// which is best-effort.
type Processor struct {
	documents storage.DocumentRepository
	files     storage.FileRepository
	blobs     blob.Store
	chunker   *chunker.Chunker
	stage     *embeddingStage
	gate      *Gate
	logger    *slog.Logger
}

// Result summarizes one processed document.
type Result struct {
	DocumentID    string
	Filename      string
	ContentType   string
	Status        core.DocumentStatus
	ExtractedText string
	TotalPages    int
	Chunks        int
	Embedded      int
	Fallbacks     int
	Skipped       int
	Duration      time.Duration
	Metadata      map[string]string
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor) error

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) ProcessorOption {
	return func(p *Processor) error {
		if c == nil {
			return fmt.Errorf("chunker must not be nil")
		}
		p.chunker = c
		return nil
	}
}

// WithGate shares a concurrency gate between processors.
// Default is a fresh gate admitting DefaultDocumentConcurrency documents.
func WithGate(g *Gate) ProcessorOption {
	return func(p *Processor) error {
		if g == nil {
			return fmt.Errorf("gate must not be nil")
		}
		p.gate = g
		return nil
	}
}

// WithProcessorLogger sets a custom logger.
// Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// WithEmbedDelay sets the pause between consecutive embedding calls.
// Default is DefaultEmbedDelay.
func WithEmbedDelay(d time.Duration) ProcessorOption {
	return func(p *Processor) error {
		if d < 0 {
			return fmt.Errorf("embed delay must not be negative")
		}
		p.stage.delay = d
		return nil
	}
}

// NewProcessor creates a document processor. dimensions supplies the
// fallback vector width for chunks embedded while the service is down.
func NewProcessor(
	documents storage.DocumentRepository,
	files storage.FileRepository,
	blobs blob.Store,
	embedder ai.Embedder,
	dimensions int,
	opts ...ProcessorOption,
) (*Processor, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	logger := slog.Default().With("component", "ingestion")

	chk, err := chunker.New()
	if err != nil {
		return nil, err
	}

	p := &Processor{
		documents: documents,
		files:     files,
		blobs:     blobs,
		chunker:   chk,
		stage:     newEmbeddingStage(embedder, dimensions, DefaultEmbedDelay, logger),
		gate:      NewGate(DefaultDocumentConcurrency),
		logger:    logger,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Gate returns the processor's concurrency gate so callers can share it.
func (p *Processor) Gate() *Gate {
	return p.gate
}

// Process runs the pipeline for one document. The document record and its
// chunks become visible together when the pipeline completes; on error
// nothing is persisted and the error propagates to the caller.
func (p *Processor) Process(ctx context.Context, documentID string) (*Result, error) {
	if err := p.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.gate.Release()

	start := time.Now()
	p.logger.Info("processing document", "documentID", documentID)

	ref, err := p.files.GetFileRef(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("resolving file reference for %s: %w", documentID, err)
	}

	data, err := p.download(ctx, ref.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", ref.BlobKey, err)
	}

	extracted, err := extract.Extract(data, ref.ContentType)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", documentID, err)
	}

	now := time.Now().UTC()
	pieces := p.chunker.Split(extracted.Text)
	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(documentID, piece.Index),
			DocumentID: documentID,
			Text:       piece.Text,
			Index:      piece.Index,
			StartChar:  piece.StartChar,
			EndChar:    piece.EndChar,
			CreatedAt:  now,
		}
	}

	embedded := p.stage.run(ctx, chunks)

	doc := &core.Document{
		ID:            documentID,
		Filename:      ref.Filename,
		ContentType:   ref.ContentType,
		Status:        core.StatusCompleted,
		ExtractedText: extracted.Text,
		TotalPages:    extracted.Pages,
		Duration:      time.Since(start),
		Metadata: map[string]string{
			"chunkCount":    strconv.Itoa(len(chunks)),
			"embeddedCount": strconv.Itoa(embedded.Embedded),
			"textLength":    strconv.Itoa(len(extracted.Text)),
			"processedAt":   now.Format(time.RFC3339),
			"digest":        ref.Digest,
		},
		CreatedAt: now,
	}

	if err := p.documents.PutProcessedDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("persisting document %s: %w", documentID, err)
	}

	result := &Result{
		DocumentID:    documentID,
		Filename:      doc.Filename,
		ContentType:   doc.ContentType,
		Status:        doc.Status,
		ExtractedText: doc.ExtractedText,
		TotalPages:    doc.TotalPages,
		Chunks:        len(chunks),
		Embedded:      embedded.Embedded,
		Fallbacks:     embedded.Fallbacks,
		Skipped:       embedded.Skipped,
		Duration:      time.Since(start),
		Metadata:      doc.Metadata,
	}
	p.logger.Info("document processed",
		"documentID", documentID,
		"chunks", result.Chunks,
		"embedded", result.Embedded,
		"fallbacks", result.Fallbacks,
		"duration", result.Duration)
	return result, nil
}

func (p *Processor) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
