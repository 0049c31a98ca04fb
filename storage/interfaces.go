package storage

import (
	"context"

	"github.com/poiesic/docvec/core"
)

// SearchFilter restricts a similarity search. The zero value matches all
// chunks that carry an embedding.
type SearchFilter struct {
	// DocumentID, when non-empty, limits results to chunks of one document.
	DocumentID string
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	Repository

	// PutProcessedDocument writes a finished document record together with
	// its chunk batch in one atomic operation. This is the sole write path
	// for documents; there are no partial or streaming writes. Returns
	// ErrDuplicate if a document with the same ID already exists.
	PutProcessedDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) error

	// GetDocument retrieves a document record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments returns documents ordered by creation time descending,
	// paginated with limit/offset, optionally filtered by status ("" = all).
	// The second return value is the total match count before pagination.
	ListDocuments(ctx context.Context, limit, offset int, status core.DocumentStatus) ([]*core.Document, int, error)

	// DeleteDocument removes the document record only. Chunk removal is a
	// separate operation; see ChunkRepository.DeleteDocumentChunks.
	// Deleting a missing document is not an error.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkRepository provides operations for managing chunks and searching
// over their embeddings.
type ChunkRepository interface {
	Repository

	// GetDocumentChunks retrieves all chunks of one document ordered by
	// chunk index ascending.
	GetDocumentChunks(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// DeleteDocumentChunks removes all chunks of one document and their
	// index entries. Returns the number of chunks removed. Removing chunks
	// of a missing document is not an error.
	DeleteDocumentChunks(ctx context.Context, documentID string) (int, error)

	// UpdateChunkEmbeddings overwrites the embeddings of existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkEmbeddings(ctx context.Context, chunks ...*core.Chunk) error

	// SearchChunks performs an exhaustive similarity scan: every chunk with
	// a non-nil embedding (matching the optional filter) is scored with
	// cosine similarity against query, results are ordered by score
	// descending and truncated to topK. Chunks without embeddings never
	// appear in results.
	SearchChunks(ctx context.Context, query []float32, topK int, filter *SearchFilter) ([]*core.ScoredChunk, error)
}

// FileRepository tracks the blob-store location of raw uploads, keyed by
// document ID. Records are written at upload time and read by the pipeline
// to resolve a document's backing file.
type FileRepository interface {
	Repository

	// PutFileRef stores or replaces the file reference for a document.
	PutFileRef(ctx context.Context, ref *core.FileRef) error

	// GetFileRef retrieves the file reference for a document.
	// Returns ErrNotFound if no upload is recorded for the ID.
	GetFileRef(ctx context.Context, documentID string) (*core.FileRef, error)

	// DeleteFileRef removes the file reference. Missing refs are not an error.
	DeleteFileRef(ctx context.Context, documentID string) error
}

// StatsProvider reports aggregate counts over the store.
type StatsProvider interface {
	// Stats returns document/chunk totals, the embedded-chunk count and the
	// average number of chunks per document (0 when there are no documents).
	Stats(ctx context.Context) (*core.Stats, error)
}
