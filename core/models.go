package core

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// DocumentStatus describes the terminal state of an ingested document.
type DocumentStatus string

const (
	// StatusCompleted means the full pipeline ran and the document is searchable.
	StatusCompleted DocumentStatus = "completed"
	// StatusFailed means processing failed terminally.
	StatusFailed DocumentStatus = "failed"
)

// Document represents one ingested file. A record exists only after the
// pipeline completed for it; there is no partially processed state visible
// to readers.
type Document struct {
	ID            string // externally assigned, unique
	Filename      string
	ContentType   string
	Status        DocumentStatus
	ExtractedText string
	TotalPages    int           // 0 when the format is not paginated
	Duration      time.Duration // wall-clock time spent in the pipeline
	Metadata      map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is a bounded, overlapping substring of a document's extracted text.
// It is the unit of embedding and retrieval. Chunks are stored separately
// from their parent document but share its lifetime.
type Chunk struct {
	ID         string // derived, see ChunkID
	DocumentID string
	Text       string // trimmed content
	Index      int    // zero-based, contiguous per document
	PageNumber int    // 0 = unknown
	StartChar  int    // offset of the window within the extracted text
	EndChar    int
	Embedding  []float32 // nil is a valid state: generation failed or was skipped
	Metadata   map[string]string
	CreatedAt  time.Time
}

// ChunkID derives the deterministic chunk identifier from its parent
// document and position.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// FileRef points a document at its raw bytes in the blob store. It is
// written at upload time, before any processing happens.
type FileRef struct {
	DocumentID  string
	BlobKey     string
	Filename    string
	ContentType string
	Digest      string // content digest of the uploaded bytes, see ContentDigest
	UploadedAt  time.Time
}

// NewFileRef assigns a fresh document ID and blob key to an upload and
// records its content digest.
func NewFileRef(filename, contentType string, data []byte) *FileRef {
	id := uuid.NewString()
	return &FileRef{
		DocumentID:  id,
		BlobKey:     "uploads/" + id,
		Filename:    filename,
		ContentType: contentType,
		Digest:      ContentDigest(data),
		UploadedAt:  time.Now().UTC(),
	}
}

// ScoredChunk pairs a chunk with its similarity score for a query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// Stats summarizes the contents of the store.
type Stats struct {
	Documents       int
	Chunks          int
	EmbeddedChunks  int
	AvgChunksPerDoc float64
}

// ContentDigest computes a short BLAKE2b digest of raw file bytes,
// hex encoded. Identical uploads produce identical digests.
func ContentDigest(data []byte) string {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
